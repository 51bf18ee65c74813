// internal/session/guard.go
package session

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/psyepez2005/LPDV-retoParqueTec/internal/models"
)

// ErrAuthRequired signals that the caller must send the user back to
// login. Both the fail-fast check and the post-response expiry check
// converge on this error.
var ErrAuthRequired = errors.New("authentication required")

// Guard checks for a stored credential before a protected call and
// reacts to unauthenticated responses after one.
type Guard struct {
	store  Store
	logger *zap.Logger
}

func NewGuard(store Store, logger *zap.Logger) *Guard {
	return &Guard{
		store:  store,
		logger: logger,
	}
}

// Require returns the stored credential or ErrAuthRequired. Callers
// must short-circuit on error and skip the network call entirely.
func (g *Guard) Require(ctx context.Context, sessionID string) (*models.Credential, error) {
	if sessionID == "" {
		return nil, ErrAuthRequired
	}

	cred, err := g.store.Get(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrAuthRequired
	}
	if err != nil {
		g.logger.Error("session store read failed", zap.Error(err))
		return nil, ErrAuthRequired
	}
	if cred.AccessToken == "" {
		return nil, ErrAuthRequired
	}

	return cred, nil
}

// CheckResponse treats 401/403 as implicit session expiry: the stored
// credential is cleared and ErrAuthRequired is returned regardless of
// what the response body said.
func (g *Guard) CheckResponse(ctx context.Context, sessionID string, status int) error {
	if status != http.StatusUnauthorized && status != http.StatusForbidden {
		return nil
	}

	if err := g.store.Clear(ctx, sessionID); err != nil {
		g.logger.Error("failed to clear expired session",
			zap.Error(err),
			zap.String("session_id", sessionID))
	}

	g.logger.Info("session invalidated by engine response",
		zap.String("session_id", sessionID),
		zap.Int("status", status))

	return ErrAuthRequired
}
