// internal/session/guard_test.go
package session

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/psyepez2005/LPDV-retoParqueTec/internal/models"
)

func TestGuardRequire(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	guard := NewGuard(store, zap.NewNop())

	if _, err := guard.Require(ctx, "missing"); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("Require() with no credential = %v, want ErrAuthRequired", err)
	}

	if _, err := guard.Require(ctx, ""); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("Require() with empty session id = %v, want ErrAuthRequired", err)
	}

	cred := &models.Credential{AccessToken: "tok-1", UserID: "user-1"}
	if err := store.Set(ctx, "sid-1", cred, time.Hour); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	got, err := guard.Require(ctx, "sid-1")
	if err != nil {
		t.Fatalf("Require() with stored credential failed: %v", err)
	}
	if got.AccessToken != "tok-1" || got.UserID != "user-1" {
		t.Errorf("Require() = %+v, want stored credential", got)
	}
}

func TestGuardRequireEmptyToken(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	guard := NewGuard(store, zap.NewNop())

	store.Set(ctx, "sid-1", &models.Credential{AccessToken: "", UserID: "user-1"}, time.Hour)

	if _, err := guard.Require(ctx, "sid-1"); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("Require() with empty token = %v, want ErrAuthRequired", err)
	}
}

func TestGuardCheckResponse(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantAuthErr bool
		wantCleared bool
	}{
		{"Unauthorized clears session", http.StatusUnauthorized, true, true},
		{"Forbidden clears session", http.StatusForbidden, true, true},
		{"Validation error keeps session", http.StatusUnprocessableEntity, false, false},
		{"Server error keeps session", http.StatusInternalServerError, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := NewMemoryStore()
			guard := NewGuard(store, zap.NewNop())
			store.Set(ctx, "sid-1", &models.Credential{AccessToken: "tok", UserID: "u"}, time.Hour)

			err := guard.CheckResponse(ctx, "sid-1", tt.status)
			if tt.wantAuthErr != errors.Is(err, ErrAuthRequired) {
				t.Fatalf("CheckResponse(%d) = %v, want auth error %v", tt.status, err, tt.wantAuthErr)
			}

			_, getErr := store.Get(ctx, "sid-1")
			cleared := errors.Is(getErr, ErrNotFound)
			if cleared != tt.wantCleared {
				t.Errorf("session cleared = %v, want %v", cleared, tt.wantCleared)
			}
		})
	}
}
