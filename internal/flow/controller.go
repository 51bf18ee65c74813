// internal/flow/controller.go
// State machine for one evaluate-transaction request cycle.
package flow

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/psyepez2005/LPDV-retoParqueTec/internal/apierror"
	"github.com/psyepez2005/LPDV-retoParqueTec/internal/classify"
	"github.com/psyepez2005/LPDV-retoParqueTec/internal/models"
	"github.com/psyepez2005/LPDV-retoParqueTec/internal/scoring"
	"github.com/psyepez2005/LPDV-retoParqueTec/internal/session"
)

type State string

const (
	StateIdle    State = "IDLE"
	StateLoading State = "LOADING"
	StateResult  State = "RESULT"
	StateError   State = "ERROR"
)

// ErrBusy is returned when a submission arrives while a previous one
// is still LOADING. There is no queuing.
var ErrBusy = errors.New("evaluation already in progress")

// Evaluator is the network collaborator that performs the scoring call.
type Evaluator interface {
	EvaluateTransaction(ctx context.Context, token string, payload map[string]interface{}) (*models.EvaluationResult, error)
}

// SessionGuard is consulted before the call (fail fast) and after a
// rejected response (mid-session expiry).
type SessionGuard interface {
	Require(ctx context.Context, sessionID string) (*models.Credential, error)
	CheckResponse(ctx context.Context, sessionID string, status int) error
}

// BreakdownView is one scored factor with its presentation severity.
type BreakdownView struct {
	models.BreakdownItem
	Severity classify.Severity `json:"severity"`
}

// PresentationModel is the terminal view-model of a successful cycle.
type PresentationModel struct {
	Tier         models.RiskTier          `json:"tier"`
	RawScore     float64                  `json:"raw_score"`
	DisplayScore float64                  `json:"display_score"`
	ElapsedMS    int64                    `json:"elapsed_ms"`
	Result       *models.EvaluationResult `json:"result"`
	Breakdown    []BreakdownView          `json:"breakdown"`
}

// FlowError is the terminal outcome of a failed cycle. Every kind is
// final for the attempt; the operator resubmits explicitly.
type FlowError struct {
	Kind    models.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

func (e *FlowError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Controller runs the IDLE → LOADING → RESULT/ERROR cycle for one
// console session. At most one cycle is in flight at a time.
type Controller struct {
	sessionID string
	guard     SessionGuard
	evaluator Evaluator
	logger    *zap.Logger

	mu      sync.Mutex
	state   State
	last    *PresentationModel
	lastErr *FlowError
}

func NewController(sessionID string, guard SessionGuard, evaluator Evaluator, logger *zap.Logger) *Controller {
	return &Controller{
		sessionID: sessionID,
		guard:     guard,
		evaluator: evaluator,
		logger:    logger,
		state:     StateIdle,
	}
}

// Submit runs one full evaluation cycle. It blocks until the cycle is
// terminal and returns either a PresentationModel or a *FlowError.
// ErrBusy is returned without touching the in-flight cycle.
func (c *Controller) Submit(ctx context.Context, raw []byte) (*PresentationModel, error) {
	c.mu.Lock()
	if c.state == StateLoading {
		c.mu.Unlock()
		return nil, ErrBusy
	}

	// Local pre-flight: the payload must at least be structured data.
	// No network call is attempted and the state stays IDLE.
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		flowErr := &FlowError{
			Kind:    apierror.KindMalformedInput,
			Message: "El payload no es JSON válido.",
		}
		c.state = StateIdle
		c.lastErr = flowErr
		c.mu.Unlock()
		return nil, flowErr
	}

	cred, err := c.guard.Require(ctx, c.sessionID)
	if err != nil {
		flowErr := authRequiredError()
		c.state = StateIdle
		c.lastErr = flowErr
		c.mu.Unlock()
		return nil, flowErr
	}

	c.state = StateLoading
	c.lastErr = nil
	c.last = nil
	c.mu.Unlock()

	start := time.Now()
	result, callErr := c.evaluator.EvaluateTransaction(ctx, cred.AccessToken, payload)
	elapsed := time.Since(start).Milliseconds()

	c.mu.Lock()
	defer c.mu.Unlock()

	if callErr != nil {
		flowErr := c.resolveFailure(ctx, callErr)
		c.state = StateError
		c.lastErr = flowErr
		return nil, flowErr
	}

	model := present(result, elapsed)
	c.state = StateResult
	c.last = model

	c.logger.Info("evaluation completed",
		zap.String("session_id", c.sessionID),
		zap.String("transaction_id", result.TransactionID),
		zap.Float64("risk_score", model.RawScore),
		zap.String("tier", string(model.Tier)),
		zap.Int64("elapsed_ms", elapsed))

	return model, nil
}

// resolveFailure maps a failed call to its taxonomy kind. A 401/403
// always wins over whatever the body said.
func (c *Controller) resolveFailure(ctx context.Context, callErr error) *FlowError {
	var apiErr *scoring.APIError
	if !errors.As(callErr, &apiErr) {
		c.logger.Warn("engine unreachable",
			zap.String("session_id", c.sessionID),
			zap.Error(callErr))
		return &FlowError{
			Kind:    apierror.KindNetworkUnavailable,
			Message: "No se pudo contactar al motor antifraude.",
		}
	}

	if err := c.guard.CheckResponse(ctx, c.sessionID, apiErr.Status); err != nil {
		return authRequiredError()
	}

	parsed := apierror.Parse(apiErr.Status, apiErr.Body)
	return &FlowError{Kind: parsed.Kind, Message: parsed.Message}
}

// Snapshot reports the current state with its terminal outcome, if any.
func (c *Controller) Snapshot() (State, *PresentationModel, *FlowError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.last, c.lastErr
}

func present(result *models.EvaluationResult, elapsedMS int64) *PresentationModel {
	score := result.EffectiveScore()

	breakdown := make([]BreakdownView, 0, len(result.ScoreBreakdown))
	for _, item := range result.ScoreBreakdown {
		breakdown = append(breakdown, BreakdownView{
			BreakdownItem: item,
			Severity:      classify.SeverityForPoints(item.Points),
		})
	}

	return &PresentationModel{
		Tier:         classify.Tier(score),
		RawScore:     score,
		DisplayScore: classify.DisplayScore(score),
		ElapsedMS:    elapsedMS,
		Result:       result,
		Breakdown:    breakdown,
	}
}

func authRequiredError() *FlowError {
	return &FlowError{
		Kind:    apierror.KindAuthRequired,
		Message: "Sesión expirada. Inicia sesión nuevamente.",
	}
}

// compile-time checks against the real collaborators
var (
	_ Evaluator    = (*scoring.Client)(nil)
	_ SessionGuard = (*session.Guard)(nil)
)
