// internal/handler/console_handler.go
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/psyepez2005/LPDV-retoParqueTec/internal/apierror"
	"github.com/psyepez2005/LPDV-retoParqueTec/internal/dashboard"
	"github.com/psyepez2005/LPDV-retoParqueTec/internal/flow"
	"github.com/psyepez2005/LPDV-retoParqueTec/internal/metrics"
	"github.com/psyepez2005/LPDV-retoParqueTec/internal/models"
	"github.com/psyepez2005/LPDV-retoParqueTec/internal/scoring"
	"github.com/psyepez2005/LPDV-retoParqueTec/internal/session"
)

// SessionHeader carries the console session id issued at login.
const SessionHeader = "X-Console-Session"

// Engine defaults and caps for the dashboard summary window.
const (
	defaultPeriodHours = 24
	defaultFeedLimit   = 20
	defaultGeoLimit    = 30
	maxPeriodHours     = 168
	maxRowLimit        = 100
)

const defaultSessionTTL = 30 * time.Minute

// EngineClient is the subset of the scoring client the handlers use
// directly; evaluation calls go through the flow registry instead.
type EngineClient interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	FetchSummary(ctx context.Context, token string, opts scoring.SummaryOptions) (*models.DashboardSummary, error)
}

type ConsoleHandler struct {
	client   EngineClient
	store    session.Store
	guard    *session.Guard
	registry *flow.Registry
	logger   *zap.Logger
}

func NewConsoleHandler(client EngineClient, store session.Store, guard *session.Guard, registry *flow.Registry, logger *zap.Logger) *ConsoleHandler {
	return &ConsoleHandler{
		client:   client,
		store:    store,
		guard:    guard,
		registry: registry,
		logger:   logger,
	}
}

// Login handles POST /api/v1/session/login. Credentials are forwarded
// to the engine; on success a fresh console session id is issued and
// the engine token is stored behind it.
func (h *ConsoleHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"kind":    apierror.KindMalformedInput,
			"message": err.Error(),
		})
		return
	}

	login, err := h.client.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		var apiErr *scoring.APIError
		if errors.As(err, &apiErr) {
			parsed := apierror.Parse(apiErr.Status, apiErr.Body)
			c.JSON(apiErr.Status, gin.H{"kind": parsed.Kind, "message": parsed.Message})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"kind":    apierror.KindNetworkUnavailable,
			"message": "No se pudo contactar al motor antifraude.",
		})
		return
	}

	sessionID := uuid.New().String()
	ttl := defaultSessionTTL
	if login.ExpiresIn > 0 {
		ttl = time.Duration(login.ExpiresIn) * time.Second
	}

	cred := &models.Credential{AccessToken: login.AccessToken, UserID: login.UserID}
	if err := h.store.Set(c.Request.Context(), sessionID, cred, ttl); err != nil {
		h.logger.Error("failed to persist session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"user_id":    login.UserID,
		"username":   login.Username,
		"expires_in": login.ExpiresIn,
	})
}

// Logout handles POST /api/v1/session/logout.
func (h *ConsoleHandler) Logout(c *gin.Context) {
	sessionID := c.GetHeader(SessionHeader)
	if sessionID != "" {
		if err := h.store.Clear(c.Request.Context(), sessionID); err != nil {
			h.logger.Error("failed to clear session", zap.Error(err))
		}
		h.registry.Drop(sessionID)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Sesión cerrada"})
}

// Evaluate handles POST /api/v1/evaluations: one full cycle of the
// evaluation flow state machine.
func (h *ConsoleHandler) Evaluate(c *gin.Context) {
	sessionID := c.GetHeader(SessionHeader)
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"kind":    apierror.KindMalformedInput,
			"message": "No se pudo leer el cuerpo de la petición.",
		})
		return
	}

	start := time.Now()
	model, err := h.registry.Get(sessionID).Submit(c.Request.Context(), raw)
	if err != nil {
		if errors.Is(err, flow.ErrBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": "Ya hay una evaluación en curso"})
			return
		}

		var flowErr *flow.FlowError
		if errors.As(err, &flowErr) {
			metrics.ObserveEvaluationError(string(flowErr.Kind))
			c.JSON(statusForKind(flowErr.Kind), gin.H{
				"kind":    flowErr.Kind,
				"message": flowErr.Message,
			})
			return
		}

		h.logger.Error("evaluation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Evaluación fallida"})
		return
	}

	metrics.ObserveEvaluation(string(model.Tier), time.Since(start).Seconds())
	c.JSON(http.StatusOK, model)
}

// EvaluationState handles GET /api/v1/evaluations/state.
func (h *ConsoleHandler) EvaluationState(c *gin.Context) {
	sessionID := c.GetHeader(SessionHeader)
	state, last, lastErr := h.registry.Get(sessionID).Snapshot()

	c.JSON(http.StatusOK, gin.H{
		"state":  state,
		"result": last,
		"error":  lastErr,
	})
}

// DashboardSummary handles GET /api/v1/dashboard/summary. It fetches
// the engine summary for the requested window and returns the five
// panel view-models.
func (h *ConsoleHandler) DashboardSummary(c *gin.Context) {
	sessionID := c.GetHeader(SessionHeader)

	cred, err := h.guard.Require(c.Request.Context(), sessionID)
	if err != nil {
		metrics.ObserveDashboardRefresh("auth_required")
		c.JSON(http.StatusUnauthorized, gin.H{
			"kind":    apierror.KindAuthRequired,
			"message": "Sesión expirada. Inicia sesión nuevamente.",
		})
		return
	}

	opts := scoring.SummaryOptions{
		PeriodHours: queryInt(c, "period_hours", defaultPeriodHours, maxPeriodHours),
		FeedLimit:   queryInt(c, "feed_limit", defaultFeedLimit, maxRowLimit),
		GeoLimit:    queryInt(c, "geo_limit", defaultGeoLimit, maxRowLimit),
	}

	summary, err := h.client.FetchSummary(c.Request.Context(), cred.AccessToken, opts)
	if err != nil {
		var apiErr *scoring.APIError
		if errors.As(err, &apiErr) {
			if guardErr := h.guard.CheckResponse(c.Request.Context(), sessionID, apiErr.Status); guardErr != nil {
				metrics.ObserveDashboardRefresh("auth_required")
				c.JSON(http.StatusUnauthorized, gin.H{
					"kind":    apierror.KindAuthRequired,
					"message": "Sesión expirada. Inicia sesión nuevamente.",
				})
				return
			}

			parsed := apierror.Parse(apiErr.Status, apiErr.Body)
			metrics.ObserveDashboardRefresh("engine_error")
			c.JSON(http.StatusBadGateway, gin.H{"kind": parsed.Kind, "message": parsed.Message})
			return
		}

		metrics.ObserveDashboardRefresh("unreachable")
		c.JSON(http.StatusBadGateway, gin.H{
			"kind":    apierror.KindNetworkUnavailable,
			"message": "No se pudo contactar al motor antifraude.",
		})
		return
	}

	metrics.ObserveDashboardRefresh("success")
	c.JSON(http.StatusOK, dashboard.Build(summary))
}

func statusForKind(kind models.ErrorKind) int {
	switch kind {
	case apierror.KindMalformedInput:
		return http.StatusBadRequest
	case apierror.KindAuthRequired:
		return http.StatusUnauthorized
	case apierror.KindFieldValidation, apierror.KindSingleMessage:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func queryInt(c *gin.Context, name string, fallback, ceiling int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	if value > ceiling {
		return ceiling
	}
	return value
}
