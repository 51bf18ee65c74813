// internal/handler/console_handler_test.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/psyepez2005/LPDV-retoParqueTec/internal/flow"
	"github.com/psyepez2005/LPDV-retoParqueTec/internal/models"
	"github.com/psyepez2005/LPDV-retoParqueTec/internal/scoring"
	"github.com/psyepez2005/LPDV-retoParqueTec/internal/session"
)

type fakeEngine struct {
	loginResp   *models.LoginResponse
	loginErr    error
	summaryResp *models.DashboardSummary
	summaryErr  error
	lastOpts    scoring.SummaryOptions
	evalResp    *models.EvaluationResult
	evalErr     error
}

func (f *fakeEngine) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginResp, nil
}

func (f *fakeEngine) FetchSummary(ctx context.Context, token string, opts scoring.SummaryOptions) (*models.DashboardSummary, error) {
	f.lastOpts = opts
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	return f.summaryResp, nil
}

func (f *fakeEngine) EvaluateTransaction(ctx context.Context, token string, payload map[string]interface{}) (*models.EvaluationResult, error) {
	if f.evalErr != nil {
		return nil, f.evalErr
	}
	return f.evalResp, nil
}

func newTestRig(t *testing.T, engine *fakeEngine) (*gin.Engine, *session.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := session.NewMemoryStore()
	guard := session.NewGuard(store, zap.NewNop())
	registry := flow.NewRegistry(guard, engine, zap.NewNop())
	h := NewConsoleHandler(engine, store, guard, registry, zap.NewNop())

	router := gin.New()
	v1 := router.Group("/api/v1")
	{
		v1.POST("/session/login", h.Login)
		v1.POST("/session/logout", h.Logout)
		v1.POST("/evaluations", h.Evaluate)
		v1.GET("/evaluations/state", h.EvaluationState)
		v1.GET("/dashboard/summary", h.DashboardSummary)
	}

	return router, store
}

func seedSession(t *testing.T, store *session.MemoryStore) string {
	t.Helper()
	sid := "sid-test"
	err := store.Set(context.Background(), sid,
		&models.Credential{AccessToken: "tok", UserID: "user-1"}, time.Hour)
	require.NoError(t, err)
	return sid
}

func TestLoginIssuesConsoleSession(t *testing.T) {
	engine := &fakeEngine{
		loginResp: &models.LoginResponse{
			AccessToken: "engine-token",
			ExpiresIn:   3600,
			UserID:      "user-7",
			Username:    "analista",
		},
	}
	router, store := newTestRig(t, engine)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/login",
		strings.NewReader(`{"email":"a@b.com","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		SessionID string `json:"session_id"`
		UserID    string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.SessionID)
	assert.Equal(t, "user-7", body.UserID)

	cred, err := store.Get(context.Background(), body.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "engine-token", cred.AccessToken)
}

func TestLoginEngineRejection(t *testing.T) {
	engine := &fakeEngine{
		loginErr: &scoring.APIError{
			Status: http.StatusUnauthorized,
			Body:   []byte(`{"detail":"Credenciales inválidas."}`),
		},
	}
	router, _ := newTestRig(t, engine)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/login",
		strings.NewReader(`{"email":"a@b.com","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "SINGLE_MESSAGE")
	assert.Contains(t, w.Body.String(), "Credenciales inválidas.")
}

func TestDashboardRequiresSession(t *testing.T) {
	router, _ := newTestRig(t, &fakeEngine{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/summary", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_REQUIRED")
}

func TestDashboardSummarySuccess(t *testing.T) {
	engine := &fakeEngine{
		summaryResp: &models.DashboardSummary{
			PeriodHours: 24,
			KPIs:        models.KPISet{TotalTx: 5, RejectedTx: 1, ChallengedTx: 2},
			MerchantHeatmap: []models.MerchantEntry{
				{MerchantName: "A", FraudCount: 4, TotalCount: 10, FraudRatePct: 40},
			},
		},
	}
	router, store := newTestRig(t, engine)
	sid := seedSession(t, store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/dashboard/summary?period_hours=48&feed_limit=500", nil)
	req.Header.Set(SessionHeader, sid)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 48, engine.lastOpts.PeriodHours)
	assert.Equal(t, 100, engine.lastOpts.FeedLimit, "row limits are capped")
	assert.Equal(t, 30, engine.lastOpts.GeoLimit, "absent params use engine defaults")

	assert.Contains(t, w.Body.String(), "5 evaluaciones")
	assert.Contains(t, w.Body.String(), `"bar_width_pct":100`)
}

func TestDashboardEngineExpiryClearsSession(t *testing.T) {
	engine := &fakeEngine{
		summaryErr: &scoring.APIError{Status: http.StatusUnauthorized, Body: []byte(`{}`)},
	}
	router, store := newTestRig(t, engine)
	sid := seedSession(t, store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/summary", nil)
	req.Header.Set(SessionHeader, sid)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_REQUIRED")

	_, err := store.Get(context.Background(), sid)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestEvaluateMalformedPayload(t *testing.T) {
	router, store := newTestRig(t, &fakeEngine{})
	sid := seedSession(t, store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluations",
		strings.NewReader(`{broken`))
	req.Header.Set(SessionHeader, sid)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "MALFORMED_INPUT")
}

func TestEvaluateSuccessAndState(t *testing.T) {
	score := 85.0
	engine := &fakeEngine{
		evalResp: &models.EvaluationResult{
			TransactionID: "tx-1",
			Action:        "ACTION_BLOCK_REVIEW",
			RiskScore:     &score,
		},
	}
	router, store := newTestRig(t, engine)
	sid := seedSession(t, store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluations",
		strings.NewReader(`{"amount": 900, "currency": "USD"}`))
	req.Header.Set(SessionHeader, sid)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tier":"FRAUD"`)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/state", nil)
	req.Header.Set(SessionHeader, sid)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"RESULT"`)
}

func TestLogoutClearsSession(t *testing.T) {
	router, store := newTestRig(t, &fakeEngine{})
	sid := seedSession(t, store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/logout", nil)
	req.Header.Set(SessionHeader, sid)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	_, err := store.Get(context.Background(), sid)
	assert.ErrorIs(t, err, session.ErrNotFound)
}
