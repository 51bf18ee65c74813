// internal/scoring/client.go
// HTTP client for the remote antifraud scoring engine.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/psyepez2005/LPDV-retoParqueTec/internal/models"
)

const (
	evaluatePath = "/v1/transactions/evaluate"
	summaryPath  = "/v1/dashboard/summary"
	loginPath    = "/v1/auth/login"

	// signatureHeader carries the request signature expected by the
	// engine. The value is still a static placeholder until a real
	// signing scheme is agreed with the engine team.
	signatureHeader = "X-Signature"
)

// APIError is a non-2xx engine response. The transport worked; the
// engine rejected the request. Status and raw body are kept for the
// error taxonomy parser.
type APIError struct {
	Status int
	Body   []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("engine returned HTTP %d", e.Status)
}

// SummaryOptions scope a dashboard summary request. Zero values fall
// back to the engine's defaults.
type SummaryOptions struct {
	PeriodHours int
	FeedLimit   int
	GeoLimit    int
}

type Client struct {
	baseURL    string
	signature  string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL, signature string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		signature: signature,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Login exchanges operator credentials for an engine bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	body, err := json.Marshal(models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var login models.LoginResponse
	if err := c.do(req, &login); err != nil {
		return nil, err
	}

	return &login, nil
}

// EvaluateTransaction submits one transaction payload for scoring.
// The payload is opaque to this client: semantic validation belongs to
// the engine.
func (c *Client) EvaluateTransaction(ctx context.Context, token string, payload map[string]interface{}) (*models.EvaluationResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode evaluation payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+evaluatePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build evaluation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(signatureHeader, c.signature)

	var result models.EvaluationResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// FetchSummary retrieves the periodic dashboard summary for the given
// time window and row limits.
func (c *Client) FetchSummary(ctx context.Context, token string, opts SummaryOptions) (*models.DashboardSummary, error) {
	query := url.Values{}
	if opts.PeriodHours > 0 {
		query.Set("period_hours", strconv.Itoa(opts.PeriodHours))
	}
	if opts.FeedLimit > 0 {
		query.Set("feed_limit", strconv.Itoa(opts.FeedLimit))
	}
	if opts.GeoLimit > 0 {
		query.Set("geo_limit", strconv.Itoa(opts.GeoLimit))
	}

	endpoint := c.baseURL + summaryPath
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build summary request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var summary models.DashboardSummary
	if err := c.do(req, &summary); err != nil {
		return nil, err
	}

	return &summary, nil
}

// do executes a request and decodes a 2xx body into out. Non-2xx
// responses come back as *APIError; transport failures keep their
// original error type so callers can tell the two apart.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("engine request failed",
			zap.String("path", req.URL.Path),
			zap.Error(err))
		return fmt.Errorf("engine unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read engine response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: body}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode engine response: %w", err)
	}

	return nil
}
