// internal/models/models.go
package models

import "time"

type RiskTier string
type ErrorKind string

const (
	TierSafe       RiskTier = "SAFE"
	TierSuspicious RiskTier = "SUSPICIOUS"
	TierFraud      RiskTier = "FRAUD"
)

// Credential is the session token pair issued by the scoring engine at
// login and carried on every guarded call.
type Credential struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse mirrors the engine's /v1/auth/login body.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
}

// BreakdownItem is one contributing factor in a risk score.
type BreakdownItem struct {
	Code        string  `json:"code"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Points      float64 `json:"points"`
}

// EvaluationResult is the engine's 2xx body for POST /v1/transactions/evaluate.
// RiskScore and Score are both pointers: older engine builds used "score",
// newer ones "risk_score", and either may be absent.
type EvaluationResult struct {
	TransactionID  string          `json:"transaction_id"`
	Action         string          `json:"action"`
	RiskScore      *float64        `json:"risk_score"`
	Score          *float64        `json:"score"`
	ReasonCodes    []string        `json:"reason_codes"`
	ScoreBreakdown []BreakdownItem `json:"score_breakdown"`
	UserMessage    string          `json:"user_message"`
	ResponseTimeMS int64           `json:"response_time_ms"`
}

// EffectiveScore resolves the risk score with the legacy fallback:
// risk_score, then score, then 0.
func (r *EvaluationResult) EffectiveScore() float64 {
	if r.RiskScore != nil {
		return *r.RiskScore
	}
	if r.Score != nil {
		return *r.Score
	}
	return 0
}

type KPISet struct {
	TotalVolume            float64 `json:"total_volume"`
	TotalTx                int     `json:"total_tx"`
	RejectedTx             int     `json:"rejected_tx"`
	ChallengedTx           int     `json:"challenged_tx"`
	ApprovedTx             int     `json:"approved_tx"`
	RejectionRatePct       float64 `json:"rejection_rate_pct"`
	CriticalAlertsLastHour int     `json:"critical_alerts_last_hour"`
}

type FeedEntry struct {
	TransactionID   string    `json:"transaction_id"`
	Timestamp       time.Time `json:"timestamp"`
	CardBin         string    `json:"card_bin"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	Action          string    `json:"action"`
	RiskScore       float64   `json:"risk_score"`
	MerchantName    string    `json:"merchant_name"`
	TransactionType string    `json:"transaction_type"`
}

type GeoEntry struct {
	IPAddress  string    `json:"ip_address"`
	IPCountry  string    `json:"ip_country"`
	GPSCountry string    `json:"gps_country"`
	Action     string    `json:"action"`
	RiskScore  float64   `json:"risk_score"`
	Timestamp  time.Time `json:"timestamp"`
	IsMismatch bool      `json:"is_mismatch"`
}

type MerchantEntry struct {
	MerchantName string  `json:"merchant_name"`
	MerchantID   string  `json:"merchant_id"`
	FraudCount   int     `json:"fraud_count"`
	TotalCount   int     `json:"total_count"`
	FraudRatePct float64 `json:"fraud_rate_pct"`
}

type IdentityEntry struct {
	UserID       string  `json:"user_id"`
	DistinctBins int     `json:"distinct_bins"`
	TxCount      int     `json:"tx_count"`
	MaxRiskScore float64 `json:"max_risk_score"`
	RiskLevel    string  `json:"risk_level"`
}

// DashboardSummary is the engine's 2xx body for GET /v1/dashboard/summary,
// scoped to a caller-supplied time window and row limits.
type DashboardSummary struct {
	GeneratedAt      time.Time       `json:"generated_at"`
	PeriodHours      int             `json:"period_hours"`
	KPIs             KPISet          `json:"kpis"`
	TransactionFeed  []FeedEntry     `json:"transaction_feed"`
	GeoDiscrepancies []GeoEntry      `json:"geo_discrepancies"`
	MerchantHeatmap  []MerchantEntry `json:"merchant_heatmap"`
	IdentityRisks    []IdentityEntry `json:"identity_risks"`
}
