// internal/dashboard/aggregator.go
// Pure transform from one engine summary payload into the five panel
// view-models of the antifraud console. No I/O happens here.
package dashboard

import (
	"fmt"
	"math"
	"strings"

	"github.com/psyepez2005/LPDV-retoParqueTec/internal/models"
)

// ActionStyle is the emphasis key the UI applies to an engine decision.
// It is derived from the action string, not from the score: the two
// can disagree and both must be representable.
type ActionStyle string

const (
	StyleSafe       ActionStyle = "safe"
	StyleSuspicious ActionStyle = "suspicious"
	StyleFraud      ActionStyle = "fraud"
	StyleNeutral    ActionStyle = "neutral"
)

// dangerRateThreshold marks a merchant as dangerous in the heatmap.
const dangerRateThreshold = 20.0

type KPIPanel struct {
	models.KPISet
	EvaluationsCaption string `json:"evaluations_caption"`
	OutcomesCaption    string `json:"outcomes_caption"`
	ShowCriticalBadge  bool   `json:"show_critical_badge"`
}

type FeedRow struct {
	models.FeedEntry
	Style ActionStyle `json:"style"`
}

type FeedPanel struct {
	Rows  []FeedRow `json:"rows"`
	Empty bool      `json:"empty"`
}

type GeoPanel struct {
	Rows  []models.GeoEntry `json:"rows"`
	Empty bool              `json:"empty"`
}

type HeatmapRow struct {
	models.MerchantEntry
	BarWidthPct int  `json:"bar_width_pct"`
	Danger      bool `json:"danger"`
}

type HeatmapPanel struct {
	Rows  []HeatmapRow `json:"rows"`
	Empty bool         `json:"empty"`
}

type IdentityRow struct {
	models.IdentityEntry
	DisplayUserID string `json:"display_user_id"`
}

type IdentityPanel struct {
	Rows  []IdentityRow `json:"rows"`
	Empty bool          `json:"empty"`
}

// View is the full dashboard view-model. A fresh View replaces the
// previous one wholesale on every refresh.
type View struct {
	GeneratedAt string       `json:"generated_at"`
	PeriodHours int          `json:"period_hours"`
	KPIs        KPIPanel     `json:"kpis"`
	Feed        FeedPanel    `json:"feed"`
	Geo         GeoPanel     `json:"geo"`
	Heatmap     HeatmapPanel `json:"heatmap"`
	Identity    IdentityPanel `json:"identity"`
}

// Build shapes one summary into the five panels. Panels are built
// independently: an empty or missing sub-array in one never prevents
// the other four from rendering.
func Build(summary *models.DashboardSummary) *View {
	return &View{
		GeneratedAt: summary.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
		PeriodHours: summary.PeriodHours,
		KPIs:        buildKPIs(summary.KPIs),
		Feed:        buildFeed(summary.TransactionFeed),
		Geo:         buildGeo(summary.GeoDiscrepancies),
		Heatmap:     buildHeatmap(summary.MerchantHeatmap),
		Identity:    buildIdentity(summary.IdentityRisks),
	}
}

func buildKPIs(kpis models.KPISet) KPIPanel {
	return KPIPanel{
		KPISet:             kpis,
		EvaluationsCaption: fmt.Sprintf("%d evaluaciones", kpis.TotalTx),
		OutcomesCaption: fmt.Sprintf("%d bloqueadas · %d con challenge",
			kpis.RejectedTx, kpis.ChallengedTx),
		ShowCriticalBadge: kpis.CriticalAlertsLastHour > 0,
	}
}

func buildFeed(entries []models.FeedEntry) FeedPanel {
	rows := make([]FeedRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, FeedRow{
			FeedEntry: e,
			Style:     StyleForAction(e.Action),
		})
	}
	return FeedPanel{Rows: rows, Empty: len(rows) == 0}
}

func buildGeo(entries []models.GeoEntry) GeoPanel {
	// is_mismatch comes from the upstream source of truth; country
	// equality is not enough because geocoding tolerance lives
	// server-side.
	rows := make([]models.GeoEntry, 0, len(entries))
	rows = append(rows, entries...)
	return GeoPanel{Rows: rows, Empty: len(rows) == 0}
}

func buildHeatmap(entries []models.MerchantEntry) HeatmapPanel {
	if len(entries) == 0 {
		return HeatmapPanel{Rows: []HeatmapRow{}, Empty: true}
	}

	maxFraud := 1
	for _, e := range entries {
		if e.FraudCount > maxFraud {
			maxFraud = e.FraudCount
		}
	}

	rows := make([]HeatmapRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, HeatmapRow{
			MerchantEntry: e,
			BarWidthPct:   int(math.Round(float64(e.FraudCount) / float64(maxFraud) * 100)),
			Danger:        e.FraudRatePct > dangerRateThreshold,
		})
	}
	return HeatmapPanel{Rows: rows, Empty: false}
}

func buildIdentity(entries []models.IdentityEntry) IdentityPanel {
	rows := make([]IdentityRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, IdentityRow{
			IdentityEntry: e,
			DisplayUserID: truncateUserID(e.UserID),
		})
	}
	return IdentityPanel{Rows: rows, Empty: len(rows) == 0}
}

// StyleForAction maps an engine decision to its emphasis key. The
// engine uses ACTION_BLOCK_* and ACTION_CHALLENGE_* families, so the
// match is on substring, not equality.
func StyleForAction(action string) ActionStyle {
	switch {
	case action == "ACTION_APPROVE" || action == "APPROVE":
		return StyleSafe
	case strings.Contains(action, "BLOCK"):
		return StyleFraud
	case strings.Contains(action, "CHALLENGE"):
		return StyleSuspicious
	default:
		return StyleNeutral
	}
}

func truncateUserID(userID string) string {
	runes := []rune(userID)
	if len(runes) <= 8 {
		return userID
	}
	return string(runes[:8]) + "…"
}
