// internal/classify/classify.go
// Score-to-tier classification
package classify

import "github.com/psyepez2005/LPDV-retoParqueTec/internal/models"

type Severity string

const (
	SeverityNeutral  Severity = "neutral"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Tier maps a raw risk score to its tier. Classification always uses the
// raw value, so garbage input above 100 still lands in FRAUD.
func Tier(score float64) models.RiskTier {
	switch {
	case score <= 20:
		return models.TierSafe
	case score <= 70:
		return models.TierSuspicious
	default:
		return models.TierFraud
	}
}

// DisplayScore clamps a score for presentation. The clamp never feeds
// back into classification.
func DisplayScore(score float64) float64 {
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

// SeverityForPoints buckets a breakdown item's point contribution for
// presentation: higher is worse, the unit is otherwise opaque.
func SeverityForPoints(points float64) Severity {
	switch {
	case points <= 0:
		return SeverityNeutral
	case points <= 2:
		return SeverityModerate
	default:
		return SeveritySevere
	}
}
