package impact

import "strings"

// RiskLevel is a four-tier classification of blast-radius size.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Upper bounds (inclusive) of each tier.
const (
	lowMax    = 5
	mediumMax = 20
	highMax   = 50
)

// productionRiskThreshold is the production impact count above which a High
// or Critical change is flagged as risky for production.
const productionRiskThreshold = 10

// FromImpactCount classifies a total impacted-entity count. Zero impact is
// Low.
func FromImpactCount(n int) RiskLevel {
	switch {
	case n <= lowMax:
		return RiskLow
	case n <= mediumMax:
		return RiskMedium
	case n <= highMax:
		return RiskHigh
	default:
		return RiskCritical
	}
}

func (r RiskLevel) rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	}
	return -1
}

// Exceeds reports whether r is strictly above threshold.
func (r RiskLevel) Exceeds(threshold RiskLevel) bool {
	return r.rank() > threshold.rank()
}

// ParseRiskLevel parses a level name case-insensitively.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	l := RiskLevel(strings.ToUpper(strings.TrimSpace(s)))
	if l.rank() < 0 {
		return "", false
	}
	return l, true
}
