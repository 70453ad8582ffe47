package domain

import "math"

// Tier is the discrete alert classification for one observation.
type Tier string

const (
	TierNoData Tier = "NO_DATA"
	TierGreen  Tier = "GREEN"
	TierYellow Tier = "YELLOW"
	TierRed    Tier = "RED"
)

// Tiers lists every tier in escalation order.
var Tiers = []Tier{TierNoData, TierGreen, TierYellow, TierRed}

const (
	// minAvailableSignals is the fewest observed signal groups for which the
	// total risk is trusted.
	minAvailableSignals = 2

	greenCeiling  = 0.25
	yellowCeiling = 0.55
)

// ClassifyTier maps total risk and the observed-signal count to a tier.
// NO_DATA takes precedence over any risk value; boundaries are
// inclusive-exclusive. A NaN total is treated as unreliable.
func ClassifyTier(totalRisk float64, availableSignals int) Tier {
	if availableSignals < minAvailableSignals || math.IsNaN(totalRisk) {
		return TierNoData
	}

	switch {
	case totalRisk < greenCeiling:
		return TierGreen
	case totalRisk < yellowCeiling:
		return TierYellow
	default:
		return TierRed
	}
}
