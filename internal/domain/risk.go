package domain

import "math"

// Aggregation weights. They sum to 1.0 and are applied whether or not a
// signal was observed.
const (
	weightPH        = 0.15
	weightTurbidity = 0.25
	weightORP       = 0.15
	weightRainfall  = 0.15
	weightHealth    = 0.30
)

const (
	phSafeMin = 6.5
	phSafeMax = 8.5
	phRamp    = 2.0

	// healthSaturation is the weighted symptom score at which health risk reaches 1.
	healthSaturation = 2.2
)

// RiskVector holds the per-signal risks and how many signal groups were observed.
type RiskVector struct {
	PH               float64 `json:"ph"`
	Turbidity        float64 `json:"turbidity"`
	ORP              float64 `json:"orp"`
	Rainfall         float64 `json:"rainfall"`
	Health           float64 `json:"health"`
	AvailableSignals int     `json:"available_signals"`
}

// SubRisks narrows the vector to the signals the advisory acts on.
func (r RiskVector) SubRisks() SubRisks {
	return SubRisks{
		Turbidity: r.Turbidity,
		Rainfall:  r.Rainfall,
		Health:    r.Health,
	}
}

// PHRisk is 0 inside the safe band and ramps linearly to 1 over phRamp units
// beyond the nearest band edge.
func PHRisk(ph *float64) float64 {
	if !observed(ph) {
		return 0
	}
	v := *ph
	switch {
	case v < phSafeMin:
		return math.Min(1, (phSafeMin-v)/phRamp)
	case v > phSafeMax:
		return math.Min(1, (v-phSafeMax)/phRamp)
	default:
		return 0
	}
}

// TurbidityRisk steps at 5 and 10 NTU, then escalates linearly.
func TurbidityRisk(turbidity *float64) float64 {
	if !observed(turbidity) {
		return 0
	}
	v := *turbidity
	switch {
	case v < 5:
		return 0.1
	case v < 10:
		return 0.5
	default:
		return math.Min(1, 0.7+(v-10)/20)
	}
}

// ORPRisk is inverted: high oxidation-reduction potential means effective
// disinfection and low risk.
func ORPRisk(orp *float64) float64 {
	if !observed(orp) {
		return 0
	}
	v := *orp
	switch {
	case v >= 300:
		return 0.1
	case v >= 250:
		return 0.4
	default:
		return math.Min(1, 0.7+(250-v)/100)
	}
}

// RainfallRisk approximates runoff contamination from recent precipitation.
func RainfallRisk(rainfall *float64) float64 {
	if !observed(rainfall) {
		return 0
	}
	v := *rainfall
	switch {
	case v < 5:
		return 0.1
	case v < 20:
		return 0.4
	default:
		return math.Min(1, 0.7+(v-20)/60)
	}
}

// HealthRisk weights symptom counts by diagnostic significance for waterborne
// illness. Missing and negative counts contribute nothing.
func HealthRisk(diarrhea, vomiting, fever *int) float64 {
	score := 1.0*caseCount(diarrhea) +
		0.7*caseCount(vomiting) +
		0.3*caseCount(fever)
	return math.Min(1, score/healthSaturation)
}

// ComputeRisk runs every transform over the observation and returns the
// weighted total with the risk vector. It never fails.
func ComputeRisk(obs Observation) (float64, RiskVector) {
	r := RiskVector{
		PH:        PHRisk(obs.PH),
		Turbidity: TurbidityRisk(obs.Turbidity),
		ORP:       ORPRisk(obs.ORP),
		Rainfall:  RainfallRisk(obs.Rainfall),
		Health:    HealthRisk(obs.Diarrhea, obs.Vomiting, obs.Fever),
	}

	for _, v := range []*float64{obs.PH, obs.Turbidity, obs.ORP, obs.Rainfall} {
		if observed(v) {
			r.AvailableSignals++
		}
	}
	// The symptom triad is one signal group.
	if obs.HasSymptoms() {
		r.AvailableSignals++
	}

	total := weightPH*r.PH +
		weightTurbidity*r.Turbidity +
		weightORP*r.ORP +
		weightRainfall*r.Rainfall +
		weightHealth*r.Health

	return total, r
}

// observed reports whether a measurement is present. NaN is not a reading.
func observed(v *float64) bool {
	return v != nil && !math.IsNaN(*v)
}

func caseCount(n *int) float64 {
	if n == nil || *n < 0 {
		return 0
	}
	return float64(*n)
}
