package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const riskDelta = 1e-9

func TestPHRisk(t *testing.T) {
	tests := []struct {
		name     string
		ph       *float64
		expected float64
	}{
		{"missing", nil, 0},
		{"NaN is missing", Float(math.NaN()), 0},
		{"lower band edge", Float(6.5), 0},
		{"neutral", Float(7.0), 0},
		{"upper band edge", Float(8.5), 0},
		{"half ramp below", Float(5.5), 0.5},
		{"half ramp above", Float(9.5), 0.5},
		{"full ramp below", Float(4.5), 1},
		{"clamped far below", Float(1.0), 1},
		{"clamped far above", Float(13.0), 1},
		{"zero reading is acidic, not missing", Float(0), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, PHRisk(tt.ph), riskDelta)
		})
	}
}

func TestPHRisk_SafeBandIsZero(t *testing.T) {
	for ph := 6.5; ph <= 8.5; ph += 0.05 {
		assert.Zero(t, PHRisk(Float(ph)), "ph %.2f", ph)
	}
}

func TestTurbidityRisk(t *testing.T) {
	tests := []struct {
		name      string
		turbidity *float64
		expected  float64
	}{
		{"missing", nil, 0},
		{"clear", Float(0), 0.1},
		{"just below step", Float(4.9), 0.1},
		{"step", Float(5), 0.5},
		{"just below escalation", Float(9.9), 0.5},
		{"escalation start", Float(10), 0.7},
		{"escalating", Float(15), 0.95},
		{"saturated", Float(16), 1},
		{"clamped", Float(30), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, TurbidityRisk(tt.turbidity), riskDelta)
		})
	}
}

func TestORPRisk(t *testing.T) {
	tests := []struct {
		name     string
		orp      *float64
		expected float64
	}{
		{"missing", nil, 0},
		{"well disinfected", Float(450), 0.1},
		{"threshold", Float(300), 0.1},
		{"marginal", Float(299), 0.4},
		{"marginal floor", Float(250), 0.4},
		{"weak", Float(220), 1.0},
		{"weaker ramp", Float(240), 0.8},
		{"clamped", Float(150), 1},
		{"negative potential", Float(-100), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ORPRisk(tt.orp), riskDelta)
		})
	}
}

func TestRainfallRisk(t *testing.T) {
	tests := []struct {
		name     string
		rainfall *float64
		expected float64
	}{
		{"missing", nil, 0},
		{"dry", Float(0), 0.1},
		{"light", Float(4.99), 0.1},
		{"moderate", Float(5), 0.4},
		{"moderate high", Float(19.9), 0.4},
		{"heavy", Float(20), 0.7},
		{"heavier", Float(32), 0.9},
		{"clamped", Float(120), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, RainfallRisk(tt.rainfall), riskDelta)
		})
	}
}

func TestHealthRisk(t *testing.T) {
	tests := []struct {
		name     string
		diarrhea *int
		vomiting *int
		fever    *int
		expected float64
	}{
		{"all missing", nil, nil, nil, 0},
		{"all zero", Count(0), Count(0), Count(0), 0},
		{"one diarrhea case", Count(1), nil, nil, 1.0 / 2.2},
		{"one vomiting case", nil, Count(1), nil, 0.7 / 2.2},
		{"one fever case", nil, nil, Count(1), 0.3 / 2.2},
		{"mixed below saturation", Count(1), Count(1), nil, 1.7 / 2.2},
		{"clamped", Count(2), Count(1), Count(0), 1},
		{"negative counts ignored", Count(-3), Count(1), nil, 0.7 / 2.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, HealthRisk(tt.diarrhea, tt.vomiting, tt.fever), riskDelta)
		})
	}
}

func TestComputeRisk(t *testing.T) {
	t.Run("all signals nominal", func(t *testing.T) {
		total, risks := ComputeRisk(Observation{
			PH:        Float(7.2),
			Turbidity: Float(3),
			ORP:       Float(350),
			Rainfall:  Float(2),
			Diarrhea:  Count(0),
			Vomiting:  Count(0),
			Fever:     Count(0),
		})

		assert.Equal(t, 5, risks.AvailableSignals)
		assert.InDelta(t, 0.0, risks.PH, riskDelta)
		assert.InDelta(t, 0.1, risks.Turbidity, riskDelta)
		assert.InDelta(t, 0.1, risks.ORP, riskDelta)
		assert.InDelta(t, 0.1, risks.Rainfall, riskDelta)
		assert.InDelta(t, 0.0, risks.Health, riskDelta)
		assert.InDelta(t, 0.25*0.1+0.15*0.1+0.15*0.1, total, riskDelta)
	})

	t.Run("all signals saturated", func(t *testing.T) {
		total, risks := ComputeRisk(Observation{
			PH:        Float(3),
			Turbidity: Float(40),
			ORP:       Float(100),
			Rainfall:  Float(90),
			Diarrhea:  Count(5),
		})

		assert.Equal(t, 5, risks.AvailableSignals)
		assert.InDelta(t, 1.0, total, riskDelta)
	})

	t.Run("empty observation", func(t *testing.T) {
		total, risks := ComputeRisk(Observation{})

		assert.Zero(t, risks.AvailableSignals)
		assert.Zero(t, total)
	})

	t.Run("missing signals are not renormalised", func(t *testing.T) {
		total, risks := ComputeRisk(Observation{Turbidity: Float(30)})

		assert.Equal(t, 1, risks.AvailableSignals)
		assert.InDelta(t, 0.25, total, riskDelta)
	})

	t.Run("presence counts, not value", func(t *testing.T) {
		_, risks := ComputeRisk(Observation{
			Rainfall: Float(0),
			Fever:    Count(0),
		})
		assert.Equal(t, 2, risks.AvailableSignals)
	})

	t.Run("symptom triad is one group", func(t *testing.T) {
		_, risks := ComputeRisk(Observation{
			Diarrhea: Count(1),
			Vomiting: Count(1),
			Fever:    Count(1),
		})
		assert.Equal(t, 1, risks.AvailableSignals)
	})

	t.Run("NaN reading is not an available signal", func(t *testing.T) {
		total, risks := ComputeRisk(Observation{
			PH:        Float(math.NaN()),
			Turbidity: Float(2),
		})
		assert.Equal(t, 1, risks.AvailableSignals)
		assert.False(t, math.IsNaN(total))
	})

	t.Run("every sub-risk stays in range", func(t *testing.T) {
		_, risks := ComputeRisk(Observation{
			PH:        Float(-5),
			Turbidity: Float(-1),
			ORP:       Float(10000),
			Rainfall:  Float(-20),
			Diarrhea:  Count(1000),
		})
		for _, v := range []float64{risks.PH, risks.Turbidity, risks.ORP, risks.Rainfall, risks.Health} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	})
}

func TestRiskVector_SubRisks(t *testing.T) {
	r := RiskVector{PH: 0.9, Turbidity: 0.5, ORP: 0.8, Rainfall: 0.4, Health: 0.6, AvailableSignals: 5}
	assert.Equal(t, SubRisks{Turbidity: 0.5, Rainfall: 0.4, Health: 0.6}, r.SubRisks())
}
