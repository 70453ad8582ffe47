package domain

import (
	"encoding/json"
	"errors"
	"strings"
)

// Advisory messages. NO_DATA guidance is returned as two separate lines; every
// other tier joins the selected messages with a single space.
const (
	noDataSensorsMessage = "Insufficient data received from sensors and field reports."
	noDataRestoreMessage = "Please restore data connectivity or submit a field report."

	turbidityMessage = "High water turbidity risk detected. Inspect filtration units and intake points."
	rainfallMessage  = "Recent rainfall may increase contamination risk. Increase monitoring frequency."
	healthMessage    = "Public health indicators suggest elevated risk. Use only boiled or treated water for drinking."
	safeMessage      = "Water sources appear safe. Continue routine monitoring and standard operations."

	advisorySeparator = " "
)

const (
	turbidityAdvisoryThreshold = 0.5
	rainfallAdvisoryThreshold  = 0.5
	healthAdvisoryThreshold    = 0.6
)

// SubRisks are the three risks the advisory rules read.
type SubRisks struct {
	Turbidity float64
	Rainfall  float64
	Health    float64
}

// Advisory is either a list of guidance lines (NO_DATA) or one joined
// recommendation string (every other tier). It encodes to a JSON array or a
// JSON string accordingly.
type Advisory struct {
	Lines []string
	Text  string
}

// IsGuidance reports whether the advisory is the NO_DATA line list.
func (a Advisory) IsGuidance() bool {
	return a.Lines != nil
}

// String renders the advisory for logs and plain-text outputs.
func (a Advisory) String() string {
	if a.IsGuidance() {
		return strings.Join(a.Lines, "\n")
	}
	return a.Text
}

func (a Advisory) MarshalJSON() ([]byte, error) {
	if a.IsGuidance() {
		return json.Marshal(a.Lines)
	}
	return json.Marshal(a.Text)
}

func (a *Advisory) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*a = Advisory{Text: text}
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return errors.New("advisory must be a string or a list of strings")
	}
	if lines == nil {
		lines = []string{}
	}
	*a = Advisory{Lines: lines}
	return nil
}

// BuildAdvisory selects recommendations for a tier. NO_DATA short-circuits to
// fixed guidance; otherwise each threshold rule fires independently in a fixed
// order, with a routine-monitoring fallback when none fire.
func BuildAdvisory(tier Tier, risks SubRisks) Advisory {
	if tier == TierNoData {
		return Advisory{Lines: []string{noDataSensorsMessage, noDataRestoreMessage}}
	}

	var msgs []string
	if risks.Turbidity >= turbidityAdvisoryThreshold {
		msgs = append(msgs, turbidityMessage)
	}
	if risks.Rainfall >= rainfallAdvisoryThreshold {
		msgs = append(msgs, rainfallMessage)
	}
	if risks.Health >= healthAdvisoryThreshold {
		msgs = append(msgs, healthMessage)
	}
	if len(msgs) == 0 {
		msgs = append(msgs, safeMessage)
	}

	return Advisory{Text: strings.Join(msgs, advisorySeparator)}
}
