package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// assessmentNamespace scopes UUIDv5 assessment IDs to this service.
var assessmentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/couchcryptid/water-risk-etl/assessment"))

// Assessment is the combined result for one observation.
type Assessment struct {
	ID              string      `json:"id"`
	Village         string      `json:"village,omitempty"`
	Tier            Tier        `json:"status"`
	TotalRisk       float64     `json:"total_risk"`
	Risks           RiskVector  `json:"risks"`
	Advisory        Advisory    `json:"advisory"`
	SuspectedSource string      `json:"suspected_source,omitempty"`
	Input           Observation `json:"processed_data"`
	AssessedAt      time.Time   `json:"assessed_at"`
}

// Assessor runs the full pipeline: report extraction, risk transforms,
// aggregation, tier classification and advisory synthesis. It holds no
// mutable state and is safe for concurrent use.
type Assessor struct {
	extractor TextExtractor
	clock     clockwork.Clock
}

// NewAssessor creates an Assessor using the default extractor and the real clock.
func NewAssessor(opts ...AssessorOption) *Assessor {
	a := &Assessor{
		extractor: defaultExtractor,
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assess scores one observation. It never fails.
func (a *Assessor) Assess(obs Observation) Assessment {
	input, source := a.applyReport(obs)

	total, risks := ComputeRisk(input)
	tier := ClassifyTier(total, risks.AvailableSignals)

	return Assessment{
		ID:              assessmentID(input),
		Village:         input.Village,
		Tier:            tier,
		TotalRisk:       total,
		Risks:           risks,
		Advisory:        BuildAdvisory(tier, risks.SubRisks()),
		SuspectedSource: source,
		Input:           input,
		AssessedAt:      a.clock.Now().UTC(),
	}
}

// applyReport parses the report text, if any. Extracted counts fill the
// symptom group only when none of the three counts was supplied; explicit
// counts always win. The suspected source comes from the text regardless.
func (a *Assessor) applyReport(obs Observation) (Observation, string) {
	if obs.ReportText == "" {
		return obs, ""
	}

	ext := a.extractor.Extract(obs.ReportText)
	if !obs.HasSymptoms() {
		obs.Diarrhea = Count(ext.Diarrhea)
		obs.Vomiting = Count(ext.Vomiting)
		obs.Fever = Count(ext.Fever)
	}
	return obs, ext.SuspectedSource
}

// assessmentID derives a deterministic ID from the normalised input so that
// replaying an observation produces the same ID.
func assessmentID(obs Observation) string {
	data, err := json.Marshal(obs)
	if err != nil {
		// Non-finite readings set in code cannot be encoded.
		return uuid.NewString()
	}
	return uuid.NewSHA1(assessmentNamespace, data).String()
}
