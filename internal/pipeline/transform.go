package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/water-risk-etl/internal/domain"
	"github.com/couchcryptid/water-risk-etl/internal/observability"
)

// AssessmentTransformer implements Transformer by parsing the message body
// as an Observation and scoring it with a domain.Assessor.
type AssessmentTransformer struct {
	assessor *domain.Assessor
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewTransformer creates an AssessmentTransformer. A nil assessor selects
// domain.NewAssessor with defaults.
func NewTransformer(assessor *domain.Assessor, logger *slog.Logger, metrics *observability.Metrics) *AssessmentTransformer {
	if assessor == nil {
		assessor = domain.NewAssessor()
	}
	return &AssessmentTransformer{
		assessor: assessor,
		logger:   logger,
		metrics:  metrics,
	}
}

func (t *AssessmentTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.Assessment, error) {
	obs, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.Assessment{}, err
	}

	a := t.assessor.Assess(obs)
	t.metrics.Assessments.WithLabelValues(string(a.Tier), "kafka").Inc()

	if a.Tier == domain.TierRed {
		t.logger.Warn("red alert",
			"id", a.ID,
			"village", a.Village,
			"total_risk", a.TotalRisk,
			"suspected_source", a.SuspectedSource,
		)
	} else {
		t.logger.Debug("observation assessed", "id", a.ID, "village", a.Village, "status", a.Tier)
	}
	return a, nil
}
