package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/water-risk-etl/internal/domain"
	"github.com/couchcryptid/water-risk-etl/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw observations from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer turns one raw observation into an assessment.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.Assessment, error)
}

// BatchLoader writes assessments to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, assessments []domain.Assessment) error
}

// Pipeline orchestrates the extract-assess-load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once at least one batch has been loaded.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not loaded any assessments yet")
	}
	return nil
}

// Ready reports whether the pipeline has loaded at least one batch.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// Run executes the batch loop until the context is cancelled.
// Extract and load failures are retried with exponential backoff.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	b := retry{delay: initialBackoff}
	for ctx.Err() == nil {
		if !p.processBatch(ctx, &b) {
			break
		}
	}

	p.logger.Info("pipeline stopping", "reason", context.Cause(ctx))
	return nil
}

// processBatch runs one cycle. It returns false when the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, b *retry) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err, "retry_in", b.delay)
		return b.wait(ctx)
	}
	if len(rawBatch) == 0 {
		return true
	}

	p.metrics.MessagesConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	b.reset()

	assessments, assessed := p.assessBatch(ctx, rawBatch)
	if len(assessments) == 0 {
		return true
	}

	if !p.load(ctx, b, assessments) {
		return false
	}

	p.metrics.MessagesProduced.Add(float64(len(assessments)))
	for _, raw := range assessed {
		p.commit(ctx, raw)
	}

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return true
}

// load writes the batch, retrying the same assessments until the sink
// accepts them. The reader does not refetch uncommitted messages, so the batch
// must not be dropped. It returns false only when the context ends.
func (p *Pipeline) load(ctx context.Context, b *retry, assessments []domain.Assessment) bool {
	for {
		err := p.loader.LoadBatch(ctx, assessments)
		if err == nil {
			b.reset()
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("load batch failed", "error", err, "batch_size", len(assessments), "retry_in", b.delay)
		if !b.wait(ctx) {
			return false
		}
	}
}

// assessBatch transforms every message. Unparseable messages are logged,
// counted and committed immediately so they are not redelivered.
func (p *Pipeline) assessBatch(ctx context.Context, rawBatch []domain.RawEvent) ([]domain.Assessment, []domain.RawEvent) {
	assessments := make([]domain.Assessment, 0, len(rawBatch))
	assessed := make([]domain.RawEvent, 0, len(rawBatch))

	for _, raw := range rawBatch {
		a, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("skipping unparseable observation",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			p.commit(ctx, raw)
			continue
		}
		assessments = append(assessments, a)
		assessed = append(assessed, raw)
	}
	return assessments, assessed
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

// retry tracks the current backoff delay: 200ms doubling up to 5s.
type retry struct {
	delay time.Duration
}

func (r *retry) reset() {
	r.delay = initialBackoff
}

// wait sleeps for the current delay and doubles it. It returns false if the
// context ends first.
func (r *retry) wait(ctx context.Context) bool {
	if !sleepWithContext(ctx, r.delay) {
		return false
	}
	r.delay = nextBackoff(r.delay, maxBackoff)
	return true
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
