package domain

import "github.com/jonboulle/clockwork"

// AssessorOption configures an Assessor.
type AssessorOption func(*Assessor)

// WithClock swaps the time source used for assessed_at so tests and fixture
// generators can freeze time. Pass nil to keep the real clock.
func WithClock(c clockwork.Clock) AssessorOption {
	return func(a *Assessor) {
		if c != nil {
			a.clock = c
		}
	}
}

// WithExtractor replaces the report-text extractor, e.g. with a cached one.
func WithExtractor(e TextExtractor) AssessorOption {
	return func(a *Assessor) {
		if e != nil {
			a.extractor = e
		}
	}
}
