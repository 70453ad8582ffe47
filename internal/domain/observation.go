package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Observation is one village/time-window record. Every measurement is
// optional: nil means the signal was not observed.
type Observation struct {
	Village    string    `json:"village,omitempty"`
	ObservedAt time.Time `json:"observed_at,omitzero"`

	PH        *float64 `json:"ph"`
	Turbidity *float64 `json:"turbidity"`
	ORP       *float64 `json:"orp"`
	Rainfall  *float64 `json:"rainfall"`

	Diarrhea *int `json:"diarrhea"`
	Vomiting *int `json:"vomiting"`
	Fever    *int `json:"fever"`

	ReportText string `json:"report_text,omitempty"`
}

// HasSymptoms reports whether any of the three symptom counts is present.
func (o Observation) HasSymptoms() bool {
	return o.Diarrhea != nil || o.Vomiting != nil || o.Fever != nil
}

// UnmarshalJSON accepts numbers, numeric strings, null and "" for every
// measurement. Field kits and web forms disagree on quoting.
func (o *Observation) UnmarshalJSON(data []byte) error {
	var raw struct {
		Village    string     `json:"village"`
		ObservedAt time.Time  `json:"observed_at"`
		PH         flexNumber `json:"ph"`
		Turbidity  flexNumber `json:"turbidity"`
		ORP        flexNumber `json:"orp"`
		Rainfall   flexNumber `json:"rainfall"`
		Diarrhea   flexNumber `json:"diarrhea"`
		Vomiting   flexNumber `json:"vomiting"`
		Fever      flexNumber `json:"fever"`
		ReportText string     `json:"report_text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*o = Observation{
		Village:    strings.TrimSpace(raw.Village),
		ObservedAt: raw.ObservedAt,
		PH:         raw.PH.value,
		Turbidity:  raw.Turbidity.value,
		ORP:        raw.ORP.value,
		Rainfall:   raw.Rainfall.value,
		Diarrhea:   raw.Diarrhea.count(),
		Vomiting:   raw.Vomiting.count(),
		Fever:      raw.Fever.count(),
		ReportText: raw.ReportText,
	}
	return nil
}

// flexNumber decodes an optional number that may arrive quoted.
type flexNumber struct {
	value *float64
}

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}

	v, ok, err := parseOptionalFloat(s)
	if err != nil {
		return err
	}
	if ok {
		f.value = &v
	}
	return nil
}

// maxCaseCount caps symptom counts. HealthRisk saturates long before it.
const maxCaseCount = math.MaxInt32

// count truncates toward zero, matching how field forms round partial tallies,
// and clamps to [0, maxCaseCount] before converting.
func (f flexNumber) count() *int {
	if f.value == nil {
		return nil
	}
	v := math.Trunc(*f.value)
	v = math.Max(0, math.Min(v, maxCaseCount))
	n := int(v)
	return &n
}

// parseOptionalFloat parses a trimmed measurement string. Empty strings and
// NaN are reported as missing; infinities are rejected.
func parseOptionalFloat(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid number %q", s)
	}
	if math.IsNaN(v) {
		return 0, false, nil
	}
	if math.IsInf(v, 0) {
		return 0, false, fmt.Errorf("invalid number %q", s)
	}
	return v, true, nil
}

// ParseRawEvent deserializes a RawEvent's value into an Observation.
// The message timestamp stands in for observed_at when the payload omits it.
func ParseRawEvent(raw RawEvent) (Observation, error) {
	var obs Observation
	if err := json.Unmarshal(raw.Value, &obs); err != nil {
		return Observation{}, fmt.Errorf("parse raw observation: %w", err)
	}
	if obs.ObservedAt.IsZero() && !raw.Timestamp.IsZero() {
		obs.ObservedAt = raw.Timestamp.UTC()
	}
	return obs, nil
}

// Float returns a pointer to v, for building observations in code.
func Float(v float64) *float64 { return &v }

// Count returns a pointer to n, for building observations in code.
func Count(n int) *int { return &n }
