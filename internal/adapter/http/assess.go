package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/water-risk-etl/internal/domain"
	"github.com/couchcryptid/water-risk-etl/internal/observability"
)

// AssessHandler scores a single JSON observation synchronously.
type AssessHandler struct {
	assessor *domain.Assessor
	metrics  *observability.Metrics
	maxBytes int64
	logger   *slog.Logger
}

// NewAssessHandler creates the POST /v1/assess handler. Request bodies larger
// than maxBytes are rejected with 413.
func NewAssessHandler(assessor *domain.Assessor, metrics *observability.Metrics, maxBytes int64, logger *slog.Logger) *AssessHandler {
	return &AssessHandler{
		assessor: assessor,
		metrics:  metrics,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

func (h *AssessHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	obs, err := h.decode(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		h.logger.Debug("rejecting observation", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a := h.assessor.Assess(obs)
	h.metrics.Assessments.WithLabelValues(string(a.Tier), "http").Inc()
	h.logger.Info("observation assessed",
		"id", a.ID,
		"village", a.Village,
		"status", a.Tier,
		"total_risk", a.TotalRisk,
	)

	writeJSON(w, http.StatusOK, a)
}

func (h *AssessHandler) decode(w http.ResponseWriter, r *http.Request) (domain.Observation, error) {
	var obs domain.Observation
	body := http.MaxBytesReader(w, r.Body, h.maxBytes)

	dec := json.NewDecoder(body)
	if err := dec.Decode(&obs); err != nil {
		if errors.Is(err, io.EOF) {
			return obs, errors.New("empty request body")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return obs, err
		}
		return obs, fmt.Errorf("invalid observation: %w", err)
	}
	if dec.More() {
		return obs, errors.New("invalid observation: trailing data after JSON object")
	}
	return obs, nil
}
