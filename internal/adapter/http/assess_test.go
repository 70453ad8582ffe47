package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpadapter "github.com/couchcryptid/water-risk-etl/internal/adapter/http"
	"github.com/couchcryptid/water-risk-etl/internal/domain"
	"github.com/couchcryptid/water-risk-etl/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type assessResponse struct {
	ID              string             `json:"id"`
	Village         string             `json:"village"`
	Status          string             `json:"status"`
	TotalRisk       float64            `json:"total_risk"`
	Risks           domain.RiskVector  `json:"risks"`
	Advisory        json.RawMessage    `json:"advisory"`
	SuspectedSource string             `json:"suspected_source"`
	ProcessedData   domain.Observation `json:"processed_data"`
}

func postAssess(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	return rec
}

func TestAssess(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		status   string
		advisory string
		source   string
	}{
		{
			name:     "safe readings",
			body:     `{"village":"V1","ph":7.2,"turbidity":1,"orp":350,"rainfall":0}`,
			status:   "GREEN",
			advisory: `"Water sources appear safe. Continue routine monitoring and standard operations."`,
		},
		{
			name:     "quoted numbers from a web form",
			body:     `{"village":"V1","ph":"7.2","turbidity":"1","orp":"350","rainfall":""}`,
			status:   "GREEN",
			advisory: `"Water sources appear safe. Continue routine monitoring and standard operations."`,
		},
		{
			name:     "no signals",
			body:     `{"village":"V9"}`,
			status:   "NO_DATA",
			advisory: `["Insufficient data received from sensors and field reports.","Please restore data connectivity or submit a field report."]`,
		},
		{
			name:   "field report drives health risk",
			body:   `{"village":"V3","ph":4,"turbidity":25,"report_text":"4 people have diarrhea and 3 children are vomiting after using the river"}`,
			status: "RED",
			source: "river",
			advisory: `"High water turbidity risk detected. Inspect filtration units and intake points. ` +
				`Public health indicators suggest elevated risk. Use only boiled or treated water for drinking."`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(nil)
			rec := postAssess(t, srv, "/v1/assess", tt.body)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp assessResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.ID)
			assert.Equal(t, tt.status, resp.Status)
			assert.JSONEq(t, tt.advisory, string(resp.Advisory))
			assert.Equal(t, tt.source, resp.SuspectedSource)
		})
	}
}

func TestAssess_ReportFillsProcessedData(t *testing.T) {
	srv := newTestServer(nil)
	rec := postAssess(t, srv, "/v1/assess",
		`{"village":"V3","ph":7,"report_text":"2 people have diarrhea, no fever"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp assessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.ProcessedData.Diarrhea)
	assert.Equal(t, 2, *resp.ProcessedData.Diarrhea)
	require.NotNil(t, resp.ProcessedData.Fever)
	assert.Equal(t, 0, *resp.ProcessedData.Fever)
	assert.Equal(t, 2, resp.Risks.AvailableSignals)
}

func TestAssess_LegacyPredictPath(t *testing.T) {
	srv := newTestServer(nil)
	rec := postAssess(t, srv, "/predict", `{"ph":7.2,"turbidity":1}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp assessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "GREEN", resp.Status)
}

func TestAssess_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		code    int
		message string
	}{
		{"empty body", "", http.StatusBadRequest, "empty request body"},
		{"malformed json", `{"ph":`, http.StatusBadRequest, "invalid observation"},
		{"non numeric reading", `{"ph":"acidic"}`, http.StatusBadRequest, "invalid observation"},
		{"trailing data", `{"ph":7}{"ph":8}`, http.StatusBadRequest, "trailing data"},
		{"oversized body", `{"report_text":"` + strings.Repeat("a", 2*testMaxBytes) + `"}`, http.StatusRequestEntityTooLarge, "exceeds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(nil)
			rec := postAssess(t, srv, "/v1/assess", tt.body)

			assert.Equal(t, tt.code, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tt.message)
		})
	}
}

func TestAssess_CountsByTier(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	h := httpadapter.NewAssessHandler(domain.NewAssessor(), metrics, testMaxBytes, discardLogger())

	postAssess(t, h, "/v1/assess", `{"ph":7.2,"turbidity":1}`)
	postAssess(t, h, "/v1/assess", `{"ph":7.2,"turbidity":1}`)
	postAssess(t, h, "/v1/assess", `{}`)
	postAssess(t, h, "/v1/assess", `nope`)

	assert.InDelta(t, 2, testutil.ToFloat64(metrics.Assessments.WithLabelValues("GREEN", "http")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Assessments.WithLabelValues("NO_DATA", "http")), 0)
}
