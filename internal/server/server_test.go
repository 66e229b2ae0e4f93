package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/noi-analyzer/pkg/constants"
	"github.com/iwvelando/noi-analyzer/pkg/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const scenarioPayload = `{
  "property": "Maple Court",
  "periods": {
    "current_month_actuals": {"period": "2025-03", "gpr": 1000, "egi": 900, "vacancy_loss": 100, "opex": 400, "noi": 500},
    "prior_month": {"period": "2025-02", "gpr": "$1,000.00", "egi": 800, "vacancy_loss": 200, "opex": 400},
    "budget": {"period": "2025-03", "gpr": 1100, "egi": 950, "vacancy_loss": 150, "opex": 420, "noi": 530},
    "prior_year": {"period": "2024-03", "gpr": 1000, "egi": 900, "vacancy_loss": 0, "opex": 400, "noi": "N/A"}
  }
}`

func newTestHandler(opts Options) http.Handler {
	return NewHandler(zap.NewNop(), opts)
}

func doRequest(h http.Handler, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeProblem(t *testing.T, rr *httptest.ResponseRecorder) ProblemDetail {
	t.Helper()
	assert.Equal(t, problemContentType, rr.Header().Get("Content-Type"))
	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem), rr.Body.String())
	assert.Equal(t, rr.Code, problem.Status)
	return problem
}

type decodedResult struct {
	Metric         string   `json:"metric"`
	Baseline       string   `json:"baseline"`
	CurrentValue   *float64 `json:"current_value"`
	BaselineValue  *float64 `json:"baseline_value"`
	AbsoluteChange *float64 `json:"absolute_change"`
	PercentChange  *float64 `json:"percent_change"`
}

type decodedResponse struct {
	Property  string            `json:"property"`
	Results   []decodedResult   `json:"results"`
	NOISource map[string]string `json:"noi_source"`
	Insights  struct {
		Summary         string   `json:"summary"`
		Performance     []string `json:"performance"`
		Recommendations []string `json:"recommendations"`
	} `json:"insights"`
	Warnings []string `json:"warnings"`
	CSV      string   `json:"csv"`
	Duration string   `json:"duration"`
}

func find(results []decodedResult, baseline, metric string) *decodedResult {
	for i := range results {
		if results[i].Baseline == baseline && results[i].Metric == metric {
			return &results[i]
		}
	}
	return nil
}

func multipartUpload(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestHealthAndVersion(t *testing.T) {
	h := newTestHandler(Options{Version: " 1.4.0 "})

	rr := doRequest(h, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Len(t, rr.Header().Get(RequestIDHeader), 36, "a UUID request ID is assigned")
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	rr = doRequest(h, http.MethodGet, "/api/version", nil, map[string]string{RequestIDHeader: "req-123"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"version":"1.4.0"}`, rr.Body.String())
	assert.Equal(t, "req-123", rr.Header().Get(RequestIDHeader))

	rr = doRequest(newTestHandler(Options{}), http.MethodGet, "/api/version", nil, nil)
	assert.JSONEq(t, `{"version":"dev"}`, rr.Body.String())
}

func TestHandleCompareSuccess(t *testing.T) {
	h := newTestHandler(Options{})

	rr := doRequest(h, http.MethodPost, "/api/compare", []byte(scenarioPayload), nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp decodedResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.Equal(t, "Maple Court", resp.Property)
	require.Len(t, resp.Results, 15)
	assert.Equal(t, "prior_month", resp.Results[0].Baseline)
	assert.Equal(t, "gpr", resp.Results[0].Metric)

	noiPM := find(resp.Results, "prior_month", "noi")
	require.NotNil(t, noiPM)
	require.NotNil(t, noiPM.PercentChange)
	assert.Equal(t, 25.0, *noiPM.PercentChange)

	vacancyPY := find(resp.Results, "prior_year", "vacancy_loss")
	require.NotNil(t, vacancyPY)
	require.NotNil(t, vacancyPY.AbsoluteChange)
	assert.Equal(t, 100.0, *vacancyPY.AbsoluteChange)
	assert.Nil(t, vacancyPY.PercentChange)

	assert.Equal(t, map[string]string{
		"current":     "reported",
		"prior_month": "derived",
		"budget":      "reported",
		"prior_year":  "derived",
	}, resp.NOISource)

	assert.Contains(t, resp.Insights.Summary, "Property Maple Court")
	assert.NotEmpty(t, resp.Insights.Recommendations)
	assert.NotNil(t, resp.Warnings)
	assert.Empty(t, resp.Warnings)
	assert.True(t, strings.HasPrefix(resp.CSV, strings.Join(output.CSVHeader, ",")))
	assert.NotEmpty(t, resp.Duration)
}

func TestHandleCompareCSV(t *testing.T) {
	h := newTestHandler(Options{})

	rr := doRequest(h, http.MethodPost, "/api/compare?format=csv", []byte(scenarioPayload), nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	require.Len(t, lines, 16)
	assert.Equal(t, "prior_month,egi,900.00,800.00,100.00,12.50", lines[2])
}

func TestHandleCompareWarnings(t *testing.T) {
	h := newTestHandler(Options{})
	payload := `{"periods": {
		"current": {"period": "2025-03", "gpr": 1000, "egi": 1200, "opex": 400},
		"prior_month": {"period": "2025-01", "egi": 1000, "opex": 400}
	}}`

	rr := doRequest(h, http.MethodPost, "/api/compare", []byte(payload), nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp decodedResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Warnings, 2)
	assert.Contains(t, resp.Warnings[0], "EGI")
	assert.Contains(t, resp.Warnings[1], "expected 2025-02")
	assert.Contains(t, resp.Insights.Summary, "The subject property")
}

func TestHandleCompareErrors(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		status   int
		fragment string
	}{
		{
			name:     "Missing current period",
			payload:  `{"periods": {"budget": {"noi": 530}}}`,
			status:   http.StatusUnprocessableEntity,
			fragment: "current period is required",
		},
		{
			name:     "Unknown role",
			payload:  `{"periods": {"current": {"noi": 1}, "forecast": {"noi": 2}}}`,
			status:   http.StatusBadRequest,
			fragment: "unknown period role",
		},
		{
			name:     "Duplicate role",
			payload:  `{"periods": {"current": {"noi": 1}, "actuals": {"noi": 2}}}`,
			status:   http.StatusBadRequest,
			fragment: "duplicate period role",
		},
		{
			name:     "Non-numeric figure",
			payload:  `{"periods": {"current": {"egi": "lots"}}}`,
			status:   http.StatusBadRequest,
			fragment: "not a finite number",
		},
		{
			name:     "Missing periods",
			payload:  `{"property": "Empty"}`,
			status:   http.StatusBadRequest,
			fragment: "Periods failed required",
		},
		{
			name:     "Property too long",
			payload:  fmt.Sprintf(`{"property": %q, "periods": {"current": {"noi": 1}}}`, strings.Repeat("x", 201)),
			status:   http.StatusBadRequest,
			fragment: "Property failed max",
		},
		{
			name:     "Malformed JSON",
			payload:  `{"periods": `,
			status:   http.StatusBadRequest,
			fragment: "failed to decode request",
		},
	}

	h := newTestHandler(Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(h, http.MethodPost, "/api/compare", []byte(tt.payload), nil)
			require.Equal(t, tt.status, rr.Code, rr.Body.String())
			problem := decodeProblem(t, rr)
			assert.Equal(t, http.StatusText(tt.status), problem.Title)
			assert.Contains(t, problem.Detail, tt.fragment)
		})
	}
}

func TestHandleCompareBodyTooLarge(t *testing.T) {
	h := newTestHandler(Options{MaxUploadSize: 64})

	rr := doRequest(h, http.MethodPost, "/api/compare", []byte(scenarioPayload), nil)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code, rr.Body.String())
	decodeProblem(t, rr)
}

func TestHandleCompareMethodNotAllowed(t *testing.T) {
	h := newTestHandler(Options{})

	rr := doRequest(h, http.MethodGet, "/api/compare", nil, nil)
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	decodeProblem(t, rr)

	rr = doRequest(h, http.MethodGet, "/api/unknown", nil, nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	decodeProblem(t, rr)
}

func TestHandleUploadSuccess(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "test", "noi_config.yaml"))
	require.NoError(t, err)

	body, contentType := multipartUpload(t, "file", "noi_config.yaml", data)
	req := httptest.NewRequest(http.MethodPost, "/api/compare/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	newTestHandler(Options{}).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp decodedResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Maple Court Apartments", resp.Property)
	assert.Len(t, resp.Results, 15)
	assert.Empty(t, resp.Warnings)
}

func TestHandleUploadErrors(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		data    string
		maxSize int64
		status  int
	}{
		{name: "Missing file", field: "other", data: "analysis: {}", status: http.StatusBadRequest},
		{name: "Invalid YAML", field: "file", data: "analysis: [unterminated", status: http.StatusBadRequest},
		{name: "Missing current", field: "file", data: "analysis:\n  periods:\n    budget:\n      noi: 5\n", status: http.StatusUnprocessableEntity},
		{name: "Infinite figure", field: "file", data: "analysis:\n  periods:\n    current:\n      egi: .inf\n", status: http.StatusBadRequest},
		{name: "Too large", field: "file", data: strings.Repeat("#", 4096), maxSize: 512, status: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartUpload(t, tt.field, "upload.yaml", []byte(tt.data))
			req := httptest.NewRequest(http.MethodPost, "/api/compare/upload", body)
			req.Header.Set("Content-Type", contentType)
			rr := httptest.NewRecorder()
			newTestHandler(Options{MaxUploadSize: tt.maxSize}).ServeHTTP(rr, req)

			require.Equal(t, tt.status, rr.Code, rr.Body.String())
			decodeProblem(t, rr)
		})
	}
}

func TestHandleBatch(t *testing.T) {
	payload := `{"items": [
		{"property": "A", "periods": {"current": {"egi": 900, "opex": 400}, "prior_month": {"egi": 800, "opex": 400}}},
		{"property": "B", "periods": {"budget": {"noi": 530}}},
		{"property": "C", "periods": {"current": {"egi": "n/a"}, "prior_year": {"noi": "12x"}}},
		{"property": "D", "periods": {"current": {"noi": 100}}}
	]}`

	rr := doRequest(newTestHandler(Options{BatchConcurrency: 2}), http.MethodPost, "/api/compare/batch", []byte(payload), nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Items []struct {
			Property string           `json:"property"`
			Result   *decodedResponse `json:"result"`
			Problem  *ProblemDetail   `json:"problem"`
		} `json:"items"`
		Succeeded int    `json:"succeeded"`
		Failed    int    `json:"failed"`
		Duration  string `json:"duration"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 4)
	assert.Equal(t, 2, resp.Succeeded)
	assert.Equal(t, 2, resp.Failed)

	assert.Equal(t, "A", resp.Items[0].Property)
	require.NotNil(t, resp.Items[0].Result)
	assert.Len(t, resp.Items[0].Result.Results, 5)
	assert.Nil(t, resp.Items[0].Problem)

	require.NotNil(t, resp.Items[1].Problem)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Items[1].Problem.Status)

	require.NotNil(t, resp.Items[2].Problem)
	assert.Equal(t, http.StatusBadRequest, resp.Items[2].Problem.Status)

	require.NotNil(t, resp.Items[3].Result)
	assert.Empty(t, resp.Items[3].Result.Results)
}

func TestHandleBatchLimits(t *testing.T) {
	h := newTestHandler(Options{})

	rr := doRequest(h, http.MethodPost, "/api/compare/batch", []byte(`{"items": []}`), nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	items := make([]string, constants.MaxBatchItems+1)
	for i := range items {
		items[i] = `{"periods": {"current": {"noi": 1}}}`
	}
	payload := `{"items": [` + strings.Join(items, ",") + `]}`
	rr = doRequest(h, http.MethodPost, "/api/compare/batch", []byte(payload), nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeProblem(t, rr).Detail, "the limit is 50")

	rr = doRequest(h, http.MethodPost, "/api/compare/batch", []byte(`{"items": [{"property": "no periods"}]}`), nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeProblem(t, rr).Detail, "Items[0].Periods")
}

func TestAPIKey(t *testing.T) {
	h := newTestHandler(Options{APIKey: "secret"})
	payload := []byte(`{"periods": {"current": {"noi": 1}}}`)

	tests := []struct {
		name    string
		headers map[string]string
		status  int
	}{
		{name: "No key", status: http.StatusUnauthorized},
		{name: "Wrong key", headers: map[string]string{APIKeyHeader: "guess"}, status: http.StatusUnauthorized},
		{name: "Header key", headers: map[string]string{"x-api-key": "secret"}, status: http.StatusOK},
		{name: "Bearer token", headers: map[string]string{"Authorization": "Bearer secret"}, status: http.StatusOK},
		{name: "Basic auth ignored", headers: map[string]string{"Authorization": "Basic secret"}, status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(h, http.MethodPost, "/api/compare", payload, tt.headers)
			require.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}

	assert.Equal(t, http.StatusOK, doRequest(h, http.MethodGet, "/healthz", nil, nil).Code)
	assert.Equal(t, http.StatusOK, doRequest(h, http.MethodGet, "/api/version", nil, nil).Code)
}

func TestRateLimit(t *testing.T) {
	h := newTestHandler(Options{RateLimitRequests: 2})

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, doRequest(h, http.MethodGet, "/api/version", nil, nil).Code)
	}
	rr := doRequest(h, http.MethodGet, "/api/version", nil, nil)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	decodeProblem(t, rr)

	assert.Equal(t, http.StatusOK, doRequest(h, http.MethodGet, "/healthz", nil, nil).Code, "health checks are not limited")
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewHandler(zap.New(core), Options{})

	doRequest(h, http.MethodGet, "/healthz", nil, map[string]string{RequestIDHeader: "trace-1"})

	entries := logs.FilterMessage("request served").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "server.accessLog", fields["op"])
	assert.Equal(t, "/healthz", fields["path"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, "trace-1", fields["request_id"])
}
