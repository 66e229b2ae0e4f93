// Package server exposes the NOI comparison over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/iwvelando/noi-analyzer/internal/analysis"
	"github.com/iwvelando/noi-analyzer/internal/config"
	"github.com/iwvelando/noi-analyzer/pkg/adapters"
	"github.com/iwvelando/noi-analyzer/pkg/constants"
	"github.com/iwvelando/noi-analyzer/pkg/insights"
	"github.com/iwvelando/noi-analyzer/pkg/noi"
	"github.com/iwvelando/noi-analyzer/pkg/output"
	"go.uber.org/zap"
)

// Options configures NewHandler. Zero values fall back to defaults, except
// APIKey (empty disables authentication) and RateLimitRequests (<= 0
// disables rate limiting).
type Options struct {
	MaxUploadSize     int64
	Version           string
	APIKey            string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	BatchConcurrency  int
}

type handler struct {
	logger   *zap.Logger
	opts     Options
	validate *validator.Validate
}

// NewHandler constructs the HTTP handler that serves the comparison API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = constants.DefaultMaxUploadSizeBytes
	}
	opts.Version = strings.TrimSpace(opts.Version)
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.RateLimitWindow <= 0 {
		opts.RateLimitWindow = constants.DefaultRateLimitWindow
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = constants.DefaultBatchConcurrency
	}

	h := &handler{logger: logger, opts: opts, validate: validator.New()}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(h.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(h.securityHeaders())

	r.Get("/healthz", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		if opts.RateLimitRequests > 0 {
			r.Use(h.rateLimit())
		}
		r.Get("/version", h.handleVersion)

		r.Group(func(r chi.Router) {
			if opts.APIKey != "" {
				r.Use(h.requireAPIKey)
			}
			r.Post("/compare", h.handleCompare)
			r.Post("/compare/upload", h.handleUpload)
			r.Post("/compare/batch", h.handleBatch)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.respondError(w, r, http.StatusNotFound, "no route for "+r.URL.Path, "server.NotFound")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.respondError(w, r, http.StatusMethodNotAllowed, r.Method+" is not allowed on "+r.URL.Path, "server.MethodNotAllowed")
	})

	return r
}

// compareRequest is the JSON body of /api/compare and one batch item.
// Periods are keyed by role name; each record maps field names to numbers
// or numeric strings.
type compareRequest struct {
	Property string                    `json:"property" validate:"max=200"`
	Periods  map[string]map[string]any `json:"periods" validate:"required,min=1"`
}

type batchRequest struct {
	Items []compareRequest `json:"items" validate:"required,min=1,dive"`
}

type compareResponse struct {
	Property  string                     `json:"property"`
	Results   []noi.Result               `json:"results"`
	NOISource map[noi.Role]noi.NOISource `json:"noi_source"`
	Insights  insights.Insights          `json:"insights"`
	Warnings  []string                   `json:"warnings"`
	CSV       string                     `json:"csv"`
	Duration  string                     `json:"duration,omitempty"`
}

type batchItemResponse struct {
	Property string           `json:"property"`
	Result   *compareResponse `json:"result,omitempty"`
	Problem  *ProblemDetail   `json:"problem,omitempty"`
}

type batchResponse struct {
	Items     []batchItemResponse `json:"items"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	Duration  string              `json:"duration"`
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleVersion(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.opts.Version,
	})
}

func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompare"
	start := time.Now()

	var req compareRequest
	if ok := h.decodeJSON(w, r, &req, op); !ok {
		return
	}

	periods, err := adapters.PeriodSetFromFields(req.Periods)
	if err != nil {
		h.respondProblem(w, r, problemFor(err), op)
		return
	}

	result, err := analysis.Run(h.logger, req.Property, periods)
	if err != nil {
		h.respondProblem(w, r, problemFor(err), op)
		return
	}

	h.respondAnalysis(w, r, result, start, op)
}

func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpload"
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadSize)
	if err := r.ParseMultipartForm(h.opts.MaxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.opts.MaxUploadSize), op)
			return
		}
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "missing comparison file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	conf, err := config.LoadConfigurationFromReader(file)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	result, err := analysis.RunConfiguration(h.logger, *conf)
	if err != nil {
		h.respondProblem(w, r, problemFor(err), op)
		return
	}

	h.respondAnalysis(w, r, result, start, op)
}

func (h *handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleBatch"
	start := time.Now()

	var req batchRequest
	if ok := h.decodeJSON(w, r, &req, op); !ok {
		return
	}
	if len(req.Items) > constants.MaxBatchItems {
		h.respondError(w, r, http.StatusBadRequest,
			fmt.Sprintf("batch holds %d items, the limit is %d", len(req.Items), constants.MaxBatchItems), op)
		return
	}

	response := batchResponse{Items: make([]batchItemResponse, len(req.Items))}
	var requests []analysis.Request
	var positions []int
	for i, item := range req.Items {
		response.Items[i].Property = item.Property
		periods, err := adapters.PeriodSetFromFields(item.Periods)
		if err != nil {
			problem := problemFor(err)
			response.Items[i].Problem = &problem
			continue
		}
		requests = append(requests, analysis.Request{Property: item.Property, Periods: periods})
		positions = append(positions, i)
	}

	results, err := analysis.RunBatch(r.Context(), h.logger, requests, h.opts.BatchConcurrency)
	if err != nil {
		h.respondError(w, r, http.StatusServiceUnavailable, fmt.Sprintf("batch aborted: %v", err), op)
		return
	}
	for j, result := range results {
		i := positions[j]
		if result.Err != nil {
			problem := problemFor(result.Err)
			response.Items[i].Problem = &problem
			continue
		}
		item := newCompareResponse(*result.Analysis)
		response.Items[i].Result = &item
	}

	for _, item := range response.Items {
		if item.Problem != nil {
			response.Failed++
		} else {
			response.Succeeded++
		}
	}
	response.Duration = time.Since(start).String()

	h.logger.Info("batch compared",
		zap.String("op", op),
		zap.Int("items", len(response.Items)),
		zap.Int("failed", response.Failed),
		zap.Duration("duration", time.Since(start)),
	)
	h.writeJSON(w, http.StatusOK, response)
}

// decodeJSON decodes and validates a size-limited JSON body. It writes the
// problem response itself and reports whether the handler may continue.
func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, target any, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadSize)
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(target); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.opts.MaxUploadSize), op)
			return false
		}
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}

	if err := h.validate.Struct(target); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			messages := make([]string, 0, len(validationErrs))
			for _, fieldErr := range validationErrs {
				messages = append(messages, fmt.Sprintf("%s failed %s", fieldErr.Namespace(), fieldErr.Tag()))
			}
			h.respondError(w, r, http.StatusBadRequest, strings.Join(messages, "; "), op)
			return false
		}
		h.respondError(w, r, http.StatusBadRequest, err.Error(), op)
		return false
	}
	return true
}

func (h *handler) respondAnalysis(w http.ResponseWriter, r *http.Request, result analysis.Analysis, start time.Time, op string) {
	elapsed := time.Since(start)
	h.logger.Info("comparison computed",
		zap.String("op", op),
		zap.String("property", result.Property),
		zap.Int("results", len(result.Report.Results)),
		zap.Int("warnings", len(result.Warnings)),
		zap.Duration("duration", elapsed),
	)

	if strings.EqualFold(r.URL.Query().Get("format"), constants.OutputFormatCSV) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := output.CsvFormat(w, result.Report); err != nil {
			h.logger.Error("failed to write CSV response", zap.String("op", op), zap.Error(err))
		}
		return
	}

	response := newCompareResponse(result)
	response.Duration = elapsed.String()
	h.writeJSON(w, http.StatusOK, response)
}

func newCompareResponse(result analysis.Analysis) compareResponse {
	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return compareResponse{
		Property:  result.Property,
		Results:   result.Report.Results,
		NOISource: result.Report.NOISource,
		Insights:  result.Insights,
		Warnings:  warnings,
		CSV:       output.CsvString(result.Report),
	}
}
