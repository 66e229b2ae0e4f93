package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iwvelando/noi-analyzer/pkg/adapters"
	"github.com/iwvelando/noi-analyzer/pkg/noi"
	"go.uber.org/zap"
)

const problemContentType = "application/problem+json"

// ProblemDetail is an RFC 7807 problem document.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func newProblem(status int, detail string) ProblemDetail {
	return ProblemDetail{
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
}

// problemFor maps comparison errors onto HTTP statuses.
func problemFor(err error) ProblemDetail {
	switch {
	case errors.Is(err, noi.ErrMissingCurrentPeriod):
		return newProblem(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, noi.ErrUnknownRole),
		errors.Is(err, noi.ErrNonNumeric),
		errors.Is(err, adapters.ErrDuplicateRole):
		return newProblem(http.StatusBadRequest, err.Error())
	default:
		return newProblem(http.StatusInternalServerError, "")
	}
}

func (h *handler) respondProblem(w http.ResponseWriter, r *http.Request, problem ProblemDetail, op string) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.Int("status", problem.Status),
		zap.String("error", problem.Detail),
		zap.String("request_id", requestIDFrom(r.Context())),
	}
	if problem.Status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Warn("request rejected", fields...)
	}

	w.Header().Set("Content-Type", problemContentType)
	w.WriteHeader(problem.Status)
	if err := json.NewEncoder(w).Encode(problem); err != nil {
		h.logger.Error("failed to write problem response", zap.String("op", op), zap.Error(err))
	}
}

func (h *handler) respondError(w http.ResponseWriter, r *http.Request, status int, detail, op string) {
	h.respondProblem(w, r, newProblem(status, detail), op)
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
