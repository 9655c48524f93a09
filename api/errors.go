package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/warp/candleworks/generic"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps an error kind to its HTTP status:
//
//	NotFound                    404
//	AlreadyExists, InUse        409
//	RuleViolation, InvalidInput 400
//	anything else               500
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{Details: err.Error()}
	var status int

	var rule *generic.RuleViolationError
	switch {
	case errors.As(err, &rule):
		status = http.StatusBadRequest
		resp.Error = "Leave declined"
		resp.Absent, resp.Total = &rule.Absent, &rule.Total
		h.metrics.LeavesDeclined.Inc()
	case errors.Is(err, generic.ErrRuleViolation):
		status = http.StatusBadRequest
		resp.Error = "Leave declined"
		h.metrics.LeavesDeclined.Inc()
	case errors.Is(err, generic.ErrInvalidInput):
		status = http.StatusBadRequest
		resp.Error = "Invalid input"
	case errors.Is(err, generic.ErrNotFound):
		status = http.StatusNotFound
		resp.Error = "Not found"
	case errors.Is(err, generic.ErrAlreadyExists):
		status = http.StatusConflict
		resp.Error = "Already exists"
	case errors.Is(err, generic.ErrInUse):
		status = http.StatusConflict
		resp.Error = "Still in use"
	default:
		status = http.StatusInternalServerError
		resp.Error = "Internal error"
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	if status < http.StatusInternalServerError {
		h.log.Debug("request rejected", slog.Int("status", status), slog.String("error", err.Error()))
	}
	writeJSON(w, status, resp)
}
