package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/MenuForge/internal/domain"
)

// urlParam is a short alias for chi.URLParam.
func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError maps the error taxonomy to status codes. Public callers
// never see internal detail: anything unclassified is a 500 with a generic
// message and the cause logged server-side.
func writeDomainError(w http.ResponseWriter, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid request")
	case errors.Is(err, domain.ErrSlugConflict), errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrDuplicateIdentity):
		writeError(w, http.StatusConflict, "resource already exists")
	case errors.Is(err, domain.ErrDependencyFailure), errors.Is(err, domain.ErrExternalLookup):
		slog.Warn("dependency failure", "error", err)
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable")
	default:
		slog.Error("unhandled domain error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
