package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lexilocal/lexilocal/internal/core/domain"
	"github.com/lexilocal/lexilocal/internal/infrastructure/resilience"
)

type errorResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

// writeError maps domain error kinds to HTTP statuses. The reason field is
// machine-readable; the error field is for humans and never includes
// wrapped internals below the kind.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, reason := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request_failed", "status", status, "reason", reason, "error", err)
	} else {
		logger.Info("request_rejected", "status", status, "reason", reason, "error", err)
	}
	writeJSON(w, status, errorResponse{
		Status: "failed",
		Reason: reason,
		Error:  publicMessage(err, reason),
	})
}

func classify(err error) (int, string) {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case domain.IsKind(err, domain.ErrInputTooLong):
		return http.StatusRequestEntityTooLarge, "input_too_long"
	case resilience.IsCircuitOpen(err), domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable, "temporarily_unavailable"
	case domain.IsKind(err, domain.ErrEmbeddingService):
		return http.StatusBadGateway, "embedding_service_failed"
	case domain.IsKind(err, domain.ErrGenerationService):
		return http.StatusBadGateway, "generation_service_failed"
	case domain.IsKind(err, domain.ErrDimensionMismatch):
		return http.StatusInternalServerError, "index_corrupt"
	case domain.IsKind(err, domain.ErrPersistence):
		return http.StatusInternalServerError, "persistence_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func publicMessage(err error, reason string) string {
	// 4xx details are safe to echo; 5xx internals are not.
	switch reason {
	case "invalid_input", "not_found", "input_too_long":
		return err.Error()
	default:
		return "the request could not be completed"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
