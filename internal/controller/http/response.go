package http

import (
	"errors"
	"net/http"

	"github.com/expertdesk/availability/internal/service"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeSuccess(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

// writeError maps the service error taxonomy onto HTTP statuses. Consistency
// defects degrade to a generic message; internals never leak to the client.
func writeError(logger *zap.Logger, w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, service.ErrValidation):
		code = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, service.ErrConflict):
		code = http.StatusConflict
		message = err.Error()
	case errors.Is(err, service.ErrNotFound):
		code = http.StatusNotFound
		message = err.Error()
	case service.IsDefect(err):
		logger.Error("schedule data defect", zap.Error(err))
		message = "unable to resolve schedule"
	default:
		logger.Error("request failed", zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(envelope{Success: false, Message: message})
}
