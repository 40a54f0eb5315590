package httpstatus

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/arikolev/elevator-fleet/internal/constants"
)

// APIResponse is the standard envelope every status-surface endpoint
// returns, success or failure.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ResponseWriter wraps http.ResponseWriter with the JSON envelope helpers
// every handler in this package uses.
type ResponseWriter struct {
	http.ResponseWriter
	logger *slog.Logger
}

// NewResponseWriter creates a new ResponseWriter.
func NewResponseWriter(w http.ResponseWriter, logger *slog.Logger) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w, logger: logger}
}

// WriteJSON writes data wrapped in the standard success envelope.
func (rw *ResponseWriter) WriteJSON(statusCode int, data interface{}) {
	response := APIResponse{
		Success:   statusCode >= 200 && statusCode < 300,
		Data:      data,
		Timestamp: time.Now(),
	}

	encoded, err := json.Marshal(response)
	if err != nil {
		rw.logger.Error("failed to encode JSON response", slog.String("error", err.Error()))
		rw.Header().Set("Content-Type", constants.ContentTypeJSON)
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", constants.ContentTypeJSON)
	rw.WriteHeader(statusCode)
	if _, writeErr := rw.Write(encoded); writeErr != nil {
		rw.logger.Error("failed to write JSON response", slog.String("error", writeErr.Error()))
	}
}

// WriteError writes a JSON error response with the standard envelope.
func (rw *ResponseWriter) WriteError(statusCode int, code, message string) {
	response := APIResponse{
		Success:   false,
		Error:     &APIError{Code: code, Message: message},
		Timestamp: time.Now(),
	}

	rw.Header().Set("Content-Type", constants.ContentTypeJSON)
	rw.WriteHeader(statusCode)
	if err := json.NewEncoder(rw).Encode(response); err != nil {
		rw.logger.Error("failed to encode error response", slog.String("error", err.Error()))
	}
}

// Error code constants for error responses; RecoveryMiddleware uses
// ErrorCodeInternal.
const (
	ErrorCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrorCodeInternal         = "INTERNAL_ERROR"
)
