// Package response writes the versioned JSON envelopes used by handlers that
// run outside huma, such as middleware and router fallbacks.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// Version is bumped whenever the envelope shape changes.
const Version = 1

// Envelope wraps successful responses and uncoded errors.
type Envelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorEnvelope wraps coded errors so clients can switch on Code.
type ErrorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes data in an Envelope. Success is derived from status.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	write(w, status, Envelope{
		Version: Version,
		Success: status < 400,
		Data:    data,
	}, logger)
}

// Error writes a coded error response.
func Error(w http.ResponseWriter, status int, code, message string, logger *slog.Logger) {
	write(w, status, ErrorEnvelope{
		Version: Version,
		Code:    code,
		Message: message,
	}, logger)
}

// NotFound writes a 404 for routes that do not exist.
func NotFound(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	Error(w, http.StatusNotFound, "NOT_FOUND", "no route for "+r.URL.Path, logger)
}

// MethodNotAllowed writes a 405 for known routes hit with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" is not allowed on "+r.URL.Path, logger)
}

// TooManyRequests writes a 429 with a Retry-After header rounded up to
// whole seconds.
func TooManyRequests(w http.ResponseWriter, retryAfter time.Duration, logger *slog.Logger) {
	secs := int((retryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	Error(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", logger)
}

func write(w http.ResponseWriter, status int, body any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		if logger != nil {
			logger.Error("Failed to encode JSON response", "error", err)
		}
	}
}
