// Package api implements the HTTP surface of the backend service.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the JSON envelope for every error the API returns. The
// detail string is what clients show to the user.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// WriteError writes an error envelope and logs it with request context
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int, detail string) {
	logAttrs := []any{
		"detail", detail,
		"status", statusCode,
		"method", r.Method,
		"path", r.URL.Path,
	}
	if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
		logAttrs = append(logAttrs, "request_id", requestID)
	}

	if statusCode >= 500 {
		slog.Error("api error", logAttrs...)
	} else {
		slog.Warn("api error", logAttrs...)
	}

	WriteJSON(w, statusCode, ErrorResponse{Detail: detail})
}

// Unauthorized writes a 401 with the given detail
func Unauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	WriteError(w, r, http.StatusUnauthorized, detail)
}
