package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// errorResponse is the JSON envelope for every error the API returns. The
// detail string is what clients show to the user.
type errorResponse struct {
	Detail string `json:"detail"`
}

// messageResponse is the envelope for simple acknowledgements
type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, detail string) {
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

	writeJSON(w, statusCode, errorResponse{Detail: detail})
}

func badRequest(w http.ResponseWriter, r *http.Request, detail string) {
	writeError(w, r, http.StatusBadRequest, detail)
}

func unauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	writeError(w, r, http.StatusUnauthorized, detail)
}

func notFound(w http.ResponseWriter, r *http.Request, detail string) {
	writeError(w, r, http.StatusNotFound, detail)
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal error", "error", err, "method", r.Method, "path", r.URL.Path)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "Internal server error"})
}
