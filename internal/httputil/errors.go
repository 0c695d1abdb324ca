package httputil

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

const (
	headerRateLimitLimit     = "X-RateLimit-Limit"
	headerRateLimitRemaining = "X-RateLimit-Remaining"
	headerRateLimitReset     = "X-RateLimit-Reset"
)

// ErrorResponse is the generic error body: {"error": "...", "details": "..."}.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// RateLimitResponse is the 429 body: {"error": "...", "limit": N, "remaining": N}.
type RateLimitResponse struct {
	Error     string `json:"error"`
	Limit     int64  `json:"limit"`
	Remaining int64  `json:"remaining"`
}

func writeJSON(w http.ResponseWriter, requestID string, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	if requestID != "" {
		w.Header().Set("X-Request-ID", requestID)
	}
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// WriteRateLimitError writes a 429 with the quota headers and body.
func WriteRateLimitError(w http.ResponseWriter, requestID string, limit, remaining int64, resetAt time.Time) {
	w.Header().Set(headerRateLimitLimit, strconv.FormatInt(limit, 10))
	w.Header().Set(headerRateLimitRemaining, strconv.FormatInt(remaining, 10))
	w.Header().Set(headerRateLimitReset, resetAt.Format(time.RFC3339))
	writeJSON(w, requestID, http.StatusTooManyRequests, RateLimitResponse{
		Error:     "Too many requests",
		Limit:     limit,
		Remaining: remaining,
	})
}

func WriteBadRequestError(w http.ResponseWriter, requestID, message string) {
	writeJSON(w, requestID, http.StatusBadRequest, ErrorResponse{Error: message})
}

// WriteInternalError writes a 500 with a generic message and the underlying
// error text in the details field.
func WriteInternalError(w http.ResponseWriter, requestID, details string) {
	writeJSON(w, requestID, http.StatusInternalServerError, ErrorResponse{
		Error:   "Failed to process request",
		Details: details,
	})
}

func WriteServiceUnavailableError(w http.ResponseWriter, requestID, message string) {
	writeJSON(w, requestID, http.StatusServiceUnavailable, ErrorResponse{Error: message})
}
