package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/civicworks/billchat/internal/httputil"
	"github.com/civicworks/billchat/internal/telemetry"
)

// anonymousClient is the bucket key used when the client IP cannot be resolved.
const anonymousClient = "anonymous"

// Quota is read per request so config hot-reload takes effect without restart.
type Quota struct {
	Max    int64
	Window time.Duration
}

// Middleware returns chi middleware that enforces a per-IP sliding-window quota.
func Middleware(checker Checker, quota func() Quota, metrics *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := w.Header().Get("X-Request-ID")
			q := quota()

			ip := ClientIP(r)
			result, err := checker.Check(r.Context(), ip, q.Max, q.Window)
			if err != nil {
				// Checker implementations fail open themselves; an error here
				// means something unexpected, so let the request through.
				slog.Error("rate limit check failed", "request_id", reqID, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				slog.Warn("rate limit exceeded",
					"request_id", reqID,
					"client_ip", ip,
					"limit", result.Limit,
					"reset_at", result.ResetAt.Format(time.RFC3339),
				)
				if metrics != nil {
					metrics.RecordRateLimitHit()
				}
				httputil.WriteRateLimitError(w, reqID, result.Limit, result.Remaining, result.ResetAt)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP resolves the rate-limit bucket for a request. Assumes
// chi middleware.RealIP has already folded X-Forwarded-For into RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr may already be a bare IP after RealIP rewriting.
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return anonymousClient
	}
	if host == "" {
		return anonymousClient
	}
	return host
}
