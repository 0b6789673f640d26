package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"library_lending/internal/common"
)

// Limiter is satisfied by ratelimit.FixedWindowLimiter.
type Limiter interface {
	Allow(key string) bool
}

// RateLimit rejects requests with 429 once the client's IP exceeds its quota
// on this path.
func RateLimit(limiter Limiter, msg string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r.URL.Path + "|" + clientIP(r)) {
				common.RespondWithErr(w, fmt.Errorf("%s: %w", msg, common.ErrTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP relies on chi's RealIP having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
