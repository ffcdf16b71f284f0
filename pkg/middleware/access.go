package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/propertyapp/property-listing/pkg/httpx"
	"github.com/propertyapp/property-listing/pkg/ratelimit"
)

// APIKeyHeader carries the shared secret for service-to-service endpoints.
const APIKeyHeader = "X-Internal-Token"

// RequireAPIKey rejects requests whose X-Internal-Token does not match key.
func RequireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(APIKeyHeader)
			if key == "" || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				httpx.Fail(w, http.StatusUnauthorized, "Missing or invalid internal token", httpx.CodeUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP applies rule per client IP. Limiter errors let the request through.
func RateLimitByIP(guard *ratelimit.Guard, rule ratelimit.Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !guard.Allow(r.Context(), rule, httpx.ClientIP(r)) {
				httpx.RateLimit(w, "Too many requests. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
