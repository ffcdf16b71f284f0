package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/propertyapp/property-listing/pkg/httpx"
)

// HealthCheck is a named dependency ping run by Health.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// Health serves /healthz. The response is 503 when any check fails.
func Health(checks ...HealthCheck) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			status := "ok"
			code := http.StatusOK
			deps := make(map[string]string, len(checks))
			for _, c := range checks {
				if err := c.Ping(ctx); err != nil {
					deps[c.Name] = err.Error()
					status = "degraded"
					code = http.StatusServiceUnavailable
					continue
				}
				deps[c.Name] = "ok"
			}

			httpx.WriteJSON(w, code, map[string]any{
				"status":       status,
				"timestamp":    time.Now().Format(time.RFC3339),
				"dependencies": deps,
			})
		})
	}
}
