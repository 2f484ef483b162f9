package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	healthResponse      = `{"status":"ok"}`
	unavailableResponse = `{"status":"unavailable"}`
	healthCheckTimeout  = 2 * time.Second
)

// HealthCheck reports whether a dependency is ready to serve.
type HealthCheck func(ctx context.Context) error

// healthHandler answers readiness/liveness probes. Any failing check turns the response into a 503.
func healthHandler(logger *slog.Logger, checks ...HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, body := http.StatusOK, healthResponse

		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		for _, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed", "error", err)
				status, body = http.StatusServiceUnavailable, unavailableResponse
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if r.Method == http.MethodHead {
			return
		}
		if _, err := io.WriteString(w, body); err != nil {
			// Nothing more to do if the client connection is gone.
			return
		}
	}
}
