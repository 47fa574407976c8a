package httpx

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker is satisfied by any infrastructure dependency that exposes
// a Ping method (database.Database and events.Broker both qualify).
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthChecks holds the dependencies the health endpoint pings.
// The Redis delivery cache is deliberately absent: the pipeline fails open
// without it.
type HealthChecks struct {
	RabbitMQ HealthChecker
	Database HealthChecker
}

type healthStatus struct {
	RabbitMQ bool `json:"rabbitmq"`
	Database bool `json:"database"`
}

type healthResponse struct {
	Status string       `json:"status"`
	Checks healthStatus `json:"checks"`
}

// HealthHandler returns an http.HandlerFunc that pings the broker and the
// database and reports 503 "degraded" if either fails.
func HealthHandler(checks HealthChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{
			Status: "ok",
			Checks: healthStatus{
				RabbitMQ: healthy(ctx, checks.RabbitMQ),
				Database: healthy(ctx, checks.Database),
			},
		}

		status := http.StatusOK
		if !resp.Checks.RabbitMQ || !resp.Checks.Database {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		JSON(w, status, resp)
	}
}

func healthy(ctx context.Context, c HealthChecker) bool {
	return c != nil && c.Ping(ctx) == nil
}
