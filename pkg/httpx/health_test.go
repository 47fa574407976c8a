package httpx_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ghuser/budgetly/pkg/httpx"
)

type stubChecker struct{ err error }

func (s *stubChecker) Ping(_ context.Context) error { return s.err }

type healthBody struct {
	Status string `json:"status"`
	Checks struct {
		RabbitMQ bool `json:"rabbitmq"`
		Database bool `json:"database"`
	} `json:"checks"`
}

func serveHealth(t *testing.T, checks httpx.HealthChecks) (int, healthBody) {
	t.Helper()
	rr := httptest.NewRecorder()
	httpx.HealthHandler(checks).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	var body healthBody
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rr.Code, body
}

func TestHealthHandler_AllHealthy(t *testing.T) {
	code, body := serveHealth(t, httpx.HealthChecks{
		RabbitMQ: &stubChecker{},
		Database: &stubChecker{},
	})

	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body.Status != "ok" || !body.Checks.RabbitMQ || !body.Checks.Database {
		t.Errorf("unexpected response: %+v", body)
	}
}

func TestHealthHandler_Degraded(t *testing.T) {
	down := errors.New("conn refused")
	tests := []struct {
		name         string
		rabbit, db   httpx.HealthChecker
		wantRabbitMQ bool
		wantDatabase bool
	}{
		{"broker down", &stubChecker{err: down}, &stubChecker{}, false, true},
		{"database down", &stubChecker{}, &stubChecker{err: down}, true, false},
		{"both down", &stubChecker{err: down}, &stubChecker{err: down}, false, false},
		{"broker not configured", nil, &stubChecker{}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := serveHealth(t, httpx.HealthChecks{RabbitMQ: tt.rabbit, Database: tt.db})

			if code != http.StatusServiceUnavailable {
				t.Fatalf("expected 503, got %d", code)
			}
			if body.Status != "degraded" {
				t.Errorf("status: got %q, want degraded", body.Status)
			}
			if body.Checks.RabbitMQ != tt.wantRabbitMQ || body.Checks.Database != tt.wantDatabase {
				t.Errorf("checks: got %+v", body.Checks)
			}
		})
	}
}

func TestHealthHandler_ContentType(t *testing.T) {
	h := httpx.HealthHandler(httpx.HealthChecks{
		RabbitMQ: &stubChecker{},
		Database: &stubChecker{},
	})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	ct := rr.Header().Get("Content-Type")
	if ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json; charset=utf-8")
	}
}
