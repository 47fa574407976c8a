package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"

	"github.com/ghuser/budgetly/pkg/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		ServiceName:    "budgetly-notifier",
		ServiceVersion: "test",
		Environment:    "testing",
		OtelEndpoint:   "", // disabled
	}
}

func scrape(t *testing.T, handler http.Handler) string {
	t.Helper()
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "text/plain") {
		t.Errorf("expected text/plain content-type, got %q", ct)
	}
	return rr.Body.String()
}

func TestSetup_NoOtelEndpoint(t *testing.T) {
	shutdown, handler, err := Setup(context.Background(), baseConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shutdown == nil {
		t.Fatal("expected non-nil shutdown")
	}
	if handler == nil {
		t.Fatal("expected non-nil metrics handler")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_MetricsExposeRuntimeCollectors(t *testing.T) {
	shutdown, handler, err := Setup(context.Background(), baseConfig())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer shutdown(context.Background()) //nolint:errcheck

	body := scrape(t, handler)
	if !strings.Contains(body, "go_goroutines") {
		t.Errorf("expected Go runtime metrics, got:\n%s", body)
	}
}

// Setup is called once per process, but tests call it repeatedly; each call
// must get a fresh registry instead of failing on duplicate registration.
func TestSetup_RepeatedCallsDoNotCollide(t *testing.T) {
	for range 2 {
		shutdown, _, err := Setup(context.Background(), baseConfig())
		if err != nil {
			t.Fatalf("setup: %v", err)
		}
		if err := shutdown(context.Background()); err != nil {
			t.Fatalf("shutdown: %v", err)
		}
	}
}

func TestSetup_MetricsExposeOperationLatency(t *testing.T) {
	shutdown, handler, err := Setup(context.Background(), baseConfig())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer shutdown(context.Background()) //nolint:errcheck

	rec, err := NewLatencyRecorder(otel.Meter("github.com/ghuser/budgetly/pkg/telemetry"))
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}
	_ = rec.Record(context.Background(), "settings.find_by_user", func(context.Context) error { return nil })
	_ = rec.Record(context.Background(), "telegram.send", func(context.Context) error { return errors.New("502") })

	body := scrape(t, handler)
	for _, want := range []string{
		"operation_duration_seconds_bucket",
		`operation="settings.find_by_user"`,
		`operation="telegram.send"`,
		`status="error"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in /metrics output", want)
		}
	}
}
