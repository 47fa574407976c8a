package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// LatencyRecorder records how long named operations take in a single
// histogram, labelled by operation and outcome.
type LatencyRecorder struct {
	histogram metric.Float64Histogram
}

// NewLatencyRecorder registers the operation_duration_seconds histogram on meter.
func NewLatencyRecorder(meter metric.Meter) (*LatencyRecorder, error) {
	h, err := meter.Float64Histogram(
		"operation_duration_seconds",
		metric.WithDescription("Duration of instrumented operations"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, err
	}
	return &LatencyRecorder{histogram: h}, nil
}

// Record runs fn and records its duration under name.
func (r *LatencyRecorder) Record(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.histogram.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("operation", name),
		attribute.String("status", status),
	))
	return err
}

var defaultRecorder = sync.OnceValue(func() *LatencyRecorder {
	r, err := NewLatencyRecorder(otel.Meter("github.com/ghuser/budgetly"))
	if err != nil {
		otel.Handle(err)
		return nil
	}
	return r
})

// WithLatency runs fn and records its duration on the global meter provider.
//
//	err := telemetry.WithLatency(ctx, "settings.find_by_user", func(ctx context.Context) error {
//		s, err = repo.FindByUserID(ctx, userID)
//		return err
//	})
func WithLatency(ctx context.Context, name string, fn func(context.Context) error) error {
	r := defaultRecorder()
	if r == nil {
		return fn(ctx)
	}
	return r.Record(ctx, name, fn)
}

// WithLatencyValue is WithLatency for calls that return a value.
func WithLatencyValue[T any](ctx context.Context, name string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := WithLatency(ctx, name, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}
