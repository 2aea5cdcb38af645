package orchestrator

import (
	"context"
	"time"

	apperrors "hotelbooking/pkg/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "hotelbooking/orchestrator"

// Telemetry wraps every operation in a span and records its outcome.
type Telemetry struct {
	tracer     trace.Tracer
	operations metric.Int64Counter
	duration   metric.Float64Histogram
}

// NewTelemetry falls back to the global providers when tp or mp is nil.
func NewTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) (*Telemetry, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	operations, err := meter.Int64Counter("hotelbooking.operations",
		metric.WithDescription("Booking and payment operations by outcome"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("hotelbooking.operation.duration",
		metric.WithDescription("Operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Telemetry{
		tracer:     tp.Tracer(instrumentationName),
		operations: operations,
		duration:   duration,
	}, nil
}

// track starts a span for op. The returned func must be called once with the
// operation's final error.
func (t *Telemetry) track(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	start := time.Now()
	ctx, span := t.tracer.Start(ctx, "orchestrator."+op, trace.WithAttributes(attrs...))

	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			appErr := apperrors.AsAppError(err)
			outcome = appErr.Code
			span.RecordError(err)
			if appErr.HTTPStatus >= 500 {
				span.SetStatus(codes.Error, appErr.Message)
			}
		}
		span.SetAttributes(attribute.String("outcome", outcome))
		span.End()

		metricAttrs := metric.WithAttributes(
			attribute.String("operation", op),
			attribute.String("outcome", outcome),
		)
		t.operations.Add(ctx, 1, metricAttrs)
		t.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, metricAttrs)
	}
}
