// Package telemetry installs the global OpenTelemetry tracer and meter
// providers. Without an OTLP endpoint nothing is exported and the globals
// keep their no-op defaults.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotelbooking/pkg/logger"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

type Config struct {
	Endpoint       string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure       bool          `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
	ServiceVersion string        `envconfig:"SERVICE_VERSION" default:"1.0.0"`
	SampleRatio    float64       `envconfig:"OTEL_TRACES_SAMPLER_RATIO" default:"1"`
	MetricInterval time.Duration `envconfig:"OTEL_METRIC_EXPORT_INTERVAL" default:"30s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("telemetry config: %w", err)
	}
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		return Config{}, fmt.Errorf("telemetry config: OTEL_TRACES_SAMPLER_RATIO must be within [0,1], got %v", cfg.SampleRatio)
	}
	return cfg, nil
}

func (c Config) Enabled() bool {
	return c.Endpoint != ""
}

// Provider owns the SDK providers installed by Setup.
type Provider struct {
	tracer *sdktrace.TracerProvider
	meter  *sdkmetric.MeterProvider
}

// Setup installs exporting providers for serviceName. With export disabled
// it only sets the W3C propagators and returns a Provider whose Shutdown is
// a no-op.
func Setup(ctx context.Context, cfg Config, serviceName string, log *logger.Logger) (*Provider, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Enabled() {
		log.Info("Telemetry export disabled", "reason", "OTEL_EXPORTER_OTLP_ENDPOINT not set")
		return &Provider{}, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build telemetry resource: %w", err)
	}

	traceOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	metricOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
		metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
	}

	traceExporter, err := otlptracehttp.New(ctx, traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	metricExporter, err := otlpmetrichttp.New(ctx, metricOpts...)
	if err != nil {
		_ = traceExporter.Shutdown(ctx)
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}

	p := &Provider{
		tracer: sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		),
		meter: sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(cfg.MetricInterval))),
			sdkmetric.WithResource(res),
		),
	}
	otel.SetTracerProvider(p.tracer)
	otel.SetMeterProvider(p.meter)

	log.Info("Telemetry export enabled",
		"endpoint", cfg.Endpoint,
		"sample_ratio", cfg.SampleRatio,
		"metric_interval", cfg.MetricInterval,
	)
	return p, nil
}

// Shutdown flushes pending spans and metrics.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.tracer != nil {
		if err := p.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
	}
	if p.meter != nil {
		if err := p.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}
