// Package telemetry wires OpenTelemetry tracing for the HTTP layer and the
// database, and the optional OTLP log pipeline.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/destinpq/groow-sub007/internal/infrastructure/config"
)

const exportTimeout = 10 * time.Second

// Config is the resolved [telemetry] section plus the build version
type Config struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	ServiceVersion    string
	Insecure          bool
	// Logs also ships log records over OTLP; it needs Enabled
	Logs bool
}

func ConfigFrom(cfg config.TelemetryConfig, version string) Config {
	if version == "" {
		version = "dev"
	}
	return Config{
		Enabled:           cfg.Enabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		SamplingRatio:     cfg.SamplingRatio,
		ServiceName:       cfg.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Insecure,
		Logs:              cfg.Logs,
	}
}

// Provider owns the SDK tracer provider. With tracing disabled it holds no
// SDK provider and every method is a no-op.
type Provider struct {
	sdk *sdktrace.TracerProvider
	cfg Config
	log *zap.Logger
}

// Start installs a global OTLP/gRPC tracer provider and W3C propagators
func Start(ctx context.Context, cfg Config, log *zap.Logger) (*Provider, error) {
	p := &Provider{cfg: cfg, log: log}
	if !cfg.Enabled {
		log.Info("Tracing disabled")
		return p, nil
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.CollectorEndpoint),
		otlptracegrpc.WithTimeout(exportTimeout),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("trace resource: %w", err)
	}

	p.sdk = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SamplingRatio)),
	)
	otel.SetTracerProvider(p.sdk)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	log.Info("Tracing enabled",
		zap.String("endpoint", cfg.CollectorEndpoint),
		zap.String("service", cfg.ServiceName),
		zap.Float64("sampling_ratio", cfg.SamplingRatio))
	return p, nil
}

// newResource describes this service for both traces and logs
func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
}

// samplerFor honours the caller's sampling decision and samples new roots at
// ratio
func samplerFor(ratio float64) sdktrace.Sampler {
	if ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	if ratio <= 0 {
		return sdktrace.NeverSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func (p *Provider) Enabled() bool  { return p.sdk != nil }
func (p *Provider) Config() Config { return p.cfg }

// Tracer falls back to the global provider when tracing is disabled
func (p *Provider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if p.sdk == nil {
		return otel.Tracer(name, opts...)
	}
	return p.sdk.Tracer(name, opts...)
}

// Flush exports buffered spans without stopping the provider
func (p *Provider) Flush(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}
	return p.sdk.ForceFlush(ctx)
}

// Shutdown flushes and stops the exporter; it waits at most exportTimeout
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, exportTimeout)
	defer cancel()
	if err := p.sdk.Shutdown(ctx); err != nil {
		return fmt.Errorf("tracer shutdown: %w", err)
	}
	p.log.Info("Tracing stopped")
	return nil
}
