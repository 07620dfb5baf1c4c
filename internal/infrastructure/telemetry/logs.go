package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.uber.org/zap"
)

// LogPipeline owns the SDK logger provider that exports log records to the
// collector. Disabled pipelines hold no provider and every method is a no-op.
type LogPipeline struct {
	sdk *sdklog.LoggerProvider
	log *zap.Logger
}

// StartLogs installs a global OTLP/gRPC logger provider when both tracing
// and cfg.Logs are on
func StartLogs(ctx context.Context, cfg Config, log *zap.Logger) (*LogPipeline, error) {
	if !cfg.Enabled || !cfg.Logs {
		log.Debug("OTLP logs disabled")
		return &LogPipeline{log: log}, nil
	}

	opts := []otlploggrpc.Option{
		otlploggrpc.WithEndpoint(cfg.CollectorEndpoint),
		otlploggrpc.WithTimeout(exportTimeout),
	}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("otlp log exporter: %w", err)
	}
	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("log resource: %w", err)
	}

	p := newLogPipeline(sdklog.NewBatchProcessor(exporter), res, log)
	global.SetLoggerProvider(p.sdk)
	log.Info("OTLP logs enabled", zap.String("endpoint", cfg.CollectorEndpoint))
	return p, nil
}

func newLogPipeline(processor sdklog.Processor, res *resource.Resource, log *zap.Logger) *LogPipeline {
	opts := []sdklog.LoggerProviderOption{sdklog.WithProcessor(processor)}
	if res != nil {
		opts = append(opts, sdklog.WithResource(res))
	}
	return &LogPipeline{sdk: sdklog.NewLoggerProvider(opts...), log: log}
}

func (p *LogPipeline) Enabled() bool { return p.sdk != nil }

// Provider returns nil while the pipeline is disabled
func (p *LogPipeline) Provider() otellog.LoggerProvider {
	if p.sdk == nil {
		return nil
	}
	return p.sdk
}

// Flush exports buffered records without stopping the pipeline
func (p *LogPipeline) Flush(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}
	return p.sdk.ForceFlush(ctx)
}

// Shutdown flushes and stops the exporter; it waits at most exportTimeout
func (p *LogPipeline) Shutdown(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, exportTimeout)
	defer cancel()
	if err := p.sdk.Shutdown(ctx); err != nil {
		return fmt.Errorf("logger provider shutdown: %w", err)
	}
	p.log.Info("OTLP logs stopped")
	return nil
}
