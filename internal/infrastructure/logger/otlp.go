package logger

import (
	"go.opentelemetry.io/contrib/bridges/otelzap"
	otellog "go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Tee returns base extended with an OpenTelemetry core, so every entry at
// level or above is also emitted to provider under the scope name. base keeps
// writing to its own sink. A nil provider returns base unchanged.
func Tee(base *zap.Logger, provider otellog.LoggerProvider, name, level string) *zap.Logger {
	if provider == nil {
		return base
	}
	var bridge zapcore.Core = otelzap.NewCore(name, otelzap.WithLoggerProvider(provider))
	if leveled, err := zapcore.NewIncreaseLevelCore(bridge, parseLevel(level)); err == nil {
		bridge = leveled
	}
	return base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, bridge)
	}))
}
