// Package logger builds the zap loggers used by the server and the CLIs and
// carries request-scoped loggers through contexts.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/destinpq/groow-sub007/internal/infrastructure/config"
)

const defaultTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Config selects level, encoding and sink. Output is "stdout", "stderr"
// or a file path.
type Config struct {
	Level      string
	Format     string // json or console
	Output     string
	TimeFormat string
}

func DefaultConfig() *Config {
	return &Config{Level: "info", Format: "console", Output: "stdout", TimeFormat: defaultTimeLayout}
}

// FromAppConfig overlays the [log] section on the defaults
func FromAppConfig(c config.LogConfig) *Config {
	cfg := DefaultConfig()
	for dst, src := range map[*string]string{&cfg.Level: c.Level, &cfg.Format: c.Format, &cfg.Output: c.Output} {
		if src != "" {
			*dst = src
		}
	}
	return cfg
}

// New builds a logger from cfg (nil means DefaultConfig). Errors and above
// carry a stack trace.
func New(cfg *Config) (*zap.Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	sink, _, err := zap.Open(outputPath(cfg.Output))
	if err != nil {
		return nil, fmt.Errorf("open log output %q: %w", cfg.Output, err)
	}
	core := zapcore.NewCore(encoder(cfg), sink, parseLevel(cfg.Level))
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// parseLevel accepts zap level names in any case plus "warning". Unknown
// names fall back to info.
func parseLevel(s string) zapcore.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func encoder(cfg *Config) zapcore.Encoder {
	layout := cfg.TimeFormat
	if layout == "" {
		layout = defaultTimeLayout
	}
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(layout)
	ec.EncodeDuration = zapcore.MillisDurationEncoder

	if strings.EqualFold(cfg.Format, "console") {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func outputPath(out string) string {
	switch strings.ToLower(out) {
	case "", "stdout":
		return "stdout"
	case "stderr":
		return "stderr"
	}
	return out
}

// Sync flushes buffered entries. Syncing a terminal returns EINVAL on some
// platforms; callers usually ignore the error.
func Sync(l *zap.Logger) error {
	return l.Sync()
}
