package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QueryTracing configures the gorm spans
type QueryTracing struct {
	Enabled bool
	// WithVars records bound query variables; keep off outside development
	WithVars  bool
	SlowQuery time.Duration
	DBSystem  string
	// Provider overrides the global tracer provider
	Provider trace.TracerProvider
}

func DefaultQueryTracing() QueryTracing {
	return QueryTracing{SlowQuery: 200 * time.Millisecond, DBSystem: "postgresql"}
}

type startedAtKey struct{}

// InstrumentDB installs otelgorm on db plus callbacks that mark slow
// statements on the span otelgorm opened
func InstrumentDB(db *gorm.DB, cfg QueryTracing, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.Enabled {
		log.Debug("Query tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.WithVars {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if cfg.Provider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(cfg.Provider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	if err := registerTiming(db, func(tx *gorm.DB) { annotate(tx, cfg.SlowQuery) }); err != nil {
		return err
	}
	log.Info("Query tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Duration("slow_query", cfg.SlowQuery))
	return nil
}

func registerTiming(db *gorm.DB, after func(*gorm.DB)) error {
	stamp := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, startedAtKey{}, time.Now())
		}
	}
	cb := db.Callback()
	// annotate must run while otelgorm's span is still open, i.e. before its
	// "otel:after:<op>" callback ends it
	hooks := map[string][2]func(string, func(*gorm.DB)) error{
		"create": {cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Before("otel:after:create").Register},
		"query":  {cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Before("otel:after:select").Register},
		"update": {cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Before("otel:after:update").Register},
		"delete": {cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Before("otel:after:delete").Register},
		"row":    {cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Before("otel:after:row").Register},
		"raw":    {cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Before("otel:after:raw").Register},
	}
	for op, h := range hooks {
		if err := h[0]("groow:stamp_"+op, stamp); err != nil {
			return err
		}
		if err := h[1]("groow:annotate_"+op, after); err != nil {
			return err
		}
	}
	return nil
}

// annotate marks statements slower than slow on the statement span.
// otelgorm itself records the table, affected rows and errors.
func annotate(tx *gorm.DB, slow time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	began, ok := ctx.Value(startedAtKey{}).(time.Time)
	if !ok {
		return
	}
	if took := time.Since(began); took > slow {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", took.Milliseconds()))
	}
}
