package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/destinpq/groow-sub007/internal/infrastructure/config"
)

type widget struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&widget{}))
	return db
}

func TestStart_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := ConfigFrom(config.TelemetryConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     1.0,
		ServiceName:       "groow-admin",
	}, "test")

	tp, err := Start(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.Enabled())
	assert.Equal(t, "groow-admin", tp.Config().ServiceName)
	assert.Equal(t, "test", tp.Config().ServiceVersion)
	assert.NotNil(t, tp.Tracer("noop"))
	assert.NoError(t, tp.Flush(ctx))
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOn")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOff")
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestConfigFrom_DefaultsVersion(t *testing.T) {
	assert.Equal(t, "dev", ConfigFrom(config.TelemetryConfig{}, "").ServiceVersion)
}

func TestDefaultQueryTracing(t *testing.T) {
	cfg := DefaultQueryTracing()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.WithVars)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQuery)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestInstrumentDB_Disabled(t *testing.T) {
	db := setupTestDB(t)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	cfg := DefaultQueryTracing()
	cfg.Provider = tp
	require.NoError(t, InstrumentDB(db, cfg, zap.NewNop()))

	require.NoError(t, db.Create(&widget{Name: "a"}).Error)
	assert.Empty(t, recorder.Ended())
}

func TestInstrumentDB_RecordsSpans(t *testing.T) {
	db := setupTestDB(t)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	cfg := DefaultQueryTracing()
	cfg.Enabled = true
	cfg.DBSystem = "sqlite"
	cfg.SlowQuery = 0
	cfg.Provider = tp
	require.NoError(t, InstrumentDB(db, cfg, nil))

	ctx, parent := tp.Tracer("test").Start(context.Background(), "parent")
	require.NoError(t, db.WithContext(ctx).Create(&widget{Name: "lamp"}).Error)
	var got widget
	require.NoError(t, db.WithContext(ctx).First(&got, "name = ?", "lamp").Error)
	parent.End()

	assert.Equal(t, "lamp", got.Name)
	spans := recorder.Ended()
	require.GreaterOrEqual(t, len(spans), 3)

	var slowStatements int
	for _, s := range spans {
		for _, kv := range s.Attributes() {
			if kv.Key == "db.slow_query" && kv.Value.AsBool() {
				assert.NotEqual(t, "parent", s.Name(), "slow marks belong on the statement span")
				slowStatements++
			}
		}
	}
	assert.GreaterOrEqual(t, slowStatements, 2, "a zero threshold marks every statement slow")
}

func TestInstrumentDB_FastStatementsStayUnmarked(t *testing.T) {
	db := setupTestDB(t)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	cfg := DefaultQueryTracing()
	cfg.Enabled = true
	cfg.DBSystem = "sqlite"
	cfg.SlowQuery = time.Hour
	cfg.Provider = tp
	require.NoError(t, InstrumentDB(db, cfg, nil))

	require.NoError(t, db.WithContext(context.Background()).Create(&widget{Name: "desk"}).Error)
	err := db.WithContext(context.Background()).Exec("SELECT * FROM missing_table").Error
	require.Error(t, err)

	spans := recorder.Ended()
	require.NotEmpty(t, spans)
	var failed bool
	for _, s := range spans {
		if s.Status().Code == codes.Error {
			failed = true
		}
		for _, kv := range s.Attributes() {
			assert.NotEqual(t, "db.slow_query", string(kv.Key))
		}
	}
	assert.True(t, failed)
}
