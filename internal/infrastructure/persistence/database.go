// Package persistence stores the marketplace aggregates with GORM on
// PostgreSQL, or on a sqlite file for local runs and tests.
package persistence

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/destinpq/groow-sub007/internal/domain/alert"
	"github.com/destinpq/groow-sub007/internal/domain/deal"
	"github.com/destinpq/groow-sub007/internal/domain/flashsale"
	"github.com/destinpq/groow-sub007/internal/domain/identity"
	"github.com/destinpq/groow-sub007/internal/domain/order"
	"github.com/destinpq/groow-sub007/internal/domain/shipping"
	"github.com/destinpq/groow-sub007/internal/domain/support"
	"github.com/destinpq/groow-sub007/internal/infrastructure/config"
	"github.com/destinpq/groow-sub007/internal/infrastructure/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

type Database struct {
	DB     *gorm.DB
	Driver string
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "sqlite":
		return sqlite.Open(cfg.SQLitePath), nil
	case "postgres", "":
		return postgres.Open(cfg.DSN()), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// NewDatabase connects and pings. sqlite is limited to one connection,
// which also keeps ":memory:" databases on a single handle.
func NewDatabase(cfg *config.DatabaseConfig, log *zap.Logger, level gormlogger.LogLevel) (*Database, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	driver := dialector.Name()

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.NewGormLogger(log, level, slowQueryThreshold),
		SkipDefaultTransaction: true,
		PrepareStmt:            driver == "postgres",
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
	}

	d := &Database{DB: db, Driver: driver}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return d, nil
}

// Models lists every persisted type in foreign-key order
func Models() []any {
	return []any{
		&identity.User{},
		&flashsale.FlashSale{},
		&deal.Deal{},
		&shipping.Carrier{},
		&shipping.Method{},
		&shipping.Zone{},
		&support.Ticket{},
		&support.Message{},
		&alert.Alert{},
		&order.Order{},
		&order.TrackingEvent{},
	}
}

// AutoMigrate builds the sqlite schema from the models. Postgres uses the
// embedded SQL migrations.
func (d *Database) AutoMigrate() error {
	if err := d.DB.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", d.Driver, err)
	}
	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
