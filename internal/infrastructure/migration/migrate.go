// Package migration applies the embedded PostgreSQL schema with
// golang-migrate.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"github.com/destinpq/groow-sub007/migrations"
)

// Migrator drives golang-migrate and reports through zap
type Migrator struct {
	m   *migrate.Migrate
	log *zap.Logger
}

// Status is the schema version recorded in schema_migrations. Version 0
// means nothing has been applied.
type Status struct {
	Version uint
	Dirty   bool
}

// New migrates db with the SQL files embedded in the migrations package
func New(db *sql.DB, log *zap.Logger) (*Migrator, error) {
	return NewWithSource(db, migrations.FS, log)
}

func NewWithSource(db *sql.DB, source fs.FS, log *zap.Logger) (*Migrator, error) {
	if log == nil {
		log = zap.NewNop()
	}
	src, err := iofs.New(source, ".")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	target, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration target: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", target)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	m.Log = zapMigrateLogger{log.Named("migrate").Sugar()}
	return &Migrator{m: m, log: log}, nil
}

// zapMigrateLogger adapts migrate.Logger
type zapMigrateLogger struct{ s *zap.SugaredLogger }

func (l zapMigrateLogger) Printf(format string, v ...any) {
	l.s.Debugf(strings.TrimSuffix(format, "\n"), v...)
}

func (l zapMigrateLogger) Verbose() bool { return false }

// run treats ErrNoChange as success and logs the resulting version
func (m *Migrator) run(action string, fn func() error) error {
	err := fn()
	if errors.Is(err, migrate.ErrNoChange) {
		m.log.Info("Schema already current", zap.String("action", action))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", action, err)
	}
	st, err := m.Status()
	if err != nil {
		return err
	}
	m.log.Info("Schema migrated",
		zap.String("action", action),
		zap.Uint("version", st.Version),
		zap.Bool("dirty", st.Dirty))
	return nil
}

// Up applies every pending migration
func (m *Migrator) Up() error { return m.run("up", m.m.Up) }

// Down rolls every migration back
func (m *Migrator) Down() error { return m.run("down", m.m.Down) }

// Steps moves n migrations forward, or back when n is negative
func (m *Migrator) Steps(n int) error {
	return m.run(fmt.Sprintf("steps %+d", n), func() error { return m.m.Steps(n) })
}

func (m *Migrator) Status() (Status, error) {
	v, dirty, err := m.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return Status{}, nil
	case err != nil:
		return Status{}, fmt.Errorf("migration version: %w", err)
	}
	return Status{Version: v, Dirty: dirty}, nil
}

// Force records version as applied and clears the dirty flag without
// running any SQL
func (m *Migrator) Force(version int) error {
	m.log.Warn("Forcing schema version", zap.Int("version", version))
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

// List returns the migration names in source (file name without
// ".up.sql"), sorted by version
func List(source fs.FS) ([]string, error) {
	ups, err := fs.Glob(source, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	names := make([]string, 0, len(ups))
	for _, f := range ups {
		names = append(names, strings.TrimSuffix(f, ".up.sql"))
	}
	slices.Sort(names)
	return names, nil
}
