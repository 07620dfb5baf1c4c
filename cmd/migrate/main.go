// Command migrate manages the PostgreSQL schema of the marketplace API.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/destinpq/groow-sub007/internal/infrastructure/config"
	"github.com/destinpq/groow-sub007/internal/infrastructure/logger"
	"github.com/destinpq/groow-sub007/internal/infrastructure/migration"
	"github.com/destinpq/groow-sub007/migrations"
)

const usage = `Usage: migrate [flags] <command> [args]

Commands:
  up             Apply all pending migrations
  down           Roll back all migrations
  step <n>       Apply n migrations (negative rolls back)
  version        Print the current version
  force <v>      Set the version without running migrations
  list           List embedded migrations

Flags:
`

var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	logLevel := fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	log, err := logger.New(&logger.Config{Level: *logLevel, Format: "console", Output: "stderr", TimeFormat: "15:04:05"})
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync(log) }()

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	if cmd == "list" {
		names, err := migration.List(migrations.FS)
		if err != nil {
			log.Error("Failed to list migrations", zap.Error(err))
			return 1
		}
		for _, n := range names {
			fmt.Fprintln(stdout, n)
		}
		return 0
	}
	if _, known := commands[cmd]; !known {
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		fs.Usage()
		return 2
	}

	if err := execute(cmd, rest, stdout, log); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(stderr, err)
			return 2
		}
		log.Error("Migration failed", zap.String("command", cmd), zap.Error(err))
		return 1
	}
	return 0
}

// commands maps each database command to the number of arguments it takes
var commands = map[string]int{"up": 0, "down": 0, "version": 0, "step": 1, "force": 1}

func execute(cmd string, args []string, stdout io.Writer, log *zap.Logger) error {
	var n int
	if commands[cmd] == 1 {
		if len(args) != 1 {
			return fmt.Errorf("%w: migrate %s <n>", errUsage, cmd)
		}
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: %q is not a number", errUsage, args[0])
		}
		n = v
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("driver %q: SQL migrations target postgres, sqlite is migrated on server start", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.New(db, log)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	switch cmd {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "step":
		return m.Steps(n)
	case "force":
		return m.Force(n)
	}
	st, err := m.Status()
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "version %d dirty=%t\n", st.Version, st.Dirty)
	return nil
}
