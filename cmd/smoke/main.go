// Package main provides the CLI entry point for the API smoke runner.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/destinpq/groow-sub007/internal/infrastructure/logger"
	"github.com/destinpq/groow-sub007/internal/smoke"
)

var version = "dev"

// Exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

type options struct {
	suites      []string
	openapiPath string
	mode        string
	baseURL     string
	workers     int
	timeout     time.Duration
	outputDir   string
	title       string
	envFile     string
	prometheus  string
	pushgateway string
	noLogin     bool
	list        bool
	verbose     bool
	showVersion bool
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	var suites stringList

	fs := flag.NewFlagSet("smoke", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Var(&suites, "suite", "Suite file or directory (repeatable, comma separated)")
	fs.StringVar(&opts.openapiPath, "openapi", "", "Generate a suite from an OpenAPI 3 document")
	fs.StringVar(&opts.mode, "mode", "", "Override suite mode: fixed or real-backend")
	fs.StringVar(&opts.baseURL, "base-url", "", "API base URL (env SMOKE_BASE_URL)")
	fs.IntVar(&opts.workers, "workers", 0, "Concurrent requests (env SMOKE_WORKERS)")
	fs.DurationVar(&opts.timeout, "timeout", 0, "Per-request timeout (env SMOKE_TIMEOUT)")
	fs.StringVar(&opts.outputDir, "output", "", "Directory for JSON and HTML reports (env SMOKE_OUTPUT)")
	fs.StringVar(&opts.title, "title", "Groow API Smoke Report", "HTML report title")
	fs.StringVar(&opts.envFile, "env-file", ".env", "dotenv file with ADMIN_EMAIL and ADMIN_PASSWORD")
	fs.StringVar(&opts.prometheus, "prometheus", "", "Serve metrics on this address while running (e.g. :9091)")
	fs.StringVar(&opts.pushgateway, "pushgateway", "", "Push metrics to this Pushgateway URL when done")
	fs.BoolVar(&opts.noLogin, "no-login", false, "Skip the admin login")
	fs.BoolVar(&opts.list, "list", false, "List endpoints and exit")
	fs.BoolVar(&opts.verbose, "verbose", false, "Log every check")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version information")
	fs.Usage = func() {
		fmt.Fprintf(stderr, `API Smoke Runner - status-code checks against a running backend

USAGE:
    smoke -suite <file|dir> [options]
    smoke -openapi <spec> [options]

EXIT CODES:
    0  no failures
    1  at least one check failed
    2  configuration error

OPTIONS:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.suites = suites
	return opts, nil
}

// settings resolves values that may come from flags, the environment or
// a dotenv file. Flags win.
type settings struct {
	baseURL  string
	workers  int
	timeout  time.Duration
	output   string
	email    string
	password string
}

func loadSettings(opts *options) settings {
	v := viper.New()
	v.SetEnvPrefix("SMOKE")
	v.AutomaticEnv()
	v.SetDefault("base_url", "http://localhost:8080/api/v1")
	v.SetDefault("workers", 4)
	v.SetDefault("timeout", 10*time.Second)
	v.SetDefault("output", "reports")
	_ = v.BindEnv("admin_email", "ADMIN_EMAIL")
	_ = v.BindEnv("admin_password", "ADMIN_PASSWORD")

	s := settings{
		baseURL:  v.GetString("base_url"),
		workers:  v.GetInt("workers"),
		timeout:  v.GetDuration("timeout"),
		output:   v.GetString("output"),
		email:    v.GetString("admin_email"),
		password: v.GetString("admin_password"),
	}
	if opts.baseURL != "" {
		s.baseURL = opts.baseURL
	}
	if opts.workers > 0 {
		s.workers = opts.workers
	}
	if opts.timeout > 0 {
		s.timeout = opts.timeout
	}
	if opts.outputDir != "" {
		s.output = opts.outputDir
	}
	return s
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitConfig
	}
	if opts.showVersion {
		fmt.Fprintf(stdout, "smoke %s\n", version)
		return exitOK
	}

	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(stderr, "Error reading %s: %v\n", opts.envFile, err)
			return exitConfig
		}
	}
	cfg := loadSettings(opts)

	level := "info"
	if opts.verbose {
		level = "debug"
	}
	log, err := logger.New(&logger.Config{Level: level, Format: "console", Output: "stderr"})
	if err != nil {
		fmt.Fprintf(stderr, "Error creating logger: %v\n", err)
		return exitConfig
	}
	defer func() { _ = logger.Sync(log) }()

	suites, err := collectSuites(ctx, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitConfig
	}

	if opts.list {
		listEndpoints(stdout, suites)
		return exitOK
	}

	metrics := smoke.NewMetrics()
	runner, err := smoke.NewRunner(smoke.Config{
		BaseURL: cfg.baseURL,
		Timeout: cfg.timeout,
		Workers: cfg.workers,
		Logger:  log,
		Metrics: metrics,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitConfig
	}

	if opts.prometheus != "" {
		shutdown, err := serveMetrics(opts.prometheus, metrics, log)
		if err != nil {
			fmt.Fprintf(stderr, "Error starting metrics endpoint: %v\n", err)
			return exitConfig
		}
		defer shutdown()
	}

	if !opts.noLogin {
		if cfg.email == "" || cfg.password == "" {
			log.Warn("ADMIN_EMAIL or ADMIN_PASSWORD not set, running unauthenticated")
		} else if _, err := runner.Login(ctx, cfg.email, cfg.password); err != nil {
			log.Warn("Login failed, running unauthenticated", zap.Error(err))
		}
	}

	log.Info("Starting smoke run",
		zap.String("base_url", cfg.baseURL),
		zap.Int("suites", len(suites)),
		zap.Int("workers", cfg.workers),
	)
	summary := runner.Run(ctx, suites...)

	smoke.PrintSummary(stdout, summary)
	if err := writeReports(cfg.output, opts.title, summary); err != nil {
		log.Error("Failed to write reports", zap.Error(err))
	} else {
		fmt.Fprintf(stdout, "\nReports written to %s\n", cfg.output)
	}

	if opts.pushgateway != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := metrics.Push(pushCtx, opts.pushgateway, "groow_smoke"); err != nil {
			log.Warn("Failed to push metrics", zap.Error(err))
		}
		cancel()
	}

	if summary.ExitCode() != exitOK {
		return exitFailed
	}
	return exitOK
}

func collectSuites(ctx context.Context, opts *options) ([]*smoke.Suite, error) {
	if len(opts.suites) == 0 && opts.openapiPath == "" {
		return nil, errors.New("-suite or -openapi is required")
	}

	suites, err := smoke.LoadSuites(opts.suites...)
	if err != nil {
		return nil, err
	}
	if opts.openapiPath != "" {
		generated, err := smoke.FromOpenAPI(ctx, opts.openapiPath, smoke.OpenAPIOptions{Mode: smoke.Mode(opts.mode)})
		if err != nil {
			return nil, err
		}
		suites = append(suites, generated)
	}

	if opts.mode != "" {
		mode := smoke.Mode(opts.mode)
		if mode != smoke.ModeFixed && mode != smoke.ModeRealBackend {
			return nil, fmt.Errorf("%w: unknown mode %q", smoke.ErrInvalidSuite, opts.mode)
		}
		for _, s := range suites {
			s.Mode = mode
		}
	}
	return suites, nil
}

func listEndpoints(w io.Writer, suites []*smoke.Suite) {
	for _, s := range suites {
		fmt.Fprintf(w, "%s [%s]\n", s.Name, s.Mode)
		for _, ep := range s.Endpoints {
			auth := ""
			if s.AuthRequired(ep) {
				auth = " (auth)"
			}
			fmt.Fprintf(w, "  %-6s %s%s\n", ep.Method, smoke.ResolvePath(ep.Path), auth)
		}
	}
}

func writeReports(dir, title string, summary *smoke.Summary) error {
	if err := smoke.WriteJSON(filepath.Join(dir, "api-smoke-report.json"), summary); err != nil {
		return err
	}
	return smoke.WriteHTML(filepath.Join(dir, "api-smoke-report.html"), title, summary)
}

func serveMetrics(addr string, metrics *smoke.Metrics, log *zap.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("Metrics endpoint stopped", zap.Error(err))
		}
	}()
	log.Info("Serving smoke metrics", zap.String("addr", ln.Addr().String()))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
