// Package config loads the server configuration from config.toml and
// GROOW_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Seed      SeedConfig      `mapstructure:"seed"`
	FlashSale FlashSaleConfig `mapstructure:"flash_sale"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

// DatabaseConfig selects postgres (production) or a sqlite file (local runs)
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// DSN renders a postgres URL with user and password escaped
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// JWTConfig signs access tokens with Secret and refresh tokens with
// RefreshSecret, falling back to Secret when it is empty
type JWTConfig struct {
	Secret                 string        `mapstructure:"secret"`
	RefreshSecret          string        `mapstructure:"refresh_secret"`
	AccessTokenExpiration  time.Duration `mapstructure:"access_token_expiration"`
	RefreshTokenExpiration time.Duration `mapstructure:"refresh_token_expiration"`
	Issuer                 string        `mapstructure:"issuer"`
	MaxRefreshCount        int           `mapstructure:"max_refresh_count"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type HTTPConfig struct {
	ReadTimeout          time.Duration `mapstructure:"read_timeout"`
	WriteTimeout         time.Duration `mapstructure:"write_timeout"`
	IdleTimeout          time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes       int           `mapstructure:"max_header_bytes"`
	MaxBodySize          int64         `mapstructure:"max_body_size"`
	RateLimitEnabled     bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRPS         float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst       int           `mapstructure:"rate_limit_burst"`
	AuthRateLimitEnabled bool          `mapstructure:"auth_rate_limit_enabled"`
	AuthRateLimitRPS     float64       `mapstructure:"auth_rate_limit_rps"`
	AuthRateLimitBurst   int           `mapstructure:"auth_rate_limit_burst"`
	CORSAllowOrigins     []string      `mapstructure:"cors_allow_origins"`
	CORSAllowMethods     []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders     []string      `mapstructure:"cors_allow_headers"`
	TrustedProxies       []string      `mapstructure:"trusted_proxies"`
	MetricsEnabled       bool          `mapstructure:"metrics_enabled"`
}

type TelemetryConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"` // OTLP gRPC host:port
	SamplingRatio     float64 `mapstructure:"sampling_ratio"`
	ServiceName       string  `mapstructure:"service_name"`
	Insecure          bool    `mapstructure:"insecure"`
	DBTracing         bool    `mapstructure:"db_tracing"`
	// Logs tees the server log into the collector next to the traces
	Logs bool `mapstructure:"logs"`
}

// StorageConfig points at the S3-compatible bucket holding ticket attachments
type StorageConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Endpoint        string        `mapstructure:"endpoint"`
	Region          string        `mapstructure:"region"`
	Bucket          string        `mapstructure:"bucket"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	UsePathStyle    bool          `mapstructure:"use_path_style"`
	PresignExpiry   time.Duration `mapstructure:"presign_expiry"`
}

// SeedConfig bootstraps an admin account and, optionally, demo data into an
// empty database
type SeedConfig struct {
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
	AdminName     string `mapstructure:"admin_name"`
	DemoData      bool   `mapstructure:"demo_data"`
}

type FlashSaleConfig struct {
	ActiveCacheTTL time.Duration `mapstructure:"active_cache_ttl"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
}

// defaults lists every key. Keys without a default are listed with their
// zero value so that AutomaticEnv can override them during Unmarshal.
var defaults = map[string]any{
	"app.name": "groow-admin",
	"app.env":  "development",
	"app.port": "8080",

	"database.driver":             "postgres",
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "groow",
	"database.sslmode":            "disable",
	"database.sqlite_path":        "groow.db",
	"database.auto_migrate":       false,
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,

	"redis.enabled":  false,
	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"jwt.secret":                   "",
	"jwt.refresh_secret":           "",
	"jwt.access_token_expiration":  15 * time.Minute,
	"jwt.refresh_token_expiration": 7 * 24 * time.Hour,
	"jwt.issuer":                   "groow-admin",
	"jwt.max_refresh_count":        10,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout":            15 * time.Second,
	"http.write_timeout":           15 * time.Second,
	"http.idle_timeout":            time.Minute,
	"http.max_header_bytes":        1 << 20,
	"http.max_body_size":           int64(10 << 20),
	"http.rate_limit_enabled":      false,
	"http.rate_limit_rps":          20.0,
	"http.rate_limit_burst":        40,
	"http.auth_rate_limit_enabled": false,
	"http.auth_rate_limit_rps":     0.1,
	"http.auth_rate_limit_burst":   5,
	"http.cors_allow_origins":      []string{},
	"http.cors_allow_methods":      []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
	"http.cors_allow_headers":      []string{"Content-Type", "Authorization", "X-Request-ID"},
	"http.trusted_proxies":         []string{},
	"http.metrics_enabled":         false,

	"telemetry.enabled":            false,
	"telemetry.collector_endpoint": "localhost:4317",
	"telemetry.sampling_ratio":     1.0,
	"telemetry.service_name":       "groow-admin",
	"telemetry.insecure":           false,
	"telemetry.db_tracing":         false,
	"telemetry.logs":               false,

	"storage.enabled":           false,
	"storage.endpoint":          "",
	"storage.region":            "us-east-1",
	"storage.bucket":            "",
	"storage.access_key_id":     "",
	"storage.secret_access_key": "",
	"storage.use_path_style":    false,
	"storage.presign_expiry":    15 * time.Minute,

	"seed.admin_email":    "",
	"seed.admin_password": "",
	"seed.admin_name":     "Administrator",
	"seed.demo_data":      false,

	"flash_sale.active_cache_ttl": 30 * time.Second,
	"flash_sale.sweep_interval":   time.Minute,
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

// Defaults returns the built-in configuration without reading files or the
// environment
func Defaults() *Config {
	var cfg Config
	if err := newViper().Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &cfg
}

// Load resolves, highest priority first: GROOW_* environment variables
// (GROOW_DATABASE_PASSWORD for database.password), config.toml in ".",
// "./configs" or "/app", and the built-in defaults.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/app")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	v.SetEnvPrefix("GROOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate reports every problem at once
func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	db := c.Database
	check(db.Driver == "postgres" || db.Driver == "sqlite", "database.driver must be postgres or sqlite, got %q", db.Driver)
	check(db.MaxOpenConns > 0, "database.max_open_conns must be positive")
	check(db.MaxIdleConns >= 0, "database.max_idle_conns cannot be negative")
	check(db.MaxIdleConns <= db.MaxOpenConns,
		"database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)", db.MaxIdleConns, db.MaxOpenConns)
	check(c.Seed.AdminEmail == "" || len(c.Seed.AdminPassword) >= 8,
		"seed.admin_password must be at least 8 characters when seed.admin_email is set")
	check(!c.Storage.Enabled || c.Storage.Bucket != "", "storage.bucket is required when storage is enabled")
	check(c.Telemetry.SamplingRatio >= 0 && c.Telemetry.SamplingRatio <= 1,
		"telemetry.sampling_ratio must be between 0.0 and 1.0, got %g", c.Telemetry.SamplingRatio)

	if c.IsProduction() {
		check(len(c.JWT.Secret) >= 32, "jwt.secret must be at least 32 characters in production")
		check(db.Driver != "sqlite", "database.driver cannot be sqlite in production")
		check(db.Password != "", "database.password is required in production")
		check(db.SSLMode != "disable", "database.sslmode cannot be 'disable' in production")
		check(!slices.Contains(c.HTTP.CORSAllowOrigins, "*"), "http.cors_allow_origins cannot be '*' in production")
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool { return c.App.Env == "production" }
