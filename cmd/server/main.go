package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	alertapp "github.com/destinpq/groow-sub007/internal/application/alert"
	dealapp "github.com/destinpq/groow-sub007/internal/application/deal"
	flashsaleapp "github.com/destinpq/groow-sub007/internal/application/flashsale"
	identityapp "github.com/destinpq/groow-sub007/internal/application/identity"
	orderapp "github.com/destinpq/groow-sub007/internal/application/order"
	shippingapp "github.com/destinpq/groow-sub007/internal/application/shipping"
	supportapp "github.com/destinpq/groow-sub007/internal/application/support"
	"github.com/destinpq/groow-sub007/internal/domain/identity"
	"github.com/destinpq/groow-sub007/internal/infrastructure/auth"
	"github.com/destinpq/groow-sub007/internal/infrastructure/cache"
	"github.com/destinpq/groow-sub007/internal/infrastructure/config"
	"github.com/destinpq/groow-sub007/internal/infrastructure/logger"
	"github.com/destinpq/groow-sub007/internal/infrastructure/migration"
	"github.com/destinpq/groow-sub007/internal/infrastructure/persistence"
	"github.com/destinpq/groow-sub007/internal/infrastructure/storage"
	"github.com/destinpq/groow-sub007/internal/infrastructure/telemetry"
	"github.com/destinpq/groow-sub007/internal/interfaces/http/handler"
	"github.com/destinpq/groow-sub007/internal/interfaces/http/middleware"
	"github.com/destinpq/groow-sub007/internal/interfaces/http/router"
	"github.com/destinpq/groow-sub007/internal/poll"
)

// version is stamped at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.FromAppConfig(cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Groow marketplace API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetryCfg := telemetry.ConfigFrom(cfg.Telemetry, version)
	tp, err := telemetry.Start(rootCtx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	logs, err := telemetry.StartLogs(rootCtx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize OTLP logs", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := logs.Shutdown(ctx); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()
	log = logger.Tee(log, logs.Provider(), cfg.Telemetry.ServiceName, cfg.Log.Level)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully", zap.String("driver", db.Driver))

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTracing {
		qt := telemetry.DefaultQueryTracing()
		qt.Enabled = true
		qt.DBSystem = db.Driver
		if err := telemetry.InstrumentDB(db.DB, qt, log); err != nil {
			log.Warn("Database tracing disabled", zap.Error(err))
		}
	}

	if err := migrate(db, cfg, log); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			_ = redisClient.Close()
		}()
	}

	var store cache.Store
	var blacklist auth.TokenBlacklist
	if redisClient != nil {
		store, err = cache.NewStoreFactory(redisClient,
			cache.WithLogger(log),
			cache.WithInMemoryFallback(!cfg.IsProduction()),
			cache.WithKeyPrefix("groow:"),
		).CreateStore(rootCtx)
		if err != nil {
			log.Fatal("Failed to initialize cache", zap.Error(err))
		}
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	} else {
		store = cache.NewInMemoryStore()
		blacklist = auth.NewInMemoryTokenBlacklist()
	}

	attachments, err := newAttachmentStorage(rootCtx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	// Repositories and services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(persistence.NewGormUserRepository(db.DB), jwtService, blacklist,
		identityapp.DefaultAuthServiceConfig(), log)
	flashSaleService := flashsaleapp.NewService(persistence.NewGormFlashSaleRepository(db.DB),
		flashsaleapp.WithCache(store, cfg.FlashSale.ActiveCacheTTL),
		flashsaleapp.WithLogger(log))
	dealService := dealapp.NewService(persistence.NewGormDealRepository(db.DB), log)
	shippingService := shippingapp.NewService(persistence.NewGormCarrierRepository(db.DB),
		persistence.NewGormMethodRepository(db.DB), persistence.NewGormZoneRepository(db.DB), log)
	supportService := supportapp.NewService(persistence.NewGormTicketRepository(db.DB),
		persistence.NewGormTicketMessageRepository(db.DB),
		supportapp.WithStorage(attachments, cfg.Storage.PresignExpiry),
		supportapp.WithLogger(log))
	alertService := alertapp.NewService(persistence.NewGormAlertRepository(db.DB), log)
	orderService := orderapp.NewService(persistence.NewGormOrderRepository(db.DB), log)

	if cfg.Seed.AdminEmail != "" && cfg.Seed.AdminPassword != "" {
		created, err := authService.EnsureUser(rootCtx, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword,
			cfg.Seed.AdminName, identity.RoleAdmin)
		if err != nil {
			log.Fatal("Failed to seed admin user", zap.Error(err))
		}
		if created {
			log.Info("Admin user created", zap.String("email", cfg.Seed.AdminEmail))
		}
	}
	if cfg.Seed.DemoData {
		s := &seeder{
			db:         db.DB,
			flashSales: flashSaleService,
			deals:      dealService,
			shipping:   shippingService,
			alerts:     alertService,
			faker:      gofakeit.New(0),
			log:        log,
		}
		if err := s.run(rootCtx); err != nil {
			log.Error("Failed to seed demo data", zap.Error(err))
		}
	}

	// Flash sale automation: start and end campaigns on schedule
	sweep, err := poll.New(func(ctx context.Context) error {
		_, err := flashSaleService.SweepDue(ctx)
		return err
	}, poll.Config{
		Name:       "flash-sale-sweep",
		Interval:   cfg.FlashSale.SweepInterval,
		Immediate:  true,
		Jitter:     cfg.FlashSale.SweepInterval / 10,
		RunTimeout: cfg.FlashSale.SweepInterval,
		Logger:     log,
	})
	if err != nil {
		log.Fatal("Failed to create flash sale sweep", zap.Error(err))
	}
	if err := sweep.Start(rootCtx); err != nil {
		log.Fatal("Failed to start flash sale sweep", zap.Error(err))
	}
	defer sweep.Stop()

	// Health checks
	checks := map[string]handler.HealthCheck{
		"database": db.Ping,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	handlers := router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		FlashSale: handler.NewFlashSaleHandler(flashSaleService),
		Deal:      handler.NewDealHandler(dealService),
		Shipping:  handler.NewShippingHandler(shippingService),
		Support:   handler.NewSupportHandler(supportService),
		Alert:     handler.NewAlertHandler(alertService),
		Order:     handler.NewOrderHandler(orderService),
		System:    handler.NewSystemHandler(cfg.App.Name, version, checks),
	}

	engine := newEngine(cfg, log, jwtService, blacklist)
	var opts router.Options
	if cfg.HTTP.AuthRateLimitEnabled {
		opts.AuthLimiter = middleware.RateLimit(
			middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRPS, cfg.HTTP.AuthRateLimitBurst))
	}
	areas := router.Areas(handlers, opts)
	router.Mount(engine, router.DefaultVersion, areas...)
	for _, a := range areas {
		a.Walk(func(area, method, p string) {
			log.Debug("Route", zap.String("area", area), zap.String("method", method), zap.String("path", p))
		})
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	log.Info("Shutting down server...")
	sweep.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}
	log.Info("Server exited gracefully")
}

// migrate brings the schema up to date: SQL migrations on postgres,
// AutoMigrate on sqlite
func migrate(db *persistence.Database, cfg *config.Config, log *zap.Logger) error {
	if db.Driver == "sqlite" {
		return db.AutoMigrate()
	}
	if !cfg.Database.AutoMigrate {
		return nil
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, log)
	if err != nil {
		return err
	}
	return m.Up()
}

func newAttachmentStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (supportapp.AttachmentStorage, error) {
	if !cfg.Storage.Enabled {
		log.Warn("Object storage disabled, attachments are kept in memory")
		return storage.NewMemoryAttachments(), nil
	}
	s3, err := storage.NewS3Attachments(ctx, cfg.Storage, log)
	if err != nil {
		return nil, err
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		log.Warn("Could not verify attachment bucket", zap.String("bucket", s3.Bucket()), zap.Error(err))
	}
	return s3, nil
}

func newEngine(cfg *config.Config, log *zap.Logger, jwtService *auth.JWTService, blacklist auth.TokenBlacklist) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies", zap.Error(err))
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:  cfg.HTTP.CORSAllowOrigins,
			AllowMethods:  cfg.HTTP.CORSAllowMethods,
			AllowHeaders:  cfg.HTTP.CORSAllowHeaders,
			ExposeHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
			MaxAge:        12 * time.Hour,
		}),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	if cfg.HTTP.MetricsEnabled {
		metrics := middleware.NewHTTPMetrics("groow")
		engine.Use(metrics.Middleware())
		engine.GET("/metrics", metrics.Handler())
	}
	if cfg.HTTP.RateLimitEnabled {
		engine.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)))
	}

	jwtCfg := middleware.DefaultJWTConfig(jwtService)
	jwtCfg.TokenBlacklist = blacklist
	jwtCfg.Logger = log
	jwtCfg.SkipPaths = append(jwtCfg.SkipPaths, "/api/v1/ready", "/api/v1/system/info")
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtCfg))
	return engine
}
