package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httptransport "github.com/fgtintas/referral-service/internal/api/http"
	"github.com/fgtintas/referral-service/internal/api/http/handlers"
	"github.com/fgtintas/referral-service/internal/auth"
	"github.com/fgtintas/referral-service/internal/cache"
	"github.com/fgtintas/referral-service/internal/config"
	"github.com/fgtintas/referral-service/internal/events"
	"github.com/fgtintas/referral-service/internal/observability"
	"github.com/fgtintas/referral-service/internal/persistence"
	"github.com/fgtintas/referral-service/internal/ratelimit"
	"github.com/fgtintas/referral-service/internal/referral"
	"github.com/fgtintas/referral-service/internal/repository"
	"github.com/fgtintas/referral-service/internal/repository/memory"
	"github.com/fgtintas/referral-service/internal/service"
	"github.com/fgtintas/referral-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var (
		adminRepo      repository.AdminRepository
		professionals  repository.ProfessionalRepository
		commissionRepo repository.CommissionRepository
		readiness      = map[string]handlers.Pinger{"redis": redis}
	)
	if pg.Enabled() {
		pool := pg.PoolHandle()
		adminRepo = repository.NewAdminRepository(pool)
		professionals = repository.NewProfessionalRepository(pool)
		commissionRepo = repository.NewCommissionRepository(pool)
		readiness["postgres"] = pg
	} else {
		store := memory.NewStore()
		adminRepo, professionals, commissionRepo = store.Admins(), store.Professionals(), store.Commissions()
	}
	credentials := service.NewCredentialStore(adminRepo, professionals, cfg.Auth.BcryptCost)
	if !pg.Enabled() {
		seedDevAdmin(ctx, credentials, logger)
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL())
	if err != nil {
		logger.Fatal("failed to init token manager", zap.Error(err))
	}
	cookies := auth.SessionCookie{
		Name:   cfg.Auth.CookieName,
		Secure: cfg.App.IsProduction(),
		MaxAge: tokens.TTL(),
	}

	dispatcher := events.NewInMemoryDispatcher()
	directoryCache := cache.NewRedisDirectoryCache(redis.Client, cfg.Cache.DirectoryTTL())
	worker.StartEventSubscribers(dispatcher, service.NewAuditService(dispatcher, logger), directoryCache, logger)

	codes := referral.NewGenerator(referral.Options{
		Prefix:      cfg.Referral.Prefix,
		Length:      cfg.Referral.Length,
		Alphabet:    cfg.Referral.Alphabet,
		MaxAttempts: cfg.Referral.MaxAttempts,
	}, professionals)

	directory := service.NewDirectoryService(service.DirectoryDependencies{
		Professionals: professionals,
		Commissions:   commissionRepo,
		Credentials:   credentials,
		Codes:         codes,
		Cache:         directoryCache,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Logger:        logger,
	})
	ledger := service.NewLedgerService(service.LedgerDependencies{
		Professionals: professionals,
		Commissions:   commissionRepo,
		RatePercent:   cfg.Commission.RatePercent,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Logger:        logger,
	})
	authService := service.NewAuthService(service.AuthDependencies{
		Credentials: credentials,
		Directory:   directory,
		Tokens:      tokens,
		Metrics:     metrics,
	})

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.IsProduction(),
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, readiness),
		Auth:           handlers.NewAuthHandler(authService, cookies),
		Professionals:  handlers.NewProfessionalsHandler(directory, ledger),
		Admin:          handlers.NewAdminHandler(directory),
		Dashboard:      handlers.NewDashboardHandler(directory, ledger),
		AuthMiddleware: auth.NewAuthMiddleware(auth.NewGate(tokens), auth.DefaultRoutePolicy(), cookies),
		AuthLimiter:    ratelimit.NewRedisLimiter(redis.Client, "auth", cfg.RateLimit.AuthPerMinute, time.Minute),
		Metrics:        adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})),
		Logger:         logger,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

// seedDevAdmin provisions SEED_ADMIN_EMAIL into the in-memory store so a
// development run without Postgres has someone able to record commissions.
func seedDevAdmin(ctx context.Context, credentials *service.CredentialStore, logger *zap.Logger) {
	email := os.Getenv("SEED_ADMIN_EMAIL")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		logger.Warn("in-memory store has no admin; set SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD")
		return
	}
	admin, err := credentials.ProvisionAdmin(ctx, email, getEnv("SEED_ADMIN_NAME", "Administrador"), password)
	if err != nil {
		logger.Fatal("failed to seed admin", zap.Error(err))
	}
	logger.Info("seeded development admin", zap.String("email", admin.Email))
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
