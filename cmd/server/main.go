package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"shortlify/internal/config"
	"shortlify/internal/handlers"
	"shortlify/internal/repository"
	"shortlify/internal/services"
	"shortlify/internal/telemetry"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func Run(ctx context.Context) error {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Setup Logger
	var handler slog.Handler
	if cfg.AppEnv == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 3. Tracing
	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.OTLPEndpoint, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer shutdownTracer(context.Background())

	// 4. Accounts database (users, audit log); also the link store when SQL
	accountsURL := cfg.AccountsDatabaseURL()
	db, err := repository.InitDB(accountsURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	if strings.HasPrefix(accountsURL, "postgres") {
		logger.Info("Running database migrations...")
	}
	if err := repository.Migrate(db, accountsURL, cfg.MigrationsPath); err != nil {
		closeDB()
		return fmt.Errorf("migration failed: %w", err)
	}

	// 5. Link store
	store, err := repository.OpenStore(ctx, cfg, db, logger)
	if err != nil {
		closeDB()
		return fmt.Errorf("failed to open link store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close link store", "error", err)
		}
		if !cfg.IsSQL() {
			closeDB()
		}
	}()

	// 6. Optional Redis route cache
	var cache *repository.RouteCache
	if cfg.RedisURL != "" {
		addr := strings.TrimPrefix(cfg.RedisURL, "redis://")
		rdb, err := repository.InitRedis(addr, cfg.RedisPassword, 0)
		if err != nil {
			logger.Warn("Failed to connect to Redis, route cache disabled", "error", err)
		} else {
			defer rdb.Close()
			cache = repository.NewRouteCache(rdb, cfg.CacheTTL)
		}
	}

	// 7. Initialize Services
	auditService := services.NewAuditService(db, logger)
	geoIPService := services.NewGeoIPService(cfg, logger)
	defer geoIPService.Close()
	allocator := services.NewAllocator(store, cfg.ShortIDLength, cfg.AllocationTries)
	linkService := services.NewLinkService(store, allocator, cache, auditService, logger)
	linkService.RequireOwnerOnDelete(cfg.DeleteNeedsOwner)
	resolverService := services.NewResolverService(store, cache, geoIPService, logger)
	analyticsService := services.NewAnalyticsService(store)
	authService := services.NewAuthService(db, cfg.JWTSecret, cfg.JWTTTL, auditService, logger)
	qrService := services.NewQRService()
	rateLimiter := services.NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, logger)

	// 8. Initialize Handler
	h := handlers.NewHandler(cfg, logger, linkService, resolverService, analyticsService, authService, qrService)

	// 9. Setup Router
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := h.SetupRouter(rateLimiter)

	// 10. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	auditDone := make(chan struct{})
	go func() {
		auditService.Start(workerCtx)
		close(auditDone)
	}()
	go func() {
		geoIPService.Init()
		geoIPService.StartUpdater(workerCtx)
	}()
	go rateLimiter.StartCleanup(workerCtx, 10*time.Minute)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "store", storeKind(cfg), "cache", cache != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		workerCancel()
		<-auditDone
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	workerCancel()
	<-auditDone

	logger.Info("Server exiting")
	return nil
}

func storeKind(cfg config.Config) string {
	if cfg.IsSQL() {
		return "sql"
	}
	scheme, _, _ := strings.Cut(cfg.DatabaseURL, "://")
	return scheme
}
