package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/SscSPs/credit_ledger/internal/core/domain"
	"github.com/SscSPs/credit_ledger/internal/core/services"
	"github.com/SscSPs/credit_ledger/internal/handlers"
	"github.com/SscSPs/credit_ledger/internal/middleware"
	"github.com/SscSPs/credit_ledger/internal/platform/catalog"
	"github.com/SscSPs/credit_ledger/internal/platform/config"
	"github.com/SscSPs/credit_ledger/internal/platform/metrics"
	"github.com/SscSPs/credit_ledger/internal/repositories/database"
	"github.com/SscSPs/credit_ledger/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// @title Credit Ledger API
// @version 1.0
// @description Prepaid credit ledger: balances, metered charges, refunds and monthly refresh.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Init(prometheus.DefaultRegisterer)

	repos, err := database.OpenRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer repos.Close()

	cat, err := loadCatalog(cfg.CatalogPath, logger)
	if err != nil {
		return err
	}
	tiers, err := cat.TierPolicies()
	if err != nil {
		return err
	}

	container := services.NewServiceContainer(cfg, repos, tiers)

	seeded, err := container.Pricing.SeedPricing(ctx, cat.PricingEntries(), false)
	if err != nil {
		return err
	}
	logger.Info("Pricing catalog seeded", slog.Int("inserted", seeded))

	if cfg.Refresh.Enabled {
		scheduler := services.NewRefreshScheduler(container.Refresh, cfg.Refresh.Interval, logger)
		go scheduler.Start(ctx)
		logger.Info("Refresh scheduler started", slog.Duration("interval", cfg.Refresh.Interval), slog.Duration("cycle", cfg.Refresh.Cycle))
	}

	analytics := utils.InitializePosthogClient(cfg.PosthogAPIKey, cfg.PosthogEndpoint, logger)
	defer analytics.Close()

	limiters, err := middleware.NewTierLimiters(requestsPerMinute(tiers), string(domain.TierFree))
	if err != nil {
		logger.Warn("Request throttling disabled", slog.String("error", err.Error()))
		limiters = nil
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	if err := r.SetTrustedProxies(nil); err != nil {
		return err
	}
	if err := handlers.RegisterRoutes(r, cfg, container, limiters, analytics); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("store", cfg.StoreDriver))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// loadCatalog reads the catalog file. A missing file means the built-in
// tiers and no pricing seed.
func loadCatalog(path string, logger *slog.Logger) (*catalog.Catalog, error) {
	cat, err := catalog.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Catalog file not found, using built-in tier policies", slog.String("path", path))
		return nil, nil
	}
	return cat, err
}

func requestsPerMinute(tiers domain.TierPolicies) map[string]int64 {
	out := make(map[string]int64, len(tiers))
	for tier, policy := range tiers {
		out[string(tier)] = policy.RequestsPerMinute
	}
	return out
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
