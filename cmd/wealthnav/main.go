package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"wealthnav/internal/backend"
	"wealthnav/internal/cache"
	"wealthnav/internal/cli"
	"wealthnav/internal/extract"
	apphttp "wealthnav/internal/http"
	applog "wealthnav/internal/log"
	"wealthnav/internal/services"
)

const (
	extractionCacheSize = 32
	extractionCacheTTL  = 30 * time.Minute
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp, os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize ledger backend", "error", err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	logger.Info("Ledger backend ready", applog.FieldBackend, cfg.DataBackend)

	deps := apphttp.Deps{
		Dashboard: services.NewDashboardService(res.Store, cfg.Goal),
		Snapshots: services.NewSnapshotService(res.Store, res.Publisher, cfg.Goal),
		Location:  cfg.Location(),
		Logger:    logger,
		Ready: func(ctx context.Context) error {
			_, err := res.Store.ReadAll(ctx)
			return err
		},
	}

	var caches *cache.Manager
	if cfg.ExtractionEnabled() {
		client, err := extract.NewClient(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			logger.Error("Failed to initialize Gemini client", "error", err)
			os.Exit(1)
		}
		cached := extract.NewCachedExtractor(extract.NewGeminiExtractor(client, cfg.GeminiModel), extractionCacheSize, extractionCacheTTL)
		caches = cache.NewManager(cached.Cache())
		caches.StartCleanup(5 * time.Minute)
		deps.Extractor = cached
		deps.Commentator = extract.NewGeminiCommentator(client, cfg.GeminiModel)
		logger.Info("Screenshot extraction enabled", "model", cfg.GeminiModel)
	} else {
		logger.Info("Screenshot extraction disabled - no GEMINI_API_KEY provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps)
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 90 * time.Second // extraction calls can be slow
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.LogError(shutdownCtx, "Server shutdown error", err, applog.OpShutdown)
		}
		if caches != nil {
			caches.Stop()
		}
		if err := res.Close(); err != nil {
			logger.LogError(shutdownCtx, "Backend cleanup error", err, applog.OpShutdown)
		}
	})

	logger.Info("Starting wealthnav server",
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		"goal", int64(cfg.Goal),
		"timezone", cfg.Timezone)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
