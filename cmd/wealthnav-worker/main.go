// Command wealthnav-worker mirrors the SQLite ledger to Google Sheets. It
// syncs on every ledger replaced message and on a fixed interval to catch up
// on anything missed while it was down.
package main

import (
	"context"
	"errors"
	"os"
	"time"
	_ "time/tzdata"

	"golang.org/x/sync/errgroup"

	"wealthnav/internal/amqp"
	"wealthnav/internal/cli"
	applog "wealthnav/internal/log"
	gsheet "wealthnav/internal/sheets/google"
	"wealthnav/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker, os.Getenv("LOG_LEVEL"))
	logger.Info("Starting wealthnav-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Mirror configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	target, err := gsheet.NewFromOptions(context.Background(), gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	broker, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer broker.Close()

	mirror := worker.NewMirrorWorker(repo, target, cfg.Goal)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Catch up once before waiting for messages.
	if _, err := mirror.Sync(ctx); err != nil {
		logger.LogError(ctx, "Startup mirror failed", err, applog.OpSync)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return broker.ConsumeLedgerReplaced(gctx, mirror.HandleLedgerReplaced)
	})
	g.Go(func() error {
		return mirror.Run(gctx, cfg.SyncInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.LogError(ctx, "Mirror worker stopped", err, applog.OpSync)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully", "last_sync", mirror.LastSync())
}
