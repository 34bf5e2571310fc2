package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"

	"wealthnav/internal/backend"
	"wealthnav/internal/cli"
	"wealthnav/internal/config"
	applog "wealthnav/internal/log"
)

// app is the state shared by every subcommand: configuration, logger and an
// open ledger backend.
type app struct {
	cfg     *config.Config
	logger  *applog.Logger
	backend *backend.BackendResult
}

func openApp(ctx context.Context) (*app, error) {
	cli.LoadEnvFile()
	cfg := config.Load()
	// Commands print to stdout; keep logs on stderr and quiet by default.
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(envOr("LOG_LEVEL", "warn")),
		Component: applog.ComponentCLI,
		Output:    os.Stderr,
	})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.DataBackend, err)
	}
	return &app{cfg: cfg, logger: logger, backend: res}, nil
}

func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		a.logger.Warn("Backend cleanup failed", "error", err)
	}
}

// printMarkdown renders md for the terminal, falling back to the raw text
// when no renderer can be built.
func printMarkdown(md string, plain bool) {
	if plain {
		fmt.Print(md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
