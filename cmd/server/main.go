// Package main implements the entry point for the loadqueue server, which
// loads a list of files under a concurrency cap with per-attempt timeouts
// and bounded retries, and optionally exposes the run over HTTP.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/loadqueue/internal/config"
	"github.com/phrazzld/loadqueue/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("loadqueue: %v", err)
	}
}

// run loads configuration, wires the application and blocks until the run
// drains (without a server) or a shutdown signal arrives.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	appLogger.Info("Configuration loaded",
		"server_enabled", cfg.Server.Enabled,
		"port", cfg.Server.Port,
		"log_level", cfg.Log.Level,
		"auto_start", cfg.Scheduler.AutoStart,
		"telemetry_enabled", cfg.Telemetry.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(cfg, appLogger, os.Stderr)
	if err != nil {
		return err
	}
	defer app.cleanup()

	if cfg.Scheduler.AutoStart {
		if err := app.startRun(ctx); err != nil {
			return err
		}
	}

	if cfg.Server.Enabled {
		return app.startHTTPServer(ctx, app.setupRouter())
	}

	if !cfg.Scheduler.AutoStart {
		appLogger.Warn("nothing to do: server disabled and auto start off")
		return nil
	}
	return app.waitForRun(ctx)
}
