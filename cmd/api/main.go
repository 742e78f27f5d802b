// Command api is the Scoracle Alerts API server.
//
// Usage:
//
//	scoracle-alerts-api
//	API_PORT=8080 scoracle-alerts-api

// @title Scoracle Alerts API
// @version 1.0.0
// @description Alert fan-out, device registration and notification history for Scoracle push notifications.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name Scoracle
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/scoracle-alerts/internal/api"
	"github.com/albapepper/scoracle-alerts/internal/api/handler"
	"github.com/albapepper/scoracle-alerts/internal/app"
	"github.com/albapepper/scoracle-alerts/internal/cache"
	"github.com/albapepper/scoracle-alerts/internal/config"
	"github.com/albapepper/scoracle-alerts/internal/db"
	"github.com/albapepper/scoracle-alerts/internal/listener"
	"github.com/albapepper/scoracle-alerts/internal/maintenance"

	_ "github.com/albapepper/scoracle-alerts/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	defer appCache.Close()
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	svc := app.Build(cfg, pool, logger)

	// LISTEN/NOTIFY consumer for broadcasts queued inside Postgres
	if cfg.ListenerEnabled {
		go listener.Start(ctx, cfg.DatabaseURL, svc.Engine, logger)
	} else {
		logger.Info("Alert listener disabled (LISTENER_ENABLED=false)")
	}

	// Receipt reconciliation ticker
	mcfg := maintenance.DefaultConfig()
	mcfg.ReceiptInterval = cfg.ReceiptCheckInterval
	go maintenance.Start(ctx, svc.Reconciler, mcfg, logger)

	h := handler.New(handler.Deps{
		Devices:     svc.Registrar,
		Broadcaster: svc.Engine,
		Ledger:      svc.Ledger,
		DB:          pool,
		Cache:       appCache,
		Logger:      logger,
	})
	router := api.NewRouter(h, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute, // large broadcasts wait on the push gateway
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Scoracle Alerts API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
