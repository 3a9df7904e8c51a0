package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sglre6355/vaneta/internal/bot"
	_ "github.com/sglre6355/vaneta/internal/modules/core"
	"github.com/sglre6355/vaneta/internal/store"
)

// version is set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0" ./cmd/vaneta
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// A .env file is optional; the environment always wins.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to read .env file", "error", err)
		return 1
	}

	// Load configuration
	cfg, err := bot.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	// Configure JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	logger.Info("starting vaneta", "version", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []bot.Option{bot.WithLogger(logger)}
	if cfg.DatabaseURL != "" {
		db, err := store.Open(ctx, store.PostgresConfig{
			URL:            cfg.DatabaseURL,
			MaxConnections: cfg.DatabaseMaxConnections,
			IdleTimeout:    cfg.DatabaseIdleTimeout,
		})
		if err != nil {
			logger.Error("failed to start bot", "error", &bot.StartupError{Stage: bot.StageDatabase, Err: err})
			return 1
		}
		defer db.Close()
		opts = append(opts, bot.WithStore(db))
		logger.Info("connected to database")
	} else {
		logger.Warn("DATABASE_URL is not set, running without persistence")
	}

	// Create and configure bot
	b := bot.NewBot(cfg, opts...)
	b.LoadModules()

	report, err := b.LoadPlugins(ctx)
	if err != nil {
		logger.Error("failed to start bot", "error", err)
		return 1
	}
	logger.Info("loaded plugins",
		"files", report.Files,
		"commands", report.Commands,
		"contexts", report.Contexts,
		"events", report.Events,
		"errors", len(report.Errors),
	)

	// Start bot
	if err := b.Start(); err != nil {
		logger.Error("failed to start bot", "error", err)
		return 1
	}

	// Wait for shutdown signal
	<-ctx.Done()

	logger.Info("received termination signal, shutting down")
	if err := b.Stop(); err != nil {
		logger.Error("failed to shutdown", "error", err)
	}

	logger.Info("completed bot shutdown")
	return 0
}
