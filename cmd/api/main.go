package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Murlii-Manohar/StyleTextSwapp/internal/app"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/rewriter"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/config"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/logger"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", "error", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Storage
	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open storage", "error", err, "backend", cfg.Storage.Backend)
		os.Exit(1)
	}
	defer store.Close()

	// Event bus
	eventBus, err := app.OpenEventBus(cfg.NATS)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Rewrite provider
	rw, err := rewriter.New(cfg.Rewriter)
	if err != nil {
		logger.Error("Failed to configure rewriter", "error", err)
		os.Exit(1)
	}
	checkCtx, cancel := context.WithTimeout(ctx, cfg.Rewriter.Timeout)
	if !rw.ValidateCredentials(checkCtx) {
		logger.Warn("Rewriter credentials could not be verified; transformations will fail until fixed", "provider", rw.Name())
	}
	cancel()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app.NewRouter(cfg, store, rw, eventBus),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("API server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting API server", "port", cfg.Server.Port, "storage", cfg.Storage.Backend, "provider", rw.Name())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("API server error", "error", err)
		os.Exit(1)
	}
	<-done
}
