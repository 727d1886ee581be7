package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/payoff-planner/internal/logging"
	"github.com/iwvelando/payoff-planner/internal/server"
	"github.com/iwvelando/payoff-planner/internal/store"
	"github.com/iwvelando/payoff-planner/pkg/constants"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	address := flag.String("address", "", "listen address override")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}
	if *address != "" {
		cfg.Address = *address
	}

	logger, err := logging.NewLogger(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	settings, err := store.New(logger, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to initialize settings storage",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	// A nil *SettingsStore must not become a non-nil interface.
	var repo store.Repository
	if settings != nil {
		repo = settings
	}

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           server.NewHandler(logger, cfg.BodySizeBytes(), version, repo),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Info("payoff server listening",
		zap.String("op", "main"),
		zap.String("address", cfg.Address),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("version", version),
	)

	select {
	case err := <-errCh:
		logger.Fatal("server stopped", zap.String("op", "main"), zap.Error(err))
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.String("op", "main"), zap.Error(err))
		}
	}
}
