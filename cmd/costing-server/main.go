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

	"github.com/iwvelando/costing-forecast/internal/server"
	"github.com/iwvelando/costing-forecast/internal/store"
	"github.com/iwvelando/costing-forecast/pkg/constants"
	"github.com/iwvelando/costing-forecast/pkg/logging"
	"github.com/iwvelando/costing-forecast/pkg/validation"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	_ = godotenv.Load()

	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	if err := validation.ValidateLogLevel(*logLevel); err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"invalid log level\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := server.Options{
		MaxBodySize: cfg.BodySizeBytes(),
		Version:     version,
	}

	var (
		st       *store.Store
		recorder *store.Recorder
	)
	if cfg.StorageEnabled() {
		st, err = store.Open(ctx, logger, cfg.Storage.Driver, cfg.Storage.DSN)
		if err != nil {
			logger.Fatal("failed to open report storage",
				zap.String("op", "main"),
				zap.String("driver", cfg.Storage.Driver),
				zap.Error(err),
			)
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			logger.Fatal("failed to migrate report storage",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		recorder = store.NewRecorder(logger, st, constants.DefaultRecorderQueueSize)
		opts.Reports = st
		opts.Recorder = recorder
	} else {
		logger.Info("report storage disabled",
			zap.String("op", "main"),
		)
	}

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           server.NewHandler(logger, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("op", "main"),
			zap.String("address", cfg.Address),
			zap.String("version", version),
		)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	case <-ctx.Done():
		logger.Info("shutting down",
			zap.String("op", "main"),
		)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		cancel()
	}

	// Drain pending reports before the database goes away.
	if recorder != nil {
		if err := recorder.Close(); err != nil {
			logger.Error("failed to drain report recorder",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}
	if st != nil {
		if err := st.Close(); err != nil {
			logger.Error("failed to close report storage",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}
}
