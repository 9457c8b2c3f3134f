// Command scored runs the warning scoring service: it consumes warning
// submissions from Kafka, scores them against their GSR ground truth, and
// publishes score reports.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/warning-score-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/warning-score-service/internal/adapter/kafka"
	"github.com/couchcryptid/warning-score-service/internal/config"
	"github.com/couchcryptid/warning-score-service/internal/observability"
	"github.com/couchcryptid/warning-score-service/internal/pipeline"
	"github.com/couchcryptid/warning-score-service/internal/profile"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	prof, err := profile.Load(cfg.ProfilePath)
	if err != nil {
		logger.Error("failed to load scoring profile", "error", err, "path", cfg.ProfilePath)
		os.Exit(1)
	}
	scorers, err := profile.BuildSet(prof)
	if err != nil {
		logger.Error("failed to build scorers", "error", err)
		os.Exit(1)
	}
	logger.Info("scoring profile loaded", "scorers", scorers.Len(), "path", cfg.ProfilePath)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(scorers, logger, metrics)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start scoring pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
