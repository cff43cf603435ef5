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
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/geocoder-bridge/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/geocoder-bridge/internal/adapter/kafka"
	"github.com/couchcryptid/geocoder-bridge/internal/backend"
	"github.com/couchcryptid/geocoder-bridge/internal/bridge"
	"github.com/couchcryptid/geocoder-bridge/internal/channel"
	"github.com/couchcryptid/geocoder-bridge/internal/config"
	"github.com/couchcryptid/geocoder-bridge/internal/observability"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	geocoder, closeGeocoder, err := backend.New(ctx, cfg, metrics, logger)
	if err != nil {
		logger.Error("failed to build geocoder", "error", err)
		os.Exit(1)
	}
	defer closeGeocoder()

	b := bridge.New(geocoder, logger, metrics)
	ready := readiness{b}

	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
		loop   *channel.Loop
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		loop = channel.New(reader, b, writer, logger, metrics, cfg.BatchSize)
		ready = append(ready, loop)
		logger.Info("kafka channel enabled",
			"request_topic", cfg.KafkaRequestTopic, "reply_topic", cfg.KafkaReplyTopic)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, b, ready, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Closed once nothing can dispatch new lookups from the Kafka side.
	loopDone := make(chan struct{})
	if loop != nil {
		g.Go(func() error {
			defer close(loopDone)
			return loop.Run(gctx)
		})
	} else {
		close(loopDone)
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		drain(shutdownCtx, loopDone, b, logger)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("service error", "error", err)
	}

	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// readiness is ready when every checker is.
type readiness []interface {
	CheckReadiness(ctx context.Context) error
}

func (r readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

// drain waits for the channel loop to stop dispatching and then for the
// lookups already dispatched to finish, giving up when ctx expires.
func drain(ctx context.Context, loopDone <-chan struct{}, inflight interface{ Wait() }, logger *slog.Logger) {
	select {
	case <-loopDone:
	case <-ctx.Done():
		logger.Warn("shutdown timeout before channel loop stopped")
		return
	}

	done := make(chan struct{})
	go func() {
		inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("shutdown timeout with lookups still in flight")
	}
}
