package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/aradsms/smsreader/internal/platform/config"
	"github.com/aradsms/smsreader/internal/platform/database"
	"github.com/aradsms/smsreader/internal/platform/logger"
	"github.com/aradsms/smsreader/internal/platform/messagebroker"
	"github.com/aradsms/smsreader/internal/sms_reader_service/adapters/webhook"
	"github.com/aradsms/smsreader/internal/sms_reader_service/app"
	"github.com/aradsms/smsreader/internal/sms_reader_service/repository"
	"github.com/aradsms/smsreader/internal/sms_reader_service/repository/bolt"
	"github.com/aradsms/smsreader/internal/sms_reader_service/repository/memory"
	"github.com/aradsms/smsreader/internal/sms_reader_service/repository/postgres"
	"github.com/aradsms/smsreader/internal/sms_reader_service/repository/redis"
	adapter_http "github.com/aradsms/smsreader/internal/sms_reader_service/transport/http"
)

const (
	serviceName     = "sms_reader_service"
	shutdownTimeout = 10 * time.Second
)

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel).With("service", serviceName)
	appLogger.Info("Starting service...")
	appLogger.Info("Configuration loaded",
		"log_level", cfg.LogLevel,
		"http_port", cfg.HTTPPort,
		"log_store_backend", cfg.LogStoreBackend,
		"max_log_entries", cfg.MaxLogEntries,
		"webhook_url_present", cfg.WebhookURL != "",
		"webhook_timeout", cfg.WebhookTimeout,
		"nats_url", cfg.NATSURL,
		"only_payment_senders", cfg.OnlyPaymentSenders,
	)

	slot, closeSlot, err := openLogSlot(mainCtx, cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to open log storage", "backend", cfg.LogStoreBackend, "error", err)
		os.Exit(1)
	}
	defer closeSlot()
	store := app.NewLogStore(slot, cfg.MaxLogEntries, appLogger)

	if cfg.WebhookURL == "" {
		appLogger.Warn("WEBHOOK_URL not set; every notification will fail and be logged with status error")
	}
	var webhookHTTP *http.Client
	if cfg.WebhookTimeout > 0 {
		webhookHTTP = webhook.NewHTTPClient(cfg.WebhookTimeout)
	}
	notifier := webhook.NewClient(appLogger, cfg.WebhookURL, cfg.WebhookAuthToken, webhookHTTP)

	// NATS is optional: without it the service runs on the simulator and skips event publishing.
	var (
		nc        *messagebroker.NATSClient
		publisher app.EventPublisher
		listener  app.InboundSource
		conn      app.ConnectionChecker
	)
	if cfg.NATSURL != "" {
		nc, err = messagebroker.NewNATSClient(cfg.NATSURL, appLogger, serviceName)
		if err != nil {
			appLogger.Warn("NATS unavailable, continuing without platform listener", "error", err)
		} else {
			defer nc.Close()
			publisher = nc
			conn = nc
			listener = app.NewSMSConsumer(nc, cfg.NATSInboundSubject, cfg.NATSQueueGroup, appLogger)
		}
	}

	hub := adapter_http.NewWSHub(appLogger)
	reader := app.NewSMSReader(store, notifier, publisher, hub, app.SMSReaderOptions{
		OnlyPaymentSenders: cfg.OnlyPaymentSenders,
		ToggleDelay:        cfg.ServiceToggleDelay,
	}, appLogger)

	simulator := app.NewSimulator(nil, cfg.SimulateInterval, appLogger)
	source := app.SelectSource(listener, conn, simulator, appLogger)

	if cfg.AutoStart {
		if err := reader.Start(mainCtx); err != nil {
			appLogger.Error("Failed to auto-start SMS reader", "error", err)
			os.Exit(1)
		}
	}

	handler := adapter_http.NewSMSReaderHandler(reader, store, simulator, source.Name(), validator.New(), appLogger)
	router := adapter_http.NewRouter(handler, hub, cfg.APIJWTSecret, appLogger)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		appLogger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		appLogger.Info("Starting inbound source", "source", source.Name())
		return source.Run(groupCtx, reader.HandleInbound)
	})

	g.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		hub.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("HTTP server shutdown failed", "error", err)
		}
		return nil
	})

	appLogger.Info("Service is ready.", "source", source.Name(), "running", reader.Running())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var groupErr error
	select {
	case sig := <-sigCh:
		appLogger.Info("Received termination signal", "signal", sig.String())
	case groupErr = <-watchGroup(g):
		appLogger.Error("A critical component failed, initiating shutdown", "error", groupErr)
	}

	appLogger.Info("Attempting graceful shutdown...")
	mainCancel()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Error during graceful shutdown of components", "error", err)
	}

	appLogger.Info("Service shutdown complete.")
}

// openLogSlot builds the storage backend named by LOG_STORE_BACKEND.
func openLogSlot(ctx context.Context, cfg *config.Config, log *slog.Logger) (repository.LogSlot, func(), error) {
	switch cfg.LogStoreBackend {
	case "", "bolt":
		if dir := filepath.Dir(cfg.BoltPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create bolt directory: %w", err)
			}
		}
		slot, err := bolt.Open(cfg.BoltPath, cfg.LogKey, log)
		if err != nil {
			return nil, nil, err
		}
		return slot, func() { _ = slot.Close() }, nil

	case "redis":
		client, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		return redis.NewRedisLogSlot(client, cfg.LogKey, log), func() { _ = client.Close() }, nil

	case "postgres":
		pool, err := database.NewDBPool(ctx, cfg.PostgresDSN, log)
		if err != nil {
			return nil, nil, err
		}
		slot := postgres.NewPgLogSlot(pool, cfg.LogKey, log)
		if err := slot.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return slot, pool.Close, nil

	case "memory":
		log.Warn("Using in-memory log storage; entries are lost on restart")
		return memory.NewMemoryLogSlot(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown LOG_STORE_BACKEND %q", cfg.LogStoreBackend)
	}
}

// watchGroup is a helper to monitor an errgroup for early exit.
func watchGroup(g *errgroup.Group) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- g.Wait()
	}()
	return errCh
}
