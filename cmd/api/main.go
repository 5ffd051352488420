package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lanchecard/canteen-api/internal/api"
	"github.com/lanchecard/canteen-api/internal/auth"
	"github.com/lanchecard/canteen-api/internal/config"
	"github.com/lanchecard/canteen-api/internal/database"
	"github.com/lanchecard/canteen-api/internal/events"
	"github.com/lanchecard/canteen-api/internal/payment"
	"github.com/lanchecard/canteen-api/internal/service"
	"github.com/lanchecard/canteen-api/internal/store"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load config")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithField("log_level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()
	logger.Info("Connected to database")

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()

	st := store.New(db, cfg.Database.AcquireTimeout, logger)
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.ExpiresIn)

	server := api.NewServer(cfg, api.Services{
		Orders:   service.NewOrderService(st, publisher, logger),
		Payments: service.NewPaymentService(st, payment.NewGenerator(cfg.Pix), publisher, logger),
		Catalog:  service.NewCatalogService(st, logger),
		Auth:     service.NewAuthService(st, issuer, logger),
		Health:   st,
	}, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	case sig := <-quit:
		logger.WithField("signal", sig.String()).Info("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
	logger.Info("Server stopped")
}

func newPublisher(cfg *config.Config, logger *logrus.Logger) events.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("No Kafka brokers configured, order events disabled")
		return events.NopPublisher{}
	}

	publisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.OrdersTopic, logger)
	if err != nil {
		logger.WithError(err).Warn("Kafka unavailable, order events disabled")
		return events.NopPublisher{}
	}
	return publisher
}
