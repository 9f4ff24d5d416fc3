package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"promptmart/internal/config"
	"promptmart/internal/messaging"
	"promptmart/internal/notify"
	"promptmart/internal/telemetry"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := config.NewLogger(config.LoggerConfig{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
	}, "notifier")

	var brokers []string
	for _, b := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	topic := envOr("KAFKA_NOTIFICATION_TOPIC", "notification.created")
	group := envOr("KAFKA_CONSUMER_GROUP", "promptmart-notifier")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, config.TelemetryConfig{
		Enabled:      os.Getenv("OTEL_ENABLED") == "true",
		ServiceName:  envOr("OTEL_SERVICE_NAME", "promptmart-notifier"),
		OTLPEndpoint: envOr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}, version, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown tracer provider")
		}
	}()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		s := <-sig
		logger.Info().Str("signal", s.String()).Msg("shutdown signal received")
		cancel()
	}()

	consumer := messaging.NewConsumer(brokers, topic, group, logger)
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close kafka consumer")
		}
	}()

	logger.Info().
		Strs("brokers", brokers).
		Str("topic", topic).
		Str("group", group).
		Str("version", version).
		Msg("notifier started")

	if err := consumer.Consume(ctx, notify.LogDelivery(logger)); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consumer stopped: %w", err)
	}

	logger.Info().Msg("notifier stopped")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
