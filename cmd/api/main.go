package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"promptmart/internal/authz"
	"promptmart/internal/config"
	"promptmart/internal/credential"
	"promptmart/internal/database"
	"promptmart/internal/handler"
	"promptmart/internal/messaging"
	"promptmart/internal/notify"
	"promptmart/internal/repository"
	"promptmart/internal/router"
	"promptmart/internal/service"
	"promptmart/internal/storage"
	"promptmart/internal/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger, "api")
	logger.Info().Str("version", version).Msg("starting promptmart API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.Telemetry, version, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(cfg.Telemetry.ServiceName, version)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	metrics, err := telemetry.NewGlobalMetrics()
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool, logger)
	categoryRepo := repository.NewCategoryRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	reviewRepo := repository.NewReviewRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	notificationRepo := repository.NewNotificationRepository(pool, logger)

	authorizer, err := authz.New()
	if err != nil {
		return fmt.Errorf("failed to initialize authorizer: %w", err)
	}

	credentials := credential.NewService(credential.Config{
		AccessSecret:  cfg.Auth.JWTSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		AccessTTL:     cfg.Auth.AccessTokenTTL,
		RefreshTTL:    cfg.Auth.RefreshTokenTTL,
		BcryptCost:    cfg.Auth.BcryptCost,
	})

	// Uploaded payment proofs and PromptPay QR images
	store, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize upload storage: %w", err)
	}

	// Notification events are published only when brokers are configured
	var publisher messaging.Publisher
	var producer *messaging.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = messaging.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.NotificationTopic, logger)
		publisher = producer
	} else {
		logger.Info().Msg("kafka brokers not configured, notification events will not be published")
	}

	dispatcher := notify.NewDispatcher(notificationRepo, publisher, metrics, notify.DefaultOptions(), logger)
	dispatcher.Start()

	// Initialize services
	identityService := service.NewIdentityService(userRepo, credentials, store, authorizer, logger)
	catalogService := service.NewCatalogService(categoryRepo, productRepo, reviewRepo, authorizer, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, userRepo, authorizer, dispatcher, store, metrics, logger)
	notificationService := service.NewNotificationService(notificationRepo, authorizer, logger)

	// Initialize HTTP handlers
	maxUpload := int64(cfg.Server.MaxUploadMB) << 20
	handlers := router.Handlers{
		User:         handler.NewUserHandler(identityService, maxUpload, logger),
		Catalog:      handler.NewCatalogHandler(catalogService, logger),
		Order:        handler.NewOrderHandler(orderService, maxUpload, logger),
		Notification: handler.NewNotificationHandler(notificationService, logger),
	}

	// Initialize router
	mux := router.New(handlers, identityService, router.Options{
		AllowedOrigin: cfg.Server.AllowedOrigin,
		Metrics:       metricsHandler,
		UploadDir:     cfg.Storage.LocalDir,
	}, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var runErr error

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")
	}

	// Create a context with timeout for shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server gracefully")
		// Force close
		if closeErr := server.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close server")
		}
		if runErr == nil {
			runErr = fmt.Errorf("server shutdown failed: %w", err)
		}
	}

	// Drain queued notifications before their transport goes away
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to drain notification queue")
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close kafka producer")
		}
	}
	if err := shutdownMeter(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown meter provider")
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown tracer provider")
	}

	logger.Info().Msg("server shutdown completed")
	return runErr
}
