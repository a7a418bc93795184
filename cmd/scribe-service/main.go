package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/scribehub/scribe-be/internal/api/handler"
	"github.com/scribehub/scribe-be/internal/api/router"
	"github.com/scribehub/scribe-be/internal/config"
	"github.com/scribehub/scribe-be/internal/hub"
	"github.com/scribehub/scribe-be/internal/notify"
	"github.com/scribehub/scribe-be/internal/pipeline"
	"github.com/scribehub/scribe-be/internal/provider"
	"github.com/scribehub/scribe-be/internal/storage"
	"github.com/scribehub/scribe-be/shared/logger"
	"github.com/scribehub/scribe-be/shared/postgresql"
	"github.com/scribehub/scribe-be/shared/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("SCRIBE_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/scribe-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting scribe service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Initialize PostgreSQL client
	dbClient, err := initPostgreSQL(&cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	appLogger.Info("Database connection established")

	// Initialize the optional notification publisher
	var rabbitClient *rabbitmq.Client
	var notifier pipeline.Notifier
	if cfg.RabbitMQ.Enabled {
		rabbitClient, err = initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
		}
		notifier = notify.New(rabbitClient, appLogger.Logger)
		appLogger.Info("RabbitMQ connection established")
	} else {
		appLogger.Info("RabbitMQ disabled, job notifications will not be published")
	}

	// Stores
	db := dbClient.GetDB()
	sessions := storage.NewSessions(db)
	jobs := storage.NewJobs(db, appLogger.Logger)
	events := storage.NewEvents(db)

	// Broadcast hub
	eventHub := hub.New(cfg.Pipeline.ObserverBuffer, appLogger.Logger)

	// Pipeline runner and execution pool
	runner := pipeline.NewRunner(pipeline.RunnerDeps{
		Sessions:    sessions,
		Jobs:        jobs,
		Events:      events,
		Rewriter:    provider.NewGeminiRewriter(cfg.Providers.Gemini.APIKey, cfg.Providers.Gemini.Model, cfg.Providers.Gemini.Endpoint),
		Transcriber: provider.NewSpeechClient(cfg.Providers.Speech.ProjectID, cfg.Providers.Speech.Recognizer, cfg.Providers.Speech.Token, cfg.Providers.Speech.Language, cfg.Providers.Speech.Endpoint),
		Blobs:       provider.NewGCSBlobStore(cfg.Providers.Storage.Bucket, cfg.Providers.Storage.Token, cfg.Providers.Storage.Endpoint, cfg.Providers.Resolver.FFprobePath),
		Resolver:    provider.NewYTDLPResolver(cfg.Providers.Resolver.YTDLPPath),
		Extractor:   provider.NewFFmpegExtractor(cfg.Providers.Resolver.FFmpegPath),
		Hub:         eventHub,
		Notifier:    notifier,
		Logger:      appLogger.Logger,
	}, pipeline.Config{
		WordsPerChunk:  cfg.Pipeline.WordsPerChunk,
		SegmentSeconds: cfg.Pipeline.SegmentSeconds,
		RetryAttempts:  cfg.Pipeline.RetryAttempts,
		RetryBackoff:   cfg.Pipeline.RetryBackoff,
		StepDelay:      cfg.Pipeline.StepDelay,
	})

	pool := pipeline.NewPool(runner, cfg.Pipeline.Concurrency, cfg.Pipeline.QueueSize, appLogger.Logger)
	pool.Start(context.Background())

	service := pipeline.NewService(sessions, jobs, events, pool, appLogger.Logger)

	// Initialize router
	r := initRouter(cfg, appLogger.Logger, dbClient, service, sessions, jobs, eventHub)

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	appLogger.Info("Starting HTTP server",
		slog.String("address", addr),
		slog.Duration("read_timeout", cfg.Server.ReadTimeout),
		slog.Duration("write_timeout", cfg.Server.WriteTimeout),
	)

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed to start",
				slog.Any("error", err),
			)
			os.Exit(1)
		}
	}()

	appLogger.Info("Scribe service is running",
		slog.String("address", addr),
	)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)

	// Cleanup function to close all resources
	cleanup := func() {
		cancel()
		pool.Stop()
		if dbClient != nil {
			dbClient.Close()
		}
		if rabbitClient != nil {
			rabbitClient.Close()
		}
	}
	defer cleanup()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
		return err
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	dbConfig := &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}

	return postgresql.NewClient(dbConfig, logger)
}

// initRabbitMQ initializes the notification exchange publisher
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(
	cfg *config.Config,
	logger *slog.Logger,
	dbClient *postgresql.Client,
	service *pipeline.Service,
	sessions *storage.Sessions,
	jobs *storage.Jobs,
	eventHub *hub.Hub,
) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize handler dependencies
	handlerDeps := &handler.Dependencies{
		Logger:           logger,
		DBClient:         dbClient,
		Service:          service,
		Sessions:         sessions,
		Jobs:             jobs,
		Hub:              eventHub,
		EditPrompt:       cfg.Pipeline.EditPrompt,
		TranscribePrompt: cfg.Pipeline.TranscribePrompt,
	}

	// Setup router
	return router.SetupRouter(handlerDeps)
}
