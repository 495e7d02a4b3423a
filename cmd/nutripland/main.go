package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nutriplan"
	"nutriplan/ai"
	"nutriplan/ai/bedrock"
	"nutriplan/ai/groq"
	"nutriplan/ai/ollama"
	"nutriplan/catalog"
	"nutriplan/meal"
	"nutriplan/server"
	"nutriplan/slack"
	"nutriplan/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to load .env: %s", err)
	}

	var modelConfig nutriplan.ModelConfig
	if err := envdecode.Decode(&modelConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var appConfig nutriplan.AppConfig
	if err := envdecode.Decode(&appConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	if os.Getenv("DEBUG") != "" {
		nutriplan.Dump(modelConfig, appConfig)
	}

	state, err := newCatalogState(ctx, appConfig)
	if err != nil {
		slog.Error("SETUP: Failed to create catalog state", "error", err)
		return
	}
	cat, err := catalog.Load(ctx, state)
	if err != nil {
		slog.Error("SETUP: Failed to load catalog", "error", err)
		return
	}
	slog.Info("SETUP: Catalog loaded", "ingredients_count", len(cat.All()))

	selection := meal.NewSelection()

	llm, err := newModelClient(ctx, modelConfig)
	if err != nil {
		slog.Error("SETUP: Failed to create model client", "error", err)
		return
	}

	logger, cleanup, err := newExchangeLogger(modelConfig.ModelID)
	if err != nil {
		slog.Error("SETUP: Failed to create exchange logger", "error", err)
		return
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("Failed to flush exchange log", "error", err)
		}
	}()

	tracerProvider, meterProvider, otelShutdown, err := nutriplan.InitOtel(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
		return
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	searchService, err := ai.NewSearchService(ai.SearchOptions{
		Client:    llm,
		Catalog:   cat,
		Selection: selection,
		Logger:    logger,
	})
	if err != nil {
		slog.Error("SETUP: Failed to create search service", "error", err)
		return
	}

	searcher, err := ai.NewInstrumentedSearchService(
		searchService,
		tracerProvider.Tracer(nutriplan.TracerNameSearch),
		meterProvider.Meter(nutriplan.TracerNameSearch),
	)
	if err != nil {
		slog.Error("SETUP: Failed to instrument search service", "error", err)
		return
	}

	analyzer, err := ai.NewAnalyzeService(ai.AnalyzeOptions{
		Client: llm,
		Logger: logger,
	})
	if err != nil {
		slog.Error("SETUP: Failed to create analyze service", "error", err)
		return
	}

	var notifier server.Notifier
	if appConfig.SlackWebhookURL != "" {
		notifier = slack.NewClient(appConfig.SlackWebhookURL, http.DefaultClient)
	}

	srv, err := server.New(server.Options{
		Catalog:        cat,
		Selection:      selection,
		Searcher:       searcher,
		Analyzer:       analyzer,
		Notifier:       notifier,
		NotifyChannel:  appConfig.SlackChannel,
		TargetCalories: appConfig.TargetCalories,
		Goal:           nutriplan.Goal(appConfig.Goal),
	})
	if err != nil {
		slog.Error("SETUP: Failed to create server", "error", err)
		return
	}

	slog.Info("SETUP: Listening", "addr", appConfig.ListenAddr, "provider", modelConfig.Provider)
	if err := srv.Start(ctx, appConfig.ListenAddr); err != nil {
		slog.Error("Server exited with error", "error", err)
	}
}

func newCatalogState(ctx context.Context, cfg nutriplan.AppConfig) (storage.CatalogState, error) {
	switch strings.ToLower(cfg.CatalogSource) {
	case "file":
		return storage.NewFileCatalogState(cfg.CatalogPath), nil
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, err
		}
		return storage.NewS3CatalogState(s3.NewFromConfig(awsCfg), cfg.CatalogS3Bucket, cfg.CatalogS3Key), nil
	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
		}
		return storage.NewMongoCatalogState(client, cfg.MongoDatabase, cfg.MongoCollection), nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.CatalogSource)
	}
}

func newModelClient(ctx context.Context, cfg nutriplan.ModelConfig) (ai.ModelClient, error) {
	switch strings.ToLower(cfg.Provider) {
	case "groq":
		return groq.NewClient(groq.Options{
			Model:       cfg.ModelID,
			APIKey:      cfg.APIKey,
			MaxTokens:   int(cfg.MaxTokens),
			Temperature: float64(cfg.Temperature),
			HTTPClient:  http.DefaultClient,
		})
	case "ollama":
		return ollama.NewClient(ollama.Options{
			Model:       cfg.ModelID,
			Temperature: float64(cfg.Temperature),
			HTTPClient:  http.DefaultClient,
		})
	case "bedrock":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRetryMaxAttempts(5))
		if err != nil {
			return nil, err
		}
		return bedrock.NewClient(bedrockruntime.NewFromConfig(awsCfg), bedrock.Options{
			ModelID:     cfg.ModelID,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
		}), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

func newExchangeLogger(modelID string) (nutriplan.ExchangeLogger, func() error, error) {
	logFilePath := nutriplan.NewExchangeLogFilePath(modelID)
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := nutriplan.NewFileExchangeLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}
