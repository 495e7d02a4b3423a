package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"

	"nutriplan"
	"nutriplan/ai"
	"nutriplan/ai/bedrock"
	"nutriplan/catalog"
	"nutriplan/meal"
	"nutriplan/storage"
)

// Params is one invocation: a search query plus an optional meal to score.
// Selection maps ingredient IDs to quantities.
type Params struct {
	Query          string             `json:"query"`
	Selection      map[string]float64 `json:"selection,omitempty"`
	TargetCalories float64            `json:"targetCalories,omitempty"`
	Goal           string             `json:"goal,omitempty"`
}

type Results struct {
	Search   *ai.Outcome         `json:"search,omitempty"`
	Stats    nutriplan.MealStats `json:"stats"`
	Analysis *ai.MealAnalysis    `json:"analysis,omitempty"`
}

func main() {
	fn := func(ctx context.Context, params Params) (Results, error) {
		var modelConfig nutriplan.ModelConfig
		if err := envdecode.Decode(&modelConfig); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}

		var appConfig nutriplan.AppConfig
		if err := envdecode.Decode(&appConfig); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}

		s3Bucket := os.Getenv("CATALOG_S3_BUCKET")
		s3Key := os.Getenv("CATALOG_S3_KEY")
		if s3Bucket == "" || s3Key == "" {
			return Results{}, fmt.Errorf("missing S3 config: CATALOG_S3_BUCKET and CATALOG_S3_KEY must be set")
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRetryMaxAttempts(5))
		if err != nil {
			return Results{}, fmt.Errorf("failed to load AWS config: %w", err)
		}

		state := storage.NewS3CatalogState(s3.NewFromConfig(awsCfg), s3Bucket, s3Key)
		cat, err := catalog.Load(ctx, state)
		if err != nil {
			slog.Error("SETUP: Failed to load catalog from S3", "error", err)
			return Results{}, err
		}
		slog.Info("SETUP: Catalog loaded from S3", "ingredients_count", len(cat.All()))

		selection := meal.NewSelection()
		for id, qty := range params.Selection {
			ing, ok := cat.FindByID(id)
			if !ok {
				slog.Warn("SETUP: Unknown ingredient in selection ignored", "id", id)
				continue
			}
			selection.SetQuantity(ing, qty)
		}

		llm := bedrock.NewClient(bedrockruntime.NewFromConfig(awsCfg), bedrock.Options{
			ModelID:     modelConfig.ModelID,
			MaxTokens:   modelConfig.MaxTokens,
			Temperature: modelConfig.Temperature,
			TopP:        modelConfig.TopP,
		})
		logger := nutriplan.NewStdoutExchangeLogger()

		var results Results

		if params.Query != "" {
			searcher, err := ai.NewSearchService(ai.SearchOptions{
				Client:    llm,
				Catalog:   cat,
				Selection: selection,
				Logger:    logger,
			})
			if err != nil {
				return Results{}, err
			}
			outcome, err := searcher.Search(ctx, params.Query)
			if err != nil {
				slog.Error("RESULT: Search failed", "error", err)
				return Results{}, err
			}
			results.Search = &outcome
		}

		results.Stats = selection.Stats()

		if len(selection.Entries()) > 0 {
			target := params.TargetCalories
			if target <= 0 {
				target = appConfig.TargetCalories
			}
			goal := nutriplan.Goal(params.Goal)
			if goal == "" {
				goal = nutriplan.Goal(appConfig.Goal)
			}

			analyzer, err := ai.NewAnalyzeService(ai.AnalyzeOptions{Client: llm, Logger: logger})
			if err != nil {
				return Results{}, err
			}
			analysis, err := analyzer.Analyze(ctx, selection.Entries(), results.Stats, target, goal)
			if err != nil {
				slog.Error("RESULT: Analysis failed", "error", err)
				return Results{}, err
			}
			results.Analysis = &analysis
		}

		return results, nil
	}

	lambda.Start(fn)
}
