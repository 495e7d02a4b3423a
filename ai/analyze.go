package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"nutriplan"
	"nutriplan/meal"
)

// AnalyzeService produces a structured verdict for a composed meal. It
// degrades to a canned analysis when the model is unreachable or replies
// with garbage; callers never see a model error from Analyze.
type AnalyzeService struct {
	llm    ModelClient
	logger nutriplan.ExchangeLogger
	gate   gate
}

// AnalyzeOptions carries the collaborators an AnalyzeService needs.
type AnalyzeOptions struct {
	Client ModelClient
	Logger nutriplan.ExchangeLogger
}

func NewAnalyzeService(opts AnalyzeOptions) (*AnalyzeService, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("model client is required")
	}
	if opts.Logger == nil {
		opts.Logger = &nutriplan.NoOpExchangeLogger{}
	}
	return &AnalyzeService{llm: opts.Client, logger: opts.Logger}, nil
}

// Analyze asks the model for a verdict on the entries and their computed
// stats. An empty selection or a busy gate is an error; a failed or
// unparseable model exchange is not, it yields FallbackAnalysis.
func (s *AnalyzeService) Analyze(ctx context.Context, entries []meal.SelectedIngredient, stats nutriplan.MealStats, targetCalories float64, goal nutriplan.Goal) (MealAnalysis, error) {
	if len(entries) == 0 {
		return MealAnalysis{}, fmt.Errorf("nothing selected to analyze")
	}

	if !s.gate.acquire() {
		return MealAnalysis{}, ErrBusy
	}
	defer s.gate.release()

	userPrompt := AnalysisUserPrompt(entries, stats, targetCalories, goal)
	raw, err := s.llm.Invoke(ctx, AnalysisSystemPrompt(targetCalories, goal), userPrompt)

	log := nutriplan.ExchangeLog{
		Feature:    "analyze",
		Timestamp:  time.Now(),
		ModelInput: userPrompt,
	}
	if raw != nil {
		log.ModelOutput = string(raw)
	}
	if err != nil {
		log.Error = err.Error()
	}
	s.logExchange(log)

	if err != nil {
		slog.Warn("ANALYZE: model call failed, using fallback", "error", err)
		return FallbackAnalysis(), nil
	}

	var analysis MealAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		slog.Warn("ANALYZE: unparseable model reply, using fallback", "error", err)
		return FallbackAnalysis(), nil
	}
	return analysis, nil
}

func (s *AnalyzeService) logExchange(log nutriplan.ExchangeLog) {
	if s.logger != nil {
		if err := s.logger.LogExchange(log); err != nil {
			slog.Error("Failed to log model exchange", "error", err, "feature", log.Feature)
		}
	}
}
