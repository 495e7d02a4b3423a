package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"nutriplan"
	"nutriplan/catalog"
	"nutriplan/meal"
)

// gate admits one in-flight model call at a time. A second caller is
// refused rather than queued so a slow model cannot pile up requests.
type gate struct {
	busy atomic.Bool
}

func (g *gate) acquire() bool { return g.busy.CompareAndSwap(false, true) }
func (g *gate) release()      { g.busy.Store(false) }

// Outcome reports what a search applied to the catalogue and selection so a
// caller can render it without re-deriving state.
type Outcome struct {
	Applied         bool                  `json:"applied"`
	Intent          SearchIntent          `json:"intent,omitempty"`
	ShowAnswer      bool                  `json:"showAnswer"`
	AnswerTitle     string                `json:"answerTitle,omitempty"`
	AnswerBody      string                `json:"answerBody,omitempty"`
	ActiveCategory  *nutriplan.Category   `json:"activeCategory,omitempty"`
	AddedIngredient *nutriplan.Ingredient `json:"addedIngredient,omitempty"`
}

// SearchService routes a free-text query through the model and applies the
// classified result to the catalogue and selection.
type SearchService struct {
	llm       ModelClient
	catalog   *catalog.Catalog
	selection *meal.Selection
	logger    nutriplan.ExchangeLogger
	gate      gate
}

// SearchOptions carries the collaborators a SearchService needs.
type SearchOptions struct {
	Client    ModelClient
	Catalog   *catalog.Catalog
	Selection *meal.Selection
	Logger    nutriplan.ExchangeLogger
}

func NewSearchService(opts SearchOptions) (*SearchService, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("model client is required")
	}
	if opts.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if opts.Selection == nil {
		return nil, fmt.Errorf("selection is required")
	}
	if opts.Logger == nil {
		opts.Logger = &nutriplan.NoOpExchangeLogger{}
	}
	return &SearchService{
		llm:       opts.Client,
		catalog:   opts.Catalog,
		selection: opts.Selection,
		logger:    opts.Logger,
	}, nil
}

// Search classifies query and applies the result. A blank query is a no-op.
// A malformed model reply is dropped silently; only transport failures and
// the busy gate surface as errors.
func (s *SearchService) Search(ctx context.Context, query string) (Outcome, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Outcome{}, nil
	}

	if !s.gate.acquire() {
		return Outcome{}, ErrBusy
	}
	defer s.gate.release()

	userPrompt := SearchUserPrompt(query, s.catalog.Names())
	raw, err := s.llm.Invoke(ctx, SearchSystemPrompt(), userPrompt)

	log := nutriplan.ExchangeLog{
		Feature:    "search",
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
		return Outcome{}, fmt.Errorf("search model call: %w", err)
	}

	var result SearchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		slog.Warn("SEARCH: dropping unparseable model reply", "error", err)
		return Outcome{}, nil
	}

	return s.apply(result), nil
}

func (s *SearchService) logExchange(log nutriplan.ExchangeLog) {
	if s.logger != nil {
		if err := s.logger.LogExchange(log); err != nil {
			slog.Error("Failed to log model exchange", "error", err, "feature", log.Feature)
		}
	}
}

// apply mutates the catalogue and selection according to the classified
// intent. Replies that fail their intent's preconditions are dropped.
func (s *SearchService) apply(result SearchResult) Outcome {
	switch result.Intent {
	case IntentFindIngredient:
		return s.applyFound(result.IngredientData)
	case IntentGeneralQA:
		if strings.TrimSpace(result.QAAnswer) == "" {
			slog.Warn("SEARCH: GENERAL_QA reply with empty answer dropped")
			return Outcome{}
		}
		return Outcome{
			Applied:     true,
			Intent:      IntentGeneralQA,
			ShowAnswer:  true,
			AnswerTitle: "Expert Advice",
			AnswerBody:  result.QAAnswer,
		}
	case IntentMealSetup:
		return s.applySetup(result.MealSetup)
	default:
		slog.Warn("SEARCH: unknown intent dropped", "intent", result.Intent)
		return Outcome{}
	}
}

func (s *SearchService) applyFound(candidate *IngredientCandidate) Outcome {
	if candidate == nil {
		slog.Warn("SEARCH: FIND_INGREDIENT reply without ingredient data dropped")
		return Outcome{}
	}

	// Values are normalized to a 100g reference serving regardless of what
	// the model claimed the weight was.
	candidate.WeightInGrams = 100
	candidate.Unit = "100g"

	rec, err := SanitizeIngredient(*candidate)
	if err != nil {
		slog.Warn("SEARCH: discovered ingredient rejected", "error", err)
		return Outcome{}
	}
	rec.ID = nutriplan.DiscoveredIDPrefix + uuid.NewString()

	if !rec.IsValid() {
		slog.Warn("SEARCH: discovered ingredient has implausible values", "name", rec.Name)
	}

	s.catalog.AppendDiscovered(rec)
	s.selection.SetQuantity(rec, 1)

	outcome := Outcome{
		Applied:         true,
		Intent:          IntentFindIngredient,
		AddedIngredient: &rec,
	}
	if rec.Category != "" {
		category := rec.Category
		outcome.ActiveCategory = &category
	}
	return outcome
}

func (s *SearchService) applySetup(setup *MealSetup) Outcome {
	if setup == nil {
		slog.Warn("SEARCH: MEAL_SETUP reply without payload dropped")
		return Outcome{}
	}

	for _, name := range setup.Ingredients {
		if strings.TrimSpace(name) == "" {
			continue
		}
		match, ok := s.catalog.FirstMatch(name)
		if !ok {
			continue
		}
		s.selection.SetQuantity(match, 1)
	}

	reasoning := strings.TrimSpace(setup.Reasoning)
	if reasoning == "" {
		reasoning = "Balanced meal plan generated."
	}

	return Outcome{
		Applied:     true,
		Intent:      IntentMealSetup,
		ShowAnswer:  true,
		AnswerTitle: "Smart Setup",
		AnswerBody:  reasoning,
	}
}
