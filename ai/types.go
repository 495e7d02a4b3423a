// Package ai is the boundary to the hosted language model: prompt
// construction, response parsing, candidate sanitizing, and the routing of
// validated responses into the catalogue and selection.
package ai

import (
	"context"
	"encoding/json"
	"errors"

	"nutriplan"
)

// ModelClient invokes the hosted model with a system and user prompt and
// returns the raw JSON payload it produced.
type ModelClient interface {
	Invoke(ctx context.Context, systemPrompt, userPrompt string) (json.RawMessage, error)
}

// ErrBusy is returned when a request for the same feature is already in
// flight. Callers refuse the new request outright; nothing is queued.
var ErrBusy = errors.New("a request is already in flight")

// SearchIntent discriminates the search response union.
type SearchIntent string

const (
	IntentFindIngredient SearchIntent = "FIND_INGREDIENT"
	IntentGeneralQA      SearchIntent = "GENERAL_QA"
	IntentMealSetup      SearchIntent = "MEAL_SETUP"
)

// IngredientCandidate is an ingredient record as produced by the model.
// Untrusted: every numeric field may be absent or out of range and must go
// through SanitizeIngredient before touching the catalogue.
type IngredientCandidate struct {
	Name            string             `json:"name"`
	Category        nutriplan.Category `json:"category,omitempty"`
	Protein         float64            `json:"protein"`
	Carbs           float64            `json:"carbs"`
	Fibre           float64            `json:"fibre"`
	Bioavailability float64            `json:"bioavailability"`
	Calories        float64            `json:"calories"`
	Unit            string             `json:"unit"`
	WeightInGrams   float64            `json:"weightInGrams"`
	GIIndex         float64            `json:"giIndex"`
	Vitamins        []string           `json:"vitamins"`
	Minerals        []string           `json:"minerals"`
}

// MealSetup is the bulk-select payload: ingredient names to match against
// the catalogue plus the model's reasoning.
type MealSetup struct {
	Ingredients []string `json:"ingredients"`
	Reasoning   string   `json:"reasoning"`
}

// SearchResult is the tagged union a search exchange produces. Exactly one
// payload is expected for a given intent; the router drops anything else.
type SearchResult struct {
	Intent         SearchIntent         `json:"intent"`
	IngredientData *IngredientCandidate `json:"ingredientData,omitempty"`
	QAAnswer       string               `json:"qaAnswer,omitempty"`
	MealSetup      *MealSetup           `json:"mealSetup,omitempty"`
}

// SmartSwap is one suggested ingredient replacement in an analysis.
type SmartSwap struct {
	Remove string `json:"remove"`
	Add    string `json:"add"`
	Reason string `json:"reason"`
}

// MealAnalysis is the structured verdict the model returns for a composed
// meal. GoalSuggestion keeps its historical wire name.
type MealAnalysis struct {
	HealthNote       string      `json:"healthNote"`
	RecipeSuggestion string      `json:"recipeSuggestion"`
	CookingSteps     []string    `json:"cookingSteps"`
	GoalSuggestion   string      `json:"weightLossSuggestion"`
	IsBalanced       bool        `json:"isBalanced"`
	SynergyNotes     string      `json:"synergyNotes"`
	SmartSwaps       []SmartSwap `json:"smartSwaps"`
}

// FallbackAnalysis is the fixed degraded result substituted when the model
// call fails. The user sees content, never an error dialog.
func FallbackAnalysis() MealAnalysis {
	return MealAnalysis{
		HealthNote:       "Metabolic engine temporarily offline.",
		RecipeSuggestion: "Healthy Indian Meal",
		CookingSteps:     []string{"Combine ingredients", "Cook thoroughly"},
		GoalSuggestion:   "Focus on portion control.",
		IsBalanced:       false,
		SynergyNotes:     "N/A",
		SmartSwaps:       []SmartSwap{},
	}
}
