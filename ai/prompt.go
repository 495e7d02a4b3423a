package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"nutriplan"
	"nutriplan/meal"
)

// searchResponseSchema describes the JSON union the search prompt demands.
// It is marshalled into the system prompt so the model sees the exact shape.
func searchResponseSchema() *jsonschema.Schema {
	lo := 0.0
	hi := 100.0

	categories := make([]any, 0, len(nutriplan.Categories()))
	for _, c := range nutriplan.Categories() {
		categories = append(categories, string(c))
	}

	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"intent": {
				Type: "string",
				Enum: []any{
					string(IntentFindIngredient),
					string(IntentGeneralQA),
					string(IntentMealSetup),
				},
			},
			"ingredientData": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"name":            {Type: "string"},
					"category":        {Type: "string", Enum: categories},
					"protein":         {Type: "number", Minimum: &lo},
					"carbs":           {Type: "number", Minimum: &lo},
					"fibre":           {Type: "number", Minimum: &lo},
					"calories":        {Type: "number", Minimum: &lo},
					"weightInGrams":   {Type: "number"},
					"giIndex":         {Type: "number", Minimum: &lo, Maximum: &hi},
					"bioavailability": {Type: "number", Minimum: &lo, Maximum: &hi},
					"unit":            {Type: "string"},
					"vitamins":        {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
					"minerals":        {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
				},
				Required: []string{"name"},
			},
			"qaAnswer": {Type: "string"},
			"mealSetup": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"ingredients": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
					"reasoning":   {Type: "string"},
				},
				Required: []string{"ingredients"},
			},
		},
		Required: []string{"intent"},
	}
}

// analysisResponseSchema describes the structured meal analysis object.
func analysisResponseSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"healthNote":           {Type: "string"},
			"recipeSuggestion":     {Type: "string"},
			"cookingSteps":         {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
			"weightLossSuggestion": {Type: "string"},
			"isBalanced":           {Type: "boolean"},
			"synergyNotes":         {Type: "string"},
			"smartSwaps": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"remove": {Type: "string"},
						"add":    {Type: "string"},
						"reason": {Type: "string"},
					},
					Required: []string{"remove", "add", "reason"},
				},
			},
		},
		Required: []string{"healthNote", "recipeSuggestion", "isBalanced"},
	}
}

func schemaJSON(s *jsonschema.Schema) string {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// SearchSystemPrompt instructs the model to classify a free-text query and
// answer with the SearchResult union.
func SearchSystemPrompt() string {
	names := make([]string, 0, len(nutriplan.Categories()))
	for _, c := range nutriplan.Categories() {
		names = append(names, string(c))
	}

	return fmt.Sprintf(`You are a strict Nutritional Database Expert.
When intent is FIND_INGREDIENT:
1. Return realistic values PER 100g of the food.
2. Never return calories > 900 per 100g.
3. Use standard Indian/Global food database values.
4. Bioavailability guidance: Meat 95%%, Eggs 97%%, Legumes 70%%, Grains 60%%.
5. "category" must be one of: %s.

When the user asks a question rather than naming a food, use GENERAL_QA and
put a concise answer in "qaAnswer". When the user asks for a whole meal
(e.g. "plan me a 500kcal meal"), use MEAL_SETUP and list ingredient names
to select, preferring names the caller says it already knows.

Respond with a single JSON object matching this schema:
%s`, strings.Join(names, ", "), schemaJSON(searchResponseSchema()))
}

// SearchUserPrompt pairs the raw query with the names the catalogue already
// knows so MEAL_SETUP suggestions can be matched locally.
func SearchUserPrompt(query string, knownNames []string) string {
	return fmt.Sprintf("Query: %s\nKnown ingredients: %s", query, strings.Join(knownNames, ", "))
}

// AnalysisSystemPrompt frames the nutritionist role for a goal and calorie
// target.
func AnalysisSystemPrompt(targetCalories float64, goal nutriplan.Goal) string {
	return fmt.Sprintf(`You are an elite Indian Metabolic Nutritionist.
Goal: %s.
Target Calories: %.0f kcal for this plate.
Instructions: Analyze metabolic synergy, verify if the meal fits the calorie target, and provide cooking advice.
The "weightLossSuggestion" field must carry advice specific to the %.0f kcal target and the %s goal.

Respond with a single JSON object matching this schema:
%s`, goal, targetCalories, targetCalories, goal, schemaJSON(analysisResponseSchema()))
}

// AnalysisUserPrompt renders the selection with each entry converted to
// grams (quantity times reference weight) plus the computed totals.
func AnalysisUserPrompt(entries []meal.SelectedIngredient, stats nutriplan.MealStats, targetCalories float64, goal nutriplan.Goal) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		weight := e.WeightInGrams
		if weight <= 0 {
			weight = 100
		}
		parts = append(parts, fmt.Sprintf("%.0fg %s", e.Quantity*weight, e.Name))
	}

	return fmt.Sprintf(`Analyze this meal:
Goal: %s
Target: %.0f kcal
Ingredients: %s
Current Stats: %.0f kcal, %.1fg Protein.`,
		goal, targetCalories, strings.Join(parts, ", "), stats.TotalCalories, stats.TotalProtein)
}
