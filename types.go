package nutriplan

import (
	"context"
	"math"
	"net/http"
	"strings"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type SlackClient interface {
	PostMessage(ctx context.Context, channel string, message string) error
}

// Category is the closed set of ingredient categories. The same values are
// used for catalogue filtering, quoted to the model in the search prompt,
// and returned to the display layer.
type Category string

const (
	CategoryVegetables Category = "Vegetables"
	CategoryGrains     Category = "Grains"
	CategoryDals       Category = "Dals/Legumes"
	CategoryFruits     Category = "Fruits"
	CategoryDairy      Category = "Dairy"
	CategoryNutsSeeds  Category = "Nuts & Seeds"
	CategoryOilsFats   Category = "Oils & Fats"
	CategorySpices     Category = "Spices"
	CategoryProteins   Category = "Proteins (Egg/Meat/Plant)"
	CategoryFermented  Category = "Fermented Foods"
)

// Categories returns every known category in display order.
func Categories() []Category {
	return []Category{
		CategoryVegetables,
		CategoryGrains,
		CategoryDals,
		CategoryFruits,
		CategoryDairy,
		CategoryNutsSeeds,
		CategoryOilsFats,
		CategorySpices,
		CategoryProteins,
		CategoryFermented,
	}
}

// Goal is a dietary objective. It only changes how the analysis prompt is
// phrased, never any arithmetic.
type Goal string

const (
	GoalWeightLoss  Goal = "WEIGHT_LOSS"
	GoalMuscleGain  Goal = "MUSCLE_GAIN"
	GoalMaintenance Goal = "MAINTENANCE"
	GoalDiabetic    Goal = "DIABETIC_FRIENDLY"
)

// Ingredient is one food item. Nutrient fields are measured against one
// reference serving of WeightInGrams grams, not per gram.
type Ingredient struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Category        Category `json:"category"`
	Protein         float64  `json:"protein"`
	Carbs           float64  `json:"carbs"`
	Fibre           float64  `json:"fibre"`
	Bioavailability float64  `json:"bioavailability"`
	Calories        float64  `json:"calories"`
	Unit            string   `json:"unit"`
	WeightInGrams   float64  `json:"weightInGrams"`
	GIIndex         float64  `json:"giIndex"`
	Vitamins        []string `json:"vitamins"`
	Minerals        []string `json:"minerals"`
}

// DiscoveredIDPrefix marks records added to the catalogue from a model
// response rather than the seed.
const DiscoveredIDPrefix = "custom-"

// Discovered reports whether the record came from an AI lookup.
func (i Ingredient) Discovered() bool {
	return strings.HasPrefix(i.ID, DiscoveredIDPrefix)
}

// IsValid checks the physical plausibility invariants: no macronutrient mass
// above the serving mass, no energy density above pure fat (9 kcal/g), and
// GI/bioavailability within 0..100.
func (i Ingredient) IsValid() bool {
	if i.ID == "" || i.Name == "" {
		return false
	}
	if !(i.WeightInGrams > 0) || math.IsInf(i.WeightInGrams, 0) || math.IsNaN(i.WeightInGrams) {
		return false
	}
	for _, v := range []float64{i.Protein, i.Carbs, i.Fibre} {
		if v < 0 || v > i.WeightInGrams {
			return false
		}
	}
	if i.Calories < 0 || i.Calories > i.WeightInGrams*9 {
		return false
	}
	if i.GIIndex < 0 || i.GIIndex > 100 {
		return false
	}
	if i.Bioavailability < 0 || i.Bioavailability > 100 {
		return false
	}
	return true
}

// MealStats are the derived totals for a selection. Always recomputed,
// never stored.
type MealStats struct {
	TotalProtein       float64 `json:"totalProtein"`
	TotalCarbs         float64 `json:"totalCarbs"`
	TotalFibre         float64 `json:"totalFibre"`
	TotalCalories      float64 `json:"totalCalories"`
	AvgBioavailability float64 `json:"avgBioavailability"`
	AvgGI              float64 `json:"avgGI"`
}
