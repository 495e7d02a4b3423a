package ai

import (
	"errors"

	"nutriplan"
)

// ErrUnnamedCandidate rejects a candidate with no name. Name is the one
// mandatory field; everything else clamps.
var ErrUnnamedCandidate = errors.New("candidate ingredient has no name")

// maxKcalPerGram is the energy density of pure fat.
const maxKcalPerGram = 9

// SanitizeIngredient turns an untrusted model-produced candidate into a
// catalogue-safe record. Total over named candidates: out-of-range values
// are clamped into physically plausible bounds, never rejected, because the
// source is a probabilistic model expected to occasionally misfire.
//
// A zero bioavailability is treated as absent and defaults to 70, the
// assumed absorption when the model omits the field. The category is passed
// through unchanged even when it is not one of the known values; the prompt
// constrains it, the sanitizer does not (an unknown category simply never
// matches a filter).
func SanitizeIngredient(c IngredientCandidate) (nutriplan.Ingredient, error) {
	if c.Name == "" {
		return nutriplan.Ingredient{}, ErrUnnamedCandidate
	}

	weight := c.WeightInGrams
	if weight <= 0 {
		weight = 100
	}

	bio := c.Bioavailability
	if bio == 0 {
		bio = 70
	}

	return nutriplan.Ingredient{
		Name:            c.Name,
		Category:        c.Category,
		Protein:         min(c.Protein, weight),
		Carbs:           min(c.Carbs, weight),
		Fibre:           min(c.Fibre, weight),
		Calories:        min(c.Calories, weight*maxKcalPerGram),
		GIIndex:         clamp(c.GIIndex, 0, 100),
		Bioavailability: clamp(bio, 0, 100),
		Unit:            c.Unit,
		WeightInGrams:   weight,
		Vitamins:        c.Vitamins,
		Minerals:        c.Minerals,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
