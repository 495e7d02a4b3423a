package meal

import (
	"math"

	"nutriplan"
)

// ComputeStats turns a selection into meal totals. Pure: the result depends
// only on the entries' contents, not their order.
//
// The two averages are weighted differently on purpose. GI is weighted by
// the mass each entry contributes, so a small high-GI garnish cannot
// dominate the average. Bioavailability is weighted by unit count, treating
// absorption as a per-serving property.
func ComputeStats(entries []SelectedIngredient) nutriplan.MealStats {
	var stats nutriplan.MealStats
	if len(entries) == 0 {
		return stats
	}

	var totalWeight, weightedGI float64
	var totalUnits, weightedBio float64

	for _, e := range entries {
		qty := nonNegative(e.Quantity)
		weight := nonNegative(e.WeightInGrams)

		stats.TotalProtein += nonNegative(e.Protein) * qty
		stats.TotalCarbs += nonNegative(e.Carbs) * qty
		stats.TotalFibre += nonNegative(e.Fibre) * qty
		stats.TotalCalories += nonNegative(e.Calories) * qty

		totalWeight += weight * qty
		weightedGI += nonNegative(e.GIIndex) * weight * qty

		totalUnits += qty
		weightedBio += nonNegative(e.Bioavailability) * qty
	}

	if totalWeight > 0 {
		stats.AvgGI = weightedGI / totalWeight
	}
	if totalUnits > 0 {
		stats.AvgBioavailability = weightedBio / totalUnits
	}
	return stats
}

// nonNegative coerces NaN, infinities, and negative values to zero so a bad
// record can never crash or distort the aggregation. The sanitizer should
// make this unreachable for AI records.
func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
