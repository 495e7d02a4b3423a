// Package meal holds the session's selection state and the pure nutrient
// aggregation over it.
package meal

import (
	"sync"

	"nutriplan"
)

// SelectedIngredient pairs an ingredient snapshot with a quantity. Quantity
// is a multiplier on the reference-serving values, not a gram amount; the
// display layer converts grams with quantity = grams / weightInGrams before
// it ever reaches this package.
type SelectedIngredient struct {
	nutriplan.Ingredient
	Quantity float64 `json:"quantity"`
}

// Selection is the mutable set of chosen ingredients, kept in insertion
// order. Each entry holds its own copy of the ingredient captured when it
// was first selected; later catalogue changes do not leak in.
type Selection struct {
	mu      sync.RWMutex
	entries []SelectedIngredient
}

func NewSelection() *Selection {
	return &Selection{}
}

// SetQuantity sets the absolute quantity for an ingredient. A quantity of
// zero or less removes the entry (or is a no-op when absent). Increments
// are caller-composed: read Quantity, add, set.
func (s *Selection) SetQuantity(ing nutriplan.Ingredient, quantity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		for i, e := range s.entries {
			if e.ID == ing.ID {
				s.entries = append(s.entries[:i], s.entries[i+1:]...)
				return
			}
		}
		return
	}

	for i, e := range s.entries {
		if e.ID == ing.ID {
			s.entries[i].Quantity = quantity
			return
		}
	}
	s.entries = append(s.entries, SelectedIngredient{Ingredient: ing, Quantity: quantity})
}

// Quantity returns the current quantity for an ingredient id, zero when
// absent.
func (s *Selection) Quantity(id string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e.Quantity
		}
	}
	return 0
}

// Entries returns a copy of the selection in insertion order.
func (s *Selection) Entries() []SelectedIngredient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SelectedIngredient, len(s.entries))
	copy(out, s.entries)
	return out
}

// Clear empties the selection unconditionally.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

// TotalUnits is the sum of all quantities. Display only.
func (s *Selection) TotalUnits() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total float64
	for _, e := range s.entries {
		total += e.Quantity
	}
	return total
}

// Stats recomputes the meal totals from the current selection.
func (s *Selection) Stats() nutriplan.MealStats {
	return ComputeStats(s.Entries())
}
