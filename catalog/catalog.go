// Package catalog holds the ingredient catalogue: an immutable base list
// seeded at startup plus a session-scoped list of records discovered through
// AI search.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"nutriplan"
	"nutriplan/storage"
)

// ErrEmptyQuery is returned by SearchByName for a blank query; the caller
// decides the fallback (the UI falls back to the active category view).
var ErrEmptyQuery = errors.New("search query is empty")

type Catalog struct {
	mu         sync.RWMutex
	base       []nutriplan.Ingredient
	discovered []nutriplan.Ingredient
}

// New creates a catalogue over an already-decoded base list.
func New(base []nutriplan.Ingredient) *Catalog {
	return &Catalog{base: base}
}

type seedFile struct {
	Ingredients []nutriplan.Ingredient `json:"ingredients"`
}

// Load reads and decodes the base catalogue from a seed source. Unlike
// AI-discovered records the seed is trusted, so a malformed seed is a
// startup failure rather than something to clamp.
func Load(ctx context.Context, state storage.CatalogState) (*Catalog, error) {
	raw, err := state.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("read catalog seed: %w", err)
	}

	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("decode catalog seed: %w", err)
	}

	for i := range seed.Ingredients {
		ing := &seed.Ingredients[i]
		if ing.ID == "" || ing.Name == "" {
			return nil, fmt.Errorf("catalog seed record %d: missing id or name", i)
		}
		if ing.WeightInGrams <= 0 {
			ing.WeightInGrams = 100
		}
		if ing.Unit == "" {
			ing.Unit = "100g"
		}
	}

	return New(seed.Ingredients), nil
}

// All returns base records followed by discovered records, in discovery
// order. Duplicates are permitted; identifiers disambiguate them.
func (c *Catalog) All() []nutriplan.Ingredient {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all := make([]nutriplan.Ingredient, 0, len(c.base)+len(c.discovered))
	all = append(all, c.base...)
	all = append(all, c.discovered...)
	return all
}

// Names returns every ingredient name, used to tell the model what the
// catalogue already knows.
func (c *Catalog) Names() []string {
	all := c.All()
	names := make([]string, 0, len(all))
	for _, ing := range all {
		if ing.Name == "" {
			names = append(names, "Unknown")
			continue
		}
		names = append(names, ing.Name)
	}
	return names
}

// SearchByName returns records whose name contains the query,
// case-insensitively, in catalogue order.
func (c *Catalog) SearchByName(query string) ([]nutriplan.Ingredient, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, ErrEmptyQuery
	}

	var matches []nutriplan.Ingredient
	for _, ing := range c.All() {
		if strings.Contains(strings.ToLower(ing.Name), q) {
			matches = append(matches, ing)
		}
	}
	return matches, nil
}

// FirstMatch returns the first record whose name contains the given name,
// case-insensitively.
func (c *Catalog) FirstMatch(name string) (nutriplan.Ingredient, bool) {
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return nutriplan.Ingredient{}, false
	}
	for _, ing := range c.All() {
		if strings.Contains(strings.ToLower(ing.Name), q) {
			return ing, true
		}
	}
	return nutriplan.Ingredient{}, false
}

// FilterByCategory returns records with exactly the given category.
func (c *Catalog) FilterByCategory(category nutriplan.Category) []nutriplan.Ingredient {
	var matches []nutriplan.Ingredient
	for _, ing := range c.All() {
		if ing.Category == category {
			matches = append(matches, ing)
		}
	}
	return matches
}

// FindByID returns the record with the given identifier.
func (c *Catalog) FindByID(id string) (nutriplan.Ingredient, bool) {
	for _, ing := range c.All() {
		if ing.ID == id {
			return ing, true
		}
	}
	return nutriplan.Ingredient{}, false
}

// AppendDiscovered adds one sanitized record to the session-scoped list.
// Existing entries are never mutated or removed. Deliberately not
// idempotent: two lookups yielding equal content produce two entries.
func (c *Catalog) AppendDiscovered(rec nutriplan.Ingredient) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discovered = append(c.discovered, rec)
}

// DiscoveredCount reports how many records this session added.
func (c *Catalog) DiscoveredCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.discovered)
}
