package ai_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"nutriplan"
	"nutriplan/ai"
	"nutriplan/catalog"
	"nutriplan/meal"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

type mockModelClient struct {
	response   json.RawMessage
	err        error
	invokeFunc func(ctx context.Context, systemPrompt, userPrompt string) (json.RawMessage, error)
	calls      int
}

func (m *mockModelClient) Invoke(ctx context.Context, systemPrompt, userPrompt string) (json.RawMessage, error) {
	m.calls++
	if m.invokeFunc != nil {
		return m.invokeFunc(ctx, systemPrompt, userPrompt)
	}
	return m.response, m.err
}

func newSearchService(t *testing.T, client ai.ModelClient) (*ai.SearchService, *catalog.Catalog, *meal.Selection) {
	t.Helper()
	cat := catalog.New([]nutriplan.Ingredient{
		{ID: "v1", Name: "Spinach", Category: nutriplan.CategoryVegetables, Calories: 23, WeightInGrams: 100, Unit: "100g"},
		{ID: "g1", Name: "Brown Rice", Category: nutriplan.CategoryGrains, Calories: 110, WeightInGrams: 50, Unit: "50g"},
	})
	selection := meal.NewSelection()
	svc, err := ai.NewSearchService(ai.SearchOptions{
		Client:    client,
		Catalog:   cat,
		Selection: selection,
	})
	must.NoError(t, err)
	return svc, cat, selection
}

func TestSearchFindIngredient(t *testing.T) {
	client := &mockModelClient{
		response: json.RawMessage(`{
			"intent": "FIND_INGREDIENT",
			"ingredientData": {
				"name": "Paneer",
				"category": "Dairy",
				"protein": 18, "carbs": 4, "fibre": 0,
				"calories": 296, "weightInGrams": 250,
				"giIndex": 27, "bioavailability": 85
			}
		}`),
	}
	svc, cat, selection := newSearchService(t, client)

	outcome, err := svc.Search(context.Background(), "paneer")
	must.NoError(t, err)

	must.True(t, outcome.Applied)
	should.Equal(t, ai.IntentFindIngredient, outcome.Intent)
	should.False(t, outcome.ShowAnswer)

	must.NotNil(t, outcome.AddedIngredient)
	rec := *outcome.AddedIngredient
	should.True(t, strings.HasPrefix(rec.ID, nutriplan.DiscoveredIDPrefix))
	should.Equal(t, "Paneer", rec.Name)
	should.Equal(t, 100.0, rec.WeightInGrams, "discovered records are normalized to 100g")
	should.Equal(t, "100g", rec.Unit)

	must.NotNil(t, outcome.ActiveCategory)
	should.Equal(t, nutriplan.CategoryDairy, *outcome.ActiveCategory)

	should.Equal(t, 1, cat.DiscoveredCount())
	should.Equal(t, 1.0, selection.Quantity(rec.ID))
}

func TestSearchFindIngredientClampsValues(t *testing.T) {
	client := &mockModelClient{
		response: json.RawMessage(`{
			"intent": "FIND_INGREDIENT",
			"ingredientData": {"name": "Ghee", "calories": 1200, "giIndex": 150}
		}`),
	}
	svc, _, _ := newSearchService(t, client)

	outcome, err := svc.Search(context.Background(), "ghee")
	must.NoError(t, err)
	must.NotNil(t, outcome.AddedIngredient)
	should.Equal(t, 900.0, outcome.AddedIngredient.Calories)
	should.Equal(t, 100.0, outcome.AddedIngredient.GIIndex)
}

func TestSearchFindIngredientWithoutCategory(t *testing.T) {
	client := &mockModelClient{
		response: json.RawMessage(`{
			"intent": "FIND_INGREDIENT",
			"ingredientData": {"name": "Mystery", "calories": 100}
		}`),
	}
	svc, cat, selection := newSearchService(t, client)

	outcome, err := svc.Search(context.Background(), "mystery food")
	must.NoError(t, err)

	must.True(t, outcome.Applied)
	should.Nil(t, outcome.ActiveCategory, "no category switch without a category on the record")

	must.NotNil(t, outcome.AddedIngredient)
	should.Equal(t, 1, cat.DiscoveredCount())
	should.Equal(t, 1.0, selection.Quantity(outcome.AddedIngredient.ID))
}

func TestSearchGeneralQA(t *testing.T) {
	client := &mockModelClient{
		response: json.RawMessage(`{"intent": "GENERAL_QA", "qaAnswer": "Iron absorbs better with vitamin C."}`),
	}
	svc, cat, selection := newSearchService(t, client)

	outcome, err := svc.Search(context.Background(), "how do I absorb iron")
	must.NoError(t, err)

	should.True(t, outcome.Applied)
	should.True(t, outcome.ShowAnswer)
	should.Equal(t, "Expert Advice", outcome.AnswerTitle)
	should.Equal(t, "Iron absorbs better with vitamin C.", outcome.AnswerBody)

	should.Zero(t, cat.DiscoveredCount(), "advice does not touch the catalogue")
	should.Empty(t, selection.Entries())
}

func TestSearchMealSetup(t *testing.T) {
	client := &mockModelClient{
		response: json.RawMessage(`{
			"intent": "MEAL_SETUP",
			"mealSetup": {"ingredients": ["spinach", "rice", "nonexistent food", ""], "reasoning": "Greens plus slow carbs."}
		}`),
	}
	svc, _, selection := newSearchService(t, client)

	outcome, err := svc.Search(context.Background(), "plan a light lunch")
	must.NoError(t, err)

	should.True(t, outcome.Applied)
	should.True(t, outcome.ShowAnswer)
	should.Equal(t, "Smart Setup", outcome.AnswerTitle)
	should.Equal(t, "Greens plus slow carbs.", outcome.AnswerBody)

	should.Equal(t, 1.0, selection.Quantity("v1"))
	should.Equal(t, 1.0, selection.Quantity("g1"))
	should.Len(t, selection.Entries(), 2, "unmatched names select nothing")
}

func TestSearchMealSetupDefaultReasoning(t *testing.T) {
	client := &mockModelClient{
		response: json.RawMessage(`{"intent": "MEAL_SETUP", "mealSetup": {"ingredients": ["no such thing"]}}`),
	}
	svc, _, selection := newSearchService(t, client)

	outcome, err := svc.Search(context.Background(), "plan dinner")
	must.NoError(t, err)

	should.Empty(t, selection.Entries())
	should.True(t, outcome.ShowAnswer, "reasoning is shown even when nothing matched")
	should.Equal(t, "Balanced meal plan generated.", outcome.AnswerBody)
}

func TestSearchSilentDrops(t *testing.T) {
	tests := []struct {
		name     string
		response json.RawMessage
	}{
		{
			name:     "unparseable reply",
			response: json.RawMessage(`this is not json`),
		},
		{
			name:     "unknown intent",
			response: json.RawMessage(`{"intent": "SING_A_SONG"}`),
		},
		{
			name:     "find without ingredient data",
			response: json.RawMessage(`{"intent": "FIND_INGREDIENT"}`),
		},
		{
			name:     "find with unnamed ingredient",
			response: json.RawMessage(`{"intent": "FIND_INGREDIENT", "ingredientData": {"calories": 100}}`),
		},
		{
			name:     "qa without answer",
			response: json.RawMessage(`{"intent": "GENERAL_QA"}`),
		},
		{
			name:     "setup without payload",
			response: json.RawMessage(`{"intent": "MEAL_SETUP"}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, cat, selection := newSearchService(t, &mockModelClient{response: tt.response})

			outcome, err := svc.Search(context.Background(), "anything")
			must.NoError(t, err, "malformed replies are dropped, not surfaced")
			should.False(t, outcome.Applied)
			should.False(t, outcome.ShowAnswer)
			should.Zero(t, cat.DiscoveredCount())
			should.Empty(t, selection.Entries())
		})
	}
}

func TestSearchModelError(t *testing.T) {
	wantErr := errors.New("boom")
	svc, _, _ := newSearchService(t, &mockModelClient{err: wantErr})

	_, err := svc.Search(context.Background(), "paneer")
	must.ErrorIs(t, err, wantErr)
}

func TestSearchBlankQuery(t *testing.T) {
	client := &mockModelClient{response: json.RawMessage(`{}`)}
	svc, _, _ := newSearchService(t, client)

	outcome, err := svc.Search(context.Background(), "   ")
	must.NoError(t, err)
	should.False(t, outcome.Applied)
	should.Zero(t, client.calls, "a blank query never reaches the model")
}

func TestSearchBusy(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	client := &mockModelClient{
		invokeFunc: func(ctx context.Context, systemPrompt, userPrompt string) (json.RawMessage, error) {
			close(started)
			<-release
			return json.RawMessage(`{"intent": "GENERAL_QA", "qaAnswer": "done"}`), nil
		},
	}
	svc, _, _ := newSearchService(t, client)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Search(context.Background(), "slow question")
		done <- err
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("first search never reached the model")
	}

	_, err := svc.Search(context.Background(), "second question")
	must.ErrorIs(t, err, ai.ErrBusy)

	close(release)
	must.NoError(t, <-done)

	// The gate resets once the first search finishes.
	client.invokeFunc = nil
	client.response = json.RawMessage(`{"intent": "GENERAL_QA", "qaAnswer": "again"}`)
	_, err = svc.Search(context.Background(), "third question")
	must.NoError(t, err)
}

func TestSearchRoundTripStats(t *testing.T) {
	client := &mockModelClient{
		response: json.RawMessage(`{
			"intent": "FIND_INGREDIENT",
			"ingredientData": {"name": "Paneer", "protein": 18, "carbs": 4, "calories": 296, "giIndex": 27, "bioavailability": 85}
		}`),
	}
	svc, _, selection := newSearchService(t, client)

	outcome, err := svc.Search(context.Background(), "paneer")
	must.NoError(t, err)
	must.NotNil(t, outcome.AddedIngredient)

	direct := meal.ComputeStats([]meal.SelectedIngredient{
		{Ingredient: *outcome.AddedIngredient, Quantity: 1},
	})
	should.Equal(t, direct, selection.Stats(), "selecting the discovered record is the same as computing from it directly")
}
