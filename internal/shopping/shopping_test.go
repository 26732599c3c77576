package shopping

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"meal-planner/internal/calendar"
	"meal-planner/internal/mealdb"
	"meal-planner/internal/metrics"
	"meal-planner/internal/pantry"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLookup struct {
	details map[string]*mealdb.Details
	err     error
	calls   int
}

func (f *fakeLookup) Lookup(ctx context.Context, id string) (*mealdb.Details, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.details[id]
	if !ok {
		return nil, mealdb.ErrNotFound
	}
	return d, nil
}

func TestRequirements(t *testing.T) {
	r := NewRequirements()
	r.Set("salt", Requirement{})
	r.Add("chicken", Requirement{Quantity: 16, Unit: "oz"})
	r.Add("chicken", Requirement{Quantity: 8, Unit: "oz"})
	r.Set("salt", Requirement{})

	assert.Equal(t, []string{"salt", "chicken"}, r.Keys())
	got, ok := r.Get("chicken")
	require.True(t, ok)
	assert.Equal(t, Requirement{Quantity: 24, Unit: "oz"}, got)

	data, err := json.Marshal(r)
	require.NoError(t, err)

	back := NewRequirements()
	require.NoError(t, json.Unmarshal(data, back))
	assert.Equal(t, r.Entries(), back.Entries())
}

func TestResolver(t *testing.T) {
	ctx := context.Background()
	lookup := &fakeLookup{details: map[string]*mealdb.Details{
		"52772": {ID: "52772", Instructions: "Fry.", Ingredients: []mealdb.Pair{
			{Ingredient: "Chicken", Measure: "1lb"},
			{Ingredient: "Soy Sauce"},
		}},
	}}
	r := NewResolver(lookup, zap.NewNop())

	t.Run("List", func(t *testing.T) {
		m := &calendar.Meal{Ingredients: calendar.IngredientsList(" a ", "", "b")}
		assert.Equal(t, []string{"a", "b"}, r.Resolve(ctx, m))
	})

	t.Run("Text", func(t *testing.T) {
		m := &calendar.Meal{Ingredients: calendar.IngredientsText("rice\nbeans")}
		assert.Equal(t, []string{"rice", "beans"}, r.Resolve(ctx, m))
	})

	t.Run("ExternalIsFetchedAndCached", func(t *testing.T) {
		lookup.calls = 0
		m := calendar.MealFromExternal("52772", "Teriyaki")
		assert.Equal(t, []string{"Chicken - 1lb", "Soy Sauce"}, r.Resolve(ctx, m))
		assert.Equal(t, "Fry.", m.Instructions)

		assert.Equal(t, []string{"Chicken - 1lb", "Soy Sauce"}, r.Resolve(ctx, m))
		assert.Equal(t, 1, lookup.calls)
	})

	t.Run("ExternalWithInstructionsIsNotFetched", func(t *testing.T) {
		lookup.calls = 0
		m := &calendar.Meal{ExternalID: "52772", Instructions: "Already known."}
		assert.Empty(t, r.Resolve(ctx, m))
		assert.Equal(t, 0, lookup.calls)
	})

	t.Run("LookupFailureIsEmpty", func(t *testing.T) {
		before := testutil.ToFloat64(metrics.RecipeLookupFailures)
		failing := NewResolver(&fakeLookup{err: errors.New("boom")}, zap.NewNop())
		m := calendar.MealFromExternal("1", "x")
		assert.Empty(t, failing.Resolve(ctx, m))
		assert.True(t, m.Ingredients.Empty())
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.RecipeLookupFailures))
	})

	t.Run("NoLookupConfigured", func(t *testing.T) {
		m := calendar.MealFromExternal("52772", "Teriyaki")
		assert.Empty(t, NewResolver(nil, zap.NewNop()).Resolve(ctx, m))
	})

	t.Run("NothingToResolve", func(t *testing.T) {
		assert.Empty(t, r.Resolve(ctx, &calendar.Meal{Title: "Leftovers"}))
	})
}

func TestAggregate(t *testing.T) {
	ctx := context.Background()
	a := NewAggregator(NewResolver(nil, zap.NewNop()), zap.NewNop())

	w := calendar.NewWeek("u1", calendar.StartOf(testTime))
	require.NoError(t, w.Push(0, calendar.FamilyDinner, &calendar.Meal{
		Title:       "Salad",
		Ingredients: calendar.IngredientsList("Tomatoes - 2lbs", "Salt", "1/2 onion"),
	}))
	require.NoError(t, w.Push(2, calendar.KidsLunch, &calendar.Meal{
		Title:       "Sauce",
		Ingredients: calendar.IngredientsText("1.5 lbs tomatoes, salt, 1/2 Onion"),
	}))
	require.NoError(t, w.Push(3, calendar.AdultsLunch, &calendar.Meal{Title: "Eating out"}))

	reqs, processed := a.Aggregate(ctx, w)
	assert.Equal(t, 3, processed)
	assert.Equal(t, []string{"tomatoes", "salt", "1/2 onion"}, reqs.Keys())

	tomatoes, _ := reqs.Get("tomatoes")
	assert.Equal(t, Requirement{Quantity: 56, Unit: "oz"}, tomatoes)
	salt, _ := reqs.Get("salt")
	assert.Equal(t, Requirement{}, salt)

	w.Each(func(_ int, _ calendar.Category, m *calendar.Meal) {
		assert.True(t, m.ProcessedForGrocery, m.Title)
	})

	reqs, processed = a.Aggregate(ctx, w)
	assert.Equal(t, 0, processed)
	assert.Equal(t, 0, reqs.Len())
}

func TestNet(t *testing.T) {
	salt := func(q float64) *pantry.Pantry {
		p := pantry.New("u1")
		p.Pantry = []pantry.Item{{Name: "Salt", Quantity: q}}
		p.Freezer = []pantry.Item{{Name: "chicken", Quantity: 100}}
		return p
	}
	fresh := func(entries ...Entry) *Requirements {
		r := NewRequirements()
		for _, e := range entries {
			r.Set(e.Name, e.Requirement)
		}
		return r
	}

	t.Run("PantryCoversRequirement", func(t *testing.T) {
		p := salt(10)
		session := NewRequirements()
		res := Net(fresh(Entry{"salt", Requirement{8, "oz"}}), session, p)

		assert.True(t, res.PantryChanged)
		assert.Equal(t, 8.0, res.Consumed["salt"])
		assert.Equal(t, 2.0, p.Pantry[0].Quantity)
		_, listed := session.Get("salt")
		assert.False(t, listed)
	})

	t.Run("PantryShortfall", func(t *testing.T) {
		p := salt(10)
		session := NewRequirements()
		Net(fresh(Entry{"salt", Requirement{15, "oz"}}), session, p)

		assert.Empty(t, p.Pantry)
		got, _ := session.Get("salt")
		assert.Equal(t, Requirement{5, "oz"}, got)
	})

	t.Run("SessionKeySumsWithoutPantry", func(t *testing.T) {
		p := salt(10)
		session := NewRequirements()
		session.Set("salt", Requirement{3, "oz"})
		res := Net(fresh(Entry{"salt", Requirement{4, "oz"}}), session, p)

		assert.False(t, res.PantryChanged)
		assert.Equal(t, 10.0, p.Pantry[0].Quantity)
		got, _ := session.Get("salt")
		assert.Equal(t, Requirement{7, "oz"}, got)
	})

	t.Run("UnquantifiedAlwaysListed", func(t *testing.T) {
		p := salt(10)
		session := NewRequirements()
		Net(fresh(Entry{"salt", Requirement{}}), session, p)

		assert.Equal(t, 10.0, p.Pantry[0].Quantity)
		_, listed := session.Get("salt")
		assert.True(t, listed)
	})

	t.Run("FreezerIsNotDrawn", func(t *testing.T) {
		p := salt(10)
		session := NewRequirements()
		Net(fresh(Entry{"chicken", Requirement{16, "oz"}}), session, p)

		assert.Equal(t, 100.0, p.Freezer[0].Quantity)
		got, _ := session.Get("chicken")
		assert.Equal(t, 16.0, got.Quantity)
	})

	t.Run("SameNamedItemsDrawnInOrder", func(t *testing.T) {
		p := pantry.New("u1")
		p.Pantry = []pantry.Item{{Name: "salt", Quantity: 3}, {Name: "Salt", Quantity: 4}}
		session := NewRequirements()
		res := Net(fresh(Entry{"salt", Requirement{5, "oz"}}), session, p)

		assert.Equal(t, 5.0, res.Consumed["salt"])
		assert.Equal(t, []pantry.Item{{Name: "Salt", Quantity: 2}}, p.Pantry)
		assert.Equal(t, 0, session.Len())
	})

	t.Run("SpentItemsArePruned", func(t *testing.T) {
		p := pantry.New("u1")
		p.Pantry = []pantry.Item{{Name: "rice", Quantity: 0}, {Name: "beans", Quantity: 4}}
		res := Net(NewRequirements(), NewRequirements(), p)

		assert.True(t, res.PantryChanged)
		assert.Equal(t, []pantry.Item{{Name: "beans", Quantity: 4}}, p.Pantry)
	})
}

func TestFormat(t *testing.T) {
	r := NewRequirements()
	r.Set("chicken", Requirement{16, "oz"})
	r.Set("salt", Requirement{})
	r.Set("flour", Requirement{1.0 / 3, "oz"})
	r.Set("tomatoes", Requirement{24.5, "oz"})
	r.Set("élan", Requirement{})

	assert.Equal(t, []string{
		"16 oz Chicken",
		"Salt",
		"0.33 oz Flour",
		"24.5 oz Tomatoes",
		"Élan",
	}, Format(r))

	tiny := NewRequirements()
	tiny.Set("saffron", Requirement{0.0035, "oz"})
	tiny.Set("vanilla", Requirement{0.004, "oz"})
	assert.Equal(t, []string{"0.0035 oz Saffron", "0.004 oz Vanilla"}, Format(tiny))
	assert.Empty(t, Format(NewRequirements()))
}
