package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ShoppingListRuns counts shopping list generations by outcome
	// ("generated", "no_changes", "error").
	ShoppingListRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meal_planner_shopping_list_runs_total",
		Help: "Shopping list generations by outcome.",
	}, []string{"outcome"})

	// MealsAggregated counts meals whose ingredients entered a shopping list.
	MealsAggregated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meal_planner_meals_aggregated_total",
		Help: "Meals aggregated into shopping lists.",
	})

	// RecipeLookupFailures counts external recipe detail lookups that failed.
	RecipeLookupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meal_planner_recipe_lookup_failures_total",
		Help: "External recipe lookups that failed and were treated as empty.",
	})

	// PantryFailures counts pantry loads and writes that failed, by operation.
	PantryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meal_planner_pantry_failures_total",
		Help: "Pantry store operations that failed.",
	}, []string{"op"})

	// LLMTokens counts tokens spent per agent and kind.
	LLMTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meal_planner_llm_tokens_total",
		Help: "LLM tokens consumed.",
	}, []string{"agent", "kind"})
)
