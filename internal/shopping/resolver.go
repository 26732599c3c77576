package shopping

import (
	"context"

	"meal-planner/internal/calendar"
	"meal-planner/internal/mealdb"
	"meal-planner/internal/metrics"

	"go.uber.org/zap"
)

// RecipeLookup fetches external recipe details by id.
type RecipeLookup interface {
	Lookup(ctx context.Context, id string) (*mealdb.Details, error)
}

// Resolver produces the raw ingredient lines of a meal.
type Resolver struct {
	lookup RecipeLookup
	logger *zap.Logger
}

// NewResolver creates a Resolver. lookup may be nil, in which case meals that
// only reference an external recipe resolve to no ingredients.
func NewResolver(lookup RecipeLookup, logger *zap.Logger) *Resolver {
	return &Resolver{lookup: lookup, logger: logger}
}

// Resolve returns the meal's trimmed, non-empty ingredient lines. A meal that
// only references an external recipe is filled in from the lookup and keeps
// the fetched ingredients and instructions. Lookup failures are logged and
// resolve to no lines.
func (r *Resolver) Resolve(ctx context.Context, m *calendar.Meal) []string {
	if !m.Ingredients.Empty() {
		return m.Ingredients.Lines()
	}

	if m.ExternalID == "" || m.Instructions != "" || r.lookup == nil {
		return []string{}
	}

	details, err := r.lookup.Lookup(ctx, m.ExternalID)
	if err != nil {
		metrics.RecipeLookupFailures.Inc()
		r.logger.Warn("recipe lookup failed, treating meal as having no ingredients",
			zap.String("external_id", m.ExternalID), zap.String("title", m.Title), zap.Error(err))
		return []string{}
	}

	lines := details.Lines()
	m.Ingredients = calendar.IngredientsList(lines...)
	m.Instructions = details.Instructions
	return lines
}
