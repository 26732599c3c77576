package shopping

import (
	"context"
	"strings"

	"meal-planner/internal/calendar"
	"meal-planner/internal/ingredient"
	"meal-planner/internal/metrics"

	"go.uber.org/zap"
)

// Aggregator sums the ingredients of a week's meals.
type Aggregator struct {
	resolver *Resolver
	logger   *zap.Logger
}

// NewAggregator creates an Aggregator that reads meals through resolver.
func NewAggregator(resolver *Resolver, logger *zap.Logger) *Aggregator {
	return &Aggregator{resolver: resolver, logger: logger}
}

// Aggregate walks the week's meals that are not yet in a shopping list, adds
// their ingredients to a fresh map and flags them as processed. It returns the
// map and the number of meals processed; zero means nothing new was planned.
func (a *Aggregator) Aggregate(ctx context.Context, w *calendar.Week) (*Requirements, int) {
	reqs := NewRequirements()
	processed := 0

	w.Each(func(day int, c calendar.Category, m *calendar.Meal) {
		if m.ProcessedForGrocery {
			return
		}

		lines := a.resolver.Resolve(ctx, m)
		for _, line := range lines {
			accumulate(reqs, line)
		}

		m.ProcessedForGrocery = true
		processed++
		a.logger.Debug("meal aggregated",
			zap.String("day", calendar.DayNames[day]), zap.String("category", string(c)),
			zap.String("title", m.Title), zap.Int("lines", len(lines)))
	})

	metrics.MealsAggregated.Add(float64(processed))
	return reqs, processed
}

func accumulate(reqs *Requirements, line string) {
	parsed, ok := ingredient.Parse(line)
	if !ok || parsed.Unquantified() {
		key := strings.ToLower(strings.TrimSpace(line))
		if _, seen := reqs.Get(key); !seen {
			reqs.Set(key, Requirement{})
		}
		return
	}

	reqs.Add(strings.ToLower(parsed.Name), Requirement{Quantity: parsed.Quantity, Unit: parsed.Unit})
}
