package shopping

import (
	"math"
	"strings"

	"meal-planner/internal/pantry"
)

// NetResult reports what netting a fresh aggregation did.
type NetResult struct {
	// Consumed is the pantry stock drawn per ingredient.
	Consumed map[string]float64
	// PantryChanged is set when stock was drawn or spent items were pruned.
	PantryChanged bool
}

// Net folds a fresh aggregation into the running session map.
//
// Ingredients already in the session are summed without touching the pantry,
// since stock was drawn for them when they were first listed. New quantified
// ingredients draw from matching pantry items first and only the remainder
// is added. Unquantified ingredients are always added. Pantry items left at
// zero or below are pruned. Freezer and spice stock are never drawn.
func Net(fresh, session *Requirements, p *pantry.Pantry) NetResult {
	res := NetResult{Consumed: make(map[string]float64)}

	for _, key := range fresh.Keys() {
		req, _ := fresh.Get(key)

		if _, ok := session.Get(key); ok {
			session.Add(key, req)
			continue
		}

		if req.Quantity <= 0 || p == nil {
			session.Set(key, req)
			continue
		}

		remaining := req.Quantity
		for i := range p.Pantry {
			if remaining <= 0 {
				break
			}
			item := &p.Pantry[i]
			if item.Quantity <= 0 || !strings.EqualFold(strings.TrimSpace(item.Name), key) {
				continue
			}
			take := math.Min(item.Quantity, remaining)
			item.Quantity -= take
			remaining -= take
			res.Consumed[key] += take
			res.PantryChanged = true
		}

		if remaining > 0 {
			session.Set(key, Requirement{Quantity: remaining, Unit: req.Unit})
		}
	}

	if p != nil && prune(p) {
		res.PantryChanged = true
	}
	return res
}

func prune(p *pantry.Pantry) bool {
	kept := p.Pantry[:0]
	for _, item := range p.Pantry {
		if item.Quantity > 0 {
			kept = append(kept, item)
		}
	}
	pruned := len(kept) != len(p.Pantry)
	p.Pantry = kept
	return pruned
}
