package shopping

// Result is the outcome of a shopping-list run.
type Result struct {
	WeekKey string `json:"weekKey"`
	// NoChanges is set when every planned meal was already in the list.
	NoChanges bool     `json:"noChanges"`
	Items     []string `json:"items"`
	// MealsProcessed counts the meals added by this run.
	MealsProcessed int `json:"mealsProcessed"`
	// PantryUpdated is set when drawn stock was written back.
	PantryUpdated bool `json:"pantryUpdated"`
}
