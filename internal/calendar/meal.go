package calendar

import "meal-planner/internal/recipe"

// MealFromRecipe builds a meal entry from a recipe in the library.
func MealFromRecipe(r recipe.Recipe) *Meal {
	return &Meal{
		RecipeID:     r.ID,
		Title:        r.Title,
		Ingredients:  IngredientsList(append([]string(nil), r.Ingredients...)...),
		Instructions: r.Instructions,
		ExternalID:   r.ExternalID,
	}
}

// MealFromExternal builds a meal entry that only references an external
// recipe. Its ingredients are fetched the first time a shopping list needs them.
func MealFromExternal(externalID, title string) *Meal {
	return &Meal{Title: title, ExternalID: externalID}
}
