package calendar

import (
	"fmt"
	"strings"
	"time"
)

// KeyLayout is the layout of a week key: the date of the week's Sunday.
const KeyLayout = "2006-01-02"

// Category is a meal slot within a day.
type Category string

const (
	KidsLunch    Category = "kidsLunch"
	AdultsLunch  Category = "adultsLunch"
	FamilyDinner Category = "familyDinner"
)

// Categories lists the meal slots in display order.
var Categories = []Category{KidsLunch, AdultsLunch, FamilyDinner}

// DayNames lists the days of a week starting on Sunday.
var DayNames = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// Meal is a recipe placed on a day/category slot.
type Meal struct {
	RecipeID            string      `json:"recipeId,omitempty"`
	Title               string      `json:"title"`
	Ingredients         Ingredients `json:"ingredients"`
	Instructions        string      `json:"instructions,omitempty"`
	ExternalID          string      `json:"externalId,omitempty"`
	ProcessedForGrocery bool        `json:"processedForGrocery"`
}

// Slots holds the meals of one day.
type Slots struct {
	KidsLunch    []*Meal `json:"kidsLunch"`
	AdultsLunch  []*Meal `json:"adultsLunch"`
	FamilyDinner []*Meal `json:"familyDinner"`
}

func (s *Slots) slot(c Category) *[]*Meal {
	switch c {
	case KidsLunch:
		return &s.KidsLunch
	case AdultsLunch:
		return &s.AdultsLunch
	case FamilyDinner:
		return &s.FamilyDinner
	}
	return nil
}

// Meals returns the meals in category c. It never returns nil for a known category.
func (s *Slots) Meals(c Category) []*Meal {
	p := s.slot(c)
	if p == nil {
		return nil
	}
	if *p == nil {
		*p = []*Meal{}
	}
	return *p
}

// Week is a user's calendar for the week starting on Key.
type Week struct {
	UserID  string   `json:"userId"`
	Key     string   `json:"weekStart"`
	Days    [7]Slots `json:"days"`
	Grocery []string `json:"grocery"`
	Prep    string   `json:"prep"`
}

// NewWeek returns an empty week for the Sunday on or before t.
func NewWeek(userID string, t time.Time) *Week {
	w := &Week{UserID: userID, Key: KeyFor(t)}
	w.Normalize()
	return w
}

// Normalize makes sure every day/category bucket and the grocery list exist.
func (w *Week) Normalize() {
	for d := range w.Days {
		for _, c := range Categories {
			w.Days[d].Meals(c)
		}
	}
	if w.Grocery == nil {
		w.Grocery = []string{}
	}
}

// Push appends m to the given day and category.
func (w *Week) Push(day int, c Category, m *Meal) error {
	if day < 0 || day >= len(w.Days) {
		return fmt.Errorf("day index %d out of range", day)
	}
	p := w.Days[day].slot(c)
	if p == nil {
		return fmt.Errorf("unknown meal category %q", c)
	}
	*p = append(*p, m)
	return nil
}

// Remove deletes the meal at index i of the given day and category.
func (w *Week) Remove(day int, c Category, i int) error {
	if day < 0 || day >= len(w.Days) {
		return fmt.Errorf("day index %d out of range", day)
	}
	p := w.Days[day].slot(c)
	if p == nil {
		return fmt.Errorf("unknown meal category %q", c)
	}
	if i < 0 || i >= len(*p) {
		return fmt.Errorf("no meal at position %d", i)
	}
	*p = append((*p)[:i], (*p)[i+1:]...)
	return nil
}

// Each calls fn for every meal in day, category, list order.
func (w *Week) Each(fn func(day int, c Category, m *Meal)) {
	for d := range w.Days {
		for _, c := range Categories {
			for _, m := range w.Days[d].Meals(c) {
				fn(d, c, m)
			}
		}
	}
}

// ClearGroceryFlags marks every meal as not yet counted in a shopping list.
func (w *Week) ClearGroceryFlags() {
	w.Each(func(_ int, _ Category, m *Meal) {
		m.ProcessedForGrocery = false
	})
}

// StartOf returns midnight UTC of the Sunday on or before t.
func StartOf(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// KeyFor returns the week key for the week containing t.
func KeyFor(t time.Time) string {
	return StartOf(t).Format(KeyLayout)
}

// ParseKey parses a date and returns the key of the week containing it.
func ParseKey(s string) (string, error) {
	t, err := time.Parse(KeyLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid week date %q: %w", s, err)
	}
	return KeyFor(t), nil
}

// ParseDay accepts a full or three-letter day name, case-insensitive.
func ParseDay(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range DayNames {
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", s)
}

var categoryAliases = map[string]Category{
	"kids":   KidsLunch,
	"adults": AdultsLunch,
	"dinner": FamilyDinner,
}

// ParseCategory matches a category name or its short alias case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if c, ok := categoryAliases[strings.ToLower(s)]; ok {
		return c, nil
	}
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown meal category %q", s)
}
