package mealdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MaxIngredients is the number of numbered ingredient/measure fields a meal carries.
const MaxIngredients = 20

// ErrNotFound is returned when the lookup id matches no meal.
var ErrNotFound = errors.New("meal not found")

// Pair is one ingredient slot of an external recipe.
type Pair struct {
	Ingredient string
	Measure    string
}

// Details is an external recipe as returned by the lookup endpoint.
type Details struct {
	ID           string
	Title        string
	Instructions string
	Thumbnail    string
	// Ingredients holds the filled slots in order, up to the first empty one.
	Ingredients []Pair
}

// Lines renders each slot as "ingredient - measure", or just the ingredient
// when the measure is blank.
func (d *Details) Lines() []string {
	lines := make([]string, 0, len(d.Ingredients))
	for _, p := range d.Ingredients {
		if p.Measure == "" {
			lines = append(lines, p.Ingredient)
			continue
		}
		lines = append(lines, p.Ingredient+" - "+p.Measure)
	}
	return lines
}

// Client is the external recipe detail lookup.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// mealsResponse fields are dynamic (strIngredient1..20), so meals decode into maps.
type mealsResponse struct {
	Meals []map[string]*string `json:"meals"`
}

// Lookup fetches the details of the meal with the given external id.
func (c *Client) Lookup(ctx context.Context, id string) (*Details, error) {
	meals, err := c.get(ctx, "lookup.php", url.Values{"i": {id}})
	if err != nil {
		return nil, err
	}
	if len(meals) == 0 {
		return nil, fmt.Errorf("lookup %s: %w", id, ErrNotFound)
	}
	return toDetails(meals[0]), nil
}

// Search returns the meals whose name matches query.
func (c *Client) Search(ctx context.Context, query string) ([]Details, error) {
	meals, err := c.get(ctx, "search.php", url.Values{"s": {query}})
	if err != nil {
		return nil, err
	}
	results := make([]Details, 0, len(meals))
	for _, m := range meals {
		results = append(results, *toDetails(m))
	}
	return results, nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values) ([]map[string]*string, error) {
	u := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recipe api error: status %d", resp.StatusCode)
	}

	var body mealsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return body.Meals, nil
}

func toDetails(m map[string]*string) *Details {
	field := func(k string) string {
		if v := m[k]; v != nil {
			return strings.TrimSpace(*v)
		}
		return ""
	}

	d := &Details{
		ID:           field("idMeal"),
		Title:        field("strMeal"),
		Instructions: field("strInstructions"),
		Thumbnail:    field("strMealThumb"),
	}
	for i := 1; i <= MaxIngredients; i++ {
		ing := field(fmt.Sprintf("strIngredient%d", i))
		if ing == "" {
			break
		}
		d.Ingredients = append(d.Ingredients, Pair{
			Ingredient: ing,
			Measure:    field(fmt.Sprintf("strMeasure%d", i)),
		})
	}
	return d
}
