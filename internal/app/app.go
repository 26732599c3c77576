package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meal-planner/internal/calendar"
	"meal-planner/internal/clipper"
	"meal-planner/internal/config"
	"meal-planner/internal/database"
	"meal-planner/internal/ghost"
	"meal-planner/internal/llm"
	"meal-planner/internal/mealdb"
	"meal-planner/internal/metrics"
	"meal-planner/internal/pantry"
	"meal-planner/internal/prep"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shopping"

	"go.uber.org/zap"
)

// ErrFeatureDisabled is returned by operations whose external service is not configured.
var ErrFeatureDisabled = errors.New("feature not configured")

// RecipeSource looks up and searches external recipes.
type RecipeSource interface {
	shopping.RecipeLookup
	Search(ctx context.Context, query string) ([]mealdb.Details, error)
}

// Deps are the collaborators of an App. Only DB is required.
type Deps struct {
	DB *database.DB
	// Recipes looks up external recipes.
	Recipes RecipeSource
	// PrepGen writes prep lists.
	PrepGen llm.TextGenerator
	// ExtractGen turns HTML into recipes for clipping and ingestion.
	ExtractGen llm.TextGenerator
	Ghost      ghost.Client
	// IngestDelay is the pause between extractions during ingestion.
	IngestDelay time.Duration
}

// App holds the application's dependencies.
type App struct {
	db          *database.DB
	recipes     *recipe.Repository
	weeks       *calendar.Repository
	pantries    *pantry.Repository
	metrics     *metrics.Store
	source      RecipeSource
	shopping    *shopping.Service
	prep        *prep.Generator
	extractor   *recipe.Extractor
	clipper     *clipper.Clipper
	ghostClient ghost.Client
	ingestDelay time.Duration
	logger      *zap.Logger
	closers     []func() error
}

// NewApp wires an App from already built collaborators.
func NewApp(d Deps, logger *zap.Logger) *App {
	a := &App{
		db:          d.DB,
		recipes:     recipe.NewRepository(d.DB.SQL, logger),
		weeks:       calendar.NewRepository(d.DB.SQL),
		pantries:    pantry.NewRepository(d.DB.SQL),
		metrics:     metrics.NewStore(d.DB.SQL),
		source:      d.Recipes,
		ghostClient: d.Ghost,
		ingestDelay: d.IngestDelay,
		logger:      logger,
	}

	var lookup shopping.RecipeLookup
	if d.Recipes != nil {
		lookup = d.Recipes
	}
	aggregator := shopping.NewAggregator(shopping.NewResolver(lookup, logger), logger)
	a.shopping = shopping.NewService(a.weeks, shopping.NewSessionRepository(d.DB.SQL), a.pantries, aggregator, logger)

	if d.PrepGen != nil {
		a.prep = prep.NewGenerator(d.PrepGen, a.metrics, logger)
	}
	if d.ExtractGen != nil {
		a.extractor = recipe.NewExtractor(d.ExtractGen)
		a.clipper = clipper.NewClipper(a.extractor, a.recipes, d.Ghost, a.metrics, logger)
	}
	return a
}

// New opens the database and builds every client the configuration enables.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.NewDB(cfg.DatabasePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	d := Deps{
		DB:          db,
		Recipes:     mealdb.NewClient(cfg.MealDBURL),
		IngestDelay: 5 * time.Second,
	}
	closers := []func() error{db.Close}

	if err := cfg.RequireGemini(); err == nil {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		d.PrepGen = gemini
		closers = append(closers, gemini.Close)
	} else {
		logger.Info("prep lists disabled", zap.Error(err))
	}

	if err := cfg.RequireGroq(); err == nil {
		d.ExtractGen = llm.NewGroqClient(cfg.GroqAPIKey, llm.ModelExtractor, 0.1, llm.WithJSONMode())
	} else {
		logger.Info("recipe extraction disabled", zap.Error(err))
	}

	if err := cfg.RequireGhost(); err == nil {
		d.Ghost = ghost.NewClient(cfg)
	} else {
		logger.Info("ghost integration disabled", zap.Error(err))
	}

	a := NewApp(d, logger)
	a.closers = closers
	return a, nil
}

// Close releases the database and LLM clients.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// DB returns the application database.
func (a *App) DB() *database.DB {
	return a.db
}

// Week returns the user's week, empty if nothing is planned yet.
func (a *App) Week(ctx context.Context, userID, weekKey string) (*calendar.Week, error) {
	return a.weeks.GetOrNew(ctx, userID, weekKey)
}

// PlanMeal places an ad-hoc meal on a day/category slot.
func (a *App) PlanMeal(ctx context.Context, userID, weekKey string, day int, c calendar.Category, m *calendar.Meal) error {
	_, err := a.shopping.UpdateWeek(ctx, userID, weekKey, func(w *calendar.Week) error {
		return w.Push(day, c, m)
	})
	return err
}

// PlanRecipe places a recipe from the library on a slot.
func (a *App) PlanRecipe(ctx context.Context, userID, weekKey string, day int, c calendar.Category, recipeID string) (*calendar.Meal, error) {
	rec, err := a.recipes.Get(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("recipe %s not found", recipeID)
	}
	m := calendar.MealFromRecipe(*rec)
	return m, a.PlanMeal(ctx, userID, weekKey, day, c, m)
}

// PlanExternal places an external recipe on a slot. Only its title is
// fetched now; ingredients are fetched when a shopping list needs them.
func (a *App) PlanExternal(ctx context.Context, userID, weekKey string, day int, c calendar.Category, externalID string) (*calendar.Meal, error) {
	if a.source == nil {
		return nil, ErrFeatureDisabled
	}
	d, err := a.source.Lookup(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up recipe %s: %w", externalID, err)
	}
	m := calendar.MealFromExternal(externalID, d.Title)
	return m, a.PlanMeal(ctx, userID, weekKey, day, c, m)
}

// Unplan removes the i-th meal of a slot.
func (a *App) Unplan(ctx context.Context, userID, weekKey string, day int, c calendar.Category, i int) error {
	_, err := a.shopping.UpdateWeek(ctx, userID, weekKey, func(w *calendar.Week) error {
		return w.Remove(day, c, i)
	})
	return err
}

// ShoppingList adds newly planned meals to the week's shopping list.
func (a *App) ShoppingList(ctx context.Context, userID, weekKey string) (*shopping.Result, error) {
	return a.shopping.CreateList(ctx, userID, weekKey)
}

// ResetShoppingList makes the next shopping list start from every planned meal.
func (a *App) ResetShoppingList(ctx context.Context, userID, weekKey string) error {
	return a.shopping.Reset(ctx, userID, weekKey)
}

// GeneratePrep writes and stores the week's prep list.
func (a *App) GeneratePrep(ctx context.Context, userID, weekKey string) (string, error) {
	if a.prep == nil {
		return "", ErrFeatureDisabled
	}
	w, err := a.shopping.UpdateWeek(ctx, userID, weekKey, func(w *calendar.Week) error {
		_, err := a.prep.Generate(ctx, w)
		return err
	})
	if err != nil {
		return "", err
	}
	return w.Prep, nil
}

// Pantry returns the user's stock.
func (a *App) Pantry(ctx context.Context, userID string) (*pantry.Pantry, error) {
	return a.pantries.Load(ctx, userID)
}

// Stock adds an item to a pantry section, or tops up an item of that name.
func (a *App) Stock(ctx context.Context, userID string, s pantry.Section, item pantry.Item) (*pantry.Pantry, error) {
	return a.editPantry(ctx, userID, func(p *pantry.Pantry) error {
		if err := p.Adjust(s, item.Name, item.Quantity); err == nil {
			return nil
		}
		return p.Add(s, item)
	})
}

// AdjustStock changes an item's quantity by delta, removing it at zero.
func (a *App) AdjustStock(ctx context.Context, userID string, s pantry.Section, name string, delta float64) (*pantry.Pantry, error) {
	return a.editPantry(ctx, userID, func(p *pantry.Pantry) error {
		return p.Adjust(s, name, delta)
	})
}

// RemoveStock deletes an item from a section.
func (a *App) RemoveStock(ctx context.Context, userID string, s pantry.Section, name string) (*pantry.Pantry, error) {
	return a.editPantry(ctx, userID, func(p *pantry.Pantry) error {
		return p.Remove(s, name)
	})
}

func (a *App) editPantry(ctx context.Context, userID string, fn func(p *pantry.Pantry) error) (*pantry.Pantry, error) {
	p, err := a.pantries.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	if err := a.pantries.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Recipes lists the recipe library.
func (a *App) Recipes(ctx context.Context) ([]recipe.Recipe, error) {
	return a.recipes.List(ctx)
}

// SearchExternal searches the external recipe catalogue.
func (a *App) SearchExternal(ctx context.Context, query string) ([]mealdb.Details, error) {
	if a.source == nil {
		return nil, ErrFeatureDisabled
	}
	return a.source.Search(ctx, query)
}

// ClipURL imports a recipe from a web page into the library.
func (a *App) ClipURL(ctx context.Context, url string) (*clipper.Result, error) {
	if a.clipper == nil {
		return nil, ErrFeatureDisabled
	}
	return a.clipper.ClipURL(ctx, url)
}

// Usage returns LLM token totals for the last days.
func (a *App) Usage(ctx context.Context, days int) ([]metrics.DailyUsage, error) {
	return a.metrics.GetDailyUsage(ctx, days)
}

// PruneUsage deletes LLM usage records older than days.
func (a *App) PruneUsage(ctx context.Context, days int) (int64, error) {
	return a.metrics.Cleanup(ctx, days)
}
