package shopping

import (
	"context"
	"fmt"
	"sync"

	"meal-planner/internal/calendar"
	"meal-planner/internal/metrics"
	"meal-planner/internal/pantry"

	"go.uber.org/zap"
)

// WeekStore loads and saves calendar weeks.
type WeekStore interface {
	GetOrNew(ctx context.Context, userID, weekKey string) (*calendar.Week, error)
	Save(ctx context.Context, w *calendar.Week) error
}

// SessionStore keeps the running requirements map of a week.
type SessionStore interface {
	Load(ctx context.Context, userID, weekKey string) (*Requirements, error)
	Save(ctx context.Context, userID, weekKey string, reqs *Requirements) error
	Delete(ctx context.Context, userID, weekKey string) error
}

// Service builds incremental shopping lists for planned weeks.
type Service struct {
	weeks      WeekStore
	sessions   SessionStore
	pantry     pantry.Store
	aggregator *Aggregator
	logger     *zap.Logger

	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewService creates a new shopping list Service.
func NewService(weeks WeekStore, sessions SessionStore, pantryStore pantry.Store, aggregator *Aggregator, logger *zap.Logger) *Service {
	return &Service{
		weeks:      weeks,
		sessions:   sessions,
		pantry:     pantryStore,
		aggregator: aggregator,
		logger:     logger,
		locks:      make(map[string]*keyLock),
	}
}

// lock serialises work on one user's week. Entries are dropped once no
// caller holds or waits for them.
func (s *Service) lock(userID, weekKey string) func() {
	key := userID + "|" + weekKey
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &keyLock{}
		s.locks[key] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// CreateList adds the ingredients of every meal planned since the last run to
// the week's shopping list. Stock in the pantry section is drawn first. When
// no new meals were planned the result has NoChanges set and nothing is saved.
func (s *Service) CreateList(ctx context.Context, userID, weekKey string) (*Result, error) {
	defer s.lock(userID, weekKey)()

	week, err := s.weeks.GetOrNew(ctx, userID, weekKey)
	if err != nil {
		metrics.ShoppingListRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load week: %w", err)
	}

	fresh, processed := s.aggregator.Aggregate(ctx, week)
	if processed == 0 {
		metrics.ShoppingListRuns.WithLabelValues("no_changes").Inc()
		s.logger.Info("no new meals for shopping list", zap.String("user_id", userID), zap.String("week", weekKey))
		return &Result{WeekKey: weekKey, NoChanges: true, Items: []string{}}, nil
	}

	session, err := s.sessions.Load(ctx, userID, weekKey)
	if err != nil {
		metrics.ShoppingListRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load shopping session: %w", err)
	}

	previous := session.Clone()
	stock, pantryLoaded := s.loadPantry(ctx, userID)
	net := Net(fresh, session, stock)

	res := &Result{WeekKey: weekKey, MealsProcessed: processed, Items: Format(session)}
	week.Grocery = res.Items

	// Pantry goes last so a failed save leaves stock and meal flags untouched.
	if err := s.sessions.Save(ctx, userID, weekKey, session); err != nil {
		metrics.ShoppingListRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to save shopping session: %w", err)
	}
	if err := s.weeks.Save(ctx, week); err != nil {
		if rerr := s.sessions.Save(ctx, userID, weekKey, previous); rerr != nil {
			s.logger.Error("failed to restore shopping session", zap.String("user_id", userID), zap.String("week", weekKey), zap.Error(rerr))
		}
		metrics.ShoppingListRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to save week: %w", err)
	}

	if net.PantryChanged && pantryLoaded {
		if err := s.pantry.Update(ctx, stock); err != nil {
			metrics.PantryFailures.WithLabelValues("update").Inc()
			s.logger.Warn("failed to write back pantry", zap.String("user_id", userID), zap.Error(err))
		} else {
			res.PantryUpdated = true
		}
	}

	metrics.ShoppingListRuns.WithLabelValues("generated").Inc()
	s.logger.Info("shopping list updated",
		zap.String("user_id", userID), zap.String("week", weekKey),
		zap.Int("meals", processed), zap.Int("items", len(res.Items)), zap.Bool("pantry_updated", res.PantryUpdated))
	return res, nil
}

// loadPantry returns the user's pantry and whether it came from the store.
// A failed load nets against an empty pantry that is never written back.
func (s *Service) loadPantry(ctx context.Context, userID string) (*pantry.Pantry, bool) {
	if s.pantry == nil {
		return pantry.New(userID), false
	}
	p, err := s.pantry.Load(ctx, userID)
	if err != nil {
		metrics.PantryFailures.WithLabelValues("load").Inc()
		s.logger.Warn("failed to load pantry, netting against empty stock", zap.String("user_id", userID), zap.Error(err))
		return pantry.New(userID), false
	}
	return p, true
}

// Reset clears the week's shopping list so the next run starts over from
// every planned meal. Pantry stock drawn by earlier runs is not returned.
func (s *Service) Reset(ctx context.Context, userID, weekKey string) error {
	defer s.lock(userID, weekKey)()

	week, err := s.weeks.GetOrNew(ctx, userID, weekKey)
	if err != nil {
		return fmt.Errorf("failed to load week: %w", err)
	}
	week.ClearGroceryFlags()
	week.Grocery = []string{}

	if err := s.weeks.Save(ctx, week); err != nil {
		return fmt.Errorf("failed to save week: %w", err)
	}
	if err := s.sessions.Delete(ctx, userID, weekKey); err != nil {
		return err
	}
	s.logger.Info("shopping list reset", zap.String("user_id", userID), zap.String("week", weekKey))
	return nil
}

// Current returns the week's shopping list as last generated.
func (s *Service) Current(ctx context.Context, userID, weekKey string) ([]string, error) {
	week, err := s.weeks.GetOrNew(ctx, userID, weekKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load week: %w", err)
	}
	return week.Grocery, nil
}

// UpdateWeek loads the week, applies fn and saves the result while holding
// the same lock as CreateList. Nothing is saved when fn fails.
func (s *Service) UpdateWeek(ctx context.Context, userID, weekKey string, fn func(w *calendar.Week) error) (*calendar.Week, error) {
	defer s.lock(userID, weekKey)()

	week, err := s.weeks.GetOrNew(ctx, userID, weekKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load week: %w", err)
	}
	if err := fn(week); err != nil {
		return nil, err
	}
	if err := s.weeks.Save(ctx, week); err != nil {
		return nil, fmt.Errorf("failed to save week: %w", err)
	}
	return week, nil
}
