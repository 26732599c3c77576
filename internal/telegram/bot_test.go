package telegram

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"meal-planner/internal/app"
	"meal-planner/internal/config"
	"meal-planner/internal/database"
	"meal-planner/internal/mealdb"
	"meal-planner/internal/pantry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	member int64 = 7
	admin  int64 = 99
)

type fakeSource struct{}

func (fakeSource) Lookup(ctx context.Context, id string) (*mealdb.Details, error) {
	if id != "52772" {
		return nil, mealdb.ErrNotFound
	}
	return &mealdb.Details{ID: id, Title: "Teriyaki Chicken Casserole"}, nil
}

func (fakeSource) Search(ctx context.Context, query string) ([]mealdb.Details, error) {
	return []mealdb.Details{{ID: "52772", Title: "Teriyaki Chicken Casserole"}}, nil
}

func newTestBot(t *testing.T) *Bot {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bot.db")
	db, err := database.NewDB(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &Bot{
		app:      app.NewApp(app.Deps{DB: db, Recipes: fakeSource{}}, zap.NewNop()),
		sessions: NewSessionRepository(db.SQL),
		cfg: &config.Config{
			DatabasePath:           path,
			AdminTelegramID:        admin,
			TelegramAllowedUserIDs: []int64{member},
		},
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) },
	}
}

func TestRespond(t *testing.T) {
	ctx := context.Background()
	b := newTestBot(t)
	say := func(text string) string { return b.respond(ctx, member, text) }

	assert.Contains(t, say("/help"), "/shop")
	assert.Contains(t, say("/bogus"), "Unknown command")

	week := say("/week")
	assert.Contains(t, week, "Week of 2026-10-11")
	assert.Contains(t, week, "Nothing planned yet.")

	assert.Equal(t, "✅ Planned Tacos for tuesday familyDinner.", say("/plan tue dinner Tacos: Beef - 1lb, tortillas, salt"))
	assert.Contains(t, say("/plan tue dinner"), "❌")
	assert.Contains(t, say("/plan someday dinner Soup"), "unknown day")
	assert.Contains(t, say("/week"), "familyDinner 1. Tacos")

	assert.Contains(t, say("/stock pantry 8 oz beef"), "beef: 8 oz")

	shop := say("/shop")
	assert.Contains(t, shop, "Added 1 new meals. Pantry stock was used first.")
	assert.Contains(t, shop, "• 8 oz Beef\n• Tortillas\n• Salt\n")
	assert.Equal(t, "✅ No new meals since the last shopping list.", say("/shop"))
	assert.Contains(t, say("/list"), "• 8 oz Beef")

	t.Run("WeekSelection", func(t *testing.T) {
		assert.Contains(t, say("/week next"), "Week of 2026-10-18")
		assert.Contains(t, say("/list"), "shopping list is empty")
		assert.Contains(t, say("/week this"), "Week of 2026-10-11")
		assert.Contains(t, say("/week 2026-10-01"), "Week of 2026-09-27")
		assert.Contains(t, say("/week whenever"), "❌")
		say("/week this")
	})

	t.Run("Pantry", func(t *testing.T) {
		assert.Contains(t, say("/stock pantry 3 eggs"), "eggs: 3")
		assert.Contains(t, say("/use pantry 2 eggs"), "eggs: 1")
		assert.Contains(t, say("/stock spice cumin"), "cumin: 1")
		assert.Contains(t, say("/drop spice cumin"), "Spice\n  (empty)")
		assert.Contains(t, say("/drop freezer peas"), "❌")
		assert.Contains(t, say("/stock cellar 2 eggs"), "unknown pantry section")
		assert.Contains(t, say("/pantry"), "Freezer\n  (empty)")
	})

	t.Run("External", func(t *testing.T) {
		assert.Contains(t, say("/find teriyaki"), "Teriyaki Chicken Casserole (id 52772)")
		assert.Equal(t, "✅ Planned Teriyaki Chicken Casserole for wednesday kidsLunch.", say("/external wed kids 52772"))
		assert.Contains(t, say("/external wed kids 1"), "❌")
	})

	t.Run("Unplan", func(t *testing.T) {
		assert.Contains(t, say("/unplan tue dinner x"), "positive integer")
		assert.Contains(t, say("/unplan tue dinner 1"), "Removed meal 1")
		assert.NotContains(t, say("/week"), "Tacos")
	})

	t.Run("ResetShop", func(t *testing.T) {
		assert.Contains(t, say("/resetshop"), "cleared")
		assert.Contains(t, say("/list"), "shopping list is empty")
	})

	t.Run("DisabledFeatures", func(t *testing.T) {
		assert.Equal(t, "🚫 This feature is not configured.", say("/prep"))
		assert.Equal(t, "🚫 Recipe clipping is not configured.", say("https://example.com/pie"))
		assert.Contains(t, say("/recipes"), "library is empty")
	})

	t.Run("Metrics", func(t *testing.T) {
		assert.Contains(t, say("/metrics"), "Access denied")
		report := b.respond(ctx, admin, "/metrics")
		assert.Contains(t, report, "Usage & Health Report")
		assert.Contains(t, report, "No data yet")
	})
}

func TestIsAllowed(t *testing.T) {
	b := &Bot{cfg: &config.Config{AdminTelegramID: admin, TelegramAllowedUserIDs: []int64{member}}}
	assert.True(t, b.isAllowed(member))
	assert.True(t, b.isAllowed(admin))
	assert.False(t, b.isAllowed(1))

	b.cfg.AdminTelegramID = 0
	assert.False(t, b.isAllowed(0))
}

func TestSplitCommand(t *testing.T) {
	cmd, args := splitCommand("  /Shop@PlannerBot  now please ")
	assert.Equal(t, "/shop", cmd)
	assert.Equal(t, "now please", args)

	cmd, args = splitCommand("")
	assert.Empty(t, cmd)
	assert.Empty(t, args)

	assert.True(t, isSlow("/prep"))
	assert.True(t, isSlow("https://example.com"))
	assert.False(t, isSlow("/shop"))
}

func TestParseStock(t *testing.T) {
	tests := []struct {
		in   string
		want pantry.Item
	}{
		{"2 lbs chicken", pantry.Item{Name: "chicken", Quantity: 32, Unit: "oz"}},
		{"rice: 500g", pantry.Item{Name: "rice", Quantity: 17.637, Unit: "oz"}},
		{"3 eggs", pantry.Item{Name: "eggs", Quantity: 3}},
		{"bay leaves", pantry.Item{Name: "bay leaves", Quantity: 1}},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseStock(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want.Name, got.Name)
			assert.InDelta(t, tc.want.Quantity, got.Quantity, 0.001)
			assert.Equal(t, tc.want.Unit, got.Unit)
		})
	}

	_, err := parseStock("1/2 onion")
	assert.Error(t, err)
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "sessions.db"), zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	repo := NewSessionRepository(db.SQL)
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	s, err := repo.GetActive(ctx, "u1", now)
	require.NoError(t, err)
	assert.Nil(t, s)

	require.NoError(t, repo.Set(ctx, "u1", "2026-10-18", now.Add(time.Hour)))
	s, err = repo.GetActive(ctx, "u1", now)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "2026-10-18", s.WeekKey)

	s, err = repo.GetActive(ctx, "u1", now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, s)

	n, err := repo.CleanupExpired(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
