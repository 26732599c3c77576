package pantry

import (
	"context"
	"path/filepath"
	"testing"

	"meal-planner/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPantryEdits(t *testing.T) {
	p := New("u1")

	require.NoError(t, p.Add(SectionPantry, Item{Name: " Rice ", Quantity: 32, Unit: "oz"}))
	require.NoError(t, p.Add(SectionSpice, Item{Name: "Cumin", Quantity: 2}))
	assert.Error(t, p.Add(SectionPantry, Item{Name: ""}))
	assert.Error(t, p.Add(SectionPantry, Item{Name: "x", Quantity: -1}))
	assert.Error(t, p.Add(Section("attic"), Item{Name: "x"}))

	assert.Equal(t, "Rice", p.Pantry[0].Name)

	t.Run("Adjust", func(t *testing.T) {
		require.NoError(t, p.Adjust(SectionPantry, "rice", 8))
		assert.Equal(t, 40.0, p.Pantry[0].Quantity)

		require.NoError(t, p.Adjust(SectionSpice, "CUMIN", -5))
		assert.Empty(t, p.Spice, "items reaching zero are removed")

		assert.Error(t, p.Adjust(SectionFreezer, "peas", 1))
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, p.Remove(SectionPantry, "RICE"))
		assert.Empty(t, p.Items(SectionPantry))
		assert.Error(t, p.Remove(SectionPantry, "rice"))
	})

	t.Run("ParseSection", func(t *testing.T) {
		s, err := ParseSection("Spices")
		require.NoError(t, err)
		assert.Equal(t, SectionSpice, s)

		_, err = ParseSection("garage")
		assert.Error(t, err)
	})

	t.Run("CloneIsIndependent", func(t *testing.T) {
		orig := New("u2")
		require.NoError(t, orig.Add(SectionPantry, Item{Name: "salt", Quantity: 10}))
		c := orig.Clone()
		c.Pantry[0].Quantity = 1
		assert.Equal(t, 10.0, orig.Pantry[0].Quantity)
	})
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "pantry.db"), zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db.SQL)

	t.Run("MissingIsEmpty", func(t *testing.T) {
		p, err := repo.Load(ctx, "nobody")
		require.NoError(t, err)
		assert.Equal(t, "nobody", p.UserID)
		assert.NotNil(t, p.Pantry)
		assert.Empty(t, p.Pantry)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		p := New("u1")
		require.NoError(t, p.Add(SectionPantry, Item{Name: "salt", Quantity: 10, Unit: "oz"}))
		require.NoError(t, p.Add(SectionFreezer, Item{Name: "peas", Quantity: 16}))
		require.NoError(t, repo.Update(ctx, p))

		p.Pantry[0].Quantity = 4
		require.NoError(t, repo.Update(ctx, p))

		loaded, err := repo.Load(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, p, loaded)
	})
}
