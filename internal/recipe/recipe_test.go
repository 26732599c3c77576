package recipe

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"meal-planner/internal/database"
	"meal-planner/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockLLMClient is a mock implementation of llm.TextGenerator for testing.
type mockLLMClient struct {
	response    string
	shouldError bool
	prompt      string
}

func (m *mockLLMClient) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.prompt = prompt
	if m.shouldError {
		return llm.ContentResponse{}, errors.New("LLM error")
	}
	return llm.ContentResponse{
		Content: m.response,
		Usage:   llm.TokenUsage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
	}, nil
}

func TestExtractRecipe(t *testing.T) {
	ctx := context.Background()
	post := PostData{
		ID:        "1",
		Title:     "Test Recipe",
		UpdatedAt: "2026-10-01T10:00:00Z",
		HTML:      "<h1>Test Recipe</h1><p>Ingredients: ...</p>",
	}

	t.Run("Success", func(t *testing.T) {
		mockClient := &mockLLMClient{
			response: "```json\n" + `{
				"title": "Test Recipe",
				"ingredients": ["Chicken - 1lb", "Salt"],
				"instructions": "Step 1. Do something.",
				"tags": ["test", "recipe"],
				"prep_time": "30 mins",
				"servings": "4"
			}` + "\n```",
		}

		res, err := NewExtractor(mockClient).ExtractRecipe(ctx, post)
		require.NoError(t, err)

		assert.Equal(t, "1", res.Recipe.ID)
		assert.Equal(t, "Test Recipe", res.Recipe.Title)
		assert.Equal(t, []string{"Chicken - 1lb", "Salt"}, res.Recipe.Ingredients)
		assert.Equal(t, "2026-10-01T10:00:00Z", res.Recipe.UpdatedAt)
		assert.Equal(t, "Extractor", res.Meta.AgentName)
		assert.Equal(t, 30, res.Meta.Usage.TotalTokens)
		assert.Contains(t, mockClient.prompt, post.HTML)
	})

	t.Run("LLMError", func(t *testing.T) {
		_, err := NewExtractor(&mockLLMClient{shouldError: true}).ExtractRecipe(ctx, post)
		assert.ErrorContains(t, err, "failed to get LLM response")
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		res, err := NewExtractor(&mockLLMClient{response: "not json"}).ExtractRecipe(ctx, post)
		assert.ErrorContains(t, err, "failed to unmarshal LLM response")
		assert.Equal(t, 30, res.Meta.Usage.TotalTokens)
	})
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "Stew", Recipe{Title: "Stew"}.Summary())
	assert.Equal(t, "Stew (2h) [winter, beef]", Recipe{Title: "Stew", PrepTime: "2h", Tags: []string{"winter", "beef"}}.Summary())
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "recipes.db"), zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db.SQL, zap.NewNop())

	assert.Error(t, repo.Save(ctx, Recipe{Title: "No id"}))

	require.NoError(t, repo.Save(ctx, Recipe{ID: "b", Title: "Tacos", Ingredients: []string{"tortillas"}}))
	require.NoError(t, repo.Save(ctx, Recipe{ID: "a", Title: "Apple Pie", UpdatedAt: "yesterday"}))

	got, err := repo.Get(ctx, "b")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"tortillas"}, got.Ingredients)

	missing, err := repo.Get(ctx, "zzz")
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Apple Pie", list[0].Title)

	require.NoError(t, repo.Save(ctx, Recipe{ID: "b", Title: "Fish Tacos"}))
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, repo.Delete(ctx, "a"))
	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
