package prep

import (
	"context"
	"errors"
	"testing"
	"time"

	"meal-planner/internal/calendar"
	"meal-planner/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockTextGen struct {
	content string
	err     error
	prompt  string
}

func (m *mockTextGen) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.prompt = prompt
	if m.err != nil {
		return llm.ContentResponse{}, m.err
	}
	return llm.ContentResponse{
		Content: m.content,
		Usage:   llm.TokenUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150, Model: "test"},
	}, nil
}

type recorder struct{ metas []llm.AgentMeta }

func (r *recorder) RecordMeta(ctx context.Context, meta llm.AgentMeta) error {
	r.metas = append(r.metas, meta)
	return nil
}

func plannedWeek(t *testing.T) *calendar.Week {
	t.Helper()
	w := calendar.NewWeek("u1", time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, w.Push(1, calendar.FamilyDinner, &calendar.Meal{
		Title:       "Chicken Curry",
		Ingredients: calendar.IngredientsText("Chicken - 1lb, rice"),
	}))
	require.NoError(t, w.Push(3, calendar.KidsLunch, &calendar.Meal{Title: "Pasta Salad"}))
	return w
}

func TestGenerate(t *testing.T) {
	gen := &mockTextGen{content: "  - Cook rice [Chicken Curry]\n"}
	rec := &recorder{}
	g := NewGenerator(gen, rec, zap.NewNop())

	w := plannedWeek(t)
	res, err := g.Generate(context.Background(), w)
	require.NoError(t, err)

	assert.Equal(t, "- Cook rice [Chicken Curry]", res.Text)
	assert.Equal(t, res.Text, w.Prep)
	assert.Equal(t, "Prep", res.Meta.AgentName)
	require.Len(t, rec.metas, 1)
	assert.Equal(t, 150, rec.metas[0].Usage.TotalTokens)

	assert.Contains(t, gen.prompt, "week starting 2026-10-11")
	assert.Contains(t, gen.prompt, "monday:")
	assert.Contains(t, gen.prompt, "[familyDinner] Chicken Curry (ingredients: Chicken - 1lb, rice)")
	assert.Contains(t, gen.prompt, "[kidsLunch] Pasta Salad\n")
	assert.NotContains(t, gen.prompt, "sunday:")
}

func TestGenerateErrors(t *testing.T) {
	t.Run("NothingPlanned", func(t *testing.T) {
		g := NewGenerator(&mockTextGen{content: "x"}, nil, zap.NewNop())
		_, err := g.Generate(context.Background(), calendar.NewWeek("u1", time.Now()))
		assert.ErrorIs(t, err, ErrNothingPlanned)
	})

	t.Run("LLMFailure", func(t *testing.T) {
		g := NewGenerator(&mockTextGen{err: errors.New("quota")}, nil, zap.NewNop())
		w := plannedWeek(t)
		_, err := g.Generate(context.Background(), w)
		assert.ErrorContains(t, err, "failed to get LLM response")
		assert.Empty(t, w.Prep)
	})

	t.Run("EmptyResponse", func(t *testing.T) {
		g := NewGenerator(&mockTextGen{content: "  "}, nil, zap.NewNop())
		w := plannedWeek(t)
		_, err := g.Generate(context.Background(), w)
		assert.Error(t, err)
		assert.Empty(t, w.Prep)
	})
}
