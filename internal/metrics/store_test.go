package metrics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"meal-planner/internal/database"
	"meal-planner/internal/llm"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "metrics.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db.SQL)
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	before := testutil.ToFloat64(LLMTokens.WithLabelValues("Prep", "prompt"))

	require.NoError(t, store.RecordMeta(ctx, llm.AgentMeta{
		AgentName: "Prep",
		Usage:     llm.TokenUsage{PromptTokens: 100, CompletionTokens: 40, Model: "gemini"},
		Latency:   250 * time.Millisecond,
	}))
	require.NoError(t, store.Record(ctx, ExecutionMetric{
		AgentName:        "Extractor",
		Model:            "llama",
		PromptTokens:     10,
		CompletionTokens: 5,
	}))
	require.NoError(t, store.Record(ctx, ExecutionMetric{
		AgentName:    "Extractor",
		PromptTokens: 1,
		Timestamp:    time.Now().AddDate(0, 0, -40),
	}))

	assert.Equal(t, before+100, testutil.ToFloat64(LLMTokens.WithLabelValues("Prep", "prompt")))

	t.Run("EmptyUsageIsSkipped", func(t *testing.T) {
		require.NoError(t, store.RecordMeta(ctx, llm.AgentMeta{AgentName: "Prep"}))
	})

	t.Run("DailyUsage", func(t *testing.T) {
		usage, err := store.GetDailyUsage(ctx, 7)
		require.NoError(t, err)
		require.Len(t, usage, 1)
		assert.Equal(t, time.Now().UTC().Format("2006-01-02"), usage[0].Date)
		assert.Equal(t, 2, usage[0].TotalExecution)
		assert.Equal(t, 110, usage[0].TotalPrompt)
		assert.Equal(t, 45, usage[0].TotalCompletion)
	})

	t.Run("Cleanup", func(t *testing.T) {
		removed, err := store.Cleanup(ctx, 30)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)
	})
}
