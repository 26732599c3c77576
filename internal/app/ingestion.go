package app

import (
	"context"
	"fmt"
	"time"

	"meal-planner/internal/ghost"
	"meal-planner/internal/llm"
	"meal-planner/internal/recipe"

	"go.uber.org/zap"
)

// IngestReport summarises an ingestion run.
type IngestReport struct {
	Fetched  int
	Skipped  int
	Imported int
	Failed   int
}

// UsageRecorder stores the token usage of an extraction.
type UsageRecorder interface {
	RecordMeta(ctx context.Context, meta llm.AgentMeta) error
}

// ProcessAndSaveRecipe extracts a recipe from a Ghost post, saves it to the
// library and records the extraction's token usage.
func ProcessAndSaveRecipe(
	ctx context.Context,
	extractor *recipe.Extractor,
	recipeRepo *recipe.Repository,
	usage UsageRecorder,
	post ghost.Post,
	logger *zap.Logger,
) error {
	extractorResult, err := extractor.ExtractRecipe(ctx, post.PostData())

	// Tokens are spent even when the response is unusable.
	if err := usage.RecordMeta(ctx, extractorResult.Meta); err != nil {
		logger.Warn("failed to record extraction usage", zap.String("post_id", post.ID), zap.Error(err))
	}

	if err != nil {
		return fmt.Errorf("failed to extract recipe: %w", err)
	}

	rec := extractorResult.Recipe
	rec.SourceURL = post.URL
	if rec.Title == "" {
		rec.Title = post.Title
	}
	if err := recipeRepo.Save(ctx, rec); err != nil {
		return fmt.Errorf("failed to save recipe: %w", err)
	}
	return nil
}

// IngestRecipes imports every Ghost post into the recipe library. Posts whose
// stored copy carries the same update time are skipped.
func (a *App) IngestRecipes(ctx context.Context) (IngestReport, error) {
	var report IngestReport
	if a.ghostClient == nil || a.extractor == nil {
		return report, ErrFeatureDisabled
	}

	posts, err := a.ghostClient.FetchRecipes(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to fetch recipes from ghost: %w", err)
	}
	report.Fetched = len(posts)
	a.logger.Info("fetched recipe posts from ghost", zap.Int("count", len(posts)))

	extracted := 0
	for _, post := range posts {
		existing, err := a.recipes.Get(ctx, post.ID)
		if err != nil {
			return report, err
		}
		if existing != nil && existing.UpdatedAt == post.UpdatedAt {
			report.Skipped++
			continue
		}

		// Stay under the free-tier request rate.
		if extracted > 0 && a.ingestDelay > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(a.ingestDelay):
			}
		}
		extracted++

		if err := ProcessAndSaveRecipe(ctx, a.extractor, a.recipes, a.metrics, post, a.logger); err != nil {
			report.Failed++
			a.logger.Warn("failed to ingest recipe", zap.String("post_id", post.ID), zap.String("title", post.Title), zap.Error(err))
			continue
		}
		report.Imported++
		a.logger.Info("recipe ingested", zap.String("post_id", post.ID), zap.String("title", post.Title))
	}

	a.logger.Info("ingestion complete",
		zap.Int("imported", report.Imported), zap.Int("skipped", report.Skipped), zap.Int("failed", report.Failed))
	return report, nil
}
