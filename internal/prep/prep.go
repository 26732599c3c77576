package prep

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"meal-planner/internal/calendar"
	"meal-planner/internal/llm"

	"go.uber.org/zap"
)

//go:embed prep_prompt.md
var prepPrompt string

var prepTmpl = template.Must(template.New("prep").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(prepPrompt))

// ErrNothingPlanned is returned for weeks without any meal.
var ErrNothingPlanned = errors.New("no meals planned for this week")

// UsageRecorder stores token usage of a generation.
type UsageRecorder interface {
	RecordMeta(ctx context.Context, meta llm.AgentMeta) error
}

// Result is a generated prep list and the usage of the call.
type Result struct {
	Text string
	Meta llm.AgentMeta
}

// Generator writes a weekend prep list for a planned week.
type Generator struct {
	textGen llm.TextGenerator
	usage   UsageRecorder
	logger  *zap.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(textGen llm.TextGenerator, usage UsageRecorder, logger *zap.Logger) *Generator {
	return &Generator{textGen: textGen, usage: usage, logger: logger}
}

type promptMeal struct {
	Category    calendar.Category
	Title       string
	Ingredients []string
}

type promptDay struct {
	Day   string
	Meals []promptMeal
}

type promptData struct {
	WeekKey string
	Days    []promptDay
}

func buildPrompt(w *calendar.Week) (string, error) {
	data := promptData{WeekKey: w.Key}
	for d := range w.Days {
		day := promptDay{Day: calendar.DayNames[d]}
		for _, c := range calendar.Categories {
			for _, m := range w.Days[d].Meals(c) {
				day.Meals = append(day.Meals, promptMeal{Category: c, Title: m.Title, Ingredients: m.Ingredients.Lines()})
			}
		}
		if len(day.Meals) > 0 {
			data.Days = append(data.Days, day)
		}
	}
	if len(data.Days) == 0 {
		return "", ErrNothingPlanned
	}

	var buf bytes.Buffer
	if err := prepTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to build prep prompt: %w", err)
	}
	return buf.String(), nil
}

// Generate asks the text generator for a prep list and stores it in w.Prep.
// The caller saves the week.
func (g *Generator) Generate(ctx context.Context, w *calendar.Week) (Result, error) {
	start := time.Now()

	prompt, err := buildPrompt(w)
	if err != nil {
		return Result{}, err
	}

	resp, err := g.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get LLM response: %w", err)
	}

	meta := llm.AgentMeta{AgentName: "Prep", Usage: resp.Usage, Latency: time.Since(start)}
	if g.usage != nil {
		if err := g.usage.RecordMeta(ctx, meta); err != nil {
			g.logger.Warn("failed to record prep usage", zap.Error(err))
		}
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return Result{Meta: meta}, fmt.Errorf("empty prep list for week %s", w.Key)
	}

	w.Prep = text
	g.logger.Info("prep list generated",
		zap.String("user_id", w.UserID), zap.String("week", w.Key),
		zap.Int("total_tokens", resp.Usage.TotalTokens), zap.Duration("latency", meta.Latency))
	return Result{Text: text, Meta: meta}, nil
}
