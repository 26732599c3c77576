package clipper

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"meal-planner/internal/ghost"
	"meal-planner/internal/llm"
	"meal-planner/internal/recipe"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecipeSaver stores clipped recipes.
type RecipeSaver interface {
	Save(ctx context.Context, rec recipe.Recipe) error
}

// UsageRecorder stores token usage of an extraction.
type UsageRecorder interface {
	RecordMeta(ctx context.Context, meta llm.AgentMeta) error
}

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	extractor   *recipe.Extractor
	recipes     RecipeSaver
	ghostClient ghost.Client
	usage       UsageRecorder
	httpClient  *http.Client
	logger      *zap.Logger
}

// Result is a clipped recipe and, when publishing is configured, its post.
type Result struct {
	Recipe recipe.Recipe
	Post   *ghost.Post
	Meta   llm.AgentMeta
}

// NewClipper creates a new Clipper instance. ghostClient and usage may be nil.
func NewClipper(extractor *recipe.Extractor, recipes RecipeSaver, ghostClient ghost.Client, usage UsageRecorder, logger *zap.Logger) *Clipper {
	return &Clipper{
		extractor:   extractor,
		recipes:     recipes,
		ghostClient: ghostClient,
		usage:       usage,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		logger:      logger,
	}
}

// ClipURL fetches the URL, extracts the recipe with the LLM, adds it to the
// recipe library and publishes it to Ghost when a client is configured.
// A failed publish is logged; the recipe stays in the library.
func (c *Clipper) ClipURL(ctx context.Context, url string) (*Result, error) {
	title, content, err := c.fetchAndCleanHTML(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	extracted, err := c.extractor.ExtractRecipe(ctx, recipe.PostData{
		ID:        uuid.NewString(),
		Title:     title,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		HTML:      content,
	})
	c.recordUsage(ctx, extracted.Meta)
	if err != nil {
		return nil, fmt.Errorf("ai extraction failed: %w", err)
	}

	rec := extracted.Recipe
	rec.SourceURL = url
	if rec.Title == "" {
		rec.Title = title
	}
	if err := c.recipes.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save recipe: %w", err)
	}

	res := &Result{Recipe: rec, Meta: extracted.Meta}
	if c.ghostClient != nil {
		post, err := c.ghostClient.CreatePost(ctx, rec.Title, formatToHTML(rec), true)
		if err != nil {
			c.logger.Warn("failed to publish clipped recipe", zap.String("recipe_id", rec.ID), zap.Error(err))
		} else {
			res.Post = post
		}
	}

	c.logger.Info("recipe clipped", zap.String("recipe_id", rec.ID), zap.String("title", rec.Title), zap.String("url", url))
	return res, nil
}

func (c *Clipper) recordUsage(ctx context.Context, meta llm.AgentMeta) {
	if c.usage == nil || meta.AgentName == "" {
		return
	}
	if err := c.usage.RecordMeta(ctx, meta); err != nil {
		c.logger.Warn("failed to record clipper usage", zap.Error(err))
	}
}

func (c *Clipper) fetchAndCleanHTML(ctx context.Context, url string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", "", err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Remove()

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	return title, strings.TrimSpace(doc.Find("body").Text()), nil
}

func formatToHTML(r recipe.Recipe) string {
	var sb strings.Builder
	if r.SourceURL != "" {
		u := html.EscapeString(r.SourceURL)
		fmt.Fprintf(&sb, "<p><i>Imported from: <a href=\"%s\">%s</a></i></p>", u, u)
	}

	sb.WriteString("<h2>Ingredients</h2><ul>")
	for _, ing := range r.Ingredients {
		fmt.Fprintf(&sb, "<li>%s</li>", html.EscapeString(ing))
	}
	sb.WriteString("</ul>")

	sb.WriteString("<h2>Instructions</h2><ol>")
	for _, step := range strings.Split(r.Instructions, "\n") {
		if step = strings.TrimSpace(step); step != "" {
			fmt.Fprintf(&sb, "<li>%s</li>", html.EscapeString(step))
		}
	}
	sb.WriteString("</ol>")

	sb.WriteString("<hr>")
	fmt.Fprintf(&sb, "<p><strong>Prep Time:</strong> %s | <strong>Servings:</strong> %s</p>",
		html.EscapeString(r.PrepTime), html.EscapeString(r.Servings))

	return sb.String()
}
