package recipe

import "strings"

// Recipe is an authored or imported recipe in the user's library.
type Recipe struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions"`
	Tags         []string `json:"tags,omitempty"`
	PrepTime     string   `json:"prep_time,omitempty"`
	Servings     string   `json:"servings,omitempty"`
	SourceURL    string   `json:"source_url,omitempty"`
	ExternalID   string   `json:"external_id,omitempty"`
	UpdatedAt    string   `json:"updated_at,omitempty"`
}

// PostData is the raw material the extractor turns into a Recipe.
type PostData struct {
	ID        string
	Title     string
	UpdatedAt string
	HTML      string
}

// Summary returns a one-line description used in listings.
func (r Recipe) Summary() string {
	var sb strings.Builder
	sb.WriteString(r.Title)
	if r.PrepTime != "" {
		sb.WriteString(" (" + r.PrepTime + ")")
	}
	if len(r.Tags) > 0 {
		sb.WriteString(" [" + strings.Join(r.Tags, ", ") + "]")
	}
	return sb.String()
}
