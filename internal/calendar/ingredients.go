package calendar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Ingredients holds a meal's ingredient lines as they were authored: either a
// single block of text or a list of lines. Lines resolves both to a slice.
type Ingredients struct {
	text   string
	list   []string
	isList bool
}

// IngredientsText wraps a free-text ingredient block.
func IngredientsText(s string) Ingredients {
	return Ingredients{text: s}
}

// IngredientsList wraps a list of ingredient lines.
func IngredientsList(lines ...string) Ingredients {
	return Ingredients{list: lines, isList: true}
}

// IsList reports whether the ingredients were authored as a list.
func (i Ingredients) IsList() bool { return i.isList }

// Empty reports whether there is nothing to resolve. An empty list or a blank
// string count as empty.
func (i Ingredients) Empty() bool {
	if i.isList {
		return len(i.list) == 0
	}
	return strings.TrimSpace(i.text) == ""
}

// Lines returns the trimmed, non-empty ingredient lines. A text block is split
// on commas when it has any, otherwise on newlines.
func (i Ingredients) Lines() []string {
	var raw []string
	switch {
	case i.isList:
		raw = i.list
	case strings.Contains(i.text, ","):
		raw = strings.Split(i.text, ",")
	case strings.Contains(i.text, "\n"):
		raw = strings.Split(i.text, "\n")
	default:
		raw = []string{i.text}
	}

	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func (i Ingredients) MarshalJSON() ([]byte, error) {
	if i.isList {
		if i.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(i.list)
	}
	if i.text == "" {
		return []byte("null"), nil
	}
	return json.Marshal(i.text)
}

func (i *Ingredients) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*i = Ingredients{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*i = IngredientsText(s)
		return nil
	case len(data) > 0 && data[0] == '[':
		var l []string
		if err := json.Unmarshal(data, &l); err != nil {
			return fmt.Errorf("failed to unmarshal ingredient list: %w", err)
		}
		*i = IngredientsList(l...)
		return nil
	}
	return fmt.Errorf("ingredients must be a string or a list of strings, got %s", data)
}
