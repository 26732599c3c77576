package pantry

import (
	"context"
	"fmt"
	"strings"
)

// Section names a part of the user's stock.
type Section string

const (
	SectionPantry  Section = "pantry"
	SectionFreezer Section = "freezer"
	SectionSpice   Section = "spice"
)

// Item is a stocked ingredient. Quantity is in ounces or a plain count.
type Item struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit,omitempty"`
}

// Pantry is a user's full stock record. It is always read and written whole.
type Pantry struct {
	UserID  string `json:"userId"`
	Pantry  []Item `json:"pantry"`
	Freezer []Item `json:"freezer"`
	Spice   []Item `json:"spice"`
}

// Store loads and replaces pantry records.
type Store interface {
	Load(ctx context.Context, userID string) (*Pantry, error)
	Update(ctx context.Context, p *Pantry) error
}

// New returns an empty pantry for userID.
func New(userID string) *Pantry {
	return &Pantry{UserID: userID, Pantry: []Item{}, Freezer: []Item{}, Spice: []Item{}}
}

// ParseSection matches a section name case-insensitively.
func ParseSection(s string) (Section, error) {
	switch Section(strings.ToLower(strings.TrimSpace(s))) {
	case SectionPantry:
		return SectionPantry, nil
	case SectionFreezer:
		return SectionFreezer, nil
	case SectionSpice, "spices":
		return SectionSpice, nil
	}
	return "", fmt.Errorf("unknown pantry section %q", s)
}

func (p *Pantry) section(s Section) (*[]Item, error) {
	switch s {
	case SectionPantry:
		return &p.Pantry, nil
	case SectionFreezer:
		return &p.Freezer, nil
	case SectionSpice:
		return &p.Spice, nil
	}
	return nil, fmt.Errorf("unknown pantry section %q", s)
}

// Items returns the items of a section.
func (p *Pantry) Items(s Section) []Item {
	items, err := p.section(s)
	if err != nil {
		return nil
	}
	return *items
}

// Add appends a new item to a section.
func (p *Pantry) Add(s Section, item Item) error {
	items, err := p.section(s)
	if err != nil {
		return err
	}
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return fmt.Errorf("item name is required")
	}
	if item.Quantity < 0 {
		return fmt.Errorf("quantity must not be negative")
	}
	*items = append(*items, item)
	return nil
}

// Adjust changes the quantity of the first item named name by delta. An item
// that reaches zero is removed.
func (p *Pantry) Adjust(s Section, name string, delta float64) error {
	items, err := p.section(s)
	if err != nil {
		return err
	}
	for i := range *items {
		it := &(*items)[i]
		if !strings.EqualFold(it.Name, name) {
			continue
		}
		it.Quantity += delta
		if it.Quantity <= 0 {
			*items = append((*items)[:i], (*items)[i+1:]...)
		}
		return nil
	}
	return fmt.Errorf("no %q in %s", name, s)
}

// Remove deletes the first item named name from a section.
func (p *Pantry) Remove(s Section, name string) error {
	items, err := p.section(s)
	if err != nil {
		return err
	}
	for i, it := range *items {
		if strings.EqualFold(it.Name, name) {
			*items = append((*items)[:i], (*items)[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no %q in %s", name, s)
}

// Clone returns a deep copy of the record.
func (p *Pantry) Clone() *Pantry {
	return &Pantry{
		UserID:  p.UserID,
		Pantry:  append([]Item{}, p.Pantry...),
		Freezer: append([]Item{}, p.Freezer...),
		Spice:   append([]Item{}, p.Spice...),
	}
}
