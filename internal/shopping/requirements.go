package shopping

import "encoding/json"

// Requirement is the amount of one ingredient a shopping list needs.
// Quantity 0 with an empty Unit is an unquantified ingredient.
type Requirement struct {
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// Entry is a named requirement, used when listing or persisting a map.
type Entry struct {
	Name string `json:"name"`
	Requirement
}

// Requirements maps lower-cased ingredient names to requirements and
// remembers insertion order, which is the order of the shopping list.
type Requirements struct {
	keys  []string
	items map[string]Requirement
}

// NewRequirements returns an empty map.
func NewRequirements() *Requirements {
	return &Requirements{items: make(map[string]Requirement)}
}

// Len returns the number of ingredients.
func (r *Requirements) Len() int { return len(r.keys) }

// Get returns the requirement stored under name.
func (r *Requirements) Get(name string) (Requirement, bool) {
	req, ok := r.items[name]
	return req, ok
}

// Set stores req under name, keeping the original position of existing names.
func (r *Requirements) Set(name string, req Requirement) {
	if r.items == nil {
		r.items = make(map[string]Requirement)
	}
	if _, ok := r.items[name]; !ok {
		r.keys = append(r.keys, name)
	}
	r.items[name] = req
}

// Add sums req into the requirement stored under name.
func (r *Requirements) Add(name string, req Requirement) {
	cur, ok := r.items[name]
	if !ok {
		r.Set(name, req)
		return
	}
	cur.Quantity += req.Quantity
	if cur.Unit == "" {
		cur.Unit = req.Unit
	}
	r.items[name] = cur
}

// Clone returns an independent copy of the map.
func (r *Requirements) Clone() *Requirements {
	c := &Requirements{keys: r.Keys(), items: make(map[string]Requirement, len(r.items))}
	for k, v := range r.items {
		c.items[k] = v
	}
	return c
}

// Keys returns the names in insertion order.
func (r *Requirements) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Entries returns the named requirements in insertion order.
func (r *Requirements) Entries() []Entry {
	entries := make([]Entry, 0, len(r.keys))
	for _, k := range r.keys {
		entries = append(entries, Entry{Name: k, Requirement: r.items[k]})
	}
	return entries
}

func (r *Requirements) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Entries())
}

func (r *Requirements) UnmarshalJSON(data []byte) error {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*r = Requirements{items: make(map[string]Requirement, len(entries))}
	for _, e := range entries {
		r.Set(e.Name, e.Requirement)
	}
	return nil
}
