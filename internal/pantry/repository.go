package pantry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Repository stores pantry records as JSON documents in SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new pantry Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Load returns the user's pantry, or an empty one if none was saved yet.
func (r *Repository) Load(ctx context.Context, userID string) (*Pantry, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM pantries WHERE user_id = ?`, userID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return New(userID), nil
		}
		return nil, fmt.Errorf("failed to load pantry for user %s: %w", userID, err)
	}

	p := New(userID)
	if err := json.Unmarshal([]byte(data), p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pantry JSON: %w", err)
	}
	p.UserID = userID
	return p, nil
}

// Update replaces the user's whole pantry record.
func (r *Repository) Update(ctx context.Context, p *Pantry) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal pantry: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO pantries (user_id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		p.UserID, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update pantry for user %s: %w", p.UserID, err)
	}
	return nil
}
