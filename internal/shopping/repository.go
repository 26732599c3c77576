package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SessionRepository persists the running requirements map of each user's week.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new shopping session repository.
func NewSessionRepository(d *sql.DB) *SessionRepository {
	return &SessionRepository{db: d}
}

// Load returns the stored session map, or an empty one when none exists.
func (r *SessionRepository) Load(ctx context.Context, userID, weekKey string) (*Requirements, error) {
	var items string
	err := r.db.QueryRowContext(ctx,
		`SELECT items FROM grocery_sessions WHERE user_id = ? AND week_key = ?`, userID, weekKey).Scan(&items)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewRequirements(), nil
		}
		return nil, fmt.Errorf("failed to get shopping session by user and week: %w", err)
	}

	reqs := NewRequirements()
	if err := json.Unmarshal([]byte(items), reqs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping session items: %w", err)
	}
	return reqs, nil
}

// Save replaces the stored session map.
func (r *SessionRepository) Save(ctx context.Context, userID, weekKey string, reqs *Requirements) error {
	itemsJSON, err := json.Marshal(reqs)
	if err != nil {
		return fmt.Errorf("failed to marshal shopping session items: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO grocery_sessions (user_id, week_key, items, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, week_key) DO UPDATE SET items = excluded.items, updated_at = excluded.updated_at`,
		userID, weekKey, string(itemsJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save shopping session: %w", err)
	}
	return nil
}

// Delete drops the stored session map.
func (r *SessionRepository) Delete(ctx context.Context, userID, weekKey string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM grocery_sessions WHERE user_id = ? AND week_key = ?`, userID, weekKey)
	if err != nil {
		return fmt.Errorf("failed to delete shopping session: %w", err)
	}
	return nil
}
