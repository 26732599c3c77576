package calendar

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Repository is a database-backed repository for calendar weeks.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new calendar Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Get returns the stored week, or nil if the user has nothing planned for it.
func (r *Repository) Get(ctx context.Context, userID, weekKey string) (*Week, error) {
	var data string
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM calendar_weeks WHERE user_id = ? AND week_key = ?`, userID, weekKey).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get week %s for user %s: %w", weekKey, userID, err)
	}

	var w Week
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal week JSON: %w", err)
	}
	w.UserID, w.Key = userID, weekKey
	w.Normalize()
	return &w, nil
}

// GetOrNew returns the stored week or a fresh empty one.
func (r *Repository) GetOrNew(ctx context.Context, userID, weekKey string) (*Week, error) {
	w, err := r.Get(ctx, userID, weekKey)
	if err != nil || w != nil {
		return w, err
	}
	start, err := time.Parse(KeyLayout, weekKey)
	if err != nil {
		return nil, fmt.Errorf("invalid week key %q: %w", weekKey, err)
	}
	return NewWeek(userID, start), nil
}

// Save stores the whole week.
func (r *Repository) Save(ctx context.Context, w *Week) error {
	w.Normalize()
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to marshal week: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO calendar_weeks (user_id, week_key, data, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, week_key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		w.UserID, w.Key, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save week %s for user %s: %w", w.Key, w.UserID, err)
	}
	return nil
}
