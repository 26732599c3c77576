package telegram

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// timeLayout keeps stored timestamps fixed width so they compare as text.
const timeLayout = "2006-01-02 15:04:05"

// Session is the week a chat user is currently working on.
type Session struct {
	UserID  string
	WeekKey string
}

// SessionRepository provides access to session persistence operations
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository instance
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Set selects weekKey for the user until expiresAt.
func (sr *SessionRepository) Set(ctx context.Context, userID, weekKey string, expiresAt time.Time) error {
	_, err := sr.db.ExecContext(ctx, `
		INSERT INTO telegram_sessions (user_id, week_key, expires_at, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET week_key = excluded.week_key, expires_at = excluded.expires_at, created_at = excluded.created_at`,
		userID, weekKey, expiresAt.UTC().Format(timeLayout), time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to save session for user %s: %w", userID, err)
	}
	return nil
}

// GetActive retrieves the user's session unless it expired before now.
func (sr *SessionRepository) GetActive(ctx context.Context, userID string, now time.Time) (*Session, error) {
	s := Session{UserID: userID}
	err := sr.db.QueryRowContext(ctx,
		`SELECT week_key FROM telegram_sessions WHERE user_id = ? AND expires_at > ?`,
		userID, now.UTC().Format(timeLayout)).Scan(&s.WeekKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session for user %s: %w", userID, err)
	}
	return &s, nil
}

// CleanupExpired removes all expired sessions.
func (sr *SessionRepository) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := sr.db.ExecContext(ctx, `DELETE FROM telegram_sessions WHERE expires_at <= ?`, now.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up sessions: %w", err)
	}
	return res.RowsAffected()
}
