package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SessionStore defines admin session persistence.
type SessionStore interface {
	Create(ctx context.Context, s Session) error
	// Get returns a session that has not expired. Returns ErrNotFound otherwise.
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	// DeleteExpired removes expired sessions and returns how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}

// SessionRepo implements SessionStore on SQLite.
type SessionRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionRepo creates a new SessionRepo.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db, now: time.Now}
}

// Create stores a session.
func (r *SessionRepo) Create(ctx context.Context, s Session) error {
	created := s.CreatedAt
	if created.IsZero() {
		created = r.now()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)",
		s.Token, s.UserID, formatTime(created), formatTime(s.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// Get returns a live session by token.
func (r *SessionRepo) Get(ctx context.Context, token string) (*Session, error) {
	var s Session
	var created, expires string
	err := r.db.QueryRowContext(ctx,
		"SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?", token,
	).Scan(&s.Token, &s.UserID, &created, &expires)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	if s.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if s.ExpiresAt, err = parseTime(expires); err != nil {
		return nil, err
	}
	if !s.ExpiresAt.After(r.now()) {
		return nil, ErrNotFound
	}
	return &s, nil
}

// Delete removes a session. Deleting an unknown token is not an error.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions past their expiry.
func (r *SessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", formatTime(r.now()))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
