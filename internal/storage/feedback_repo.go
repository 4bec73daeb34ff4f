package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_feedback_store.go -package=mocks kyschat/internal/storage FeedbackStore,StatsStore

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// FeedbackStore defines feedback persistence.
type FeedbackStore interface {
	// Save stores a feedback entry and returns its ID.
	Save(ctx context.Context, fb Feedback) (int64, error)
	// List returns feedback newest first; an empty satisfaction returns all.
	List(ctx context.Context, satisfaction string) ([]Feedback, error)
}

// FeedbackRepo implements FeedbackStore on SQLite.
type FeedbackRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewFeedbackRepo creates a new FeedbackRepo.
func NewFeedbackRepo(db *sql.DB) *FeedbackRepo {
	return &FeedbackRepo{db: db, now: time.Now}
}

// Save stores a feedback entry.
func (r *FeedbackRepo) Save(ctx context.Context, fb Feedback) (int64, error) {
	var messageID any
	if fb.UserMessageID != nil {
		messageID = *fb.UserMessageID
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO feedback (user_message_id, satisfaction, feedback_text, timestamp) VALUES (?, ?, ?, ?)",
		messageID, fb.Satisfaction, fb.FeedbackText, formatTime(r.now()),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert feedback: %w", err)
	}
	return res.LastInsertId()
}

// List returns feedback newest first.
func (r *FeedbackRepo) List(ctx context.Context, satisfaction string) ([]Feedback, error) {
	query := `SELECT f.id, f.user_message_id, COALESCE(um.user_message, ''), f.satisfaction,
		COALESCE(f.feedback_text, ''), f.timestamp
		FROM feedback f
		LEFT JOIN user_messages um ON f.user_message_id = um.id`
	var args []any
	if satisfaction != "" {
		query += " WHERE f.satisfaction = ?"
		args = append(args, satisfaction)
	}
	query += " ORDER BY f.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	list := []Feedback{}
	for rows.Next() {
		var fb Feedback
		var messageID sql.NullInt64
		var ts string
		if err := rows.Scan(&fb.ID, &messageID, &fb.UserMessage, &fb.Satisfaction, &fb.FeedbackText, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		if messageID.Valid {
			id := messageID.Int64
			fb.UserMessageID = &id
		}
		if fb.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		list = append(list, fb)
	}
	return list, rows.Err()
}
