package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// SatisfactionHelpful is the top satisfaction answer counted by the satisfaction rate.
const SatisfactionHelpful = "ช่วยได้มาก 👍"

// DashboardStats are the aggregate numbers shown on the admin dashboard.
type DashboardStats struct {
	TotalMessages     int64
	FeedbackCount     int64
	HelpfulCount      int64
	RequestCount      int64
	AvgResponseTime   float64
	MaxResponseTime   float64
	MinResponseTime   float64
	AvgPromptTokens   float64
	AvgResponseTokens float64
	TotalTokens       int64
	DocumentCount     int64
	ChunkCount        int64
}

// StatsStore reads aggregates for the admin dashboard.
type StatsStore interface {
	Dashboard(ctx context.Context) (*DashboardStats, error)
	// QuestionTexts returns every stored question, used for top-question ranking.
	QuestionTexts(ctx context.Context) ([]string, error)
}

// StatsRepo implements StatsStore on SQLite.
type StatsRepo struct {
	db *sql.DB
}

// NewStatsRepo creates a new StatsRepo.
func NewStatsRepo(db *sql.DB) *StatsRepo {
	return &StatsRepo{db: db}
}

// Dashboard computes the dashboard aggregates.
func (r *StatsRepo) Dashboard(ctx context.Context) (*DashboardStats, error) {
	var s DashboardStats

	counts := []struct {
		dest  *int64
		query string
		args  []any
	}{
		{&s.TotalMessages, "SELECT COUNT(*) FROM user_messages", nil},
		{&s.FeedbackCount, "SELECT COUNT(*) FROM feedback", nil},
		{&s.HelpfulCount, "SELECT COUNT(*) FROM feedback WHERE satisfaction = ?", []any{SatisfactionHelpful}},
		{&s.DocumentCount, "SELECT COUNT(*) FROM documents", nil},
		{&s.ChunkCount, "SELECT COUNT(*) FROM chunks", nil},
	}
	for _, c := range counts {
		if err := r.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count (%s): %w", c.query, err)
		}
	}

	err := r.db.QueryRowContext(ctx, `SELECT
			COUNT(*),
			COALESCE(AVG(response_time), 0),
			COALESCE(MAX(response_time), 0),
			COALESCE(MIN(response_time), 0),
			COALESCE(AVG(prompt_tokens), 0),
			COALESCE(AVG(response_tokens), 0),
			COALESCE(SUM(COALESCE(prompt_tokens, 0) + COALESCE(response_tokens, 0)), 0)
		FROM llm_metrics`,
	).Scan(&s.RequestCount, &s.AvgResponseTime, &s.MaxResponseTime, &s.MinResponseTime,
		&s.AvgPromptTokens, &s.AvgResponseTokens, &s.TotalTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate metrics: %w", err)
	}

	return &s, nil
}

// QuestionTexts returns every stored question.
func (r *StatsRepo) QuestionTexts(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT user_message FROM user_messages")
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	questions := []string{}
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
