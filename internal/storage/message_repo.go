package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_message_store.go -package=mocks kyschat/internal/storage MessageStore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// MessageStore records answered questions together with the chunks and LLM metrics
// that produced each answer.
type MessageStore interface {
	// SaveMessage stores a question and its answer and returns the new message ID.
	SaveMessage(ctx context.Context, question, answer string) (int64, error)
	// SaveRetrievedChunks stores the chunks used for a message in one transaction.
	SaveRetrievedChunks(ctx context.Context, messageID int64, chunks []RetrievedChunk) error
	// SaveMetrics stores token counts and latency for a message.
	SaveMetrics(ctx context.Context, messageID int64, metrics Metrics) error
	// GetMessage returns one message. Returns ErrNotFound if not found.
	GetMessage(ctx context.Context, id int64) (*Message, error)
	// ListMessages returns messages newest first.
	ListMessages(ctx context.Context, filter MessageFilter) ([]Message, error)
	// ListRetrievedChunks returns retrieved chunks newest first, joined with their question.
	ListRetrievedChunks(ctx context.Context, limit int) ([]RetrievedChunk, error)
	// ListMetrics returns the latest metrics rows, joined with their question.
	ListMetrics(ctx context.Context, limit int) ([]Metrics, error)
	// SetCorrectAnswer sets or clears (nil) the staff-reviewed answer.
	SetCorrectAnswer(ctx context.Context, id int64, answer *string) error
	// DeleteAll removes every message together with its chunks and metrics.
	DeleteAll(ctx context.Context) (int64, error)
}

// MessageRepo implements MessageStore on SQLite.
type MessageRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewMessageRepo creates a new MessageRepo.
func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db, now: time.Now}
}

// SaveMessage stores a question and its answer.
func (r *MessageRepo) SaveMessage(ctx context.Context, question, answer string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO user_messages (user_message, answer, timestamp) VALUES (?, ?, ?)",
		question, answer, formatTime(r.now()),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read message id: %w", err)
	}
	return id, nil
}

// SaveRetrievedChunks stores the chunks used for a message.
func (r *MessageRepo) SaveRetrievedChunks(ctx context.Context, messageID int64, chunks []RetrievedChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO retrieved_chunks (user_message_id, chunk_text, source, page_number, confidence) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, messageID, c.ChunkText, c.Source, c.PageNumber, c.Confidence); err != nil {
			return fmt.Errorf("failed to insert retrieved chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit retrieved chunks: %w", err)
	}
	return nil
}

// SaveMetrics stores token counts and latency for a message.
func (r *MessageRepo) SaveMetrics(ctx context.Context, messageID int64, metrics Metrics) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO llm_metrics (user_message_id, prompt_tokens, response_tokens, response_time, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		messageID, metrics.PromptTokens, metrics.ResponseTokens, metrics.ResponseTime, formatTime(r.now()),
	)
	if err != nil {
		return fmt.Errorf("failed to insert metrics: %w", err)
	}
	return nil
}

// GetMessage returns one message by ID.
func (r *MessageRepo) GetMessage(ctx context.Context, id int64) (*Message, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, user_message, answer, correct_answer, timestamp FROM user_messages WHERE id = ?", id)
	msg, err := scanMessage(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query message: %w", err)
	}
	return msg, nil
}

// ListMessages returns messages newest first, optionally filtered by a substring of the question.
func (r *MessageRepo) ListMessages(ctx context.Context, filter MessageFilter) ([]Message, error) {
	query := "SELECT id, user_message, answer, correct_answer, timestamp FROM user_messages"
	var args []any
	if s := strings.TrimSpace(filter.Search); s != "" {
		query += " WHERE instr(lower(user_message), lower(?)) > 0"
		args = append(args, s)
	}
	query += " ORDER BY id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	msgs := []Message{}
	for rows.Next() {
		msg, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, *msg)
	}
	return msgs, rows.Err()
}

func scanMessage(scan func(dest ...any) error) (*Message, error) {
	var msg Message
	var correct sql.NullString
	var ts string
	if err := scan(&msg.ID, &msg.UserMessage, &msg.Answer, &correct, &ts); err != nil {
		return nil, err
	}
	if correct.Valid {
		v := correct.String
		msg.CorrectAnswer = &v
	}
	t, err := parseTime(ts)
	if err != nil {
		return nil, err
	}
	msg.Timestamp = t
	return &msg, nil
}

// ListRetrievedChunks returns retrieved chunks newest first.
func (r *MessageRepo) ListRetrievedChunks(ctx context.Context, limit int) ([]RetrievedChunk, error) {
	query := `SELECT rc.id, rc.user_message_id, COALESCE(um.user_message, ''), rc.chunk_text,
		COALESCE(rc.source, ''), COALESCE(rc.page_number, 0), COALESCE(rc.confidence, 0)
		FROM retrieved_chunks rc
		LEFT JOIN user_messages um ON rc.user_message_id = um.id
		ORDER BY rc.id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query retrieved chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	chunks := []RetrievedChunk{}
	for rows.Next() {
		var c RetrievedChunk
		if err := rows.Scan(&c.ID, &c.UserMessageID, &c.UserMessage, &c.ChunkText, &c.Source, &c.PageNumber, &c.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan retrieved chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// ListMetrics returns the latest metrics rows. A non-positive limit defaults to 50.
func (r *MessageRepo) ListMetrics(ctx context.Context, limit int) ([]Metrics, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.user_message_id, COALESCE(um.user_message, ''),
			COALESCE(m.prompt_tokens, 0), COALESCE(m.response_tokens, 0), COALESCE(m.response_time, 0), m.timestamp
		 FROM llm_metrics m
		 LEFT JOIN user_messages um ON m.user_message_id = um.id
		 ORDER BY m.id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	metrics := []Metrics{}
	for rows.Next() {
		var m Metrics
		var ts string
		if err := rows.Scan(&m.ID, &m.UserMessageID, &m.UserMessage, &m.PromptTokens, &m.ResponseTokens, &m.ResponseTime, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan metrics: %w", err)
		}
		if m.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// SetCorrectAnswer sets or clears the staff-reviewed answer for a message.
func (r *MessageRepo) SetCorrectAnswer(ctx context.Context, id int64, answer *string) error {
	var value any
	if answer != nil && strings.TrimSpace(*answer) != "" {
		value = *answer
	}
	res, err := r.db.ExecContext(ctx, "UPDATE user_messages SET correct_answer = ? WHERE id = ?", value, id)
	if err != nil {
		return fmt.Errorf("failed to update correct answer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every message with its retrieved chunks and metrics, and
// unlinks any feedback that pointed at them.
func (r *MessageRepo) DeleteAll(ctx context.Context) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, stmt := range []string{
		"DELETE FROM retrieved_chunks",
		"DELETE FROM llm_metrics",
		"UPDATE feedback SET user_message_id = NULL WHERE user_message_id IS NOT NULL",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return 0, fmt.Errorf("failed to clear message details: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM user_messages")
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages: %w", err)
	}
	n, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return n, nil
}
