package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// New opens a SQLite database connection at the given path.
// Foreign keys are enabled on every pooled connection through the DSN.
func New(path string) (*sql.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// migration is a single ordered schema step.
type migration struct {
	version int
	name    string
	apply   func(ctx context.Context, tx *sql.Tx) error
}

// migrations lists every schema step in order. Append only.
var migrations = []migration{
	{version: 1, name: "base schema", apply: execAll(
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL UNIQUE,
			title TEXT,
			hash TEXT NOT NULL,
			pages INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			page_number INTEGER NOT NULL DEFAULT 0,
			text TEXT NOT NULL,
			FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id, chunk_index);`,
		`CREATE TABLE IF NOT EXISTS user_messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_message TEXT NOT NULL,
			answer TEXT NOT NULL,
			timestamp TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS retrieved_chunks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_message_id INTEGER NOT NULL,
			chunk_text TEXT NOT NULL,
			source TEXT,
			page_number INTEGER,
			FOREIGN KEY(user_message_id) REFERENCES user_messages(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS llm_metrics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_message_id INTEGER NOT NULL,
			prompt_tokens INTEGER,
			response_tokens INTEGER,
			response_time REAL,
			timestamp TEXT NOT NULL,
			FOREIGN KEY(user_message_id) REFERENCES user_messages(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS feedback (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_message_id INTEGER,
			satisfaction TEXT NOT NULL,
			feedback_text TEXT,
			timestamp TEXT NOT NULL,
			FOREIGN KEY(user_message_id) REFERENCES user_messages(id) ON DELETE SET NULL
		);`,
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT DEFAULT 'staff',
			full_name TEXT,
			email TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			last_login TIMESTAMP,
			is_active INTEGER DEFAULT 1
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
		);`,
	)},
	{version: 2, name: "drop feedback rating", apply: dropFeedbackRating},
	{version: 3, name: "user_messages correct_answer", apply: addColumnIfMissing("user_messages", "correct_answer", "TEXT")},
	{version: 4, name: "retrieved_chunks confidence", apply: addColumnIfMissing("retrieved_chunks", "confidence", "REAL")},
	{version: 5, name: "cascade message children", apply: cascadeMessageChildren},
}

// Migrate brings the schema up to the latest version.
// It is idempotent and can be run multiple times safely; databases created by the
// older scripts (feedback.rating, no correct_answer, foreign keys without ON DELETE)
// are upgraded in place.
func Migrate(db *sql.DB) error {
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL
	);`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.version, err)
		}
		if err := m.apply(ctx, tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			m.version, m.name, formatTime(time.Now()),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration version, or 0.
func SchemaVersion(db *sql.DB) (int, error) {
	var v sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(v.Int64), nil
}

func execAll(stmts ...string) func(ctx context.Context, tx *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	}
}

// dropFeedbackRating rebuilds feedback without the legacy rating column.
// SQLite before 3.35 has no DROP COLUMN, so the table is copied and renamed.
func dropFeedbackRating(ctx context.Context, tx *sql.Tx) error {
	has, err := hasColumn(ctx, tx, "feedback", "rating")
	if err != nil || !has {
		return err
	}

	return execAll(
		`CREATE TABLE feedback_temp (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_message_id INTEGER,
			satisfaction TEXT NOT NULL,
			feedback_text TEXT,
			timestamp TEXT NOT NULL,
			FOREIGN KEY(user_message_id) REFERENCES user_messages(id) ON DELETE SET NULL
		);`,
		`INSERT INTO feedback_temp (id, user_message_id, satisfaction, feedback_text, timestamp)
		 SELECT id, user_message_id, COALESCE(satisfaction, ''), feedback_text, COALESCE(timestamp, '')
		 FROM feedback;`,
		`DROP TABLE feedback;`,
		`ALTER TABLE feedback_temp RENAME TO feedback;`,
	)(ctx, tx)
}

// cascadeMessageChildren rebuilds the tables that reference user_messages when their
// foreign key was created without an ON DELETE action, which is how the older
// scripts created them. Rows pointing at missing messages are dropped (chunks and
// metrics) or unlinked (feedback).
func cascadeMessageChildren(ctx context.Context, tx *sql.Tx) error {
	rebuilds := []struct {
		table  string
		action string
		stmts  []string
	}{
		{"retrieved_chunks", "CASCADE", []string{
			`CREATE TABLE retrieved_chunks_temp (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_message_id INTEGER NOT NULL,
				chunk_text TEXT NOT NULL,
				source TEXT,
				page_number INTEGER,
				confidence REAL,
				FOREIGN KEY(user_message_id) REFERENCES user_messages(id) ON DELETE CASCADE
			);`,
			`INSERT INTO retrieved_chunks_temp (id, user_message_id, chunk_text, source, page_number, confidence)
			 SELECT id, user_message_id, COALESCE(chunk_text, ''), source, page_number, confidence
			 FROM retrieved_chunks
			 WHERE user_message_id IN (SELECT id FROM user_messages);`,
			`DROP TABLE retrieved_chunks;`,
			`ALTER TABLE retrieved_chunks_temp RENAME TO retrieved_chunks;`,
		}},
		{"llm_metrics", "CASCADE", []string{
			`CREATE TABLE llm_metrics_temp (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_message_id INTEGER NOT NULL,
				prompt_tokens INTEGER,
				response_tokens INTEGER,
				response_time REAL,
				timestamp TEXT NOT NULL,
				FOREIGN KEY(user_message_id) REFERENCES user_messages(id) ON DELETE CASCADE
			);`,
			`INSERT INTO llm_metrics_temp (id, user_message_id, prompt_tokens, response_tokens, response_time, timestamp)
			 SELECT id, user_message_id, prompt_tokens, response_tokens, response_time, COALESCE(timestamp, '')
			 FROM llm_metrics
			 WHERE user_message_id IN (SELECT id FROM user_messages);`,
			`DROP TABLE llm_metrics;`,
			`ALTER TABLE llm_metrics_temp RENAME TO llm_metrics;`,
		}},
		{"feedback", "SET NULL", []string{
			`CREATE TABLE feedback_temp (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_message_id INTEGER,
				satisfaction TEXT NOT NULL,
				feedback_text TEXT,
				timestamp TEXT NOT NULL,
				FOREIGN KEY(user_message_id) REFERENCES user_messages(id) ON DELETE SET NULL
			);`,
			`INSERT INTO feedback_temp (id, user_message_id, satisfaction, feedback_text, timestamp)
			 SELECT id,
				CASE WHEN user_message_id IN (SELECT id FROM user_messages) THEN user_message_id END,
				COALESCE(satisfaction, ''), feedback_text, COALESCE(timestamp, '')
			 FROM feedback;`,
			`DROP TABLE feedback;`,
			`ALTER TABLE feedback_temp RENAME TO feedback;`,
		}},
	}

	for _, r := range rebuilds {
		action, err := onDeleteAction(ctx, tx, r.table, "user_messages")
		if err != nil {
			return err
		}
		if strings.EqualFold(action, r.action) {
			continue
		}
		if err := execAll(r.stmts...)(ctx, tx); err != nil {
			return fmt.Errorf("failed to rebuild %s: %w", r.table, err)
		}
	}
	return nil
}

// onDeleteAction returns the ON DELETE action of table's foreign key to parent,
// or "" when there is no such key.
func onDeleteAction(ctx context.Context, tx *sql.Tx, table, parent string) (string, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", table))
	if err != nil {
		return "", fmt.Errorf("failed to read foreign keys of %s: %w", table, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	action := ""
	for rows.Next() {
		var (
			id, seq                   int
			refTable, from            string
			to                        sql.NullString
			onUpdate, onDelete, match string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return "", err
		}
		if strings.EqualFold(refTable, parent) {
			action = onDelete
		}
	}
	return action, rows.Err()
}

func addColumnIfMissing(table, column, decl string) func(ctx context.Context, tx *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		has, err := hasColumn(ctx, tx, table, column)
		if err != nil || has {
			return err
		}
		_, err = tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
		return err
	}
}

func hasColumn(ctx context.Context, tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if strings.EqualFold(name, column) {
			return true, nil
		}
	}
	return false, rows.Err()
}

// timeLayouts are the formats found in existing databases: ISO timestamps written by
// the application and CURRENT_TIMESTAMP defaults written by SQLite.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
