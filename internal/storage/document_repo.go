package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks kyschat/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// DocumentStore defines the interface for document storage operations.
type DocumentStore interface {
	// GetBySource gets a document by its source path.
	// Returns nil and ErrNotFound if not found.
	GetBySource(ctx context.Context, source string) (*DocumentRecord, error)
	// Upsert inserts a new document or updates an existing one.
	Upsert(ctx context.Context, doc *DocumentRecord) error
	// List returns all documents ordered by source.
	List(ctx context.Context) ([]DocumentRecord, error)
	// Delete removes a document and, through the foreign key, its chunks.
	Delete(ctx context.Context, id string) error
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

const documentColumns = "id, source, COALESCE(title, ''), hash, pages, updated_at"

func scanDocument(scan func(dest ...any) error) (*DocumentRecord, error) {
	var doc DocumentRecord
	var updatedAtStr string
	if err := scan(&doc.ID, &doc.Source, &doc.Title, &doc.Hash, &doc.Pages, &updatedAtStr); err != nil {
		return nil, err
	}
	t, err := parseTime(updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}
	doc.UpdatedAt = t
	return &doc, nil
}

// GetBySource gets a document by its source path.
func (r *DocumentRepo) GetBySource(ctx context.Context, source string) (*DocumentRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE source = ?", source)
	doc, err := scanDocument(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return doc, nil
}

// Upsert inserts a new document or updates an existing one.
// If the document doesn't exist (by source), generates a new UUID.
// If it exists, updates title, pages, hash and updated_at while preserving the ID.
func (r *DocumentRepo) Upsert(ctx context.Context, doc *DocumentRecord) error {
	existing, err := r.GetBySource(ctx, doc.Source)
	if err != nil && err != ErrNotFound {
		return fmt.Errorf("failed to check existing document: %w", err)
	}

	if existing != nil {
		doc.ID = existing.ID
	} else if doc.ID == "" {
		doc.ID = uuid.New().String()
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO documents (id, source, title, hash, pages, updated_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (source) DO UPDATE SET
		 title = excluded.title, hash = excluded.hash, pages = excluded.pages, updated_at = CURRENT_TIMESTAMP`,
		doc.ID, doc.Source, doc.Title, doc.Hash, doc.Pages,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// List returns all documents ordered by source.
func (r *DocumentRepo) List(ctx context.Context) ([]DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+documentColumns+" FROM documents ORDER BY source")
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	docs := []DocumentRecord{}
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// Delete removes a document by ID.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountWithoutChunks counts documents that produced no chunks.
func (r *DocumentRepo) CountWithoutChunks(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents
		 WHERE id NOT IN (SELECT DISTINCT document_id FROM chunks)`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents without chunks: %w", err)
	}
	return n, nil
}
