// Package app builds the shared runtime pieces used by both binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"kyschat/internal/config"
	"kyschat/internal/indexer"
	"kyschat/internal/llm"
	"kyschat/internal/storage"
	"kyschat/internal/vectorstore"
)

// NewLogger builds the process logger from the configured level and format.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// OpenDatabase opens the SQLite file and applies migrations.
func OpenDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)
	return db, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenVectorStore connects the configured backend and makes sure the collection
// exists with the configured vector size. The returned closer releases the
// backend connection.
func OpenVectorStore(ctx context.Context, cfg *config.Config) (vectorstore.VectorStore, io.Closer, error) {
	var (
		vs     vectorstore.VectorStore
		closer io.Closer = nopCloser{}
	)

	switch cfg.VectorBackend {
	case config.BackendQdrant:
		qs, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Qdrant client: %w", err)
		}
		vs, closer = qs, qs
	default:
		cs, err := vectorstore.NewChromemStore(cfg.ChromemPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open chromem store: %w", err)
		}
		vs = cs
	}

	if err := vs.EnsureCollection(ctx, cfg.VectorCollection, cfg.VectorSize); err != nil {
		_ = closer.Close()
		return nil, nil, fmt.Errorf("failed to ensure collection: %w", err)
	}
	slog.Info("Vector collection ready",
		"backend", cfg.VectorBackend,
		"collection", cfg.VectorCollection,
		"vector_size", cfg.VectorSize)
	return vs, closer, nil
}

// NewEmbedder creates the embeddings client and fails fast when the model does
// not produce vectors of the configured size.
func NewEmbedder(ctx context.Context, cfg *config.Config) (*llm.EmbeddingsClient, error) {
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.VectorSize)
	vecs, err := embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		return nil, fmt.Errorf("failed to validate embedding client: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) != cfg.VectorSize {
		got := 0
		if len(vecs) > 0 {
			got = len(vecs[0])
		}
		return nil, fmt.Errorf("embedding vector size mismatch: expected %d, got %d", cfg.VectorSize, got)
	}
	slog.Info("Embedding client validated", "model", cfg.EmbeddingModelName, "vector_size", cfg.VectorSize)
	return embedder, nil
}

// NewPipeline wires the indexing pipeline over the given stores.
func NewPipeline(cfg *config.Config, db *sql.DB, embedder indexer.Embedder, vs vectorstore.VectorStore) (*indexer.Pipeline, error) {
	splitter, err := indexer.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("failed to create splitter: %w", err)
	}
	return indexer.NewPipeline(
		cfg.DocsPath,
		splitter,
		storage.NewDocumentRepo(db),
		storage.NewChunkRepo(db),
		embedder,
		vs,
		cfg.VectorCollection,
	), nil
}
