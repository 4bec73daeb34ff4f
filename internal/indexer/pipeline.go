package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"kyschat/internal/contextutil"
	"kyschat/internal/storage"
	"kyschat/internal/vectorstore"
)

// DefaultBatchSize is how many chunks are embedded per request.
const DefaultBatchSize = 32

// Embedder generates vectors for texts.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Outcome is the result of indexing one document.
type Outcome string

const (
	OutcomeIndexed   Outcome = "indexed"
	OutcomeUnchanged Outcome = "unchanged"
)

// Summary reports an IndexAll run.
type Summary struct {
	Files     int `json:"files"`
	Indexed   int `json:"indexed"`
	Unchanged int `json:"unchanged"`
	Errors    int `json:"errors"`
	Chunks    int `json:"chunks"`
}

// Pipeline orchestrates the indexing of loan documents into SQLite and the vector store.
type Pipeline struct {
	docsPath    string
	loader      *Loader
	splitter    *Splitter
	documents   storage.DocumentStore
	chunks      storage.ChunkStore
	embedder    Embedder
	vectorStore vectorstore.VectorStore
	collection  string
	batchSize   int
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(
	docsPath string,
	splitter *Splitter,
	documents storage.DocumentStore,
	chunks storage.ChunkStore,
	embedder Embedder,
	vectorStore vectorstore.VectorStore,
	collection string,
) *Pipeline {
	return &Pipeline{
		docsPath:    docsPath,
		loader:      NewLoader(),
		splitter:    splitter,
		documents:   documents,
		chunks:      chunks,
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
		batchSize:   DefaultBatchSize,
	}
}

// IndexDocument indexes a single file.
// It skips files whose content hash is unchanged, otherwise replaces the
// document's chunks in both SQLite and the vector store.
func (p *Pipeline) IndexDocument(ctx context.Context, path string) (Outcome, int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	doc, err := p.loader.Load(path)
	if err != nil {
		return "", 0, err
	}

	source := filepath.ToSlash(path)
	hash := sha256.Sum256(doc.Content)
	hashHex := fmt.Sprintf("%x", hash)

	existing, err := p.documents.GetBySource(ctx, source)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", 0, fmt.Errorf("failed to check existing document: %w", err)
	}

	// Skip re-indexing if hash matches
	if existing != nil && existing.Hash == hashHex {
		logger.DebugContext(ctx, "skipping unchanged document", "source", source, "hash", hashHex)
		return OutcomeUnchanged, 0, nil
	}

	chunks, err := p.splitter.Split(doc.Pages)
	if err != nil {
		return "", 0, fmt.Errorf("failed to split %s: %w", source, err)
	}
	if len(chunks) == 0 {
		return "", 0, fmt.Errorf("%s: %w", source, ErrEmptyDocument)
	}

	// Embed before touching the stores so a failed run keeps the old index
	embeddings, err := p.embed(ctx, chunks)
	if err != nil {
		return "", 0, err
	}

	record := &storage.DocumentRecord{
		Source: source,
		Title:  doc.Title,
		Hash:   hashHex,
		Pages:  len(doc.Pages),
	}
	if existing != nil {
		record.ID = existing.ID
		if err := p.removeChunks(ctx, existing.ID); err != nil {
			return "", 0, err
		}
	}
	if err := p.documents.Upsert(ctx, record); err != nil {
		return "", 0, fmt.Errorf("failed to upsert document: %w", err)
	}

	points := make([]vectorstore.Point, len(chunks))
	for i, chunk := range chunks {
		chunkID := generateStableChunkID(record.ID, chunk.PageNumber, chunk.Index, chunk.Text)

		if err := p.chunks.Insert(ctx, &storage.ChunkRecord{
			ID:         chunkID,
			DocumentID: record.ID,
			ChunkIndex: chunk.Index,
			PageNumber: chunk.PageNumber,
			Text:       chunk.Text,
		}); err != nil {
			return "", 0, fmt.Errorf("failed to insert chunk: %w", err)
		}

		points[i] = vectorstore.Point{
			ID:  chunkID,
			Vec: embeddings[i],
			Meta: map[string]any{
				vectorstore.MetaDocumentID: record.ID,
				vectorstore.MetaSource:     source,
				vectorstore.MetaPageNumber: chunk.PageNumber,
				vectorstore.MetaChunkIndex: chunk.Index,
				vectorstore.MetaText:       chunk.Text,
			},
		}
	}

	if err := p.vectorStore.Upsert(ctx, p.collection, points); err != nil {
		return "", 0, fmt.Errorf("failed to upsert vectors: %w", err)
	}

	logger.InfoContext(ctx, "indexed document", "source", source, "pages", len(doc.Pages), "chunks", len(chunks), "title", doc.Title)
	return OutcomeIndexed, len(chunks), nil
}

func (p *Pipeline) embed(ctx context.Context, chunks []Chunk) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += p.batchSize {
		end := min(start+p.batchSize, len(chunks))

		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		vecs, err := p.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(vecs))
		}
		embeddings = append(embeddings, vecs...)
	}
	return embeddings, nil
}

// removeChunks deletes a document's chunks from the vector store and SQLite.
func (p *Pipeline) removeChunks(ctx context.Context, documentID string) error {
	logger := contextutil.LoggerFromContext(ctx)

	oldIDs, err := p.chunks.ListIDsByDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to list old chunk IDs: %w", err)
	}
	if len(oldIDs) == 0 {
		return nil
	}

	if err := p.vectorStore.Delete(ctx, p.collection, oldIDs); err != nil {
		// Stale points are overwritten or filtered out when their chunk row is gone
		logger.WarnContext(ctx, "failed to delete old vectors", "error", err, "count", len(oldIDs))
	}
	if err := p.chunks.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete old chunks: %w", err)
	}
	return nil
}

// IndexAll scans the documents path and indexes every supported file.
// Errors for individual files are logged but don't stop the indexing process.
func (p *Pipeline) IndexAll(ctx context.Context) (*Summary, error) {
	logger := contextutil.LoggerFromContext(ctx)

	files, err := ScanDocuments(ctx, p.docsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to scan documents: %w", err)
	}

	logger.InfoContext(ctx, "starting indexing", "total_files", len(files), "path", p.docsPath)

	summary := &Summary{Files: len(files)}
	for _, file := range files {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		outcome, n, err := p.IndexDocument(ctx, file.AbsPath)
		if err != nil {
			summary.Errors++
			logger.ErrorContext(ctx, "failed to index file", "rel_path", file.RelPath, "error", err)
			continue
		}
		switch outcome {
		case OutcomeIndexed:
			summary.Indexed++
			summary.Chunks += n
		case OutcomeUnchanged:
			summary.Unchanged++
		}
	}

	logger.InfoContext(ctx, "indexing completed",
		"total_files", summary.Files, "indexed", summary.Indexed, "unchanged", summary.Unchanged,
		"errors", summary.Errors, "chunks", summary.Chunks)

	if summary.Errors > 0 {
		return summary, fmt.Errorf("indexing completed with %d errors", summary.Errors)
	}
	return summary, nil
}

// ClearAll removes every indexed document from SQLite and the vector store.
func (p *Pipeline) ClearAll(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	docs, err := p.documents.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	for _, doc := range docs {
		if err := p.removeChunks(ctx, doc.ID); err != nil {
			return err
		}
		if err := p.documents.Delete(ctx, doc.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to delete document %s: %w", doc.Source, err)
		}
	}

	logger.InfoContext(ctx, "cleared index", "documents", len(docs))
	return nil
}

// chunkNamespace scopes chunk UUIDs generated by this indexer.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("kyschat/chunks"))

// generateStableChunkID derives a UUID from the chunk's position and text, so
// re-indexing identical content yields identical point IDs.
func generateStableChunkID(documentID string, pageNumber, chunkIndex int, text string) string {
	key := fmt.Sprintf("%s|%d|%d|%s", documentID, pageNumber, chunkIndex, text)
	return uuid.NewSHA1(chunkNamespace, []byte(key)).String()
}
