package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks kyschat/internal/vectorstore VectorStore

import (
	"context"
	"strconv"
)

// Payload keys written with every chunk point.
const (
	MetaDocumentID = "document_id"
	MetaSource     = "source"
	MetaPageNumber = "page_number"
	MetaChunkIndex = "chunk_index"
	MetaText       = "text"
)

// ScoreKind tells how SearchResult.Score should be read.
type ScoreKind int

const (
	// ScoreSimilarity is a cosine similarity, higher is closer.
	ScoreSimilarity ScoreKind = iota
	// ScoreDistance is a cosine distance, lower is closer.
	ScoreDistance
)

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
type SearchResult struct {
	PointID string
	Score   float32
	Kind    ScoreKind
	Meta    map[string]any
}

// Filters narrows a search. Zero values mean no filter.
type Filters struct {
	Source     string
	PageNumber int
}

// VectorStore defines the interface for vector storage operations.
type VectorStore interface {
	// EnsureCollection creates the collection if needed and checks its vector size.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error

	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a similarity search with optional filters.
	Search(ctx context.Context, collection string, query []float32, k int, filters Filters) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error

	// CollectionExists reports whether the collection has been created.
	CollectionExists(ctx context.Context, collection string) (bool, error)

	// Count returns the number of points in the collection.
	Count(ctx context.Context, collection string) (int, error)
}

// MetaInt reads an integer payload value regardless of how the backend stored it.
func MetaInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

// MetaString reads a string payload value.
func MetaString(meta map[string]any, key string) string {
	if s, ok := meta[key].(string); ok {
		return s
	}
	return ""
}
