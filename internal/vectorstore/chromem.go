package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"kyschat/internal/contextutil"
)

// errNoEmbedder is returned if chromem is ever asked to embed text itself.
// Points always carry precomputed vectors.
var errNoEmbedder = errors.New("chromem store requires precomputed embeddings")

func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbedder
}

// ChromemStore implements VectorStore on an embedded chromem-go database
// persisted under a local directory.
type ChromemStore struct {
	db *chromem.DB

	mu    sync.Mutex
	sizes map[string]int // Vector size per collection, set by EnsureCollection
}

// NewChromemStore opens (or creates) a persistent chromem database at path.
// An empty path keeps everything in memory.
func NewChromemStore(path string) (*ChromemStore, error) {
	var (
		db  *chromem.DB
		err error
	)
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem database: %w", err)
		}
	}

	return &ChromemStore{
		db:    db,
		sizes: make(map[string]int),
	}, nil
}

func (s *ChromemStore) collection(name string) (*chromem.Collection, error) {
	c, err := s.db.GetOrCreateCollection(name, nil, noEmbedding)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", name, err)
	}
	return c, nil
}

// EnsureCollection creates the collection if needed. chromem has no declared vector
// size, so the size is remembered and checked on upsert.
func (s *ChromemStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	if vectorSize <= 0 {
		return fmt.Errorf("vector size must be greater than 0")
	}
	c, err := s.collection(collection)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sizes[collection] = vectorSize
	s.mu.Unlock()

	logger.InfoContext(ctx, "collection ready", "collection", collection, "vector_size", vectorSize, "count", c.Count())
	return nil
}

// Upsert inserts or updates points. Metadata values are stored as strings.
func (s *ChromemStore) Upsert(ctx context.Context, collection string, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(points) == 0 {
		return nil
	}

	c, err := s.collection(collection)
	if err != nil {
		return err
	}

	s.mu.Lock()
	want := s.sizes[collection]
	s.mu.Unlock()

	docs := make([]chromem.Document, 0, len(points))
	for _, p := range points {
		if want > 0 && len(p.Vec) != want {
			return fmt.Errorf("point %s has vector size %d, expected %d", p.ID, len(p.Vec), want)
		}
		meta := make(map[string]string, len(p.Meta))
		content := ""
		for k, v := range p.Meta {
			if k == MetaText {
				content = fmt.Sprint(v)
				continue
			}
			meta[k] = fmt.Sprint(v)
		}
		docs = append(docs, chromem.Document{
			ID:        p.ID,
			Metadata:  meta,
			Embedding: p.Vec,
			Content:   content,
		})
	}

	// Documents with an existing ID are overwritten in memory and on disk
	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", collection, "count", len(points), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.InfoContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return nil
}

// Search performs a cosine similarity search. k is clamped to the number of
// stored points since chromem rejects larger result counts.
func (s *ChromemStore) Search(ctx context.Context, collection string, query []float32, k int, filters Filters) ([]SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	c, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	where := make(map[string]string, 2)
	if filters.Source != "" {
		where[MetaSource] = filters.Source
	}
	if filters.PageNumber > 0 {
		where[MetaPageNumber] = strconv.Itoa(filters.PageNumber)
	}

	n := min(k, c.Count())
	if n == 0 {
		return []SearchResult{}, nil
	}

	// A filtered query may return fewer than n results
	res, err := c.QueryEmbedding(ctx, query, n, where, nil)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", collection, "k", k, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]SearchResult, 0, len(res))
	for _, r := range res {
		meta := make(map[string]any, len(r.Metadata)+1)
		for key, v := range r.Metadata {
			meta[key] = v
		}
		// Integer payloads round-trip as int64 like Qdrant's
		for _, key := range []string{MetaPageNumber, MetaChunkIndex} {
			if v, ok := r.Metadata[key]; ok {
				if i, err := strconv.ParseInt(v, 10, 64); err == nil {
					meta[key] = i
				}
			}
		}
		meta[MetaText] = r.Content

		results = append(results, SearchResult{
			PointID: r.ID,
			Score:   r.Similarity,
			Kind:    ScoreSimilarity,
			Meta:    meta,
		})
	}

	logger.InfoContext(ctx, "search completed", "collection", collection, "k", k, "results", len(results))
	return results, nil
}

// Delete removes points by their IDs.
func (s *ChromemStore) Delete(ctx context.Context, collection string, ids []string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(ids) == 0 {
		return nil
	}

	c, err := s.collection(collection)
	if err != nil {
		return err
	}
	if err := c.Delete(ctx, nil, nil, ids...); err != nil {
		logger.ErrorContext(ctx, "failed to delete points", "collection", collection, "count", len(ids), "error", err)
		return fmt.Errorf("failed to delete points: %w", err)
	}

	logger.InfoContext(ctx, "deleted points", "collection", collection, "count", len(ids))
	return nil
}

// CollectionExists checks if a collection exists.
func (s *ChromemStore) CollectionExists(_ context.Context, collection string) (bool, error) {
	_, ok := s.db.ListCollections()[collection]
	return ok, nil
}

// Count returns the number of points in the collection.
func (s *ChromemStore) Count(_ context.Context, collection string) (int, error) {
	c := s.db.GetCollection(collection, noEmbedding)
	if c == nil {
		return 0, nil
	}
	return c.Count(), nil
}
