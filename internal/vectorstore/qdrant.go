package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"kyschat/internal/contextutil"
)

// QdrantStore implements VectorStore using Qdrant.
type QdrantStore struct {
	client *qdrant.Client
}

// NewQdrantStore creates a new Qdrant vector store client.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port (typically 6334) will be derived from the HTTP port.
func NewQdrantStore(urlStr string) (*QdrantStore, error) {
	host, port, err := grpcAddress(urlStr)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantStore{
		client: client,
	}, nil
}

// grpcAddress derives the gRPC host and port from the HTTP URL.
func grpcAddress(urlStr string) (string, int, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334 // Default gRPC port
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err == nil {
			// gRPC port is typically HTTP port + 1
			port = httpPort + 1
		}
	}
	return host, port, nil
}

// Upsert writes points and waits until Qdrant has applied them, so a search
// issued right after indexing sees the new chunks.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		structs[i] = toPointStruct(p)
	}

	wait := true
	if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           &wait,
		Points:         structs,
	}); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "qdrant upsert failed",
			"collection", collection, "points", len(points), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "qdrant upsert", "collection", collection, "points", len(points))
	return nil
}

// toPointStruct maps a chunk point onto Qdrant's wire type. Chunk IDs are UUIDs.
func toPointStruct(p Point) *qdrant.PointStruct {
	ps := &qdrant.PointStruct{
		Id:      qdrant.NewID(p.ID),
		Vectors: qdrant.NewVectors(p.Vec...),
	}
	if len(p.Meta) > 0 {
		ps.Payload = qdrant.NewValueMap(p.Meta)
	}
	return ps
}

// Search returns the k nearest chunks. Cosine collections score by similarity,
// so results come back highest first.
func (s *QdrantStore) Search(ctx context.Context, collection string, query []float32, k int, filters Filters) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	limit := uint64(k)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(query...),
		Filter:         buildFilter(filters),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "qdrant search failed",
			"collection", collection, "k", k, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]SearchResult, len(points))
	for i, p := range points {
		results[i] = SearchResult{
			PointID: p.GetId().GetUuid(),
			Score:   p.GetScore(),
			Kind:    ScoreSimilarity,
			Meta:    payloadToMeta(p.GetPayload()),
		}
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "qdrant search", "collection", collection, "k", k, "results", len(results))
	return results, nil
}

// buildFilter turns Filters into Qdrant must-conditions, or nil when empty.
func buildFilter(filters Filters) *qdrant.Filter {
	conditions := make([]*qdrant.Condition, 0, 2)
	if filters.Source != "" {
		conditions = append(conditions, qdrant.NewMatch(MetaSource, filters.Source))
	}
	if filters.PageNumber > 0 {
		// page_number is stored as an integer payload
		conditions = append(conditions, qdrant.NewMatchInt(MetaPageNumber, int64(filters.PageNumber)))
	}
	if len(conditions) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: conditions}
}

// Delete removes points by chunk ID.
func (s *QdrantStore) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewID(id)
	}

	wait := true
	if _, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Wait:           &wait,
		Points:         qdrant.NewPointsSelector(pointIDs...),
	}); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "qdrant delete failed",
			"collection", collection, "points", len(ids), "error", err)
		return fmt.Errorf("failed to delete points: %w", err)
	}
	return nil
}

// CollectionExists reports whether the collection has been created.
func (s *QdrantStore) CollectionExists(ctx context.Context, collection string) (bool, error) {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return false, fmt.Errorf("failed to check collection %s: %w", collection, err)
	}
	return exists, nil
}

// Count returns the exact number of points in the collection.
func (s *QdrantStore) Count(ctx context.Context, collection string) (int, error) {
	exact := true
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return int(n), nil
}

// Close releases the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// EnsureCollection creates a cosine collection of vectorSize dimensions, or
// checks that an existing one was created with the same size. A mismatch means
// the embedding model changed and the collection has to be rebuilt.
func (s *QdrantStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := s.CollectionExists(ctx, collection)
	if err != nil {
		return err
	}

	if !exists {
		if err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		}); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", collection, err)
		}
		logger.InfoContext(ctx, "qdrant collection created", "collection", collection, "vector_size", vectorSize)
		return nil
	}

	info, err := s.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}
	actual := collectionVectorSize(info)
	if actual == 0 {
		return fmt.Errorf("collection %s has no single dense vector config", collection)
	}
	if actual != vectorSize {
		return fmt.Errorf("collection %s vector size mismatch: expected %d, got %d", collection, vectorSize, actual)
	}

	logger.InfoContext(ctx, "qdrant collection validated", "collection", collection, "vector_size", vectorSize)
	return nil
}

// collectionVectorSize reads the dense vector size, 0 when the collection uses
// named vectors or the info is incomplete.
func collectionVectorSize(info *qdrant.CollectionInfo) int {
	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	return int(params.GetSize())
}

// payloadToMeta flattens a Qdrant payload into plain Go values.
func payloadToMeta(payload map[string]*qdrant.Value) map[string]any {
	meta := make(map[string]any, len(payload))
	for k, v := range payload {
		if v != nil {
			meta[k] = valueToAny(v)
		}
	}
	return meta
}

func valueToAny(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_ListValue:
		values := kind.ListValue.GetValues()
		out := make([]any, len(values))
		for i, item := range values {
			out[i] = valueToAny(item)
		}
		return out
	case *qdrant.Value_StructValue:
		return payloadToMeta(kind.StructValue.GetFields())
	}
	return nil
}
