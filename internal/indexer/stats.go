package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"slices"
	"unicode/utf8"

	"kyschat/internal/storage"
)

const (
	// ChunkerVersion is the version identifier for the chunker implementation.
	// Update this when chunking logic changes significantly.
	ChunkerVersion = "recursive-v1"
	// TokensPerRune is an approximation for token counting (4 runes per token).
	TokensPerRune = 4.0
)

// IndexingCoverageStats contains statistics about the indexing process.
type IndexingCoverageStats struct {
	// DocsProcessed is the total number of documents processed.
	DocsProcessed int `json:"docs_processed"`
	// DocsWith0Chunks is the number of documents that produced 0 chunks.
	DocsWith0Chunks int `json:"docs_with_0_chunks"`
	// ChunksEmbedded is the number of chunks stored.
	ChunksEmbedded int `json:"chunks_embedded"`
	// ChunkTokenStats contains statistics about token counts per chunk.
	ChunkTokenStats ChunkTokenStats `json:"chunk_token_stats"`
	// ChunkerVersion is the version of the chunker used.
	ChunkerVersion string `json:"chunker_version"`
	// IndexVersion is a hash identifying the index build (chunker + embedding model + splitter params).
	IndexVersion string `json:"index_version"`
}

// ChunkTokenStats contains statistics about token counts in chunks.
type ChunkTokenStats struct {
	// Min is the minimum token count across all chunks.
	Min int `json:"min"`
	// Max is the maximum token count across all chunks.
	Max int `json:"max"`
	// Mean is the mean token count across all chunks.
	Mean float64 `json:"mean"`
	// P95 is the 95th percentile token count.
	P95 int `json:"p95"`
}

// GetIndexingCoverageStats computes indexing coverage statistics from the database.
// This method queries the current state of the index to compute stats.
func (p *Pipeline) GetIndexingCoverageStats(ctx context.Context, embeddingModelName string) (*IndexingCoverageStats, error) {
	documentRepo, ok := p.documents.(*storage.DocumentRepo)
	if !ok {
		return nil, fmt.Errorf("documents is not *storage.DocumentRepo, cannot query stats")
	}

	chunkRepo, ok := p.chunks.(*storage.ChunkRepo)
	if !ok {
		return nil, fmt.Errorf("chunks is not *storage.ChunkRepo, cannot query stats")
	}

	stats := &IndexingCoverageStats{
		ChunkerVersion: ChunkerVersion,
	}

	docs, err := documentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	stats.DocsProcessed = len(docs)

	docsWith0Chunks, err := documentRepo.CountWithoutChunks(ctx)
	if err != nil {
		return nil, err
	}
	stats.DocsWith0Chunks = docsWith0Chunks

	texts, err := chunkRepo.ListTexts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chunks: %w", err)
	}
	stats.ChunksEmbedded = len(texts)

	tokenCounts := make([]int, 0, len(texts))
	for _, t := range texts {
		tokenCounts = append(tokenCounts, estimateTokens(t))
	}
	stats.ChunkTokenStats = computeTokenStats(tokenCounts)

	stats.IndexVersion = indexVersion(embeddingModelName, p.splitter.Params())
	return stats, nil
}

// estimateTokens approximates tokens from the rune count (~4 runes per token).
// Word counts are useless for Thai, which has no spaces between words.
func estimateTokens(s string) int {
	n := int(math.Round(float64(utf8.RuneCountInString(s)) / TokensPerRune))
	if n < 1 {
		return 1
	}
	return n
}

// indexVersion hashes everything that changes the vectors of an index build.
func indexVersion(embeddingModelName, splitterParams string) string {
	input := fmt.Sprintf("%s|%s|%s", ChunkerVersion, embeddingModelName, splitterParams)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16] // 16 hex chars = 64 bits
}

// computeTokenStats summarises chunk sizes. P95 uses the nearest-rank method.
func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	n := len(tokenCounts)
	if n == 0 {
		return ChunkTokenStats{}
	}

	sorted := slices.Clone(tokenCounts)
	slices.Sort(sorted)

	sum := 0
	for _, c := range sorted {
		sum += c
	}

	rank := int(math.Ceil(0.95 * float64(n)))
	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[n-1],
		Mean: math.Round(float64(sum)/float64(n)*100) / 100,
		P95:  sorted[max(rank, 1)-1],
	}
}
