package indexer

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"kyschat/internal/storage"
)

func TestGetIndexingCoverageStats(t *testing.T) {
	db, err := storage.New(filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	documents := storage.NewDocumentRepo(db)
	chunks := storage.NewChunkRepo(db)
	splitter, _ := NewSplitter(DefaultChunkSize, DefaultChunkOverlap)

	pipeline := &Pipeline{
		documents: documents,
		chunks:    chunks,
		splitter:  splitter,
	}

	ctx := context.Background()
	embeddingModelName := "bge-m3"

	// Test with empty database
	stats, err := pipeline.GetIndexingCoverageStats(ctx, embeddingModelName)
	if err != nil {
		t.Fatalf("GetIndexingCoverageStats() error = %v", err)
	}
	if stats.DocsProcessed != 0 || stats.DocsWith0Chunks != 0 || stats.ChunksEmbedded != 0 {
		t.Errorf("empty stats = %+v", stats)
	}
	if stats.ChunkerVersion != ChunkerVersion {
		t.Errorf("ChunkerVersion = %s, want %s", stats.ChunkerVersion, ChunkerVersion)
	}
	if stats.IndexVersion == "" {
		t.Error("IndexVersion should not be empty")
	}

	chunkTexts := map[string][]string{
		"loan.pdf": {
			"ผู้กู้ยืม",
			"ผู้กู้ยืมต้องมีสัญชาติไทย",
			"นักเรียนหรือนักศึกษาที่ขาดแคลนทุนทรัพย์ รายได้ครอบครัวไม่เกิน 360,000 บาทต่อปี ต้องศึกษาในสถานศึกษาที่เข้าร่วมโครงการ",
		},
		"repay.md":  {"ชำระหนี้", "ชำระหนี้"},
		"empty.txt": nil, // counted in DocsWith0Chunks
	}

	for source, texts := range chunkTexts {
		doc := &storage.DocumentRecord{Source: source, Title: source, Hash: "hash-" + source, Pages: 1}
		if err := documents.Upsert(ctx, doc); err != nil {
			t.Fatalf("Upsert(%s) error = %v", source, err)
		}
		for i, text := range texts {
			if err := chunks.Insert(ctx, &storage.ChunkRecord{
				ID:         fmt.Sprintf("%s-%d", doc.ID, i),
				DocumentID: doc.ID,
				ChunkIndex: i,
				PageNumber: 1,
				Text:       text,
			}); err != nil {
				t.Fatalf("Insert() error = %v", err)
			}
		}
	}

	stats, err = pipeline.GetIndexingCoverageStats(ctx, embeddingModelName)
	if err != nil {
		t.Fatalf("GetIndexingCoverageStats() error = %v", err)
	}

	if stats.DocsProcessed != 3 {
		t.Errorf("DocsProcessed = %d, want 3", stats.DocsProcessed)
	}
	if stats.DocsWith0Chunks != 1 {
		t.Errorf("DocsWith0Chunks = %d, want 1", stats.DocsWith0Chunks)
	}
	if stats.ChunksEmbedded != 5 {
		t.Errorf("ChunksEmbedded = %d, want 5", stats.ChunksEmbedded)
	}

	// Check token stats
	if stats.ChunkTokenStats.Min < 1 {
		t.Errorf("ChunkTokenStats.Min = %d, want >= 1", stats.ChunkTokenStats.Min)
	}
	if stats.ChunkTokenStats.Max <= stats.ChunkTokenStats.Min {
		t.Errorf("ChunkTokenStats.Max = %d, should be > Min = %d", stats.ChunkTokenStats.Max, stats.ChunkTokenStats.Min)
	}
	if stats.ChunkTokenStats.P95 < stats.ChunkTokenStats.Min || stats.ChunkTokenStats.P95 > stats.ChunkTokenStats.Max {
		t.Errorf("ChunkTokenStats.P95 = %d, should be between Min=%d and Max=%d",
			stats.ChunkTokenStats.P95, stats.ChunkTokenStats.Min, stats.ChunkTokenStats.Max)
	}

	// The index version only depends on the build parameters
	other, _ := pipeline.GetIndexingCoverageStats(ctx, "nomic-embed-text")
	if other.IndexVersion == stats.IndexVersion {
		t.Error("IndexVersion should change with the embedding model")
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 1},
		{"short", "กยศ", 1},
		{"thai without spaces", "ผู้กู้ยืมต้องมีสัญชาติไทย", 6},
		{"ascii", "interest rate", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := estimateTokens(tt.text); got != tt.want {
				t.Errorf("estimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestComputeTokenStats(t *testing.T) {
	seq := make([]int, 40)
	for i := range seq {
		seq[i] = i + 1
	}

	tests := []struct {
		name   string
		counts []int
		want   ChunkTokenStats
	}{
		{"no chunks", nil, ChunkTokenStats{}},
		{"one chunk", []int{125}, ChunkTokenStats{Min: 125, Max: 125, Mean: 125, P95: 125}},
		{"input order does not matter", []int{120, 40, 80}, ChunkTokenStats{Min: 40, Max: 120, Mean: 80, P95: 120}},
		{"p95 below max", seq, ChunkTokenStats{Min: 1, Max: 40, Mean: 20.5, P95: 38}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeTokenStats(tt.counts); got != tt.want {
				t.Errorf("computeTokenStats() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGetIndexingCoverageStats_ErrorHandling(t *testing.T) {
	// Interfaces that are not the SQLite repos cannot be queried
	pipeline := &Pipeline{
		documents: nil,
		chunks:    nil,
	}

	ctx := context.Background()
	_, err := pipeline.GetIndexingCoverageStats(ctx, "bge-m3")
	if err == nil {
		t.Error("GetIndexingCoverageStats() should return error with nil repos")
	}
}
