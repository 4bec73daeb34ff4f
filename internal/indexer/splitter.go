package indexer

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// Default chunking parameters, in runes.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// Splitter cuts page text into overlapping chunks with a recursive character splitter.
type Splitter struct {
	size    int
	overlap int
	inner   textsplitter.RecursiveCharacter
}

// NewSplitter creates a splitter. Non-positive values fall back to the defaults.
func NewSplitter(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", overlap, size)
	}

	return &Splitter{
		size:    size,
		overlap: overlap,
		inner: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
		),
	}, nil
}

// Split chunks every page separately so each chunk keeps its page number.
// Chunk indexes run across the whole document.
func (s *Splitter) Split(pages []Page) ([]Chunk, error) {
	var chunks []Chunk
	for _, page := range pages {
		parts, err := s.inner.SplitText(page.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to split page %d: %w", page.Number, err)
		}
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			chunks = append(chunks, Chunk{
				Index:      len(chunks),
				PageNumber: page.Number,
				Text:       part,
			})
		}
	}
	return chunks, nil
}

// Params describes the splitter settings, used in the index version.
func (s *Splitter) Params() string {
	return fmt.Sprintf("chunkSize=%d|chunkOverlap=%d", s.size, s.overlap)
}
