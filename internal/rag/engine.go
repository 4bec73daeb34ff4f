package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks kyschat/internal/rag Engine,Embedder,ChatModel

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"kyschat/internal/contextutil"
	"kyschat/internal/llm"
	"kyschat/internal/storage"
	"kyschat/internal/vectorstore"
)

// Retrieval limits.
const (
	DefaultK = 3
	MaxK     = 20
)

// ErrSearch marks a vector store failure during retrieval.
var ErrSearch = errors.New("failed to search vector store")

// Engine provides RAG (Retrieval-Augmented Generation) functionality.
type Engine interface {
	// Ask answers a question using RAG by retrieving relevant chunks and generating an answer.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
	// Stream is Ask with the answer delivered through onToken as it is generated.
	Stream(ctx context.Context, req AskRequest, onToken func(string) error) (AskResponse, error)
}

// Embedder generates vectors for texts.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatModel is the LLM used to generate answers.
type ChatModel interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (llm.ChatResult, error)
	StreamWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams, callback func(chunk string) error) (llm.ChatResult, error)
}

// ragEngine implements the Engine interface.
type ragEngine struct {
	embedder    Embedder
	vectorStore vectorstore.VectorStore
	collection  string
	chunks      storage.ChunkStore
	chatModel   ChatModel
	defaultK    int
	now         func() time.Time
}

// NewEngine creates a new RAG engine. defaultK <= 0 uses DefaultK.
func NewEngine(
	embedder Embedder,
	vectorStore vectorstore.VectorStore,
	collection string,
	chunks storage.ChunkStore,
	chatModel ChatModel,
	defaultK int,
) Engine {
	if defaultK <= 0 {
		defaultK = DefaultK
	}
	return &ragEngine{
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
		chunks:      chunks,
		chatModel:   chatModel,
		defaultK:    min(defaultK, MaxK),
		now:         time.Now,
	}
}

// Ask answers a question using RAG.
func (e *ragEngine) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	return e.answer(ctx, req, nil)
}

// Stream answers a question, calling onToken for each generated piece.
// When nothing is retrieved the fallback answer is sent as a single token.
func (e *ragEngine) Stream(ctx context.Context, req AskRequest, onToken func(string) error) (AskResponse, error) {
	if onToken == nil {
		return AskResponse{}, errors.New("onToken callback is required")
	}
	return e.answer(ctx, req, onToken)
}

func (e *ragEngine) answer(ctx context.Context, req AskRequest, onToken func(string) error) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := e.now()

	k := e.effectiveK(req.K)
	logger.InfoContext(ctx, "RAG query started", "question", req.Question, "k", k, "stream", onToken != nil)

	chunks, debug, err := e.retrieve(ctx, req, k)
	if err != nil {
		return AskResponse{}, err
	}

	resp := AskResponse{
		Citations:  FormatCitations(chunks),
		Pages:      PageSummary(chunks),
		Confidence: OverallConfidence(chunks),
		Chunks:     chunks,
	}
	resp.ConfidenceLevel = LevelFor(resp.Confidence)

	if len(chunks) == 0 {
		logger.InfoContext(ctx, "no relevant chunks found, abstaining")
		resp.Answer = FallbackAnswer
		resp.Abstained = true
		if onToken != nil {
			if err := onToken(FallbackAnswer); err != nil {
				return AskResponse{}, err
			}
		}
		resp.ResponseTime = e.elapsed(start)
		if req.Debug {
			resp.Debug = debug
		}
		return resp, nil
	}

	messages := buildMessages(req.Question, chunks)
	debug.Messages = messages
	logger.DebugContext(ctx, "sending request to LLM", "messages", len(messages), "context_chunks", len(chunks))

	var result llm.ChatResult
	if onToken != nil {
		result, err = e.chatModel.StreamWithMessages(ctx, messages, llm.ChatParams{}, onToken)
	} else {
		result, err = e.chatModel.ChatWithMessages(ctx, messages, llm.ChatParams{})
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to get LLM response", "error", err)
		return AskResponse{}, fmt.Errorf("failed to get LLM response: %w", err)
	}

	resp.Answer = result.Content
	resp.PromptTokens = result.PromptTokens
	resp.ResponseTokens = result.CompletionTokens
	resp.ResponseTime = e.elapsed(start)
	if req.Debug {
		resp.Debug = debug
	}

	logger.InfoContext(ctx, "RAG query completed",
		"chunks_used", len(chunks),
		"confidence", resp.Confidence,
		"level", resp.ConfidenceLevel,
		"prompt_tokens", resp.PromptTokens,
		"response_tokens", resp.ResponseTokens,
		"response_time", resp.ResponseTime,
	)
	return resp, nil
}

// effectiveK applies the default and the upper bound.
func (e *ragEngine) effectiveK(k int) int {
	if k <= 0 {
		return e.defaultK
	}
	return min(k, MaxK)
}

// retrieve embeds the question, searches the vector store and scores the hits.
func (e *ragEngine) retrieve(ctx context.Context, req AskRequest, k int) ([]ChunkResult, *DebugInfo, error) {
	logger := contextutil.LoggerFromContext(ctx)

	embeddings, err := e.embedder.EmbedTexts(ctx, []string{req.Question})
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed question", "error", err)
		return nil, nil, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, nil, fmt.Errorf("no embedding returned for question")
	}

	results, err := e.vectorStore.Search(ctx, e.collection, embeddings[0], k, vectorstore.Filters{
		Source:     req.Source,
		PageNumber: req.Page,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to search vector store", "error", err)
		return nil, nil, fmt.Errorf("%w: %w", ErrSearch, err)
	}
	logger.InfoContext(ctx, "vector search completed", "results_count", len(results), "k_requested", k)

	debug := &DebugInfo{K: k, SearchResults: len(results)}
	chunks := make([]ChunkResult, 0, len(results))
	for _, result := range results {
		text := e.chunkText(ctx, result)
		if text == "" {
			debug.Dropped = append(debug.Dropped, result.PointID)
			continue
		}

		rank := len(chunks) + 1
		similarity := Similarity(result.Score, result.Kind)
		confidence := ChunkConfidence(similarity, rank, text)
		chunks = append(chunks, ChunkResult{
			ChunkID:    result.PointID,
			Source:     vectorstore.MetaString(result.Meta, vectorstore.MetaSource),
			PageNumber: vectorstore.MetaInt(result.Meta, vectorstore.MetaPageNumber),
			ChunkIndex: vectorstore.MetaInt(result.Meta, vectorstore.MetaChunkIndex),
			Text:       text,
			Rank:       rank,
			Similarity: round4(similarity),
			Confidence: confidence,
			Level:      LevelFor(confidence),
		})
		logger.DebugContext(ctx, "retrieved chunk", "rank", rank, "score", result.Score, "confidence", confidence, "chunk_id", result.PointID)
	}

	return chunks, debug, nil
}

// chunkText reads the chunk from SQLite, falling back to the payload text.
func (e *ragEngine) chunkText(ctx context.Context, result vectorstore.SearchResult) string {
	chunk, err := e.chunks.GetByID(ctx, result.PointID)
	if err == nil {
		return chunk.Text
	}
	if !errors.Is(err, storage.ErrNotFound) {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to fetch chunk text", "chunk_id", result.PointID, "error", err)
	}
	return vectorstore.MetaString(result.Meta, vectorstore.MetaText)
}

func (e *ragEngine) elapsed(start time.Time) float64 {
	return math.Round(e.now().Sub(start).Seconds()*1000) / 1000
}
