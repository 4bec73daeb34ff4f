package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks kyschat/internal/service ChatService

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"kyschat/internal/contextutil"
	"kyschat/internal/rag"
	"kyschat/internal/storage"
)

// MaxQuestionRunes bounds the length of a question.
const MaxQuestionRunes = 2000

// AskRequest represents a question in the domain layer.
type AskRequest struct {
	Question string
	K        int
	Source   string
	Page     int
	Debug    bool
}

// AskResult is the engine answer plus the ID it was logged under.
// MessageID is 0 when the answer could not be persisted.
type AskResult struct {
	rag.AskResponse
	MessageID int64 `json:"message_id"`
}

// ChatService answers questions and records them for review.
type ChatService interface {
	// Ask answers a question and persists it.
	Ask(ctx context.Context, req AskRequest) (AskResult, error)
	// Stream answers a question through callback, then persists it.
	Stream(ctx context.Context, req AskRequest, callback func(chunk string) error) (AskResult, error)
}

// chatService implements ChatService.
type chatService struct {
	engine   rag.Engine
	messages storage.MessageStore
}

// NewChatService creates a new ChatService.
func NewChatService(engine rag.Engine, messages storage.MessageStore) ChatService {
	return &chatService{
		engine:   engine,
		messages: messages,
	}
}

// Ask processes a question.
func (s *chatService) Ask(ctx context.Context, req AskRequest) (AskResult, error) {
	return s.run(ctx, req, nil)
}

// Stream processes a question and streams the answer.
func (s *chatService) Stream(ctx context.Context, req AskRequest, callback func(chunk string) error) (AskResult, error) {
	if callback == nil {
		return AskResult{}, errors.New("callback is required")
	}
	return s.run(ctx, req, callback)
}

func (s *chatService) run(ctx context.Context, req AskRequest, callback func(chunk string) error) (AskResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	question, err := validateQuestion(req.Question)
	if err != nil {
		logger.WarnContext(ctx, "invalid question", "error", err)
		return AskResult{}, err
	}

	ragReq := rag.AskRequest{
		Question: question,
		K:        req.K,
		Source:   req.Source,
		Page:     req.Page,
		Debug:    req.Debug,
	}

	var resp rag.AskResponse
	if callback != nil {
		resp, err = s.engine.Stream(ctx, ragReq, callback)
	} else {
		resp, err = s.engine.Ask(ctx, ragReq)
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to answer question", "error", err)
		if errors.Is(err, rag.ErrSearch) {
			return AskResult{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		if errors.Is(err, context.Canceled) {
			return AskResult{}, err
		}
		return AskResult{}, fmt.Errorf("%w: %w", ErrExternalService, err)
	}

	result := AskResult{AskResponse: resp}
	id, err := s.persist(ctx, question, resp)
	if err != nil {
		// The user still gets the answer
		logger.ErrorContext(ctx, "failed to persist answer", "error", err)
	} else {
		result.MessageID = id
	}

	logger.InfoContext(ctx, "question answered", "message_id", result.MessageID, "abstained", resp.Abstained, "chunks", len(resp.Chunks))
	return result, nil
}

// persist stores the message, the chunks that produced it and the LLM metrics.
func (s *chatService) persist(ctx context.Context, question string, resp rag.AskResponse) (int64, error) {
	id, err := s.messages.SaveMessage(ctx, question, resp.Answer)
	if err != nil {
		return 0, err
	}

	chunks := make([]storage.RetrievedChunk, 0, len(resp.Chunks))
	for _, c := range resp.Chunks {
		chunks = append(chunks, storage.RetrievedChunk{
			ChunkText:  c.Text,
			Source:     c.Source,
			PageNumber: c.PageNumber,
			Confidence: c.Confidence,
		})
	}
	if err := s.messages.SaveRetrievedChunks(ctx, id, chunks); err != nil {
		return 0, err
	}

	if err := s.messages.SaveMetrics(ctx, id, storage.Metrics{
		PromptTokens:   resp.PromptTokens,
		ResponseTokens: resp.ResponseTokens,
		ResponseTime:   resp.ResponseTime,
	}); err != nil {
		return 0, err
	}
	return id, nil
}

func validateQuestion(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", &ValidationError{Field: "question", Message: "cannot be empty"}
	}
	if utf8.RuneCountInString(q) > MaxQuestionRunes {
		return "", &ValidationError{Field: "question", Message: fmt.Sprintf("must be at most %d characters", MaxQuestionRunes)}
	}
	return q, nil
}
