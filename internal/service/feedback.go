package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_feedback_service.go -package=mocks kyschat/internal/service FeedbackService

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"kyschat/internal/contextutil"
	"kyschat/internal/storage"
)

// Satisfaction answers offered at the end of a conversation.
const (
	SatisfactionHelpful    = storage.SatisfactionHelpful
	SatisfactionSomewhat   = "พอช่วยได้"
	SatisfactionNotHelpful = "ยังไม่ช่วย 👎"
)

// Satisfactions lists the accepted satisfaction values in display order.
var Satisfactions = []string{SatisfactionHelpful, SatisfactionSomewhat, SatisfactionNotHelpful}

const maxFeedbackRunes = 2000

// FeedbackRequest is a satisfaction rating with optional free text.
type FeedbackRequest struct {
	// MessageID links the feedback to an answered question. Optional.
	MessageID    *int64
	Satisfaction string
	Text         string
}

// FeedbackService records user feedback.
type FeedbackService interface {
	// Submit validates and stores feedback, returning its ID.
	Submit(ctx context.Context, req FeedbackRequest) (int64, error)
}

type feedbackService struct {
	feedback storage.FeedbackStore
	messages storage.MessageStore
}

// NewFeedbackService creates a new FeedbackService.
func NewFeedbackService(feedback storage.FeedbackStore, messages storage.MessageStore) FeedbackService {
	return &feedbackService{feedback: feedback, messages: messages}
}

// Submit stores feedback after checking the satisfaction value and the linked message.
func (s *feedbackService) Submit(ctx context.Context, req FeedbackRequest) (int64, error) {
	logger := contextutil.LoggerFromContext(ctx)

	satisfaction := strings.TrimSpace(req.Satisfaction)
	if !slices.Contains(Satisfactions, satisfaction) {
		return 0, &ValidationError{
			Field:   "satisfaction",
			Message: fmt.Sprintf("must be one of %s", strings.Join(Satisfactions, ", ")),
		}
	}

	text := strings.TrimSpace(req.Text)
	if utf8.RuneCountInString(text) > maxFeedbackRunes {
		return 0, &ValidationError{Field: "feedback_text", Message: fmt.Sprintf("must be at most %d characters", maxFeedbackRunes)}
	}

	if req.MessageID != nil {
		if _, err := s.messages.GetMessage(ctx, *req.MessageID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return 0, fmt.Errorf("message %d: %w", *req.MessageID, ErrNotFound)
			}
			return 0, WrapError(err, "failed to check message")
		}
	}

	id, err := s.feedback.Save(ctx, storage.Feedback{
		UserMessageID: req.MessageID,
		Satisfaction:  satisfaction,
		FeedbackText:  text,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to save feedback", "error", err)
		return 0, WrapError(err, "failed to save feedback")
	}

	logger.InfoContext(ctx, "feedback saved", "feedback_id", id, "satisfaction", satisfaction)
	return id, nil
}
