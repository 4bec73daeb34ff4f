package handlers

import (
	"encoding/json"
	"net/http"

	"kyschat/internal/contextutil"
	"kyschat/internal/service"
)

// FeedbackHandler records satisfaction ratings.
type FeedbackHandler struct {
	feedbackService service.FeedbackService
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(feedbackService service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

// FeedbackRequest represents the HTTP request payload for feedback.
type FeedbackRequest struct {
	MessageID    *int64 `json:"message_id,omitempty"`
	Satisfaction string `json:"satisfaction"`
	FeedbackText string `json:"feedback_text,omitempty"`
}

// FeedbackResponse is returned after feedback was stored.
type FeedbackResponse struct {
	ID int64 `json:"id"`
}

// ServeHTTP stores feedback for an answer.
func (h *FeedbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := h.feedbackService.Submit(ctx, service.FeedbackRequest{
		MessageID:    req.MessageID,
		Satisfaction: req.Satisfaction,
		Text:         req.FeedbackText,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to save feedback")
		return
	}

	writeJSON(ctx, w, http.StatusCreated, FeedbackResponse{ID: id})
}
