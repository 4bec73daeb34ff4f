package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"kyschat/internal/contextutil"
	"kyschat/internal/service"
	"kyschat/internal/storage"
)

// AdminHandler serves the staff dashboard API.
type AdminHandler struct {
	adminService service.AdminService
	authService  service.AuthService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminService service.AdminService, authService service.AuthService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		authService:  authService,
	}
}

// MessageResponse is a logged question as shown to staff.
type MessageResponse struct {
	ID            int64   `json:"id"`
	UserMessage   string  `json:"user_message"`
	Answer        string  `json:"answer"`
	CorrectAnswer *string `json:"correct_answer"`
	Timestamp     string  `json:"timestamp"`
}

// RetrievedChunkResponse is a chunk that was used for an answer.
type RetrievedChunkResponse struct {
	ID            int64   `json:"id"`
	UserMessageID int64   `json:"user_message_id"`
	UserMessage   string  `json:"user_message"`
	ChunkText     string  `json:"chunk_text"`
	Source        string  `json:"source"`
	PageNumber    int     `json:"page_number"`
	Confidence    float64 `json:"confidence"`
}

// MetricsResponse holds token counts and latency for one answer.
type MetricsResponse struct {
	ID             int64   `json:"id"`
	UserMessageID  int64   `json:"user_message_id"`
	UserMessage    string  `json:"user_message"`
	PromptTokens   int     `json:"prompt_tokens"`
	ResponseTokens int     `json:"response_tokens"`
	ResponseTime   float64 `json:"response_time"`
	Timestamp      string  `json:"timestamp"`
}

// FeedbackEntryResponse is a stored feedback entry.
type FeedbackEntryResponse struct {
	ID            int64  `json:"id"`
	UserMessageID *int64 `json:"user_message_id"`
	UserMessage   string `json:"user_message"`
	Satisfaction  string `json:"satisfaction"`
	FeedbackText  string `json:"feedback_text"`
	Timestamp     string `json:"timestamp"`
}

// CorrectAnswerRequest sets or clears (null or blank) a reviewed answer.
type CorrectAnswerRequest struct {
	CorrectAnswer *string `json:"correct_answer"`
}

// CreateUserRequest represents the payload for a new staff account.
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// DeleteResponse reports how many records were removed.
type DeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

// Dashboard returns the KPIs.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	d, err := h.adminService.Dashboard(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to load dashboard")
		return
	}
	writeJSON(ctx, w, http.StatusOK, d)
}

// TopQuestions returns the most frequent normalized questions (?limit=).
func (h *AdminHandler) TopQuestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := queryInt(r, "limit")
	if err != nil {
		handleServiceError(w, ctx, err, "Invalid limit")
		return
	}
	top, err := h.adminService.TopQuestions(ctx, n)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to load top questions")
		return
	}
	writeJSON(ctx, w, http.StatusOK, top)
}

// Messages lists logged questions (?q= search, ?limit=).
func (h *AdminHandler) Messages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleServiceError(w, ctx, err, "Invalid limit")
		return
	}
	msgs, err := h.adminService.ListMessages(ctx, r.URL.Query().Get("q"), limit)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list messages")
		return
	}

	resp := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, toMessageResponse(m))
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// Chunks lists the retrieved chunks log (?limit=).
func (h *AdminHandler) Chunks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleServiceError(w, ctx, err, "Invalid limit")
		return
	}
	chunks, err := h.adminService.ListChunks(ctx, limit)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list chunks")
		return
	}

	resp := make([]RetrievedChunkResponse, 0, len(chunks))
	for _, c := range chunks {
		resp = append(resp, RetrievedChunkResponse{
			ID:            c.ID,
			UserMessageID: c.UserMessageID,
			UserMessage:   c.UserMessage,
			ChunkText:     c.ChunkText,
			Source:        c.Source,
			PageNumber:    c.PageNumber,
			Confidence:    c.Confidence,
		})
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// Metrics lists the latest LLM metrics (?limit=, default 50).
func (h *AdminHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleServiceError(w, ctx, err, "Invalid limit")
		return
	}
	metrics, err := h.adminService.ListMetrics(ctx, limit)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list metrics")
		return
	}

	resp := make([]MetricsResponse, 0, len(metrics))
	for _, m := range metrics {
		resp = append(resp, MetricsResponse{
			ID:             m.ID,
			UserMessageID:  m.UserMessageID,
			UserMessage:    m.UserMessage,
			PromptTokens:   m.PromptTokens,
			ResponseTokens: m.ResponseTokens,
			ResponseTime:   m.ResponseTime,
			Timestamp:      m.Timestamp.Format(time.RFC3339),
		})
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// Feedback lists feedback (?satisfaction= filter).
func (h *AdminHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := h.adminService.ListFeedback(ctx, r.URL.Query().Get("satisfaction"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list feedback")
		return
	}

	resp := make([]FeedbackEntryResponse, 0, len(entries))
	for _, f := range entries {
		resp = append(resp, FeedbackEntryResponse{
			ID:            f.ID,
			UserMessageID: f.UserMessageID,
			UserMessage:   f.UserMessage,
			Satisfaction:  f.Satisfaction,
			FeedbackText:  f.FeedbackText,
			Timestamp:     f.Timestamp.Format(time.RFC3339),
		})
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// SetCorrectAnswer updates the reviewed answer of message {id}.
func (h *AdminHandler) SetCorrectAnswer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid message id")
		return
	}

	var req CorrectAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.adminService.SetCorrectAnswer(ctx, id, req.CorrectAnswer); err != nil {
		handleServiceError(w, ctx, err, "Failed to update correct answer")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteMessages clears the question log.
func (h *AdminHandler) DeleteMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := h.adminService.DeleteAllMessages(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to delete messages")
		return
	}
	writeJSON(ctx, w, http.StatusOK, DeleteResponse{Deleted: n})
}

// Users lists staff accounts.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	users, err := h.adminService.ListUsers(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list users")
		return
	}
	writeJSON(ctx, w, http.StatusOK, users)
}

// CreateUser adds a staff account.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.authService.CreateUser(ctx, service.CreateUserRequest{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to create user")
		return
	}
	writeJSON(ctx, w, http.StatusCreated, user)
}

// DisableUser deactivates account {username}.
func (h *AdminHandler) DisableUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.authService.DisableUser(ctx, chi.URLParam(r, "username")); err != nil {
		handleServiceError(w, ctx, err, "Failed to disable user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toMessageResponse(m storage.Message) MessageResponse {
	return MessageResponse{
		ID:            m.ID,
		UserMessage:   m.UserMessage,
		Answer:        m.Answer,
		CorrectAnswer: m.CorrectAnswer,
		Timestamp:     m.Timestamp.Format(time.RFC3339),
	}
}
