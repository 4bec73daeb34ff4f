package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_admin_service.go -package=mocks kyschat/internal/service AdminService

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"kyschat/internal/contextutil"
	"kyschat/internal/storage"
)

// DefaultTopQuestions is how many questions TopQuestions returns by default.
const DefaultTopQuestions = 10

// Dashboard holds the KPIs shown on the admin dashboard.
type Dashboard struct {
	TotalMessages int64 `json:"total_messages"`
	FeedbackCount int64 `json:"feedback_count"`
	// SatisfactionRate is the share of "ช่วยได้มาก 👍" feedback in percent, 1 decimal place.
	SatisfactionRate  float64 `json:"satisfaction_rate"`
	RequestCount      int64   `json:"request_count"`
	AvgResponseTime   float64 `json:"avg_response_time"`
	MaxResponseTime   float64 `json:"max_response_time"`
	MinResponseTime   float64 `json:"min_response_time"`
	AvgPromptTokens   float64 `json:"avg_prompt_tokens"`
	AvgResponseTokens float64 `json:"avg_response_tokens"`
	TotalTokens       int64   `json:"total_tokens"`
	DocumentCount     int64   `json:"document_count"`
	ChunkCount        int64   `json:"chunk_count"`
}

// QuestionCount is a normalized question and how often it was asked.
type QuestionCount struct {
	Question string `json:"question"`
	Count    int    `json:"count"`
}

// AdminService serves the staff dashboard.
type AdminService interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	// TopQuestions ranks normalized questions by frequency. n <= 0 uses DefaultTopQuestions.
	TopQuestions(ctx context.Context, n int) ([]QuestionCount, error)
	ListMessages(ctx context.Context, search string, limit int) ([]storage.Message, error)
	ListChunks(ctx context.Context, limit int) ([]storage.RetrievedChunk, error)
	ListMetrics(ctx context.Context, limit int) ([]storage.Metrics, error)
	// ListFeedback filters by satisfaction; empty returns all.
	ListFeedback(ctx context.Context, satisfaction string) ([]storage.Feedback, error)
	// SetCorrectAnswer stores a reviewed answer; nil or blank clears it.
	SetCorrectAnswer(ctx context.Context, id int64, answer *string) error
	// DeleteAllMessages removes all logged questions and returns how many were deleted.
	DeleteAllMessages(ctx context.Context) (int64, error)
	ListUsers(ctx context.Context) ([]UserInfo, error)
}

type adminService struct {
	stats    storage.StatsStore
	messages storage.MessageStore
	feedback storage.FeedbackStore
	users    storage.UserStore
}

// NewAdminService creates a new AdminService.
func NewAdminService(stats storage.StatsStore, messages storage.MessageStore, feedback storage.FeedbackStore, users storage.UserStore) AdminService {
	return &adminService{
		stats:    stats,
		messages: messages,
		feedback: feedback,
		users:    users,
	}
}

// Dashboard computes the KPIs.
func (s *adminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	st, err := s.stats.Dashboard(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to load dashboard stats")
	}

	return &Dashboard{
		TotalMessages:     st.TotalMessages,
		FeedbackCount:     st.FeedbackCount,
		SatisfactionRate:  satisfactionRate(st.HelpfulCount, st.FeedbackCount),
		RequestCount:      st.RequestCount,
		AvgResponseTime:   round2(st.AvgResponseTime),
		MaxResponseTime:   round2(st.MaxResponseTime),
		MinResponseTime:   round2(st.MinResponseTime),
		AvgPromptTokens:   round2(st.AvgPromptTokens),
		AvgResponseTokens: round2(st.AvgResponseTokens),
		TotalTokens:       st.TotalTokens,
		DocumentCount:     st.DocumentCount,
		ChunkCount:        st.ChunkCount,
	}, nil
}

func satisfactionRate(helpful, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(helpful)/float64(total)*1000) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// fillerWords are polite particles and punctuation that do not change a question.
// They are removed in this order, so "คะ" goes before "ค่ะ".
var fillerWords = []string{"คะ", "ครับ", "ค่ะ", "คับ", "จ้ะ", "จ้า", "?", "!", "."}

// NormalizeQuestion lowercases a question and strips filler words so variants count together.
func NormalizeQuestion(q string) string {
	q = strings.TrimSpace(strings.ToLower(q))
	for _, w := range fillerWords {
		q = strings.ReplaceAll(q, w, "")
	}
	return strings.TrimSpace(q)
}

// TopQuestions returns the most frequent normalized questions. Ties are ordered by text.
func (s *adminService) TopQuestions(ctx context.Context, n int) ([]QuestionCount, error) {
	if n <= 0 {
		n = DefaultTopQuestions
	}

	questions, err := s.stats.QuestionTexts(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to load questions")
	}

	counts := make(map[string]int)
	for _, q := range questions {
		if norm := NormalizeQuestion(q); norm != "" {
			counts[norm]++
		}
	}

	top := make([]QuestionCount, 0, len(counts))
	for q, c := range counts {
		top = append(top, QuestionCount{Question: q, Count: c})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Question < top[j].Question
	})

	if len(top) > n {
		top = top[:n]
	}
	return top, nil
}

// ListMessages searches logged questions.
func (s *adminService) ListMessages(ctx context.Context, search string, limit int) ([]storage.Message, error) {
	msgs, err := s.messages.ListMessages(ctx, storage.MessageFilter{Search: strings.TrimSpace(search), Limit: limit})
	if err != nil {
		return nil, WrapError(err, "failed to list messages")
	}
	return msgs, nil
}

// ListChunks returns the retrieved chunks log.
func (s *adminService) ListChunks(ctx context.Context, limit int) ([]storage.RetrievedChunk, error) {
	chunks, err := s.messages.ListRetrievedChunks(ctx, limit)
	if err != nil {
		return nil, WrapError(err, "failed to list retrieved chunks")
	}
	return chunks, nil
}

// ListMetrics returns the latest LLM metrics.
func (s *adminService) ListMetrics(ctx context.Context, limit int) ([]storage.Metrics, error) {
	metrics, err := s.messages.ListMetrics(ctx, limit)
	if err != nil {
		return nil, WrapError(err, "failed to list metrics")
	}
	return metrics, nil
}

// ListFeedback returns feedback, optionally for one satisfaction value.
func (s *adminService) ListFeedback(ctx context.Context, satisfaction string) ([]storage.Feedback, error) {
	if satisfaction != "" && !slices.Contains(Satisfactions, satisfaction) {
		return nil, &ValidationError{Field: "satisfaction", Message: fmt.Sprintf("must be one of %s", strings.Join(Satisfactions, ", "))}
	}
	fb, err := s.feedback.List(ctx, satisfaction)
	if err != nil {
		return nil, WrapError(err, "failed to list feedback")
	}
	return fb, nil
}

// SetCorrectAnswer records the staff-reviewed answer for a message.
func (s *adminService) SetCorrectAnswer(ctx context.Context, id int64, answer *string) error {
	if answer != nil {
		trimmed := strings.TrimSpace(*answer)
		if trimmed == "" {
			answer = nil
		} else {
			answer = &trimmed
		}
	}

	if err := s.messages.SetCorrectAnswer(ctx, id, answer); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("message %d: %w", id, ErrNotFound)
		}
		return WrapError(err, "failed to set correct answer")
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "correct answer updated", "message_id", id, "cleared", answer == nil)
	return nil
}

// DeleteAllMessages clears the question log.
func (s *adminService) DeleteAllMessages(ctx context.Context) (int64, error) {
	n, err := s.messages.DeleteAll(ctx)
	if err != nil {
		return 0, WrapError(err, "failed to delete messages")
	}
	contextutil.LoggerFromContext(ctx).WarnContext(ctx, "deleted all messages", "count", n)
	return n, nil
}

// ListUsers returns every account without password hashes.
func (s *adminService) ListUsers(ctx context.Context) ([]UserInfo, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list users")
	}
	infos := make([]UserInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, toUserInfo(u))
	}
	return infos, nil
}
