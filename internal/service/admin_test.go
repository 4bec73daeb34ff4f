package service_test

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"kyschat/internal/service"
	"kyschat/internal/storage"
	storage_mocks "kyschat/internal/storage/mocks"
)

type adminMocks struct {
	stats    *storage_mocks.MockStatsStore
	messages *storage_mocks.MockMessageStore
	feedback *storage_mocks.MockFeedbackStore
	users    *storage_mocks.MockUserStore
}

func newAdmin(t *testing.T) (service.AdminService, *adminMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := &adminMocks{
		stats:    storage_mocks.NewMockStatsStore(ctrl),
		messages: storage_mocks.NewMockMessageStore(ctrl),
		feedback: storage_mocks.NewMockFeedbackStore(ctrl),
		users:    storage_mocks.NewMockUserStore(ctrl),
	}
	return service.NewAdminService(m.stats, m.messages, m.feedback, m.users), m
}

func TestAdminService_Dashboard(t *testing.T) {
	svc, m := newAdmin(t)
	m.stats.EXPECT().Dashboard(gomock.Any()).Return(&storage.DashboardStats{
		TotalMessages:     12,
		FeedbackCount:     3,
		HelpfulCount:      2,
		RequestCount:      12,
		AvgResponseTime:   2.34567,
		MaxResponseTime:   5.5,
		MinResponseTime:   0.8,
		AvgPromptTokens:   101.333,
		AvgResponseTokens: 20.666,
		TotalTokens:       1464,
		DocumentCount:     1,
		ChunkCount:        40,
	}, nil)

	got, err := svc.Dashboard(testContext())
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}

	want := service.Dashboard{
		TotalMessages:     12,
		FeedbackCount:     3,
		SatisfactionRate:  66.7,
		RequestCount:      12,
		AvgResponseTime:   2.35,
		MaxResponseTime:   5.5,
		MinResponseTime:   0.8,
		AvgPromptTokens:   101.33,
		AvgResponseTokens: 20.67,
		TotalTokens:       1464,
		DocumentCount:     1,
		ChunkCount:        40,
	}
	if *got != want {
		t.Errorf("Dashboard() = %+v, want %+v", *got, want)
	}
}

func TestAdminService_Dashboard_NoFeedback(t *testing.T) {
	svc, m := newAdmin(t)
	m.stats.EXPECT().Dashboard(gomock.Any()).Return(&storage.DashboardStats{}, nil)

	got, err := svc.Dashboard(testContext())
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if got.SatisfactionRate != 0 {
		t.Errorf("SatisfactionRate = %v, want 0", got.SatisfactionRate)
	}
}

func TestNormalizeQuestion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  กยศ. กู้ได้กี่ปีครับ? ", "กยศ กู้ได้กี่ปี"},
		{"กู้ได้กี่ปีคะ", "กู้ได้กี่ปี"},
		{"กู้ได้กี่ปีค่ะ!", "กู้ได้กี่ปี"},
		{"กู้ได้กี่ปีจ้า", "กู้ได้กี่ปี"},
		{"What is DSL?", "what is dsl"},
		{"???", ""},
	}
	for _, tt := range tests {
		if got := service.NormalizeQuestion(tt.in); got != tt.want {
			t.Errorf("NormalizeQuestion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAdminService_TopQuestions(t *testing.T) {
	svc, m := newAdmin(t)
	m.stats.EXPECT().QuestionTexts(gomock.Any()).Return([]string{
		"กู้ได้กี่ปีครับ",
		"กู้ได้กี่ปีคะ?",
		"กู้ได้กี่ปี",
		"ดอกเบี้ยเท่าไหร่",
		"ดอกเบี้ยเท่าไหร่ครับ",
		"อายุเกินกู้ได้ไหม",
		"?",
	}, nil)

	got, err := svc.TopQuestions(testContext(), 2)
	if err != nil {
		t.Fatalf("TopQuestions() error = %v", err)
	}
	want := []service.QuestionCount{
		{Question: "กู้ได้กี่ปี", Count: 3},
		{Question: "ดอกเบี้ยเท่าไหร่", Count: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("TopQuestions() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TopQuestions()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestAdminService_TopQuestions_Default(t *testing.T) {
	svc, m := newAdmin(t)
	questions := make([]string, 0, 15)
	for i := range 15 {
		questions = append(questions, string(rune('a'+i)))
	}
	m.stats.EXPECT().QuestionTexts(gomock.Any()).Return(questions, nil)

	got, err := svc.TopQuestions(testContext(), 0)
	if err != nil {
		t.Fatalf("TopQuestions() error = %v", err)
	}
	if len(got) != service.DefaultTopQuestions || got[0].Question != "a" {
		t.Errorf("TopQuestions() = %+v", got)
	}
}

func TestAdminService_Lists(t *testing.T) {
	svc, m := newAdmin(t)
	ctx := testContext()

	m.messages.EXPECT().ListMessages(gomock.Any(), storage.MessageFilter{Search: "ดอกเบี้ย", Limit: 20}).
		Return([]storage.Message{{ID: 1}}, nil)
	m.messages.EXPECT().ListRetrievedChunks(gomock.Any(), 100).Return([]storage.RetrievedChunk{{ID: 1}, {ID: 2}}, nil)
	m.messages.EXPECT().ListMetrics(gomock.Any(), 50).Return(nil, errors.New("boom"))
	m.feedback.EXPECT().List(gomock.Any(), service.SatisfactionHelpful).Return([]storage.Feedback{{ID: 4}}, nil)

	if msgs, err := svc.ListMessages(ctx, " ดอกเบี้ย ", 20); err != nil || len(msgs) != 1 {
		t.Errorf("ListMessages() = %v, %v", msgs, err)
	}
	if chunks, err := svc.ListChunks(ctx, 100); err != nil || len(chunks) != 2 {
		t.Errorf("ListChunks() = %v, %v", chunks, err)
	}
	if _, err := svc.ListMetrics(ctx, 50); err == nil {
		t.Error("ListMetrics() expected error")
	}
	if fb, err := svc.ListFeedback(ctx, service.SatisfactionHelpful); err != nil || len(fb) != 1 {
		t.Errorf("ListFeedback() = %v, %v", fb, err)
	}
	if _, err := svc.ListFeedback(ctx, "เฉยๆ"); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("ListFeedback(unknown) error = %v, want ErrInvalidInput", err)
	}
}

func TestAdminService_SetCorrectAnswer(t *testing.T) {
	svc, m := newAdmin(t)
	ctx := testContext()

	answer := "  ไม่เกิน 360,000 บาทต่อปี "
	trimmed := "ไม่เกิน 360,000 บาทต่อปี"
	blank := "   "

	m.messages.EXPECT().SetCorrectAnswer(gomock.Any(), int64(1), &trimmed).Return(nil)
	m.messages.EXPECT().SetCorrectAnswer(gomock.Any(), int64(1), (*string)(nil)).Return(nil).Times(2)
	m.messages.EXPECT().SetCorrectAnswer(gomock.Any(), int64(99), gomock.Any()).Return(storage.ErrNotFound)

	if err := svc.SetCorrectAnswer(ctx, 1, &answer); err != nil {
		t.Errorf("SetCorrectAnswer() error = %v", err)
	}
	if err := svc.SetCorrectAnswer(ctx, 1, &blank); err != nil {
		t.Errorf("SetCorrectAnswer(blank) error = %v", err)
	}
	if err := svc.SetCorrectAnswer(ctx, 1, nil); err != nil {
		t.Errorf("SetCorrectAnswer(nil) error = %v", err)
	}
	if err := svc.SetCorrectAnswer(ctx, 99, &answer); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("SetCorrectAnswer(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestAdminService_DeleteAllAndUsers(t *testing.T) {
	svc, m := newAdmin(t)
	ctx := testContext()

	m.messages.EXPECT().DeleteAll(gomock.Any()).Return(int64(12), nil)
	login := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	m.users.EXPECT().List(gomock.Any()).Return([]storage.User{
		{ID: 1, Username: "admin", PasswordHash: "$2a$10$x", Role: "admin", LastLogin: &login, IsActive: true},
		{ID: 2, Username: "staff", PasswordHash: "abc", Role: "staff"},
	}, nil)

	if n, err := svc.DeleteAllMessages(ctx); err != nil || n != 12 {
		t.Errorf("DeleteAllMessages() = %d, %v", n, err)
	}

	users, err := svc.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 2 || !users[0].IsAdmin() || users[0].LastLogin == nil || users[1].IsActive {
		t.Errorf("ListUsers() = %+v", users)
	}
}
