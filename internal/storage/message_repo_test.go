package storage

import (
	"context"
	"errors"
	"testing"
)

func saveTestMessage(t *testing.T, repo *MessageRepo, q, a string) int64 {
	t.Helper()
	id, err := repo.SaveMessage(context.Background(), q, a)
	if err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}
	return id
}

func TestMessageRepo_SaveAndGet(t *testing.T) {
	repo := NewMessageRepo(newTestDB(t))
	ctx := context.Background()

	id := saveTestMessage(t, repo, "ใครกู้ได้บ้าง", "นักเรียนสัญชาติไทย")
	if id <= 0 {
		t.Fatalf("SaveMessage() id = %d", id)
	}

	msg, err := repo.GetMessage(ctx, id)
	if err != nil {
		t.Fatalf("GetMessage() error = %v", err)
	}
	if msg.UserMessage != "ใครกู้ได้บ้าง" || msg.Answer != "นักเรียนสัญชาติไทย" {
		t.Errorf("GetMessage() = %+v", msg)
	}
	if msg.CorrectAnswer != nil {
		t.Errorf("CorrectAnswer = %q, want nil", *msg.CorrectAnswer)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp is zero")
	}

	if _, err := repo.GetMessage(ctx, id+100); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMessage(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMessageRepo_ListMessages(t *testing.T) {
	repo := NewMessageRepo(newTestDB(t))
	ctx := context.Background()

	saveTestMessage(t, repo, "Loan limit for Bachelor", "a1")
	saveTestMessage(t, repo, "ดอกเบี้ยเท่าไร", "a2")
	saveTestMessage(t, repo, "bachelor degree eligibility", "a3")

	tests := []struct {
		name   string
		filter MessageFilter
		want   []string
	}{
		{"all newest first", MessageFilter{}, []string{"bachelor degree eligibility", "ดอกเบี้ยเท่าไร", "Loan limit for Bachelor"}},
		{"case insensitive", MessageFilter{Search: "BACHELOR"}, []string{"bachelor degree eligibility", "Loan limit for Bachelor"}},
		{"thai substring", MessageFilter{Search: "ดอกเบี้ย"}, []string{"ดอกเบี้ยเท่าไร"}},
		{"limit", MessageFilter{Limit: 1}, []string{"bachelor degree eligibility"}},
		{"no match", MessageFilter{Search: "zzz"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListMessages(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListMessages() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ListMessages() returned %d messages, want %d", len(got), len(tt.want))
			}
			for i, q := range tt.want {
				if got[i].UserMessage != q {
					t.Errorf("ListMessages()[%d] = %q, want %q", i, got[i].UserMessage, q)
				}
			}
		})
	}
}

func TestMessageRepo_ChunksAndMetrics(t *testing.T) {
	repo := NewMessageRepo(newTestDB(t))
	ctx := context.Background()
	id := saveTestMessage(t, repo, "q", "a")

	chunks := []RetrievedChunk{
		{ChunkText: "first", Source: "loan.pdf", PageNumber: 1, Confidence: 0.91},
		{ChunkText: "second", Source: "loan.pdf", PageNumber: 3, Confidence: 0.62},
	}
	if err := repo.SaveRetrievedChunks(ctx, id, chunks); err != nil {
		t.Fatalf("SaveRetrievedChunks() error = %v", err)
	}
	if err := repo.SaveRetrievedChunks(ctx, id, nil); err != nil {
		t.Fatalf("SaveRetrievedChunks(nil) error = %v", err)
	}

	got, err := repo.ListRetrievedChunks(ctx, 10)
	if err != nil {
		t.Fatalf("ListRetrievedChunks() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListRetrievedChunks() len = %d, want 2", len(got))
	}
	if got[0].ChunkText != "second" || got[0].PageNumber != 3 || got[0].Confidence != 0.62 || got[0].UserMessage != "q" {
		t.Errorf("ListRetrievedChunks()[0] = %+v", got[0])
	}

	if err := repo.SaveMetrics(ctx, id, Metrics{PromptTokens: 120, ResponseTokens: 30, ResponseTime: 1.5}); err != nil {
		t.Fatalf("SaveMetrics() error = %v", err)
	}
	metrics, err := repo.ListMetrics(ctx, 0)
	if err != nil {
		t.Fatalf("ListMetrics() error = %v", err)
	}
	if len(metrics) != 1 {
		t.Fatalf("ListMetrics() len = %d, want 1", len(metrics))
	}
	m := metrics[0]
	if m.UserMessageID != id || m.PromptTokens != 120 || m.ResponseTokens != 30 || m.ResponseTime != 1.5 {
		t.Errorf("ListMetrics()[0] = %+v", m)
	}
}

func TestMessageRepo_SetCorrectAnswer(t *testing.T) {
	repo := NewMessageRepo(newTestDB(t))
	ctx := context.Background()
	id := saveTestMessage(t, repo, "q", "a")

	answer := "คำตอบที่ถูกต้อง"
	if err := repo.SetCorrectAnswer(ctx, id, &answer); err != nil {
		t.Fatalf("SetCorrectAnswer() error = %v", err)
	}
	msg, err := repo.GetMessage(ctx, id)
	if err != nil {
		t.Fatalf("GetMessage() error = %v", err)
	}
	if msg.CorrectAnswer == nil || *msg.CorrectAnswer != answer {
		t.Errorf("CorrectAnswer = %v, want %q", msg.CorrectAnswer, answer)
	}

	// Blank clears the answer
	blank := "  "
	if err := repo.SetCorrectAnswer(ctx, id, &blank); err != nil {
		t.Fatalf("SetCorrectAnswer(blank) error = %v", err)
	}
	msg, _ = repo.GetMessage(ctx, id)
	if msg.CorrectAnswer != nil {
		t.Errorf("CorrectAnswer after clear = %q, want nil", *msg.CorrectAnswer)
	}

	if err := repo.SetCorrectAnswer(ctx, id+1, &answer); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetCorrectAnswer(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMessageRepo_DeleteAll(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepo(db)
	feedback := NewFeedbackRepo(db)
	ctx := context.Background()

	id := saveTestMessage(t, repo, "q1", "a1")
	saveTestMessage(t, repo, "q2", "a2")
	if err := repo.SaveRetrievedChunks(ctx, id, []RetrievedChunk{{ChunkText: "x"}}); err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveMetrics(ctx, id, Metrics{PromptTokens: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := feedback.Save(ctx, Feedback{UserMessageID: &id, Satisfaction: "พอช่วยได้"}); err != nil {
		t.Fatal(err)
	}

	n, err := repo.DeleteAll(ctx)
	if err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteAll() = %d, want 2", n)
	}

	chunks, _ := repo.ListRetrievedChunks(ctx, 0)
	metrics, _ := repo.ListMetrics(ctx, 0)
	if len(chunks) != 0 || len(metrics) != 0 {
		t.Errorf("cascade left %d chunks and %d metrics", len(chunks), len(metrics))
	}

	// Feedback survives with its message link cleared
	list, err := feedback.List(ctx, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].UserMessageID != nil {
		t.Errorf("feedback after DeleteAll = %+v", list)
	}
}
