package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"kyschat/internal/rag"
	rag_mocks "kyschat/internal/rag/mocks"
	"kyschat/internal/service"
	"kyschat/internal/storage"
	storage_mocks "kyschat/internal/storage/mocks"
)

func init() {
	// Set default logger to discard output for cleaner test output
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// testContext returns a context for testing.
// The default logger is already set to discard in init().
func testContext() context.Context {
	return context.Background()
}

func answered() rag.AskResponse {
	return rag.AskResponse{
		Answer: "ผู้กู้ต้องมีสัญชาติไทยครับ",
		Chunks: []rag.ChunkResult{
			{ChunkID: "c1", Source: "loan.pdf", PageNumber: 2, Text: "ผู้กู้ต้องมีสัญชาติไทย", Confidence: 0.9},
			{ChunkID: "c2", Source: "loan.pdf", PageNumber: 5, Text: "อายุไม่เกิน 35 ปี", Confidence: 0.6},
		},
		Confidence:     0.75,
		PromptTokens:   90,
		ResponseTokens: 4,
		ResponseTime:   1.25,
	}
}

func TestChatService_Ask(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockEngine := rag_mocks.NewMockEngine(ctrl)
	mockMessages := storage_mocks.NewMockMessageStore(ctrl)
	svc := service.NewChatService(mockEngine, mockMessages)

	resp := answered()
	mockEngine.EXPECT().
		Ask(gomock.Any(), rag.AskRequest{Question: "ใครกู้ได้บ้าง", K: 5}).
		Return(resp, nil)
	mockMessages.EXPECT().SaveMessage(gomock.Any(), "ใครกู้ได้บ้าง", resp.Answer).Return(int64(42), nil)
	mockMessages.EXPECT().SaveRetrievedChunks(gomock.Any(), int64(42), []storage.RetrievedChunk{
		{ChunkText: "ผู้กู้ต้องมีสัญชาติไทย", Source: "loan.pdf", PageNumber: 2, Confidence: 0.9},
		{ChunkText: "อายุไม่เกิน 35 ปี", Source: "loan.pdf", PageNumber: 5, Confidence: 0.6},
	}).Return(nil)
	mockMessages.EXPECT().SaveMetrics(gomock.Any(), int64(42), storage.Metrics{
		PromptTokens: 90, ResponseTokens: 4, ResponseTime: 1.25,
	}).Return(nil)

	// Question is trimmed before use
	got, err := svc.Ask(testContext(), service.AskRequest{Question: "  ใครกู้ได้บ้าง \n", K: 5})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if got.MessageID != 42 || got.Answer != resp.Answer || len(got.Chunks) != 2 {
		t.Errorf("Ask() = %+v", got)
	}
}

func TestChatService_Ask_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := service.NewChatService(rag_mocks.NewMockEngine(ctrl), storage_mocks.NewMockMessageStore(ctrl))

	tests := []struct {
		name     string
		question string
	}{
		{"empty", ""},
		{"whitespace", " \t\n"},
		{"too long", strings.Repeat("ก", service.MaxQuestionRunes+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Ask(testContext(), service.AskRequest{Question: tt.question})
			var validationErr *service.ValidationError
			if !errors.As(err, &validationErr) || validationErr.Field != "question" {
				t.Errorf("Ask() error = %v, want validation error on question", err)
			}
			if !errors.Is(err, service.ErrInvalidInput) {
				t.Error("validation error should match ErrInvalidInput")
			}
		})
	}
}

func TestChatService_Ask_EngineErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"llm failure", errors.New("model not loaded"), service.ErrExternalService},
		{"vector store failure", errors.Join(rag.ErrSearch, errors.New("dial tcp")), service.ErrUnavailable},
		{"canceled", context.Canceled, context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockEngine := rag_mocks.NewMockEngine(ctrl)
			svc := service.NewChatService(mockEngine, storage_mocks.NewMockMessageStore(ctrl))
			mockEngine.EXPECT().Ask(gomock.Any(), gomock.Any()).Return(rag.AskResponse{}, tt.err)

			_, err := svc.Ask(testContext(), service.AskRequest{Question: "q"})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Ask() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestChatService_Ask_PersistenceFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockEngine := rag_mocks.NewMockEngine(ctrl)
	mockMessages := storage_mocks.NewMockMessageStore(ctrl)
	svc := service.NewChatService(mockEngine, mockMessages)

	mockEngine.EXPECT().Ask(gomock.Any(), gomock.Any()).Return(answered(), nil)
	mockMessages.EXPECT().SaveMessage(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), errors.New("database is locked"))

	got, err := svc.Ask(testContext(), service.AskRequest{Question: "q"})
	if err != nil {
		t.Fatalf("Ask() error = %v, want answer despite persistence failure", err)
	}
	if got.MessageID != 0 || got.Answer == "" {
		t.Errorf("Ask() = %+v, want answer with MessageID 0", got)
	}
}

func TestChatService_Stream(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockEngine := rag_mocks.NewMockEngine(ctrl)
	mockMessages := storage_mocks.NewMockMessageStore(ctrl)
	svc := service.NewChatService(mockEngine, mockMessages)

	abstained := rag.AskResponse{Answer: rag.FallbackAnswer, Abstained: true}
	mockEngine.EXPECT().
		Stream(gomock.Any(), rag.AskRequest{Question: "ราคาทอง"}, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ rag.AskRequest, cb func(string) error) (rag.AskResponse, error) {
			return abstained, cb(rag.FallbackAnswer)
		})
	mockMessages.EXPECT().SaveMessage(gomock.Any(), "ราคาทอง", rag.FallbackAnswer).Return(int64(7), nil)
	mockMessages.EXPECT().SaveRetrievedChunks(gomock.Any(), int64(7), []storage.RetrievedChunk{}).Return(nil)
	mockMessages.EXPECT().SaveMetrics(gomock.Any(), int64(7), storage.Metrics{}).Return(nil)

	var streamed []string
	got, err := svc.Stream(testContext(), service.AskRequest{Question: "ราคาทอง"}, func(chunk string) error {
		streamed = append(streamed, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if got.MessageID != 7 || !got.Abstained || len(streamed) != 1 {
		t.Errorf("Stream() = %+v, streamed %v", got, streamed)
	}

	if _, err := svc.Stream(testContext(), service.AskRequest{Question: "q"}, nil); err == nil {
		t.Error("Stream() with nil callback should fail")
	}
}
