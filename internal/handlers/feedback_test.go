package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"kyschat/internal/service"
	"kyschat/internal/service/mocks"
)

func TestFeedbackHandler_ServeHTTP(t *testing.T) {
	msgID := int64(4)

	tests := []struct {
		name       string
		body       string
		setup      func(m *mocks.MockFeedbackService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "stores feedback",
			body: `{"message_id":4,"satisfaction":"ช่วยได้มาก 👍","feedback_text":"ดีมาก"}`,
			setup: func(m *mocks.MockFeedbackService) {
				m.EXPECT().Submit(gomock.Any(), service.FeedbackRequest{
					MessageID:    &msgID,
					Satisfaction: service.SatisfactionHelpful,
					Text:         "ดีมาก",
				}).Return(int64(9), nil)
			},
			wantStatus: http.StatusCreated,
			wantBody:   `{"id":9}`,
		},
		{
			name: "without message",
			body: `{"satisfaction":"พอช่วยได้"}`,
			setup: func(m *mocks.MockFeedbackService) {
				m.EXPECT().Submit(gomock.Any(), service.FeedbackRequest{Satisfaction: service.SatisfactionSomewhat}).
					Return(int64(1), nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "unknown satisfaction",
			body: `{"satisfaction":"meh"}`,
			setup: func(m *mocks.MockFeedbackService) {
				m.EXPECT().Submit(gomock.Any(), gomock.Any()).
					Return(int64(0), &service.ValidationError{Field: "satisfaction", Message: "unknown value"})
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "message not found",
			body: `{"message_id":99,"satisfaction":"พอช่วยได้"}`,
			setup: func(m *mocks.MockFeedbackService) {
				m.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(int64(0), service.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid body",
			body:       `not json`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			fb := mocks.NewMockFeedbackService(ctrl)
			if tt.setup != nil {
				tt.setup(fb)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			NewFeedbackHandler(fb).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantBody != "" && strings.TrimSpace(w.Body.String()) != tt.wantBody {
				t.Errorf("body = %s, want %s", w.Body.String(), tt.wantBody)
			}
		})
	}
}
