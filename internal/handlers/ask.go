package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"kyschat/internal/contextutil"
	"kyschat/internal/rag"
	"kyschat/internal/service"
)

// AskHandler handles HTTP requests for loan questions.
type AskHandler struct {
	chatService service.ChatService
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(chatService service.ChatService) *AskHandler {
	return &AskHandler{
		chatService: chatService,
	}
}

// AskRequest represents the HTTP request payload for a question.
type AskRequest struct {
	Question string `json:"question"`
	// K is the number of chunks to retrieve. Zero uses the server default.
	K int `json:"k,omitempty"`
	// Source restricts retrieval to one document.
	Source string `json:"source,omitempty"`
	// Page restricts retrieval to one page of the document.
	Page int `json:"page,omitempty"`
}

// StreamToken is the payload of one streamed SSE token event.
type StreamToken struct {
	Token string `json:"token"`
}

// ServeHTTP answers a question.
//
// Query parameters:
//   - stream=true streams the answer as Server-Sent Events, followed by a
//     "result" event carrying the full response and a final "[DONE]".
//   - debug=true includes the retrieval details and prompt in the response.
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Enforce bounds for user-provided K. Zero means the engine default.
	if req.K < 0 {
		req.K = 0
	}
	if req.K > rag.MaxK {
		req.K = rag.MaxK
	}
	if req.Page < 0 {
		req.Page = 0
	}

	svcReq := service.AskRequest{
		Question: req.Question,
		K:        req.K,
		Source:   req.Source,
		Page:     req.Page,
		Debug:    queryBool(r, "debug"),
	}

	if queryBool(r, "stream") {
		h.handleStreaming(w, r, svcReq)
		return
	}

	result, err := h.chatService.Ask(ctx, svcReq)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to answer question")
		return
	}

	writeJSON(ctx, w, http.StatusOK, result)
}

// handleStreaming answers using Server-Sent Events.
// Errors raised before the first token still get a JSON error with a status code.
func (h *AskHandler) handleStreaming(w http.ResponseWriter, r *http.Request, req service.AskRequest) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.ErrorContext(ctx, "streaming not supported by response writer")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	started := false
	start := func() {
		if started {
			return
		}
		started = true
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
	}

	result, err := h.chatService.Stream(ctx, req, func(chunk string) error {
		start()
		// Tokens are JSON encoded so embedded newlines survive the SSE framing.
		data, err := json.Marshal(StreamToken{Token: chunk})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		if !started {
			handleServiceError(w, ctx, err, "Failed to answer question")
			return
		}
		logger.ErrorContext(ctx, "error streaming answer", "error", err)
		data, _ := json.Marshal(ErrorResponse{Error: "Streaming interrupted"})
		_, _ = fmt.Fprintf(w, "event: error\ndata: %s\n\n", data)
		flusher.Flush()
		return
	}

	start()
	data, err := json.Marshal(result)
	if err != nil {
		logger.ErrorContext(ctx, "failed to encode result", "error", err)
	} else {
		_, _ = fmt.Fprintf(w, "event: result\ndata: %s\n\n", data)
	}
	_, _ = fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
}
