package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a client for an OpenAI-compatible chat completions API (Ollama, llama.cpp).
type Client struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	client      *http.Client
}

// NewClient creates a new LLM client.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		APIKey:      apiKey,
		Model:       model,
		Temperature: 0.2,
		client:      newHTTPClient(),
	}
}

// newHTTPClient returns the HTTP client shared by the LLM and embeddings clients.
// Local models can take minutes on long prompts.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Minute}
}

// ChatRequest represents the request payload for chat completions.
type ChatRequest struct {
	Model         string         `json:"model"`
	Messages      []Message      `json:"messages"`
	Stream        bool           `json:"stream,omitempty"`
	Temperature   *float32       `json:"temperature,omitempty"`
	MaxTokens     int            `json:"max_tokens,omitempty"`
	StreamOptions *StreamOptions `json:"stream_options,omitempty"`
}

// StreamOptions asks the server to append token usage to the stream.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// ChatChoice represents a single choice in the chat response.
type ChatChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage is the token accounting reported by the server.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse represents the response from the chat completions API.
type ChatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Choices []ChatChoice `json:"choices"`
	Usage   *Usage       `json:"usage,omitempty"`
}

// Chat sends a single user message and returns the reply.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	res, err := c.ChatWithMessages(ctx, []Message{{Role: "user", Content: message}}, ChatParams{})
	if err != nil {
		return "", err
	}
	return res.Content, nil
}

// ChatWithMessages sends a chat completion request with a full message list.
// When the server reports no usage, tokens are estimated with CountTokens.
func (c *Client) ChatWithMessages(ctx context.Context, messages []Message, params ChatParams) (ChatResult, error) {
	resp, err := c.do(ctx, c.buildRequest(messages, params, false))
	if err != nil {
		return ChatResult{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return ChatResult{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return ChatResult{}, fmt.Errorf("no choices returned")
	}

	content := chatResp.Choices[0].Message.Content
	return withUsage(content, messages, chatResp.Usage), nil
}

// StreamChat sends a streaming chat completion request for a single user message.
// It reads Server-Sent Events (SSE) from the response and calls the callback for each chunk.
func (c *Client) StreamChat(ctx context.Context, message string, callback func(chunk string) error) error {
	_, err := c.StreamWithMessages(ctx, []Message{{Role: "user", Content: message}}, ChatParams{}, callback)
	return err
}

// StreamWithMessages streams a chat completion and returns the assembled result.
func (c *Client) StreamWithMessages(ctx context.Context, messages []Message, params ChatParams, callback func(chunk string) error) (ChatResult, error) {
	resp, err := c.do(ctx, c.buildRequest(messages, params, true))
	if err != nil {
		return ChatResult{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Read Server-Sent Events
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	const dataPrefix = "data: "
	const doneMarker = "[DONE]"

	var (
		content strings.Builder
		usage   *Usage
	)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}

		data := strings.TrimPrefix(line, dataPrefix)
		if data == doneMarker {
			break
		}

		var streamResp struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
				FinishReason *string `json:"finish_reason"`
			} `json:"choices"`
			Usage *Usage `json:"usage"`
		}

		if err := json.Unmarshal([]byte(data), &streamResp); err != nil {
			// Skip malformed JSON chunks
			continue
		}
		if streamResp.Usage != nil {
			usage = streamResp.Usage
		}

		if len(streamResp.Choices) > 0 {
			chunk := streamResp.Choices[0].Delta.Content
			if chunk != "" {
				content.WriteString(chunk)
				if err := callback(chunk); err != nil {
					return ChatResult{}, fmt.Errorf("callback error: %w", err)
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return ChatResult{}, fmt.Errorf("failed to read stream: %w", err)
	}

	return withUsage(content.String(), messages, usage), nil
}

func (c *Client) buildRequest(messages []Message, params ChatParams, stream bool) ChatRequest {
	model := params.Model
	if model == "" {
		model = c.Model
	}
	temp := params.Temperature
	if temp == nil {
		t := c.Temperature
		temp = &t
	}

	req := ChatRequest{
		Model:       model,
		Messages:    messages,
		Stream:      stream,
		Temperature: temp,
		MaxTokens:   params.MaxTokens,
	}
	if stream {
		req.StreamOptions = &StreamOptions{IncludeUsage: true}
	}
	return req
}

func (c *Client) do(ctx context.Context, payload ChatRequest) (*http.Response, error) {
	url := fmt.Sprintf("%s/v1/chat/completions", c.BaseURL)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.APIKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	}
	req.Header.Set("Content-Type", "application/json")
	if payload.Stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}
	return resp, nil
}

func withUsage(content string, messages []Message, usage *Usage) ChatResult {
	res := ChatResult{Content: content}
	if usage != nil && (usage.PromptTokens > 0 || usage.CompletionTokens > 0) {
		res.PromptTokens = usage.PromptTokens
		res.CompletionTokens = usage.CompletionTokens
		return res
	}
	for _, m := range messages {
		res.PromptTokens += CountTokens(m.Content)
	}
	res.CompletionTokens = CountTokens(content)
	return res
}

// CountTokens approximates a token count as the number of whitespace-separated words.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}
