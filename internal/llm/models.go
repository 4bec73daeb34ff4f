package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ModelChecker asks an OpenAI-compatible server which models it serves.
type ModelChecker struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewModelChecker creates a new model checker.
func NewModelChecker(baseURL, apiKey string) *ModelChecker {
	return &ModelChecker{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  newHTTPClient(),
	}
}

// ModelInfo is one entry of the /v1/models listing.
type ModelInfo struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by"`
}

// ModelsResponse represents the response from the /v1/models endpoint.
type ModelsResponse struct {
	Data []ModelInfo `json:"data"`
}

// ListModels returns the IDs of the models the server can serve.
func (mc *ModelChecker) ListModels(ctx context.Context) ([]string, error) {
	modelsURL := fmt.Sprintf("%s/v1/models", mc.baseURL)
	req, err := http.NewRequestWithContext(ctx, "GET", modelsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create models request: %w", err)
	}
	if mc.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", mc.apiKey))
	}

	resp, err := mc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var modelsResp ModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&modelsResp); err != nil {
		return nil, fmt.Errorf("failed to decode models response: %w", err)
	}

	ids := make([]string, 0, len(modelsResp.Data))
	for _, m := range modelsResp.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// HasModel reports whether modelName is available. Ollama lists models with a tag,
// so "bge-m3" matches "bge-m3:latest".
func (mc *ModelChecker) HasModel(ctx context.Context, modelName string) (bool, error) {
	ids, err := mc.ListModels(ctx)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == modelName || strings.TrimSuffix(id, ":latest") == modelName {
			return true, nil
		}
	}
	return false, nil
}
