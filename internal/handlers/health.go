package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"kyschat/internal/contextutil"
	"kyschat/internal/vectorstore"
)

// ModelChecker reports whether the LLM server serves a model.
type ModelChecker interface {
	HasModel(ctx context.Context, modelName string) (bool, error)
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	vectorStore        vectorstore.VectorStore
	collectionName     string
	models             ModelChecker
	modelNames         []string
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
// models may be nil, in which case the LLM server is not checked.
func NewHealthHandler(vectorStore vectorstore.VectorStore, collectionName string, models ModelChecker, modelNames ...string) *HealthHandler {
	return &HealthHandler{
		vectorStore:        vectorStore,
		collectionName:     collectionName,
		models:             models,
		modelNames:         modelNames,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is degraded or unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP checks the vector store and, when configured, the LLM models.
// Returns 200 OK if healthy, 503 Service Unavailable if degraded or unhealthy.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string

	// The vector store is the critical dependency.
	critical := false
	if count, ok := h.checkVectorStore(checkCtx, logger); ok {
		checks["vector_store"] = "ok"
		checks["indexed_chunks"] = strconv.Itoa(count)
		if count == 0 {
			issues = append(issues, "no_documents_indexed")
		}
	} else {
		checks["vector_store"] = "error"
		issues = append(issues, "vector_store_unavailable")
		critical = true
	}

	if h.models != nil {
		for _, name := range h.modelNames {
			ok, err := h.models.HasModel(checkCtx, name)
			if err != nil {
				logger.WarnContext(ctx, "llm health check failed", "model", name, "error", err)
				checks["llm"] = "error"
				issues = append(issues, "llm_unavailable")
				break
			}
			if ok {
				checks["model:"+name] = "ok"
			} else {
				checks["model:"+name] = "missing"
				issues = append(issues, "model_missing:"+name)
			}
		}
		if _, failed := checks["llm"]; !failed {
			checks["llm"] = "ok"
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	if critical {
		status = "unhealthy"
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}

// checkVectorStore checks that the collection exists and returns its point count.
func (h *HealthHandler) checkVectorStore(ctx context.Context, logger *slog.Logger) (int, bool) {
	exists, err := h.vectorStore.CollectionExists(ctx, h.collectionName)
	if err != nil {
		logger.WarnContext(ctx, "vector store health check failed", "error", err)
		return 0, false
	}
	if !exists {
		logger.WarnContext(ctx, "vector store collection does not exist", "collection", h.collectionName)
		return 0, false
	}
	count, err := h.vectorStore.Count(ctx, h.collectionName)
	if err != nil {
		logger.WarnContext(ctx, "vector store count failed", "error", err)
		return 0, false
	}
	return count, true
}
