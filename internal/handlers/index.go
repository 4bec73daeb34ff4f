package handlers

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"kyschat/internal/contextutil"
	"kyschat/internal/indexer"
)

// Indexer rebuilds the document index.
type Indexer interface {
	IndexAll(ctx context.Context) (*indexer.Summary, error)
	ClearAll(ctx context.Context) error
	GetIndexingCoverageStats(ctx context.Context, embeddingModelName string) (*indexer.IndexingCoverageStats, error)
}

// IndexHandler handles HTTP requests for triggering re-indexing.
type IndexHandler struct {
	indexer            Indexer
	embeddingModelName string
	running            atomic.Bool
	wg                 sync.WaitGroup
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(idx Indexer, embeddingModelName string) *IndexHandler {
	return &IndexHandler{
		indexer:            idx,
		embeddingModelName: embeddingModelName,
	}
}

// IndexResponse represents the response from the index endpoint.
type IndexResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ServeHTTP starts re-indexing in the background and returns 202 Accepted.
// With ?force=true all indexed data is cleared first. A second request while
// indexing is running gets 409 Conflict.
func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	force := queryBool(r, "force")

	// Indexing outlives the request but keeps its logger.
	if !h.Start(context.WithoutCancel(ctx), force) {
		writeError(w, http.StatusConflict, "Indexing already in progress")
		return
	}
	if force {
		logger.InfoContext(ctx, "force re-indexing triggered via API")
	} else {
		logger.InfoContext(ctx, "re-indexing triggered via API")
	}

	message := "Indexing started. Check server logs for progress."
	if force {
		message = "Force re-indexing started (all existing data cleared). Check server logs for progress."
	}
	writeJSON(ctx, w, http.StatusAccepted, IndexResponse{
		Message: message,
		Status:  "accepted",
	})
}

// Start runs indexing in the background unless a run is already in progress,
// and reports whether it started one. With force, all indexed data is cleared
// first. Wait blocks until the started run returns; cancelling ctx stops it.
func (h *IndexHandler) Start(ctx context.Context, force bool) bool {
	if !h.running.CompareAndSwap(false, true) {
		return false
	}

	logger := contextutil.LoggerFromContext(ctx)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer h.running.Store(false)

		if force {
			if err := h.indexer.ClearAll(ctx); err != nil {
				logger.ErrorContext(ctx, "failed to clear existing data", "error", err)
				return
			}
			logger.InfoContext(ctx, "cleared all existing indexed data")
		}
		summary, err := h.indexer.IndexAll(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "re-indexing completed with errors", "error", err)
			return
		}
		logger.InfoContext(ctx, "re-indexing completed successfully",
			"files", summary.Files,
			"indexed", summary.Indexed,
			"unchanged", summary.Unchanged,
			"errors", summary.Errors,
			"chunks", summary.Chunks)
	}()
	return true
}

// Stats returns indexing coverage statistics.
func (h *IndexHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.indexer.GetIndexingCoverageStats(ctx, h.embeddingModelName)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to get indexing coverage stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to compute index stats")
		return
	}
	writeJSON(ctx, w, http.StatusOK, stats)
}

// Wait blocks until a run started by Start or ServeHTTP has finished.
func (h *IndexHandler) Wait() {
	h.wg.Wait()
}
