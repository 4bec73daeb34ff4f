package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kyschat/internal/app"
	"kyschat/internal/config"
	"kyschat/internal/handlers"
	"kyschat/internal/http"
	"kyschat/internal/llm"
	"kyschat/internal/rag"
	"kyschat/internal/service"
	"kyschat/internal/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	slog.SetDefault(app.NewLogger(cfg, os.Stdout))
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := app.OpenDatabase(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	// Create repository instances
	chunkRepo := storage.NewChunkRepo(db)
	messageRepo := storage.NewMessageRepo(db)
	feedbackRepo := storage.NewFeedbackRepo(db)
	userRepo := storage.NewUserRepo(db)
	sessionRepo := storage.NewSessionRepo(db)
	statsRepo := storage.NewStatsRepo(db)

	vectorStore, vsCloser, err := app.OpenVectorStore(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() {
		_ = vsCloser.Close()
	}()

	embedder, err := app.NewEmbedder(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	pipeline, err := app.NewPipeline(cfg, db, embedder, vectorStore)
	if err != nil {
		log.Fatalf("%v", err)
	}

	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)
	llmClient.Temperature = cfg.LLMTemperature

	ragEngine := rag.NewEngine(
		embedder,
		vectorStore,
		cfg.VectorCollection,
		chunkRepo,
		llmClient,
		cfg.RetrievalK,
	)
	slog.Info("RAG engine initialized", "model", cfg.LLMModelName, "k", cfg.RetrievalK)

	authService := service.NewAuthService(userRepo, sessionRepo, cfg.SessionTTL)
	if cfg.SeedDefaultUsers {
		if err := authService.SeedDefaultUsers(ctx); err != nil {
			log.Fatalf("Failed to seed default users: %v", err)
		}
		slog.Warn("Default users seeded, change their passwords before going live")
	}

	indexHandler := handlers.NewIndexHandler(pipeline, cfg.EmbeddingModelName)

	deps := &http.Deps{
		ChatService:     service.NewChatService(ragEngine, messageRepo),
		FeedbackService: service.NewFeedbackService(feedbackRepo, messageRepo),
		AuthService:     authService,
		AdminService:    service.NewAdminService(statsRepo, messageRepo, feedbackRepo, userRepo),
		VectorStore:     vectorStore,
		CollectionName:  cfg.VectorCollection,
		ModelChecker:    llm.NewModelChecker(cfg.LLMBaseURL, cfg.LLMAPIKey),
		ModelNames:      []string{cfg.LLMModelName},
		IndexHandler:    indexHandler,
	}
	if cfg.EmbeddingBaseURL == cfg.LLMBaseURL {
		deps.ModelNames = append(deps.ModelNames, cfg.EmbeddingModelName)
	}
	router := http.NewRouter(deps)

	// Ingest in the background when the collection starts out empty
	count, err := vectorStore.Count(ctx, cfg.VectorCollection)
	if err != nil {
		slog.Warn("Could not count indexed chunks", "error", err)
	}
	if err == nil && count == 0 {
		slog.Info("Collection is empty, starting background ingestion", "docs_path", cfg.DocsPath)
		indexHandler.Start(ctx, false)
	} else if err == nil {
		slog.Info("Using existing index", "chunks", count)
	}

	addr := ":" + cfg.APIPort
	srv := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", addr)
		slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Fatalf("API server failed to start: %v", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	indexHandler.Wait()
	slog.Info("Server stopped")
}
