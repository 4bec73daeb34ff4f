package http

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"kyschat/internal/handlers"
	"kyschat/internal/service"
	"kyschat/internal/vectorstore"
)

//go:embed static/index.html
var defaultIndexHTML string

// Deps holds dependencies for the HTTP router.
type Deps struct {
	ChatService     service.ChatService
	FeedbackService service.FeedbackService
	AuthService     service.AuthService
	AdminService    service.AdminService

	VectorStore    vectorstore.VectorStore
	CollectionName string

	// ModelChecker is optional; when set, health checks verify ModelNames are served.
	ModelChecker handlers.ModelChecker
	ModelNames   []string

	// IndexHandler is optional; without it the reindex routes are not mounted.
	IndexHandler *handlers.IndexHandler

	// IndexHTML overrides the embedded chat page.
	IndexHTML string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	askHandler := handlers.NewAskHandler(deps.ChatService)
	feedbackHandler := handlers.NewFeedbackHandler(deps.FeedbackService)
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	adminHandler := handlers.NewAdminHandler(deps.AdminService, deps.AuthService)
	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.CollectionName, deps.ModelChecker, deps.ModelNames...)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Route("/v1", func(r chi.Router) {
			r.Method(http.MethodPost, "/ask", askHandler)
			r.Method(http.MethodPost, "/feedback", feedbackHandler)

			r.Route("/admin", func(r chi.Router) {
				r.Post("/login", authHandler.Login)
				r.Post("/logout", authHandler.Logout)

				r.Group(func(r chi.Router) {
					r.Use(RequireAuth(deps.AuthService))

					r.Get("/dashboard", adminHandler.Dashboard)
					r.Get("/top-questions", adminHandler.TopQuestions)
					r.Get("/messages", adminHandler.Messages)
					r.Put("/messages/{id}/correct-answer", adminHandler.SetCorrectAnswer)
					r.Get("/chunks", adminHandler.Chunks)
					r.Get("/metrics", adminHandler.Metrics)
					r.Get("/feedback", adminHandler.Feedback)

					r.Group(func(r chi.Router) {
						r.Use(RequireRole(service.RoleAdmin))

						r.Delete("/messages", adminHandler.DeleteMessages)
						r.Get("/users", adminHandler.Users)
						r.Post("/users", adminHandler.CreateUser)
						r.Delete("/users/{username}", adminHandler.DisableUser)

						if deps.IndexHandler != nil {
							r.Method(http.MethodPost, "/reindex", deps.IndexHandler)
							r.Get("/index-stats", deps.IndexHandler.Stats)
						}
					})
				})
			})
		})
	})

	indexHTML := deps.IndexHTML
	if indexHTML == "" {
		indexHTML = defaultIndexHTML
	}

	// Serve HTML page at root
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(indexHTML))
	})

	return r
}
