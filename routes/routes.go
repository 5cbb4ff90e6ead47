package routes

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/storefront-assistant/app"
	"github.com/upb/storefront-assistant/handlers"
	"github.com/upb/storefront-assistant/middleware"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	health := handlers.NewHealthHandler(dbOrNil(deps), handlers.ReadinessOptions{
		Cache:               deps.Cache,
		EmbeddingConfigured: deps.EmbeddingConfigured(),
		LLMConfigured:       deps.LLM != nil,
	}, deps.Logger)
	assistantHandler := handlers.NewAssistantHandler(deps.Assistant, deps.Orchestrator, deps.Logger)
	chatbot := handlers.NewChatbotHandler(deps.Chat, deps.Logger)
	documents := handlers.NewDocumentHandler(deps.Repos.Documents, deps.Logger)
	ws := handlers.NewWebSocketHandler(deps.Assistant, deps.Config.WebSocket, deps.Config.Server.AllowedOrigins, deps.Logger, deps.Metrics)

	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	r.Route("/api/v1", func(r chi.Router) {
		// Long-lived; must not inherit the request timeout
		r.Get("/assistant/ws/{user_id}", ws.HandleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(60 * time.Second))

			r.Route("/assistant", func(r chi.Router) {
				r.Post("/rag", assistantHandler.HandleRAG)
				r.Post("/recommend", assistantHandler.HandleRecommend)
				r.Post("/search", assistantHandler.HandleSearch)
				r.Get("/discounts", assistantHandler.HandleDiscounts)
				r.Post("/feedback", assistantHandler.HandleFeedback)
				r.Get("/documents", documents.HandleListDocuments)
				r.Get("/documents/{id}", documents.HandleGetDocument)

				r.Group(func(r chi.Router) {
					r.Use(deps.AuthMiddleware.RequireAuth)
					r.Post("/greet", assistantHandler.HandleGreet)
					r.Get("/feedback/prompt", assistantHandler.HandleFeedbackPrompt)
				})
			})

			r.With(deps.AuthMiddleware.RequireAuth).Post("/chatbot", chatbot.HandleChat)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}

func dbOrNil(deps *app.Dependencies) *sql.DB {
	if deps.DB == nil {
		return nil
	}
	return deps.DB.DB
}
