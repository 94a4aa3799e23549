package api

import (
	"net/http"
	"time"

	"skillswap-backend/internal/api/handlers"
	"skillswap-backend/internal/auth"
	"skillswap-backend/internal/realtime"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Dependencies struct {
	Issuer          *auth.TokenIssuer
	WSManager       *realtime.Manager
	AuthHandler     *handlers.AuthHandler
	ChatHandler     *handlers.ChatHandler
	FeedbackHandler *handlers.FeedbackHandler
}

func NewRouter(deps *Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	// CORS middleware, credentials required for the session cookie
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"skillswap-backend"}`))
	})

	requireAuth := auth.RequireAuth(deps.Issuer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", deps.AuthHandler.Register)
			r.Post("/login", deps.AuthHandler.Login)
			r.Post("/logout", deps.AuthHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/profile", deps.AuthHandler.GetProfile)
				r.Put("/profile", deps.AuthHandler.UpdateProfile)
				r.Get("/users", deps.AuthHandler.GetUsers)
			})
		})

		r.Route("/chats", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", deps.ChatHandler.ListChats)
			r.Get("/{chatID}/info", deps.ChatHandler.GetChatInfo)
			r.Get("/{chatID}/messages", deps.ChatHandler.ListMessages)
			r.Delete("/messages/{messageID}", deps.ChatHandler.DeleteMessage)
			r.Post("/messages/bulk-delete", deps.ChatHandler.BulkDeleteMessages)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/feedback", deps.FeedbackHandler.AddFeedback)
		})
	})

	// WebSocket endpoint
	r.Get("/ws", deps.WSManager.HandleWebSocket)

	return r
}
