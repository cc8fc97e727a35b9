package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"vestia-backend/internal/handlers"
	"vestia-backend/internal/middleware"
	"vestia-backend/internal/websocket"
)

func New(
	catalogHandler *handlers.CatalogHandler,
	cartHandler *handlers.CartHandler,
	chatHandler *handlers.ChatHandler,
	settingsHandler *handlers.SettingsHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))
	r.Use(middleware.Session)

	// Chat rate limiter (20 req/min per IP)
	chatLimiter := middleware.NewRateLimiter(20, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Catalog Routes ────
		r.Route("/products", func(r chi.Router) {
			r.Get("/", catalogHandler.ListProducts)
			r.Get("/{id}", catalogHandler.GetProduct)
		})

		// ──── Cart Routes ────
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{id}", cartHandler.ChangeQuantity)
			r.Delete("/items/{id}", cartHandler.RemoveItem)
			r.Post("/checkout", cartHandler.Checkout)
		})

		// ──── Chat Routes ────
		r.Route("/chat", func(r chi.Router) {
			r.Delete("/", chatHandler.ClearChat)
			r.Get("/history", chatHandler.GetHistory)
			r.Get("/stats", chatHandler.GetStats)
			r.Get("/models", chatHandler.GetModels)
			r.Post("/cancel", chatHandler.CancelSend)

			r.Group(func(r chi.Router) {
				r.Use(chatLimiter.Middleware)
				r.Post("/messages", chatHandler.SendMessage)
			})
		})

		// ──── Settings Routes ────
		r.Route("/settings", func(r chi.Router) {
			r.Put("/api-key", settingsHandler.SaveAPIKey)
			r.Get("/api-key", settingsHandler.GetAPIKeyStatus)
			r.Delete("/api-key", settingsHandler.ClearAPIKey)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
