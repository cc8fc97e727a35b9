package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vestia-backend/internal/catalog"
	"vestia-backend/internal/config"
	"vestia-backend/internal/database"
	"vestia-backend/internal/handlers"
	"vestia-backend/internal/router"
	"vestia-backend/internal/services"
	"vestia-backend/internal/storage"
	"vestia-backend/internal/store"
	"vestia-backend/internal/websocket"
	"vestia-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting VestIA Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Session Storage ────
	var (
		backend  storage.Store
		wsHub    *websocket.Hub
		notifier store.Notifier
	)

	switch cfg.StorageBackend {
	case "redis":
		redisClients, err := database.NewRedisClients(cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer redisClients.Close()
		log.Println("✓ Redis connected")

		backend = storage.NewRedisStore(redisClients.KV)
		wsHub = websocket.NewHub(redisClients.PubSub)
		notifier = websocket.NewRedisNotifier(redisClients.KV)

	case "postgres":
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("✗ PostgreSQL connection failed: %v", err)
		}
		defer pool.Close()
		log.Println("✓ PostgreSQL connected")

		if err := database.RunMigrations(pool, "migrations"); err != nil {
			log.Fatalf("✗ Database migration failed: %v", err)
		}
		log.Println("✓ Database migrations applied")

		backend = storage.NewPostgresStore(pool)
		wsHub = websocket.NewHub(nil)
		notifier = websocket.NewHubNotifier(wsHub)

	case "memory":
		backend = storage.NewMemoryStore()
		wsHub = websocket.NewHub(nil)
		notifier = websocket.NewHubNotifier(wsHub)
		log.Println("✓ In-memory session storage (state is lost on restart)")

	default:
		log.Fatalf("✗ Unknown STORAGE_BACKEND %q (want redis, postgres or memory)", cfg.StorageBackend)
	}

	// ──── Step 3: Initialize Stores ────
	catalogClient := catalog.NewClient(cfg.CatalogAPIURL)
	modelCatalog := store.NewModelCatalog(cfg.GeminiModels)
	cartStore := store.NewCartStore(backend, catalogClient, notifier)
	imageStore := store.NewImageStore(backend, cfg.ImageMaxBytes, cfg.ImageCap)
	chatStore := store.NewChatStore(backend, imageStore)
	settingsStore := store.NewSettingsStore(backend)

	// ──── Step 4: Initialize Gemini Service ────
	geminiService := services.NewGeminiService(modelCatalog, notifier, cfg.GeminiTimeout)
	log.Printf("✓ Gemini service initialized (%d models in fallback list)", len(cfg.GeminiModels))

	// ──── Step 5: Start Image Sweeper ────
	sweeper := worker.NewImageSweeper(imageStore, cfg.SweepInterval)
	sweeper.Start()
	log.Println("✓ Image sweeper started")

	// ──── Step 6: Initialize Handlers ────
	catalogHandler := handlers.NewCatalogHandler(catalogClient, cfg.PageSize)
	cartHandler := handlers.NewCartHandler(cartStore)
	chatHandler := handlers.NewChatHandler(chatStore, imageStore, settingsStore, geminiService, cfg.GeminiAPIKey)
	settingsHandler := handlers.NewSettingsHandler(settingsStore, cfg.GeminiAPIKey != "")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		catalogHandler,
		cartHandler,
		chatHandler,
		settingsHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// A chat send may walk the whole fallback list, one timeout per model.
		WriteTimeout: cfg.GeminiTimeout*time.Duration(len(cfg.GeminiModels)) + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		sweeper.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ VestIA Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
