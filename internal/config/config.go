package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Storage backend: "redis", "postgres" or "memory"
	StorageBackend string
	RedisURL       string
	DatabaseURL    string

	// Catalog API
	CatalogAPIURL string
	PageSize      int

	// Gemini
	GeminiModels  []string
	GeminiTimeout time.Duration
	GeminiAPIKey  string // optional server-wide default; sessions may override

	// Chat images
	ImageMaxBytes int
	ImageCap      int
	SweepInterval time.Duration

	// Frontend
	FrontendURL string
}

// Fallback priority order for the generative models. Lower-index models are
// tried first; the list is re-walked from the top on every turn.
var defaultModels = []string{
	"gemini-2.5-flash",
	"gemini-2.5-pro",
	"gemini-2.0-flash-exp",
	"gemini-1.5-flash",
	"gemini-1.5-pro",
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:           getEnvOrDefault("PORT", "8080"),
		Env:            getEnvOrDefault("ENV", "development"),
		StorageBackend: getEnvOrDefault("STORAGE_BACKEND", "redis"),
		RedisURL:       getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		DatabaseURL:    getEnvOrDefault("DATABASE_URL", ""),
		CatalogAPIURL:  getEnvOrDefault("CATALOG_API_URL", "https://dummyjson.com"),
		PageSize:       getEnvAsIntOrDefault("CATALOG_PAGE_SIZE", 9),
		GeminiModels:   getEnvAsListOrDefault("GEMINI_MODELS", defaultModels),
		GeminiTimeout:  time.Duration(getEnvAsIntOrDefault("GEMINI_TIMEOUT_SECONDS", 60)) * time.Second,
		GeminiAPIKey:   getEnvOrDefault("GEMINI_API_KEY", ""),
		ImageMaxBytes:  getEnvAsIntOrDefault("CHAT_IMAGE_MAX_BYTES", 5*1024*1024),
		ImageCap:       getEnvAsIntOrDefault("CHAT_IMAGE_CAP", 50),
		SweepInterval:  time.Duration(getEnvAsIntOrDefault("CHAT_IMAGE_SWEEP_SECONDS", 60)) * time.Second,
		FrontendURL:    getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	if cfg.StorageBackend == "postgres" && cfg.DatabaseURL == "" {
		panic("DATABASE_URL is required when STORAGE_BACKEND=postgres")
	}

	return cfg
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
