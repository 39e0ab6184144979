package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port             int
	GatewayPort      int
	GatewayHost      string
	LogLevel         string
	GeminiAPIKey     string
	GeminiBaseURL    string
	GeminiTimeout    time.Duration
	SearchURL        string
	DatabaseURL      string
	NatsURL          string
	NatsToken        string
	UpstreamURL      string
	CacheVersion     string
	CachePath        string
	SyncQueuePath    string
	MaxDocumentBytes int
}

func Load() Config {
	return Config{
		Port:             envInt("STEFAN_PORT", 8760),
		GatewayPort:      envInt("STEFAN_GATEWAY_PORT", 8761),
		// Empty means every Host header is treated as same-origin.
		GatewayHost:      envStr("STEFAN_GATEWAY_HOST", ""),
		LogLevel:         envStr("LOG_LEVEL", "info"),
		GeminiAPIKey:     envStr("GEMINI_API_KEY", ""),
		GeminiBaseURL:    envStr("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiTimeout:    envDuration("STEFAN_GEMINI_TIMEOUT", 60*time.Second),
		SearchURL:        envStr("STEFAN_SEARCH_URL", ""),
		DatabaseURL:      envStr("DATABASE_URL", ""),
		NatsURL:          envStr("NATS_URL", "nats://localhost:4222"),
		NatsToken:        envStr("NATS_TOKEN", ""),
		UpstreamURL:      envStr("STEFAN_UPSTREAM_URL", "http://localhost:8760"),
		CacheVersion:     envStr("STEFAN_CACHE_VERSION", "stefan-v2-offline-1"),
		CachePath:        envStr("STEFAN_CACHE_PATH", "stefan-cache.db"),
		SyncQueuePath:    envStr("STEFAN_SYNC_QUEUE_PATH", "stefan-sync-queue.json"),
		MaxDocumentBytes: envInt("STEFAN_MAX_DOCUMENT_BYTES", 200000),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
