package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Postgres connection; empty selects the in-memory store.
	DatabaseURL string

	// AI gateway
	GatewayURL    string
	GatewayAPIKey string
	GatewayModel  string

	// Chunking thresholds (characters)
	MinFragment    int
	MergeTarget    int
	ShortParagraph int
	MaxChunkChars  int
	SplitTarget    int
	SplitMin       int

	// Retrieval
	ChatTopChunks      int
	ChatFallbackChunks int
	ChatHistoryLimit   int
	SummaryMaxChunks   int
	QuestionBatchSize  int

	// Ingestion
	ChunkWorkers    int
	MaxRequestBytes int64
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		APIKey: os.Getenv("STUDYASSIST_API_KEY"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		GatewayURL:    envOr("AI_GATEWAY_URL", "https://ai.gateway.lovable.dev/v1"),
		GatewayAPIKey: os.Getenv("AI_GATEWAY_API_KEY"),
		GatewayModel:  envOr("AI_GATEWAY_MODEL", "google/gemini-3-flash-preview"),

		MinFragment:    envInt("CHUNK_MIN_FRAGMENT", 30),
		MergeTarget:    envInt("CHUNK_MERGE_TARGET", 500),
		ShortParagraph: envInt("CHUNK_SHORT_PARAGRAPH", 300),
		MaxChunkChars:  envInt("CHUNK_MAX_CHARS", 2000),
		SplitTarget:    envInt("CHUNK_SPLIT_TARGET", 1500),
		SplitMin:       envInt("CHUNK_SPLIT_MIN", 200),

		ChatTopChunks:      envInt("CHAT_TOP_CHUNKS", 8),
		ChatFallbackChunks: envInt("CHAT_FALLBACK_CHUNKS", 5),
		ChatHistoryLimit:   envInt("CHAT_HISTORY_LIMIT", 6),
		SummaryMaxChunks:   envInt("SUMMARY_MAX_CHUNKS", 60),
		QuestionBatchSize:  envInt("QUESTION_BATCH_SIZE", 15),

		ChunkWorkers:    envInt("CHUNK_WORKERS", 4),
		MaxRequestBytes: envInt64("MAX_REQUEST_BYTES", 10485760), // 10MB
	}

	if cfg.ChatTopChunks <= 0 {
		cfg.ChatTopChunks = 8
	}
	if cfg.ChatFallbackChunks <= 0 {
		cfg.ChatFallbackChunks = 5
	}
	if cfg.SummaryMaxChunks <= 0 {
		cfg.SummaryMaxChunks = 60
	}
	if cfg.QuestionBatchSize <= 0 {
		cfg.QuestionBatchSize = 15
	}
	if cfg.ChunkWorkers <= 0 {
		cfg.ChunkWorkers = 4
	}
	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = 10485760
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("STUDYASSIST_API_KEY is required")
	}
	if c.GatewayAPIKey == "" {
		return fmt.Errorf("AI_GATEWAY_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
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

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
