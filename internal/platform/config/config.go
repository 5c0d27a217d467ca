// Package config builds runtime configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures process-level configuration.
type Config struct {
	Addr          string
	AdminToken    string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  string
	AuditTopic    string
	JWTSigningKey string
	SessionTTL    time.Duration

	// Object storage for uploaded document blobs.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Search (optional; Postgres FTS is the fallback).
	MeiliURL       string
	MeiliMasterKey string

	// LLM providers.
	LLMProvider     string // openai | anthropic | gemini
	OpenAIAPIKey    string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	GeminiAPIKey    string
	GeminiModel     string

	// Clause segmentation falls back to blank-line splitting when set to
	// "heuristic" (offline/dev mode).
	SegmenterMode string // llm | heuristic

	AnalysisWorkers int
	OutboxInterval  time.Duration
}

// FromEnv builds a Config from environment variables with development
// defaults. Production deployments override via the environment.
func FromEnv() Config {
	return Config{
		Addr:            envOr("LEXDRAFT_ADDR", ":8080"),
		AdminToken:      os.Getenv("ADMIN_TOKEN"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		KafkaBrokers:    os.Getenv("KAFKA_BROKERS"),
		AuditTopic:      envOr("AUDIT_TOPIC", "lexdraft.audit.v1"),
		JWTSigningKey:   envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		SessionTTL:      durationOr("SESSION_TTL", 12*time.Hour),
		MinioEndpoint:   os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey:  os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:  os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:     envOr("MINIO_BUCKET", "lexdraft-documents"),
		MinioUseSSL:     os.Getenv("MINIO_USE_SSL") == "true",
		MeiliURL:        os.Getenv("MEILI_URL"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),
		LLMProvider:     envOr("LLM_PROVIDER", "openai"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     envOr("OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-3-5-sonnet-20240620"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     envOr("GEMINI_MODEL", "gemini-2.0-flash"),
		SegmenterMode:   envOr("SEGMENTER_MODE", "llm"),
		AnalysisWorkers: intOr("ANALYSIS_WORKERS", 4),
		OutboxInterval:  durationOr("OUTBOX_INTERVAL", 2*time.Second),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
