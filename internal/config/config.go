// Package config reads process configuration from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	ProviderGroq        = "groq"
	ProviderOpenAI      = "openai"
	ProviderOllama      = "ollama"
	ProviderHuggingFace = "huggingface"
)

type Config struct {
	AIProvider string

	GroqAPIKey string
	GroqModel  string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	OllamaURL   string
	OllamaModel string

	HuggingFaceAPIKey string
	HuggingFaceModel  string

	// ParamPrefix is the SSM path used for provider keys missing from the
	// environment, e.g. /clinical-assistant/ + groq-api-key.
	ParamPrefix string

	RecommendationsFile string
	ReportTable         string
	RedisAddr           string
	SummaryCacheTTL     time.Duration
	WikipediaURL        string
	OverpassURL         string

	LogLevel            string
	LogFormat           string
	MaxTranscriptLength int
}

// Load reads .env when present and then the process environment. Variables
// already set in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	return FromLookup(os.Getenv)
}

// FromLookup builds a Config from getenv and validates it.
func FromLookup(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		AIProvider:          strings.ToLower(get("AI_PROVIDER", ProviderGroq)),
		GroqAPIKey:          get("GROQ_API_KEY", ""),
		GroqModel:           get("GROQ_MODEL", ""),
		OpenAIAPIKey:        get("OPENAI_API_KEY", ""),
		OpenAIModel:         get("OPENAI_MODEL", ""),
		OpenAIBaseURL:       get("OPENAI_BASE_URL", ""),
		OllamaURL:           get("OLLAMA_URL", ""),
		OllamaModel:         get("OLLAMA_MODEL", ""),
		HuggingFaceAPIKey:   get("HUGGINGFACE_API_KEY", ""),
		HuggingFaceModel:    get("HUGGINGFACE_MODEL", ""),
		ParamPrefix:         get("PARAM_PREFIX", ""),
		RecommendationsFile: get("RECOMMENDATIONS_FILE", ""),
		ReportTable:         get("REPORT_TABLE", ""),
		RedisAddr:           get("REDIS_ADDR", ""),
		WikipediaURL:        get("WIKIPEDIA_URL", ""),
		OverpassURL:         get("OVERPASS_URL", ""),
		LogLevel:            strings.ToLower(get("LOG_LEVEL", "info")),
		LogFormat:           strings.ToLower(get("LOG_FORMAT", "json")),
	}

	var err error
	if cfg.SummaryCacheTTL, err = time.ParseDuration(get("SUMMARY_CACHE_TTL", "24h")); err != nil {
		return Config{}, fmt.Errorf("config: SUMMARY_CACHE_TTL: %w", err)
	}
	if cfg.MaxTranscriptLength, err = strconv.Atoi(get("MAX_TRANSCRIPT_LENGTH", "20000")); err != nil {
		return Config{}, fmt.Errorf("config: MAX_TRANSCRIPT_LENGTH: %w", err)
	}
	if cfg.MaxTranscriptLength <= 0 {
		return Config{}, errors.New("config: MAX_TRANSCRIPT_LENGTH must be positive")
	}

	switch cfg.AIProvider {
	case ProviderGroq, ProviderOpenAI, ProviderOllama, ProviderHuggingFace:
	default:
		return Config{}, fmt.Errorf("config: unknown AI_PROVIDER %q", cfg.AIProvider)
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return Config{}, fmt.Errorf("config: unknown LOG_FORMAT %q", cfg.LogFormat)
	}
	return cfg, nil
}

// Logger builds the root logger for the configured level and format.
func (c Config) Logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if c.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().
		Timestamp().
		Str("service", "clinical-assistant").
		Str("provider", c.AIProvider).
		Logger()
}
