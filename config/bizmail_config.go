package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"bizmail_server/pkg/apperr"
)

const (
	ProviderYandex = "yandex"
	ProviderOpenAI = "openai"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// Storage
	DatabaseURL string
	RedisURL    string

	// LLM
	LLMProvider          string
	YandexAPIKey         string
	YandexFolderID       string
	YandexModel          string
	YandexAPIURL         string
	OpenAIAPIKey         string
	OpenAIModel          string
	OpenAIBaseURL        string
	LLMTimeoutSec        int
	LLMConnectTimeoutSec int
	LLMMaxRetries        int
	LLMRetryDelaySec     int
	LLMRateLimitRPS      float64

	// Cache
	CacheEnabled           bool
	CacheTTLAnalysisHour   int
	CacheTTLGenerationHour int
	CacheMaxEntries        int
	CacheL1TTLSec          int

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		LLMProvider:          strings.ToLower(getEnv("LLM_PROVIDER", ProviderYandex)),
		YandexAPIKey:         getEnv("YANDEX_API_KEY", ""),
		YandexFolderID:       getEnv("YANDEX_FOLDER_ID", ""),
		YandexModel:          getEnv("YANDEX_MODEL", "yandexgpt/latest"),
		YandexAPIURL:         getEnv("YANDEX_API_URL", "https://rest-assistant.api.cloud.yandex.net/v1/responses"),
		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:        getEnv("OPENAI_BASE_URL", ""),
		LLMTimeoutSec:        getEnvInt("LLM_TIMEOUT_SEC", 90),
		LLMConnectTimeoutSec: getEnvInt("LLM_CONNECT_TIMEOUT_SEC", 15),
		LLMMaxRetries:        getEnvInt("LLM_MAX_RETRIES", 3),
		LLMRetryDelaySec:     getEnvInt("LLM_RETRY_DELAY_SEC", 2),
		LLMRateLimitRPS:      getEnvFloat("LLM_RATE_LIMIT_RPS", 0),

		CacheEnabled:           getEnvBool("CACHE_ENABLED", true),
		CacheTTLAnalysisHour:   getEnvInt("CACHE_TTL_ANALYSIS_HOUR", 24),
		CacheTTLGenerationHour: getEnvInt("CACHE_TTL_GENERATION_HOUR", 1),
		CacheMaxEntries:        getEnvInt("CACHE_MAX_ENTRIES", 10000),
		CacheL1TTLSec:          getEnvInt("CACHE_L1_TTL_SEC", 120),

		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", nil),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected LLM provider has credentials.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderYandex:
		if c.YandexAPIKey == "" || c.YandexFolderID == "" {
			return apperr.ConfigError("YANDEX_API_KEY and YANDEX_FOLDER_ID are required for the yandex provider")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return apperr.ConfigError("OPENAI_API_KEY is required for the openai provider")
		}
	default:
		return apperr.ConfigError("LLM_PROVIDER must be one of yandex, openai")
	}

	if c.LLMMaxRetries < 1 {
		return apperr.ConfigError("LLM_MAX_RETRIES must be at least 1")
	}
	return nil
}

func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSec) * time.Second
}

func (c *Config) LLMConnectTimeout() time.Duration {
	return time.Duration(c.LLMConnectTimeoutSec) * time.Second
}

func (c *Config) LLMRetryDelay() time.Duration {
	return time.Duration(c.LLMRetryDelaySec) * time.Second
}

func (c *Config) AnalysisCacheTTL() time.Duration {
	return time.Duration(c.CacheTTLAnalysisHour) * time.Hour
}

func (c *Config) GenerationCacheTTL() time.Duration {
	return time.Duration(c.CacheTTLGenerationHour) * time.Hour
}

func (c *Config) CacheL1TTL() time.Duration {
	return time.Duration(c.CacheL1TTLSec) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
