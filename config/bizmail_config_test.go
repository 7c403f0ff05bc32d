package config

import (
	"testing"
	"time"

	"bizmail_server/pkg/apperr"
)

// clearEnv blanks every key Load reads; getEnv treats empty as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "DATABASE_URL", "REDIS_URL", "ALLOWED_ORIGINS",
		"LLM_PROVIDER", "YANDEX_API_KEY", "YANDEX_FOLDER_ID", "YANDEX_MODEL", "YANDEX_API_URL",
		"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL",
		"LLM_TIMEOUT_SEC", "LLM_CONNECT_TIMEOUT_SEC", "LLM_MAX_RETRIES", "LLM_RETRY_DELAY_SEC", "LLM_RATE_LIMIT_RPS",
		"CACHE_ENABLED", "CACHE_TTL_ANALYSIS_HOUR", "CACHE_TTL_GENERATION_HOUR", "CACHE_MAX_ENTRIES", "CACHE_L1_TTL_SEC",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("YANDEX_API_KEY", "key")
	t.Setenv("YANDEX_FOLDER_ID", "folder")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if !cfg.IsDevelopment() || cfg.IsProduction() {
		t.Errorf("Environment = %q, want development", cfg.Environment)
	}
	if cfg.LLMProvider != ProviderYandex {
		t.Errorf("LLMProvider = %q", cfg.LLMProvider)
	}
	if cfg.LLMTimeout() != 90*time.Second || cfg.LLMConnectTimeout() != 15*time.Second {
		t.Errorf("timeouts = %v/%v", cfg.LLMTimeout(), cfg.LLMConnectTimeout())
	}
	if cfg.LLMMaxRetries != 3 || cfg.LLMRetryDelay() != 2*time.Second {
		t.Errorf("retries = %d delay %v", cfg.LLMMaxRetries, cfg.LLMRetryDelay())
	}
	if !cfg.CacheEnabled || cfg.AnalysisCacheTTL() != 24*time.Hour || cfg.GenerationCacheTTL() != time.Hour {
		t.Errorf("cache = %v %v %v", cfg.CacheEnabled, cfg.AnalysisCacheTTL(), cfg.GenerationCacheTTL())
	}
	if cfg.CacheMaxEntries != 10000 {
		t.Errorf("CacheMaxEntries = %d", cfg.CacheMaxEntries)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("LLM_RATE_LIMIT_RPS", "2.5")
	t.Setenv("LLM_TIMEOUT_SEC", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LLMProvider != ProviderOpenAI {
		t.Errorf("LLMProvider = %q", cfg.LLMProvider)
	}
	if !cfg.IsProduction() {
		t.Error("expected production")
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %q", cfg.AllowedOrigins)
	}
	if cfg.CacheEnabled {
		t.Error("CacheEnabled = true")
	}
	if cfg.LLMRateLimitRPS != 2.5 {
		t.Errorf("LLMRateLimitRPS = %v", cfg.LLMRateLimitRPS)
	}
	if cfg.LLMTimeoutSec != 90 {
		t.Errorf("invalid int should keep default, got %d", cfg.LLMTimeoutSec)
	}
}

func TestLoadRejectsMissingCredentials(t *testing.T) {
	clearEnv(t)

	if _, err := Load(); err == nil {
		t.Fatal("expected error without provider credentials")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"yandex ok", Config{LLMProvider: ProviderYandex, YandexAPIKey: "k", YandexFolderID: "f", LLMMaxRetries: 1}, false},
		{"yandex missing folder", Config{LLMProvider: ProviderYandex, YandexAPIKey: "k", LLMMaxRetries: 1}, true},
		{"openai ok", Config{LLMProvider: ProviderOpenAI, OpenAIAPIKey: "k", LLMMaxRetries: 3}, false},
		{"openai missing key", Config{LLMProvider: ProviderOpenAI, LLMMaxRetries: 3}, true},
		{"unknown provider", Config{LLMProvider: "gigachat", LLMMaxRetries: 3}, true},
		{"zero retries", Config{LLMProvider: ProviderOpenAI, OpenAIAPIKey: "k"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && apperr.AsAppError(err).Code != apperr.CodeConfigError {
				t.Errorf("code = %s, want %s", apperr.AsAppError(err).Code, apperr.CodeConfigError)
			}
		})
	}
}
