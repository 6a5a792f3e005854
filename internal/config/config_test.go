package config_test

import (
	"testing"
	"time"

	"github.com/PabloGalante/solace/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SOLACE_MODE", "")
	t.Setenv("SOLACE_LLM_PROVIDER", "")
	t.Setenv("SOLACE_MEMORY_BACKEND", "")

	cfg := config.Load()

	if cfg.Mode != config.ModeLocal {
		t.Fatalf("expected local mode, got %s", cfg.Mode)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected port 8080, got %s", cfg.Port)
	}
	if len(cfg.LLMProviders) != 1 || cfg.LLMProviders[0] != config.ProviderNone {
		t.Fatalf("expected llm provider none, got %v", cfg.LLMProviders)
	}
	if cfg.MemoryCacheLimit != 100 {
		t.Fatalf("expected cache limit 100, got %d", cfg.MemoryCacheLimit)
	}
	if cfg.SessionIdleTTL != 30*time.Minute {
		t.Fatalf("expected 30m idle ttl, got %s", cfg.SessionIdleTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestLoad_ParsesListsAndDurations(t *testing.T) {
	t.Setenv("SOLACE_LLM_PROVIDER", "openai, gemini")
	t.Setenv("SOLACE_LLM_TIMEOUT", "5s")
	t.Setenv("SOLACE_CRISIS_KEYWORDS", "give up on everything,disappear forever")
	t.Setenv("SOLACE_REDIS_DB", "not-a-number")

	cfg := config.Load()

	if got := cfg.LLMProviders; len(got) != 2 || got[0] != "openai" || got[1] != "gemini" {
		t.Fatalf("unexpected providers %v", got)
	}
	if cfg.LLMTimeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %s", cfg.LLMTimeout)
	}
	if len(cfg.ExtraCrisisKeywords) != 2 {
		t.Fatalf("expected 2 extra crisis keywords, got %v", cfg.ExtraCrisisKeywords)
	}
	if cfg.RedisDB != 0 {
		t.Fatalf("invalid int should fall back to default, got %d", cfg.RedisDB)
	}
}

func TestValidate(t *testing.T) {
	base := func(t *testing.T) *config.Config {
		t.Helper()
		t.Setenv("SOLACE_LLM_PROVIDER", "")
		t.Setenv("SOLACE_MEMORY_BACKEND", "")
		return config.Load()
	}

	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"gcp without project", func(c *config.Config) { c.Mode = config.ModeGCP; c.GCPProjectID = "" }},
		{"openai without key", func(c *config.Config) { c.LLMProviders = []string{config.ProviderOpenAI} }},
		{"unknown provider", func(c *config.Config) { c.LLMProviders = []string{"carrier-pigeon"} }},
		{"supabase without url", func(c *config.Config) { c.MemoryBackend = config.MemorySupabase }},
		{"unknown storage", func(c *config.Config) { c.StorageBackend = "postgres" }},
		{"zero cache limit", func(c *config.Config) { c.MemoryCacheLimit = 0 }},
		{"zero timeout", func(c *config.Config) { c.RemoteTimeout = 0 }},
		{"zero sweep interval", func(c *config.Config) { c.SessionSweepInterval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base(t)
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
