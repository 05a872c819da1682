package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "key")
	t.Setenv("DRAFT_TOKEN_SECRET", "secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected port 8080, got %s", cfg.HTTPPort)
	}
	if cfg.LLMProvider != ProviderGemini {
		t.Fatalf("expected gemini provider, got %s", cfg.LLMProvider)
	}
	if cfg.LLMModel != "gemini-3-flash-preview" {
		t.Fatalf("unexpected model %s", cfg.LLMModel)
	}
	if cfg.DraftTTL() != time.Hour {
		t.Fatalf("expected 1h draft ttl, got %s", cfg.DraftTTL())
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("DRAFT_TOKEN_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when required vars are missing")
	}
}

func TestLoadConfigRejectsUnknownProvider(t *testing.T) {
	t.Setenv("LLM_API_KEY", "key")
	t.Setenv("DRAFT_TOKEN_SECRET", "secret")
	t.Setenv("LLM_PROVIDER", "bard")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestLoadConfigNormalizesProvider(t *testing.T) {
	t.Setenv("LLM_API_KEY", "key")
	t.Setenv("DRAFT_TOKEN_SECRET", "secret")
	t.Setenv("LLM_PROVIDER", " OpenAI ")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.LLMProvider != ProviderOpenAI {
		t.Fatalf("expected openai, got %s", cfg.LLMProvider)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSAllowedOrigins)
	}
}
