package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort           string   `env:"HTTP_PORT" envDefault:"8080"`
	LLMProvider        string   `env:"LLM_PROVIDER" envDefault:"gemini"`
	LLMAPIKey          string   `env:"LLM_API_KEY,required"`
	LLMBaseURL         string   `env:"LLM_BASE_URL"`
	LLMModel           string   `env:"LLM_MODEL" envDefault:"gemini-3-flash-preview"`
	DraftTokenSecret   string   `env:"DRAFT_TOKEN_SECRET,required"`
	DraftTTLMinutes    int      `env:"DRAFT_TTL_MINUTES" envDefault:"60"`
	RedisAddr          string   `env:"REDIS_ADDR"`
	RedisPassword      string   `env:"REDIS_PASSWORD"`
	RedisDB            int      `env:"REDIS_DB" envDefault:"0"`
	MaxUploadBytes     int64    `env:"MAX_UPLOAD_BYTES" envDefault:"26214400"`
	IngestConcurrency  int      `env:"INGEST_CONCURRENCY" envDefault:"4"`
	ReflectionPerMin   int      `env:"REFLECTION_RATE_PER_MINUTE" envDefault:"6"`
	ReflectionBurst    int      `env:"REFLECTION_BURST" envDefault:"3"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DraftTTL devuelve la vida útil de un borrador del wizard.
func (c *Config) DraftTTL() time.Duration {
	if c.DraftTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.DraftTTLMinutes) * time.Minute
}

func (c *Config) validate() error {
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))
	switch c.LLMProvider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}
