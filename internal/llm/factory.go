package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"footprint-mirror/internal/config"
)

// New elige el proveedor según LLM_PROVIDER.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (LLMClient, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini, "":
		return NewGeminiClient(ctx, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMBaseURL)
	case config.ProviderOpenAI:
		return NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, zap.NewStdLog(logger)), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
}
