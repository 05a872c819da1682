package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"footprint-mirror/internal/domain"
	"footprint-mirror/internal/llm"
	"footprint-mirror/internal/metrics"
)

// Mensajes visibles para el usuario; uno por tipo de falla.
const (
	MessageEmptyReflection   = "The mirror returned no reflection."
	MessageCloudedReflection = "The mirror is currently clouded. Please try again."
	MessageUnavailable       = "The mirror is temporarily clouded."
)

// ErrReflectionCancelled indica que la vista de resultados se fue antes de la respuesta.
var ErrReflectionCancelled = errors.New("reflection cancelled")

// ReflectionError envuelve la causa real y el único mensaje que ve el usuario.
type ReflectionError struct {
	Message string
	Err     error
}

func (e *ReflectionError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ReflectionError) Unwrap() error { return e.Err }

// ReflectionService hace la única llamada al modelo por entrega y parsea la respuesta.
type ReflectionService struct {
	llmClient     llm.LLMClient
	promptBuilder ReflectionPromptBuilder
	logger        *zap.Logger
}

func NewReflectionService(llmClient llm.LLMClient, promptBuilder ReflectionPromptBuilder, logger *zap.Logger) *ReflectionService {
	return &ReflectionService{
		llmClient:     llmClient,
		promptBuilder: promptBuilder,
		logger:        logger,
	}
}

// Reflect devuelve el resultado completo o un error; nunca un resultado parcial.
// Sin reintentos ni cache: cada llamada repite el request.
func (s *ReflectionService) Reflect(ctx context.Context, input domain.UserInput) (domain.ReflectionResult, error) {
	start := time.Now()
	result, err := s.reflect(ctx, input)
	metrics.ObserveReflection(outcomeOf(err), time.Since(start))
	return result, err
}

func (s *ReflectionService) reflect(ctx context.Context, input domain.UserInput) (domain.ReflectionResult, error) {
	req, err := s.promptBuilder.Build(input)
	if err != nil {
		s.logger.Warn("reflection request build failed", zap.Error(err))
		return domain.ReflectionResult{}, &ReflectionError{Message: MessageCloudedReflection, Err: err}
	}

	raw, err := s.llmClient.Generate(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return domain.ReflectionResult{}, ErrReflectionCancelled
		}
		s.logger.Error("llm generate failed", zap.Error(err), zap.String("persona", string(input.Persona)))
		return domain.ReflectionResult{}, &ReflectionError{Message: MessageUnavailable, Err: err}
	}
	if ctx.Err() != nil {
		return domain.ReflectionResult{}, ErrReflectionCancelled
	}

	result, err := parseReflection(raw)
	if err != nil {
		if errors.Is(err, errEmptyPayload) {
			s.logger.Warn("llm returned empty reflection")
			return domain.ReflectionResult{}, &ReflectionError{Message: MessageEmptyReflection, Err: err}
		}
		s.logger.Warn("failed to parse reflection response", zap.Error(err), zap.Int("raw_len", len(raw)))
		return domain.ReflectionResult{}, &ReflectionError{Message: MessageCloudedReflection, Err: err}
	}
	return result, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrReflectionCancelled):
		return "cancelled"
	default:
		return "error"
	}
}
