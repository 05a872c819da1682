package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"footprint-mirror/internal/service"
)

const (
	inputPath      = "/input"
	reflectionPath = "/reflection"
)

// ReflectionHandler corre el análisis sobre el borrador enviado.
type ReflectionHandler struct {
	logger      *zap.Logger
	wizards     *service.WizardService
	reflections *service.ReflectionService
}

func NewReflectionHandler(logger *zap.Logger, wizards *service.WizardService, reflections *service.ReflectionService) *ReflectionHandler {
	return &ReflectionHandler{
		logger:      logger,
		wizards:     wizards,
		reflections: reflections,
	}
}

// Reflect maneja GET /reflection.
// Sin un borrador enviado redirige a /input sin llamar al modelo.
func (h *ReflectionHandler) Reflect(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := resolveDraftID(c, h.wizards)
	if !ok {
		redirectToInput(c)
		return
	}
	input, err := h.wizards.Submission(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNoSubmission) || errors.Is(err, service.ErrDraftNotFound) {
			redirectToInput(c)
			return
		}
		respondError(c, h.logger, "load submission", err)
		return
	}

	result, err := h.reflections.Reflect(ctx, input)
	if err != nil {
		if errors.Is(err, service.ErrReflectionCancelled) || ctx.Err() != nil {
			h.logger.Debug("reflection dropped, client went away", zap.String("draft_id", id))
			c.Abort()
			return
		}
		msg := service.MessageUnavailable
		var rerr *service.ReflectionError
		if errors.As(err, &rerr) {
			msg = rerr.Message
		}
		h.logger.Warn("reflection failed", zap.String("draft_id", id), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": msg, "restart": inputPath})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"persona":    input.Persona,
		"input":      input,
		"reflection": result,
	})
}

func redirectToInput(c *gin.Context) {
	c.Header("Location", inputPath)
	c.JSON(http.StatusSeeOther, gin.H{"redirect": inputPath})
}
