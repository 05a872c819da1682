package http

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"footprint-mirror/internal/domain"
	"footprint-mirror/internal/service"
	"footprint-mirror/internal/wizard"
)

// ValidationError describe un campo inválido del request.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var registerOnce sync.Once

// registerValidators agrega las reglas propias al validador de gin.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("persona", func(fl validator.FieldLevel) bool {
			_, err := domain.ParsePersona(fl.Field().String())
			return err == nil
		})
	})
}

// ParseValidationErrors convierte errores del validador en una lista legible.
func ParseValidationErrors(err error) []ValidationError {
	var out []ValidationError
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			out = append(out, ValidationError{
				Field:   fe.Field(),
				Message: validationMessage(fe),
			})
		}
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "persona":
		return fe.Field() + " must be one of: Recruiter, Brand, Creator"
	}
	return fe.Field() + " is invalid"
}

// respondBindError responde 400 con el detalle de validación si existe.
func respondBindError(c *gin.Context, logger *zap.Logger, op string, err error) {
	logger.Warn("invalid request", zap.String("op", op), zap.Error(err))
	if details := ParseValidationErrors(err); len(details) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": details})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}

// statusForError traduce errores del wizard y del store a códigos HTTP.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, wizard.ErrStepIncomplete):
		return http.StatusConflict, "step incomplete"
	case errors.Is(err, wizard.ErrNotFinalStep):
		return http.StatusConflict, "submit is only allowed from the final step"
	case errors.Is(err, wizard.ErrSubmitted):
		return http.StatusConflict, "draft already submitted"
	case errors.Is(err, wizard.ErrIndexOutOfRange):
		return http.StatusNotFound, "index out of range"
	case errors.Is(err, domain.ErrInvalidPersona):
		return http.StatusBadRequest, "invalid persona"
	case errors.Is(err, service.ErrDraftNotFound):
		return http.StatusNotFound, "draft not found or expired"
	case errors.Is(err, service.ErrDraftConflict):
		return http.StatusConflict, "draft was modified concurrently, please retry"
	}
	return http.StatusInternalServerError, "internal error"
}

func respondError(c *gin.Context, logger *zap.Logger, op string, err error) {
	status, msg := statusForError(err)
	if status >= http.StatusInternalServerError {
		logger.Error(op+" failed", zap.Error(err))
	} else {
		logger.Debug(op+" rejected", zap.Error(err))
	}
	c.JSON(status, gin.H{"error": msg})
}
