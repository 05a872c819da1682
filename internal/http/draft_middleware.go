package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"footprint-mirror/internal/service"
)

const (
	draftIDKey      = "draft_id"
	draftCookieName = "draft_token"
)

// DraftTokenMiddleware valida el token del borrador y guarda su id en el contexto.
func DraftTokenMiddleware(wizards *service.WizardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if wizards == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "drafts not configured"})
			c.Abort()
			return
		}

		token := draftToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing draft token"})
			c.Abort()
			return
		}

		id, err := wizards.Resolve(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid draft token"})
			c.Abort()
			return
		}

		c.Set(draftIDKey, id)
		c.Next()
	}
}

// GetDraftID obtiene el id del borrador desde el contexto.
func GetDraftID(c *gin.Context) (string, bool) {
	val, ok := c.Get(draftIDKey)
	if !ok {
		return "", false
	}
	id, ok := val.(string)
	return id, ok && id != ""
}

// draftToken lee el token del header Authorization o, si falta, de la cookie.
func draftToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > len("bearer ") && strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	if cookie, err := c.Cookie(draftCookieName); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

// resolveDraftID intenta resolver el borrador sin abortar el request.
func resolveDraftID(c *gin.Context, wizards *service.WizardService) (string, bool) {
	token := draftToken(c)
	if token == "" {
		return "", false
	}
	id, err := wizards.Resolve(token)
	if err != nil {
		return "", false
	}
	return id, true
}
