package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"footprint-mirror/internal/metrics"
	"footprint-mirror/internal/service"
)

// RouterConfig agrupa los límites que aplica el router.
type RouterConfig struct {
	AllowedOrigins    []string
	MaxUploadBytes    int64
	ReflectionPerMin  int
	ReflectionBurst   int
	// ReflectionLimiter reemplaza al limitador en memoria (p.ej. Redis).
	ReflectionLimiter service.RateLimiter
}

// NewRouter configura el router de Gin con middlewares y las tres vistas: raíz, input y reflection.
func NewRouter(
	logger *zap.Logger,
	cfg RouterConfig,
	landingH *LandingHandler,
	wizardH *WizardHandler,
	reflectionH *ReflectionHandler,
) *gin.Engine {
	registerValidators()

	r := gin.New()

	r.Use(
		zapLoggerMiddleware(logger),
		gin.Recovery(),
		metricsMiddleware(),
		corsMiddleware(cfg.AllowedOrigins),
		jsonContentTypeMiddleware(),
	)

	r.GET("/", landingH.Landing)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/input", wizardH.Open)
	r.POST("/input", wizardH.Restart)

	input := r.Group("/input", DraftTokenMiddleware(wizardH.wizards))
	input.PATCH("/fields", wizardH.UpdateFields)
	input.POST("/posts", wizardH.AddPost)
	input.PUT("/posts/:index", wizardH.SetPost)
	input.DELETE("/posts/:index", wizardH.RemovePost)
	input.POST("/images", bodySizeLimitMiddleware(cfg.MaxUploadBytes), wizardH.UploadImages)
	input.DELETE("/images/:index", wizardH.RemoveImage)
	input.POST("/advance", wizardH.Advance)
	input.POST("/retreat", wizardH.Retreat)
	input.POST("/submit", wizardH.Submit)

	limiter := cfg.ReflectionLimiter
	if limiter == nil {
		perMin := cfg.ReflectionPerMin
		if perMin <= 0 {
			perMin = 6
		}
		limiter = NewRateLimiter(rate.Limit(float64(perMin)/60.0), cfg.ReflectionBurst)
	}
	r.GET("/reflection", rateLimitMiddleware(limiter), reflectionH.Reflect)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequestTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Location"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

// bodySizeLimitMiddleware limita el tamaño del body de los uploads.
func bodySizeLimitMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
