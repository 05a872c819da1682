package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"footprint-mirror/internal/config"
	apihttp "footprint-mirror/internal/http"
	"footprint-mirror/internal/llm"
	"footprint-mirror/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	llmClient, err := llm.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("llm client init", zap.Error(err))
	}

	draftStore := service.NewMemoryDraftStore(cfg.DraftTTL())
	var reflectionLimiter service.RateLimiter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory drafts", zap.Error(err))
		} else {
			draftStore = service.NewRedisDraftStore(redisClient, cfg.DraftTTL())
			reflectionLimiter = service.NewRedisRateLimiter(redisClient, cfg.ReflectionPerMin, cfg.ReflectionBurst)
			defer redisClient.Close()
		}
		cancel()
	}

	tokenSvc := service.NewDraftTokenService(cfg.DraftTokenSecret, cfg.DraftTTL())
	wizardSvc := service.NewWizardService(draftStore, tokenSvc, logger)
	reflectionSvc := service.NewReflectionService(llmClient, service.ReflectionPromptBuilder{}, logger)

	landingHandler := apihttp.NewLandingHandler()
	wizardHandler := apihttp.NewWizardHandler(logger, wizardSvc, cfg.IngestConcurrency, cfg.DraftTTL())
	reflectionHandler := apihttp.NewReflectionHandler(logger, wizardSvc, reflectionSvc)
	router := apihttp.NewRouter(logger, apihttp.RouterConfig{
		AllowedOrigins:    cfg.CORSAllowedOrigins,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		ReflectionPerMin:  cfg.ReflectionPerMin,
		ReflectionBurst:   cfg.ReflectionBurst,
		ReflectionLimiter: reflectionLimiter,
	}, landingHandler, wizardHandler, reflectionHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("llm_provider", cfg.LLMProvider),
		zap.String("llm_model", cfg.LLMModel),
	)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
