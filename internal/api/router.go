package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/retailpulse/retailpulse/internal/api/v1"
	"github.com/retailpulse/retailpulse/internal/config"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/retailpulse/retailpulse/internal/rest/middleware"
)

type Handlers struct {
	Health    *v1.HealthHandler
	Pipeline  *v1.PipelineHandler
	Promotion *v1.PromotionHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware(cfg),
	)
	router.Use(middleware.SentryMiddleware(cfg)...)
	router.Use(middleware.ErrorHandler())

	router.GET("/health", handlers.Health.Health)

	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	logger.Debugw("router initialized", "routes", len(router.Routes()))
	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	pipeline := router.Group("/pipeline")
	{
		pipeline.POST("/runs", handlers.Pipeline.RunPipeline)
		pipeline.GET("/runs/latest", handlers.Pipeline.GetLatestRun)
	}

	promotions := router.Group("/promotions")
	{
		promotions.GET("/active", handlers.Promotion.GetActivePromotions)
	}
}
