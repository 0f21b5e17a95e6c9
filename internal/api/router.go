package api

import (
	"github.com/flexprice/grants/internal/config"
	"github.com/flexprice/grants/internal/logger"
	"github.com/flexprice/grants/internal/rest/middleware"
	"github.com/gin-gonic/gin"
)

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.SentryScopeMiddleware,
		middleware.LoggerMiddleware(logger),
		middleware.ErrorHandler(logger),
	)

	router.GET("/health", handlers.Health.Health)

	// v1 routes
	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	// Webhook routes, unauthenticated and always acknowledged
	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/chargebee", handlers.Webhook.HandleChargebeeWebhook)
		webhooks.POST("/chargebee/addons", handlers.Webhook.HandleChargebeeAddonWebhook)
	}
}
