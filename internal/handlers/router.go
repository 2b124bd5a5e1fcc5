package handlers

import (
	"log/slog"

	"coffee_shop/internal/logger"

	"github.com/gin-gonic/gin"
)

func NewRouter(telegramHandler *TelegramHandler, apiHandler *APIHandler, log *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logger.GinMiddleware(log))

	router.GET("/healthz", apiHandler.Health)

	api := router.Group("/api")
	{
		api.POST("/telegram/webhook", telegramHandler.HandleWebhook)
	}
	return router
}
