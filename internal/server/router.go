package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vaultchat/vaultchat-backend/internal/handlers"
	"github.com/vaultchat/vaultchat-backend/internal/middleware"
)

type RouterConfig struct {
	ChatHandler         *handlers.ChatHandler
	UsageHandler        *handlers.UsageHandler
	RequestIDMiddleware *middleware.RequestIDMiddleware
	AllowOrigins        []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))
	if cfg.RequestIDMiddleware != nil {
		router.Use(cfg.RequestIDMiddleware.Attach())
	}

	router.GET("/healthz", handlers.HealthCheck)

	api := router.Group("/api/v1")
	{
		api.POST("/chats/:chat_id/messages", cfg.ChatHandler.PostMessage)
		api.GET("/chats/:chat_id/config", cfg.ChatHandler.GetConfig)
		api.PUT("/chats/:chat_id/config", cfg.ChatHandler.SetConfig)
		api.DELETE("/chats/:chat_id/history", cfg.ChatHandler.DeleteHistory)
		api.GET("/chats/:chat_id/turns", cfg.ChatHandler.ListTurns)
		api.GET("/chats/:chat_id/topics", cfg.ChatHandler.ListTopics)
		api.GET("/usage/:entity_id", cfg.UsageHandler.GetUsage)
		api.DELETE("/usage/:entity_id", cfg.UsageHandler.ResetUsage)
	}

	return router
}
