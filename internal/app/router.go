package app

import (
	"github.com/gin-gonic/gin"

	"github.com/vaultchat/vaultchat-backend/internal/logger"
	"github.com/vaultchat/vaultchat-backend/internal/middleware"
	"github.com/vaultchat/vaultchat-backend/internal/server"
)

func wireRouter(log *logger.Logger, cfg Config, handlerset Handlers) *gin.Engine {
	log.Info("Wiring router...")
	return server.NewRouter(server.RouterConfig{
		ChatHandler:         handlerset.Chat,
		UsageHandler:        handlerset.Usage,
		RequestIDMiddleware: middleware.NewRequestIDMiddleware(log),
		AllowOrigins:        cfg.AllowOrigins,
	})
}
