package app

import (
	"github.com/vaultchat/vaultchat-backend/internal/handlers"
	"github.com/vaultchat/vaultchat-backend/internal/logger"
)

type Handlers struct {
	Chat  *handlers.ChatHandler
	Usage *handlers.UsageHandler
}

func wireHandlers(log *logger.Logger, reposet Repos, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Chat:  handlers.NewChatHandler(log, serviceset.Orchestrator, reposet.Chat, reposet.Topic, reposet.User),
		Usage: handlers.NewUsageHandler(log, serviceset.Ledger),
	}
}
