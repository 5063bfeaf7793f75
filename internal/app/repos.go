package app

import (
	"gorm.io/gorm"

	"github.com/vaultchat/vaultchat-backend/internal/crypto"
	"github.com/vaultchat/vaultchat-backend/internal/logger"
	"github.com/vaultchat/vaultchat-backend/internal/repos"
)

type Repos struct {
	Chat    repos.ChatRepo
	Topic   repos.TopicRepo
	User    repos.UserRepo
	Message repos.MessageRepo
	Metric  repos.MetricRepo
	Turn    repos.TurnRepo
}

func wireRepos(db *gorm.DB, codec *crypto.Codec, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Chat:    repos.NewChatRepo(db, codec, log),
		Topic:   repos.NewTopicRepo(db, log),
		User:    repos.NewUserRepo(db, log),
		Message: repos.NewMessageRepo(db, codec, log),
		Metric:  repos.NewMetricRepo(db, log),
		Turn:    repos.NewTurnRepo(db, log),
	}
}
