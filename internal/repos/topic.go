package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vaultchat/vaultchat-backend/internal/logger"
	"github.com/vaultchat/vaultchat-backend/internal/types"
)

type TopicRepo interface {
	GetOrCreate(ctx context.Context, tx *gorm.DB, chatID, topicID int64) (*types.Topic, error)
	ListByChat(ctx context.Context, tx *gorm.DB, chatID int64) ([]*types.Topic, error)
}

type topicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	return &topicRepo{db: db, log: baseLog.With("repo", "TopicRepo")}
}

func (tr *topicRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, chatID, topicID int64) (*types.Topic, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	topic := &types.Topic{ChatID: chatID, ID: topicID}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(topic).Error; err != nil {
		return nil, err
	}
	return topic, nil
}

func (tr *topicRepo) ListByChat(ctx context.Context, tx *gorm.DB, chatID int64) ([]*types.Topic, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	var results []*types.Topic
	if err := transaction.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("id asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
