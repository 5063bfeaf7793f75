package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vaultchat/vaultchat-backend/internal/crypto"
	"github.com/vaultchat/vaultchat-backend/internal/logger"
	"github.com/vaultchat/vaultchat-backend/internal/types"
)

type ChatRepo interface {
	GetOrCreate(ctx context.Context, tx *gorm.DB, chatID int64) (*types.Chat, error)
	GetConfig(ctx context.Context, tx *gorm.DB, chatID int64) (*types.ChatConfig, error)
	SetConfig(ctx context.Context, tx *gorm.DB, chatID int64, cfg *types.ChatConfig) error
	DeleteHistory(ctx context.Context, tx *gorm.DB, chatID int64) error
}

type chatRepo struct {
	db    *gorm.DB
	codec *crypto.Codec
	log   *logger.Logger
}

func NewChatRepo(db *gorm.DB, codec *crypto.Codec, baseLog *logger.Logger) ChatRepo {
	return &chatRepo{db: db, codec: codec, log: baseLog.With("repo", "ChatRepo")}
}

func (cr *chatRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, chatID int64) (*types.Chat, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	chat := &types.Chat{ID: chatID}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(chat).Error; err != nil {
		return nil, err
	}
	if err := transaction.WithContext(ctx).
		Where("id = ?", chatID).
		First(chat).Error; err != nil {
		return nil, err
	}
	return chat, nil
}

// GetConfig returns the chat's decrypted configuration, or the default
// configuration for unknown chats and chats that never stored one.
// A decryption failure on a stored blob propagates: it is a data-integrity
// problem, not a missing config.
func (cr *chatRepo) GetConfig(ctx context.Context, tx *gorm.DB, chatID int64) (*types.ChatConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var chat types.Chat
	err := transaction.WithContext(ctx).Where("id = ?", chatID).First(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && len(chat.ConfigBlob) == 0) {
		return &types.ChatConfig{SystemPrompt: types.DefaultSystemPrompt}, nil
	}
	if err != nil {
		return nil, err
	}

	plaintext, err := cr.codec.Decrypt(chat.ConfigBlob)
	if err != nil {
		cr.log.Error("Failed to decrypt chat config", "chat_id", chatID, "error", err)
		return nil, err
	}
	var cfg types.ChatConfig
	if err := json.Unmarshal(plaintext, &cfg); err != nil {
		return nil, fmt.Errorf("%w: malformed chat config: %v", types.ErrDecrypt, err)
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = types.DefaultSystemPrompt
	}
	return &cfg, nil
}

func (cr *chatRepo) SetConfig(ctx context.Context, tx *gorm.DB, chatID int64, cfg *types.ChatConfig) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	plaintext, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	blob, err := cr.codec.Encrypt(plaintext)
	if err != nil {
		return err
	}

	if _, err := cr.GetOrCreate(ctx, transaction, chatID); err != nil {
		return err
	}
	return transaction.WithContext(ctx).
		Model(&types.Chat{}).
		Where("id = ?", chatID).
		UpdateColumn("config_blob", blob).Error
}

// DeleteHistory removes all messages and topics of a chat, detaches the
// active topic and resets the stored configuration. The chat row itself and
// its sequence counter stay, so sequence numbers are never reused. Metric
// rows are untouched.
func (cr *chatRepo) DeleteHistory(ctx context.Context, tx *gorm.DB, chatID int64) error {
	run := func(transaction *gorm.DB) error {
		if err := transaction.WithContext(ctx).
			Where("chat_id = ?", chatID).
			Delete(&types.Message{}).Error; err != nil {
			return err
		}
		if err := transaction.WithContext(ctx).
			Where("chat_id = ?", chatID).
			Delete(&types.Topic{}).Error; err != nil {
			return err
		}
		return transaction.WithContext(ctx).
			Model(&types.Chat{}).
			Where("id = ?", chatID).
			UpdateColumns(map[string]interface{}{
				"active_topic_id": nil,
				"config_blob":     nil,
			}).Error
	}

	if tx != nil {
		return run(tx)
	}
	return cr.db.Transaction(run)
}
