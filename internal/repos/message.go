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

// AppendParams describes one message to append. RepliedTo must reference an
// existing message in the same chat; a reply pointing at the topic id itself
// is dropped (some transports report topic replies that way).
type AppendParams struct {
	ChatID    int64
	TopicID   *int64
	UserID    *int64
	RepliedTo *int64
	Payload   types.MessagePayload
}

type MessageRepo interface {
	Append(ctx context.Context, tx *gorm.DB, p AppendParams) (*types.DecryptedMessage, error)
	Get(ctx context.Context, tx *gorm.DB, chatID, seq int64) (*types.DecryptedMessage, error)
	ListRecent(ctx context.Context, tx *gorm.DB, chatID int64, topicID *int64, limit int) ([]*types.DecryptedMessage, error)
}

type messageRepo struct {
	db     *gorm.DB
	codec  *crypto.Codec
	topics TopicRepo
	users  UserRepo
	log    *logger.Logger
}

func NewMessageRepo(db *gorm.DB, codec *crypto.Codec, baseLog *logger.Logger) MessageRepo {
	return &messageRepo{
		db:     db,
		codec:  codec,
		topics: NewTopicRepo(db, baseLog),
		users:  NewUserRepo(db, baseLog),
		log:    baseLog.With("repo", "MessageRepo"),
	}
}

// Append stores a message with the next sequence number of its chat. The
// allocation happens inside a transaction holding the chat row's write lock,
// so concurrent appends to one chat can never observe the same sequence
// number. The chat, topic and user rows are created lazily.
func (mr *messageRepo) Append(ctx context.Context, tx *gorm.DB, p AppendParams) (*types.DecryptedMessage, error) {
	var out *types.DecryptedMessage
	run := func(transaction *gorm.DB) error {
		msg, err := mr.appendInTx(ctx, transaction, p)
		if err != nil {
			return err
		}
		out = msg
		return nil
	}

	if tx != nil {
		if err := run(tx); err != nil {
			return nil, err
		}
		return out, nil
	}
	if err := mr.db.Transaction(run); err != nil {
		return nil, err
	}
	return out, nil
}

func (mr *messageRepo) appendInTx(ctx context.Context, transaction *gorm.DB, p AppendParams) (*types.DecryptedMessage, error) {
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&types.Chat{ID: p.ChatID}).Error; err != nil {
		return nil, err
	}

	// The UPDATE takes the chat row's write lock for the rest of the
	// transaction; the SELECT then reads our own increment.
	if err := transaction.WithContext(ctx).
		Model(&types.Chat{}).
		Where("id = ?", p.ChatID).
		UpdateColumn("last_seq", gorm.Expr("last_seq + 1")).Error; err != nil {
		return nil, err
	}
	var chat types.Chat
	if err := transaction.WithContext(ctx).
		Select("last_seq").
		Where("id = ?", p.ChatID).
		First(&chat).Error; err != nil {
		return nil, err
	}
	seq := chat.LastSeq

	repliedTo := p.RepliedTo
	if repliedTo != nil && p.TopicID != nil && *repliedTo == *p.TopicID {
		repliedTo = nil
	}
	if repliedTo != nil {
		var count int64
		if err := transaction.WithContext(ctx).
			Model(&types.Message{}).
			Where("chat_id = ? AND seq = ? AND seq < ?", p.ChatID, *repliedTo, seq).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, fmt.Errorf("%w: chat %d has no earlier message %d", types.ErrInvalidReply, p.ChatID, *repliedTo)
		}
	}

	if p.TopicID != nil {
		if _, err := mr.topics.GetOrCreate(ctx, transaction, p.ChatID, *p.TopicID); err != nil {
			return nil, err
		}
	}
	if p.UserID != nil {
		if _, err := mr.users.GetOrCreate(ctx, transaction, *p.UserID, p.Payload.Name); err != nil {
			return nil, err
		}
	}

	plaintext, err := json.Marshal(p.Payload)
	if err != nil {
		return nil, err
	}
	blob, err := mr.codec.Encrypt(plaintext)
	if err != nil {
		return nil, err
	}

	msg := types.Message{
		ChatID:    p.ChatID,
		Seq:       seq,
		TopicID:   p.TopicID,
		UserID:    p.UserID,
		RepliedTo: repliedTo,
		Payload:   blob,
	}
	if err := transaction.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}

	return &types.DecryptedMessage{Message: msg, MessagePayload: p.Payload}, nil
}

func (mr *messageRepo) Get(ctx context.Context, tx *gorm.DB, chatID, seq int64) (*types.DecryptedMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var msg types.Message
	err := transaction.WithContext(ctx).
		Where("chat_id = ? AND seq = ?", chatID, seq).
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: message %d/%d", types.ErrNotFound, chatID, seq)
	}
	if err != nil {
		return nil, err
	}
	return mr.decode(&msg)
}

// ListRecent returns the chat's newest messages in ascending sequence order,
// newest last. A decryption failure on any single message aborts the whole
// read: history is all-or-nothing so a corrupt row can never silently
// truncate the context.
func (mr *messageRepo) ListRecent(ctx context.Context, tx *gorm.DB, chatID int64, topicID *int64, limit int) ([]*types.DecryptedMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	query := transaction.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("seq desc")
	if topicID != nil {
		query = query.Where("topic_id = ?", *topicID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []types.Message
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]*types.DecryptedMessage, len(rows))
	for i := range rows {
		decoded, err := mr.decode(&rows[i])
		if err != nil {
			mr.log.Error("Aborting history read on undecryptable message", "chat_id", chatID, "seq", rows[i].Seq, "error", err)
			return nil, err
		}
		// rows are newest-first; place them newest-last
		out[len(rows)-1-i] = decoded
	}
	return out, nil
}

func (mr *messageRepo) decode(msg *types.Message) (*types.DecryptedMessage, error) {
	plaintext, err := mr.codec.Decrypt(msg.Payload)
	if err != nil {
		return nil, err
	}
	var payload types.MessagePayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed message payload: %v", types.ErrDecrypt, err)
	}
	return &types.DecryptedMessage{Message: *msg, MessagePayload: payload}, nil
}
