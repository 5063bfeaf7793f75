package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vaultchat/vaultchat-backend/internal/logger"
	"github.com/vaultchat/vaultchat-backend/internal/types"
)

type TurnRepo interface {
	Record(ctx context.Context, tx *gorm.DB, record *types.TurnRecord) error
	ListByChat(ctx context.Context, tx *gorm.DB, chatID int64, limit int) ([]types.TurnRecord, error)
}

type turnRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTurnRepo(db *gorm.DB, baseLog *logger.Logger) TurnRepo {
	return &turnRepo{db: db, log: baseLog.With("repo", "TurnRepo")}
}

func (tr *turnRepo) Record(ctx context.Context, tx *gorm.DB, record *types.TurnRecord) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	return transaction.WithContext(ctx).Create(record).Error
}

// ListByChat returns the newest records first.
func (tr *turnRepo) ListByChat(ctx context.Context, tx *gorm.DB, chatID int64, limit int) ([]types.TurnRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	query := transaction.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []types.TurnRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
