package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vaultchat/vaultchat-backend/internal/logger"
	"github.com/vaultchat/vaultchat-backend/internal/types"
)

type MetricRepo interface {
	Increment(ctx context.Context, tx *gorm.DB, entityID string, tokens int64, cost float64) error
	Get(ctx context.Context, tx *gorm.DB, entityID string) (*types.Metric, error)
	Reset(ctx context.Context, tx *gorm.DB, entityID string) error
}

type metricRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMetricRepo(db *gorm.DB, baseLog *logger.Logger) MetricRepo {
	return &metricRepo{db: db, log: baseLog.With("repo", "MetricRepo")}
}

// Increment is a single upsert: the database applies the addition, so
// concurrent writers never lose updates. Idempotency is not provided;
// callers record exactly once per completion.
func (mr *metricRepo) Increment(ctx context.Context, tx *gorm.DB, entityID string, tokens int64, cost float64) error {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "entity_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"tokens": gorm.Expr("tokens + ?", tokens),
				"cost":   gorm.Expr("cost + ?", cost),
			}),
		}).
		Create(&types.Metric{EntityID: entityID, Tokens: tokens, Cost: cost}).Error
}

// Get returns zero counters for unknown entities, never an error.
func (mr *metricRepo) Get(ctx context.Context, tx *gorm.DB, entityID string) (*types.Metric, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var metric types.Metric
	err := transaction.WithContext(ctx).
		Where("entity_id = ?", entityID).
		First(&metric).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &types.Metric{EntityID: entityID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &metric, nil
}

func (mr *metricRepo) Reset(ctx context.Context, tx *gorm.DB, entityID string) error {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	return transaction.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Delete(&types.Metric{}).Error
}
