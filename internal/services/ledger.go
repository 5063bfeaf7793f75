package services

import (
	"context"

	"github.com/vaultchat/vaultchat-backend/internal/logger"
	"github.com/vaultchat/vaultchat-backend/internal/repos"
	"github.com/vaultchat/vaultchat-backend/internal/types"
)

// LedgerService tracks cumulative token and cost usage per entity. Counters
// are write-only increments; duplicate Record calls double-count, so callers
// record exactly once per model completion.
type LedgerService interface {
	Record(ctx context.Context, entityID string, tokens int64, cost float64) error
	RecordForTurn(ctx context.Context, chatID int64, userID *int64, tokens int64, cost float64) error
	Get(ctx context.Context, entityID string) (*types.Metric, error)
	Reset(ctx context.Context, entityID string) error
}

type ledgerService struct {
	log     *logger.Logger
	metrics repos.MetricRepo
}

func NewLedgerService(baseLog *logger.Logger, metrics repos.MetricRepo) LedgerService {
	return &ledgerService{log: baseLog.With("service", "LedgerService"), metrics: metrics}
}

func (ls *ledgerService) Record(ctx context.Context, entityID string, tokens int64, cost float64) error {
	return ls.metrics.Increment(ctx, nil, entityID, tokens, cost)
}

// RecordForTurn counts one completion against both the chat and, when known,
// the author. The two entities share the metric table under namespaced keys.
func (ls *ledgerService) RecordForTurn(ctx context.Context, chatID int64, userID *int64, tokens int64, cost float64) error {
	if err := ls.Record(ctx, types.ChatEntityID(chatID), tokens, cost); err != nil {
		return err
	}
	if userID != nil {
		if err := ls.Record(ctx, types.UserEntityID(*userID), tokens, cost); err != nil {
			return err
		}
	}
	return nil
}

func (ls *ledgerService) Get(ctx context.Context, entityID string) (*types.Metric, error) {
	return ls.metrics.Get(ctx, nil, entityID)
}

func (ls *ledgerService) Reset(ctx context.Context, entityID string) error {
	ls.log.Info("Resetting usage metrics", "entity_id", entityID)
	return ls.metrics.Reset(ctx, nil, entityID)
}
