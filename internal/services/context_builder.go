package services

import (
	"context"
	"fmt"

	"github.com/vaultchat/vaultchat-backend/internal/logger"
	"github.com/vaultchat/vaultchat-backend/internal/repos"
	"github.com/vaultchat/vaultchat-backend/internal/types"
)

// BudgetWarning reports a context that could not be trimmed under budget:
// even the system prompt plus the single newest message was too large. The
// minimal context is still returned, an empty context is never produced, but
// the condition is surfaced as a configuration problem.
type BudgetWarning struct {
	Budget int
	Needed int
}

func (w *BudgetWarning) Error() string {
	return fmt.Sprintf("context budget %d too small for minimal context of %d tokens", w.Budget, w.Needed)
}

func (w *BudgetWarning) Unwrap() error {
	return types.ErrBudgetExceeded
}

// TokenCounter is the model-specific counting function the builder budgets
// with; tokenization belongs to the model client, not to this package.
type TokenCounter func(msg types.MessagePayload) int

// ContextBuilder assembles the ordered, size-bounded message sequence sent
// to the model for one invocation.
type ContextBuilder struct {
	log          *logger.Logger
	chats        repos.ChatRepo
	messages     repos.MessageRepo
	historyLimit int
}

func NewContextBuilder(baseLog *logger.Logger, chats repos.ChatRepo, messages repos.MessageRepo, historyLimit int) *ContextBuilder {
	if historyLimit <= 0 {
		historyLimit = 200
	}
	return &ContextBuilder{
		log:          baseLog.With("service", "ContextBuilder"),
		chats:        chats,
		messages:     messages,
		historyLimit: historyLimit,
	}
}

// Build walks history newest to oldest, keeping messages while the running
// token count stays under budget, then returns them in chronological order
// with the system prompt first. The result is the newest contiguous run that
// fits: a message whose reply target was trimmed out still appears verbatim
// (recency wins over reply-tree completeness). When the budget cannot hold
// even the newest message, the minimal context is returned together with a
// BudgetWarning.
func (cb *ContextBuilder) Build(ctx context.Context, chatID int64, topicID *int64, budget int, count TokenCounter) ([]types.MessagePayload, *types.ChatConfig, error) {
	cfg, err := cb.chats.GetConfig(ctx, nil, chatID)
	if err != nil {
		return nil, nil, err
	}

	history, err := cb.messages.ListRecent(ctx, nil, chatID, topicID, cb.historyLimit)
	if err != nil {
		return nil, nil, err
	}

	system := types.MessagePayload{Role: types.RoleSystem, Content: cfg.SystemPrompt}
	total := count(system)

	var included []types.MessagePayload
	for i := len(history) - 1; i >= 0; i-- {
		cost := count(history[i].MessagePayload)
		if total+cost > budget {
			break
		}
		total += cost
		// building newest-first; reversed below
		included = append(included, history[i].MessagePayload)
	}

	var warning error
	switch {
	case len(included) == 0 && len(history) > 0:
		newest := history[len(history)-1].MessagePayload
		included = append(included, newest)
		warning = &BudgetWarning{Budget: budget, Needed: total + count(newest)}
		cb.log.Warn("Context budget too small for any history, keeping newest message", "chat_id", chatID, "budget", budget)
	case len(history) == 0 && total > budget:
		warning = &BudgetWarning{Budget: budget, Needed: total}
		cb.log.Warn("Context budget too small for the system prompt alone", "chat_id", chatID, "budget", budget)
	}

	out := make([]types.MessagePayload, 0, len(included)+1)
	out = append(out, system)
	for i := len(included) - 1; i >= 0; i-- {
		out = append(out, included[i])
	}
	return out, cfg, warning
}
