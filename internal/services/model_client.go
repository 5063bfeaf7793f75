package services

import (
	"context"

	"github.com/vaultchat/vaultchat-backend/internal/tools"
	"github.com/vaultchat/vaultchat-backend/internal/types"
)

// Completion is one model response: either final text or a batch of tool
// calls, never both. Token counts and cost cover this single invocation.
type Completion struct {
	Text         string
	ToolCalls    []tools.Call
	PromptTokens int
	ReplyTokens  int
	Cost         float64
}

// ModelClient is the language-model collaborator. Given an ordered context
// and the available tool schemas it produces a completion; it also exposes
// the model-specific token counter the context builder budgets with.
type ModelClient interface {
	Complete(ctx context.Context, msgs []types.MessagePayload, toolDefs []tools.Definition, cfg *types.ChatConfig) (*Completion, error)
	CountTokens(msg types.MessagePayload) int
}
