package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"

	"github.com/vaultchat/vaultchat-backend/internal/logger"
	"github.com/vaultchat/vaultchat-backend/internal/repos"
	"github.com/vaultchat/vaultchat-backend/internal/tools"
	"github.com/vaultchat/vaultchat-backend/internal/types"
)

// TurnState tracks one turn through its lifecycle.
type TurnState string

const (
	StateReceived          TurnState = "RECEIVED"
	StateContextBuilt      TurnState = "CONTEXT_BUILT"
	StateModelInvoked      TurnState = "MODEL_INVOKED"
	StateToolCallsPending  TurnState = "TOOL_CALLS_PENDING"
	StateToolCallsResolved TurnState = "TOOL_CALLS_RESOLVED"
	StateReplied           TurnState = "REPLIED"
	StateFailed            TurnState = "FAILED"
)

// Incoming is one user message handed over by the transport layer.
type Incoming struct {
	ChatID    int64
	TopicID   *int64
	UserID    *int64
	Username  string
	Text      string
	RepliedTo *int64
}

// TurnResult is the outcome of one full turn.
type TurnResult struct {
	Reply  string
	State  TurnState
	Rounds int
}

const failedTurnReply = "I could not complete this request. Please try again."

// OrchestratorConfig bounds a turn's resource use.
type OrchestratorConfig struct {
	// TokenBudget is the maximum tokens the assembled context may occupy,
	// already net of the headroom reserved for the reply and tool schemas.
	TokenBudget int
	// MaxToolRounds bounds tool-call round trips per turn.
	MaxToolRounds int
	// ModelTimeout applies to each model invocation.
	ModelTimeout time.Duration
	// DefaultTemperature is used when the chat config does not set one.
	DefaultTemperature float32
}

// Orchestrator drives one turn per incoming user message: persist the
// message, build context, invoke the model, dispatch tool calls until the
// model settles on text, then persist the reply and record usage.
type Orchestrator struct {
	log        *logger.Logger
	cfg        OrchestratorConfig
	chats      repos.ChatRepo
	messages   repos.MessageRepo
	turns      repos.TurnRepo
	ledger     LedgerService
	builder    *ContextBuilder
	model      ModelClient
	registry   *tools.Registry
	dispatcher *tools.Dispatcher
	locks      *chatLocks
}

func NewOrchestrator(
	baseLog *logger.Logger,
	cfg OrchestratorConfig,
	chats repos.ChatRepo,
	messages repos.MessageRepo,
	turns repos.TurnRepo,
	ledger LedgerService,
	builder *ContextBuilder,
	model ModelClient,
	registry *tools.Registry,
	dispatcher *tools.Dispatcher,
) *Orchestrator {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = 5
	}
	if cfg.TokenBudget <= 0 {
		cfg.TokenBudget = 4096
	}
	return &Orchestrator{
		log:        baseLog.With("service", "Orchestrator"),
		cfg:        cfg,
		chats:      chats,
		messages:   messages,
		turns:      turns,
		ledger:     ledger,
		builder:    builder,
		model:      model,
		registry:   registry,
		dispatcher: dispatcher,
		locks:      newChatLocks(),
	}
}

// HandleIncoming runs one turn. Only decryption and storage failures return
// as errors; everything model-facing (tool failures, loop exhaustion) is
// turned into conversational content. Persisted progress is kept on
// cancellation: messages are immutable appends, never rolled back.
func (o *Orchestrator) HandleIncoming(ctx context.Context, in Incoming) (*TurnResult, error) {
	unlock := o.locks.lock(in.ChatID)
	defer unlock()

	turnLog := o.log.With("chat_id", in.ChatID)
	state := StateReceived

	_, err := o.messages.Append(ctx, nil, repos.AppendParams{
		ChatID:    in.ChatID,
		TopicID:   in.TopicID,
		UserID:    in.UserID,
		RepliedTo: in.RepliedTo,
		Payload: types.MessagePayload{
			Role:    types.RoleUser,
			Content: in.Text,
			Name:    in.Username,
		},
	})
	if err != nil {
		return nil, err
	}

	toolDefs := o.registry.Definitions()

	var turnTokens int64
	var turnCost float64
	var dispatched int

	for round := 0; round < o.cfg.MaxToolRounds; round++ {
		msgs, chatCfg, err := o.builder.Build(ctx, in.ChatID, in.TopicID, o.cfg.TokenBudget, o.model.CountTokens)
		if err != nil {
			if !errors.Is(err, types.ErrBudgetExceeded) {
				return nil, err
			}
			turnLog.Warn("Proceeding with minimal context", "error", err)
		}
		if chatCfg.Temperature == 0 {
			chatCfg.Temperature = o.cfg.DefaultTemperature
		}
		state = StateContextBuilt

		completion, err := o.invokeModel(ctx, msgs, toolDefs, chatCfg)
		if err != nil {
			return nil, err
		}
		state = StateModelInvoked

		tokens := int64(completion.PromptTokens + completion.ReplyTokens)
		turnTokens += tokens
		turnCost += completion.Cost
		if err := o.ledger.RecordForTurn(ctx, in.ChatID, in.UserID, tokens, completion.Cost); err != nil {
			turnLog.Error("Failed to record usage", "error", err)
		}

		if len(completion.ToolCalls) == 0 {
			if _, err := o.messages.Append(ctx, nil, repos.AppendParams{
				ChatID:  in.ChatID,
				TopicID: in.TopicID,
				Payload: types.MessagePayload{
					Role:    types.RoleAssistant,
					Content: completion.Text,
				},
			}); err != nil {
				return nil, err
			}
			state = StateReplied
			o.recordTurn(ctx, in, state, round, turnTokens, turnCost, dispatched)
			return &TurnResult{Reply: completion.Text, State: state, Rounds: round}, nil
		}

		dispatched += len(completion.ToolCalls)
		state = StateToolCallsPending
		if err := o.resolveToolCalls(ctx, in, completion, turnLog); err != nil {
			return nil, err
		}
		state = StateToolCallsResolved
	}

	// Loop bound exhausted: terminate with a user-visible failure message
	// instead of resubmitting context indefinitely.
	turnLog.Warn("Turn exceeded tool-call round limit", "max_rounds", o.cfg.MaxToolRounds, "error", types.ErrLoopLimit)
	if _, err := o.messages.Append(ctx, nil, repos.AppendParams{
		ChatID:  in.ChatID,
		TopicID: in.TopicID,
		Payload: types.MessagePayload{
			Role:    types.RoleAssistant,
			Content: failedTurnReply,
		},
	}); err != nil {
		return nil, err
	}
	o.recordTurn(ctx, in, StateFailed, o.cfg.MaxToolRounds, turnTokens, turnCost, dispatched)
	return &TurnResult{Reply: failedTurnReply, State: StateFailed, Rounds: o.cfg.MaxToolRounds}, nil
}

// recordTurn writes the audit row for a finished turn. Best effort: a failed
// write is logged, never surfaced; the user already has their reply.
func (o *Orchestrator) recordTurn(ctx context.Context, in Incoming, state TurnState, rounds int, tokens int64, cost float64, toolCalls int) {
	meta, err := json.Marshal(map[string]any{"tool_calls": toolCalls})
	if err != nil {
		meta = []byte("{}")
	}
	record := &types.TurnRecord{
		ChatID:   in.ChatID,
		UserID:   in.UserID,
		State:    string(state),
		Rounds:   rounds,
		Tokens:   tokens,
		Cost:     cost,
		Metadata: datatypes.JSON(meta),
	}
	if err := o.turns.Record(ctx, nil, record); err != nil {
		o.log.Warn("Failed to record turn", "chat_id", in.ChatID, "error", err)
	}
}

// Turns lists a chat's recent turn records, newest first.
func (o *Orchestrator) Turns(ctx context.Context, chatID int64, limit int) ([]types.TurnRecord, error) {
	return o.turns.ListByChat(ctx, nil, chatID, limit)
}

func (o *Orchestrator) invokeModel(ctx context.Context, msgs []types.MessagePayload, toolDefs []tools.Definition, chatCfg *types.ChatConfig) (*Completion, error) {
	modelCtx := ctx
	if o.cfg.ModelTimeout > 0 {
		var cancel context.CancelFunc
		modelCtx, cancel = context.WithTimeout(ctx, o.cfg.ModelTimeout)
		defer cancel()
	}
	return o.model.Complete(modelCtx, msgs, toolDefs, chatCfg)
}

// resolveToolCalls persists the assistant's tool-call message, dispatches
// every call, and persists one tool-result message per call, each linked
// via replied_to to the assistant message, before the caller rebuilds
// context. No model invocation happens with an outstanding call.
func (o *Orchestrator) resolveToolCalls(ctx context.Context, in Incoming, completion *Completion, turnLog *logger.Logger) error {
	refs := make([]types.ToolCallRef, 0, len(completion.ToolCalls))
	for _, call := range completion.ToolCalls {
		args := "{}"
		if call.Arguments != nil {
			raw, err := marshalArgs(call.Arguments)
			if err != nil {
				turnLog.Warn("Failed to marshal tool-call arguments, persisting empty object", "tool", call.Name, "error", err)
			} else {
				args = raw
			}
		}
		refs = append(refs, types.ToolCallRef{ID: call.ID, Name: call.Name, Arguments: args})
	}

	assistantMsg, err := o.messages.Append(ctx, nil, repos.AppendParams{
		ChatID:  in.ChatID,
		TopicID: in.TopicID,
		Payload: types.MessagePayload{
			Role:      types.RoleAssistant,
			Content:   completion.Text,
			ToolCalls: refs,
		},
	})
	if err != nil {
		return err
	}

	results := o.dispatcher.Dispatch(ctx, completion.ToolCalls)
	for _, result := range results {
		if result.IsError {
			turnLog.Warn("Tool call resolved with error content", "tool", result.ToolName)
		}
		repliedTo := assistantMsg.Seq
		if _, err := o.messages.Append(ctx, nil, repos.AppendParams{
			ChatID:    in.ChatID,
			TopicID:   in.TopicID,
			RepliedTo: &repliedTo,
			Payload: types.MessagePayload{
				Role:       types.RoleTool,
				Content:    result.Content,
				ToolCallID: result.CallID,
				ToolName:   result.ToolName,
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

func marshalArgs(args map[string]any) (string, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Usage exposes the ledger to the transport layer.
func (o *Orchestrator) Usage(ctx context.Context, entityID string) (*types.Metric, error) {
	return o.ledger.Get(ctx, entityID)
}

// DeleteHistory removes a chat's messages and topics. Usage metrics survive.
func (o *Orchestrator) DeleteHistory(ctx context.Context, chatID int64) error {
	unlock := o.locks.lock(chatID)
	defer unlock()
	o.log.Info("Deleting chat history", "chat_id", chatID)
	return o.chats.DeleteHistory(ctx, nil, chatID)
}
