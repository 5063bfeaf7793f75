package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vaultchat/vaultchat-backend/internal/logger"
	"github.com/vaultchat/vaultchat-backend/internal/tools"
	"github.com/vaultchat/vaultchat-backend/internal/types"
)

// Cost per 1k tokens in USD, prompt and completion.
var modelPricing = map[string][2]float64{
	"gpt-3.5-turbo":     {0.0015, 0.002},
	"gpt-3.5-turbo-16k": {0.003, 0.004},
	"gpt-4":             {0.03, 0.06},
	"gpt-4-turbo":       {0.01, 0.03},
	"gpt-4o":            {0.0025, 0.01},
	"gpt-4o-mini":       {0.00015, 0.0006},
}

const defaultModel = "gpt-4o-mini"

type openAIModelClient struct {
	log    *logger.Logger
	client *openai.Client
}

// NewOpenAIModelClient builds a ModelClient backed by the OpenAI chat
// completion API. baseURL is optional and allows pointing at compatible
// gateways.
func NewOpenAIModelClient(apiKey, baseURL string, baseLog *logger.Logger) (ModelClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing OpenAI API key")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &openAIModelClient{
		log:    baseLog.With("service", "OpenAIModelClient"),
		client: openai.NewClientWithConfig(cfg),
	}, nil
}

func (c *openAIModelClient) Complete(ctx context.Context, msgs []types.MessagePayload, toolDefs []tools.Definition, cfg *types.ChatConfig) (*Completion, error) {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(msgs),
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Tools:       toOpenAITools(toolDefs),
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}
	choice := resp.Choices[0]

	out := &Completion{
		Text:         choice.Message.Content,
		PromptTokens: resp.Usage.PromptTokens,
		ReplyTokens:  resp.Usage.CompletionTokens,
		Cost:         completionCost(model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
	}
	for _, tc := range choice.Message.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				c.log.Warn("Model produced unparseable tool arguments", "tool", tc.Function.Name, "error", err)
			}
		}
		out.ToolCalls = append(out.ToolCalls, tools.Call{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return out, nil
}

// CountTokens estimates without a tokenizer dependency: roughly four bytes
// per token for chat text, plus the per-message framing overhead.
func (c *openAIModelClient) CountTokens(msg types.MessagePayload) int {
	return len(msg.Content)/4 + 4
}

func toOpenAIMessages(msgs []types.MessagePayload) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		converted := openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
			Name:    m.Name,
		}
		if m.Role == types.RoleTool {
			converted.ToolCallID = m.ToolCallID
			converted.Name = m.ToolName
		}
		for _, tc := range m.ToolCalls {
			converted.ToolCalls = append(converted.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, converted)
	}
	return out
}

func toOpenAITools(defs []tools.Definition) []openai.Tool {
	out := make([]openai.Tool, 0, len(defs))
	for _, def := range defs {
		properties := map[string]any{}
		var required []string
		for _, p := range def.Parameters {
			prop := map[string]any{"type": p.Type}
			if p.Description != "" {
				prop["description"] = p.Description
			}
			if len(p.Enum) > 0 {
				prop["enum"] = p.Enum
			}
			properties[p.Name] = prop
			if !p.Optional {
				required = append(required, p.Name)
			}
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters: map[string]any{
					"type":       "object",
					"properties": properties,
					"required":   required,
				},
			},
		})
	}
	return out
}

func completionCost(model string, promptTokens, replyTokens int) float64 {
	pricing, ok := modelPricing[model]
	if !ok {
		pricing, ok = modelPricing[normalizeModel(model)]
		if !ok {
			return 0
		}
	}
	return float64(promptTokens)/1000*pricing[0] + float64(replyTokens)/1000*pricing[1]
}

// normalizeModel maps dated model names (gpt-4o-mini-2024-07-18) onto their
// pricing family by longest matching prefix.
func normalizeModel(model string) string {
	best := model
	bestLen := 0
	for prefix := range modelPricing {
		if strings.HasPrefix(model, prefix+"-") && len(prefix) > bestLen {
			best = prefix
			bestLen = len(prefix)
		}
	}
	return best
}
