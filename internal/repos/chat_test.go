package repos

import (
	"bytes"
	"context"
	"testing"

	"github.com/vaultchat/vaultchat-backend/internal/types"
)

func TestChatRepo_ConfigDefaultsForUnknownChat(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewChatRepo(gdb, newTestCodec(t), testLogger(t))

	cfg, err := repo.GetConfig(context.Background(), nil, 12345)
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if cfg.SystemPrompt != types.DefaultSystemPrompt {
		t.Fatalf("expected default system prompt, got %q", cfg.SystemPrompt)
	}
}

func TestChatRepo_ConfigRoundTripIsEncrypted(t *testing.T) {
	gdb := newTestDB(t)
	codec := newTestCodec(t)
	repo := NewChatRepo(gdb, codec, testLogger(t))
	ctx := context.Background()

	want := &types.ChatConfig{
		SystemPrompt: "You are a pirate.",
		Model:        "gpt-4o",
		Temperature:  0.7,
		MaxTokens:    512,
	}
	if err := repo.SetConfig(ctx, nil, 1, want); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}

	got, err := repo.GetConfig(ctx, nil, 1)
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if got.SystemPrompt != want.SystemPrompt || got.Model != want.Model || got.MaxTokens != want.MaxTokens {
		t.Fatalf("config round trip mismatch: %+v", got)
	}

	var chat types.Chat
	if err := gdb.Where("id = ?", 1).First(&chat).Error; err != nil {
		t.Fatalf("load chat row: %v", err)
	}
	if len(chat.ConfigBlob) == 0 {
		t.Fatalf("config blob not stored")
	}
	if bytes.Contains(chat.ConfigBlob, []byte("pirate")) {
		t.Fatalf("config blob stored as plaintext")
	}
}

func TestChatRepo_DeleteHistoryKeepsMetricsAndSequence(t *testing.T) {
	gdb := newTestDB(t)
	codec := newTestCodec(t)
	log := testLogger(t)
	chats := NewChatRepo(gdb, codec, log)
	messages := NewMessageRepo(gdb, codec, log)
	metrics := NewMetricRepo(gdb, log)
	ctx := context.Background()

	topicID := int64(3)
	userID := int64(77)
	if err := chats.SetConfig(ctx, nil, 1, &types.ChatConfig{SystemPrompt: "custom"}); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := messages.Append(ctx, nil, AppendParams{ChatID: 1, TopicID: &topicID, UserID: &userID, Payload: userPayload("m")}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := metrics.Increment(ctx, nil, types.UserEntityID(userID), 100, 0.01); err != nil {
		t.Fatalf("Increment: %v", err)
	}

	if err := chats.DeleteHistory(ctx, nil, 1); err != nil {
		t.Fatalf("DeleteHistory: %v", err)
	}

	msgs, err := messages.ListRecent(ctx, nil, 1, nil, 0)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty history, got %d messages", len(msgs))
	}
	var topicCount int64
	if err := gdb.Model(&types.Topic{}).Where("chat_id = ?", 1).Count(&topicCount).Error; err != nil {
		t.Fatalf("count topics: %v", err)
	}
	if topicCount != 0 {
		t.Fatalf("expected topics deleted, got %d", topicCount)
	}

	cfg, err := chats.GetConfig(ctx, nil, 1)
	if err != nil {
		t.Fatalf("GetConfig after delete: %v", err)
	}
	if cfg.SystemPrompt != types.DefaultSystemPrompt {
		t.Fatalf("expected config reset to defaults, got %q", cfg.SystemPrompt)
	}

	// usage history survives chat deletion
	metric, err := metrics.Get(ctx, nil, types.UserEntityID(userID))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if metric.Tokens != 100 {
		t.Fatalf("metrics must survive history deletion, got %d tokens", metric.Tokens)
	}

	// sequence numbers are never reused
	msg, err := messages.Append(ctx, nil, AppendParams{ChatID: 1, Payload: userPayload("after")})
	if err != nil {
		t.Fatalf("Append after delete: %v", err)
	}
	if msg.Seq <= 3 {
		t.Fatalf("sequence reused after deletion: %d", msg.Seq)
	}
}
