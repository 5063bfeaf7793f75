package types

import (
	"time"
)

// Chat is a persistent conversation container. Its configuration (system
// prompt, model parameters) lives in ConfigBlob, encrypted at rest. LastSeq
// is the per-chat message sequence allocator; it only ever grows, so sequence
// numbers are never reused even after message deletion.
type Chat struct {
	ID            int64      `gorm:"primaryKey;autoIncrement:false;column:id" json:"id"`
	Title         string     `gorm:"column:title" json:"title"`
	ActiveTopicID *int64     `gorm:"column:active_topic_id" json:"active_topic_id,omitempty"`
	ConfigBlob    []byte     `gorm:"column:config_blob" json:"-"`
	LastSeq       int64      `gorm:"not null;default:0;column:last_seq" json:"-"`
	CreatedAt     time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Chat) TableName() string {
	return "chat"
}

// ChatConfig is the plaintext form of Chat.ConfigBlob.
type ChatConfig struct {
	SystemPrompt string  `json:"system_prompt"`
	Model        string  `json:"model"`
	Temperature  float32 `json:"temperature"`
	MaxTokens    int     `json:"max_tokens"`
}

// DefaultSystemPrompt is used for chats with no stored configuration.
const DefaultSystemPrompt = "You are a helpful assistant."
