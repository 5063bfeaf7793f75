package types

import (
	"time"
)

// Message roles as sent to the model.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// Message is one entry in a chat's history, identified by (chat_id, seq).
// Seq establishes the canonical chat-scoped ordering independent of reply
// links. RepliedTo, when set, references an earlier message in the same chat
// (enforced on append: same chat, strictly smaller seq). The payload (role,
// content and tool metadata) is encrypted at rest and opaque to everything
// below the repository's codec boundary. Messages are immutable after
// creation; edits are modeled as new messages.
type Message struct {
	ChatID    int64     `gorm:"primaryKey;autoIncrement:false;column:chat_id" json:"chat_id"`
	Seq       int64     `gorm:"primaryKey;autoIncrement:false;column:seq" json:"seq"`
	TopicID   *int64    `gorm:"column:topic_id" json:"topic_id,omitempty"`
	UserID    *int64    `gorm:"column:user_id" json:"user_id,omitempty"`
	RepliedTo *int64    `gorm:"column:replied_to" json:"replied_to,omitempty"`
	Payload   []byte    `gorm:"not null;column:payload" json:"-"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Message) TableName() string {
	return "message"
}

// ToolCallRef is a model-issued tool invocation carried inside an assistant
// message payload.
type ToolCallRef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// MessagePayload is the plaintext form of Message.Payload. ToolCallID and
// ToolName are set only for tool-result messages; ToolCalls only for
// assistant messages that requested tool invocations.
type MessagePayload struct {
	Role       string        `json:"role"`
	Content    string        `json:"content"`
	Name       string        `json:"name,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
	ToolName   string        `json:"tool_name,omitempty"`
	ToolCalls  []ToolCallRef `json:"tool_calls,omitempty"`
}

// DecryptedMessage pairs a stored message with its decoded payload. It only
// exists in memory, immediately after decryption inside the repository.
type DecryptedMessage struct {
	Message
	MessagePayload
}
