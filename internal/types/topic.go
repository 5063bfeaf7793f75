package types

import (
	"time"
)

// Topic is an optional sub-thread inside a chat (e.g. a forum thread).
// It is identified by (chat_id, id); a topic belongs to exactly one chat.
type Topic struct {
	ChatID    int64     `gorm:"primaryKey;autoIncrement:false;column:chat_id" json:"chat_id"`
	ID        int64     `gorm:"primaryKey;autoIncrement:false;column:id" json:"id"`
	Title     string    `gorm:"column:title" json:"title"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Topic) TableName() string {
	return "topic"
}
