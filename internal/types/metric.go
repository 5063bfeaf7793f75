package types

import (
	"fmt"
	"time"
)

// Metric holds cumulative usage counters for one entity. Entity IDs are
// namespaced strings ("user:<id>" or "chat:<id>") so per-user and per-chat
// usage share one table without colliding in the numeric id space. Metric
// rows are write-only increments and survive chat deletion.
// Nothing in this table is ever encrypted.
type Metric struct {
	EntityID  string    `gorm:"primaryKey;column:entity_id" json:"entity_id"`
	Tokens    int64     `gorm:"not null;default:0;column:tokens" json:"tokens"`
	Cost      float64   `gorm:"not null;default:0;column:cost" json:"cost"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Metric) TableName() string {
	return "metric"
}

func UserEntityID(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

func ChatEntityID(chatID int64) string {
	return fmt.Sprintf("chat:%d", chatID)
}
