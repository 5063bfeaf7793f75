package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TurnRecord is the operational audit row written once per completed turn.
// Metadata never carries message content, only counters and tool names; the
// encrypted payload column on Message is the sole home of conversation text.
type TurnRecord struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ChatID    int64          `gorm:"column:chat_id;not null;index" json:"chat_id"`
	UserID    *int64         `gorm:"column:user_id;index" json:"user_id,omitempty"`
	State     string         `gorm:"column:state;not null;index" json:"state"`
	Rounds    int            `gorm:"column:rounds;not null;default:0" json:"rounds"`
	Tokens    int64          `gorm:"column:tokens;not null;default:0" json:"tokens"`
	Cost      float64        `gorm:"column:cost;not null;default:0" json:"cost"`
	Metadata  datatypes.JSON `gorm:"column:metadata" json:"metadata"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
}

func (TurnRecord) TableName() string { return "turn_record" }
