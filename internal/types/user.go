package types

import (
	"time"
)

// User is a message author. System and tool messages carry no user.
// Rows are created lazily the first time an author is seen.
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false;column:id" json:"id"`
	Username  string    `gorm:"column:username" json:"username"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (User) TableName() string {
	return "user"
}
