package model

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityMedium NotificationPriority = "medium"
	NotificationPriorityHigh   NotificationPriority = "high"
)

// イベント通知。作成時に1回だけブロードキャストする（at-most-once）。
type Notification struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Type    string `gorm:"type:varchar(50);not null;index" json:"type"`
	Title   string `gorm:"type:varchar(255);not null" json:"title"`
	Message string `gorm:"type:text" json:"message"`

	Data datatypes.JSONMap `json:"data"`

	Read     bool                 `gorm:"not null;default:false;index" json:"read"`
	UserID   *int64               `gorm:"index" json:"user_id"`
	Priority NotificationPriority `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`

	ExpiresAt *time.Time `json:"expires_at"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (n *Notification) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && n.ExpiresAt.Before(now)
}
