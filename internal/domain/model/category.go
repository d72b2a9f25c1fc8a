package model

import (
	"time"

	"gorm.io/gorm"
)

// 商品のカテゴリ。slugはname由来で一意。
type Category struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Slug        string `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	Image       string `gorm:"type:varchar(500)" json:"image"`
	SortOrder   int    `gorm:"not null;default:0" json:"sort_order"`
	IsActive    bool   `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
