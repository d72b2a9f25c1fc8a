package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 表示用メニューのカテゴリ（カタログのCategoryとは別管理）。
type MenuCategory struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Slug        string `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	SortOrder   int    `gorm:"not null;default:0" json:"sort_order"`
	IsActive    bool   `gorm:"not null;default:true" json:"is_active"`

	Items []MenuItem `gorm:"foreignKey:MenuCategoryID" json:"items,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 表示用メニューの1品。
type MenuItem struct {
	ID             int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	MenuCategoryID int64  `gorm:"not null;index" json:"menu_category_id"`
	Name           string `gorm:"type:varchar(255);not null" json:"name"`
	Slug           string `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Description    string `gorm:"type:text" json:"description"`

	Price decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`

	IsAvailable bool `gorm:"not null;default:true" json:"is_available"`
	SortOrder   int  `gorm:"not null;default:0" json:"sort_order"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
