package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// カタログ上の商品。track_stockのときだけstock_quantityが正になる。
type Product struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID *int64 `gorm:"index" json:"category_id"`

	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Slug        string `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	SKU         string `gorm:"type:varchar(50);not null;uniqueIndex" json:"sku"`
	Barcode     string `gorm:"type:varchar(100)" json:"barcode"`

	Price decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Cost  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"cost"`
	Unit  string          `gorm:"type:varchar(20)" json:"unit"`

	//調理にかかる時間（分）
	PreparationTime int `gorm:"not null;default:0" json:"preparation_time"`

	StockQuantity     int64 `gorm:"not null;default:0" json:"stock_quantity"`
	LowStockThreshold int64 `gorm:"not null;default:0" json:"low_stock_threshold"`
	TrackStock        bool  `gorm:"not null;default:false" json:"track_stock"`
	IsActive          bool  `gorm:"not null;default:true" json:"is_active"`

	Images   datatypes.JSON    `json:"images"`
	Metadata datatypes.JSONMap `json:"metadata"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Product) IsLowStock() bool {
	return p.TrackStock && p.StockQuantity <= p.LowStockThreshold
}
