package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderItemStatus string

const (
	OrderItemStatusPending   OrderItemStatus = "pending"
	OrderItemStatusConfirmed OrderItemStatus = "confirmed"
	OrderItemStatusPreparing OrderItemStatus = "preparing"
	OrderItemStatusReady     OrderItemStatus = "ready"
	OrderItemStatusServed    OrderItemStatus = "served"
	OrderItemStatusCancelled OrderItemStatus = "cancelled"
)

// 注文明細。商品名/SKU/調理時間は作成時点のスナップショットを持つ
// （後から商品が編集されても過去の注文は変わらない）。
type OrderItem struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64 `gorm:"not null;index" json:"order_id"`
	ProductID int64 `gorm:"not null;index" json:"product_id"`

	ProductName     string `gorm:"type:varchar(255);not null" json:"product_name"`
	ProductSKU      string `gorm:"type:varchar(50);not null" json:"product_sku"`
	PreparationTime int    `gorm:"not null;default:0" json:"preparation_time"`

	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	//保存前に必ずunit_price×quantityで再計算する。入力値は信用しない。
	LineTotal decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"line_total"`

	Status OrderItemStatus `gorm:"type:varchar(20);not null" json:"status"`

	Customizations      datatypes.JSONMap `json:"customizations"`
	SpecialInstructions string            `gorm:"type:varchar(255)" json:"special_instructions"`

	Product *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"product,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 数量変更はpending/confirmedの間だけ
func (i *OrderItem) CanBeModified() bool {
	return i.Status == OrderItemStatusPending || i.Status == OrderItemStatusConfirmed
}

// line_totalを計算し直す
func (i *OrderItem) RecalculateLineTotal() {
	i.LineTotal = i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}
