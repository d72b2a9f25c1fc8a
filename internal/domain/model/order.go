package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypeTakeaway OrderType = "takeaway"
	OrderTypeDelivery OrderType = "delivery"
	OrderTypeOnline   OrderType = "online"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusServed    OrderStatus = "served"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPartial  PaymentStatus = "partial"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "cash"
	PaymentMethodCard          PaymentMethod = "card"
	PaymentMethodDigitalWallet PaymentMethod = "digital_wallet"
	PaymentMethodBankTransfer  PaymentMethod = "bank_transfer"
)

// 1回の会計単位。order_numberは日付プレフィックス＋当日連番で一意。
type Order struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber string `gorm:"type:varchar(20);not null;uniqueIndex" json:"order_number"`

	UserID  *int64 `gorm:"index" json:"user_id"`
	TableID *int64 `gorm:"index" json:"table_id"`

	CustomerName  string `gorm:"type:varchar(255)" json:"customer_name"`
	CustomerPhone string `gorm:"type:varchar(20)" json:"customer_phone"`
	CustomerEmail string `gorm:"type:varchar(255)" json:"customer_email"`

	OrderType     OrderType     `gorm:"type:varchar(20);not null;index" json:"order_type"`
	Status        OrderStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null" json:"payment_status"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(20)" json:"payment_method"`

	Subtotal       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"discount_amount"`
	ServiceCharge  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"service_charge"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	PaidAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"paid_amount"`

	Notes               string `gorm:"type:text" json:"notes"`
	SpecialInstructions string `gorm:"type:varchar(500)" json:"special_instructions"`

	//confirmed時に計算する想定調理時間（分）
	EstimatedTime int `gorm:"not null;default:0" json:"estimated_time"`

	OrderedAt   time.Time  `gorm:"not null;index" json:"ordered_at"`
	ConfirmedAt *time.Time `json:"confirmed_at"`
	ReadyAt     *time.Time `json:"ready_at"`
	ServedAt    *time.Time `json:"served_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`

	Metadata datatypes.JSONMap `json:"metadata"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Table *Table      `gorm:"foreignKey:TableID" json:"table,omitempty"`
	User  *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime;index" json:"updated_at"`
}

// 残額。マイナスにはならない。
func (o *Order) RemainingAmount() decimal.Decimal {
	r := o.TotalAmount.Sub(o.PaidAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

func (o *Order) IsPaid() bool {
	return o.RemainingAmount().IsZero()
}

// completed/cancelledからはもう遷移できない
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}

// 削除できるのはpending/cancelledだけ
func (o *Order) IsDeletable() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusCancelled
}

func (o *Order) IsDineIn() bool {
	return o.OrderType == OrderTypeDineIn && o.TableID != nil
}

func ValidOrderType(t OrderType) bool {
	switch t {
	case OrderTypeDineIn, OrderTypeTakeaway, OrderTypeDelivery, OrderTypeOnline:
		return true
	}
	return false
}

func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusServed, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodDigitalWallet, PaymentMethodBankTransfer:
		return true
	}
	return false
}
