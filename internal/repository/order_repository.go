package repository

import (
	"context"
	"time"

	"app/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 注文一覧のフィルタ。日付はordered_at基準。
type OrderListFilter struct {
	Page  int
	Limit int

	Status        string
	OrderType     string
	PaymentStatus string
	TableID       *int64
	UserID        *int64
	DateFrom      *time.Time
	DateTo        *time.Time

	//order_number/customer_name/customer_phone/customer_emailの部分一致
	Search string

	SortBy    string
	SortOrder string
}

// 一覧レスポンスに付けるメタ情報
type OrderListMeta struct {
	TotalToday   int64           `json:"total_today"`
	PendingCount int64           `json:"pending_count"`
	RevenueToday decimal.Decimal `json:"revenue_today"`
	ActiveOrders int64           `json:"active_orders"`
}

// 期間集計
type OrderStats struct {
	TotalOrders       int64           `json:"total_orders"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	CompletedOrders   int64           `json:"completed_orders"`
	PendingOrders     int64           `json:"pending_orders"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	//items/table/userをまとめてロードする
	FindByIDWithRelations(ctx context.Context, orderID int64) (model.Order, error)

	List(ctx context.Context, f OrderListFilter) ([]model.Order, int64, error)
	ListToday(ctx context.Context, status string) ([]model.Order, error)
	//updated_atウォーターマークでの差分取得
	ListUpdatedSince(ctx context.Context, since *time.Time, limit int) ([]model.Order, error)
	//非終端（completed/cancelled以外）の注文
	ListActiveByTable(ctx context.Context, tableID int64) ([]model.Order, error)

	//当日の作成件数（注文番号の連番用）
	CountOnDate(ctx context.Context, day time.Time) (int64, error)
	ExistsByTable(ctx context.Context, tableID int64) (bool, error)

	ListMeta(ctx context.Context) (OrderListMeta, error)
	StatsRange(ctx context.Context, from time.Time, to time.Time) (OrderStats, error)
	StatusBreakdown(ctx context.Context, from time.Time, to time.Time) (map[string]int64, error)
	TypeBreakdown(ctx context.Context, from time.Time, to time.Time) (map[string]int64, error)

	Create(ctx context.Context, order *model.Order) error
	Save(ctx context.Context, order *model.Order) error
	Delete(ctx context.Context, orderID int64) error
}

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	FindByID(ctx context.Context, itemID int64) (model.OrderItem, error)
	Update(ctx context.Context, item model.OrderItem) error
	ExistsByProduct(ctx context.Context, productID int64) (bool, error)
}
