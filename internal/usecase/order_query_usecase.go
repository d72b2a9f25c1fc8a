package usecase

import (
	"context"
	"net/http"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

// 注文の参照系。集計・差分同期もここ。
type OrderQueryUsecase struct {
	orders repo.OrderRepository
	tables repo.TableRepository
}

func NewOrderQueryUsecase(orders repo.OrderRepository, tables repo.TableRepository) *OrderQueryUsecase {
	return &OrderQueryUsecase{orders: orders, tables: tables}
}

type OrderListOutput struct {
	Items []model.Order      `json:"items"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
	Meta  repo.OrderListMeta `json:"meta"`
}

func (u *OrderQueryUsecase) List(ctx context.Context, f repo.OrderListFilter) (OrderListOutput, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 15
	}

	items, total, err := u.orders.List(ctx, f)
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	meta, err := u.orders.ListMeta(ctx)
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return OrderListOutput{
		Items: items,
		Total: total,
		Page:  f.Page,
		Limit: f.Limit,
		Meta:  meta,
	}, nil
}

func (u *OrderQueryUsecase) Get(ctx context.Context, orderID int64) (model.Order, error) {
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := u.orders.FindByIDWithRelations(ctx, orderID)
	if err == repo.ErrNotFound {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return o, nil
}

type TodayOrdersOutput struct {
	Items           []model.Order `json:"items"`
	Date            string        `json:"date"`
	TotalOrders     int           `json:"total_orders"`
	TotalRevenue    string        `json:"total_revenue"`
	CompletedOrders int           `json:"completed_orders"`
}

func (u *OrderQueryUsecase) Today(ctx context.Context, status string) (TodayOrdersOutput, error) {
	items, err := u.orders.ListToday(ctx, status)
	if err != nil {
		return TodayOrdersOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := TodayOrdersOutput{
		Items:       items,
		Date:        time.Now().Format("2006-01-02"),
		TotalOrders: len(items),
	}

	revenue := decimal.Zero
	for _, o := range items {
		revenue = revenue.Add(o.TotalAmount)
		if o.Status == model.OrderStatusCompleted {
			out.CompletedOrders++
		}
	}
	out.TotalRevenue = revenue.StringFixed(2)

	return out, nil
}

type TableOrdersOutput struct {
	Items []model.Order `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Table model.Table   `json:"table"`
}

// テーブル単位の注文一覧
func (u *OrderQueryUsecase) ByTable(ctx context.Context, tableID int64, f repo.OrderListFilter) (TableOrdersOutput, error) {
	if tableID <= 0 {
		return TableOrdersOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	t, err := u.tables.FindByID(ctx, tableID)
	if err == repo.ErrNotFound {
		return TableOrdersOutput{}, NewHTTPError(http.StatusNotFound, "table not found")
	}
	if err != nil {
		return TableOrdersOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 15
	}
	f.TableID = &tableID

	items, total, err := u.orders.List(ctx, f)
	if err != nil {
		return TableOrdersOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return TableOrdersOutput{
		Items: items,
		Total: total,
		Page:  f.Page,
		Limit: f.Limit,
		Table: t,
	}, nil
}

type OrderStatsOutput struct {
	Today              repo.OrderStats  `json:"today"`
	ThisWeek           repo.OrderStats  `json:"this_week"`
	ThisMonth          repo.OrderStats  `json:"this_month"`
	StatusBreakdown    map[string]int64 `json:"status_breakdown"`
	OrderTypeBreakdown map[string]int64 `json:"order_type_breakdown"`
}

// 今日/今週/今月の集計。内訳は今日分だけ。
func (u *OrderQueryUsecase) Stats(ctx context.Context) (OrderStatsOutput, error) {
	now := time.Now()
	todayStart := startOfDay(now)
	tomorrow := todayStart.AddDate(0, 0, 1)
	weekStart := startOfWeek(now)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var out OrderStatsOutput
	var err error

	if out.Today, err = u.orders.StatsRange(ctx, todayStart, tomorrow); err != nil {
		return OrderStatsOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if out.ThisWeek, err = u.orders.StatsRange(ctx, weekStart, tomorrow); err != nil {
		return OrderStatsOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if out.ThisMonth, err = u.orders.StatsRange(ctx, monthStart, tomorrow); err != nil {
		return OrderStatsOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if out.StatusBreakdown, err = u.orders.StatusBreakdown(ctx, todayStart, tomorrow); err != nil {
		return OrderStatsOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if out.OrderTypeBreakdown, err = u.orders.TypeBreakdown(ctx, todayStart, tomorrow); err != nil {
		return OrderStatsOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return out, nil
}

type SyncOutput struct {
	Items         []model.Order `json:"items"`
	SyncTimestamp time.Time     `json:"sync_timestamp"`
}

// updated_atウォーターマークでの差分取得。最大50件。
func (u *OrderQueryUsecase) Sync(ctx context.Context, lastSync string) (SyncOutput, error) {
	var since *time.Time
	if lastSync != "" {
		t, err := time.Parse(time.RFC3339, lastSync)
		if err != nil {
			return SyncOutput{}, NewHTTPError(http.StatusBadRequest, "invalid last_sync")
		}
		since = &t
	}

	items, err := u.orders.ListUpdatedSince(ctx, since, 50)
	if err != nil {
		return SyncOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return SyncOutput{Items: items, SyncTimestamp: time.Now()}, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// 月曜はじまり
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	wd := int(day.Weekday())
	if wd == 0 {
		wd = 7
	}
	return day.AddDate(0, 0, -(wd - 1))
}
