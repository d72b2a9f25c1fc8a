package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 非終端の注文だけに絞る
func activeScope(tx *gorm.DB) *gorm.DB {
	return tx.Where("status NOT IN ?", []string{
		string(model.OrderStatusCompleted),
		string(model.OrderStatusCancelled),
	})
}

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) FindByIDWithRelations(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Preload("Table").
		Preload("User").
		Where("id = ?", orderID).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 15
	}

	q := r.db.WithContext(ctx).Model(&model.Order{})

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.OrderType != "" {
		q = q.Where("order_type = ?", f.OrderType)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.TableID != nil {
		q = q.Where("table_id = ?", *f.TableID)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.DateFrom != nil {
		q = q.Where("ordered_at >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("ordered_at <= ?", *f.DateTo)
	}
	if strings.TrimSpace(f.Search) != "" {
		like := "%" + strings.TrimSpace(f.Search) + "%"
		q = q.Where(
			"order_number ILIKE ? OR customer_name ILIKE ? OR customer_phone ILIKE ? OR customer_email ILIKE ?",
			like, like, like, like,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	//許可カラム以外はordered_at descで返す
	sortBy := f.SortBy
	switch sortBy {
	case "id", "order_number", "status", "total_amount", "ordered_at", "created_at":
	default:
		sortBy = "ordered_at"
	}
	sortOrder := "desc"
	if strings.EqualFold(f.SortOrder, "asc") {
		sortOrder = "asc"
	}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	err := q.
		Preload("Items").
		Preload("Table").
		Preload("User").
		Order(sortBy + " " + sortOrder).
		Limit(f.Limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) ListToday(ctx context.Context, status string) ([]model.Order, error) {
	q := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Table").
		Preload("User").
		Where("ordered_at >= ?", startOfDay(time.Now()))

	if status != "" {
		q = q.Where("status = ?", status)
	}

	var items []model.Order
	if err := q.Order("ordered_at desc").Find(&items).Error; err != nil {
		return []model.Order{}, err
	}
	return items, nil
}

func (r *OrderGormRepository) ListUpdatedSince(ctx context.Context, since *time.Time, limit int) ([]model.Order, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	q := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Table").
		Preload("User")

	if since != nil {
		q = q.Where("updated_at > ?", *since)
	}

	var items []model.Order
	if err := q.Order("updated_at desc").Limit(limit).Find(&items).Error; err != nil {
		return []model.Order{}, err
	}
	return items, nil
}

func (r *OrderGormRepository) ListActiveByTable(ctx context.Context, tableID int64) ([]model.Order, error) {
	var items []model.Order
	err := activeScope(r.db.WithContext(ctx).Where("table_id = ?", tableID)).
		Preload("Items").
		Order("ordered_at asc").
		Find(&items).Error
	if err != nil {
		return []model.Order{}, err
	}
	return items, nil
}

func (r *OrderGormRepository) CountOnDate(ctx context.Context, day time.Time) (int64, error) {
	start := startOfDay(day)
	end := start.AddDate(0, 0, 1)

	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *OrderGormRepository) ExistsByTable(ctx context.Context, tableID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("table_id = ?", tableID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *OrderGormRepository) ListMeta(ctx context.Context) (repo.OrderListMeta, error) {
	var meta repo.OrderListMeta
	today := startOfDay(time.Now())

	base := func() *gorm.DB { return r.db.WithContext(ctx).Model(&model.Order{}) }

	if err := base().Where("ordered_at >= ?", today).Count(&meta.TotalToday).Error; err != nil {
		return repo.OrderListMeta{}, err
	}
	if err := base().Where("status = ?", model.OrderStatusPending).Count(&meta.PendingCount).Error; err != nil {
		return repo.OrderListMeta{}, err
	}
	if err := activeScope(base()).Count(&meta.ActiveOrders).Error; err != nil {
		return repo.OrderListMeta{}, err
	}

	var revenue decimal.NullDecimal
	err := base().Where("ordered_at >= ?", today).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&revenue).Error
	if err != nil {
		return repo.OrderListMeta{}, err
	}
	meta.RevenueToday = revenue.Decimal

	return meta, nil
}

func (r *OrderGormRepository) StatsRange(ctx context.Context, from time.Time, to time.Time) (repo.OrderStats, error) {
	var stats repo.OrderStats

	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&model.Order{}).
			Where("ordered_at >= ? AND ordered_at < ?", from, to)
	}

	if err := base().Count(&stats.TotalOrders).Error; err != nil {
		return repo.OrderStats{}, err
	}
	if err := base().Where("status = ?", model.OrderStatusCompleted).Count(&stats.CompletedOrders).Error; err != nil {
		return repo.OrderStats{}, err
	}
	if err := base().Where("status = ?", model.OrderStatusPending).Count(&stats.PendingOrders).Error; err != nil {
		return repo.OrderStats{}, err
	}

	var revenue decimal.NullDecimal
	if err := base().Select("COALESCE(SUM(total_amount), 0)").Scan(&revenue).Error; err != nil {
		return repo.OrderStats{}, err
	}
	stats.TotalRevenue = revenue.Decimal

	if stats.TotalOrders > 0 {
		stats.AverageOrderValue = stats.TotalRevenue.
			Div(decimal.NewFromInt(stats.TotalOrders)).
			Round(2)
	}

	return stats, nil
}

type breakdownRow struct {
	Key   string
	Count int64
}

func (r *OrderGormRepository) StatusBreakdown(ctx context.Context, from time.Time, to time.Time) (map[string]int64, error) {
	return r.breakdown(ctx, "status", from, to)
}

func (r *OrderGormRepository) TypeBreakdown(ctx context.Context, from time.Time, to time.Time) (map[string]int64, error) {
	return r.breakdown(ctx, "order_type", from, to)
}

func (r *OrderGormRepository) breakdown(ctx context.Context, column string, from time.Time, to time.Time) (map[string]int64, error) {
	var rows []breakdownRow
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select(column+" AS key, COUNT(*) AS count").
		Where("ordered_at >= ? AND ordered_at < ?", from, to).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Count
	}
	return out, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Omit("Items", "Table", "User").Create(order).Error
}

func (r *OrderGormRepository) Save(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Omit("Items", "Table", "User").Save(order).Error
}

func (r *OrderGormRepository) Delete(ctx context.Context, orderID int64) error {
	//明細はFKのON DELETE CASCADEで一緒に消える
	res := r.db.WithContext(ctx).Delete(&model.Order{}, orderID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
