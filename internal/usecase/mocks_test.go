package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders        repo.OrderRepository
	orderItems    repo.OrderItemRepository
	products      repo.ProductRepository
	inventory     repo.InventoryRepository
	tables        repo.TableRepository
	notifications repo.NotificationRepository
	settings      repo.SettingRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository               { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository       { return r.orderItems }
func (r *TxReposMock) Products() repo.ProductRepository           { return r.products }
func (r *TxReposMock) Inventory() repo.InventoryRepository        { return r.inventory }
func (r *TxReposMock) Tables() repo.TableRepository               { return r.tables }
func (r *TxReposMock) Notifications() repo.NotificationRepository { return r.notifications }
func (r *TxReposMock) Settings() repo.SettingRepository           { return r.settings }

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByIDWithRelations(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) ListToday(ctx context.Context, status string) ([]model.Order, error) {
	args := m.Called(ctx, status)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *OrderRepoMock) ListUpdatedSince(ctx context.Context, since *time.Time, limit int) ([]model.Order, error) {
	args := m.Called(ctx, since, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *OrderRepoMock) ListActiveByTable(ctx context.Context, tableID int64) ([]model.Order, error) {
	args := m.Called(ctx, tableID)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *OrderRepoMock) CountOnDate(ctx context.Context, day time.Time) (int64, error) {
	args := m.Called(ctx, day)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) ExistsByTable(ctx context.Context, tableID int64) (bool, error) {
	args := m.Called(ctx, tableID)
	return args.Bool(0), args.Error(1)
}

func (m *OrderRepoMock) ListMeta(ctx context.Context) (repo.OrderListMeta, error) {
	args := m.Called(ctx)
	meta, _ := args.Get(0).(repo.OrderListMeta)
	return meta, args.Error(1)
}

func (m *OrderRepoMock) StatsRange(ctx context.Context, from time.Time, to time.Time) (repo.OrderStats, error) {
	args := m.Called(ctx, from, to)
	stats, _ := args.Get(0).(repo.OrderStats)
	return stats, args.Error(1)
}

func (m *OrderRepoMock) StatusBreakdown(ctx context.Context, from time.Time, to time.Time) (map[string]int64, error) {
	args := m.Called(ctx, from, to)
	bd, _ := args.Get(0).(map[string]int64)
	return bd, args.Error(1)
}

func (m *OrderRepoMock) TypeBreakdown(ctx context.Context, from time.Time, to time.Time) (map[string]int64, error) {
	args := m.Called(ctx, from, to)
	bd, _ := args.Get(0).(map[string]int64)
	return bd, args.Error(1)
}

func (m *OrderRepoMock) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *OrderRepoMock) Save(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *OrderRepoMock) Delete(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

func (m *OrderItemRepoMock) FindByID(ctx context.Context, itemID int64) (model.OrderItem, error) {
	args := m.Called(ctx, itemID)
	item, _ := args.Get(0).(model.OrderItem)
	return item, args.Error(1)
}

func (m *OrderItemRepoMock) Update(ctx context.Context, item model.OrderItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ExistsByProduct(ctx context.Context, productID int64) (bool, error) {
	args := m.Called(ctx, productID)
	return args.Bool(0), args.Error(1)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) FindBySlug(ctx context.Context, slug string) (model.Product, error) {
	args := m.Called(ctx, slug)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) ListLowStock(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	args := m.Called(ctx, productID, qty)
	return args.Error(0)
}

func (m *InventoryRepoMock) SetStock(ctx context.Context, productID int64, newStock int64) error {
	args := m.Called(ctx, productID, newStock)
	return args.Error(0)
}

type TableRepoMock struct{ mock.Mock }

func (m *TableRepoMock) List(ctx context.Context, q repo.TableListQuery) ([]model.Table, error) {
	args := m.Called(ctx, q)
	tables, _ := args.Get(0).([]model.Table)
	return tables, args.Error(1)
}

func (m *TableRepoMock) FindByID(ctx context.Context, id int64) (model.Table, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(model.Table)
	return t, args.Error(1)
}

func (m *TableRepoMock) FindByNumber(ctx context.Context, tableNumber string) (model.Table, error) {
	args := m.Called(ctx, tableNumber)
	t, _ := args.Get(0).(model.Table)
	return t, args.Error(1)
}

func (m *TableRepoMock) Create(ctx context.Context, t model.Table) (model.Table, error) {
	args := m.Called(ctx, t)
	created, _ := args.Get(0).(model.Table)
	return created, args.Error(1)
}

func (m *TableRepoMock) Update(ctx context.Context, t model.Table) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *TableRepoMock) UpdateStatus(ctx context.Context, id int64, status model.TableStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *TableRepoMock) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *TableRepoMock) CountByStatus(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).(map[string]int64)
	return counts, args.Error(1)
}

type NotificationRepoMock struct{ mock.Mock }

func (m *NotificationRepoMock) Create(ctx context.Context, n *model.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *NotificationRepoMock) List(ctx context.Context, q repo.NotificationListQuery) ([]model.Notification, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Notification)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *NotificationRepoMock) FindByID(ctx context.Context, id int64) (model.Notification, error) {
	args := m.Called(ctx, id)
	n, _ := args.Get(0).(model.Notification)
	return n, args.Error(1)
}

func (m *NotificationRepoMock) MarkRead(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *NotificationRepoMock) MarkAllRead(ctx context.Context, userID *int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationRepoMock) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *NotificationRepoMock) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationRepoMock) CountUnread(ctx context.Context, userID *int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type SettingRepoMock struct{ mock.Mock }

func (m *SettingRepoMock) All(ctx context.Context) ([]model.Setting, error) {
	args := m.Called(ctx)
	settings, _ := args.Get(0).([]model.Setting)
	return settings, args.Error(1)
}

func (m *SettingRepoMock) Get(ctx context.Context, key string) (model.Setting, error) {
	args := m.Called(ctx, key)
	s, _ := args.Get(0).(model.Setting)
	return s, args.Error(1)
}

func (m *SettingRepoMock) Upsert(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// =====================
// Rate / broadcaster stubs
// =====================

// 固定料率（税10%・サービス料5%）
type FixedRates struct{}

func (FixedRates) Rates(ctx context.Context) (decimal.Decimal, decimal.Decimal) {
	return decimal.NewFromFloat(0.10), decimal.NewFromFloat(0.05)
}

type BroadcasterMock struct{ mock.Mock }

func (m *BroadcasterMock) Broadcast(ctx context.Context, n model.Notification) {
	m.Called(ctx, n)
}

// =====================
// Helper: error contains（HTTPErrorの実装詳細に依存しない）
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}
