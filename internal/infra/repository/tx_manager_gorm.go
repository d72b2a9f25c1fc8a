package repository

import (
	"context"

	repo "app/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders        repo.OrderRepository
	orderItems    repo.OrderItemRepository
	products      repo.ProductRepository
	inventory     repo.InventoryRepository
	tables        repo.TableRepository
	notifications repo.NotificationRepository
	settings      repo.SettingRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository               { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository       { return r.orderItems }
func (r *txReposGorm) Products() repo.ProductRepository           { return r.products }
func (r *txReposGorm) Inventory() repo.InventoryRepository        { return r.inventory }
func (r *txReposGorm) Tables() repo.TableRepository               { return r.tables }
func (r *txReposGorm) Notifications() repo.NotificationRepository { return r.notifications }
func (r *txReposGorm) Settings() repo.SettingRepository           { return r.settings }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:        NewOrderGormRepository(tx),
			orderItems:    NewOrderItemGormRepository(tx),
			products:      NewProductGormRepository(tx),
			inventory:     NewInventoryGormRepository(tx),
			tables:        NewTableGormRepository(tx),
			notifications: NewNotificationGormRepository(tx),
			settings:      NewSettingGormRepository(tx),
		}
		return fn(r)
	})
}
