package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一覧検索
type ProductListQuery struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	Active     *bool
	Sort       string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	FindBySlug(ctx context.Context, slug string) (model.Product, error)
	ListLowStock(ctx context.Context) ([]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error
}

// 在庫操作の約束。減算は条件付きUPDATEで、足りないときは何も変えない。
type InventoryRepository interface {
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)
	IncreaseStock(ctx context.Context, productID int64, qty int64) error
	SetStock(ctx context.Context, productID int64, newStock int64) error
}
