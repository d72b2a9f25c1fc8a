package repository

import (
	"context"

	"app/internal/domain/model"
)

type CategoryRepository interface {
	List(ctx context.Context, activeOnly bool) ([]model.Category, error)
	FindByID(ctx context.Context, id int64) (model.Category, error)
	FindBySlug(ctx context.Context, slug string) (model.Category, error)

	Create(ctx context.Context, c model.Category) (model.Category, error)
	Update(ctx context.Context, c model.Category) error
	SoftDelete(ctx context.Context, id int64) error

	//配下に商品がある間は削除禁止の判定に使う
	HasProducts(ctx context.Context, id int64) (bool, error)
}

type MenuCategoryRepository interface {
	List(ctx context.Context, activeOnly bool) ([]model.MenuCategory, error)
	FindByID(ctx context.Context, id int64) (model.MenuCategory, error)
	Create(ctx context.Context, c model.MenuCategory) (model.MenuCategory, error)
	Update(ctx context.Context, c model.MenuCategory) error
	Delete(ctx context.Context, id int64) error
	HasItems(ctx context.Context, id int64) (bool, error)
}

type MenuItemRepository interface {
	List(ctx context.Context, categoryID *int64, availableOnly bool) ([]model.MenuItem, error)
	FindByID(ctx context.Context, id int64) (model.MenuItem, error)
	Create(ctx context.Context, i model.MenuItem) (model.MenuItem, error)
	Update(ctx context.Context, i model.MenuItem) error
	Delete(ctx context.Context, id int64) error
}
