package usecase

import (
	"context"
	"net/http"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

// 表示用メニューの管理。カタログ（Product/Category）とは独立に編集できる。
type MenuUsecase struct {
	menuCategoryRepo repo.MenuCategoryRepository
	menuItemRepo     repo.MenuItemRepository
}

func NewMenuUsecase(menuCategoryRepo repo.MenuCategoryRepository, menuItemRepo repo.MenuItemRepository) *MenuUsecase {
	return &MenuUsecase{menuCategoryRepo: menuCategoryRepo, menuItemRepo: menuItemRepo}
}

// 公開メニュー。有効なカテゴリと提供中の品だけ返す。
func (u *MenuUsecase) PublicMenu(ctx context.Context) ([]model.MenuCategory, error) {
	categories, err := u.menuCategoryRepo.List(ctx, true)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	for i := range categories {
		items, err := u.menuItemRepo.List(ctx, &categories[i].ID, true)
		if err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		categories[i].Items = items
	}
	return categories, nil
}

func (u *MenuUsecase) ListCategories(ctx context.Context) ([]model.MenuCategory, error) {
	categories, err := u.menuCategoryRepo.List(ctx, false)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return categories, nil
}

type MenuCategoryInput struct {
	Name        string
	Description string
	SortOrder   int
	IsActive    bool
}

func (u *MenuUsecase) CreateCategory(ctx context.Context, in MenuCategoryInput) (model.MenuCategory, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 255 {
		return model.MenuCategory{}, NewHTTPError(http.StatusUnprocessableEntity, "invalid name")
	}

	c := model.MenuCategory{
		Name:        name,
		Slug:        Slugify(name),
		Description: in.Description,
		SortOrder:   in.SortOrder,
		IsActive:    in.IsActive,
	}

	created, err := u.menuCategoryRepo.Create(ctx, c)
	if err != nil {
		return model.MenuCategory{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

func (u *MenuUsecase) UpdateCategory(ctx context.Context, categoryID int64, in MenuCategoryInput) (model.MenuCategory, error) {
	c, err := u.menuCategoryRepo.FindByID(ctx, categoryID)
	if err == repo.ErrNotFound {
		return model.MenuCategory{}, NewHTTPError(http.StatusNotFound, "menu category not found")
	}
	if err != nil {
		return model.MenuCategory{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 255 {
		return model.MenuCategory{}, NewHTTPError(http.StatusUnprocessableEntity, "invalid name")
	}

	c.Name = name
	c.Description = in.Description
	c.SortOrder = in.SortOrder
	c.IsActive = in.IsActive

	if err := u.menuCategoryRepo.Update(ctx, c); err != nil {
		return model.MenuCategory{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

func (u *MenuUsecase) DeleteCategory(ctx context.Context, categoryID int64) error {
	hasItems, err := u.menuCategoryRepo.HasItems(ctx, categoryID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if hasItems {
		return NewHTTPError(http.StatusConflict, "menu category has items")
	}

	if err := u.menuCategoryRepo.Delete(ctx, categoryID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

type MenuItemInput struct {
	MenuCategoryID int64
	Name           string
	Description    string
	Price          decimal.Decimal
	IsAvailable    bool
	SortOrder      int
}

func (u *MenuUsecase) CreateItem(ctx context.Context, in MenuItemInput) (model.MenuItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 255 {
		return model.MenuItem{}, NewHTTPError(http.StatusUnprocessableEntity, "invalid name")
	}
	if in.Price.IsNegative() {
		return model.MenuItem{}, NewHTTPError(http.StatusUnprocessableEntity, "price must be >= 0")
	}

	if _, err := u.menuCategoryRepo.FindByID(ctx, in.MenuCategoryID); err == repo.ErrNotFound {
		return model.MenuItem{}, NewHTTPError(http.StatusUnprocessableEntity, "menu category not found")
	} else if err != nil {
		return model.MenuItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	item := model.MenuItem{
		MenuCategoryID: in.MenuCategoryID,
		Name:           name,
		Slug:           Slugify(name) + "-" + shortID(),
		Description:    in.Description,
		Price:          in.Price,
		IsAvailable:    in.IsAvailable,
		SortOrder:      in.SortOrder,
	}

	created, err := u.menuItemRepo.Create(ctx, item)
	if err != nil {
		return model.MenuItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

func (u *MenuUsecase) UpdateItem(ctx context.Context, itemID int64, in MenuItemInput) (model.MenuItem, error) {
	item, err := u.menuItemRepo.FindByID(ctx, itemID)
	if err == repo.ErrNotFound {
		return model.MenuItem{}, NewHTTPError(http.StatusNotFound, "menu item not found")
	}
	if err != nil {
		return model.MenuItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 255 {
		return model.MenuItem{}, NewHTTPError(http.StatusUnprocessableEntity, "invalid name")
	}
	if in.Price.IsNegative() {
		return model.MenuItem{}, NewHTTPError(http.StatusUnprocessableEntity, "price must be >= 0")
	}

	item.Name = name
	item.Description = in.Description
	item.Price = in.Price
	item.IsAvailable = in.IsAvailable
	item.SortOrder = in.SortOrder
	if in.MenuCategoryID != 0 {
		item.MenuCategoryID = in.MenuCategoryID
	}

	if err := u.menuItemRepo.Update(ctx, item); err != nil {
		return model.MenuItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return item, nil
}

func (u *MenuUsecase) DeleteItem(ctx context.Context, itemID int64) error {
	if _, err := u.menuItemRepo.FindByID(ctx, itemID); err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "menu item not found")
	} else if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.menuItemRepo.Delete(ctx, itemID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
