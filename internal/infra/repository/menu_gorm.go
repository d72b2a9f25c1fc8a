package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type MenuCategoryGormRepository struct {
	db *gorm.DB
}

func NewMenuCategoryGormRepository(db *gorm.DB) *MenuCategoryGormRepository {
	return &MenuCategoryGormRepository{db: db}
}

func (r *MenuCategoryGormRepository) List(ctx context.Context, activeOnly bool) ([]model.MenuCategory, error) {
	tx := r.db.WithContext(ctx).Model(&model.MenuCategory{}).Preload("Items")
	if activeOnly {
		tx = tx.Where("is_active = ?", true)
	}

	var categories []model.MenuCategory
	if err := tx.Order("sort_order asc").Find(&categories).Error; err != nil {
		return []model.MenuCategory{}, err
	}
	return categories, nil
}

func (r *MenuCategoryGormRepository) FindByID(ctx context.Context, id int64) (model.MenuCategory, error) {
	var c model.MenuCategory
	err := r.db.WithContext(ctx).Preload("Items").First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.MenuCategory{}, repo.ErrNotFound
	}
	if err != nil {
		return model.MenuCategory{}, err
	}
	return c, nil
}

func (r *MenuCategoryGormRepository) Create(ctx context.Context, c model.MenuCategory) (model.MenuCategory, error) {
	if err := r.db.WithContext(ctx).Omit("Items").Create(&c).Error; err != nil {
		return model.MenuCategory{}, err
	}
	return c, nil
}

func (r *MenuCategoryGormRepository) Update(ctx context.Context, c model.MenuCategory) error {
	res := r.db.WithContext(ctx).Omit("Items").Save(&c)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *MenuCategoryGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.MenuCategory{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *MenuCategoryGormRepository) HasItems(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.MenuItem{}).
		Where("menu_category_id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

type MenuItemGormRepository struct {
	db *gorm.DB
}

func NewMenuItemGormRepository(db *gorm.DB) *MenuItemGormRepository {
	return &MenuItemGormRepository{db: db}
}

func (r *MenuItemGormRepository) List(ctx context.Context, categoryID *int64, availableOnly bool) ([]model.MenuItem, error) {
	tx := r.db.WithContext(ctx).Model(&model.MenuItem{})
	if categoryID != nil {
		tx = tx.Where("menu_category_id = ?", *categoryID)
	}
	if availableOnly {
		tx = tx.Where("is_available = ?", true)
	}

	var items []model.MenuItem
	if err := tx.Order("sort_order asc").Order("name asc").Find(&items).Error; err != nil {
		return []model.MenuItem{}, err
	}
	return items, nil
}

func (r *MenuItemGormRepository) FindByID(ctx context.Context, id int64) (model.MenuItem, error) {
	var i model.MenuItem
	err := r.db.WithContext(ctx).First(&i, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.MenuItem{}, repo.ErrNotFound
	}
	if err != nil {
		return model.MenuItem{}, err
	}
	return i, nil
}

func (r *MenuItemGormRepository) Create(ctx context.Context, i model.MenuItem) (model.MenuItem, error) {
	if err := r.db.WithContext(ctx).Create(&i).Error; err != nil {
		return model.MenuItem{}, err
	}
	return i, nil
}

func (r *MenuItemGormRepository) Update(ctx context.Context, i model.MenuItem) error {
	res := r.db.WithContext(ctx).Save(&i)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *MenuItemGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.MenuItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
