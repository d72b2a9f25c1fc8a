package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type TableGormRepository struct {
	db *gorm.DB
}

func NewTableGormRepository(db *gorm.DB) *TableGormRepository {
	return &TableGormRepository{db: db}
}

func (r *TableGormRepository) List(ctx context.Context, q repo.TableListQuery) ([]model.Table, error) {
	tx := r.db.WithContext(ctx).Model(&model.Table{})

	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.Location != "" {
		tx = tx.Where("location = ?", q.Location)
	}
	if q.Active != nil {
		tx = tx.Where("is_active = ?", *q.Active)
	}

	var tables []model.Table
	if err := tx.Order("table_number asc").Find(&tables).Error; err != nil {
		return []model.Table{}, err
	}
	return tables, nil
}

func (r *TableGormRepository) FindByID(ctx context.Context, id int64) (model.Table, error) {
	var t model.Table
	err := r.db.WithContext(ctx).First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Table{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Table{}, err
	}
	return t, nil
}

func (r *TableGormRepository) FindByNumber(ctx context.Context, tableNumber string) (model.Table, error) {
	var t model.Table
	err := r.db.WithContext(ctx).Where("table_number = ?", tableNumber).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Table{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Table{}, err
	}
	return t, nil
}

func (r *TableGormRepository) Create(ctx context.Context, t model.Table) (model.Table, error) {
	if err := r.db.WithContext(ctx).Create(&t).Error; err != nil {
		return model.Table{}, err
	}
	return t, nil
}

func (r *TableGormRepository) Update(ctx context.Context, t model.Table) error {
	res := r.db.WithContext(ctx).Save(&t)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *TableGormRepository) UpdateStatus(ctx context.Context, id int64, status model.TableStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Table{}).
		Where("id = ?", id).
		Update("status", status)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *TableGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Table{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *TableGormRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []breakdownRow
	err := r.db.WithContext(ctx).Model(&model.Table{}).
		Select("status AS key, COUNT(*) AS count").
		Where("is_active = ?", true).
		Group("status").
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
