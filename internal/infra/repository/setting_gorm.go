package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingGormRepository struct {
	db *gorm.DB
}

func NewSettingGormRepository(db *gorm.DB) *SettingGormRepository {
	return &SettingGormRepository{db: db}
}

func (r *SettingGormRepository) All(ctx context.Context) ([]model.Setting, error) {
	var settings []model.Setting
	if err := r.db.WithContext(ctx).Order("key asc").Find(&settings).Error; err != nil {
		return []model.Setting{}, err
	}
	return settings, nil
}

func (r *SettingGormRepository) Get(ctx context.Context, key string) (model.Setting, error) {
	var s model.Setting
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Setting{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Setting{}, err
	}
	return s, nil
}

func (r *SettingGormRepository) Upsert(ctx context.Context, key string, value []byte) error {
	s := model.Setting{Key: key, Value: value}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&s).Error
}
