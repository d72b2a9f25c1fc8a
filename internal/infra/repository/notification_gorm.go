package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type NotificationGormRepository struct {
	db *gorm.DB
}

func NewNotificationGormRepository(db *gorm.DB) *NotificationGormRepository {
	return &NotificationGormRepository{db: db}
}

func (r *NotificationGormRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationGormRepository) List(ctx context.Context, q repo.NotificationListQuery) ([]model.Notification, int64, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}

	tx := r.db.WithContext(ctx).Model(&model.Notification{})

	if q.UnreadOnly {
		tx = tx.Where("read = ?", false)
	}
	if q.Type != "" {
		tx = tx.Where("type = ?", q.Type)
	}
	if q.UserID != nil {
		tx = tx.Where("user_id = ? OR user_id IS NULL", *q.UserID)
	}

	//期限切れは出さない
	tx = tx.Where("expires_at IS NULL OR expires_at > ?", time.Now())

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return []model.Notification{}, 0, err
	}

	var items []model.Notification
	offset := (q.Page - 1) * q.Limit
	err := tx.Order("created_at desc").Limit(q.Limit).Offset(offset).Find(&items).Error
	if err != nil {
		return []model.Notification{}, 0, err
	}

	return items, total, nil
}

func (r *NotificationGormRepository) FindByID(ctx context.Context, id int64) (model.Notification, error) {
	var n model.Notification
	err := r.db.WithContext(ctx).First(&n, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Notification{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Notification{}, err
	}
	return n, nil
}

func (r *NotificationGormRepository) MarkRead(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ?", id).
		Update("read", true)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *NotificationGormRepository) MarkAllRead(ctx context.Context, userID *int64) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.Notification{}).Where("read = ?", false)
	if userID != nil {
		tx = tx.Where("user_id = ? OR user_id IS NULL", *userID)
	}

	res := tx.Update("read", true)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *NotificationGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Notification{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *NotificationGormRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Delete(&model.Notification{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *NotificationGormRepository) CountUnread(ctx context.Context, userID *int64) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.Notification{}).Where("read = ?", false)
	if userID != nil {
		tx = tx.Where("user_id = ? OR user_id IS NULL", *userID)
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
