package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type NotificationListQuery struct {
	Page       int
	Limit      int
	UnreadOnly bool
	Type       string
	UserID     *int64
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	List(ctx context.Context, q NotificationListQuery) ([]model.Notification, int64, error)
	FindByID(ctx context.Context, id int64) (model.Notification, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context, userID *int64) (int64, error)
	Delete(ctx context.Context, id int64) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	CountUnread(ctx context.Context, userID *int64) (int64, error)
}
