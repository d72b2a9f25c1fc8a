package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type NotificationUsecase struct {
	notificationRepo repo.NotificationRepository
	broadcaster      NotificationBroadcaster //nilなら配信しない
}

func NewNotificationUsecase(notificationRepo repo.NotificationRepository, broadcaster NotificationBroadcaster) *NotificationUsecase {
	return &NotificationUsecase{notificationRepo: notificationRepo, broadcaster: broadcaster}
}

type ListNotificationsInput struct {
	Page       int
	Limit      int
	UnreadOnly bool
	Type       string
	UserID     *int64
}

type NotificationListOutput struct {
	Items       []model.Notification `json:"items"`
	Total       int64                `json:"total"`
	UnreadCount int64                `json:"unread_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
}

func (u *NotificationUsecase) List(ctx context.Context, in ListNotificationsInput) (NotificationListOutput, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 20
	}

	items, total, err := u.notificationRepo.List(ctx, repo.NotificationListQuery{
		Page:       in.Page,
		Limit:      in.Limit,
		UnreadOnly: in.UnreadOnly,
		Type:       in.Type,
		UserID:     in.UserID,
	})
	if err != nil {
		return NotificationListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	unread, err := u.notificationRepo.CountUnread(ctx, in.UserID)
	if err != nil {
		return NotificationListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return NotificationListOutput{
		Items:       items,
		Total:       total,
		UnreadCount: unread,
		Page:        in.Page,
		Limit:       in.Limit,
	}, nil
}

type CreateNotificationInput struct {
	Type      string
	Title     string
	Message   string
	Data      map[string]interface{}
	UserID    *int64
	Priority  string
	ExpiresAt *time.Time
}

func (u *NotificationUsecase) Create(ctx context.Context, in CreateNotificationInput) (model.Notification, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || len(title) > 255 {
		return model.Notification{}, NewHTTPError(http.StatusUnprocessableEntity, "invalid title")
	}
	if strings.TrimSpace(in.Type) == "" {
		return model.Notification{}, NewHTTPError(http.StatusUnprocessableEntity, "type is required")
	}

	priority := model.NotificationPriority(in.Priority)
	switch priority {
	case "":
		priority = model.NotificationPriorityMedium
	case model.NotificationPriorityLow, model.NotificationPriorityMedium, model.NotificationPriorityHigh:
	default:
		return model.Notification{}, NewHTTPError(http.StatusUnprocessableEntity, "invalid priority")
	}

	n := model.Notification{
		Type:      strings.TrimSpace(in.Type),
		Title:     title,
		Message:   in.Message,
		Data:      in.Data,
		UserID:    in.UserID,
		Priority:  priority,
		ExpiresAt: in.ExpiresAt,
	}

	if err := u.notificationRepo.Create(ctx, &n); err != nil {
		return model.Notification{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if u.broadcaster != nil {
		u.broadcaster.Broadcast(ctx, n)
	}
	return n, nil
}

func (u *NotificationUsecase) MarkRead(ctx context.Context, notificationID int64) error {
	if _, err := u.notificationRepo.FindByID(ctx, notificationID); err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "notification not found")
	} else if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.notificationRepo.MarkRead(ctx, notificationID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *NotificationUsecase) MarkAllRead(ctx context.Context, userID *int64) (int64, error) {
	count, err := u.notificationRepo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return count, nil
}

func (u *NotificationUsecase) Delete(ctx context.Context, notificationID int64) error {
	if _, err := u.notificationRepo.FindByID(ctx, notificationID); err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "notification not found")
	} else if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.notificationRepo.Delete(ctx, notificationID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 期限切れ通知の一括削除。削除件数を返す。
func (u *NotificationUsecase) DeleteExpired(ctx context.Context) (int64, error) {
	count, err := u.notificationRepo.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return count, nil
}
