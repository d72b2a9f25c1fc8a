package handler

import (
	"net/http"
	"strconv"
	"time"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /notifications のAPI
type NotificationHandler struct {
	uc *usecase.NotificationUsecase
}

func NewNotificationHandler(uc *usecase.NotificationUsecase) *NotificationHandler {
	return &NotificationHandler{uc: uc}
}

func (h *NotificationHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/notifications")
	g.Use(middleware.AuthJWT(cfg))

	g.GET("", h.list)
	g.POST("", h.create)
	g.PATCH("/:id/read", h.markRead)
	g.POST("/read-all", h.markAllRead)
	g.DELETE("/:id", h.delete)
	g.DELETE("/expired", h.deleteExpired)
}

func (h *NotificationHandler) list(c echo.Context) error {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		}
		page = p
	}

	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		limit = l
	}

	var userID *int64
	if id, ok := getUserIDFromContext(c); ok && c.QueryParam("mine") == "true" {
		userID = &id
	}

	out, err := h.uc.List(c.Request().Context(), usecase.ListNotificationsInput{
		Page:       page,
		Limit:      limit,
		UnreadOnly: c.QueryParam("unread") == "true",
		Type:       c.QueryParam("type"),
		UserID:     userID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type NotificationCreateRequest struct {
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data"`
	UserID    *int64                 `json:"user_id"`
	Priority  string                 `json:"priority"`
	ExpiresAt *time.Time             `json:"expires_at"`
}

func (h *NotificationHandler) create(c echo.Context) error {
	var req NotificationCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Create(c.Request().Context(), usecase.CreateNotificationInput{
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		Data:      req.Data,
		UserID:    req.UserID,
		Priority:  req.Priority,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *NotificationHandler) markRead(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.MarkRead(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type MarkAllReadResponse struct {
	MarkedCount int64 `json:"marked_count"`
}

func (h *NotificationHandler) markAllRead(c echo.Context) error {
	var userID *int64
	if id, ok := getUserIDFromContext(c); ok && c.QueryParam("mine") == "true" {
		userID = &id
	}

	count, err := h.uc.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, MarkAllReadResponse{MarkedCount: count})
}

func (h *NotificationHandler) delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type DeleteExpiredResponse struct {
	DeletedCount int64 `json:"deleted_count"`
}

func (h *NotificationHandler) deleteExpired(c echo.Context) error {
	count, err := h.uc.DeleteExpired(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, DeleteExpiredResponse{DeletedCount: count})
}
