package handler

import (
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /tables のAPI
type TableHandler struct {
	uc *usecase.TableUsecase
}

func NewTableHandler(uc *usecase.TableUsecase) *TableHandler {
	return &TableHandler{uc: uc}
}

func (h *TableHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/tables")
	g.Use(middleware.AuthJWT(cfg))

	g.GET("", h.list)
	g.GET("/:id", h.detail)
	g.PATCH("/:id/status", h.updateStatus)

	w := g.Group("")
	w.Use(middleware.RoleGuard(string(model.RoleAdmin), string(model.RoleManager)))
	w.POST("", h.create)
	w.PUT("/:id", h.update)
	w.DELETE("/:id", h.delete)
}

func (h *TableHandler) list(c echo.Context) error {
	var active *bool
	if v := c.QueryParam("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid active"})
		}
		active = &b
	}

	out, err := h.uc.List(c.Request().Context(), usecase.ListTablesInput{
		Status:   c.QueryParam("status"),
		Location: c.QueryParam("location"),
		Active:   active,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *TableHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type TableCreateRequest struct {
	TableNumber string                 `json:"table_number"`
	Name        string                 `json:"name"`
	Capacity    int                    `json:"capacity"`
	Location    string                 `json:"location"`
	IsActive    bool                   `json:"is_active"`
	Metadata    map[string]interface{} `json:"metadata"`
}

func (h *TableHandler) create(c echo.Context) error {
	var req TableCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Create(c.Request().Context(), usecase.CreateTableInput{
		TableNumber: req.TableNumber,
		Name:        req.Name,
		Capacity:    req.Capacity,
		Location:    req.Location,
		IsActive:    req.IsActive,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

type TableUpdateRequest struct {
	Name     *string                `json:"name"`
	Capacity *int                   `json:"capacity"`
	Location *string                `json:"location"`
	IsActive *bool                  `json:"is_active"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (h *TableHandler) update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req TableUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Update(c.Request().Context(), id, usecase.UpdateTableInput{
		Name:     req.Name,
		Capacity: req.Capacity,
		Location: req.Location,
		IsActive: req.IsActive,
		Metadata: req.Metadata,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type TableStatusRequest struct {
	Status string `json:"status"`
}

func (h *TableHandler) updateStatus(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req TableStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), actor, id, req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *TableHandler) delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
