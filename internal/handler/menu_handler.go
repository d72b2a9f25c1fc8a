package handler

import (
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /menu のAPI。GET /menuだけ認証なしの公開エンドポイント。
type MenuHandler struct {
	uc *usecase.MenuUsecase
}

func NewMenuHandler(uc *usecase.MenuUsecase) *MenuHandler {
	return &MenuHandler{uc: uc}
}

func (h *MenuHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	e.GET("/menu", h.publicMenu)

	g := e.Group("/menu")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.RoleGuard(string(model.RoleAdmin), string(model.RoleManager)))

	g.GET("/categories", h.listCategories)
	g.POST("/categories", h.createCategory)
	g.PUT("/categories/:id", h.updateCategory)
	g.DELETE("/categories/:id", h.deleteCategory)

	g.POST("/items", h.createItem)
	g.PUT("/items/:id", h.updateItem)
	g.DELETE("/items/:id", h.deleteItem)
}

func (h *MenuHandler) publicMenu(c echo.Context) error {
	out, err := h.uc.PublicMenu(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *MenuHandler) listCategories(c echo.Context) error {
	out, err := h.uc.ListCategories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type MenuCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
	IsActive    bool   `json:"is_active"`
}

func (h *MenuHandler) createCategory(c echo.Context) error {
	var req MenuCategoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.CreateCategory(c.Request().Context(), usecase.MenuCategoryInput{
		Name:        req.Name,
		Description: req.Description,
		SortOrder:   req.SortOrder,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *MenuHandler) updateCategory(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req MenuCategoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateCategory(c.Request().Context(), id, usecase.MenuCategoryInput{
		Name:        req.Name,
		Description: req.Description,
		SortOrder:   req.SortOrder,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *MenuHandler) deleteCategory(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.DeleteCategory(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type MenuItemRequest struct {
	MenuCategoryID int64           `json:"menu_category_id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	IsAvailable    bool            `json:"is_available"`
	SortOrder      int             `json:"sort_order"`
}

func (h *MenuHandler) createItem(c echo.Context) error {
	var req MenuItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.CreateItem(c.Request().Context(), usecase.MenuItemInput{
		MenuCategoryID: req.MenuCategoryID,
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		IsAvailable:    req.IsAvailable,
		SortOrder:      req.SortOrder,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *MenuHandler) updateItem(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req MenuItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateItem(c.Request().Context(), id, usecase.MenuItemInput{
		MenuCategoryID: req.MenuCategoryID,
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		IsAvailable:    req.IsAvailable,
		SortOrder:      req.SortOrder,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *MenuHandler) deleteItem(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.DeleteItem(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
