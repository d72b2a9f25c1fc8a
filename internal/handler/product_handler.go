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

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// /products のAPI
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// 商品ルートを登録。参照は認証のみ、書き込みはadmin/manager。
func (h *ProductHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/products")
	g.Use(middleware.AuthJWT(cfg))

	g.GET("", h.list)
	g.GET("/low-stock", h.lowStock)
	g.GET("/:id", h.detail)

	w := g.Group("")
	w.Use(middleware.RoleGuard(string(model.RoleAdmin), string(model.RoleManager)))
	w.POST("", h.create)
	w.PUT("/:id", h.update)
	w.DELETE("/:id", h.delete)
	w.PATCH("/:id/stock", h.setStock)
}

func (h *ProductHandler) list(c echo.Context) error {
	// page（default 1）
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		}
		page = p
	}

	// limit（default 15）
	limit := 15
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		limit = l
	}

	var categoryID *int64
	if v := c.QueryParam("category_id"); v != "" {
		x, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid category_id"})
		}
		categoryID = &x
	}

	var active *bool
	if v := c.QueryParam("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid active"})
		}
		active = &b
	}

	out, err := h.uc.List(c.Request().Context(), usecase.ListProductsInput{
		Page:       page,
		Limit:      limit,
		Q:          c.QueryParam("q"),
		CategoryID: categoryID,
		Active:     active,
		Sort:       c.QueryParam("sort"),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	p, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) lowStock(c echo.Context) error {
	items, err := h.uc.LowStock(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

type ProductCreateRequest struct {
	CategoryID        *int64          `json:"category_id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	SKU               string          `json:"sku"`
	Barcode           string          `json:"barcode"`
	Price             decimal.Decimal `json:"price"`
	Cost              decimal.Decimal `json:"cost"`
	Unit              string          `json:"unit"`
	PreparationTime   int             `json:"preparation_time"`
	StockQuantity     int64           `json:"stock_quantity"`
	LowStockThreshold int64           `json:"low_stock_threshold"`
	TrackStock        bool            `json:"track_stock"`
	IsActive          bool            `json:"is_active"`

	Images   []string               `json:"images"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (h *ProductHandler) create(c echo.Context) error {
	var req ProductCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	p, err := h.uc.Create(c.Request().Context(), usecase.CreateProductInput{
		CategoryID:        req.CategoryID,
		Name:              req.Name,
		Description:       req.Description,
		SKU:               req.SKU,
		Barcode:           req.Barcode,
		Price:             req.Price,
		Cost:              req.Cost,
		Unit:              req.Unit,
		PreparationTime:   req.PreparationTime,
		StockQuantity:     req.StockQuantity,
		LowStockThreshold: req.LowStockThreshold,
		TrackStock:        req.TrackStock,
		IsActive:          req.IsActive,
		Images:            req.Images,
		Metadata:          req.Metadata,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, p)
}

type ProductUpdateRequest struct {
	CategoryID        *int64           `json:"category_id"`
	Name              *string          `json:"name"`
	Description       *string          `json:"description"`
	Barcode           *string          `json:"barcode"`
	Price             *decimal.Decimal `json:"price"`
	Cost              *decimal.Decimal `json:"cost"`
	Unit              *string          `json:"unit"`
	PreparationTime   *int             `json:"preparation_time"`
	LowStockThreshold *int64           `json:"low_stock_threshold"`
	TrackStock        *bool            `json:"track_stock"`
	IsActive          *bool            `json:"is_active"`

	Images   *[]string              `json:"images"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (h *ProductHandler) update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req ProductUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	p, err := h.uc.Update(c.Request().Context(), id, usecase.UpdateProductInput{
		CategoryID:        req.CategoryID,
		Name:              req.Name,
		Description:       req.Description,
		Barcode:           req.Barcode,
		Price:             req.Price,
		Cost:              req.Cost,
		Unit:              req.Unit,
		PreparationTime:   req.PreparationTime,
		LowStockThreshold: req.LowStockThreshold,
		TrackStock:        req.TrackStock,
		IsActive:          req.IsActive,
		Images:            req.Images,
		Metadata:          req.Metadata,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type StockUpdateRequest struct {
	StockQuantity int64 `json:"stock_quantity"`
}

func (h *ProductHandler) setStock(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req StockUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	p, err := h.uc.SetStock(c.Request().Context(), id, req.StockQuantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}
	return id, id > 0
}

// JWTクレームからActorを組み立てる
func actorFromContext(c echo.Context) (usecase.Actor, bool) {
	id, ok := getUserIDFromContext(c)
	if !ok {
		return usecase.Actor{}, false
	}

	role, ok := c.Get(middleware.CtxUserRoleKey).(string)
	if !ok || role == "" {
		return usecase.Actor{}, false
	}

	return usecase.Actor{UserID: id, Role: model.Role(role)}, true
}
