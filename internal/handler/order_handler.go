package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"app/internal/config"
	"app/internal/middleware"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /orders のAPI。書き込みはOrderUsecase、読み取りはOrderQueryUsecase。
type OrderHandler struct {
	uc    *usecase.OrderUsecase
	query *usecase.OrderQueryUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase, query *usecase.OrderQueryUsecase) *OrderHandler {
	return &OrderHandler{uc: uc, query: query}
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(cfg))

	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/today", h.today)
	g.GET("/stats", h.stats)
	g.GET("/sync", h.sync)
	g.GET("/table/:tableId", h.byTable)
	g.POST("/bulk", h.bulkUpdate)

	g.GET("/:id", h.detail)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.PATCH("/:id/status", h.updateStatus)
	g.POST("/:id/payment", h.addPayment)
	g.PATCH("/:id/items/:itemId", h.updateItemQuantity)
}

type OrderItemRequest struct {
	ProductID      int64                  `json:"product_id"`
	Quantity       int64                  `json:"quantity"`
	UnitPrice      *decimal.Decimal       `json:"unit_price"`
	Customizations map[string]interface{} `json:"customizations"`
	Notes          string                 `json:"notes"`
}

type OrderCreateRequest struct {
	TableID             *int64                 `json:"table_id"`
	CustomerName        string                 `json:"customer_name"`
	CustomerPhone       string                 `json:"customer_phone"`
	CustomerEmail       string                 `json:"customer_email"`
	OrderType           string                 `json:"order_type"`
	PaymentMethod       string                 `json:"payment_method"`
	Notes               string                 `json:"notes"`
	SpecialInstructions string                 `json:"special_instructions"`
	Metadata            map[string]interface{} `json:"metadata"`
	Items               []OrderItemRequest     `json:"items"`
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	items := make([]usecase.CreateOrderItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, usecase.CreateOrderItemInput{
			ProductID:      it.ProductID,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			Customizations: it.Customizations,
			Notes:          it.Notes,
		})
	}

	out, err := h.uc.Create(c.Request().Context(), &userID, usecase.CreateOrderInput{
		TableID:             req.TableID,
		CustomerName:        req.CustomerName,
		CustomerPhone:       req.CustomerPhone,
		CustomerEmail:       req.CustomerEmail,
		OrderType:           req.OrderType,
		PaymentMethod:       req.PaymentMethod,
		Notes:               req.Notes,
		SpecialInstructions: req.SpecialInstructions,
		Metadata:            req.Metadata,
		Items:               items,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) list(c echo.Context) error {
	f, err := parseOrderFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	out, err := h.query.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.query.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) today(c echo.Context) error {
	out, err := h.query.Today(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) stats(c echo.Context) error {
	out, err := h.query.Stats(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) sync(c echo.Context) error {
	out, err := h.query.Sync(c.Request().Context(), c.QueryParam("last_sync"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) byTable(c echo.Context) error {
	tableID, err := strconv.ParseInt(c.Param("tableId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid table id"})
	}

	f, err := parseOrderFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	out, err := h.query.ByTable(c.Request().Context(), tableID, f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type OrderUpdateRequest struct {
	CustomerName        *string `json:"customer_name"`
	CustomerPhone       *string `json:"customer_phone"`
	CustomerEmail       *string `json:"customer_email"`
	Notes               *string `json:"notes"`
	SpecialInstructions *string `json:"special_instructions"`
}

func (h *OrderHandler) update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req OrderUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Update(c.Request().Context(), id, usecase.UpdateOrderInput{
		CustomerName:        req.CustomerName,
		CustomerPhone:       req.CustomerPhone,
		CustomerEmail:       req.CustomerEmail,
		Notes:               req.Notes,
		SpecialInstructions: req.SpecialInstructions,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type OrderStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) updateStatus(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req OrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type OrderPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
}

func (h *OrderHandler) addPayment(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req OrderPaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.AddPayment(c.Request().Context(), id, req.Amount, req.Method)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type ItemQuantityRequest struct {
	Quantity int64 `json:"quantity"`
}

func (h *OrderHandler) updateItemQuantity(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}
	itemID, err := strconv.ParseInt(c.Param("itemId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid item id"})
	}

	var req ItemQuantityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateItemQuantity(c.Request().Context(), id, itemID, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type BulkOrderEntry struct {
	ID            int64  `json:"id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	PaymentMethod string `json:"payment_method"`
}

type BulkUpdateRequest struct {
	Orders []BulkOrderEntry `json:"orders"`
}

type BulkUpdateResponse struct {
	UpdatedCount int `json:"updated_count"`
}

func (h *OrderHandler) bulkUpdate(c echo.Context) error {
	var req BulkUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	entries := make([]usecase.BulkUpdateEntry, 0, len(req.Orders))
	for _, e := range req.Orders {
		entries = append(entries, usecase.BulkUpdateEntry{
			ID:            e.ID,
			Status:        e.Status,
			PaymentStatus: e.PaymentStatus,
			PaymentMethod: e.PaymentMethod,
		})
	}

	count, err := h.uc.BulkUpdate(c.Request().Context(), entries)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, BulkUpdateResponse{UpdatedCount: count})
}

// クエリパラメータから一覧フィルタを組み立てる
func parseOrderFilter(c echo.Context) (repo.OrderListFilter, error) {
	var f repo.OrderListFilter

	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return f, errors.New("invalid page")
		}
		f.Page = p
	}
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return f, errors.New("invalid limit")
		}
		f.Limit = l
	}

	f.Status = c.QueryParam("status")
	f.OrderType = c.QueryParam("order_type")
	f.PaymentStatus = c.QueryParam("payment_status")
	f.Search = c.QueryParam("search")
	f.SortBy = c.QueryParam("sort_by")
	f.SortOrder = c.QueryParam("sort_order")

	if v := c.QueryParam("table_id"); v != "" {
		x, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, errors.New("invalid table_id")
		}
		f.TableID = &x
	}
	if v := c.QueryParam("user_id"); v != "" {
		x, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, errors.New("invalid user_id")
		}
		f.UserID = &x
	}
	if v := c.QueryParam("date_from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, errors.New("invalid date_from")
		}
		f.DateFrom = &t
	}
	if v := c.QueryParam("date_to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, errors.New("invalid date_to")
		}
		end := t.AddDate(0, 0, 1)
		f.DateTo = &end
	}

	return f, nil
}
