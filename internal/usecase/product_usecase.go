package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

type ProductUsecase struct {
	productRepo   repo.ProductRepository
	inventoryRepo repo.InventoryRepository
	orderItemRepo repo.OrderItemRepository
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	inventoryRepo repo.InventoryRepository,
	orderItemRepo repo.OrderItemRepository,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		orderItemRepo: orderItemRepo,
	}
}

type ListProductsInput struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	Active     *bool
	Sort       string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) List(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 15
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	switch in.Sort {
	case "", "new", "name", "price_asc", "price_desc":
	default:
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	items, total, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Page:       in.Page,
		Limit:      in.Limit,
		Q:          strings.TrimSpace(in.Q),
		CategoryID: in.CategoryID,
		Active:     in.Active,
		Sort:       in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *ProductUsecase) Get(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

func (u *ProductUsecase) LowStock(ctx context.Context) ([]model.Product, error) {
	items, err := u.productRepo.ListLowStock(ctx)
	if err != nil {
		return []model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

type CreateProductInput struct {
	CategoryID        *int64
	Name              string
	Description       string
	SKU               string
	Barcode           string
	Price             decimal.Decimal
	Cost              decimal.Decimal
	Unit              string
	PreparationTime   int
	StockQuantity     int64
	LowStockThreshold int64
	TrackStock        bool
	IsActive          bool
	Images            []string
	Metadata          map[string]interface{}
}

func (u *ProductUsecase) Create(ctx context.Context, in CreateProductInput) (model.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 255 {
		return model.Product{}, NewHTTPError(http.StatusUnprocessableEntity, "invalid name")
	}
	if in.Price.IsNegative() || in.Cost.IsNegative() {
		return model.Product{}, NewHTTPError(http.StatusUnprocessableEntity, "price and cost must be >= 0")
	}
	if in.StockQuantity < 0 || in.LowStockThreshold < 0 {
		return model.Product{}, NewHTTPError(http.StatusUnprocessableEntity, "stock must be >= 0")
	}

	//slug/SKUは作成時にここで決める（保存側の暗黙フックには頼らない）
	sku := strings.TrimSpace(in.SKU)
	if sku == "" {
		sku = NewSKU()
	}

	p := model.Product{
		CategoryID:        in.CategoryID,
		Name:              name,
		Slug:              u.uniqueSlug(ctx, name),
		Description:       in.Description,
		SKU:               sku,
		Barcode:           strings.TrimSpace(in.Barcode),
		Price:             in.Price,
		Cost:              in.Cost,
		Unit:              in.Unit,
		PreparationTime:   in.PreparationTime,
		StockQuantity:     in.StockQuantity,
		LowStockThreshold: in.LowStockThreshold,
		TrackStock:        in.TrackStock,
		IsActive:          in.IsActive,
		Metadata:          in.Metadata,
	}
	if len(in.Images) > 0 {
		raw, err := json.Marshal(in.Images)
		if err != nil {
			return model.Product{}, NewHTTPError(http.StatusUnprocessableEntity, "invalid images")
		}
		p.Images = raw
	}

	created, err := u.productRepo.Create(ctx, p)
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

type UpdateProductInput struct {
	CategoryID        *int64
	Name              *string
	Description       *string
	Barcode           *string
	Price             *decimal.Decimal
	Cost              *decimal.Decimal
	Unit              *string
	PreparationTime   *int
	LowStockThreshold *int64
	TrackStock        *bool
	IsActive          *bool
	Images            *[]string
	Metadata          map[string]interface{}
}

func (u *ProductUsecase) Update(ctx context.Context, productID int64, in UpdateProductInput) (model.Product, error) {
	p, err := u.Get(ctx, productID)
	if err != nil {
		return model.Product{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" || len(name) > 255 {
			return model.Product{}, NewHTTPError(http.StatusUnprocessableEntity, "invalid name")
		}
		p.Name = name
	}
	if in.CategoryID != nil {
		p.CategoryID = in.CategoryID
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Barcode != nil {
		p.Barcode = strings.TrimSpace(*in.Barcode)
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return model.Product{}, NewHTTPError(http.StatusUnprocessableEntity, "price must be >= 0")
		}
		p.Price = *in.Price
	}
	if in.Cost != nil {
		if in.Cost.IsNegative() {
			return model.Product{}, NewHTTPError(http.StatusUnprocessableEntity, "cost must be >= 0")
		}
		p.Cost = *in.Cost
	}
	if in.Unit != nil {
		p.Unit = *in.Unit
	}
	if in.PreparationTime != nil {
		p.PreparationTime = *in.PreparationTime
	}
	if in.LowStockThreshold != nil {
		p.LowStockThreshold = *in.LowStockThreshold
	}
	if in.TrackStock != nil {
		p.TrackStock = *in.TrackStock
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.Images != nil {
		raw, err := json.Marshal(*in.Images)
		if err != nil {
			return model.Product{}, NewHTTPError(http.StatusUnprocessableEntity, "invalid images")
		}
		p.Images = raw
	}
	if in.Metadata != nil {
		p.Metadata = in.Metadata
	}

	if err := u.productRepo.Update(ctx, p); err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

// 注文明細から参照されている商品は消せない
func (u *ProductUsecase) Delete(ctx context.Context, productID int64) error {
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	referenced, err := u.orderItemRepo.ExistsByProduct(ctx, productID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if referenced {
		return NewHTTPError(http.StatusConflict, "product is referenced by orders")
	}

	err = u.productRepo.SoftDelete(ctx, productID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 在庫の現在値を直接セット（棚卸し用）
func (u *ProductUsecase) SetStock(ctx context.Context, productID int64, newStock int64) (model.Product, error) {
	if newStock < 0 {
		return model.Product{}, NewHTTPError(http.StatusUnprocessableEntity, "stock must be >= 0")
	}

	if _, err := u.Get(ctx, productID); err != nil {
		return model.Product{}, err
	}

	if err := u.inventoryRepo.SetStock(ctx, productID, newStock); err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.Get(ctx, productID)
}

// name由来のslug。衝突したらuuidの先頭を足す。
func (u *ProductUsecase) uniqueSlug(ctx context.Context, name string) string {
	slug := Slugify(name)
	if _, err := u.productRepo.FindBySlug(ctx, slug); err == repo.ErrNotFound {
		return slug
	}
	return slug + "-" + shortID()
}

// PRD-XXXXXXXX形式のSKU
func NewSKU() string {
	return "PRD-" + strings.ToUpper(shortID())
}

func shortID() string {
	return newToken(8)
}

// uuid由来のn文字トークン（ハイフン抜き）
func newToken(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

// 小文字・ハイフン区切りへ正規化
func Slugify(s string) string {
	var b strings.Builder
	prevDash := true //先頭のハイフンを防ぐ

	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
