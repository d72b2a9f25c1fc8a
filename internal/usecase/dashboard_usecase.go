package usecase

import (
	"context"
	"net/http"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// 管理画面トップの集計。軽い読み取りだけで組み立てる。
type DashboardUsecase struct {
	orderRepo   repo.OrderRepository
	productRepo repo.ProductRepository
	tableRepo   repo.TableRepository
}

func NewDashboardUsecase(
	orderRepo repo.OrderRepository,
	productRepo repo.ProductRepository,
	tableRepo repo.TableRepository,
) *DashboardUsecase {
	return &DashboardUsecase{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		tableRepo:   tableRepo,
	}
}

type DashboardOutput struct {
	Today           repo.OrderStats  `json:"today"`
	StatusBreakdown map[string]int64 `json:"status_breakdown"`
	TypeBreakdown   map[string]int64 `json:"type_breakdown"`
	Tables          map[string]int64 `json:"tables"`
	LowStock        []model.Product  `json:"low_stock"`
}

func (u *DashboardUsecase) Summary(ctx context.Context) (DashboardOutput, error) {
	now := time.Now()
	from := startOfDay(now)
	to := from.AddDate(0, 0, 1)

	today, err := u.orderRepo.StatsRange(ctx, from, to)
	if err != nil {
		return DashboardOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	statusBreakdown, err := u.orderRepo.StatusBreakdown(ctx, from, to)
	if err != nil {
		return DashboardOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	typeBreakdown, err := u.orderRepo.TypeBreakdown(ctx, from, to)
	if err != nil {
		return DashboardOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	tables, err := u.tableRepo.CountByStatus(ctx)
	if err != nil {
		return DashboardOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	lowStock, err := u.productRepo.ListLowStock(ctx)
	if err != nil {
		return DashboardOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return DashboardOutput{
		Today:           today,
		StatusBreakdown: statusBreakdown,
		TypeBreakdown:   typeBreakdown,
		Tables:          tables,
		LowStock:        lowStock,
	}, nil
}
