package usecase_test

import (
	"context"
	"testing"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Today tests
// =====================

func TestOrderQueryUsecase_Today_Revenue(t *testing.T) {
	ctx := context.Background()
	orders := new(OrderRepoMock)
	tables := new(TableRepoMock)

	orders.On("ListToday", mock.Anything, "").Return([]model.Order{
		{ID: 1, Status: model.OrderStatusCompleted, TotalAmount: decimal.RequireFromString("13.80")},
		{ID: 2, Status: model.OrderStatusPending, TotalAmount: decimal.RequireFromString("6.20")},
	}, nil)

	uc := usecase.NewOrderQueryUsecase(orders, tables)

	out, err := uc.Today(ctx, "")
	assert.NoError(t, err)
	assert.Equal(t, 2, out.TotalOrders)
	assert.Equal(t, 1, out.CompletedOrders)
	assert.Equal(t, "20.00", out.TotalRevenue)
	assert.Equal(t, time.Now().Format("2006-01-02"), out.Date)
}

// =====================
// List tests
// =====================

func TestOrderQueryUsecase_List_ClampsPaging(t *testing.T) {
	ctx := context.Background()
	orders := new(OrderRepoMock)
	tables := new(TableRepoMock)

	orders.On("List", mock.Anything, mock.MatchedBy(func(f repo.OrderListFilter) bool {
		return f.Page == 1 && f.Limit == 15
	})).Return([]model.Order{}, int64(0), nil)
	orders.On("ListMeta", mock.Anything).Return(repo.OrderListMeta{}, nil)

	uc := usecase.NewOrderQueryUsecase(orders, tables)

	out, err := uc.List(ctx, repo.OrderListFilter{Page: -3, Limit: 9999})
	assert.NoError(t, err)
	assert.Equal(t, 1, out.Page)
	assert.Equal(t, 15, out.Limit)

	orders.AssertExpectations(t)
}

// =====================
// ByTable tests
// =====================

func TestOrderQueryUsecase_ByTable_UnknownTable(t *testing.T) {
	ctx := context.Background()
	orders := new(OrderRepoMock)
	tables := new(TableRepoMock)

	tables.On("FindByID", mock.Anything, int64(9)).Return(model.Table{}, repo.ErrNotFound)

	uc := usecase.NewOrderQueryUsecase(orders, tables)

	_, err := uc.ByTable(ctx, 9, repo.OrderListFilter{})
	assertErrContains(t, err, "table not found")

	orders.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestOrderQueryUsecase_ByTable_ScopesFilter(t *testing.T) {
	ctx := context.Background()
	orders := new(OrderRepoMock)
	tables := new(TableRepoMock)

	tables.On("FindByID", mock.Anything, int64(3)).Return(model.Table{ID: 3, TableNumber: "T-03"}, nil)
	orders.On("List", mock.Anything, mock.MatchedBy(func(f repo.OrderListFilter) bool {
		return f.TableID != nil && *f.TableID == 3
	})).Return([]model.Order{{ID: 1}}, int64(1), nil)

	uc := usecase.NewOrderQueryUsecase(orders, tables)

	out, err := uc.ByTable(ctx, 3, repo.OrderListFilter{})
	assert.NoError(t, err)
	assert.Equal(t, int64(3), out.Table.ID)
	assert.Len(t, out.Items, 1)
}

// =====================
// Sync tests
// =====================

func TestOrderQueryUsecase_Sync_InvalidTimestamp(t *testing.T) {
	uc := usecase.NewOrderQueryUsecase(new(OrderRepoMock), new(TableRepoMock))

	_, err := uc.Sync(context.Background(), "yesterday")
	assertErrContains(t, err, "invalid last_sync")
}

func TestOrderQueryUsecase_Sync_FullAndIncremental(t *testing.T) {
	ctx := context.Background()
	orders := new(OrderRepoMock)

	//last_syncなしは全件側（since=nil）
	orders.On("ListUpdatedSince", mock.Anything, (*time.Time)(nil), 50).Return([]model.Order{{ID: 1}}, nil).Once()

	since := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	orders.On("ListUpdatedSince", mock.Anything, &since, 50).Return([]model.Order{}, nil).Once()

	uc := usecase.NewOrderQueryUsecase(orders, new(TableRepoMock))

	out, err := uc.Sync(ctx, "")
	assert.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.False(t, out.SyncTimestamp.IsZero())

	_, err = uc.Sync(ctx, since.Format(time.RFC3339))
	assert.NoError(t, err)

	orders.AssertExpectations(t)
}
