package usecase_test

import (
	"context"
	"strings"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTableFixture() (*TxManagerMock, *TableRepoMock, *OrderRepoMock) {
	tx := new(TxManagerMock)
	tables := new(TableRepoMock)
	orders := new(OrderRepoMock)

	tx.Repos = &TxReposMock{
		orders:   orders,
		tables:   tables,
		products: new(ProductRepoMock),
	}
	tx.On("WithinTx", mock.Anything).Return(nil).Maybe()

	return tx, tables, orders
}

// =====================
// Create tests
// =====================

func TestTableUsecase_Create_DuplicateNumber(t *testing.T) {
	ctx := context.Background()
	tx, tables, orders := newTableFixture()

	tables.On("FindByNumber", mock.Anything, "T-01").Return(model.Table{ID: 1, TableNumber: "T-01"}, nil)

	uc := usecase.NewTableUsecase(tx, tables, orders)

	_, err := uc.Create(ctx, usecase.CreateTableInput{TableNumber: "T-01", Capacity: 4})
	assertErrContains(t, err, "table number already exists")

	tables.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTableUsecase_Create_GeneratesQRCode(t *testing.T) {
	ctx := context.Background()
	tx, tables, orders := newTableFixture()

	tables.On("FindByNumber", mock.Anything, "T-02").Return(model.Table{}, repo.ErrNotFound)
	tables.On("Create", mock.Anything, mock.MatchedBy(func(tbl model.Table) bool {
		return tbl.Status == model.TableStatusAvailable &&
			strings.HasPrefix(tbl.QRCode, "TABLE-") &&
			len(tbl.QRCode) == len("TABLE-")+10
	})).Return(model.Table{ID: 2, TableNumber: "T-02"}, nil)

	uc := usecase.NewTableUsecase(tx, tables, orders)

	created, err := uc.Create(ctx, usecase.CreateTableInput{TableNumber: "T-02", Capacity: 2, IsActive: true})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), created.ID)

	tables.AssertExpectations(t)
}

func TestTableUsecase_Create_InvalidCapacity(t *testing.T) {
	tx, tables, orders := newTableFixture()
	uc := usecase.NewTableUsecase(tx, tables, orders)

	_, err := uc.Create(context.Background(), usecase.CreateTableInput{TableNumber: "T-03", Capacity: 0})
	assertErrContains(t, err, "capacity must be >= 1")
}

// =====================
// UpdateStatus tests
// =====================

func TestTableUsecase_UpdateStatus_SameStatusNoOp(t *testing.T) {
	ctx := context.Background()
	tx, tables, orders := newTableFixture()

	tables.On("FindByID", mock.Anything, int64(1)).Return(model.Table{ID: 1, Status: model.TableStatusOccupied}, nil)

	uc := usecase.NewTableUsecase(tx, tables, orders)

	out, err := uc.UpdateStatus(ctx, usecase.Actor{Role: model.RoleStaff}, 1, "occupied")
	assert.NoError(t, err)
	assert.Equal(t, model.TableStatusOccupied, out.Status)

	tables.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestTableUsecase_UpdateStatus_ActiveOrders_StaffRejected(t *testing.T) {
	ctx := context.Background()
	tx, tables, orders := newTableFixture()

	tables.On("FindByID", mock.Anything, int64(1)).Return(model.Table{ID: 1, Status: model.TableStatusOccupied}, nil)
	orders.On("ListActiveByTable", mock.Anything, int64(1)).Return([]model.Order{{ID: 5}}, nil)

	uc := usecase.NewTableUsecase(tx, tables, orders)

	_, err := uc.UpdateStatus(ctx, usecase.Actor{Role: model.RoleStaff}, 1, "available")
	assertErrContains(t, err, "cannot make table available while it has active orders")

	tables.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

// 権限のある操作者は稼働中注文を完了させてから解放する
func TestTableUsecase_UpdateStatus_ActiveOrders_ManagerForceRelease(t *testing.T) {
	ctx := context.Background()
	tx, tables, orders := newTableFixture()

	tableID := int64(1)

	occupied := model.Table{ID: tableID, Status: model.TableStatusOccupied}
	freed := model.Table{ID: tableID, Status: model.TableStatusAvailable}
	tables.On("FindByID", mock.Anything, tableID).Return(occupied, nil).Once()

	active := []model.Order{
		{
			ID:          5,
			Status:      model.OrderStatusServed,
			OrderType:   model.OrderTypeDineIn,
			TableID:     &tableID,
			TotalAmount: decimal.RequireFromString("13.80"),
			Items:       []model.OrderItem{{ProductID: 1, Quantity: 1}},
		},
	}
	orders.On("ListActiveByTable", mock.Anything, tableID).Return(active, nil)

	//completedへの遷移がテーブルを解放する
	tables.On("UpdateStatus", mock.Anything, tableID, model.TableStatusAvailable).Return(nil)
	orders.On("Save", mock.Anything, mock.MatchedBy(func(o *model.Order) bool {
		return o.ID == 5 && o.Status == model.OrderStatusCompleted && o.CompletedAt != nil
	})).Return(nil)

	tables.On("FindByID", mock.Anything, tableID).Return(freed, nil).Once()

	uc := usecase.NewTableUsecase(tx, tables, orders)

	out, err := uc.UpdateStatus(ctx, usecase.Actor{Role: model.RoleManager}, tableID, "available")
	assert.NoError(t, err)
	assert.Equal(t, model.TableStatusAvailable, out.Status)

	tables.AssertExpectations(t)
	orders.AssertExpectations(t)
}

func TestTableUsecase_UpdateStatus_NoActiveOrders(t *testing.T) {
	ctx := context.Background()
	tx, tables, orders := newTableFixture()

	tables.On("FindByID", mock.Anything, int64(1)).Return(model.Table{ID: 1, Status: model.TableStatusOccupied}, nil)
	orders.On("ListActiveByTable", mock.Anything, int64(1)).Return([]model.Order{}, nil)
	tables.On("UpdateStatus", mock.Anything, int64(1), model.TableStatusAvailable).Return(nil)

	uc := usecase.NewTableUsecase(tx, tables, orders)

	out, err := uc.UpdateStatus(ctx, usecase.Actor{Role: model.RoleStaff}, 1, "available")
	assert.NoError(t, err)
	assert.Equal(t, model.TableStatusAvailable, out.Status)

	tables.AssertExpectations(t)
}

func TestTableUsecase_UpdateStatus_InvalidStatus(t *testing.T) {
	tx, tables, orders := newTableFixture()
	uc := usecase.NewTableUsecase(tx, tables, orders)

	_, err := uc.UpdateStatus(context.Background(), usecase.Actor{Role: model.RoleAdmin}, 1, "closed")
	assertErrContains(t, err, "invalid status")
}

// =====================
// Delete tests
// =====================

func TestTableUsecase_Delete_ReferencedByOrders(t *testing.T) {
	ctx := context.Background()
	tx, tables, orders := newTableFixture()

	tables.On("FindByID", mock.Anything, int64(1)).Return(model.Table{ID: 1}, nil)
	orders.On("ExistsByTable", mock.Anything, int64(1)).Return(true, nil)

	uc := usecase.NewTableUsecase(tx, tables, orders)

	err := uc.Delete(ctx, 1)
	assertErrContains(t, err, "table is referenced by orders")

	tables.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestTableUsecase_Delete_OK(t *testing.T) {
	ctx := context.Background()
	tx, tables, orders := newTableFixture()

	tables.On("FindByID", mock.Anything, int64(1)).Return(model.Table{ID: 1}, nil)
	orders.On("ExistsByTable", mock.Anything, int64(1)).Return(false, nil)
	tables.On("Delete", mock.Anything, int64(1)).Return(nil)

	uc := usecase.NewTableUsecase(tx, tables, orders)

	assert.NoError(t, uc.Delete(ctx, 1))
	tables.AssertExpectations(t)
}
