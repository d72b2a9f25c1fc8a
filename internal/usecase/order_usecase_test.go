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

func newOrderFixture() (*TxManagerMock, *OrderRepoMock, *OrderItemRepoMock, *ProductRepoMock, *InventoryRepoMock, *TableRepoMock, *NotificationRepoMock) {
	tx := new(TxManagerMock)
	orders := new(OrderRepoMock)
	items := new(OrderItemRepoMock)
	products := new(ProductRepoMock)
	inventory := new(InventoryRepoMock)
	tables := new(TableRepoMock)
	notifications := new(NotificationRepoMock)

	tx.Repos = &TxReposMock{
		orders:        orders,
		orderItems:    items,
		products:      products,
		inventory:     inventory,
		tables:        tables,
		notifications: notifications,
	}
	tx.On("WithinTx", mock.Anything).Return(nil).Maybe()

	return tx, orders, items, products, inventory, tables, notifications
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// =====================
// Create tests
// =====================

func TestOrderUsecase_Create_InvalidOrderType(t *testing.T) {
	tx, _, _, _, _, _, _ := newOrderFixture()
	uc := usecase.NewOrderUsecase(tx, FixedRates{}, nil)

	_, err := uc.Create(context.Background(), nil, usecase.CreateOrderInput{
		OrderType: "drive_through",
		Items:     []usecase.CreateOrderItemInput{{ProductID: 1, Quantity: 1}},
	})
	assertErrContains(t, err, "invalid order_type")
}

func TestOrderUsecase_Create_EmptyItems(t *testing.T) {
	tx, _, _, _, _, _, _ := newOrderFixture()
	uc := usecase.NewOrderUsecase(tx, FixedRates{}, nil)

	_, err := uc.Create(context.Background(), nil, usecase.CreateOrderInput{
		OrderType: "takeaway",
	})
	assertErrContains(t, err, "items must not be empty")
}

func TestOrderUsecase_Create_QuantityOutOfRange(t *testing.T) {
	tx, _, _, _, _, _, _ := newOrderFixture()
	uc := usecase.NewOrderUsecase(tx, FixedRates{}, nil)

	_, err := uc.Create(context.Background(), nil, usecase.CreateOrderInput{
		OrderType: "takeaway",
		Items:     []usecase.CreateOrderItemInput{{ProductID: 1, Quantity: 101}},
	})
	assertErrContains(t, err, "quantity must be between 1 and 100")
}

// 4.50×2 + 3.00×1 → 小計12.00、税1.20、サービス料0.60、合計13.80。
// 作成と同時に自動決済（paid / paid_amount=total）になる。
func TestOrderUsecase_Create_Totals_AutoSettle(t *testing.T) {
	ctx := context.Background()
	tx, orders, items, products, inventory, tables, notifications := newOrderFixture()

	tableID := int64(3)

	coffee := model.Product{ID: 1, Name: "Latte", SKU: "PRD-AAAAAAAA", Price: d("4.50"), PreparationTime: 4, TrackStock: true, StockQuantity: 10, IsActive: true}
	cake := model.Product{ID: 2, Name: "Cheesecake", SKU: "PRD-BBBBBBBB", Price: d("3.00"), PreparationTime: 2, TrackStock: true, StockQuantity: 5, IsActive: true}

	tables.On("FindByID", mock.Anything, tableID).Return(model.Table{ID: tableID, Status: model.TableStatusAvailable}, nil)
	products.On("FindByID", mock.Anything, int64(1)).Return(coffee, nil)
	products.On("FindByID", mock.Anything, int64(2)).Return(cake, nil)
	inventory.On("DecreaseStockIfEnough", mock.Anything, int64(1), int64(2)).Return(true, nil)
	inventory.On("DecreaseStockIfEnough", mock.Anything, int64(2), int64(1)).Return(true, nil)

	orders.On("CountOnDate", mock.Anything, mock.Anything).Return(int64(41), nil)

	var created model.Order
	orders.On("Create", mock.Anything, mock.MatchedBy(func(o *model.Order) bool {
		return o.Status == model.OrderStatusPending &&
			o.PaymentStatus == model.PaymentStatusPaid &&
			o.Subtotal.Equal(d("12.00")) &&
			o.TaxAmount.Equal(d("1.20")) &&
			o.ServiceCharge.Equal(d("0.60")) &&
			o.TotalAmount.Equal(d("13.80")) &&
			o.PaidAmount.Equal(d("13.80")) &&
			o.OrderNumber == time.Now().Format("20060102")+"-0042"
	})).Run(func(args mock.Arguments) {
		o := args.Get(1).(*model.Order)
		o.ID = 7
		created = *o
	}).Return(nil)

	items.On("CreateBulk", mock.Anything, int64(7), mock.MatchedBy(func(its []model.OrderItem) bool {
		if len(its) != 2 {
			return false
		}
		//商品名・SKU・単価はスナップショットされる
		return its[0].ProductName == "Latte" &&
			its[0].ProductSKU == "PRD-AAAAAAAA" &&
			its[0].UnitPrice.Equal(d("4.50")) &&
			its[0].LineTotal.Equal(d("9.00")) &&
			its[1].LineTotal.Equal(d("3.00"))
	})).Return(nil)

	//dine_inはテーブルを占有する
	tables.On("UpdateStatus", mock.Anything, tableID, model.TableStatusOccupied).Return(nil)
	notifications.On("Create", mock.Anything, mock.Anything).Return(nil)
	orders.On("FindByIDWithRelations", mock.Anything, int64(7)).Return(model.Order{ID: 7}, nil)

	broadcaster := new(BroadcasterMock)
	broadcaster.On("Broadcast", mock.Anything, mock.Anything).Return()

	uc := usecase.NewOrderUsecase(tx, FixedRates{}, broadcaster)

	out, err := uc.Create(ctx, nil, usecase.CreateOrderInput{
		TableID:   &tableID,
		OrderType: "dine_in",
		Items: []usecase.CreateOrderItemInput{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(7), out.ID)
	assert.Equal(t, model.PaymentMethodCash, created.PaymentMethod) //省略時はcash

	orders.AssertExpectations(t)
	items.AssertExpectations(t)
	inventory.AssertExpectations(t)
	tables.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
}

func TestOrderUsecase_Create_InsufficientStock(t *testing.T) {
	ctx := context.Background()
	tx, orders, _, products, inventory, _, _ := newOrderFixture()

	p := model.Product{ID: 1, Name: "Latte", Price: d("4.50"), TrackStock: true, StockQuantity: 1, IsActive: true}
	products.On("FindByID", mock.Anything, int64(1)).Return(p, nil)
	inventory.On("DecreaseStockIfEnough", mock.Anything, int64(1), int64(5)).Return(false, nil)

	uc := usecase.NewOrderUsecase(tx, FixedRates{}, nil)

	_, err := uc.Create(ctx, nil, usecase.CreateOrderInput{
		OrderType: "takeaway",
		Items:     []usecase.CreateOrderItemInput{{ProductID: 1, Quantity: 5}},
	})
	assertErrContains(t, err, "insufficient stock for Latte")

	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderUsecase_Create_InactiveProduct(t *testing.T) {
	ctx := context.Background()
	tx, orders, _, products, inventory, _, _ := newOrderFixture()

	p := model.Product{ID: 1, Name: "Latte", Price: d("4.50"), IsActive: false}
	products.On("FindByID", mock.Anything, int64(1)).Return(p, nil)

	uc := usecase.NewOrderUsecase(tx, FixedRates{}, nil)

	_, err := uc.Create(ctx, nil, usecase.CreateOrderInput{
		OrderType: "takeaway",
		Items:     []usecase.CreateOrderItemInput{{ProductID: 1, Quantity: 1}},
	})
	assertErrContains(t, err, "not available")

	inventory.AssertNotCalled(t, "DecreaseStockIfEnough", mock.Anything, mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// =====================
// UpdateStatus tests
// =====================

func TestOrderUsecase_UpdateStatus_Confirm_SetsEstimatedTime(t *testing.T) {
	ctx := context.Background()
	tx, orders, _, _, _, _, _ := newOrderFixture()

	o := model.Order{
		ID:     1,
		Status: model.OrderStatusPending,
		Items: []model.OrderItem{
			{PreparationTime: 2, Quantity: 1},
			{PreparationTime: 1, Quantity: 1},
		},
	}
	orders.On("FindByIDWithRelations", mock.Anything, int64(1)).Return(o, nil)
	orders.On("Save", mock.Anything, mock.MatchedBy(func(o *model.Order) bool {
		//合計3分でも下限の5分になる
		return o.Status == model.OrderStatusConfirmed && o.ConfirmedAt != nil && o.EstimatedTime == 5
	})).Return(nil)

	uc := usecase.NewOrderUsecase(tx, FixedRates{}, nil)

	out, err := uc.UpdateStatus(ctx, 1, "confirmed")
	assert.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, out.Status)

	orders.AssertExpectations(t)
}

func TestOrderUsecase_UpdateStatus_Cancel_RestoresStock_FreesTable(t *testing.T) {
	ctx := context.Background()
	tx, orders, _, products, inventory, tables, _ := newOrderFixture()

	tableID := int64(4)
	o := model.Order{
		ID:        1,
		Status:    model.OrderStatusPreparing,
		OrderType: model.OrderTypeDineIn,
		TableID:   &tableID,
		Items: []model.OrderItem{
			{ProductID: 10, Quantity: 2},
			{ProductID: 11, Quantity: 1},
		},
	}
	orders.On("FindByIDWithRelations", mock.Anything, int64(1)).Return(o, nil)

	products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, TrackStock: true}, nil)
	products.On("FindByID", mock.Anything, int64(11)).Return(model.Product{ID: 11, TrackStock: false}, nil)

	//在庫追跡している明細だけ戻す
	inventory.On("IncreaseStock", mock.Anything, int64(10), int64(2)).Return(nil)

	tables.On("UpdateStatus", mock.Anything, tableID, model.TableStatusAvailable).Return(nil)

	orders.On("Save", mock.Anything, mock.MatchedBy(func(o *model.Order) bool {
		return o.Status == model.OrderStatusCancelled && o.CancelledAt != nil
	})).Return(nil)

	uc := usecase.NewOrderUsecase(tx, FixedRates{}, nil)

	_, err := uc.UpdateStatus(ctx, 1, "cancelled")
	assert.NoError(t, err)

	inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, int64(11), mock.Anything)
	inventory.AssertExpectations(t)
	tables.AssertExpectations(t)
	orders.AssertExpectations(t)
}

func TestOrderUsecase_UpdateStatus_SameStatus_NoSideEffects(t *testing.T) {
	ctx := context.Background()
	tx, orders, _, _, _, tables, _ := newOrderFixture()

	tableID := int64(4)
	o := model.Order{
		ID:        1,
		Status:    model.OrderStatusCompleted,
		OrderType: model.OrderTypeDineIn,
		TableID:   &tableID,
		Items:     []model.OrderItem{{ProductID: 10, Quantity: 1}},
	}
	orders.On("FindByIDWithRelations", mock.Anything, int64(1)).Return(o, nil)
	orders.On("Save", mock.Anything, mock.Anything).Return(nil)

	uc := usecase.NewOrderUsecase(tx, FixedRates{}, nil)

	//completed→completedは副作用なしの no-op（テーブルを二度解放しない）
	out, err := uc.UpdateStatus(ctx, 1, "completed")
	assert.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, out.Status)

	tables.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderUsecase_UpdateStatus_BackwardRejected(t *testing.T) {
	ctx := context.Background()
	tx, orders, _, _, _, _, _ := newOrderFixture()

	o := model.Order{ID: 1, Status: model.OrderStatusReady, Items: []model.OrderItem{{ProductID: 1, Quantity: 1}}}
	orders.On("FindByIDWithRelations", mock.Anything, int64(1)).Return(o, nil)

	uc := usecase.NewOrderUsecase(tx, FixedRates{}, nil)

	_, err := uc.UpdateStatus(ctx, 1, "preparing")
	assertErrContains(t, err, "invalid transition from ready to preparing")

	orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestOrderUsecase_UpdateStatus_TerminalRejected(t *testing.T) {
	ctx := context.Background()
	tx, orders, _, _, _, _, _ := newOrderFixture()

	o := model.Order{ID: 1, Status: model.OrderStatusCancelled, Items: []model.OrderItem{{ProductID: 1, Quantity: 1}}}
	orders.On("FindByIDWithRelations", mock.Anything, int64(1)).Return(o, nil)

	uc := usecase.NewOrderUsecase(tx, FixedRates{}, nil)

	_, err := uc.UpdateStatus(ctx, 1, "confirmed")
	assertErrContains(t, err, "cannot change cancelled order")
}

// =====================
// AddPayment tests
// =====================

func TestOrderUsecase_AddPayment_OverpayRejected(t *testing.T) {
	ctx := context.Background()
	tx, orders, _, _, _, _, _ := newOrderFixture()

	o := model.Order{
		ID:            1,
		TotalAmount:   d("20.00"),
		PaidAmount:    d("15.00"),
		PaymentStatus: model.PaymentStatusPartial,
	}
	orders.On("FindByIDWithRelations", mock.Anything, int64(1)).Return(o, nil)

	uc := usecase.NewOrderUsecase(tx, FixedRates{}, nil)

	_, err := uc.AddPayment(ctx, 1, d("5.01"), "cash")
	assertErrContains(t, err, "cannot exceed remaining amount")

	orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestOrderUsecase_AddPayment_Partial(t *testing.T) {
	ctx := context.Background()
	tx, orders, _, _, _, _, _ := newOrderFixture()

	o := model.Order{
		ID:            1,
		TotalAmount:   d("20.00"),
		PaidAmount:    d("5.00"),
		PaymentStatus: model.PaymentStatusPartial,
	}
	orders.On("FindByIDWithRelations", mock.Anything, int64(1)).Return(o, nil)
	orders.On("Save", mock.Anything, mock.MatchedBy(func(o *model.Order) bool {
		return o.PaidAmount.Equal(d("15.00")) &&
			o.PaymentStatus == model.PaymentStatusPartial &&
			o.PaymentMethod == model.PaymentMethodCard
	})).Return(nil)

	uc := usecase.NewOrderUsecase(tx, FixedRates{}, nil)

	out, err := uc.AddPayment(ctx, 1, d("10.00"), "card")
	assert.NoError(t, err)
	assert.True(t, out.RemainingAmount().Equal(d("5.00")))

	orders.AssertExpectations(t)
}

func TestOrderUsecase_AddPayment_FullSettles(t *testing.T) {
	ctx := context.Background()
	tx, orders, _, _, _, _, _ := newOrderFixture()

	o := model.Order{
		ID:            1,
		TotalAmount:   d("20.00"),
		PaidAmount:    d("15.00"),
		PaymentStatus: model.PaymentStatusPartial,
	}
	orders.On("FindByIDWithRelations", mock.Anything, int64(1)).Return(o, nil)
	orders.On("Save", mock.Anything, mock.MatchedBy(func(o *model.Order) bool {
		return o.PaidAmount.Equal(d("20.00")) && o.PaymentStatus == model.PaymentStatusPaid
	})).Return(nil)

	uc := usecase.NewOrderUsecase(tx, FixedRates{}, nil)

	out, err := uc.AddPayment(ctx, 1, d("5.00"), "cash")
	assert.NoError(t, err)
	assert.True(t, out.IsPaid())
}

// =====================
// Delete tests
// =====================

func TestOrderUsecase_Delete_PreparingRejected(t *testing.T) {
	ctx := context.Background()
	tx, orders, _, _, _, _, _ := newOrderFixture()

	o := model.Order{ID: 1, Status: model.OrderStatusPreparing}
	orders.On("FindByIDWithRelations", mock.Anything, int64(1)).Return(o, nil)

	uc := usecase.NewOrderUsecase(tx, FixedRates{}, nil)

	err := uc.Delete(ctx, 1)
	assertErrContains(t, err, "can only delete pending or cancelled orders")

	orders.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestOrderUsecase_Delete_Pending_RestoresStock(t *testing.T) {
	ctx := context.Background()
	tx, orders, _, products, inventory, tables, _ := newOrderFixture()

	tableID := int64(2)
	o := model.Order{
		ID:        1,
		Status:    model.OrderStatusPending,
		OrderType: model.OrderTypeDineIn,
		TableID:   &tableID,
		Items:     []model.OrderItem{{ProductID: 10, Quantity: 3}},
	}
	orders.On("FindByIDWithRelations", mock.Anything, int64(1)).Return(o, nil)
	products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, TrackStock: true}, nil)
	inventory.On("IncreaseStock", mock.Anything, int64(10), int64(3)).Return(nil)
	tables.On("UpdateStatus", mock.Anything, tableID, model.TableStatusAvailable).Return(nil)
	orders.On("Delete", mock.Anything, int64(1)).Return(nil)

	uc := usecase.NewOrderUsecase(tx, FixedRates{}, nil)

	err := uc.Delete(ctx, 1)
	assert.NoError(t, err)

	inventory.AssertExpectations(t)
	tables.AssertExpectations(t)
	orders.AssertExpectations(t)
}

func TestOrderUsecase_Delete_Cancelled_NoStockRestore(t *testing.T) {
	ctx := context.Background()
	tx, orders, _, _, inventory, _, _ := newOrderFixture()

	o := model.Order{
		ID:     1,
		Status: model.OrderStatusCancelled,
		Items:  []model.OrderItem{{ProductID: 10, Quantity: 3}},
	}
	orders.On("FindByIDWithRelations", mock.Anything, int64(1)).Return(o, nil)
	orders.On("Delete", mock.Anything, int64(1)).Return(nil)

	uc := usecase.NewOrderUsecase(tx, FixedRates{}, nil)

	err := uc.Delete(ctx, 1)
	assert.NoError(t, err)

	//キャンセル時に戻し済みなので二重に戻さない
	inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
}

// =====================
// BulkUpdate tests
// =====================

func TestOrderUsecase_BulkUpdate_SkipsUnknown_ForcesPaid(t *testing.T) {
	ctx := context.Background()
	tx, orders, _, _, _, _, _ := newOrderFixture()

	known := model.Order{
		ID:            1,
		Status:        model.OrderStatusConfirmed,
		TotalAmount:   d("10.00"),
		PaidAmount:    d("0.00"),
		PaymentStatus: model.PaymentStatusPending,
		Items:         []model.OrderItem{{ProductID: 1, Quantity: 1}},
	}
	orders.On("FindByIDWithRelations", mock.Anything, int64(1)).Return(known, nil)
	orders.On("FindByIDWithRelations", mock.Anything, int64(999)).Return(model.Order{}, repo.ErrNotFound)

	orders.On("Save", mock.Anything, mock.MatchedBy(func(o *model.Order) bool {
		return o.ID == 1 &&
			o.Status == model.OrderStatusPreparing &&
			o.PaymentStatus == model.PaymentStatusPaid &&
			o.PaidAmount.Equal(d("10.00"))
	})).Return(nil)

	uc := usecase.NewOrderUsecase(tx, FixedRates{}, nil)

	count, err := uc.BulkUpdate(ctx, []usecase.BulkUpdateEntry{
		{ID: 1, Status: "preparing"},
		{ID: 999, Status: "preparing"}, //存在しないIDは黙って飛ばす
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	orders.AssertExpectations(t)
}

func TestOrderUsecase_BulkUpdate_TooMany(t *testing.T) {
	tx, _, _, _, _, _, _ := newOrderFixture()
	uc := usecase.NewOrderUsecase(tx, FixedRates{}, nil)

	entries := make([]usecase.BulkUpdateEntry, 101)
	for i := range entries {
		entries[i] = usecase.BulkUpdateEntry{ID: int64(i + 1), Status: "preparing"}
	}

	_, err := uc.BulkUpdate(context.Background(), entries)
	assertErrContains(t, err, "too many orders")
}

func TestOrderUsecase_BulkUpdate_SkipsInvalidTransition(t *testing.T) {
	ctx := context.Background()
	tx, orders, _, _, _, _, _ := newOrderFixture()

	served := model.Order{
		ID:          1,
		Status:      model.OrderStatusServed,
		TotalAmount: d("10.00"),
		Items:       []model.OrderItem{{ProductID: 1, Quantity: 1}},
	}
	orders.On("FindByIDWithRelations", mock.Anything, int64(1)).Return(served, nil)

	uc := usecase.NewOrderUsecase(tx, FixedRates{}, nil)

	//served→confirmedは後戻りなので飛ばされる
	count, err := uc.BulkUpdate(ctx, []usecase.BulkUpdateEntry{{ID: 1, Status: "confirmed"}})
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// =====================
// UpdateItemQuantity tests
// =====================

func TestOrderUsecase_UpdateItemQuantity_RecalculatesLineTotal(t *testing.T) {
	ctx := context.Background()
	tx, _, items, _, _, _, _ := newOrderFixture()

	item := model.OrderItem{
		ID:        5,
		OrderID:   1,
		UnitPrice: d("4.50"),
		Quantity:  1,
		LineTotal: d("4.50"),
		Status:    model.OrderItemStatusPending,
	}
	items.On("FindByID", mock.Anything, int64(5)).Return(item, nil)
	items.On("Update", mock.Anything, mock.MatchedBy(func(it model.OrderItem) bool {
		return it.Quantity == 3 && it.LineTotal.Equal(d("13.50"))
	})).Return(nil)

	uc := usecase.NewOrderUsecase(tx, FixedRates{}, nil)

	out, err := uc.UpdateItemQuantity(ctx, 1, 5, 3)
	assert.NoError(t, err)
	assert.True(t, out.LineTotal.Equal(d("13.50")))

	items.AssertExpectations(t)
}

func TestOrderUsecase_UpdateItemQuantity_LockedItem(t *testing.T) {
	ctx := context.Background()
	tx, _, items, _, _, _, _ := newOrderFixture()

	item := model.OrderItem{
		ID:      5,
		OrderID: 1,
		Status:  model.OrderItemStatusPreparing,
	}
	items.On("FindByID", mock.Anything, int64(5)).Return(item, nil)

	uc := usecase.NewOrderUsecase(tx, FixedRates{}, nil)

	_, err := uc.UpdateItemQuantity(ctx, 1, 5, 3)
	assertErrContains(t, err, "no longer be modified")

	items.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
