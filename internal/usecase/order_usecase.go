package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

// 注文作成時に税率/サービス料率を読む約束。設定ストアの実装は隠す。
type RateProvider interface {
	Rates(ctx context.Context) (taxRate decimal.Decimal, serviceChargeRate decimal.Decimal)
}

// 通知のブロードキャスト。失敗してもリクエストは失敗させない約束。
type NotificationBroadcaster interface {
	Broadcast(ctx context.Context, n model.Notification)
}

type OrderUsecase struct {
	tx          repo.TransactionManager
	rates       RateProvider
	broadcaster NotificationBroadcaster //nilなら配信しない
}

func NewOrderUsecase(tx repo.TransactionManager, rates RateProvider, broadcaster NotificationBroadcaster) *OrderUsecase {
	return &OrderUsecase{tx: tx, rates: rates, broadcaster: broadcaster}
}

type CreateOrderItemInput struct {
	ProductID      int64
	Quantity       int64
	UnitPrice      *decimal.Decimal //省略時は商品の現在価格
	Customizations map[string]interface{}
	Notes          string
}

type CreateOrderInput struct {
	TableID             *int64
	CustomerName        string
	CustomerPhone       string
	CustomerEmail       string
	OrderType           string
	PaymentMethod       string
	Notes               string
	SpecialInstructions string
	Metadata            map[string]interface{}
	Items               []CreateOrderItemInput
}

// 注文作成。検証・在庫減算・テーブル占有・明細スナップショットを1トランザクションで行う。
func (u *OrderUsecase) Create(ctx context.Context, userID *int64, in CreateOrderInput) (model.Order, error) {
	orderType := model.OrderType(strings.TrimSpace(in.OrderType))
	if !model.ValidOrderType(orderType) {
		return model.Order{}, NewHTTPError(http.StatusUnprocessableEntity, "invalid order_type")
	}
	if len(in.Items) == 0 {
		return model.Order{}, NewHTTPError(http.StatusUnprocessableEntity, "items must not be empty")
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 {
			return model.Order{}, NewHTTPError(http.StatusUnprocessableEntity, "invalid product_id")
		}
		if it.Quantity < 1 || it.Quantity > 100 {
			return model.Order{}, NewHTTPError(http.StatusUnprocessableEntity, "quantity must be between 1 and 100")
		}
		if it.UnitPrice != nil && it.UnitPrice.IsNegative() {
			return model.Order{}, NewHTTPError(http.StatusUnprocessableEntity, "unit_price must be >= 0")
		}
	}
	if len(in.CustomerName) > 255 {
		return model.Order{}, NewHTTPError(http.StatusUnprocessableEntity, "customer_name too long")
	}
	if len(in.Notes) > 1000 {
		return model.Order{}, NewHTTPError(http.StatusUnprocessableEntity, "notes too long")
	}
	if len(in.SpecialInstructions) > 500 {
		return model.Order{}, NewHTTPError(http.StatusUnprocessableEntity, "special_instructions too long")
	}

	method := model.PaymentMethod(in.PaymentMethod)
	if in.PaymentMethod == "" {
		method = model.PaymentMethodCash
	}
	if !model.ValidPaymentMethod(method) {
		return model.Order{}, NewHTTPError(http.StatusUnprocessableEntity, "invalid payment_method")
	}

	var out model.Order
	var created model.Notification

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//料率はトランザクション先頭で読む
		taxRate, serviceRate := u.rates.Rates(ctx)

		now := time.Now()

		//dine_in以外でもテーブル参照自体は許す（持ち帰り予約席など）
		if in.TableID != nil {
			if _, err := r.Tables().FindByID(ctx, *in.TableID); err != nil {
				if err == repo.ErrNotFound {
					return NewHTTPError(http.StatusNotFound, "table not found")
				}
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		subtotal := decimal.Zero
		orderItems := make([]model.OrderItem, 0, len(in.Items))

		for _, it := range in.Items {
			p, err := r.Products().FindByID(ctx, it.ProductID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "product not found")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !p.IsActive {
				return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("product %s is not available", p.Name))
			}

			//在庫減算（足りないなら false）。チェックと減算は同じUPDATEで行う。
			if p.TrackStock {
				ok, err := r.Inventory().DecreaseStockIfEnough(ctx, p.ID, it.Quantity)
				if err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
				if !ok {
					return NewHTTPError(http.StatusBadRequest,
						fmt.Sprintf("insufficient stock for %s. available: %d", p.Name, p.StockQuantity))
				}
			}

			unitPrice := p.Price
			if it.UnitPrice != nil {
				unitPrice = *it.UnitPrice
			}
			lineTotal := unitPrice.Mul(decimal.NewFromInt(it.Quantity))
			subtotal = subtotal.Add(lineTotal)

			//スナップショット
			orderItems = append(orderItems, model.OrderItem{
				ProductID:           p.ID,
				ProductName:         p.Name,
				ProductSKU:          p.SKU,
				PreparationTime:     p.PreparationTime,
				UnitPrice:           unitPrice,
				Quantity:            it.Quantity,
				LineTotal:           lineTotal,
				Status:              model.OrderItemStatusPending,
				Customizations:      it.Customizations,
				SpecialInstructions: it.Notes,
			})
		}

		taxAmount := subtotal.Mul(taxRate).Round(2)
		serviceCharge := subtotal.Mul(serviceRate).Round(2)
		totalAmount := subtotal.Add(taxAmount).Add(serviceCharge)

		number, err := u.nextOrderNumber(ctx, r, now)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		order := &model.Order{
			OrderNumber:   number,
			UserID:        userID,
			TableID:       in.TableID,
			CustomerName:  strings.TrimSpace(in.CustomerName),
			CustomerPhone: strings.TrimSpace(in.CustomerPhone),
			CustomerEmail: strings.TrimSpace(in.CustomerEmail),
			OrderType:     orderType,
			Status:        model.OrderStatusPending,
			//業務ルール：全注文は作成時点で自動的に決済済み扱いになる
			PaymentStatus:       model.PaymentStatusPaid,
			PaymentMethod:       method,
			Subtotal:            subtotal,
			TaxAmount:           taxAmount,
			DiscountAmount:      decimal.Zero,
			ServiceCharge:       serviceCharge,
			TotalAmount:         totalAmount,
			PaidAmount:          totalAmount,
			Notes:               in.Notes,
			SpecialInstructions: in.SpecialInstructions,
			OrderedAt:           now,
			Metadata:            in.Metadata,
		}

		if err := r.Orders().Create(ctx, order); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.OrderItems().CreateBulk(ctx, order.ID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//dine_inはテーブルを占有する
		if orderType == model.OrderTypeDineIn && in.TableID != nil {
			if err := r.Tables().UpdateStatus(ctx, *in.TableID, model.TableStatusOccupied); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		created = model.Notification{
			Type:    "order",
			Title:   "New order",
			Message: fmt.Sprintf("Order %s created", number),
			Data: map[string]interface{}{
				"order_id":     order.ID,
				"order_number": number,
			},
			Priority: model.NotificationPriorityMedium,
		}
		if err := r.Notifications().Create(ctx, &created); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		loaded, err := r.Orders().FindByIDWithRelations(ctx, order.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = loaded
		return nil
	})

	if err != nil {
		return model.Order{}, err
	}

	//コミット後にベストエフォートで配信
	if u.broadcaster != nil {
		u.broadcaster.Broadcast(ctx, created)
	}
	return out, nil
}

// 当日の連番つき注文番号（YYYYMMDD-0001形式）
func (u *OrderUsecase) nextOrderNumber(ctx context.Context, r repo.TxRepos, now time.Time) (string, error) {
	count, err := r.Orders().CountOnDate(ctx, now)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d", now.Format("20060102"), count+1), nil
}

// ステータス更新。遷移の副作用（タイムスタンプ/在庫戻し/テーブル解放）も同じトランザクションで行う。
func (u *OrderUsecase) UpdateStatus(ctx context.Context, orderID int64, newStatus string) (model.Order, error) {
	status := model.OrderStatus(newStatus)
	if !model.ValidOrderStatus(status) {
		return model.Order{}, NewHTTPError(http.StatusUnprocessableEntity, "invalid status")
	}
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDWithRelations(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := applyStatusTransition(ctx, r, &o, status, time.Now()); err != nil {
			return err
		}
		if err := r.Orders().Save(ctx, &o); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = o
		return nil
	})

	if err != nil {
		return model.Order{}, err
	}
	return out, nil
}

// ステータスの順序。cancelledは非終端ならどこからでも行ける。
var statusRank = map[model.OrderStatus]int{
	model.OrderStatusPending:   0,
	model.OrderStatusConfirmed: 1,
	model.OrderStatusPreparing: 2,
	model.OrderStatusReady:     3,
	model.OrderStatusServed:    4,
	model.OrderStatusCompleted: 5,
}

// 遷移と副作用を1か所にまとめる。orderはその場で書き換える。
// 同じステータスへの遷移は何もしない（副作用の二重実行を防ぐ）。
func applyStatusTransition(ctx context.Context, r repo.TxRepos, o *model.Order, newStatus model.OrderStatus, now time.Time) error {
	if o.Status == newStatus {
		return nil
	}
	if o.IsTerminal() {
		return NewHTTPError(http.StatusConflict, fmt.Sprintf("cannot change %s order", o.Status))
	}

	if newStatus != model.OrderStatusCancelled {
		//後戻りは不可
		if statusRank[newStatus] <= statusRank[o.Status] {
			return NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("invalid transition from %s to %s", o.Status, newStatus))
		}
	}

	items := o.Items
	if len(items) == 0 {
		loaded, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		items = loaded
	}

	switch newStatus {
	case model.OrderStatusConfirmed:
		o.ConfirmedAt = &now
		o.EstimatedTime = estimateTime(items)

	case model.OrderStatusPreparing:
		//スタンプだけ

	case model.OrderStatusReady:
		o.ReadyAt = &now

	case model.OrderStatusServed:
		o.ServedAt = &now

	case model.OrderStatusCompleted:
		o.CompletedAt = &now
		if o.IsDineIn() {
			if err := r.Tables().UpdateStatus(ctx, *o.TableID, model.TableStatusAvailable); err != nil && err != repo.ErrNotFound {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

	case model.OrderStatusCancelled:
		o.CancelledAt = &now
		//在庫追跡している明細は作成時に減らした分だけ戻す
		if err := restoreStock(ctx, r, items); err != nil {
			return err
		}
		if o.IsDineIn() {
			if err := r.Tables().UpdateStatus(ctx, *o.TableID, model.TableStatusAvailable); err != nil && err != repo.ErrNotFound {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}
	}

	o.Status = newStatus
	return nil
}

// 合計調理時間（分）。最低5分。
func estimateTime(items []model.OrderItem) int {
	total := 0
	for _, it := range items {
		total += it.PreparationTime
	}
	if total < 5 {
		return 5
	}
	return total
}

func restoreStock(ctx context.Context, r repo.TxRepos, items []model.OrderItem) error {
	for _, it := range items {
		p, err := r.Products().FindByID(ctx, it.ProductID)
		if err == repo.ErrNotFound {
			continue //商品が消えていたら戻し先がない
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !p.TrackStock {
			continue
		}
		if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}
	return nil
}

type UpdateOrderInput struct {
	CustomerName        *string
	CustomerPhone       *string
	CustomerEmail       *string
	Notes               *string
	SpecialInstructions *string
}

// 顧客情報・メモの更新。終端状態の注文は変更不可。
func (u *OrderUsecase) Update(ctx context.Context, orderID int64, in UpdateOrderInput) (model.Order, error) {
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDWithRelations(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if o.IsTerminal() {
			return NewHTTPError(http.StatusBadRequest, "cannot update completed or cancelled orders")
		}

		if in.CustomerName != nil {
			o.CustomerName = strings.TrimSpace(*in.CustomerName)
		}
		if in.CustomerPhone != nil {
			o.CustomerPhone = strings.TrimSpace(*in.CustomerPhone)
		}
		if in.CustomerEmail != nil {
			o.CustomerEmail = strings.TrimSpace(*in.CustomerEmail)
		}
		if in.Notes != nil {
			o.Notes = *in.Notes
		}
		if in.SpecialInstructions != nil {
			o.SpecialInstructions = *in.SpecialInstructions
		}

		if err := r.Orders().Save(ctx, &o); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = o
		return nil
	})

	if err != nil {
		return model.Order{}, err
	}
	return out, nil
}

// 支払い追加。amountが残額を超えるときは何も変えずに拒否する。
// 同じ金額で2回呼べば2回分加算される（支払いIDによる重複排除はない）。
func (u *OrderUsecase) AddPayment(ctx context.Context, orderID int64, amount decimal.Decimal, method string) (model.Order, error) {
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if !amount.IsPositive() {
		return model.Order{}, NewHTTPError(http.StatusUnprocessableEntity, "amount must be > 0")
	}
	pm := model.PaymentMethod(method)
	if !model.ValidPaymentMethod(pm) {
		return model.Order{}, NewHTTPError(http.StatusUnprocessableEntity, "invalid payment_method")
	}

	var out model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDWithRelations(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if amount.GreaterThan(o.RemainingAmount()) {
			return NewHTTPError(http.StatusBadRequest, "payment amount cannot exceed remaining amount")
		}

		o.PaidAmount = o.PaidAmount.Add(amount)
		o.PaymentMethod = pm
		if o.PaidAmount.GreaterThanOrEqual(o.TotalAmount) {
			o.PaymentStatus = model.PaymentStatusPaid
		} else {
			o.PaymentStatus = model.PaymentStatusPartial
		}

		if err := r.Orders().Save(ctx, &o); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = o
		return nil
	})

	if err != nil {
		return model.Order{}, err
	}
	return out, nil
}

// 明細の数量変更。pending/confirmedの明細だけ許す。
func (u *OrderUsecase) UpdateItemQuantity(ctx context.Context, orderID int64, itemID int64, quantity int64) (model.OrderItem, error) {
	if quantity < 1 || quantity > 100 {
		return model.OrderItem{}, NewHTTPError(http.StatusUnprocessableEntity, "quantity must be between 1 and 100")
	}

	var out model.OrderItem

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		item, err := r.OrderItems().FindByID(ctx, itemID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order item not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if item.OrderID != orderID {
			return NewHTTPError(http.StatusNotFound, "order item not found")
		}
		if !item.CanBeModified() {
			return NewHTTPError(http.StatusConflict, "item can no longer be modified")
		}

		item.Quantity = quantity
		item.RecalculateLineTotal()

		if err := r.OrderItems().Update(ctx, item); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = item
		return nil
	})

	if err != nil {
		return model.OrderItem{}, err
	}
	return out, nil
}

// 注文削除。pending/cancelledのみ。pendingは在庫を戻してから消す。
func (u *OrderUsecase) Delete(ctx context.Context, orderID int64) error {
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDWithRelations(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if !o.IsDeletable() {
			return NewHTTPError(http.StatusConflict, "can only delete pending or cancelled orders")
		}

		//cancelledは取り消し時に戻し済み。pendingだけここで戻す。
		if o.Status == model.OrderStatusPending {
			if err := restoreStock(ctx, r, o.Items); err != nil {
				return err
			}
		}

		if o.IsDineIn() {
			if err := r.Tables().UpdateStatus(ctx, *o.TableID, model.TableStatusAvailable); err != nil && err != repo.ErrNotFound {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		if err := r.Orders().Delete(ctx, orderID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}

type BulkUpdateEntry struct {
	ID            int64
	Status        string
	PaymentStatus string //受け取るが無視される（下の自動決済ルール参照）
	PaymentMethod string
}

// 一括更新。存在しないIDは黙って飛ばす。
// 更新された注文はすべて自動的に決済済みになる（作成時と同じ業務ルール）。
func (u *OrderUsecase) BulkUpdate(ctx context.Context, entries []BulkUpdateEntry) (int, error) {
	if len(entries) == 0 {
		return 0, NewHTTPError(http.StatusUnprocessableEntity, "orders must not be empty")
	}
	if len(entries) > 100 {
		return 0, NewHTTPError(http.StatusUnprocessableEntity, "too many orders (max 100)")
	}

	updated := 0

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		now := time.Now()

		for _, e := range entries {
			o, err := r.Orders().FindByIDWithRelations(ctx, e.ID)
			if err == repo.ErrNotFound {
				continue
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			if e.Status != "" {
				status := model.OrderStatus(e.Status)
				if !model.ValidOrderStatus(status) {
					continue
				}
				if err := applyStatusTransition(ctx, r, &o, status, now); err != nil {
					//遷移できないエントリは飛ばす
					if _, ok := AsHTTPError(err); ok {
						continue
					}
					return err
				}
			}

			o.PaymentStatus = model.PaymentStatusPaid
			o.PaidAmount = o.TotalAmount

			if e.PaymentMethod != "" && model.ValidPaymentMethod(model.PaymentMethod(e.PaymentMethod)) {
				o.PaymentMethod = model.PaymentMethod(e.PaymentMethod)
			} else if o.PaymentMethod == "" {
				o.PaymentMethod = model.PaymentMethodCash
			}

			if err := r.Orders().Save(ctx, &o); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			updated++
		}
		return nil
	})

	if err != nil {
		return 0, err
	}
	return updated, nil
}
