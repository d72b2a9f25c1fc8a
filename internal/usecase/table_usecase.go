package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// 操作主体。ハンドラがJWTクレームから組み立てる。
type Actor struct {
	UserID int64
	Role   model.Role
}

// 稼働中注文が残るテーブルを強制解放できるか
func (a Actor) CanForceTableRelease() bool {
	switch a.Role {
	case model.RoleAdmin, model.RoleManager, model.RoleSale:
		return true
	}
	return false
}

type TableUsecase struct {
	tx        repo.TransactionManager
	tableRepo repo.TableRepository
	orderRepo repo.OrderRepository
}

func NewTableUsecase(tx repo.TransactionManager, tableRepo repo.TableRepository, orderRepo repo.OrderRepository) *TableUsecase {
	return &TableUsecase{tx: tx, tableRepo: tableRepo, orderRepo: orderRepo}
}

type ListTablesInput struct {
	Status   string
	Location string
	Active   *bool
}

func (u *TableUsecase) List(ctx context.Context, in ListTablesInput) ([]model.Table, error) {
	if in.Status != "" && !model.ValidTableStatus(model.TableStatus(in.Status)) {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	tables, err := u.tableRepo.List(ctx, repo.TableListQuery{
		Status:   in.Status,
		Location: in.Location,
		Active:   in.Active,
	})
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return tables, nil
}

func (u *TableUsecase) Get(ctx context.Context, tableID int64) (model.Table, error) {
	if tableID <= 0 {
		return model.Table{}, NewHTTPError(http.StatusBadRequest, "invalid table id")
	}

	t, err := u.tableRepo.FindByID(ctx, tableID)
	if err == repo.ErrNotFound {
		return model.Table{}, NewHTTPError(http.StatusNotFound, "table not found")
	}
	if err != nil {
		return model.Table{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return t, nil
}

type CreateTableInput struct {
	TableNumber string
	Name        string
	Capacity    int
	Location    string
	IsActive    bool
	Metadata    map[string]interface{}
}

func (u *TableUsecase) Create(ctx context.Context, in CreateTableInput) (model.Table, error) {
	number := strings.TrimSpace(in.TableNumber)
	if number == "" || len(number) > 20 {
		return model.Table{}, NewHTTPError(http.StatusUnprocessableEntity, "invalid table number")
	}
	if in.Capacity < 1 {
		return model.Table{}, NewHTTPError(http.StatusUnprocessableEntity, "capacity must be >= 1")
	}

	if _, err := u.tableRepo.FindByNumber(ctx, number); err == nil {
		return model.Table{}, NewHTTPError(http.StatusConflict, "table number already exists")
	} else if err != repo.ErrNotFound {
		return model.Table{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	t := model.Table{
		TableNumber: number,
		Name:        strings.TrimSpace(in.Name),
		Capacity:    in.Capacity,
		Status:      model.TableStatusAvailable,
		Location:    in.Location,
		QRCode:      NewTableQRCode(),
		IsActive:    in.IsActive,
		Metadata:    in.Metadata,
	}

	created, err := u.tableRepo.Create(ctx, t)
	if err != nil {
		return model.Table{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

type UpdateTableInput struct {
	Name     *string
	Capacity *int
	Location *string
	IsActive *bool
	Metadata map[string]interface{}
}

func (u *TableUsecase) Update(ctx context.Context, tableID int64, in UpdateTableInput) (model.Table, error) {
	t, err := u.Get(ctx, tableID)
	if err != nil {
		return model.Table{}, err
	}

	if in.Name != nil {
		t.Name = strings.TrimSpace(*in.Name)
	}
	if in.Capacity != nil {
		if *in.Capacity < 1 {
			return model.Table{}, NewHTTPError(http.StatusUnprocessableEntity, "capacity must be >= 1")
		}
		t.Capacity = *in.Capacity
	}
	if in.Location != nil {
		t.Location = *in.Location
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	if in.Metadata != nil {
		t.Metadata = in.Metadata
	}

	if err := u.tableRepo.Update(ctx, t); err != nil {
		return model.Table{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return t, nil
}

// 状態変更。occupied→availableは稼働中注文の有無で挙動が分かれる。
// 権限のある操作者なら稼働中注文を完了させてから解放、なければ400。
func (u *TableUsecase) UpdateStatus(ctx context.Context, actor Actor, tableID int64, status string) (model.Table, error) {
	newStatus := model.TableStatus(status)
	if !model.ValidTableStatus(newStatus) {
		return model.Table{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	t, err := u.Get(ctx, tableID)
	if err != nil {
		return model.Table{}, err
	}
	if t.Status == newStatus {
		return t, nil
	}

	if t.Status == model.TableStatusOccupied && newStatus == model.TableStatusAvailable {
		active, err := u.orderRepo.ListActiveByTable(ctx, tableID)
		if err != nil {
			return model.Table{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(active) > 0 {
			if !actor.CanForceTableRelease() {
				return model.Table{}, NewHTTPError(http.StatusBadRequest, "cannot make table available while it has active orders")
			}
			if err := u.completeActiveOrders(ctx, tableID); err != nil {
				return model.Table{}, err
			}
			//completedへの遷移がテーブルを解放済み
			return u.Get(ctx, tableID)
		}
	}

	if err := u.tableRepo.UpdateStatus(ctx, tableID, newStatus); err != nil {
		return model.Table{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	t.Status = newStatus
	return t, nil
}

// 稼働中注文を1トランザクションで全て完了させる
func (u *TableUsecase) completeActiveOrders(ctx context.Context, tableID int64) error {
	now := time.Now()
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		active, err := r.Orders().ListActiveByTable(ctx, tableID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		for i := range active {
			o := &active[i]
			if err := applyStatusTransition(ctx, r, o, model.OrderStatusCompleted, now); err != nil {
				return err
			}
			if err := r.Orders().Save(ctx, o); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}
		return nil
	})
}

func (u *TableUsecase) Delete(ctx context.Context, tableID int64) error {
	if _, err := u.Get(ctx, tableID); err != nil {
		return err
	}

	referenced, err := u.orderRepo.ExistsByTable(ctx, tableID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if referenced {
		return NewHTTPError(http.StatusConflict, "table is referenced by orders")
	}

	if err := u.tableRepo.Delete(ctx, tableID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// TABLE-XXXXXXXXXX形式のQRコード識別子
func NewTableQRCode() string {
	return "TABLE-" + strings.ToUpper(newToken(10))
}
