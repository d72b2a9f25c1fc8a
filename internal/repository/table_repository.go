package repository

import (
	"context"

	"app/internal/domain/model"
)

type TableListQuery struct {
	Status   string
	Location string
	Active   *bool
}

type TableRepository interface {
	List(ctx context.Context, q TableListQuery) ([]model.Table, error)
	FindByID(ctx context.Context, id int64) (model.Table, error)
	FindByNumber(ctx context.Context, tableNumber string) (model.Table, error)

	Create(ctx context.Context, t model.Table) (model.Table, error)
	Update(ctx context.Context, t model.Table) error
	UpdateStatus(ctx context.Context, id int64, status model.TableStatus) error
	Delete(ctx context.Context, id int64) error

	CountByStatus(ctx context.Context) (map[string]int64, error)
}
