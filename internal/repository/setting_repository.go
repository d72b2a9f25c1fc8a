package repository

import (
	"context"

	"app/internal/domain/model"
)

type SettingRepository interface {
	All(ctx context.Context) ([]model.Setting, error)
	Get(ctx context.Context, key string) (model.Setting, error)
	//あれば更新、なければ作成
	Upsert(ctx context.Context, key string, value []byte) error
}
