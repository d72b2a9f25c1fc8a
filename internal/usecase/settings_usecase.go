package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

// 税率とサービス料率の既定値。設定が無い・壊れているときに使う。
var (
	defaultTaxRate           = decimal.NewFromFloat(0.10)
	defaultServiceChargeRate = decimal.NewFromFloat(0.05)
)

type SettingsUsecase struct {
	settingRepo repo.SettingRepository
}

func NewSettingsUsecase(settingRepo repo.SettingRepository) *SettingsUsecase {
	return &SettingsUsecase{settingRepo: settingRepo}
}

// 全設定をkey→値のマップで返す
func (u *SettingsUsecase) All(ctx context.Context) (map[string]interface{}, error) {
	settings, err := u.settingRepo.All(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := make(map[string]interface{}, len(settings))
	for _, s := range settings {
		var v interface{}
		if err := json.Unmarshal(s.Value, &v); err != nil {
			//壊れた値は生のままにせずスキップ
			continue
		}
		out[s.Key] = v
	}
	return out, nil
}

func (u *SettingsUsecase) UpsertMany(ctx context.Context, values map[string]interface{}) error {
	if len(values) == 0 {
		return NewHTTPError(http.StatusUnprocessableEntity, "no settings provided")
	}

	for key, value := range values {
		key = strings.TrimSpace(key)
		if key == "" || len(key) > 100 {
			return NewHTTPError(http.StatusUnprocessableEntity, "invalid setting key")
		}

		raw, err := json.Marshal(value)
		if err != nil {
			return NewHTTPError(http.StatusUnprocessableEntity, "invalid setting value")
		}
		if err := u.settingRepo.Upsert(ctx, key, raw); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}
	return nil
}

// RateProviderの実装。読めない値は既定値で埋める。
func (u *SettingsUsecase) Rates(ctx context.Context) (decimal.Decimal, decimal.Decimal) {
	return u.rate(ctx, model.SettingKeyTaxRate, defaultTaxRate),
		u.rate(ctx, model.SettingKeyServiceChargeRate, defaultServiceChargeRate)
}

func (u *SettingsUsecase) rate(ctx context.Context, key string, fallback decimal.Decimal) decimal.Decimal {
	s, err := u.settingRepo.Get(ctx, key)
	if err != nil {
		return fallback
	}

	var raw json.Number
	dec := json.NewDecoder(strings.NewReader(string(s.Value)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fallback
	}

	d, err := decimal.NewFromString(raw.String())
	if err != nil || d.IsNegative() {
		return fallback
	}
	return d
}
