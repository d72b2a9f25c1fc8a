package model

import (
	"time"

	"gorm.io/datatypes"
)

// key→JSON値のシステム設定。値はそのまま出し入れする。
type Setting struct {
	ID    int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Key   string         `gorm:"type:varchar(100);not null;uniqueIndex" json:"key"`
	Value datatypes.JSON `gorm:"not null" json:"value"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 注文作成で使う設定キー
const (
	SettingKeyTaxRate           = "tax_rate"
	SettingKeyServiceChargeRate = "service_charge_rate"
)
