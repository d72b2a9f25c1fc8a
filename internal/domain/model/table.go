package model

import (
	"time"

	"gorm.io/datatypes"
)

type TableStatus string

const (
	TableStatusAvailable  TableStatus = "available"
	TableStatusOccupied   TableStatus = "occupied"
	TableStatusReserved   TableStatus = "reserved"
	TableStatusCleaning   TableStatus = "cleaning"
	TableStatusOutOfOrder TableStatus = "out_of_order"
)

// 物理的なテーブル。statusはdine_in注文のライフサイクルで書き換わる。
type Table struct {
	ID          int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	TableNumber string      `gorm:"type:varchar(20);not null;uniqueIndex" json:"table_number"`
	Name        string      `gorm:"type:varchar(255)" json:"name"`
	Capacity    int         `gorm:"not null;default:2" json:"capacity"`
	Status      TableStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Location    string      `gorm:"type:varchar(100)" json:"location"`
	QRCode      string      `gorm:"type:varchar(50);uniqueIndex" json:"qr_code"`
	IsActive    bool        `gorm:"not null;default:true" json:"is_active"`

	Metadata datatypes.JSONMap `json:"metadata"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (t *Table) IsOccupied() bool {
	return t.Status == TableStatusOccupied
}

func ValidTableStatus(s TableStatus) bool {
	switch s {
	case TableStatusAvailable, TableStatusOccupied, TableStatusReserved,
		TableStatusCleaning, TableStatusOutOfOrder:
		return true
	}
	return false
}
