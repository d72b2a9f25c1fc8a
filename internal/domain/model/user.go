package model

import "time"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleSale    Role = "sale"
	RoleStaff   Role = "staff"
)

// スタッフアカウント。
type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"type:varchar(255);not null" json:"name"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'staff'" json:"role"`
	IsActive     bool   `gorm:"not null;default:true" json:"is_active"`

	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleSale, RoleStaff:
		return true
	}
	return false
}
