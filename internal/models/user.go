package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	Password     string `gorm:"not null" json:"-"`
	Name         string `gorm:"not null" json:"name"`
	Phone        string `json:"phone"`
	Status       string `gorm:"default:'active'" json:"status"`
	LastLoginAt  *time.Time
	TokenVersion int `gorm:"default:1" json:"-"`
}

// UserRole is the single role row per user; authorization reads it on every
// request instead of trusting a role claim.
type UserRole struct {
	UserID    uint   `gorm:"primaryKey" json:"user_id"`
	Role      string `gorm:"not null;index" json:"role"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UserRole) TableName() string { return "user_roles" }
