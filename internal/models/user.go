package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleConsultant Role = "CONSULTANT"
	RoleLead       Role = "LEAD"
	RoleAdmin      Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleConsultant, RoleLead, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           string `gorm:"primaryKey;size:32" json:"user_id"`
	Name         string `gorm:"size:255;not null" json:"name"`
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Picture      string `gorm:"size:512" json:"picture,omitempty"`
	PasswordHash string `gorm:"size:255" json:"-"` // пусто у пользователей, пришедших через OAuth
	Role         Role   `gorm:"type:varchar(20);not null" json:"role"`
	IsActive     bool   `gorm:"not null" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = newID("user")
	}
	if u.Role == "" {
		u.Role = RoleConsultant
	}
	return nil
}
