package models

import (
	"time"

	"gorm.io/gorm"
)

type ContactType string

const (
	ContactClient   ContactType = "CLIENT"
	ContactInternal ContactType = "INTERNAL"
	ContactVendor   ContactType = "VENDOR"
)

func (t ContactType) Valid() bool {
	switch t {
	case ContactClient, ContactInternal, ContactVendor:
		return true
	}
	return false
}

type Contact struct {
	ID           string      `gorm:"primaryKey;size:32" json:"contact_id"`
	EngagementID string      `gorm:"column:engagement_id;size:32;not null;index" json:"engagement_id"`
	Name         string      `gorm:"size:255;not null" json:"name"`
	Title        string      `gorm:"size:255" json:"title,omitempty"`
	Email        string      `gorm:"size:255" json:"email,omitempty"`
	Phone        string      `gorm:"size:50" json:"phone,omitempty"`
	Type         ContactType `gorm:"type:varchar(10);not null" json:"type"`
	Notes        string      `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = newID("contact")
	}
	return nil
}
