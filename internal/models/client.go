package models

import (
	"time"

	"gorm.io/gorm"
)

type Client struct {
	ID                  string `gorm:"primaryKey;size:32" json:"client_id"`
	ClientName          string `gorm:"size:255;not null" json:"client_name"`
	Industry            string `gorm:"size:100" json:"industry,omitempty"`
	Notes               string `gorm:"type:text" json:"notes,omitempty"`
	PrimaryContactName  string `gorm:"size:255" json:"primary_contact_name,omitempty"`
	PrimaryContactEmail string `gorm:"size:255" json:"primary_contact_email,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = newID("client")
	}
	return nil
}
