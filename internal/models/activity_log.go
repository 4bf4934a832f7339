package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EntityType string

const (
	EntityPulse      EntityType = "PULSE"
	EntityMilestone  EntityType = "MILESTONE"
	EntityRisk       EntityType = "RISK"
	EntityIssue      EntityType = "ISSUE"
	EntityContact    EntityType = "CONTACT"
	EntityEngagement EntityType = "ENGAGEMENT"
	EntityClient     EntityType = "CLIENT"
	EntityUser       EntityType = "USER"
)

type ActionType string

const (
	ActionCreate ActionType = "CREATE"
	ActionUpdate ActionType = "UPDATE"
	ActionDelete ActionType = "DELETE"
	ActionSubmit ActionType = "SUBMIT"
)

type ActivityLog struct {
	ID           string     `gorm:"primaryKey;size:32" json:"log_id"`
	ActorUserID  string     `gorm:"size:32;not null;index" json:"actor_user_id"`
	EngagementID *string    `gorm:"column:engagement_id;size:32;index" json:"engagement_id"`
	EntityType   EntityType `gorm:"type:varchar(20);not null" json:"entity_type"`
	EntityID     string     `gorm:"size:32;not null" json:"entity_id"`
	Action       ActionType `gorm:"type:varchar(10);not null" json:"action"`
	Message      string     `gorm:"type:text" json:"message"`

	// изменённые поля при UPDATE
	Changes datatypes.JSON `json:"changes,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (l *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = newID("log")
	}
	return nil
}
