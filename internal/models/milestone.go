package models

import (
	"time"

	"gorm.io/gorm"
)

type MilestoneStatus string

const (
	MilestoneNotStarted MilestoneStatus = "NOT_STARTED"
	MilestoneInProgress MilestoneStatus = "IN_PROGRESS"
	MilestoneAtRisk     MilestoneStatus = "AT_RISK"
	MilestoneDone       MilestoneStatus = "DONE"
	MilestoneBlocked    MilestoneStatus = "BLOCKED"
)

func (s MilestoneStatus) Valid() bool {
	switch s {
	case MilestoneNotStarted, MilestoneInProgress, MilestoneAtRisk, MilestoneDone, MilestoneBlocked:
		return true
	}
	return false
}

type Milestone struct {
	ID                string          `gorm:"primaryKey;size:32" json:"milestone_id"`
	EngagementID      string          `gorm:"column:engagement_id;size:32;not null;index" json:"engagement_id"`
	Title             string          `gorm:"size:255;not null" json:"title"`
	Description       string          `gorm:"type:text" json:"description,omitempty"`
	Owner             string          `gorm:"size:255" json:"owner,omitempty"`
	DueDate           time.Time       `gorm:"column:due_date;not null" json:"due_date"`
	Status            MilestoneStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CompletionPercent int             `json:"completion_percent"`
	Notes             string          `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Milestone) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = newID("ms")
	}
	if m.Status == "" {
		m.Status = MilestoneNotStarted
	}
	return nil
}
