package models

import (
	"time"

	"gorm.io/gorm"
)

type RAGStatus string

const (
	RAGGreen RAGStatus = "GREEN"
	RAGAmber RAGStatus = "AMBER"
	RAGRed   RAGStatus = "RED"
)

// RAGStatuses: от лучшего к худшему.
var RAGStatuses = []RAGStatus{RAGGreen, RAGAmber, RAGRed}

func (s RAGStatus) Valid() bool {
	switch s {
	case RAGGreen, RAGAmber, RAGRed:
		return true
	}
	return false
}

type Engagement struct {
	ID       string `gorm:"primaryKey;size:32" json:"engagement_id"`
	ClientID string `gorm:"size:32;not null;index" json:"client_id"`
	Name     string `gorm:"column:engagement_name;size:255;not null" json:"engagement_name"`
	Code     string `gorm:"column:engagement_code;size:64;not null;uniqueIndex" json:"engagement_code"`

	// один консультант может быть назначен только на одно активное engagement
	ConsultantUserID *string `gorm:"column:consultant_user_id;size:32;uniqueIndex:idx_engagements_active_consultant,where:is_active = true" json:"consultant_user_id"`

	StartDate     time.Time  `json:"start_date"`
	TargetEndDate *time.Time `json:"target_end_date"`

	RAGStatus      RAGStatus `gorm:"column:rag_status;type:varchar(10);not null;index" json:"rag_status"`
	RAGReason      string    `gorm:"column:rag_reason;type:text" json:"rag_reason,omitempty"`
	OverallSummary string    `gorm:"type:text" json:"overall_summary,omitempty"`

	LastPulseDate *time.Time `json:"last_pulse_date"`
	HealthScore   int        `gorm:"not null" json:"health_score"` // кэш, пересчитывается при чтении
	IsActive      bool       `gorm:"column:is_active;not null;index" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *Engagement) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = newID("eng")
	}
	if e.RAGStatus == "" {
		e.RAGStatus = RAGGreen
	}
	return nil
}

// AssignedTo: назначен ли userID консультантом engagement.
func (e *Engagement) AssignedTo(userID string) bool {
	return e.ConsultantUserID != nil && *e.ConsultantUserID == userID
}
