package models

import (
	"time"

	"gorm.io/gorm"
)

type IssueSeverity string

const (
	SeverityLow      IssueSeverity = "LOW"
	SeverityMedium   IssueSeverity = "MEDIUM"
	SeverityHigh     IssueSeverity = "HIGH"
	SeverityCritical IssueSeverity = "CRITICAL"
)

func (s IssueSeverity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

type IssueStatus string

const (
	IssueOpen       IssueStatus = "OPEN"
	IssueInProgress IssueStatus = "IN_PROGRESS"
	IssueBlocked    IssueStatus = "BLOCKED"
	IssueResolved   IssueStatus = "RESOLVED"
	IssueClosed     IssueStatus = "CLOSED"
)

// OpenIssueStatuses: статусы нерешённых проблем.
var OpenIssueStatuses = []IssueStatus{IssueOpen, IssueInProgress, IssueBlocked}

func (s IssueStatus) Valid() bool {
	switch s {
	case IssueOpen, IssueInProgress, IssueBlocked, IssueResolved, IssueClosed:
		return true
	}
	return false
}

func (s IssueStatus) Open() bool {
	switch s {
	case IssueOpen, IssueInProgress, IssueBlocked:
		return true
	}
	return false
}

type Issue struct {
	ID           string        `gorm:"primaryKey;size:32" json:"issue_id"`
	EngagementID string        `gorm:"column:engagement_id;size:32;not null;index" json:"engagement_id"`
	Title        string        `gorm:"size:255;not null" json:"title"`
	Description  string        `gorm:"type:text;not null" json:"description"`
	Severity     IssueSeverity `gorm:"type:varchar(10);not null;index" json:"severity"`
	Status       IssueStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	Owner        string        `gorm:"size:255" json:"owner,omitempty"`
	BlockedBy    string        `gorm:"size:255" json:"blocked_by,omitempty"`
	DueDate      *time.Time    `json:"due_date"`
	Resolution   string        `gorm:"type:text" json:"resolution,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *Issue) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = newID("issue")
	}
	if i.Status == "" {
		i.Status = IssueOpen
	}
	return nil
}
