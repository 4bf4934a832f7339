package models

import (
	"time"

	"gorm.io/gorm"
)

type RiskCategory string

const (
	RiskScope      RiskCategory = "SCOPE"
	RiskSchedule   RiskCategory = "SCHEDULE"
	RiskResourcing RiskCategory = "RESOURCING"
	RiskDependency RiskCategory = "DEPENDENCY"
	RiskTech       RiskCategory = "TECH"
	RiskSecurity   RiskCategory = "SECURITY"
	RiskBudget     RiskCategory = "BUDGET"
	RiskOther      RiskCategory = "OTHER"
)

func (c RiskCategory) Valid() bool {
	switch c {
	case RiskScope, RiskSchedule, RiskResourcing, RiskDependency,
		RiskTech, RiskSecurity, RiskBudget, RiskOther:
		return true
	}
	return false
}

// Level: шкала и для вероятности, и для влияния риска.
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

func (l Level) Valid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh:
		return true
	}
	return false
}

type RiskStatus string

const (
	RiskOpen       RiskStatus = "OPEN"
	RiskMitigating RiskStatus = "MITIGATING"
	RiskAccepted   RiskStatus = "ACCEPTED"
	RiskClosed     RiskStatus = "CLOSED"
)

func (s RiskStatus) Valid() bool {
	switch s {
	case RiskOpen, RiskMitigating, RiskAccepted, RiskClosed:
		return true
	}
	return false
}

type Risk struct {
	ID           string       `gorm:"primaryKey;size:32" json:"risk_id"`
	EngagementID string       `gorm:"column:engagement_id;size:32;not null;index" json:"engagement_id"`
	Title        string       `gorm:"size:255;not null" json:"title"`
	Description  string       `gorm:"type:text;not null" json:"description"`
	Category     RiskCategory `gorm:"type:varchar(20);not null" json:"category"`
	Probability  Level        `gorm:"type:varchar(10);not null" json:"probability"`
	Impact       Level        `gorm:"type:varchar(10);not null" json:"impact"`

	MitigationPlan string     `gorm:"type:text" json:"mitigation_plan,omitempty"`
	Owner          string     `gorm:"size:255" json:"owner,omitempty"`
	Status         RiskStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	TargetResolutionDate *time.Time `json:"target_resolution_date"`
	LastReviewedDate     *time.Time `json:"last_reviewed_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Risk) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = newID("risk")
	}
	if r.Status == "" {
		r.Status = RiskOpen
	}
	return nil
}

// HighHigh: открытый риск с высокой вероятностью и высоким влиянием.
func (r Risk) HighHigh() bool {
	return r.Status == RiskOpen && r.Probability == LevelHigh && r.Impact == LevelHigh
}
