package models

import (
	"time"

	"gorm.io/gorm"
)

type Sentiment string

const (
	SentimentHigh Sentiment = "HIGH"
	SentimentOK   Sentiment = "OK"
	SentimentLow  Sentiment = "LOW"
)

func (s Sentiment) Valid() bool {
	switch s {
	case SentimentHigh, SentimentOK, SentimentLow:
		return true
	}
	return false
}

// WeeklyPulse: отчёт консультанта по одному engagement за одну ISO-неделю.
type WeeklyPulse struct {
	ID               string `gorm:"primaryKey;size:32" json:"pulse_id"`
	EngagementID     string `gorm:"column:engagement_id;size:32;not null;uniqueIndex:idx_pulses_engagement_week,priority:1" json:"engagement_id"`
	ConsultantUserID string `gorm:"column:consultant_user_id;size:32;not null;index" json:"consultant_user_id"`

	WeekStartDate time.Time `gorm:"column:week_start_date;not null;uniqueIndex:idx_pulses_engagement_week,priority:2" json:"week_start_date"`
	WeekEndDate   time.Time `gorm:"column:week_end_date;not null" json:"week_end_date"`

	RAGStatusThisWeek RAGStatus `gorm:"column:rag_status_this_week;type:varchar(10);not null" json:"rag_status_this_week"`

	WhatWentWell      string     `gorm:"type:text" json:"what_went_well,omitempty"`
	DeliveredThisWeek string     `gorm:"type:text" json:"delivered_this_week,omitempty"`
	IssuesFacing      string     `gorm:"type:text" json:"issues_facing,omitempty"`
	Roadblocks        string     `gorm:"type:text" json:"roadblocks,omitempty"`
	PlanNextWeek      string     `gorm:"type:text" json:"plan_next_week,omitempty"`
	TimeAllocation    *float64   `json:"time_allocation"`
	Sentiment         *Sentiment `gorm:"type:varchar(10)" json:"sentiment"`

	SubmittedAt time.Time `json:"submitted_at"`
	IsDraft     bool      `gorm:"column:is_draft;not null" json:"is_draft"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (WeeklyPulse) TableName() string {
	return "weekly_pulses"
}

func (p *WeeklyPulse) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = newID("pulse")
	}
	return nil
}
