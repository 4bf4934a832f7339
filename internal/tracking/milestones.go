package tracking

import (
	"context"
	"fmt"
	"time"

	"engagement-pulse/internal/access"
	"engagement-pulse/internal/models"
)

var milestoneMeta = meta{entity: models.EntityMilestone, noun: "milestone"}

type MilestoneInput struct {
	EngagementID      string                 `json:"engagement_id" binding:"required"`
	Title             string                 `json:"title" binding:"required"`
	Description       string                 `json:"description"`
	Owner             string                 `json:"owner"`
	DueDate           time.Time              `json:"due_date" binding:"required"`
	Status            models.MilestoneStatus `json:"status" binding:"omitempty,milestone_status"`
	CompletionPercent int                    `json:"completion_percent" binding:"gte=0,lte=100"`
	Notes             string                 `json:"notes"`
}

func (in MilestoneInput) validate() error {
	if err := required(map[string]string{"engagement_id": in.EngagementID, "title": in.Title}); err != nil {
		return err
	}
	if in.DueDate.IsZero() {
		return invalid("due_date", "empty")
	}
	if in.Status != "" && !in.Status.Valid() {
		return invalid("status", in.Status)
	}
	if in.CompletionPercent < 0 || in.CompletionPercent > 100 {
		return invalid("completion_percent", in.CompletionPercent)
	}
	return nil
}

type MilestonePatch struct {
	Title             *string                 `json:"title"`
	Description       *string                 `json:"description"`
	Owner             *string                 `json:"owner"`
	DueDate           *time.Time              `json:"due_date"`
	Status            *models.MilestoneStatus `json:"status" binding:"omitempty,milestone_status"`
	CompletionPercent *int                    `json:"completion_percent" binding:"omitempty,gte=0,lte=100"`
	Notes             *string                 `json:"notes"`
}

func (p MilestonePatch) changes() (map[string]any, error) {
	ch := map[string]any{}
	if p.Title != nil {
		if *p.Title == "" {
			return nil, invalid("title", "empty")
		}
		ch["title"] = *p.Title
	}
	if p.Description != nil {
		ch["description"] = *p.Description
	}
	if p.Owner != nil {
		ch["owner"] = *p.Owner
	}
	if p.DueDate != nil {
		ch["due_date"] = *p.DueDate
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return nil, invalid("status", *p.Status)
		}
		ch["status"] = *p.Status
	}
	if p.CompletionPercent != nil {
		if *p.CompletionPercent < 0 || *p.CompletionPercent > 100 {
			return nil, invalid("completion_percent", *p.CompletionPercent)
		}
		ch["completion_percent"] = *p.CompletionPercent
	}
	if p.Notes != nil {
		ch["notes"] = *p.Notes
	}
	return ch, nil
}

type MilestoneFilter struct {
	EngagementID string
	Status       models.MilestoneStatus
}

// ListMilestones: по возрастанию срока.
func (s *Service) ListMilestones(ctx context.Context, caller *access.Caller, f MilestoneFilter) ([]models.Milestone, error) {
	q, err := s.scoped(ctx, caller, f.EngagementID)
	if err != nil {
		return nil, err
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var out []models.Milestone
	if err := q.Order("due_date asc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	return out, nil
}

func (s *Service) CreateMilestone(ctx context.Context, caller *access.Caller, in MilestoneInput) (*models.Milestone, error) {
	if err := access.ManageEngagementData(caller); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	m := &models.Milestone{
		EngagementID:      in.EngagementID,
		Title:             in.Title,
		Description:       in.Description,
		Owner:             in.Owner,
		DueDate:           in.DueDate,
		Status:            in.Status,
		CompletionPercent: in.CompletionPercent,
		Notes:             in.Notes,
	}
	if m.Status == "" {
		m.Status = models.MilestoneNotStarted
	}

	err := create(ctx, s, caller, in.EngagementID, m, milestoneMeta, func(m *models.Milestone) (string, string) {
		return m.ID, m.Title
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) UpdateMilestone(ctx context.Context, caller *access.Caller, id string, p MilestonePatch) (*models.Milestone, error) {
	if err := access.ManageEngagementData(caller); err != nil {
		return nil, err
	}
	changes, err := p.changes()
	if err != nil {
		return nil, err
	}
	return update(ctx, s, caller, id, changes, milestoneMeta, func(m *models.Milestone) string { return m.EngagementID })
}

func (s *Service) DeleteMilestone(ctx context.Context, caller *access.Caller, id string) error {
	return remove(ctx, s, caller, id, milestoneMeta, func(m *models.Milestone) string { return m.EngagementID })
}
