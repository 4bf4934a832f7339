package tracking

import (
	"context"
	"fmt"
	"time"

	"engagement-pulse/internal/access"
	"engagement-pulse/internal/models"
)

var issueMeta = meta{entity: models.EntityIssue, noun: "issue"}

type IssueInput struct {
	EngagementID string               `json:"engagement_id" binding:"required"`
	Title        string               `json:"title" binding:"required"`
	Description  string               `json:"description" binding:"required"`
	Severity     models.IssueSeverity `json:"severity" binding:"required,severity"`
	Status       models.IssueStatus   `json:"status" binding:"omitempty,issue_status"`
	Owner        string               `json:"owner"`
	BlockedBy    string               `json:"blocked_by"`
	DueDate      *time.Time           `json:"due_date"`
}

func (in IssueInput) validate() error {
	err := required(map[string]string{
		"engagement_id": in.EngagementID,
		"title":         in.Title,
		"description":   in.Description,
	})
	if err != nil {
		return err
	}
	if !in.Severity.Valid() {
		return invalid("severity", in.Severity)
	}
	if in.Status != "" && !in.Status.Valid() {
		return invalid("status", in.Status)
	}
	return nil
}

type IssuePatch struct {
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	Severity    *models.IssueSeverity `json:"severity" binding:"omitempty,severity"`
	Status      *models.IssueStatus   `json:"status" binding:"omitempty,issue_status"`
	Owner       *string               `json:"owner"`
	BlockedBy   *string               `json:"blocked_by"`
	DueDate     *time.Time            `json:"due_date"`
	Resolution  *string               `json:"resolution"`
}

func (p IssuePatch) changes() (map[string]any, error) {
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
	if p.Severity != nil {
		if !p.Severity.Valid() {
			return nil, invalid("severity", *p.Severity)
		}
		ch["severity"] = *p.Severity
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return nil, invalid("status", *p.Status)
		}
		ch["status"] = *p.Status
	}
	if p.Owner != nil {
		ch["owner"] = *p.Owner
	}
	if p.BlockedBy != nil {
		ch["blocked_by"] = *p.BlockedBy
	}
	if p.DueDate != nil {
		ch["due_date"] = *p.DueDate
	}
	if p.Resolution != nil {
		ch["resolution"] = *p.Resolution
	}
	return ch, nil
}

type IssueFilter struct {
	EngagementID string
	Status       models.IssueStatus
	Severity     models.IssueSeverity
}

func (s *Service) ListIssues(ctx context.Context, caller *access.Caller, f IssueFilter) ([]models.Issue, error) {
	q, err := s.scoped(ctx, caller, f.EngagementID)
	if err != nil {
		return nil, err
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Severity != "" {
		q = q.Where("severity = ?", f.Severity)
	}

	var out []models.Issue
	if err := q.Order("created_at asc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	return out, nil
}

func (s *Service) CreateIssue(ctx context.Context, caller *access.Caller, in IssueInput) (*models.Issue, error) {
	if err := access.ManageEngagementData(caller); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	i := &models.Issue{
		EngagementID: in.EngagementID,
		Title:        in.Title,
		Description:  in.Description,
		Severity:     in.Severity,
		Status:       in.Status,
		Owner:        in.Owner,
		BlockedBy:    in.BlockedBy,
		DueDate:      in.DueDate,
	}
	err := create(ctx, s, caller, in.EngagementID, i, issueMeta, func(i *models.Issue) (string, string) {
		return i.ID, i.Title
	})
	if err != nil {
		return nil, err
	}
	return i, nil
}

func (s *Service) UpdateIssue(ctx context.Context, caller *access.Caller, id string, p IssuePatch) (*models.Issue, error) {
	if err := access.ManageEngagementData(caller); err != nil {
		return nil, err
	}
	changes, err := p.changes()
	if err != nil {
		return nil, err
	}
	return update(ctx, s, caller, id, changes, issueMeta, func(i *models.Issue) string { return i.EngagementID })
}

func (s *Service) DeleteIssue(ctx context.Context, caller *access.Caller, id string) error {
	return remove(ctx, s, caller, id, issueMeta, func(i *models.Issue) string { return i.EngagementID })
}
