package tracking

import (
	"context"
	"fmt"
	"time"

	"engagement-pulse/internal/access"
	"engagement-pulse/internal/models"
)

var riskMeta = meta{entity: models.EntityRisk, noun: "risk"}

type RiskInput struct {
	EngagementID         string              `json:"engagement_id" binding:"required"`
	Title                string              `json:"title" binding:"required"`
	Description          string              `json:"description" binding:"required"`
	Category             models.RiskCategory `json:"category" binding:"required,risk_category"`
	Probability          models.Level        `json:"probability" binding:"required,level"`
	Impact               models.Level        `json:"impact" binding:"required,level"`
	MitigationPlan       string              `json:"mitigation_plan"`
	Owner                string              `json:"owner"`
	Status               models.RiskStatus   `json:"status" binding:"omitempty,risk_status"`
	TargetResolutionDate *time.Time          `json:"target_resolution_date"`
}

func (in RiskInput) validate() error {
	err := required(map[string]string{
		"engagement_id": in.EngagementID,
		"title":         in.Title,
		"description":   in.Description,
	})
	if err != nil {
		return err
	}
	switch {
	case !in.Category.Valid():
		return invalid("category", in.Category)
	case !in.Probability.Valid():
		return invalid("probability", in.Probability)
	case !in.Impact.Valid():
		return invalid("impact", in.Impact)
	case in.Status != "" && !in.Status.Valid():
		return invalid("status", in.Status)
	}
	return nil
}

type RiskPatch struct {
	Title                *string              `json:"title"`
	Description          *string              `json:"description"`
	Category             *models.RiskCategory `json:"category" binding:"omitempty,risk_category"`
	Probability          *models.Level        `json:"probability" binding:"omitempty,level"`
	Impact               *models.Level        `json:"impact" binding:"omitempty,level"`
	MitigationPlan       *string              `json:"mitigation_plan"`
	Owner                *string              `json:"owner"`
	Status               *models.RiskStatus   `json:"status" binding:"omitempty,risk_status"`
	TargetResolutionDate *time.Time           `json:"target_resolution_date"`
	LastReviewedDate     *time.Time           `json:"last_reviewed_date"`
}

func (p RiskPatch) changes() (map[string]any, error) {
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
	if p.Category != nil {
		if !p.Category.Valid() {
			return nil, invalid("category", *p.Category)
		}
		ch["category"] = *p.Category
	}
	if p.Probability != nil {
		if !p.Probability.Valid() {
			return nil, invalid("probability", *p.Probability)
		}
		ch["probability"] = *p.Probability
	}
	if p.Impact != nil {
		if !p.Impact.Valid() {
			return nil, invalid("impact", *p.Impact)
		}
		ch["impact"] = *p.Impact
	}
	if p.MitigationPlan != nil {
		ch["mitigation_plan"] = *p.MitigationPlan
	}
	if p.Owner != nil {
		ch["owner"] = *p.Owner
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return nil, invalid("status", *p.Status)
		}
		ch["status"] = *p.Status
	}
	if p.TargetResolutionDate != nil {
		ch["target_resolution_date"] = *p.TargetResolutionDate
	}
	if p.LastReviewedDate != nil {
		ch["last_reviewed_date"] = *p.LastReviewedDate
	}
	return ch, nil
}

type RiskFilter struct {
	EngagementID string
	Status       models.RiskStatus
}

func (s *Service) ListRisks(ctx context.Context, caller *access.Caller, f RiskFilter) ([]models.Risk, error) {
	q, err := s.scoped(ctx, caller, f.EngagementID)
	if err != nil {
		return nil, err
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var out []models.Risk
	if err := q.Order("created_at asc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list risks: %w", err)
	}
	return out, nil
}

func (s *Service) CreateRisk(ctx context.Context, caller *access.Caller, in RiskInput) (*models.Risk, error) {
	if err := access.ManageEngagementData(caller); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	r := &models.Risk{
		EngagementID:         in.EngagementID,
		Title:                in.Title,
		Description:          in.Description,
		Category:             in.Category,
		Probability:          in.Probability,
		Impact:               in.Impact,
		MitigationPlan:       in.MitigationPlan,
		Owner:                in.Owner,
		Status:               in.Status,
		TargetResolutionDate: in.TargetResolutionDate,
	}
	err := create(ctx, s, caller, in.EngagementID, r, riskMeta, func(r *models.Risk) (string, string) {
		return r.ID, r.Title
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) UpdateRisk(ctx context.Context, caller *access.Caller, id string, p RiskPatch) (*models.Risk, error) {
	if err := access.ManageEngagementData(caller); err != nil {
		return nil, err
	}
	changes, err := p.changes()
	if err != nil {
		return nil, err
	}
	return update(ctx, s, caller, id, changes, riskMeta, func(r *models.Risk) string { return r.EngagementID })
}

func (s *Service) DeleteRisk(ctx context.Context, caller *access.Caller, id string) error {
	return remove(ctx, s, caller, id, riskMeta, func(r *models.Risk) string { return r.EngagementID })
}
