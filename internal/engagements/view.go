package engagements

import (
	"context"
	"errors"
	"fmt"

	"engagement-pulse/internal/access"
	"engagement-pulse/internal/apperr"
	"engagement-pulse/internal/models"

	"gorm.io/gorm"
)

// IssuesSummary: число открытых проблем по важности.
type IssuesSummary struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// View: engagement с клиентом, консультантом и пересчитанной оценкой.
// Client и Consultant равны nil, если связанной записи нет.
type View struct {
	models.Engagement
	Client        *models.Client `json:"client"`
	Consultant    *models.User   `json:"consultant"`
	IssuesSummary IssuesSummary  `json:"issues_summary"`
	RisksCount    int            `json:"risks_count"`
}

// Filter: фильтры списка. Для консультанта игнорируются.
type Filter struct {
	ClientID         string
	ConsultantUserID string
	RAGStatus        models.RAGStatus
	IsActive         *bool
}

func (s *Service) List(ctx context.Context, caller *access.Caller, f Filter) ([]View, error) {
	if err := access.Authenticated(caller); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Order("created_at asc")
	if caller.Scoped() {
		q = q.Where("consultant_user_id = ?", caller.UserID)
	} else {
		if f.ClientID != "" {
			q = q.Where("client_id = ?", f.ClientID)
		}
		if f.ConsultantUserID != "" {
			q = q.Where("consultant_user_id = ?", f.ConsultantUserID)
		}
		if f.RAGStatus != "" {
			q = q.Where("rag_status = ?", f.RAGStatus)
		}
		if f.IsActive != nil {
			q = q.Where("is_active = ?", *f.IsActive)
		}
	}

	var list []models.Engagement
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list engagements: %w", err)
	}

	views := make([]View, 0, len(list))
	for i := range list {
		v, err := s.enrich(ctx, &list[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

func (s *Service) Get(ctx context.Context, caller *access.Caller, engagementID string) (*View, error) {
	if err := access.Authenticated(caller); err != nil {
		return nil, err
	}

	e, err := s.find(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	if err := access.ViewEngagement(caller, e); err != nil {
		return nil, err
	}
	return s.enrich(ctx, e)
}

func (s *Service) find(ctx context.Context, engagementID string) (*models.Engagement, error) {
	var e models.Engagement
	err := s.db.WithContext(ctx).First(&e, "id = ?", engagementID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: engagement %s", apperr.ErrNotFound, engagementID)
	}
	if err != nil {
		return nil, fmt.Errorf("find engagement: %w", err)
	}
	return &e, nil
}

func (s *Service) enrich(ctx context.Context, e *models.Engagement) (*View, error) {
	db := s.db.WithContext(ctx)
	v := &View{Engagement: *e}

	var client models.Client
	err := db.Where("id = ?", e.ClientID).Limit(1).Find(&client).Error
	if err != nil {
		return nil, fmt.Errorf("load client: %w", err)
	}
	if client.ID != "" {
		v.Client = &client
	}

	if e.ConsultantUserID != nil {
		var u models.User
		if err := db.Where("id = ?", *e.ConsultantUserID).Limit(1).Find(&u).Error; err != nil {
			return nil, fmt.Errorf("load consultant: %w", err)
		}
		if u.ID != "" {
			v.Consultant = &u
		}
	}

	a, err := s.health.Assess(ctx, e)
	if err != nil {
		return nil, err
	}
	v.HealthScore = a.Score
	for _, i := range a.OpenIssues {
		switch i.Severity {
		case models.SeverityCritical:
			v.IssuesSummary.Critical++
		case models.SeverityHigh:
			v.IssuesSummary.High++
		case models.SeverityMedium:
			v.IssuesSummary.Medium++
		case models.SeverityLow:
			v.IssuesSummary.Low++
		}
	}

	var risks int64
	err = db.Model(&models.Risk{}).
		Where("engagement_id = ? AND status = ?", e.ID, models.RiskOpen).
		Count(&risks).Error
	if err != nil {
		return nil, fmt.Errorf("count open risks: %w", err)
	}
	v.RisksCount = int(risks)
	return v, nil
}
