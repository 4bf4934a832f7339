package pulse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"engagement-pulse/internal/access"
	"engagement-pulse/internal/activity"
	"engagement-pulse/internal/apperr"
	"engagement-pulse/internal/clock"
	"engagement-pulse/internal/metrics"
	"engagement-pulse/internal/models"

	"gorm.io/gorm"
)

// Service: создание и правка недельных пульсов. Пульс и побочные
// изменения engagement пишутся в одной транзакции.
type Service struct {
	db       *gorm.DB
	clock    clock.Clock
	activity *activity.Recorder
	metrics  *metrics.Metrics
	log      *slog.Logger
}

func NewService(db *gorm.DB, clk clock.Clock, rec *activity.Recorder, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{db: db, clock: clk, activity: rec, metrics: m, log: log}
}

type CreateInput struct {
	EngagementID      string            `json:"engagement_id" binding:"required"`
	RAGStatusThisWeek models.RAGStatus  `json:"rag_status_this_week" binding:"required,rag"`
	WhatWentWell      string            `json:"what_went_well"`
	DeliveredThisWeek string            `json:"delivered_this_week"`
	IssuesFacing      string            `json:"issues_facing"`
	Roadblocks        string            `json:"roadblocks"`
	PlanNextWeek      string            `json:"plan_next_week"`
	TimeAllocation    *float64          `json:"time_allocation" binding:"omitempty,gte=0"`
	Sentiment         *models.Sentiment `json:"sentiment" binding:"omitempty,sentiment"`
	IsDraft           bool              `json:"is_draft"`
}

func (in CreateInput) validate() error {
	if in.EngagementID == "" {
		return fmt.Errorf("%w: engagement_id is required", apperr.ErrValidation)
	}
	if !in.RAGStatusThisWeek.Valid() {
		return fmt.Errorf("%w: invalid rag_status_this_week %q", apperr.ErrValidation, in.RAGStatusThisWeek)
	}
	return validateOptional(in.TimeAllocation, in.Sentiment)
}

// UpdateInput: nil означает «не менять».
type UpdateInput struct {
	RAGStatusThisWeek *models.RAGStatus `json:"rag_status_this_week" binding:"omitempty,rag"`
	WhatWentWell      *string           `json:"what_went_well"`
	DeliveredThisWeek *string           `json:"delivered_this_week"`
	IssuesFacing      *string           `json:"issues_facing"`
	Roadblocks        *string           `json:"roadblocks"`
	PlanNextWeek      *string           `json:"plan_next_week"`
	TimeAllocation    *float64          `json:"time_allocation" binding:"omitempty,gte=0"`
	Sentiment         *models.Sentiment `json:"sentiment" binding:"omitempty,sentiment"`
	IsDraft           *bool             `json:"is_draft"`
}

func (in UpdateInput) validate() error {
	if in.RAGStatusThisWeek != nil && !in.RAGStatusThisWeek.Valid() {
		return fmt.Errorf("%w: invalid rag_status_this_week %q", apperr.ErrValidation, *in.RAGStatusThisWeek)
	}
	return validateOptional(in.TimeAllocation, in.Sentiment)
}

func (in UpdateInput) changes() map[string]any {
	ch := map[string]any{}
	if in.RAGStatusThisWeek != nil {
		ch["rag_status_this_week"] = *in.RAGStatusThisWeek
	}
	if in.WhatWentWell != nil {
		ch["what_went_well"] = *in.WhatWentWell
	}
	if in.DeliveredThisWeek != nil {
		ch["delivered_this_week"] = *in.DeliveredThisWeek
	}
	if in.IssuesFacing != nil {
		ch["issues_facing"] = *in.IssuesFacing
	}
	if in.Roadblocks != nil {
		ch["roadblocks"] = *in.Roadblocks
	}
	if in.PlanNextWeek != nil {
		ch["plan_next_week"] = *in.PlanNextWeek
	}
	if in.TimeAllocation != nil {
		ch["time_allocation"] = *in.TimeAllocation
	}
	if in.Sentiment != nil {
		ch["sentiment"] = *in.Sentiment
	}
	if in.IsDraft != nil {
		ch["is_draft"] = *in.IsDraft
	}
	return ch
}

func validateOptional(timeAllocation *float64, sentiment *models.Sentiment) error {
	if timeAllocation != nil && *timeAllocation < 0 {
		return fmt.Errorf("%w: time_allocation must not be negative", apperr.ErrValidation)
	}
	if sentiment != nil && !sentiment.Valid() {
		return fmt.Errorf("%w: invalid sentiment %q", apperr.ErrValidation, *sentiment)
	}
	return nil
}

// CanCreate: на пару (engagement, неделя) допускается один пульс,
// дальше только правка.
func (s *Service) CanCreate(ctx context.Context, engagementID string, weekStart time.Time) error {
	return canCreate(s.db.WithContext(ctx), engagementID, weekStart)
}

func canCreate(tx *gorm.DB, engagementID string, weekStart time.Time) error {
	var count int64
	err := tx.Model(&models.WeeklyPulse{}).
		Where("engagement_id = ? AND week_start_date = ?", engagementID, weekStart).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("check existing pulse: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: engagement %s already has a pulse for week of %s",
			apperr.ErrDuplicatePulse, engagementID, weekStart.Format("2006-01-02"))
	}
	return nil
}

// Create сохраняет пульс текущей недели. Чистовой (не черновик) пульс
// переносит свой RAG-статус на engagement.
func (s *Service) Create(ctx context.Context, caller *access.Caller, in CreateInput) (*models.WeeklyPulse, error) {
	if err := access.Authenticated(caller); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	eng, err := s.findEngagement(ctx, in.EngagementID)
	if err != nil {
		return nil, err
	}
	if err := access.SubmitPulse(caller, eng); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	weekStart := WeekStart(now)

	p := &models.WeeklyPulse{
		EngagementID:      eng.ID,
		ConsultantUserID:  caller.UserID,
		WeekStartDate:     weekStart,
		WeekEndDate:       WeekEnd(weekStart),
		RAGStatusThisWeek: in.RAGStatusThisWeek,
		WhatWentWell:      in.WhatWentWell,
		DeliveredThisWeek: in.DeliveredThisWeek,
		IssuesFacing:      in.IssuesFacing,
		Roadblocks:        in.Roadblocks,
		PlanNextWeek:      in.PlanNextWeek,
		TimeAllocation:    in.TimeAllocation,
		Sentiment:         in.Sentiment,
		SubmittedAt:       now,
		IsDraft:           in.IsDraft,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := canCreate(tx, eng.ID, weekStart); err != nil {
			return err
		}
		if err := tx.Create(p).Error; err != nil {
			// уникальный индекс ловит гонку двух одновременных созданий
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: engagement %s already has a pulse for this week", apperr.ErrDuplicatePulse, eng.ID)
			}
			return fmt.Errorf("create pulse: %w", err)
		}

		updates := map[string]any{"last_pulse_date": p.SubmittedAt}
		if !p.IsDraft {
			updates["rag_status"] = p.RAGStatusThisWeek
		}
		if err := tx.Model(&models.Engagement{}).Where("id = ?", eng.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("propagate pulse to engagement: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrDuplicatePulse) {
			s.metrics.PulseRejected("duplicate")
		}
		return nil, err
	}

	s.metrics.PulseSubmitted("create", p.IsDraft)
	s.log.Info("pulse created",
		"pulse_id", p.ID, "engagement_id", eng.ID, "week_start", weekStart.Format("2006-01-02"),
		"rag", p.RAGStatusThisWeek, "draft", p.IsDraft)
	s.activity.Record(ctx, activity.Entry{
		ActorUserID:  caller.UserID,
		EntityType:   models.EntityPulse,
		EntityID:     p.ID,
		Action:       models.ActionCreate,
		Message:      "Created pulse for week of " + weekStart.Format("2006-01-02"),
		EngagementID: eng.ID,
	})
	return p, nil
}

// Update правит существующий пульс. Если после правки пульс чистовой,
// его RAG-статус переносится на engagement.
func (s *Service) Update(ctx context.Context, caller *access.Caller, pulseID string, in UpdateInput) (*models.WeeklyPulse, error) {
	if err := access.Authenticated(caller); err != nil {
		return nil, err
	}

	p, err := s.find(ctx, pulseID)
	if err != nil {
		return nil, err
	}
	if err := access.EditPulse(caller, p); err != nil {
		return nil, err
	}
	if err := CanEdit(p, s.clock.Now(), caller.Role); err != nil {
		s.metrics.PulseRejected("edit_window_closed")
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	changes := in.changes()
	wasDraft := p.IsDraft
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(changes) > 0 {
			if err := tx.Model(p).Updates(changes).Error; err != nil {
				return fmt.Errorf("update pulse: %w", err)
			}
		}
		if err := tx.First(p, "id = ?", p.ID).Error; err != nil {
			return fmt.Errorf("reload pulse: %w", err)
		}
		// статус engagement меняется, только если правка задаёт RAG
		// или превращает черновик в чистовой пульс
		finalised := wasDraft && !p.IsDraft
		if !p.IsDraft && (in.RAGStatusThisWeek != nil || finalised) {
			err := tx.Model(&models.Engagement{}).
				Where("id = ?", p.EngagementID).
				Update("rag_status", p.RAGStatusThisWeek).Error
			if err != nil {
				return fmt.Errorf("propagate pulse to engagement: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PulseSubmitted("update", p.IsDraft)
	s.log.Info("pulse updated", "pulse_id", p.ID, "engagement_id", p.EngagementID, "draft", p.IsDraft)
	s.activity.Record(ctx, activity.Entry{
		ActorUserID:  caller.UserID,
		EntityType:   models.EntityPulse,
		EntityID:     p.ID,
		Action:       models.ActionUpdate,
		Message:      "Updated pulse",
		EngagementID: p.EngagementID,
		Changes:      changes,
	})
	return p, nil
}

func (s *Service) Get(ctx context.Context, caller *access.Caller, pulseID string) (*models.WeeklyPulse, error) {
	if err := access.Authenticated(caller); err != nil {
		return nil, err
	}
	p, err := s.find(ctx, pulseID)
	if err != nil {
		return nil, err
	}
	if err := access.ViewPulse(caller, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List: пульсы, новые недели первыми. Консультант видит только свои.
func (s *Service) List(ctx context.Context, caller *access.Caller, engagementID string, limit int) ([]models.WeeklyPulse, error) {
	if err := access.Authenticated(caller); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	q := s.db.WithContext(ctx).Order("week_start_date desc").Limit(limit)
	if caller.Scoped() {
		q = q.Where("consultant_user_id = ?", caller.UserID)
	}
	if engagementID != "" {
		q = q.Where("engagement_id = ?", engagementID)
	}

	var pulses []models.WeeklyPulse
	if err := q.Find(&pulses).Error; err != nil {
		return nil, fmt.Errorf("list pulses: %w", err)
	}
	return pulses, nil
}

// CurrentWeek возвращает пульс текущей недели или nil, если его ещё нет.
func (s *Service) CurrentWeek(ctx context.Context, caller *access.Caller, engagementID string) (*models.WeeklyPulse, error) {
	if err := access.Authenticated(caller); err != nil {
		return nil, err
	}
	eng, err := s.findEngagement(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	if err := access.ViewEngagement(caller, eng); err != nil {
		return nil, err
	}

	var p models.WeeklyPulse
	err = s.db.WithContext(ctx).
		Where("engagement_id = ? AND week_start_date = ?", engagementID, WeekStart(s.clock.Now())).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find current week pulse: %w", err)
	}
	return &p, nil
}

func (s *Service) find(ctx context.Context, pulseID string) (*models.WeeklyPulse, error) {
	var p models.WeeklyPulse
	err := s.db.WithContext(ctx).First(&p, "id = ?", pulseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: pulse %s", apperr.ErrNotFound, pulseID)
	}
	if err != nil {
		return nil, fmt.Errorf("find pulse: %w", err)
	}
	return &p, nil
}

func (s *Service) findEngagement(ctx context.Context, engagementID string) (*models.Engagement, error) {
	var eng models.Engagement
	err := s.db.WithContext(ctx).First(&eng, "id = ?", engagementID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: engagement %s", apperr.ErrNotFound, engagementID)
	}
	if err != nil {
		return nil, fmt.Errorf("find engagement: %w", err)
	}
	return &eng, nil
}
