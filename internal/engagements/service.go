// Package engagements ведёт жизненный цикл engagement: создание, изменение,
// удаление и чтение с обогащением.
package engagements

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"engagement-pulse/internal/access"
	"engagement-pulse/internal/activity"
	"engagement-pulse/internal/apperr"
	"engagement-pulse/internal/health"
	"engagement-pulse/internal/models"

	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	health   *health.Engine
	activity *activity.Recorder
	log      *slog.Logger
}

func NewService(db *gorm.DB, engine *health.Engine, rec *activity.Recorder, log *slog.Logger) *Service {
	return &Service{db: db, health: engine, activity: rec, log: log}
}

// ====== ВХОДНЫЕ ДАННЫЕ ======

type CreateInput struct {
	ClientID         string           `json:"client_id" binding:"required"`
	Name             string           `json:"engagement_name" binding:"required"`
	Code             string           `json:"engagement_code" binding:"required"`
	ConsultantUserID *string          `json:"consultant_user_id"`
	StartDate        time.Time        `json:"start_date" binding:"required"`
	TargetEndDate    *time.Time       `json:"target_end_date"`
	RAGStatus        models.RAGStatus `json:"rag_status" binding:"omitempty,rag"`
	RAGReason        string           `json:"rag_reason"`
	OverallSummary   string           `json:"overall_summary"`
}

func (in CreateInput) validate() error {
	if in.ClientID == "" || in.Name == "" || in.Code == "" || in.StartDate.IsZero() {
		return fmt.Errorf("%w: client_id, engagement_name, engagement_code and start_date are required", apperr.ErrValidation)
	}
	if in.RAGStatus != "" && !in.RAGStatus.Valid() {
		return fmt.Errorf("%w: unknown rag_status %q", apperr.ErrValidation, in.RAGStatus)
	}
	return nil
}

// UpdateInput: nil-поля не меняются.
type UpdateInput struct {
	Name             *string           `json:"engagement_name"`
	ConsultantUserID *string           `json:"consultant_user_id"`
	TargetEndDate    *time.Time        `json:"target_end_date"`
	RAGStatus        *models.RAGStatus `json:"rag_status" binding:"omitempty,rag"`
	RAGReason        *string           `json:"rag_reason"`
	OverallSummary   *string           `json:"overall_summary"`
	IsActive         *bool             `json:"is_active"`
}

func (in UpdateInput) validate() error {
	if in.RAGStatus != nil && !in.RAGStatus.Valid() {
		return fmt.Errorf("%w: unknown rag_status %q", apperr.ErrValidation, *in.RAGStatus)
	}
	if in.Name != nil && *in.Name == "" {
		return fmt.Errorf("%w: engagement_name cannot be empty", apperr.ErrValidation)
	}
	return nil
}

func (in UpdateInput) changes() map[string]any {
	ch := map[string]any{}
	if in.Name != nil {
		ch["engagement_name"] = *in.Name
	}
	if in.ConsultantUserID != nil {
		// пустая строка снимает консультанта
		if *in.ConsultantUserID == "" {
			ch["consultant_user_id"] = nil
		} else {
			ch["consultant_user_id"] = *in.ConsultantUserID
		}
	}
	if in.TargetEndDate != nil {
		ch["target_end_date"] = *in.TargetEndDate
	}
	if in.RAGStatus != nil {
		ch["rag_status"] = *in.RAGStatus
	}
	if in.RAGReason != nil {
		ch["rag_reason"] = *in.RAGReason
	}
	if in.OverallSummary != nil {
		ch["overall_summary"] = *in.OverallSummary
	}
	if in.IsActive != nil {
		ch["is_active"] = *in.IsActive
	}
	return ch
}

// ====== ИЗМЕНЕНИЕ ======

func (s *Service) Create(ctx context.Context, caller *access.Caller, in CreateInput) (*models.Engagement, error) {
	if err := access.CreateEngagement(caller); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	e := &models.Engagement{
		ClientID:       in.ClientID,
		Name:           in.Name,
		Code:           in.Code,
		StartDate:      in.StartDate,
		TargetEndDate:  in.TargetEndDate,
		RAGStatus:      in.RAGStatus,
		RAGReason:      in.RAGReason,
		OverallSummary: in.OverallSummary,
		HealthScore:    100,
		IsActive:       true,
	}
	if in.ConsultantUserID != nil && *in.ConsultantUserID != "" {
		id := *in.ConsultantUserID
		e.ConsultantUserID = &id
	}
	if e.RAGStatus == "" {
		e.RAGStatus = models.RAGGreen
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureClient(tx, e.ClientID); err != nil {
			return err
		}
		if err := ensureCodeFree(tx, e.Code); err != nil {
			return err
		}
		if e.ConsultantUserID != nil {
			if err := ensureConsultantFree(tx, *e.ConsultantUserID, ""); err != nil {
				return err
			}
		}
		if err := tx.Create(e).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: engagement code or consultant already taken", apperr.ErrConflictingAssignment)
			}
			return fmt.Errorf("create engagement: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflictingAssignment) {
			s.log.Info("engagement assignment rejected", "consultant_user_id", in.ConsultantUserID, "error", err)
		}
		return nil, err
	}

	s.log.Info("engagement created", "engagement_id", e.ID, "code", e.Code)
	s.activity.Record(ctx, activity.Entry{
		ActorUserID:  caller.UserID,
		EntityType:   models.EntityEngagement,
		EntityID:     e.ID,
		Action:       models.ActionCreate,
		Message:      "Created engagement: " + e.Name,
		EngagementID: e.ID,
	})

	if _, err := s.health.Assess(ctx, e); err != nil {
		return nil, fmt.Errorf("score engagement: %w", err)
	}
	return e, nil
}

func (s *Service) Update(ctx context.Context, caller *access.Caller, engagementID string, in UpdateInput) (*models.Engagement, error) {
	if err := access.ManageEngagementData(caller); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	changes := in.changes()
	var e models.Engagement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&e, "id = ?", engagementID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: engagement %s", apperr.ErrNotFound, engagementID)
			}
			return fmt.Errorf("find engagement: %w", err)
		}
		if len(changes) == 0 {
			return nil
		}

		// конфликт возможен и при смене консультанта, и при повторной активации
		consultant := e.ConsultantUserID
		if in.ConsultantUserID != nil {
			consultant = in.ConsultantUserID
		}
		active := e.IsActive
		if in.IsActive != nil {
			active = *in.IsActive
		}
		if active && consultant != nil && *consultant != "" {
			if err := ensureConsultantFree(tx, *consultant, e.ID); err != nil {
				return err
			}
		}

		if err := tx.Model(&e).Updates(changes).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: consultant already assigned", apperr.ErrConflictingAssignment)
			}
			return fmt.Errorf("update engagement: %w", err)
		}
		return tx.First(&e, "id = ?", engagementID).Error
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity.Entry{
		ActorUserID:  caller.UserID,
		EntityType:   models.EntityEngagement,
		EntityID:     e.ID,
		Action:       models.ActionUpdate,
		Message:      "Updated engagement",
		EngagementID: e.ID,
		Changes:      changes,
	})

	if _, err := s.health.Assess(ctx, &e); err != nil {
		return nil, fmt.Errorf("score engagement: %w", err)
	}
	return &e, nil
}

// Delete удаляет engagement вместе с пульсами, вехами, рисками, проблемами
// и контактами в одной транзакции. Журнал действий сохраняется.
func (s *Service) Delete(ctx context.Context, caller *access.Caller, engagementID string) error {
	if err := access.Delete(caller); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		children := []any{
			&models.WeeklyPulse{}, &models.Milestone{}, &models.Risk{}, &models.Issue{}, &models.Contact{},
		}
		for _, child := range children {
			if err := tx.Where("engagement_id = ?", engagementID).Delete(child).Error; err != nil {
				return fmt.Errorf("delete engagement children: %w", err)
			}
		}

		res := tx.Delete(&models.Engagement{}, "id = ?", engagementID)
		if res.Error != nil {
			return fmt.Errorf("delete engagement: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: engagement %s", apperr.ErrNotFound, engagementID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("engagement deleted", "engagement_id", engagementID)
	s.activity.Record(ctx, activity.Entry{
		ActorUserID:  caller.UserID,
		EntityType:   models.EntityEngagement,
		EntityID:     engagementID,
		Action:       models.ActionDelete,
		Message:      "Deleted engagement",
		EngagementID: engagementID,
	})
	return nil
}

// ====== ПРОВЕРКИ ======

func ensureClient(tx *gorm.DB, clientID string) error {
	var n int64
	if err := tx.Model(&models.Client{}).Where("id = ?", clientID).Count(&n).Error; err != nil {
		return fmt.Errorf("check client: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: client %s", apperr.ErrNotFound, clientID)
	}
	return nil
}

func ensureCodeFree(tx *gorm.DB, code string) error {
	var n int64
	if err := tx.Model(&models.Engagement{}).Where("engagement_code = ?", code).Count(&n).Error; err != nil {
		return fmt.Errorf("check engagement code: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: engagement code %s already exists", apperr.ErrValidation, code)
	}
	return nil
}

// ensureConsultantFree: консультант не должен быть назначен на другое
// активное engagement. exceptID исключает само изменяемое engagement.
func ensureConsultantFree(tx *gorm.DB, consultantID, exceptID string) error {
	q := tx.Model(&models.Engagement{}).
		Where("consultant_user_id = ? AND is_active = ?", consultantID, true)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return fmt.Errorf("check consultant assignment: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: consultant %s is already assigned to an active engagement",
			apperr.ErrConflictingAssignment, consultantID)
	}
	return nil
}
