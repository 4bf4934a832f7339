// Package tracking хранит вехи, риски, проблемы и контакты engagement.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"engagement-pulse/internal/access"
	"engagement-pulse/internal/activity"
	"engagement-pulse/internal/apperr"
	"engagement-pulse/internal/models"

	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	activity *activity.Recorder
	log      *slog.Logger
}

func NewService(db *gorm.DB, rec *activity.Recorder, log *slog.Logger) *Service {
	return &Service{db: db, activity: rec, log: log}
}

// scoped строит запрос списка. С engagementID проверяется доступ к нему;
// без него консультант видит записи только своих engagement.
func (s *Service) scoped(ctx context.Context, caller *access.Caller, engagementID string) (*gorm.DB, error) {
	if err := access.Authenticated(caller); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx)
	if engagementID != "" {
		e, err := s.engagement(ctx, engagementID)
		if err != nil {
			return nil, err
		}
		if err := access.ViewEngagement(caller, e); err != nil {
			return nil, err
		}
		return q.Where("engagement_id = ?", engagementID), nil
	}

	if caller.Scoped() {
		own := s.db.Model(&models.Engagement{}).Select("id").Where("consultant_user_id = ?", caller.UserID)
		q = q.Where("engagement_id IN (?)", own)
	}
	return q, nil
}

func (s *Service) engagement(ctx context.Context, engagementID string) (*models.Engagement, error) {
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

// ====== ОБЩИЕ ОПЕРАЦИИ ======

// record: дочерняя запись engagement.
type record interface {
	models.Milestone | models.Risk | models.Issue | models.Contact
}

type meta struct {
	entity models.EntityType
	noun   string
}

// create пишет запись; describe вызывается после вставки, когда id уже присвоен.
func create[T record](ctx context.Context, s *Service, caller *access.Caller, engagementID string, rec *T, m meta, describe func(*T) (id, title string)) error {
	if err := access.ManageEngagementData(caller); err != nil {
		return err
	}
	if _, err := s.engagement(ctx, engagementID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("create %s: %w", m.noun, err)
	}

	id, title := describe(rec)
	s.activity.Record(ctx, activity.Entry{
		ActorUserID:  caller.UserID,
		EntityType:   m.entity,
		EntityID:     id,
		Action:       models.ActionCreate,
		Message:      fmt.Sprintf("Created %s: %s", m.noun, title),
		EngagementID: engagementID,
	})
	return nil
}

func find[T record](ctx context.Context, db *gorm.DB, id string, m meta) (*T, error) {
	var rec T
	err := db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s %s", apperr.ErrNotFound, m.noun, id)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", m.noun, err)
	}
	return &rec, nil
}

func update[T record](ctx context.Context, s *Service, caller *access.Caller, id string, changes map[string]any, m meta, engagementOf func(*T) string) (*T, error) {
	if err := access.ManageEngagementData(caller); err != nil {
		return nil, err
	}
	rec, err := find[T](ctx, s.db, id, m)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return rec, nil
	}

	if err := s.db.WithContext(ctx).Model(rec).Updates(changes).Error; err != nil {
		return nil, fmt.Errorf("update %s: %w", m.noun, err)
	}
	if rec, err = find[T](ctx, s.db, id, m); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity.Entry{
		ActorUserID:  caller.UserID,
		EntityType:   m.entity,
		EntityID:     id,
		Action:       models.ActionUpdate,
		Message:      "Updated " + m.noun,
		EngagementID: engagementOf(rec),
		Changes:      changes,
	})
	return rec, nil
}

func remove[T record](ctx context.Context, s *Service, caller *access.Caller, id string, m meta, engagementOf func(*T) string) error {
	if err := access.Delete(caller); err != nil {
		return err
	}
	rec, err := find[T](ctx, s.db, id, m)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(rec).Error; err != nil {
		return fmt.Errorf("delete %s: %w", m.noun, err)
	}

	s.activity.Record(ctx, activity.Entry{
		ActorUserID:  caller.UserID,
		EntityType:   m.entity,
		EntityID:     id,
		Action:       models.ActionDelete,
		Message:      "Deleted " + m.noun,
		EngagementID: engagementOf(rec),
	})
	return nil
}

func required(fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("%w: required: %s", apperr.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

func invalid(field string, v any) error {
	return fmt.Errorf("%w: invalid %s %v", apperr.ErrValidation, field, v)
}
