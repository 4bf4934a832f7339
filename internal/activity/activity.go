// Package activity ведёт журнал действий пользователей.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"engagement-pulse/internal/access"
	"engagement-pulse/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Recorder пишет журнал действий. Запись best-effort: ошибка
// журнала не должна ронять основной запрос.
type Recorder struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewRecorder(db *gorm.DB, log *slog.Logger) *Recorder {
	return &Recorder{db: db, log: log}
}

// Entry: одна запись журнала.
type Entry struct {
	ActorUserID  string
	EntityType   models.EntityType
	EntityID     string
	Action       models.ActionType
	Message      string
	EngagementID string
	Changes      map[string]any
}

func (r *Recorder) Record(ctx context.Context, e Entry) {
	if r == nil || r.db == nil {
		return
	}

	record := models.ActivityLog{
		ActorUserID: e.ActorUserID,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Action:      e.Action,
		Message:     e.Message,
	}
	if e.EngagementID != "" {
		engID := e.EngagementID
		record.EngagementID = &engID
	}
	// колонка не бывает NULL: пустой набор изменений пишется как {}
	record.Changes = datatypes.JSON("{}")
	if len(e.Changes) > 0 {
		raw, err := json.Marshal(e.Changes)
		if err != nil {
			r.log.Warn("failed to encode activity changes",
				"entity_type", e.EntityType, "entity_id", e.EntityID, "error", err)
		} else {
			record.Changes = datatypes.JSON(raw)
		}
	}

	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		r.log.Warn("failed to write activity log",
			"entity_type", e.EntityType, "entity_id", e.EntityID, "error", err)
	}
}

const defaultLimit = 50

// List возвращает последние записи, новые первыми.
func (r *Recorder) List(ctx context.Context, caller *access.Caller, engagementID string, limit int) ([]models.ActivityLog, error) {
	if err := access.ViewPortfolio(caller); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	q := r.db.WithContext(ctx).Order("created_at desc").Limit(limit)
	if engagementID != "" {
		q = q.Where("engagement_id = ?", engagementID)
	}
	var logs []models.ActivityLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}
	return logs, nil
}
