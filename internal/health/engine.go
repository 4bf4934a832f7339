package health

import (
	"context"
	"fmt"

	"engagement-pulse/internal/clock"
	"engagement-pulse/internal/metrics"
	"engagement-pulse/internal/models"
	"engagement-pulse/internal/pulse"

	"gorm.io/gorm"
)

// Engine загружает входные данные из БД и считает оценку. Сохранённое
// в engagement значение health_score не используется для расчёта, а только
// обновляется после него.
type Engine struct {
	db      *gorm.DB
	clock   clock.Clock
	metrics *metrics.Metrics
}

func NewEngine(db *gorm.DB, clk clock.Clock, m *metrics.Metrics) *Engine {
	return &Engine{db: db, clock: clk, metrics: m}
}

// Assessment: оценка и данные, из которых она получена.
type Assessment struct {
	Score            int
	OpenIssues       []models.Issue
	HighHighRisks    []models.Risk
	HasPulseThisWeek bool
}

func (en *Engine) Assess(ctx context.Context, e *models.Engagement) (*Assessment, error) {
	db := en.db.WithContext(ctx)
	a := &Assessment{}

	err := db.Where("engagement_id = ? AND status IN ?", e.ID, models.OpenIssueStatuses).
		Order("created_at asc").
		Find(&a.OpenIssues).Error
	if err != nil {
		return nil, fmt.Errorf("load open issues: %w", err)
	}

	err = db.Where("engagement_id = ? AND status = ? AND probability = ? AND impact = ?",
		e.ID, models.RiskOpen, models.LevelHigh, models.LevelHigh).
		Find(&a.HighHighRisks).Error
	if err != nil {
		return nil, fmt.Errorf("load high risks: %w", err)
	}

	var pulses int64
	err = db.Model(&models.WeeklyPulse{}).
		Where("engagement_id = ? AND week_start_date = ?", e.ID, pulse.WeekStart(en.clock.Now())).
		Count(&pulses).Error
	if err != nil {
		return nil, fmt.Errorf("check current week pulse: %w", err)
	}
	a.HasPulseThisWeek = pulses > 0

	a.Score = Score(e, a.OpenIssues, a.HighHighRisks, a.HasPulseThisWeek)
	en.metrics.HealthScore(a.Score)

	// кэш в engagements.health_score, updated_at не трогаем
	if e.HealthScore != a.Score {
		err = db.Model(&models.Engagement{}).Where("id = ?", e.ID).
			UpdateColumn("health_score", a.Score).Error
		if err != nil {
			return nil, fmt.Errorf("store health score: %w", err)
		}
	}
	e.HealthScore = a.Score
	return a, nil
}

// Compute: только оценка.
func (en *Engine) Compute(ctx context.Context, e *models.Engagement) (int, error) {
	a, err := en.Assess(ctx, e)
	if err != nil {
		return 0, err
	}
	return a.Score, nil
}
