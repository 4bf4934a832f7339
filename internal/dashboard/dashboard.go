// Package dashboard собирает сводку для руководителей и историю RAG по engagement.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"engagement-pulse/internal/access"
	"engagement-pulse/internal/apperr"
	"engagement-pulse/internal/clock"
	"engagement-pulse/internal/health"
	"engagement-pulse/internal/metrics"
	"engagement-pulse/internal/models"
	"engagement-pulse/internal/pulse"

	"gorm.io/gorm"
)

const (
	listCap           = 10
	milestoneHorizon  = 30 * 24 * time.Hour
	DefaultTrendWeeks = 8
)

type Service struct {
	db      *gorm.DB
	clock   clock.Clock
	health  *health.Engine
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewService(db *gorm.DB, clk clock.Clock, engine *health.Engine, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{db: db, clock: clk, health: engine, metrics: m, log: log}
}

// ====== МОДЕЛИ ОТВЕТА ======

type MissingPulse struct {
	models.Engagement
	Client     *models.Client `json:"client"`
	Consultant *models.User   `json:"consultant"`
}

type IssueItem struct {
	models.Issue
	Engagement *models.Engagement `json:"engagement"`
}

type RiskItem struct {
	models.Risk
	Engagement *models.Engagement `json:"engagement"`
}

type MilestoneItem struct {
	models.Milestone
	Engagement *models.Engagement `json:"engagement"`
}

type Summary struct {
	RAGCounts          map[models.RAGStatus]int64 `json:"rag_counts"`
	TotalEngagements   int                        `json:"total_engagements"`
	MissingPulses      []MissingPulse             `json:"missing_pulses"`
	MissingPulsesCount int                        `json:"missing_pulses_count"`
	CriticalIssues     []IssueItem                `json:"critical_issues"`
	HighIssues         []IssueItem                `json:"high_issues"`
	HighRisks          []RiskItem                 `json:"high_risks"`
	UpcomingMilestones []MilestoneItem            `json:"upcoming_milestones"`
}

type TrendPoint struct {
	WeekStartDate time.Time        `json:"week_start_date"`
	RAGStatus     models.RAGStatus `json:"rag_status"`
	PulseID       string           `json:"pulse_id"`
}

// ====== СВОДКА ======

func (s *Service) Summary(ctx context.Context, caller *access.Caller) (*Summary, error) {
	if err := access.ViewPortfolio(caller); err != nil {
		return nil, err
	}

	started := time.Now()
	now := s.clock.Now()
	db := s.db.WithContext(ctx)

	var active []models.Engagement
	if err := db.Where("is_active = ?", true).Order("created_at asc").Find(&active).Error; err != nil {
		return nil, fmt.Errorf("load active engagements: %w", err)
	}

	sum := &Summary{
		RAGCounts:        s.ragCounts(active),
		TotalEngagements: len(active),
	}

	missing, err := s.missingPulses(ctx, active, pulse.WeekStart(now))
	if err != nil {
		return nil, err
	}
	sum.MissingPulsesCount = len(missing)
	sum.MissingPulses = missing[:min(listCap, len(missing))]
	for i := range sum.MissingPulses {
		if err := s.rescore(ctx, &sum.MissingPulses[i].Engagement); err != nil {
			return nil, err
		}
	}

	if sum.CriticalIssues, err = s.openIssues(ctx, models.SeverityCritical); err != nil {
		return nil, err
	}
	if sum.HighIssues, err = s.openIssues(ctx, models.SeverityHigh); err != nil {
		return nil, err
	}
	if sum.HighRisks, err = s.highRisks(ctx); err != nil {
		return nil, err
	}
	if sum.UpcomingMilestones, err = s.upcomingMilestones(ctx, now); err != nil {
		return nil, err
	}

	s.metrics.DashboardBuilt(time.Since(started))
	s.log.Debug("dashboard summary built",
		"engagements", sum.TotalEngagements,
		"missing_pulses", sum.MissingPulsesCount,
	)
	return sum, nil
}

// ragCounts считает активные engagement по корзинам. Все три корзины
// присутствуют всегда; значения вне GREEN/AMBER/RED только логируются.
func (s *Service) ragCounts(active []models.Engagement) map[models.RAGStatus]int64 {
	counts := make(map[models.RAGStatus]int64, len(models.RAGStatuses))
	for _, rag := range models.RAGStatuses {
		counts[rag] = 0
	}
	for _, e := range active {
		if !e.RAGStatus.Valid() {
			s.log.Warn("engagement with unknown rag status", "engagement_id", e.ID, "rag_status", e.RAGStatus)
			continue
		}
		counts[e.RAGStatus]++
	}
	return counts
}

func (s *Service) missingPulses(ctx context.Context, active []models.Engagement, weekStart time.Time) ([]MissingPulse, error) {
	var submitted []string
	err := s.db.WithContext(ctx).Model(&models.WeeklyPulse{}).
		Where("week_start_date = ?", weekStart).
		Pluck("engagement_id", &submitted).Error
	if err != nil {
		return nil, fmt.Errorf("load current week pulses: %w", err)
	}
	has := make(map[string]bool, len(submitted))
	for _, id := range submitted {
		has[id] = true
	}

	var (
		lacking   []models.Engagement
		clientIDs []string
		userIDs   []string
	)
	for _, e := range active {
		if has[e.ID] {
			continue
		}
		lacking = append(lacking, e)
		clientIDs = append(clientIDs, e.ClientID)
		if e.ConsultantUserID != nil {
			userIDs = append(userIDs, *e.ConsultantUserID)
		}
	}

	clients, err := loadByID(ctx, s.db, clientIDs, func(c *models.Client) string { return c.ID })
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	users, err := loadByID(ctx, s.db, userIDs, func(u *models.User) string { return u.ID })
	if err != nil {
		return nil, fmt.Errorf("load consultants: %w", err)
	}

	out := make([]MissingPulse, 0, len(lacking))
	for _, e := range lacking {
		mp := MissingPulse{Engagement: e, Client: clients[e.ClientID]}
		if e.ConsultantUserID != nil {
			mp.Consultant = users[*e.ConsultantUserID]
		}
		out = append(out, mp)
	}
	return out, nil
}

func (s *Service) openIssues(ctx context.Context, severity models.IssueSeverity) ([]IssueItem, error) {
	var issues []models.Issue
	err := s.db.WithContext(ctx).
		Where("severity = ? AND status IN ?", severity, models.OpenIssueStatuses).
		Order("created_at asc").
		Limit(listCap).
		Find(&issues).Error
	if err != nil {
		return nil, fmt.Errorf("load %s issues: %w", severity, err)
	}

	ids := make([]string, 0, len(issues))
	for _, i := range issues {
		ids = append(ids, i.EngagementID)
	}
	engs, err := s.engagementsOf(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]IssueItem, 0, len(issues))
	for _, i := range issues {
		out = append(out, IssueItem{Issue: i, Engagement: engs[i.EngagementID]})
	}
	return out, nil
}

func (s *Service) highRisks(ctx context.Context) ([]RiskItem, error) {
	var risks []models.Risk
	err := s.db.WithContext(ctx).
		Where("status = ? AND probability = ? AND impact = ?", models.RiskOpen, models.LevelHigh, models.LevelHigh).
		Order("created_at asc").
		Limit(listCap).
		Find(&risks).Error
	if err != nil {
		return nil, fmt.Errorf("load high risks: %w", err)
	}

	ids := make([]string, 0, len(risks))
	for _, r := range risks {
		ids = append(ids, r.EngagementID)
	}
	engs, err := s.engagementsOf(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]RiskItem, 0, len(risks))
	for _, r := range risks {
		out = append(out, RiskItem{Risk: r, Engagement: engs[r.EngagementID]})
	}
	return out, nil
}

// upcomingMilestones фильтрует окно [now, now+30d] в Go: sqlite хранит
// время строкой, и сравнение в SQL зависит от драйвера.
func (s *Service) upcomingMilestones(ctx context.Context, now time.Time) ([]MilestoneItem, error) {
	var candidates []models.Milestone
	err := s.db.WithContext(ctx).
		Where("status NOT IN ?", []models.MilestoneStatus{models.MilestoneDone, models.MilestoneBlocked}).
		Order("created_at asc").
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("load milestones: %w", err)
	}

	horizon := now.Add(milestoneHorizon)
	var due []models.Milestone
	for _, m := range candidates {
		if m.DueDate.Before(now) || m.DueDate.After(horizon) {
			continue
		}
		due = append(due, m)
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].DueDate.Before(due[j].DueDate) })
	due = due[:min(listCap, len(due))]

	ids := make([]string, 0, len(due))
	for _, m := range due {
		ids = append(ids, m.EngagementID)
	}
	engs, err := s.engagementsOf(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]MilestoneItem, 0, len(due))
	for _, m := range due {
		out = append(out, MilestoneItem{Milestone: m, Engagement: engs[m.EngagementID]})
	}
	return out, nil
}

// engagementsOf загружает engagement с пересчитанной оценкой здоровья.
func (s *Service) engagementsOf(ctx context.Context, ids []string) (map[string]*models.Engagement, error) {
	engs, err := loadByID(ctx, s.db, ids, func(e *models.Engagement) string { return e.ID })
	if err != nil {
		return nil, fmt.Errorf("load engagements: %w", err)
	}
	for _, e := range engs {
		if err := s.rescore(ctx, e); err != nil {
			return nil, err
		}
	}
	return engs, nil
}

func (s *Service) rescore(ctx context.Context, e *models.Engagement) error {
	if _, err := s.health.Assess(ctx, e); err != nil {
		return fmt.Errorf("score engagement %s: %w", e.ID, err)
	}
	return nil
}

// loadByID загружает записи одним запросом. Отсутствующие id в карте не появляются.
func loadByID[T any](ctx context.Context, db *gorm.DB, ids []string, key func(*T) string) (map[string]*T, error) {
	out := make(map[string]*T, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []T
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[key(&rows[i])] = &rows[i]
	}
	return out, nil
}

// ====== ИСТОРИЯ RAG ======

// Trend возвращает до weeks последних финальных пульсов в хронологическом порядке.
func (s *Service) Trend(ctx context.Context, caller *access.Caller, engagementID string, weeks int) ([]TrendPoint, error) {
	if err := access.Authenticated(caller); err != nil {
		return nil, err
	}
	if weeks <= 0 {
		weeks = DefaultTrendWeeks
	}

	var eng models.Engagement
	err := s.db.WithContext(ctx).First(&eng, "id = ?", engagementID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: engagement %s", apperr.ErrNotFound, engagementID)
	}
	if err != nil {
		return nil, fmt.Errorf("find engagement: %w", err)
	}
	if err := access.ViewEngagement(caller, &eng); err != nil {
		return nil, err
	}

	var pulses []models.WeeklyPulse
	err = s.db.WithContext(ctx).
		Where("engagement_id = ? AND is_draft = ?", engagementID, false).
		Order("week_start_date desc").
		Limit(weeks).
		Find(&pulses).Error
	if err != nil {
		return nil, fmt.Errorf("load pulses: %w", err)
	}

	points := make([]TrendPoint, len(pulses))
	for i, p := range pulses {
		points[len(pulses)-1-i] = TrendPoint{
			WeekStartDate: p.WeekStartDate,
			RAGStatus:     p.RAGStatusThisWeek,
			PulseID:       p.ID,
		}
	}
	return points, nil
}
