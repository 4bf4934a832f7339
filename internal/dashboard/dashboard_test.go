package dashboard

import (
	"context"
	"testing"
	"time"

	"engagement-pulse/internal/access"
	"engagement-pulse/internal/apperr"
	"engagement-pulse/internal/clock"
	"engagement-pulse/internal/database/dbtest"
	"engagement-pulse/internal/health"
	"engagement-pulse/internal/logging"
	"engagement-pulse/internal/metrics"
	"engagement-pulse/internal/models"
	"engagement-pulse/internal/pulse"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var now = time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	db         *gorm.DB
	svc        *Service
	engine     *health.Engine
	reg        *prometheus.Registry
	client     *models.Client
	consultant *models.User
	lead       *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.New(t)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	engine := health.NewEngine(db, clock.Fixed(now), m)
	return &fixture{
		db:         db,
		reg:        reg,
		engine:     engine,
		svc:        NewService(db, clock.Fixed(now), engine, m, logging.Discard()),
		client:     dbtest.CreateClient(t, db, "TechCorp"),
		consultant: dbtest.CreateUser(t, db, "emily", models.RoleConsultant),
		lead:       dbtest.CreateUser(t, db, "michael", models.RoleLead),
	}
}

func callerOf(u *models.User) *access.Caller {
	return &access.Caller{UserID: u.ID, Role: u.Role}
}

func TestSummary_Access(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Summary(context.Background(), nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = f.svc.Summary(context.Background(), callerOf(f.consultant))
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	admin := dbtest.CreateUser(t, f.db, "sarah", models.RoleAdmin)
	_, err = f.svc.Summary(context.Background(), callerOf(admin))
	assert.NoError(t, err)
}

func TestSummary_EmptyPortfolio(t *testing.T) {
	f := newFixture(t)

	sum, err := f.svc.Summary(context.Background(), callerOf(f.lead))
	require.NoError(t, err)

	assert.Equal(t, map[models.RAGStatus]int64{models.RAGGreen: 0, models.RAGAmber: 0, models.RAGRed: 0}, sum.RAGCounts)
	assert.Zero(t, sum.TotalEngagements)
	assert.NotNil(t, sum.MissingPulses)
	assert.Empty(t, sum.MissingPulses)
	assert.Empty(t, sum.CriticalIssues)
	assert.Empty(t, sum.UpcomingMilestones)
	assert.Equal(t, 1, testutil.CollectAndCount(f.reg, "dashboard_summary_duration_seconds"))
}

func TestSummary_MissingPulsesTruncated(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 12; i++ {
		dbtest.CreateEngagement(t, f.db, f.client, nil, models.RAGGreen)
	}
	reported := dbtest.CreateEngagement(t, f.db, f.client, f.consultant, models.RAGAmber)
	dbtest.CreatePulse(t, f.db, reported, f.consultant.ID, pulse.WeekStart(now), models.RAGAmber, true)

	inactive := dbtest.CreateEngagement(t, f.db, f.client, nil, models.RAGRed)
	require.NoError(t, f.db.Model(inactive).Update("is_active", false).Error)

	sum, err := f.svc.Summary(context.Background(), callerOf(f.lead))
	require.NoError(t, err)

	assert.Len(t, sum.MissingPulses, 10)
	assert.Equal(t, 12, sum.MissingPulsesCount)
	assert.Equal(t, 13, sum.TotalEngagements)
	assert.Equal(t, int64(12), sum.RAGCounts[models.RAGGreen])
	assert.Equal(t, int64(1), sum.RAGCounts[models.RAGAmber])
	assert.Equal(t, int64(0), sum.RAGCounts[models.RAGRed])

	for _, mp := range sum.MissingPulses {
		assert.NotEqual(t, reported.ID, mp.ID)
		assert.NotEqual(t, inactive.ID, mp.ID)
	}
}

func TestSummary_EnrichmentIsNullSafe(t *testing.T) {
	f := newFixture(t)

	assigned := dbtest.CreateEngagement(t, f.db, f.client, f.consultant, models.RAGGreen)

	orphanClient := dbtest.CreateClient(t, f.db, "Gone Inc")
	ghost := dbtest.CreateUser(t, f.db, "ghost", models.RoleConsultant)
	orphan := dbtest.CreateEngagement(t, f.db, orphanClient, ghost, models.RAGRed)
	require.NoError(t, f.db.Delete(orphanClient).Error)
	require.NoError(t, f.db.Delete(ghost).Error)

	sum, err := f.svc.Summary(context.Background(), callerOf(f.lead))
	require.NoError(t, err)
	require.Len(t, sum.MissingPulses, 2)

	byID := map[string]MissingPulse{}
	for _, mp := range sum.MissingPulses {
		byID[mp.ID] = mp
	}

	require.NotNil(t, byID[assigned.ID].Client)
	assert.Equal(t, "TechCorp", byID[assigned.ID].Client.ClientName)
	require.NotNil(t, byID[assigned.ID].Consultant)
	assert.Equal(t, f.consultant.ID, byID[assigned.ID].Consultant.ID)

	assert.Nil(t, byID[orphan.ID].Client)
	assert.Nil(t, byID[orphan.ID].Consultant)
}

func TestSummary_TopIssuesAndRisks(t *testing.T) {
	f := newFixture(t)
	eng := dbtest.CreateEngagement(t, f.db, f.client, f.consultant, models.RAGRed)

	for i := 0; i < 12; i++ {
		dbtest.CreateIssue(t, f.db, eng, models.SeverityCritical, models.IssueOpen)
	}
	dbtest.CreateIssue(t, f.db, eng, models.SeverityHigh, models.IssueBlocked)
	dbtest.CreateIssue(t, f.db, eng, models.SeverityHigh, models.IssueResolved)
	dbtest.CreateIssue(t, f.db, eng, models.SeverityMedium, models.IssueOpen)

	dbtest.CreateRisk(t, f.db, eng, models.LevelHigh, models.LevelHigh, models.RiskOpen)
	dbtest.CreateRisk(t, f.db, eng, models.LevelHigh, models.LevelHigh, models.RiskAccepted)
	dbtest.CreateRisk(t, f.db, eng, models.LevelMedium, models.LevelHigh, models.RiskOpen)

	sum, err := f.svc.Summary(context.Background(), callerOf(f.lead))
	require.NoError(t, err)

	assert.Len(t, sum.CriticalIssues, 10)
	require.Len(t, sum.HighIssues, 1)
	assert.Equal(t, models.IssueBlocked, sum.HighIssues[0].Status)
	require.NotNil(t, sum.HighIssues[0].Engagement)
	assert.Equal(t, eng.ID, sum.HighIssues[0].Engagement.ID)

	require.Len(t, sum.HighRisks, 1)
	assert.True(t, sum.HighRisks[0].HighHigh())
	require.NotNil(t, sum.HighRisks[0].Engagement)
	assert.Equal(t, eng.ID, sum.HighRisks[0].Engagement.ID)
}

func TestSummary_UpcomingMilestones(t *testing.T) {
	f := newFixture(t)
	eng := dbtest.CreateEngagement(t, f.db, f.client, f.consultant, models.RAGGreen)

	dbtest.CreateMilestone(t, f.db, eng, "late", now.Add(20*24*time.Hour), models.MilestoneInProgress)
	dbtest.CreateMilestone(t, f.db, eng, "soon", now.Add(2*24*time.Hour), models.MilestoneNotStarted)
	dbtest.CreateMilestone(t, f.db, eng, "at risk", now.Add(5*24*time.Hour), models.MilestoneAtRisk)
	dbtest.CreateMilestone(t, f.db, eng, "overdue", now.Add(-24*time.Hour), models.MilestoneInProgress)
	dbtest.CreateMilestone(t, f.db, eng, "far", now.Add(31*24*time.Hour), models.MilestoneInProgress)
	dbtest.CreateMilestone(t, f.db, eng, "done", now.Add(3*24*time.Hour), models.MilestoneDone)
	dbtest.CreateMilestone(t, f.db, eng, "blocked", now.Add(3*24*time.Hour), models.MilestoneBlocked)

	sum, err := f.svc.Summary(context.Background(), callerOf(f.lead))
	require.NoError(t, err)

	var titles []string
	for _, m := range sum.UpcomingMilestones {
		titles = append(titles, m.Title)
		require.NotNil(t, m.Engagement)
	}
	assert.Equal(t, []string{"soon", "at risk", "late"}, titles)
}

func TestSummary_UpcomingMilestonesWindowEdges(t *testing.T) {
	f := newFixture(t)
	eng := dbtest.CreateEngagement(t, f.db, f.client, f.consultant, models.RAGGreen)

	dbtest.CreateMilestone(t, f.db, eng, "last day", now.Add(milestoneHorizon), models.MilestoneNotStarted)
	dbtest.CreateMilestone(t, f.db, eng, "right now", now, models.MilestoneNotStarted)
	dbtest.CreateMilestone(t, f.db, eng, "just passed", now.Add(-time.Second), models.MilestoneNotStarted)
	dbtest.CreateMilestone(t, f.db, eng, "one second late", now.Add(milestoneHorizon+time.Second), models.MilestoneNotStarted)

	sum, err := f.svc.Summary(context.Background(), callerOf(f.lead))
	require.NoError(t, err)

	var titles []string
	for _, m := range sum.UpcomingMilestones {
		titles = append(titles, m.Title)
	}
	assert.Equal(t, []string{"right now", "last day"}, titles)
}

func TestSummary_UpcomingMilestonesSameDueKeepCreationOrder(t *testing.T) {
	f := newFixture(t)
	eng := dbtest.CreateEngagement(t, f.db, f.client, f.consultant, models.RAGGreen)
	due := now.Add(3 * 24 * time.Hour)

	titles := []string{"first", "second", "third"}
	for i, title := range titles {
		m := dbtest.CreateMilestone(t, f.db, eng, title, due, models.MilestoneInProgress)
		// порядок создания задаём явно
		created := now.Add(-time.Duration(len(titles)-i) * time.Hour)
		require.NoError(t, f.db.Model(m).UpdateColumn("created_at", created).Error)
	}
	dbtest.CreateMilestone(t, f.db, eng, "earlier", now.Add(24*time.Hour), models.MilestoneInProgress)

	sum, err := f.svc.Summary(context.Background(), callerOf(f.lead))
	require.NoError(t, err)

	var got []string
	for _, m := range sum.UpcomingMilestones {
		got = append(got, m.Title)
	}
	assert.Equal(t, []string{"earlier", "first", "second", "third"}, got)
}

func TestSummary_HealthScoresAreComputed(t *testing.T) {
	f := newFixture(t)
	eng := dbtest.CreateEngagement(t, f.db, f.client, f.consultant, models.RAGRed)
	dbtest.CreateIssue(t, f.db, eng, models.SeverityCritical, models.IssueOpen)

	sum, err := f.svc.Summary(context.Background(), callerOf(f.lead))
	require.NoError(t, err)

	var fresh models.Engagement
	require.NoError(t, f.db.First(&fresh, "id = ?", eng.ID).Error)
	want, err := f.engine.Compute(context.Background(), &fresh)
	require.NoError(t, err)
	// RED, одна CRITICAL, пульса нет
	assert.Equal(t, 40, want)

	require.Len(t, sum.MissingPulses, 1)
	assert.Equal(t, want, sum.MissingPulses[0].HealthScore)
	require.Len(t, sum.CriticalIssues, 1)
	require.NotNil(t, sum.CriticalIssues[0].Engagement)
	assert.Equal(t, want, sum.CriticalIssues[0].Engagement.HealthScore)

	var stored models.Engagement
	require.NoError(t, f.db.First(&stored, "id = ?", eng.ID).Error)
	assert.Equal(t, want, stored.HealthScore)
}

func TestSummary_UpcomingMilestonesCapped(t *testing.T) {
	f := newFixture(t)
	eng := dbtest.CreateEngagement(t, f.db, f.client, f.consultant, models.RAGGreen)

	for i := 12; i > 0; i-- {
		dbtest.CreateMilestone(t, f.db, eng, "m", now.Add(time.Duration(i)*24*time.Hour), models.MilestoneNotStarted)
	}

	sum, err := f.svc.Summary(context.Background(), callerOf(f.lead))
	require.NoError(t, err)
	require.Len(t, sum.UpcomingMilestones, 10)

	for i := 1; i < len(sum.UpcomingMilestones); i++ {
		assert.False(t, sum.UpcomingMilestones[i].DueDate.Before(sum.UpcomingMilestones[i-1].DueDate))
	}
	assert.True(t, sum.UpcomingMilestones[0].DueDate.Equal(now.Add(24*time.Hour)))
}

func TestTrend(t *testing.T) {
	f := newFixture(t)
	eng := dbtest.CreateEngagement(t, f.db, f.client, f.consultant, models.RAGGreen)

	week := pulse.WeekStart(now)
	rags := []models.RAGStatus{models.RAGGreen, models.RAGAmber, models.RAGRed}
	for i := 0; i < 10; i++ {
		dbtest.CreatePulse(t, f.db, eng, f.consultant.ID, week.AddDate(0, 0, -7*(10-i)), rags[i%3], false)
	}
	// черновик текущей недели в историю не попадает
	dbtest.CreatePulse(t, f.db, eng, f.consultant.ID, week, models.RAGRed, true)

	points, err := f.svc.Trend(context.Background(), callerOf(f.consultant), eng.ID, 0)
	require.NoError(t, err)
	require.Len(t, points, DefaultTrendWeeks)

	assert.True(t, points[0].WeekStartDate.Equal(week.AddDate(0, 0, -7*8)))
	assert.True(t, points[7].WeekStartDate.Equal(week.AddDate(0, 0, -7)))
	for i := 1; i < len(points); i++ {
		assert.True(t, points[i].WeekStartDate.After(points[i-1].WeekStartDate))
		assert.NotEmpty(t, points[i].PulseID)
	}
	assert.Equal(t, rags[9%3], points[7].RAGStatus)
}

func TestTrend_ShortHistory(t *testing.T) {
	f := newFixture(t)
	eng := dbtest.CreateEngagement(t, f.db, f.client, f.consultant, models.RAGGreen)

	points, err := f.svc.Trend(context.Background(), callerOf(f.lead), eng.ID, 8)
	require.NoError(t, err)
	assert.Empty(t, points)

	dbtest.CreatePulse(t, f.db, eng, f.consultant.ID, pulse.WeekStart(now), models.RAGAmber, false)
	points, err = f.svc.Trend(context.Background(), callerOf(f.lead), eng.ID, 8)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, models.RAGAmber, points[0].RAGStatus)
}

func TestTrend_Access(t *testing.T) {
	f := newFixture(t)
	eng := dbtest.CreateEngagement(t, f.db, f.client, f.consultant, models.RAGGreen)
	other := dbtest.CreateUser(t, f.db, "james", models.RoleConsultant)

	_, err := f.svc.Trend(context.Background(), nil, eng.ID, 8)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = f.svc.Trend(context.Background(), callerOf(other), eng.ID, 8)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.Trend(context.Background(), callerOf(f.lead), "eng_missing", 8)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
