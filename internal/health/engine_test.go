package health

import (
	"context"
	"testing"
	"time"

	"engagement-pulse/internal/clock"
	"engagement-pulse/internal/database/dbtest"
	"engagement-pulse/internal/metrics"
	"engagement-pulse/internal/models"
	"engagement-pulse/internal/pulse"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

func TestEngine_RedWithIssuesRiskAndNoPulse(t *testing.T) {
	db := dbtest.New(t)
	consultant := dbtest.CreateUser(t, db, "emily", models.RoleConsultant)
	eng := dbtest.CreateEngagement(t, db, dbtest.CreateClient(t, db, "TechCorp"), consultant, models.RAGRed)

	dbtest.CreateIssue(t, db, eng, models.SeverityCritical, models.IssueOpen)
	dbtest.CreateIssue(t, db, eng, models.SeverityHigh, models.IssueBlocked)
	dbtest.CreateIssue(t, db, eng, models.SeverityCritical, models.IssueResolved)
	dbtest.CreateRisk(t, db, eng, models.LevelHigh, models.LevelHigh, models.RiskOpen)
	dbtest.CreateRisk(t, db, eng, models.LevelHigh, models.LevelHigh, models.RiskClosed)
	dbtest.CreateRisk(t, db, eng, models.LevelHigh, models.LevelLow, models.RiskOpen)
	// пульс прошлой недели не считается
	dbtest.CreatePulse(t, db, eng, consultant.ID, pulse.WeekStart(now).AddDate(0, 0, -7), models.RAGRed, false)

	reg := prometheus.NewRegistry()
	engine := NewEngine(db, clock.Fixed(now), metrics.New(reg))

	a, err := engine.Assess(context.Background(), eng)
	require.NoError(t, err)
	assert.Equal(t, 22, a.Score)
	assert.Len(t, a.OpenIssues, 2)
	assert.Len(t, a.HighHighRisks, 1)
	assert.False(t, a.HasPulseThisWeek)
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "engagement_health_score"))
}

func TestEngine_HealthyEngagement(t *testing.T) {
	db := dbtest.New(t)
	consultant := dbtest.CreateUser(t, db, "emily", models.RoleConsultant)
	eng := dbtest.CreateEngagement(t, db, dbtest.CreateClient(t, db, "TechCorp"), consultant, models.RAGGreen)
	dbtest.CreatePulse(t, db, eng, consultant.ID, pulse.WeekStart(now), models.RAGGreen, false)

	engine := NewEngine(db, clock.Fixed(now), nil)

	score, err := engine.Compute(context.Background(), eng)
	require.NoError(t, err)
	assert.Equal(t, 100, score)
}

func TestEngine_DraftCountsAsPulse(t *testing.T) {
	db := dbtest.New(t)
	consultant := dbtest.CreateUser(t, db, "emily", models.RoleConsultant)
	eng := dbtest.CreateEngagement(t, db, dbtest.CreateClient(t, db, "TechCorp"), consultant, models.RAGGreen)
	dbtest.CreatePulse(t, db, eng, consultant.ID, pulse.WeekStart(now), models.RAGRed, true)

	score, err := NewEngine(db, clock.Fixed(now), nil).Compute(context.Background(), eng)
	require.NoError(t, err)
	assert.Equal(t, 100, score)
}

func TestEngine_IgnoresStoredScore(t *testing.T) {
	db := dbtest.New(t)
	eng := dbtest.CreateEngagement(t, db, dbtest.CreateClient(t, db, "TechCorp"), nil, models.RAGAmber)
	require.NoError(t, db.Model(eng).Update("health_score", 3).Error)

	score, err := NewEngine(db, clock.Fixed(now), nil).Compute(context.Background(), eng)
	require.NoError(t, err)
	// 100 - 15 (AMBER) - 10 (нет пульса)
	assert.Equal(t, 75, score)
}
