// Package dbtest открывает чистую sqlite-базу для тестов.
package dbtest

import (
	"path/filepath"
	"testing"
	"time"

	"engagement-pulse/internal/database"
	"engagement-pulse/internal/logging"
	"engagement-pulse/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func New(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "pulse.db")
	db, err := database.Open(database.DriverSQLite, dsn, logging.Discard())
	require.NoError(t, err)

	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, name string, role models.Role) *models.User {
	t.Helper()

	u := &models.User{
		Name:     name,
		Email:    name + "@pulse.test",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func CreateClient(t *testing.T, db *gorm.DB, name string) *models.Client {
	t.Helper()

	c := &models.Client{ClientName: name}
	require.NoError(t, db.Create(c).Error)
	return c
}

// CreateEngagement создаёт активное engagement; consultant может быть nil.
func CreateEngagement(t *testing.T, db *gorm.DB, client *models.Client, consultant *models.User, rag models.RAGStatus) *models.Engagement {
	t.Helper()

	e := &models.Engagement{
		ClientID:    client.ID,
		Name:        "Engagement for " + client.ClientName,
		Code:        "CODE-" + uuid.NewString()[:8],
		StartDate:   time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		RAGStatus:   rag,
		HealthScore: 100,
		IsActive:    true,
	}
	if consultant != nil {
		id := consultant.ID
		e.ConsultantUserID = &id
	}
	require.NoError(t, db.Create(e).Error)
	return e
}

// CreatePulse пишет пульс напрямую, минуя проверки сервиса.
func CreatePulse(t *testing.T, db *gorm.DB, eng *models.Engagement, author string, weekStart time.Time, rag models.RAGStatus, draft bool) *models.WeeklyPulse {
	t.Helper()

	p := &models.WeeklyPulse{
		EngagementID:      eng.ID,
		ConsultantUserID:  author,
		WeekStartDate:     weekStart,
		WeekEndDate:       weekStart.Add(6*24*time.Hour + 23*time.Hour + 59*time.Minute + 59*time.Second),
		RAGStatusThisWeek: rag,
		SubmittedAt:       weekStart.Add(4 * 24 * time.Hour),
		IsDraft:           draft,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func CreateIssue(t *testing.T, db *gorm.DB, eng *models.Engagement, sev models.IssueSeverity, status models.IssueStatus) *models.Issue {
	t.Helper()

	i := &models.Issue{
		EngagementID: eng.ID,
		Title:        string(sev) + " issue",
		Description:  "test issue",
		Severity:     sev,
		Status:       status,
	}
	require.NoError(t, db.Create(i).Error)
	return i
}

func CreateRisk(t *testing.T, db *gorm.DB, eng *models.Engagement, probability, impact models.Level, status models.RiskStatus) *models.Risk {
	t.Helper()

	r := &models.Risk{
		EngagementID: eng.ID,
		Title:        "risk",
		Description:  "test risk",
		Category:     models.RiskTech,
		Probability:  probability,
		Impact:       impact,
		Status:       status,
	}
	require.NoError(t, db.Create(r).Error)
	return r
}

func CreateMilestone(t *testing.T, db *gorm.DB, eng *models.Engagement, title string, due time.Time, status models.MilestoneStatus) *models.Milestone {
	t.Helper()

	m := &models.Milestone{
		EngagementID: eng.ID,
		Title:        title,
		DueDate:      due,
		Status:       status,
	}
	require.NoError(t, db.Create(m).Error)
	return m
}
