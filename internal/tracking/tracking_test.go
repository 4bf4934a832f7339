package tracking

import (
	"context"
	"testing"
	"time"

	"engagement-pulse/internal/access"
	"engagement-pulse/internal/activity"
	"engagement-pulse/internal/apperr"
	"engagement-pulse/internal/database/dbtest"
	"engagement-pulse/internal/logging"
	"engagement-pulse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	svc   *Service
	emily *models.User
	james *models.User
	lead  *models.User
	admin *models.User
	mine  *models.Engagement
	other *models.Engagement
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.New(t)
	log := logging.Discard()
	f := &fixture{
		db:    db,
		svc:   NewService(db, activity.NewRecorder(db, log), log),
		emily: dbtest.CreateUser(t, db, "emily", models.RoleConsultant),
		james: dbtest.CreateUser(t, db, "james", models.RoleConsultant),
		lead:  dbtest.CreateUser(t, db, "michael", models.RoleLead),
		admin: dbtest.CreateUser(t, db, "sarah", models.RoleAdmin),
	}
	client := dbtest.CreateClient(t, db, "TechCorp")
	f.mine = dbtest.CreateEngagement(t, db, client, f.emily, models.RAGGreen)
	f.other = dbtest.CreateEngagement(t, db, client, f.james, models.RAGAmber)
	return f
}

func callerOf(u *models.User) *access.Caller {
	return &access.Caller{UserID: u.ID, Role: u.Role}
}

func ptr[T any](v T) *T { return &v }

func TestIssues_ConsultantScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dbtest.CreateIssue(t, f.db, f.mine, models.SeverityHigh, models.IssueOpen)
	dbtest.CreateIssue(t, f.db, f.mine, models.SeverityLow, models.IssueResolved)
	dbtest.CreateIssue(t, f.db, f.other, models.SeverityCritical, models.IssueOpen)

	own, err := f.svc.ListIssues(ctx, callerOf(f.emily), IssueFilter{})
	require.NoError(t, err)
	require.Len(t, own, 2)
	for _, i := range own {
		assert.Equal(t, f.mine.ID, i.EngagementID)
	}

	_, err = f.svc.ListIssues(ctx, callerOf(f.emily), IssueFilter{EngagementID: f.other.ID})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.ListIssues(ctx, callerOf(f.lead), IssueFilter{EngagementID: "eng_missing"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	all, err := f.svc.ListIssues(ctx, callerOf(f.lead), IssueFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	filtered, err := f.svc.ListIssues(ctx, callerOf(f.lead), IssueFilter{Status: models.IssueOpen, Severity: models.SeverityCritical})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, f.other.ID, filtered[0].EngagementID)

	_, err = f.svc.ListIssues(ctx, nil, IssueFilter{})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestIssues_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := IssueInput{
		EngagementID: f.mine.ID,
		Title:        "API rate limits",
		Description:  "Vendor API throttles the sync job",
		Severity:     models.SeverityHigh,
	}

	_, err := f.svc.CreateIssue(ctx, callerOf(f.emily), in)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	issue, err := f.svc.CreateIssue(ctx, callerOf(f.lead), in)
	require.NoError(t, err)
	assert.NotEmpty(t, issue.ID)
	assert.Equal(t, models.IssueOpen, issue.Status)

	updated, err := f.svc.UpdateIssue(ctx, callerOf(f.lead), issue.ID, IssuePatch{
		Status:     ptr(models.IssueResolved),
		Resolution: ptr("Batching added"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.IssueResolved, updated.Status)
	assert.Equal(t, "Batching added", updated.Resolution)

	_, err = f.svc.UpdateIssue(ctx, callerOf(f.lead), issue.ID, IssuePatch{Severity: ptr(models.IssueSeverity("URGENT"))})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	assert.ErrorIs(t, f.svc.DeleteIssue(ctx, callerOf(f.lead), issue.ID), apperr.ErrForbidden)
	require.NoError(t, f.svc.DeleteIssue(ctx, callerOf(f.admin), issue.ID))
	assert.ErrorIs(t, f.svc.DeleteIssue(ctx, callerOf(f.admin), issue.ID), apperr.ErrNotFound)

	var actions []models.ActionType
	require.NoError(t, f.db.Model(&models.ActivityLog{}).
		Where("entity_id = ?", issue.ID).Order("created_at asc").Pluck("action", &actions).Error)
	assert.Equal(t, []models.ActionType{models.ActionCreate, models.ActionUpdate, models.ActionDelete}, actions)
}

func TestIssues_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateIssue(ctx, callerOf(f.lead), IssueInput{EngagementID: f.mine.ID, Severity: models.SeverityLow})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.CreateIssue(ctx, callerOf(f.lead), IssueInput{
		EngagementID: "eng_missing", Title: "x", Description: "y", Severity: models.SeverityLow,
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRisks_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	risk, err := f.svc.CreateRisk(ctx, callerOf(f.admin), RiskInput{
		EngagementID: f.mine.ID,
		Title:        "Key SME leaving",
		Description:  "Client architect resigns next month",
		Category:     models.RiskResourcing,
		Probability:  models.LevelMedium,
		Impact:       models.LevelHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RiskOpen, risk.Status)
	assert.False(t, risk.HighHigh())

	reviewed := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	risk, err = f.svc.UpdateRisk(ctx, callerOf(f.lead), risk.ID, RiskPatch{
		Probability:      ptr(models.LevelHigh),
		LastReviewedDate: &reviewed,
	})
	require.NoError(t, err)
	assert.True(t, risk.HighHigh())
	require.NotNil(t, risk.LastReviewedDate)
	assert.True(t, reviewed.Equal(*risk.LastReviewedDate))

	_, err = f.svc.CreateRisk(ctx, callerOf(f.admin), RiskInput{
		EngagementID: f.mine.ID, Title: "t", Description: "d",
		Category: "WEATHER", Probability: models.LevelLow, Impact: models.LevelLow,
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	open, err := f.svc.ListRisks(ctx, callerOf(f.emily), RiskFilter{Status: models.RiskOpen})
	require.NoError(t, err)
	assert.Len(t, open, 1)

	none, err := f.svc.ListRisks(ctx, callerOf(f.james), RiskFilter{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMilestones_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	due := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)

	later, err := f.svc.CreateMilestone(ctx, callerOf(f.lead), MilestoneInput{
		EngagementID: f.mine.ID, Title: "UAT sign-off", DueDate: due.AddDate(0, 0, 14),
	})
	require.NoError(t, err)
	assert.Equal(t, models.MilestoneNotStarted, later.Status)

	_, err = f.svc.CreateMilestone(ctx, callerOf(f.lead), MilestoneInput{
		EngagementID: f.mine.ID, Title: "Design review", DueDate: due, Status: models.MilestoneInProgress,
	})
	require.NoError(t, err)

	_, err = f.svc.CreateMilestone(ctx, callerOf(f.lead), MilestoneInput{
		EngagementID: f.mine.ID, Title: "Bad", DueDate: due, CompletionPercent: 140,
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	list, err := f.svc.ListMilestones(ctx, callerOf(f.emily), MilestoneFilter{EngagementID: f.mine.ID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Design review", list[0].Title)

	done, err := f.svc.UpdateMilestone(ctx, callerOf(f.lead), later.ID, MilestonePatch{
		Status:            ptr(models.MilestoneDone),
		CompletionPercent: ptr(100),
	})
	require.NoError(t, err)
	assert.Equal(t, 100, done.CompletionPercent)

	_, err = f.svc.UpdateMilestone(ctx, callerOf(f.lead), "ms_missing", MilestonePatch{Notes: ptr("x")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	filtered, err := f.svc.ListMilestones(ctx, callerOf(f.lead), MilestoneFilter{Status: models.MilestoneDone})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, later.ID, filtered[0].ID)
}

func TestContacts_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.CreateContact(ctx, callerOf(f.lead), ContactInput{
		EngagementID: f.other.ID, Name: "Robert Chen", Type: models.ContactClient,
	})
	require.NoError(t, err)

	_, err = f.svc.CreateContact(ctx, callerOf(f.lead), ContactInput{
		EngagementID: f.other.ID, Name: "Nobody", Type: "FRIEND",
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	c, err = f.svc.UpdateContact(ctx, callerOf(f.lead), c.ID, ContactPatch{Title: ptr("CTO")})
	require.NoError(t, err)
	assert.Equal(t, "CTO", c.Title)

	theirs, err := f.svc.ListContacts(ctx, callerOf(f.james), "")
	require.NoError(t, err)
	assert.Len(t, theirs, 1)

	_, err = f.svc.ListContacts(ctx, callerOf(f.emily), f.other.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, f.svc.DeleteContact(ctx, callerOf(f.admin), c.ID))
	left, err := f.svc.ListContacts(ctx, callerOf(f.admin), f.other.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}
