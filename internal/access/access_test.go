package access

import (
	"testing"

	"engagement-pulse/internal/apperr"
	"engagement-pulse/internal/models"

	"github.com/stretchr/testify/assert"
)

func ptr(s string) *string { return &s }

var (
	consultantA = &Caller{UserID: "user_a", Role: models.RoleConsultant}
	consultantB = &Caller{UserID: "user_b", Role: models.RoleConsultant}
	lead        = &Caller{UserID: "user_lead", Role: models.RoleLead}
	admin       = &Caller{UserID: "user_admin", Role: models.RoleAdmin}
)

func TestUnauthenticatedFailsEverywhere(t *testing.T) {
	eng := &models.Engagement{ID: "eng_1", ConsultantUserID: ptr("user_a")}
	pulse := &models.WeeklyPulse{ID: "pulse_1", ConsultantUserID: "user_a"}

	checks := map[string]error{
		"portfolio":      ViewPortfolio(nil),
		"view":           ViewEngagement(nil, eng),
		"create":         CreateEngagement(nil),
		"manage":         ManageEngagementData(nil),
		"delete":         Delete(nil),
		"submit":         SubmitPulse(nil, eng),
		"edit pulse":     EditPulse(nil, pulse),
		"users":          ManageUsersAndClients(nil),
		"view user":      ViewUser(nil, "user_a"),
		"empty identity": Authenticated(&Caller{}),
	}
	for name, err := range checks {
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated, name)
	}
}

func TestConsultantScopedToOwnEngagement(t *testing.T) {
	eng := &models.Engagement{ID: "eng_1", ConsultantUserID: ptr("user_a")}
	unassigned := &models.Engagement{ID: "eng_2"}

	assert.NoError(t, ViewEngagement(consultantA, eng))
	assert.NoError(t, SubmitPulse(consultantA, eng))
	assert.ErrorIs(t, ViewEngagement(consultantB, eng), apperr.ErrForbidden)
	assert.ErrorIs(t, SubmitPulse(consultantB, eng), apperr.ErrForbidden)
	assert.ErrorIs(t, ViewEngagement(consultantA, unassigned), apperr.ErrForbidden)

	assert.NoError(t, ViewEngagement(lead, unassigned))
	assert.NoError(t, ViewEngagement(admin, eng))
}

func TestPulseAuthorship(t *testing.T) {
	pulse := &models.WeeklyPulse{ID: "pulse_1", ConsultantUserID: "user_a"}

	assert.NoError(t, EditPulse(consultantA, pulse))
	assert.ErrorIs(t, EditPulse(consultantB, pulse), apperr.ErrForbidden)
	assert.NoError(t, EditPulse(lead, pulse))
	assert.NoError(t, EditPulse(admin, pulse))
}

func TestRoleCapabilities(t *testing.T) {
	tests := []struct {
		name    string
		check   func(*Caller) error
		allowed []*Caller
		denied  []*Caller
	}{
		{"portfolio", ViewPortfolio, []*Caller{lead, admin}, []*Caller{consultantA}},
		{"create engagement", CreateEngagement, []*Caller{admin}, []*Caller{consultantA, lead}},
		{"manage engagement data", ManageEngagementData, []*Caller{lead, admin}, []*Caller{consultantA}},
		{"delete", Delete, []*Caller{admin}, []*Caller{consultantA, lead}},
		{"users and clients", ManageUsersAndClients, []*Caller{admin}, []*Caller{consultantA, lead}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, c := range tt.allowed {
				assert.NoError(t, tt.check(c), c.Role)
			}
			for _, c := range tt.denied {
				assert.ErrorIs(t, tt.check(c), apperr.ErrForbidden, c.Role)
			}
		})
	}
}

func TestViewUser(t *testing.T) {
	assert.NoError(t, ViewUser(consultantA, "user_a"))
	assert.ErrorIs(t, ViewUser(consultantA, "user_b"), apperr.ErrForbidden)
	assert.NoError(t, ViewUser(lead, "user_b"))
}

func TestFromUser(t *testing.T) {
	assert.Nil(t, FromUser(nil))
	assert.Nil(t, FromUser(&models.User{ID: "user_x", Role: models.RoleAdmin, IsActive: false}))

	c := FromUser(&models.User{ID: "user_x", Role: models.RoleLead, IsActive: true})
	assert.Equal(t, &Caller{UserID: "user_x", Role: models.RoleLead}, c)
}
