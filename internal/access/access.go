// Package access проверяет права по роли вызывающего и владению engagement.
// На каждую операцию своя функция, чтобы не сравнивать роли по месту.
package access

import (
	"fmt"

	"engagement-pulse/internal/apperr"
	"engagement-pulse/internal/models"
)

// Caller описывает вызывающего (идентификатор пользователя и роль).
type Caller struct {
	UserID string
	Role   models.Role
}

func FromUser(u *models.User) *Caller {
	if u == nil || !u.IsActive {
		return nil
	}
	return &Caller{UserID: u.ID, Role: u.Role}
}

// Is сообщает, входит ли роль вызывающего в roles.
func (c *Caller) Is(roles ...models.Role) bool {
	if c == nil {
		return false
	}
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}

// Scoped: консультант видит только свои engagement.
func (c *Caller) Scoped() bool {
	return c != nil && c.Role == models.RoleConsultant
}

func Authenticated(c *Caller) error {
	if c == nil || c.UserID == "" || !c.Role.Valid() {
		return apperr.ErrUnauthenticated
	}
	return nil
}

func RequireRole(c *Caller, roles ...models.Role) error {
	if err := Authenticated(c); err != nil {
		return err
	}
	if !c.Is(roles...) {
		return fmt.Errorf("%w: role %s not allowed", apperr.ErrForbidden, c.Role)
	}
	return nil
}

// ====== портфель (дашборд, пользователи, клиенты, журнал) ======

func ViewPortfolio(c *Caller) error {
	return RequireRole(c, models.RoleLead, models.RoleAdmin)
}

// ====== engagement и дочерние сущности ======

func ViewEngagement(c *Caller, e *models.Engagement) error {
	if err := Authenticated(c); err != nil {
		return err
	}
	if c.Scoped() && !e.AssignedTo(c.UserID) {
		return fmt.Errorf("%w: engagement %s is not assigned to you", apperr.ErrForbidden, e.ID)
	}
	return nil
}

func CreateEngagement(c *Caller) error {
	return RequireRole(c, models.RoleAdmin)
}

// ManageEngagementData: изменение engagement, вех, рисков, проблем и контактов.
func ManageEngagementData(c *Caller) error {
	return RequireRole(c, models.RoleLead, models.RoleAdmin)
}

// Delete: любые жёсткие удаления.
func Delete(c *Caller) error {
	return RequireRole(c, models.RoleAdmin)
}

// ====== пульсы ======

func SubmitPulse(c *Caller, e *models.Engagement) error {
	return ViewEngagement(c, e)
}

func ViewPulse(c *Caller, p *models.WeeklyPulse) error {
	if err := Authenticated(c); err != nil {
		return err
	}
	if c.Scoped() && p.ConsultantUserID != c.UserID {
		return fmt.Errorf("%w: pulse %s belongs to another consultant", apperr.ErrForbidden, p.ID)
	}
	return nil
}

// EditPulse проверяет только роль и авторство; окно редактирования
// проверяет pulse.CanEdit.
func EditPulse(c *Caller, p *models.WeeklyPulse) error {
	return ViewPulse(c, p)
}

// ====== пользователи и клиенты ======

func ManageUsersAndClients(c *Caller) error {
	return RequireRole(c, models.RoleAdmin)
}

func ViewUser(c *Caller, userID string) error {
	if err := Authenticated(c); err != nil {
		return err
	}
	if c.UserID != userID && !c.Is(models.RoleLead, models.RoleAdmin) {
		return fmt.Errorf("%w: cannot view other users", apperr.ErrForbidden)
	}
	return nil
}
