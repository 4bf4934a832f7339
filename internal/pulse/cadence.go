package pulse

import (
	"fmt"
	"time"

	"engagement-pulse/internal/apperr"
	"engagement-pulse/internal/models"
)

// weekLength: от понедельника 00:00:00 до воскресенья 23:59:59.
const weekLength = 6*24*time.Hour + 23*time.Hour + 59*time.Minute + 59*time.Second

// WeekStart возвращает понедельник 00:00:00 UTC ISO-недели, в которую попадает now.
func WeekStart(now time.Time) time.Time {
	now = now.UTC()
	// time.Weekday считает от воскресенья, ISO-неделя — от понедельника
	offset := (int(now.Weekday()) + 6) % 7
	d := now.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekEnd возвращает воскресенье 23:59:59 той же недели.
func WeekEnd(weekStart time.Time) time.Time {
	return weekStart.Add(weekLength)
}

// CanEdit: не-админ может править пульс только до конца отчётной недели.
func CanEdit(p *models.WeeklyPulse, now time.Time, role models.Role) error {
	if role == models.RoleAdmin {
		return nil
	}
	if now.After(p.WeekEndDate) {
		return fmt.Errorf("%w: week ended %s", apperr.ErrEditWindowClosed, p.WeekEndDate.Format(time.RFC3339))
	}
	return nil
}
