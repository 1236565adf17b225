package assignment

import (
	"fmt"
	"time"
)

const (
	day = 24 * time.Hour

	DueDateLayout = "02 Jan 2006, 15:04"
)

// StartOfDay zeroes the clock of t in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysRemaining is the number of whole days until DueDate, truncated toward zero.
// It is negative once the due date has passed by at least a day.
func (a Assignment) DaysRemaining(now time.Time) int64 {
	return int64(a.DueDate.Sub(now) / day)
}

// HoursRemaining is DaysRemaining at hour granularity.
func (a Assignment) HoursRemaining(now time.Time) int64 {
	return int64(a.DueDate.Sub(now) / time.Hour)
}

// IsOverdue is derived from the due date regardless of the persisted status label:
// only a completed assignment is never overdue.
func (a Assignment) IsOverdue(now time.Time) bool {
	return a.DueDate.Before(now) && !a.IsCompleted()
}

// IsDueToday reports whether DueDate falls in [midnight, midnight+24h) of now's day.
func (a Assignment) IsDueToday(now time.Time) bool {
	start := StartOfDay(now)
	return a.dueWithin(start, start.Add(day))
}

// IsDueTomorrow is IsDueToday shifted by 24h.
func (a Assignment) IsDueTomorrow(now time.Time) bool {
	start := StartOfDay(now).Add(day)
	return a.dueWithin(start, start.Add(day))
}

func (a Assignment) dueWithin(from, to time.Time) bool {
	return !a.DueDate.Before(from) && a.DueDate.Before(to)
}

// DueDateFormatted renders DueDate in loc, e.g. "05 Mar 2025, 23:59".
func (a Assignment) DueDateFormatted(loc *time.Location) string {
	return a.DueDate.In(loc).Format(DueDateLayout)
}

// TimeRemainingText is the human readable countdown shown next to an assignment.
func (a Assignment) TimeRemainingText(now time.Time) string {
	days := a.DaysRemaining(now)
	switch {
	case a.IsOverdue(now):
		return fmt.Sprintf("Overdue by %d days", -days)
	case days < 0: // completed after its due date
		return fmt.Sprintf("Was due %d days ago", -days)
	case days == 0:
		return "Due today"
	case days == 1:
		return "Due tomorrow"
	case days < 7:
		return fmt.Sprintf("Due in %d days", days)
	default:
		return "Due on " + a.DueDateFormatted(now.Location())
	}
}

// View is an Assignment along with its derived fields, evaluated at a given instant.
type View struct {
	Assignment
	IsOverdue         bool    `json:"is_overdue"`
	IsDueToday        bool    `json:"is_due_today"`
	IsDueTomorrow     bool    `json:"is_due_tomorrow"`
	DaysRemaining     int64   `json:"days_remaining"`
	HoursRemaining    int64   `json:"hours_remaining"`
	TimeRemainingText string  `json:"time_remaining_text"`
	PriorityText      string  `json:"priority_text"`
	Percentage        float64 `json:"percentage"`
}

func (a Assignment) View(now time.Time) View {
	return View{
		Assignment:        a,
		IsOverdue:         a.IsOverdue(now),
		IsDueToday:        a.IsDueToday(now),
		IsDueTomorrow:     a.IsDueTomorrow(now),
		DaysRemaining:     a.DaysRemaining(now),
		HoursRemaining:    a.HoursRemaining(now),
		TimeRemainingText: a.TimeRemainingText(now),
		PriorityText:      a.PriorityText(),
		Percentage:        a.Percentage(),
	}
}

func Views(assignments []Assignment, now time.Time) []View {
	views := make([]View, 0, len(assignments))
	for _, a := range assignments {
		views = append(views, a.View(now))
	}
	return views
}
