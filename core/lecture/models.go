package lecture

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/unitrack/core"
)

const (
	DefaultNotificationMinutesBefore = 15

	clockLayout = "15:04"
)

var dayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DayName returns the English name of an ISO weekday (Monday=1 .. Sunday=7).
func DayName(day int) string {
	if day < 1 || day > 7 {
		return "Unknown"
	}
	return dayNames[day-1]
}

// ISOWeekday returns the ISO weekday of t: Monday=1 .. Sunday=7.
func ISOWeekday(t time.Time) int {
	if wd := t.Weekday(); wd != time.Sunday {
		return int(wd)
	}
	return 7
}

// Lecture is a weekly recurring slot of the timetable.
// StartTime and EndTime are 24h "HH:MM" strings.
type Lecture struct {
	ID                        int       `json:"id"`
	UserID                    int       `json:"user_id"`
	SubjectID                 int       `json:"subject_id"`
	Title                     string    `json:"title"`
	DayOfWeek                 int       `json:"day_of_week"`
	StartTime                 string    `json:"start_time"`
	EndTime                   string    `json:"end_time"`
	Room                      string    `json:"room"`
	Lecturer                  string    `json:"lecturer"`
	NotificationEnabled       bool      `json:"notification_enabled"`
	NotificationMinutesBefore int       `json:"notification_minutes_before"`
	CreatedAt                 time.Time `json:"created_at"`
}

func (l Lecture) DayName() string {
	return DayName(l.DayOfWeek)
}

// FormattedTime returns the slot as "09:00 - 10:30".
func (l Lecture) FormattedTime() string {
	return l.StartTime + " - " + l.EndTime
}

func (l Lecture) startOn(day time.Time) time.Time {
	y, m, d := day.Date()
	var hour, minute int
	if clock, err := time.Parse(clockLayout, l.StartTime); err == nil {
		hour, minute = clock.Hour(), clock.Minute()
	}
	return time.Date(y, m, d, hour, minute, 0, 0, day.Location())
}

// nextStart returns the first start of the lecture such that start-lead is strictly after now.
func (l Lecture) nextStart(now time.Time, lead time.Duration) time.Time {
	offset := (l.DayOfWeek - ISOWeekday(now) + 7) % 7
	start := l.startOn(now.AddDate(0, 0, offset))
	for !start.Add(-lead).After(now) {
		start = start.AddDate(0, 0, 7)
	}
	return start
}

// NextOccurrence returns the next start of the lecture strictly after now, in now's location.
func (l Lecture) NextOccurrence(now time.Time) time.Time {
	return l.nextStart(now, 0)
}

// NextReminderAt returns when the next reminder of this lecture is due:
// NotificationMinutesBefore ahead of the next start whose reminder has not passed yet.
func (l Lecture) NextReminderAt(now time.Time) time.Time {
	lead := time.Duration(l.NotificationMinutesBefore) * time.Minute
	return l.nextStart(now, lead).Add(-lead)
}

// Reminder is the data a notification collaborator needs to schedule a lecture alarm.
type Reminder struct {
	Lecture  Lecture   `json:"lecture"`
	RemindAt time.Time `json:"remind_at"`
	StartsAt time.Time `json:"starts_at"`
}

// NewLecture contains information needed to create a new Lecture.
// NotificationEnabled defaults to true and NotificationMinutesBefore to 15.
type NewLecture struct {
	UserID                    int    `json:"user_id" validate:"required,gt=0"`
	SubjectID                 int    `json:"subject_id" validate:"required,gt=0"`
	Title                     string `json:"title" validate:"required"`
	DayOfWeek                 int    `json:"day_of_week" validate:"required,min=1,max=7"`
	StartTime                 string `json:"start_time" validate:"required,hhmm"`
	EndTime                   string `json:"end_time" validate:"required,hhmm"`
	Room                      string `json:"room"`
	Lecturer                  string `json:"lecturer"`
	NotificationEnabled       *bool  `json:"notification_enabled"`
	NotificationMinutesBefore *int   `json:"notification_minutes_before" validate:"omitempty,min=0"`
}

func (nl *NewLecture) Clean() {
	nl.Title = core.CleanName(nl.Title)
	nl.StartTime = core.CleanString(nl.StartTime)
	nl.EndTime = core.CleanString(nl.EndTime)
	nl.Room = core.CleanString(nl.Room)
	nl.Lecturer = core.CleanName(nl.Lecturer)
}

func (nl *NewLecture) Validate(validate *validator.Validate) error {
	nl.Clean()
	if err := validate.Struct(nl); err != nil {
		return err
	}
	return checkTimes(nl.StartTime, nl.EndTime)
}

// UpdateLecture is the full replacement of an existing Lecture.
type UpdateLecture struct {
	SubjectID                 int    `json:"subject_id" validate:"required,gt=0"`
	Title                     string `json:"title" validate:"required"`
	DayOfWeek                 int    `json:"day_of_week" validate:"required,min=1,max=7"`
	StartTime                 string `json:"start_time" validate:"required,hhmm"`
	EndTime                   string `json:"end_time" validate:"required,hhmm"`
	Room                      string `json:"room"`
	Lecturer                  string `json:"lecturer"`
	NotificationEnabled       bool   `json:"notification_enabled"`
	NotificationMinutesBefore int    `json:"notification_minutes_before" validate:"min=0"`
}

func (ul *UpdateLecture) Validate(validate *validator.Validate) error {
	ul.Title = core.CleanName(ul.Title)
	ul.StartTime = core.CleanString(ul.StartTime)
	ul.EndTime = core.CleanString(ul.EndTime)
	ul.Room = core.CleanString(ul.Room)
	ul.Lecturer = core.CleanName(ul.Lecturer)
	if err := validate.Struct(ul); err != nil {
		return err
	}
	return checkTimes(ul.StartTime, ul.EndTime)
}

// checkTimes rejects a slot ending at or before its start. Both are valid HH:MM times.
func checkTimes(start, end string) error {
	if end <= start {
		return core.NewValidationError(ErrEndBeforeStart, core.FieldError{Field: "end_time", Error: ErrEndBeforeStart.Error()})
	}
	return nil
}
