package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/unitrack/core/assignment"
	"github.com/trezcool/unitrack/core/lecture"
)

const productID = "-//UniTrack//Timetable//EN"

var rruleDays = [...]string{"MO", "TU", "WE", "TH", "FR", "SA", "SU"}

// CalendarData is what goes into a user's calendar feed.
type CalendarData struct {
	Name        string
	Lectures    []lecture.Lecture
	Assignments []assignment.Assignment
	Subjects    map[int]string // subject names by id
}

// eventUID is stable across exports so that subscribed clients update events in place.
func eventUID(kind string, id int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("unitrack:"+kind+":"+strconv.Itoa(id))).String() + "@unitrack"
}

// NewCalendar builds the feed: one weekly recurring event per lecture and one event per
// assignment deadline that is not completed yet. Alarms follow the notification settings.
func NewCalendar(data CalendarData, now time.Time) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if data.Name != "" {
		cal.SetXWRCalName(data.Name)
	}

	for _, lec := range data.Lectures {
		addLecture(cal, lec, data.Subjects[lec.SubjectID], now)
	}
	for _, asg := range data.Assignments {
		if asg.IsCompleted() {
			continue
		}
		addDeadline(cal, asg, data.Subjects[asg.SubjectID], now)
	}
	return cal
}

func addLecture(cal *ics.Calendar, lec lecture.Lecture, subjectName string, now time.Time) {
	if lec.DayOfWeek < 1 || lec.DayOfWeek > 7 {
		return
	}
	start := lec.NextOccurrence(now)
	end := start
	if dur := clockOffset(lec.EndTime) - clockOffset(lec.StartTime); dur > 0 {
		end = start.Add(dur)
	}

	event := cal.AddEvent(eventUID("lecture", lec.ID))
	event.SetDtStampTime(now)
	event.SetCreatedTime(lec.CreatedAt)
	event.SetStartAt(start)
	event.SetEndAt(end)
	event.SetSummary(lec.Title)
	event.AddRrule("FREQ=WEEKLY;BYDAY=" + rruleDays[lec.DayOfWeek-1])
	if lec.Room != "" {
		event.SetLocation(lec.Room)
	}
	event.SetDescription(describe(
		"Subject", subjectName,
		"Lecturer", lec.Lecturer,
		"Time", lec.DayName()+" "+lec.FormattedTime(),
	))

	if lec.NotificationEnabled {
		alarm := event.AddAlarm()
		alarm.SetAction(ics.ActionDisplay)
		alarm.SetTrigger(fmt.Sprintf("-PT%dM", lec.NotificationMinutesBefore))
		alarm.SetProperty(ics.ComponentPropertyDescription, lec.Title+" starts at "+lec.StartTime)
	}
}

func addDeadline(cal *ics.Calendar, asg assignment.Assignment, subjectName string, now time.Time) {
	event := cal.AddEvent(eventUID("assignment", asg.ID))
	event.SetDtStampTime(now)
	event.SetCreatedTime(asg.CreatedAt)
	event.SetStartAt(asg.DueDate)
	event.SetEndAt(asg.DueDate)
	event.SetSummary("Due: " + asg.Title)
	event.SetDescription(describe(
		"Subject", subjectName,
		"Priority", asg.PriorityText(),
		"Estimated time", fmt.Sprintf("%dh", asg.EstimatedTimeHours),
		"Notes", asg.Notes,
	))

	if asg.ReminderEnabled && asg.ReminderTime > 0 {
		alarm := event.AddAlarm()
		alarm.SetAction(ics.ActionDisplay)
		alarm.SetTrigger(fmt.Sprintf("-PT%dH", asg.ReminderTime))
		alarm.SetProperty(ics.ComponentPropertyDescription, asg.Title+" is due soon")
	}
}

// WriteCalendar serializes the calendar feed to w.
func WriteCalendar(w io.Writer, data CalendarData, now time.Time) error {
	if _, err := io.WriteString(w, NewCalendar(data, now).Serialize()); err != nil {
		return errors.Wrap(err, "writing calendar")
	}
	return nil
}

// clockOffset returns the duration since midnight of an "HH:MM" time, or 0 when malformed.
func clockOffset(hhmm string) time.Duration {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
}

// describe renders "Key: value" lines, skipping empty values.
func describe(keysAndValues ...string) string {
	lines := make([]string, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if keysAndValues[i+1] == "" {
			continue
		}
		lines = append(lines, keysAndValues[i]+": "+keysAndValues[i+1])
	}
	return strings.Join(lines, "\n")
}
