package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/unitrack/core"
)

// Statuses. A status is a label, not an enforced state machine.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusOverdue    = "overdue"
)

// Priorities
const (
	PriorityLow      = 1
	PriorityMedium   = 2
	PriorityHigh     = 3
	PriorityCritical = 4
)

const (
	DefaultTotalMarks         = 100.0
	DefaultEstimatedTimeHours = 2
)

var (
	Statuses = []string{StatusPending, StatusInProgress, StatusCompleted, StatusOverdue}

	priorityTexts = map[int]string{
		PriorityLow:      "Low",
		PriorityMedium:   "Medium",
		PriorityHigh:     "High",
		PriorityCritical: "Critical",
	}
)

// PriorityText returns the label of a priority; unknown priorities read as "Low".
func PriorityText(priority int) string {
	if txt, ok := priorityTexts[priority]; ok {
		return txt
	}
	return priorityTexts[PriorityLow]
}

type Assignment struct {
	ID                 int          `json:"id"`
	SubjectID          int          `json:"subject_id"`
	Title              string       `json:"title"`
	Description        string       `json:"description"`
	DueDate            time.Time    `json:"due_date"`
	Priority           int          `json:"priority"`
	EstimatedTimeHours int          `json:"estimated_time_hours"`
	Status             string       `json:"status"`
	CompletionDate     null.Time    `json:"completion_date"`
	ObtainedMarks      null.Float64 `json:"obtained_marks"`
	TotalMarks         float64      `json:"total_marks"`
	Notes              string       `json:"notes"`
	CreatedAt          time.Time    `json:"created_at"`
	ReminderEnabled    bool         `json:"reminder_enabled"`
	ReminderTime       int          `json:"reminder_time"` // hours before DueDate
}

func (a Assignment) IsCompleted() bool {
	return a.Status == StatusCompleted
}

func (a Assignment) PriorityText() string {
	return PriorityText(a.Priority)
}

// NewAssignment contains information needed to create a new Assignment.
// Zero values fall back to: priority Low, 2 estimated hours, status pending,
// 100 total marks and reminder enabled.
type NewAssignment struct {
	SubjectID          int          `json:"subject_id" validate:"required,gt=0"`
	Title              string       `json:"title" validate:"required"`
	Description        string       `json:"description"`
	DueDate            time.Time    `json:"due_date" validate:"required"`
	Priority           int          `json:"priority" validate:"omitempty,min=1,max=4"`
	EstimatedTimeHours int          `json:"estimated_time_hours" validate:"omitempty,min=0"`
	Status             string       `json:"status" validate:"omitempty,asgstatus"`
	ObtainedMarks      null.Float64 `json:"obtained_marks"`
	TotalMarks         float64      `json:"total_marks" validate:"omitempty,gt=0"`
	Notes              string       `json:"notes"`
	ReminderEnabled    *bool        `json:"reminder_enabled"`
	ReminderTime       int          `json:"reminder_time" validate:"omitempty,min=0"`
}

func (na *NewAssignment) Clean() {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.Notes = core.CleanString(na.Notes)
	na.Status = core.CleanString(na.Status, true /* lower */)
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Clean()
	return validate.Struct(na)
}

// UpdateAssignment is the full replacement of an existing Assignment.
type UpdateAssignment struct {
	SubjectID          int          `json:"subject_id" validate:"required,gt=0"`
	Title              string       `json:"title" validate:"required"`
	Description        string       `json:"description"`
	DueDate            time.Time    `json:"due_date" validate:"required"`
	Priority           int          `json:"priority" validate:"required,min=1,max=4"`
	EstimatedTimeHours int          `json:"estimated_time_hours" validate:"min=0"`
	Status             string       `json:"status" validate:"required,asgstatus"`
	CompletionDate     null.Time    `json:"completion_date"`
	ObtainedMarks      null.Float64 `json:"obtained_marks"`
	TotalMarks         float64      `json:"total_marks" validate:"gt=0"`
	Notes              string       `json:"notes"`
	ReminderEnabled    bool         `json:"reminder_enabled"`
	ReminderTime       int          `json:"reminder_time" validate:"min=0"`
}

func (ua *UpdateAssignment) Validate(validate *validator.Validate) error {
	ua.Title = core.CleanString(ua.Title)
	ua.Description = core.CleanString(ua.Description)
	ua.Notes = core.CleanString(ua.Notes)
	ua.Status = core.CleanString(ua.Status, true /* lower */)
	return validate.Struct(ua)
}

// QueryFilter applies AND on its non-zero fields.
// UserID and SemesterID join through subjects (and semesters).
// Pending keeps every assignment that is not completed.
// DueFrom and DueTo are inclusive bounds.
// ByPriority orders by priority (highest first) then due date; otherwise by due date only.
type QueryFilter struct {
	UserID     int       `query:"user_id"`
	SemesterID int       `query:"semester_id"`
	SubjectID  int       `query:"subject_id"`
	Status     string    `query:"status"`
	Pending    bool      `query:"pending"`
	DueFrom    time.Time `query:"from"`
	DueTo      time.Time `query:"to"`
	ByPriority bool      `query:"by_priority"`
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

// Stats summarizes the progress over a set of assignments.
type Stats struct {
	Total          int     `json:"total_assignments"`
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	AverageMarks   float64 `json:"average_marks"`
	CompletionRate float64 `json:"completion_rate"`
}

func newStats(completed, pending int, averageMarks null.Float64) Stats {
	st := Stats{
		Total:     completed + pending,
		Completed: completed,
		Pending:   pending,
	}
	if averageMarks.Valid {
		st.AverageMarks = averageMarks.Float64
	}
	if st.Total > 0 {
		st.CompletionRate = float64(completed) / float64(st.Total) * 100
	}
	return st
}
