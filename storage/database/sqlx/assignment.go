package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/unitrack/core"
	"github.com/trezcool/unitrack/core/assignment"
	"github.com/trezcool/unitrack/core/watch"
)

const assignmentColumns = "asg.id, asg.subject_id, asg.title, asg.description, asg.due_date, asg.priority, " +
	"asg.estimated_time_hours, asg.status, asg.completion_date, asg.obtained_marks, asg.total_marks, asg.notes, " +
	"asg.created_at, asg.reminder_enabled, asg.reminder_time"

var (
	byDueDate  = []core.DBOrdering{{Field: "asg.due_date", Ascending: true}, {Field: "asg.id", Ascending: true}}
	byPriority = []core.DBOrdering{{Field: "asg.priority"}, {Field: "asg.due_date", Ascending: true}, {Field: "asg.id", Ascending: true}}
)

type assignmentRow struct {
	ID                 int          `db:"id"`
	SubjectID          int          `db:"subject_id"`
	Title              string       `db:"title"`
	Description        string       `db:"description"`
	DueDate            int64        `db:"due_date"`
	Priority           int          `db:"priority"`
	EstimatedTimeHours int          `db:"estimated_time_hours"`
	Status             string       `db:"status"`
	CompletionDate     null.Int64   `db:"completion_date"`
	ObtainedMarks      null.Float64 `db:"obtained_marks"`
	TotalMarks         float64      `db:"total_marks"`
	Notes              string       `db:"notes"`
	CreatedAt          int64        `db:"created_at"`
	ReminderEnabled    bool         `db:"reminder_enabled"`
	ReminderTime       int          `db:"reminder_time"`
}

func (r assignmentRow) assignment() assignment.Assignment {
	asg := assignment.Assignment{
		ID:                 r.ID,
		SubjectID:          r.SubjectID,
		Title:              r.Title,
		Description:        r.Description,
		DueDate:            fromMillis(r.DueDate),
		Priority:           r.Priority,
		EstimatedTimeHours: r.EstimatedTimeHours,
		Status:             r.Status,
		ObtainedMarks:      r.ObtainedMarks,
		TotalMarks:         r.TotalMarks,
		Notes:              r.Notes,
		CreatedAt:          fromMillis(r.CreatedAt),
		ReminderEnabled:    r.ReminderEnabled,
		ReminderTime:       r.ReminderTime,
	}
	if r.CompletionDate.Valid {
		asg.CompletionDate = null.TimeFrom(fromMillis(r.CompletionDate.Int64))
	}
	return asg
}

func completionMillis(t null.Time) null.Int64 {
	if !t.Valid {
		return null.Int64{}
	}
	return null.Int64From(toMillis(t.Time))
}

type assignmentRepository struct {
	repository
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(exec core.DBExecutor, pub watch.Publisher) *assignmentRepository {
	return &assignmentRepository{repository{exec: exec, pub: pub}}
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	id, err := repo.insert(ctx,
		`INSERT INTO assignments (subject_id, title, description, due_date, priority, estimated_time_hours, status,
			completion_date, obtained_marks, total_marks, notes, created_at, reminder_enabled, reminder_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		asg.SubjectID, asg.Title, asg.Description, toMillis(asg.DueDate), asg.Priority, asg.EstimatedTimeHours, asg.Status,
		completionMillis(asg.CompletionDate), asg.ObtainedMarks, asg.TotalMarks, asg.Notes, toMillis(asg.CreatedAt),
		asg.ReminderEnabled, asg.ReminderTime)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	repo.publish(watch.Assignments)
	return repo.GetAssignmentByID(ctx, id)
}

func (repo assignmentRepository) GetAssignmentByID(ctx context.Context, id int) (assignment.Assignment, error) {
	var row assignmentRow
	if err := repo.get(ctx, &row, "SELECT "+assignmentColumns+" FROM assignments asg WHERE asg.id = ?", id); err != nil {
		return assignment.Assignment{}, trapNoRowsErr(err, assignment.ErrNotFound, "getting assignment")
	}
	return row.assignment(), nil
}

func (repo assignmentRepository) FilterAssignments(ctx context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	var (
		q     strings.Builder
		conds []string
		args  []interface{}
	)
	q.WriteString("SELECT " + assignmentColumns + " FROM assignments asg")
	if filter.UserID != 0 || filter.SemesterID != 0 {
		q.WriteString(" JOIN subjects sub ON sub.id = asg.subject_id")
	}
	if filter.UserID != 0 {
		q.WriteString(" JOIN semesters sem ON sem.id = sub.semester_id")
		conds = append(conds, "sem.user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.SemesterID != 0 {
		conds = append(conds, "sub.semester_id = ?")
		args = append(args, filter.SemesterID)
	}
	if filter.SubjectID != 0 {
		conds = append(conds, "asg.subject_id = ?")
		args = append(args, filter.SubjectID)
	}
	if filter.Status != "" {
		conds = append(conds, "asg.status = ?")
		args = append(args, filter.Status)
	}
	if filter.Pending {
		conds = append(conds, "asg.status != ?")
		args = append(args, assignment.StatusCompleted)
	}
	if !filter.DueFrom.IsZero() {
		conds = append(conds, "asg.due_date >= ?")
		args = append(args, toMillis(filter.DueFrom))
	}
	if !filter.DueTo.IsZero() {
		conds = append(conds, "asg.due_date <= ?")
		args = append(args, toMillis(filter.DueTo))
	}
	if len(conds) > 0 {
		q.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	if filter.ByPriority {
		q.WriteString(orderBy(byPriority...))
	} else {
		q.WriteString(orderBy(byDueDate...))
	}

	var rows []assignmentRow
	if err := repo.selectAll(ctx, &rows, q.String(), args...); err != nil {
		return nil, errors.Wrap(err, "filtering assignments")
	}
	assignments := make([]assignment.Assignment, 0, len(rows))
	for _, r := range rows {
		assignments = append(assignments, r.assignment())
	}
	return assignments, nil
}

func (repo assignmentRepository) UpdateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	n, err := repo.execute(ctx,
		`UPDATE assignments SET subject_id = ?, title = ?, description = ?, due_date = ?, priority = ?,
			estimated_time_hours = ?, status = ?, completion_date = ?, obtained_marks = ?, total_marks = ?, notes = ?,
			reminder_enabled = ?, reminder_time = ?
		WHERE id = ?`,
		asg.SubjectID, asg.Title, asg.Description, toMillis(asg.DueDate), asg.Priority,
		asg.EstimatedTimeHours, asg.Status, completionMillis(asg.CompletionDate), asg.ObtainedMarks, asg.TotalMarks, asg.Notes,
		asg.ReminderEnabled, asg.ReminderTime,
		asg.ID)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if n == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	repo.publish(watch.Assignments)
	return repo.GetAssignmentByID(ctx, asg.ID)
}

func (repo assignmentRepository) DeleteAssignment(ctx context.Context, id int) error {
	if _, err := repo.execute(ctx, "DELETE FROM assignments WHERE id = ?", id); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	repo.publish(watch.Assignments)
	return nil
}

func (repo assignmentRepository) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	var n int
	if err := repo.get(ctx, &n, query, args...); err != nil {
		return 0, errors.Wrap(err, "counting assignments")
	}
	return n, nil
}

func (repo assignmentRepository) CountCompletedBySubject(ctx context.Context, subjectID int) (int, error) {
	return repo.count(ctx, "SELECT COUNT(*) FROM assignments WHERE status = ? AND subject_id = ?",
		assignment.StatusCompleted, subjectID)
}

func (repo assignmentRepository) CountPendingBySubject(ctx context.Context, subjectID int) (int, error) {
	return repo.count(ctx, "SELECT COUNT(*) FROM assignments WHERE status != ? AND subject_id = ?",
		assignment.StatusCompleted, subjectID)
}

func (repo assignmentRepository) AverageMarksBySubject(ctx context.Context, subjectID int) (null.Float64, error) {
	var avg null.Float64
	err := repo.get(ctx, &avg,
		"SELECT AVG(obtained_marks) FROM assignments WHERE status = ? AND subject_id = ? AND obtained_marks IS NOT NULL",
		assignment.StatusCompleted, subjectID)
	if err != nil {
		return null.Float64{}, errors.Wrap(err, "averaging assignment marks")
	}
	return avg, nil
}

func (repo assignmentRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	n, err := repo.execute(ctx, "UPDATE assignments SET status = ? WHERE status = ? AND due_date < ?",
		assignment.StatusOverdue, assignment.StatusPending, toMillis(now))
	if err != nil {
		return 0, errors.Wrap(err, "marking overdue assignments")
	}
	if n > 0 {
		repo.publish(watch.Assignments)
	}
	return n, nil
}
