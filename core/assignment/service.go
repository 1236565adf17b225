package assignment

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

var (
	// errors
	ErrNotFound = errors.New("assignment not found")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id int) (Assignment, error)
		// FilterAssignments applies AND operation on available QueryFilter fields.
		FilterAssignments(ctx context.Context, filter QueryFilter) ([]Assignment, error)
		UpdateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		DeleteAssignment(ctx context.Context, id int) error

		CountCompletedBySubject(ctx context.Context, subjectID int) (int, error)
		CountPendingBySubject(ctx context.Context, subjectID int) (int, error)
		// AverageMarksBySubject averages the marks of completed, marked assignments.
		AverageMarksBySubject(ctx context.Context, subjectID int) (null.Float64, error)

		// MarkOverdue relabels every pending assignment due before `now` as overdue.
		MarkOverdue(ctx context.Context, now time.Time) (int64, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Add(ctx context.Context, na NewAssignment) (Assignment, error) {
	na.Clean()
	asg := Assignment{
		SubjectID:          na.SubjectID,
		Title:              na.Title,
		Description:        na.Description,
		DueDate:            na.DueDate.UTC(),
		Priority:           na.Priority,
		EstimatedTimeHours: na.EstimatedTimeHours,
		Status:             na.Status,
		ObtainedMarks:      na.ObtainedMarks,
		TotalMarks:         na.TotalMarks,
		Notes:              na.Notes,
		CreatedAt:          nowFunc().UTC(),
		ReminderEnabled:    true,
		ReminderTime:       na.ReminderTime,
	}
	if asg.Priority == 0 {
		asg.Priority = PriorityLow
	}
	if asg.EstimatedTimeHours == 0 {
		asg.EstimatedTimeHours = DefaultEstimatedTimeHours
	}
	if asg.Status == "" {
		asg.Status = StatusPending
	}
	if asg.TotalMarks == 0 {
		asg.TotalMarks = DefaultTotalMarks
	}
	if na.ReminderEnabled != nil {
		asg.ReminderEnabled = *na.ReminderEnabled
	}
	if asg.Status == StatusCompleted {
		asg.CompletionDate = null.TimeFrom(asg.CreatedAt)
	}

	asg, err := svc.repo.CreateAssignment(ctx, asg)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "creating assignment")
	}
	return asg, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Assignment, error) {
	return svc.repo.GetAssignmentByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Assignment, error) {
	filter.Clean()
	return svc.repo.FilterAssignments(ctx, filter)
}

func (svc *Service) QueryBySubject(ctx context.Context, subjectID int) ([]Assignment, error) {
	return svc.repo.FilterAssignments(ctx, QueryFilter{SubjectID: subjectID})
}

func (svc *Service) QueryBySemester(ctx context.Context, semesterID int) ([]Assignment, error) {
	return svc.repo.FilterAssignments(ctx, QueryFilter{SemesterID: semesterID})
}

func (svc *Service) QueryByUser(ctx context.Context, userID int) ([]Assignment, error) {
	return svc.repo.FilterAssignments(ctx, QueryFilter{UserID: userID})
}

// QueryByStatus filters on the persisted label. For "overdue" this only returns
// assignments that the overdue sweep has already relabelled.
func (svc *Service) QueryByStatus(ctx context.Context, userID int, status string) ([]Assignment, error) {
	return svc.Filter(ctx, QueryFilter{UserID: userID, Status: status})
}

// QueryPending returns every assignment that is not completed, most urgent first.
func (svc *Service) QueryPending(ctx context.Context, userID int) ([]Assignment, error) {
	return svc.repo.FilterAssignments(ctx, QueryFilter{UserID: userID, Pending: true, ByPriority: true})
}

// QueryBetween returns assignments due in [from, to], most urgent first.
func (svc *Service) QueryBetween(ctx context.Context, userID int, from, to time.Time) ([]Assignment, error) {
	return svc.repo.FilterAssignments(ctx, QueryFilter{UserID: userID, DueFrom: from, DueTo: to, ByPriority: true})
}

// DueSoon returns assignments due within the next `days` days.
func (svc *Service) DueSoon(ctx context.Context, userID, days int) ([]Assignment, error) {
	now := nowFunc()
	return svc.QueryBetween(ctx, userID, now, now.Add(time.Duration(days)*day))
}

// Today returns assignments due during the current local day.
func (svc *Service) Today(ctx context.Context, userID int) ([]Assignment, error) {
	start := StartOfDay(nowFunc())
	return svc.QueryBetween(ctx, userID, start, start.Add(day))
}

// Overdue returns the assignments that are overdue right now, whether or not the
// overdue sweep has relabelled them yet.
func (svc *Service) Overdue(ctx context.Context, userID int) ([]Assignment, error) {
	now := nowFunc()
	pending, err := svc.repo.FilterAssignments(ctx, QueryFilter{UserID: userID, Pending: true, DueTo: now})
	if err != nil {
		return nil, err
	}
	overdue := make([]Assignment, 0, len(pending))
	for _, asg := range pending {
		if asg.IsOverdue(now) {
			overdue = append(overdue, asg)
		}
	}
	return overdue, nil
}

// Update replaces the whole Assignment record.
func (svc *Service) Update(ctx context.Context, id int, ua UpdateAssignment) (Assignment, error) {
	orig, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	asg := Assignment{
		ID:                 orig.ID,
		SubjectID:          ua.SubjectID,
		Title:              ua.Title,
		Description:        ua.Description,
		DueDate:            ua.DueDate.UTC(),
		Priority:           ua.Priority,
		EstimatedTimeHours: ua.EstimatedTimeHours,
		Status:             ua.Status,
		CompletionDate:     ua.CompletionDate,
		ObtainedMarks:      ua.ObtainedMarks,
		TotalMarks:         ua.TotalMarks,
		Notes:              ua.Notes,
		CreatedAt:          orig.CreatedAt,
		ReminderEnabled:    ua.ReminderEnabled,
		ReminderTime:       ua.ReminderTime,
	}
	if asg, err = svc.repo.UpdateAssignment(ctx, asg); err != nil {
		return Assignment{}, errors.Wrap(err, "updating assignment")
	}
	return asg, nil
}

// Delete removes the assignment; deleting a missing one is a no-op.
func (svc *Service) Delete(ctx context.Context, id int) error {
	if err := svc.repo.DeleteAssignment(ctx, id); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return nil
}

// mutate loads the assignment, applies fn and persists the full record.
// A missing assignment is silently ignored.
func (svc *Service) mutate(ctx context.Context, id int, fn func(asg *Assignment)) error {
	asg, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	fn(&asg)
	if _, err = svc.repo.UpdateAssignment(ctx, asg); err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return nil
}

// Complete marks the assignment completed now and records the (optional) marks.
// Marks left null stay null: they may be recorded later with UpdateMarks.
func (svc *Service) Complete(ctx context.Context, id int, marks null.Float64) error {
	now := nowFunc().UTC()
	return svc.mutate(ctx, id, func(asg *Assignment) {
		asg.Status = StatusCompleted
		asg.CompletionDate = null.TimeFrom(now)
		asg.ObtainedMarks = marks
	})
}

// UpdateMarks records (or clears, when null) the obtained marks without touching the status.
func (svc *Service) UpdateMarks(ctx context.Context, id int, marks null.Float64) error {
	return svc.mutate(ctx, id, func(asg *Assignment) {
		asg.ObtainedMarks = marks
	})
}

func (svc *Service) UpdateTotalMarks(ctx context.Context, id int, total float64) error {
	return svc.mutate(ctx, id, func(asg *Assignment) {
		asg.TotalMarks = total
	})
}

// Stats summarizes the assignments of a subject using the store's aggregates.
func (svc *Service) Stats(ctx context.Context, subjectID int) (Stats, error) {
	completed, err := svc.repo.CountCompletedBySubject(ctx, subjectID)
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting completed assignments")
	}
	pending, err := svc.repo.CountPendingBySubject(ctx, subjectID)
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting pending assignments")
	}
	avg, err := svc.repo.AverageMarksBySubject(ctx, subjectID)
	if err != nil {
		return Stats{}, errors.Wrap(err, "averaging marks")
	}
	return newStats(completed, pending, avg), nil
}

// UserStats summarizes every assignment of the user.
func (svc *Service) UserStats(ctx context.Context, userID int) (Stats, error) {
	assignments, err := svc.QueryByUser(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	return StatsOf(assignments), nil
}

// StatsOf computes Stats in memory. Average marks only count completed assignments
// having marks.
func StatsOf(assignments []Assignment) Stats {
	var (
		completed, pending, marked int
		sum                        float64
	)
	for _, asg := range assignments {
		if !asg.IsCompleted() {
			pending++
			continue
		}
		completed++
		if asg.ObtainedMarks.Valid {
			marked++
			sum += asg.ObtainedMarks.Float64
		}
	}
	var avg null.Float64
	if marked > 0 {
		avg = null.Float64From(sum / float64(marked))
	}
	return newStats(completed, pending, avg)
}

// MarkOverdue materializes the "overdue" label on pending assignments whose due date has passed.
// Returns the number of relabelled assignments.
func (svc *Service) MarkOverdue(ctx context.Context) (int64, error) {
	n, err := svc.repo.MarkOverdue(ctx, nowFunc())
	if err != nil {
		return 0, errors.Wrap(err, "marking overdue assignments")
	}
	return n, nil
}
