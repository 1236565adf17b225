package assignment_test

import (
	"context"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/unitrack/core/assignment"
	sqlxrepos "github.com/trezcool/unitrack/storage/database/sqlx"
	"github.com/trezcool/unitrack/tests"
)

func setup(t *testing.T) (*assignment.Service, *sqlxrepos.Repositories, testutil.Hierarchy) {
	_, repos := testutil.PrepareRepos(t, nil)
	h := testutil.CreateHierarchy(t, repos, "S001")
	return assignment.NewService(repos.Assignments), repos, h
}

func TestService_Add(t *testing.T) {
	ctx := context.Background()
	svc, _, h := setup(t)
	due := time.Now().Add(72 * time.Hour)

	asg, err := svc.Add(ctx, assignment.NewAssignment{SubjectID: h.Subject.ID, Title: " Essay ", DueDate: due})
	if err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if asg.Title != "Essay" {
		t.Errorf("Title = %q, want %q", asg.Title, "Essay")
	}
	if asg.Status != assignment.StatusPending || asg.Priority != assignment.PriorityLow {
		t.Errorf("Status/Priority = %s/%d, want pending/low", asg.Status, asg.Priority)
	}
	if asg.TotalMarks != 100 || asg.EstimatedTimeHours != 2 || !asg.ReminderEnabled {
		t.Errorf("Add() defaults not applied: %+v", asg)
	}
	if asg.CompletionDate.Valid || asg.ObtainedMarks.Valid {
		t.Errorf("Add() CompletionDate/ObtainedMarks = %v/%v, want null", asg.CompletionDate, asg.ObtainedMarks)
	}
	if asg.DueDate.UnixMilli() != due.UnixMilli() {
		t.Errorf("DueDate = %v, want %v", asg.DueDate, due)
	}
}

func TestService_Complete(t *testing.T) {
	ctx := context.Background()
	svc, repos, h := setup(t)
	now := time.Now()
	asg := testutil.CreateAssignment(t, repos.Assignments, h.Subject.ID, "Essay", now.Add(-48*time.Hour), assignment.StatusPending)
	if !asg.IsOverdue(now) {
		t.Fatal("IsOverdue() = false before completion, want true")
	}

	if err := svc.Complete(ctx, asg.ID, null.Float64From(42)); err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}
	asg, _ = svc.GetByID(ctx, asg.ID)
	if asg.Status != assignment.StatusCompleted {
		t.Errorf("Status = %q, want completed", asg.Status)
	}
	if !asg.CompletionDate.Valid || asg.CompletionDate.Time.Before(now.Add(-time.Second)) {
		t.Errorf("CompletionDate = %v, want ~now", asg.CompletionDate)
	}
	if !asg.ObtainedMarks.Valid || asg.ObtainedMarks.Float64 != 42 {
		t.Errorf("ObtainedMarks = %v, want 42", asg.ObtainedMarks)
	}
	if asg.IsOverdue(now) {
		t.Error("IsOverdue() = true after completion, want false")
	}

	// marks may come later, or be cleared
	if err := svc.UpdateMarks(ctx, asg.ID, null.Float64{}); err != nil {
		t.Fatalf("UpdateMarks() failed: %v", err)
	}
	if asg, _ = svc.GetByID(ctx, asg.ID); asg.ObtainedMarks.Valid || asg.Status != assignment.StatusCompleted {
		t.Errorf("UpdateMarks(null) = %v/%s", asg.ObtainedMarks, asg.Status)
	}
	if err := svc.UpdateTotalMarks(ctx, asg.ID, 50); err != nil {
		t.Fatalf("UpdateTotalMarks() failed: %v", err)
	}
	_ = svc.UpdateMarks(ctx, asg.ID, null.Float64From(45))
	if asg, _ = svc.GetByID(ctx, asg.ID); asg.Percentage() != 90 || asg.Feedback().Grade != "A+" {
		t.Errorf("Percentage() = %v (%s), want 90 (A+)", asg.Percentage(), asg.Feedback().Grade)
	}

	// missing assignments are silently ignored
	for name, err := range map[string]error{
		"Complete":         svc.Complete(ctx, 999, null.Float64{}),
		"UpdateMarks":      svc.UpdateMarks(ctx, 999, null.Float64From(1)),
		"UpdateTotalMarks": svc.UpdateTotalMarks(ctx, 999, 10),
		"Delete":           svc.Delete(ctx, 999),
	} {
		if err != nil {
			t.Errorf("%s(missing) error = %v, want nil", name, err)
		}
	}
	if _, err := svc.GetByID(ctx, 999); err != assignment.ErrNotFound {
		t.Errorf("GetByID(missing) error = %v, want %v", err, assignment.ErrNotFound)
	}
}

func TestService_Stats(t *testing.T) {
	ctx := context.Background()
	svc, repos, h := setup(t)

	st, err := svc.Stats(ctx, h.Subject.ID)
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if st != (assignment.Stats{}) {
		t.Errorf("Stats() of no assignments = %+v, want zero values", st)
	}
	if st, _ = svc.UserStats(ctx, h.User.ID); st != (assignment.Stats{}) {
		t.Errorf("UserStats() of no assignments = %+v, want zero values", st)
	}

	now := time.Now()
	for _, marks := range []null.Float64{null.Float64From(70), null.Float64From(80), {}} {
		asg := testutil.CreateAssignment(t, repos.Assignments, h.Subject.ID, "done", now, assignment.StatusPending)
		_ = svc.Complete(ctx, asg.ID, marks)
	}
	testutil.CreateAssignment(t, repos.Assignments, h.Subject.ID, "todo", now, assignment.StatusPending)

	want := assignment.Stats{Total: 4, Completed: 3, Pending: 1, AverageMarks: 75, CompletionRate: 75}
	if st, _ = svc.Stats(ctx, h.Subject.ID); st != want {
		t.Errorf("Stats() = %+v, want %+v", st, want)
	}
	if st, _ = svc.UserStats(ctx, h.User.ID); st != want {
		t.Errorf("UserStats() = %+v, want %+v", st, want)
	}
}

func TestService_MarkOverdue(t *testing.T) {
	ctx := context.Background()
	svc, repos, h := setup(t)
	now := time.Now()
	late := testutil.CreateAssignment(t, repos.Assignments, h.Subject.ID, "late", now.Add(-time.Hour), assignment.StatusPending)
	testutil.CreateAssignment(t, repos.Assignments, h.Subject.ID, "soon", now.Add(time.Hour), assignment.StatusPending)

	// derived overdue state does not wait for the sweep
	overdue, _ := svc.Overdue(ctx, h.User.ID)
	if len(overdue) != 1 || overdue[0].ID != late.ID {
		t.Errorf("Overdue() = %+v, want [%d]", overdue, late.ID)
	}
	byLabel, _ := svc.QueryByStatus(ctx, h.User.ID, assignment.StatusOverdue)
	if len(byLabel) != 0 {
		t.Errorf("QueryByStatus(overdue) before sweep = %d items, want 0", len(byLabel))
	}

	n, err := svc.MarkOverdue(ctx)
	if err != nil {
		t.Fatalf("MarkOverdue() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("MarkOverdue() = %d, want 1", n)
	}
	byLabel, _ = svc.QueryByStatus(ctx, h.User.ID, " OVERDUE ")
	if len(byLabel) != 1 || byLabel[0].ID != late.ID {
		t.Errorf("QueryByStatus(overdue) after sweep = %+v, want [%d]", byLabel, late.ID)
	}
}

func TestService_DueSoon(t *testing.T) {
	ctx := context.Background()
	svc, repos, h := setup(t)
	now := time.Date(2024, time.June, 12, 10, 0, 0, 0, time.Local)
	defer assignment.SetNow(now)()

	create := func(title string, due time.Time, priority int) assignment.Assignment {
		asg := testutil.CreateAssignment(t, repos.Assignments, h.Subject.ID, title, due, assignment.StatusPending)
		asg.Priority = priority
		asg, err := repos.Assignments.UpdateAssignment(ctx, asg)
		if err != nil {
			t.Fatalf("UpdateAssignment() failed: %v", err)
		}
		return asg
	}
	tonight := create("tonight", now.Add(12*time.Hour), assignment.PriorityLow)
	thisMorning := create("this morning", now.Add(-2*time.Hour), assignment.PriorityMedium)
	nextWeek := create("next week", now.Add(6*24*time.Hour), assignment.PriorityCritical)
	create("next month", now.Add(30*24*time.Hour), assignment.PriorityCritical)

	soon, err := svc.DueSoon(ctx, h.User.ID, 7)
	if err != nil {
		t.Fatalf("DueSoon() failed: %v", err)
	}
	if len(soon) != 2 || soon[0].ID != nextWeek.ID || soon[1].ID != tonight.ID {
		t.Errorf("DueSoon() = %+v, want [next week, tonight]", soon)
	}

	today, _ := svc.Today(ctx, h.User.ID)
	if len(today) != 2 || today[0].ID != thisMorning.ID || today[1].ID != tonight.ID {
		t.Errorf("Today() = %+v, want [this morning, tonight]", today)
	}

	pending, _ := svc.QueryPending(ctx, h.User.ID)
	if len(pending) != 4 || pending[len(pending)-1].ID != tonight.ID {
		t.Errorf("QueryPending() = %+v, want 4 items ending with the low priority one", pending)
	}
}
