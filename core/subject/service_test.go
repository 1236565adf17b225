package subject_test

import (
	"context"
	"testing"

	"github.com/trezcool/unitrack/core/gpa"
	"github.com/trezcool/unitrack/core/subject"
	sqlxrepos "github.com/trezcool/unitrack/storage/database/sqlx"
	"github.com/trezcool/unitrack/tests"
)

func setup(t *testing.T) (*subject.Service, *gpa.Engine, *sqlxrepos.Repositories) {
	_, repos := testutil.PrepareRepos(t, nil)
	engine := gpa.NewEngine(repos.Semesters, repos.Subjects)
	return subject.NewService(repos.Subjects, engine), engine, repos
}

func boolPtr(b bool) *bool { return &b }

// assertCacheConsistent checks that the cached semester GPA equals a fresh computation.
func assertCacheConsistent(t *testing.T, engine *gpa.Engine, repos *sqlxrepos.Repositories, semesterID int, want float64) {
	t.Helper()
	ctx := context.Background()
	sem, err := repos.Semesters.GetSemesterByID(ctx, semesterID)
	if err != nil {
		t.Fatalf("GetSemesterByID() failed: %v", err)
	}
	fresh, err := engine.SemesterGPA(ctx, semesterID)
	if err != nil {
		t.Fatalf("SemesterGPA() failed: %v", err)
	}
	if sem.GPA != fresh {
		t.Errorf("cached GPA = %v, want %v (fresh)", sem.GPA, fresh)
	}
	if sem.GPA != want {
		t.Errorf("cached GPA = %v, want %v", sem.GPA, want)
	}
}

func TestService_Add(t *testing.T) {
	ctx := context.Background()
	svc, engine, repos := setup(t)
	usr := testutil.CreateUser(t, repos.Users, "Jane Doe", "S001")
	sem := testutil.CreateSemester(t, repos.Semesters, usr.ID, 1, 1)

	sub, err := svc.Add(ctx, subject.NewSubject{SemesterID: sem.ID, Name: " Maths ", CreditValue: 4, Grade: "a-"})
	if err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if !sub.IsCalculated {
		t.Error("Add() IsCalculated = false, want true by default")
	}
	if sub.Name != "Maths" || sub.Grade != "A-" {
		t.Errorf("Add() = %q/%q, want cleaned values", sub.Name, sub.Grade)
	}
	assertCacheConsistent(t, engine, repos, sem.ID, 3.7)

	if _, err = svc.Add(ctx, subject.NewSubject{SemesterID: sem.ID, Name: "Physics", CreditValue: 2, Grade: "B+"}); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	assertCacheConsistent(t, engine, repos, sem.ID, 3.57)

	// excluded subjects leave the GPA alone
	_, err = svc.Add(ctx, subject.NewSubject{SemesterID: sem.ID, Name: "Sports", CreditValue: 30, Grade: "F", IsCalculated: boolPtr(false)})
	if err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	assertCacheConsistent(t, engine, repos, sem.ID, 3.57)

	// unknown grades are accepted and drag the GPA down
	if _, err = svc.Add(ctx, subject.NewSubject{SemesterID: sem.ID, Name: "Typo", CreditValue: 6, Grade: "Z"}); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	assertCacheConsistent(t, engine, repos, sem.ID, 1.78)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc, engine, repos := setup(t)
	usr := testutil.CreateUser(t, repos.Users, "Jane Doe", "S001")
	sem1 := testutil.CreateSemester(t, repos.Semesters, usr.ID, 1, 1)
	sem2 := testutil.CreateSemester(t, repos.Semesters, usr.ID, 1, 2)

	maths, _ := svc.Add(ctx, subject.NewSubject{SemesterID: sem1.ID, Name: "Maths", CreditValue: 3, Grade: "A"})
	_, _ = svc.Add(ctx, subject.NewSubject{SemesterID: sem1.ID, Name: "Physics", CreditValue: 3, Grade: "C"})
	assertCacheConsistent(t, engine, repos, sem1.ID, 3)

	upd := subject.UpdateSubject{SemesterID: sem1.ID, Name: "Maths", CreditValue: 3, Grade: "C", IsCalculated: true}
	if _, err := svc.Update(ctx, maths.ID, upd); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	assertCacheConsistent(t, engine, repos, sem1.ID, 2)

	// moving a subject refreshes both semesters
	upd.SemesterID, upd.Grade = sem2.ID, "B"
	if _, err := svc.Update(ctx, maths.ID, upd); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	assertCacheConsistent(t, engine, repos, sem1.ID, 2)
	assertCacheConsistent(t, engine, repos, sem2.ID, 3)

	if _, err := svc.Update(ctx, 999, upd); err != subject.ErrNotFound {
		t.Errorf("Update(missing) error = %v, want %v", err, subject.ErrNotFound)
	}
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, engine, repos := setup(t)
	usr := testutil.CreateUser(t, repos.Users, "Jane Doe", "S001")
	sem := testutil.CreateSemester(t, repos.Semesters, usr.ID, 1, 1)

	maths, _ := svc.Add(ctx, subject.NewSubject{SemesterID: sem.ID, Name: "Maths", CreditValue: 3, Grade: "A"})
	physics, _ := svc.Add(ctx, subject.NewSubject{SemesterID: sem.ID, Name: "Physics", CreditValue: 3, Grade: "C"})
	assertCacheConsistent(t, engine, repos, sem.ID, 3)

	if err := svc.Delete(ctx, physics.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	assertCacheConsistent(t, engine, repos, sem.ID, 4)

	if err := svc.Delete(ctx, maths.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	assertCacheConsistent(t, engine, repos, sem.ID, 0)

	if err := svc.Delete(ctx, maths.ID); err != nil {
		t.Errorf("Delete(missing) error = %v, want nil", err)
	}
}

func TestService_QueryByUser(t *testing.T) {
	ctx := context.Background()
	svc, _, repos := setup(t)
	usr := testutil.CreateUser(t, repos.Users, "Jane Doe", "S001")
	sem1 := testutil.CreateSemester(t, repos.Semesters, usr.ID, 1, 1)
	sem2 := testutil.CreateSemester(t, repos.Semesters, usr.ID, 2, 1)
	testutil.CreateSubject(t, repos.Subjects, sem2.ID, "Physics", "B", 3, true)
	testutil.CreateSubject(t, repos.Subjects, sem1.ID, "Algebra", "B", 3, true)

	other := testutil.CreateUser(t, repos.Users, "John Doe", "S002")
	otherSem := testutil.CreateSemester(t, repos.Semesters, other.ID, 1, 1)
	testutil.CreateSubject(t, repos.Subjects, otherSem.ID, "Biology", "B", 3, true)

	subjects, err := svc.QueryByUser(ctx, usr.ID)
	if err != nil {
		t.Fatalf("QueryByUser() failed: %v", err)
	}
	if len(subjects) != 2 {
		t.Fatalf("len(QueryByUser()) = %d, want 2", len(subjects))
	}
	if subjects[0].Name != "Algebra" || subjects[1].Name != "Physics" {
		t.Errorf("QueryByUser() = [%s %s], want [Algebra Physics]", subjects[0].Name, subjects[1].Name)
	}
}
