package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/unitrack/core"
	"github.com/trezcool/unitrack/core/assignment"
	"github.com/trezcool/unitrack/core/lecture"
	"github.com/trezcool/unitrack/core/semester"
	"github.com/trezcool/unitrack/core/subject"
	"github.com/trezcool/unitrack/core/user"
	"github.com/trezcool/unitrack/core/watch"
	"github.com/trezcool/unitrack/storage/database"
	sqlxrepos "github.com/trezcool/unitrack/storage/database/sqlx"
)

// PrepareDB opens a private, migrated, in-memory SQLite database closed at the end of the test.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(core.NewTestConfig())
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

// PrepareRepos returns the repositories over a fresh database. broker may be nil.
func PrepareRepos(t *testing.T, broker *watch.Broker) (*sqlx.DB, *sqlxrepos.Repositories) {
	t.Helper()
	db := PrepareDB(t)
	var pub watch.Publisher
	if broker != nil {
		pub = broker
	}
	return db, sqlxrepos.New(db, pub)
}

// CountRows returns the number of rows of table matching where (e.g. "user_id = ?").
func CountRows(t *testing.T, db *sqlx.DB, table, where string, args ...interface{}) int {
	t.Helper()
	var n int
	if err := db.Get(&n, db.Rebind("SELECT COUNT(*) FROM "+table+" WHERE "+where), args...); err != nil {
		t.Fatalf("CountRows(%s) failed: %v", table, err)
	}
	return n
}

// AssertNoOrphans fails the test if any row references a parent that no longer exists.
func AssertNoOrphans(t *testing.T, db *sqlx.DB) {
	t.Helper()
	orphans := []struct{ table, where string }{
		{"semesters", "user_id NOT IN (SELECT id FROM users)"},
		{"subjects", "semester_id NOT IN (SELECT id FROM semesters)"},
		{"assignments", "subject_id NOT IN (SELECT id FROM subjects)"},
		{"lectures", "subject_id NOT IN (SELECT id FROM subjects) OR user_id NOT IN (SELECT id FROM users)"},
	}
	for _, o := range orphans {
		if n := CountRows(t, db, o.table, o.where); n != 0 {
			t.Errorf("orphaned %s = %d, want 0", o.table, n)
		}
	}
}

func CreateUser(t *testing.T, repo user.Repository, name, studentID string) user.User {
	t.Helper()
	usr, err := repo.CreateUser(context.Background(), user.User{
		Name:       name,
		StudentID:  studentID,
		University: user.DefaultUniversity,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateSemester(t *testing.T, repo semester.Repository, userID, year, number int) semester.Semester {
	t.Helper()
	sem, err := repo.CreateSemester(context.Background(), semester.Semester{
		UserID:    userID,
		Year:      year,
		Number:    number,
		Name:      semester.DefaultName(year, number),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSemester() failed: %v", err)
	}
	return sem
}

// CreateSubject inserts a subject straight into the store, without recomputing any GPA.
func CreateSubject(t *testing.T, repo subject.Repository, semesterID int, name, grade string, credits int, calculated bool) subject.Subject {
	t.Helper()
	sub, err := repo.CreateSubject(context.Background(), subject.Subject{
		SemesterID:   semesterID,
		Name:         name,
		CreditValue:  credits,
		Grade:        grade,
		IsCalculated: calculated,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return sub
}

func CreateAssignment(t *testing.T, repo assignment.Repository, subjectID int, title string, due time.Time, status string) assignment.Assignment {
	t.Helper()
	asg, err := repo.CreateAssignment(context.Background(), assignment.Assignment{
		SubjectID:          subjectID,
		Title:              title,
		DueDate:            due.UTC(),
		Priority:           assignment.PriorityLow,
		EstimatedTimeHours: assignment.DefaultEstimatedTimeHours,
		Status:             status,
		TotalMarks:         assignment.DefaultTotalMarks,
		CreatedAt:          time.Now().UTC(),
		ReminderEnabled:    true,
	})
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return asg
}

func CreateLecture(t *testing.T, repo lecture.Repository, userID, subjectID, day int, start, end string) lecture.Lecture {
	t.Helper()
	lec, err := repo.CreateLecture(context.Background(), lecture.Lecture{
		UserID:                    userID,
		SubjectID:                 subjectID,
		Title:                     "Lecture",
		DayOfWeek:                 day,
		StartTime:                 start,
		EndTime:                   end,
		NotificationEnabled:       true,
		NotificationMinutesBefore: lecture.DefaultNotificationMinutesBefore,
		CreatedAt:                 time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateLecture() failed: %v", err)
	}
	return lec
}

// Hierarchy is a user owning one semester with one subject.
type Hierarchy struct {
	User     user.User
	Semester semester.Semester
	Subject  subject.Subject
}

func CreateHierarchy(t *testing.T, repos *sqlxrepos.Repositories, studentID string) Hierarchy {
	t.Helper()
	usr := CreateUser(t, repos.Users, "Jane Doe", studentID)
	sem := CreateSemester(t, repos.Semesters, usr.ID, 1, 1)
	sub := CreateSubject(t, repos.Subjects, sem.ID, "Algorithms", "A", 3, true)
	return Hierarchy{User: usr, Semester: sem, Subject: sub}
}
