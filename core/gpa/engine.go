package gpa

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/unitrack/core/semester"
	"github.com/trezcool/unitrack/core/subject"
)

type (
	SemesterRepository interface {
		GetSemesterByID(ctx context.Context, id int) (semester.Semester, error)
		QuerySemestersByUser(ctx context.Context, userID int) ([]semester.Semester, error)
		UpdateSemester(ctx context.Context, sem semester.Semester) (semester.Semester, error)
	}

	SubjectRepository interface {
		QuerySubjectsBySemester(ctx context.Context, semesterID int) ([]subject.Subject, error)
		QuerySubjectsByUser(ctx context.Context, userID int) ([]subject.Subject, error)
	}

	Engine struct {
		semRepo SemesterRepository
		subRepo SubjectRepository
	}
)

var _ subject.GPARecomputer = (*Engine)(nil) // interface compliance check

func NewEngine(semRepo SemesterRepository, subRepo SubjectRepository) *Engine {
	return &Engine{semRepo: semRepo, subRepo: subRepo}
}

// SemesterGPA computes the GPA of a semester from its calculated subjects.
func (e *Engine) SemesterGPA(ctx context.Context, semesterID int) (float64, error) {
	subjects, err := e.subRepo.QuerySubjectsBySemester(ctx, semesterID)
	if err != nil {
		return 0, errors.Wrap(err, "querying semester subjects")
	}
	return Compute(subjects), nil
}

// OverallGPA pools points and credits of every calculated subject of every
// semester of the user before dividing. It is NOT the mean of semester GPAs.
func (e *Engine) OverallGPA(ctx context.Context, userID int) (float64, error) {
	subjects, err := e.subRepo.QuerySubjectsByUser(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "querying user subjects")
	}
	return Compute(subjects), nil
}

// RecomputeSemesterGPA computes the semester GPA and writes it back to the semester,
// leaving every other field untouched. A missing semester is a no-op.
func (e *Engine) RecomputeSemesterGPA(ctx context.Context, semesterID int) (float64, error) {
	gpa, err := e.SemesterGPA(ctx, semesterID)
	if err != nil {
		return 0, err
	}
	sem, err := e.semRepo.GetSemesterByID(ctx, semesterID)
	if err != nil {
		if errors.Is(err, semester.ErrNotFound) {
			return gpa, nil
		}
		return 0, err
	}
	if sem.GPA == gpa {
		return gpa, nil
	}
	sem.GPA = gpa
	if _, err = e.semRepo.UpdateSemester(ctx, sem); err != nil {
		return 0, errors.Wrap(err, "persisting semester GPA")
	}
	return gpa, nil
}

// RecomputeUser refreshes the cached GPA of every semester of the user.
func (e *Engine) RecomputeUser(ctx context.Context, userID int) error {
	sems, err := e.semRepo.QuerySemestersByUser(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "querying user semesters")
	}
	for _, sem := range sems {
		if _, err = e.RecomputeSemesterGPA(ctx, sem.ID); err != nil {
			return err
		}
	}
	return nil
}
