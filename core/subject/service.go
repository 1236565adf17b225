package subject

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound = errors.New("subject not found")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		GetSubjectByID(ctx context.Context, id int) (Subject, error)
		QuerySubjectsBySemester(ctx context.Context, semesterID int) ([]Subject, error)
		// QuerySubjectsByUser joins through the semesters owned by userID.
		QuerySubjectsByUser(ctx context.Context, userID int) ([]Subject, error)
		UpdateSubject(ctx context.Context, sub Subject) (Subject, error)
		DeleteSubject(ctx context.Context, id int) error
		DeleteSubjectsBySemester(ctx context.Context, semesterID int) error
	}

	// GPARecomputer refreshes the cached GPA of a semester.
	GPARecomputer interface {
		RecomputeSemesterGPA(ctx context.Context, semesterID int) (float64, error)
	}

	// Service is the only write path for subjects: every mutation that may move
	// a GPA is followed by the recompute-and-persist of the affected semester(s).
	Service struct {
		repo Repository
		gpa  GPARecomputer
	}
)

func NewService(repo Repository, gpa GPARecomputer) *Service {
	return &Service{repo: repo, gpa: gpa}
}

func (svc *Service) Add(ctx context.Context, ns NewSubject) (Subject, error) {
	ns.Clean()
	isCalculated := true
	if ns.IsCalculated != nil {
		isCalculated = *ns.IsCalculated
	}
	sub, err := svc.repo.CreateSubject(ctx, Subject{
		SemesterID:   ns.SemesterID,
		Name:         ns.Name,
		CreditValue:  ns.CreditValue,
		Grade:        ns.Grade,
		IsCalculated: isCalculated,
		CreatedAt:    nowFunc().UTC(),
	})
	if err != nil {
		return Subject{}, errors.Wrap(err, "creating subject")
	}
	if err = svc.recompute(ctx, sub.SemesterID); err != nil {
		return sub, err
	}
	return sub, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Subject, error) {
	return svc.repo.GetSubjectByID(ctx, id)
}

func (svc *Service) QueryBySemester(ctx context.Context, semesterID int) ([]Subject, error) {
	return svc.repo.QuerySubjectsBySemester(ctx, semesterID)
}

func (svc *Service) QueryByUser(ctx context.Context, userID int) ([]Subject, error) {
	return svc.repo.QuerySubjectsByUser(ctx, userID)
}

// Update replaces the whole Subject record.
// The GPA of the previous semester (and of the new one, if moved) is recomputed
// whenever grade, credits, calculation flag or semester changed.
func (svc *Service) Update(ctx context.Context, id int, us UpdateSubject) (Subject, error) {
	us.Clean()
	orig, err := svc.repo.GetSubjectByID(ctx, id)
	if err != nil {
		return Subject{}, err
	}
	sub := Subject{
		ID:           orig.ID,
		SemesterID:   us.SemesterID,
		Name:         us.Name,
		CreditValue:  us.CreditValue,
		Grade:        us.Grade,
		IsCalculated: us.IsCalculated,
		CreatedAt:    orig.CreatedAt,
	}
	if sub, err = svc.repo.UpdateSubject(ctx, sub); err != nil {
		return Subject{}, errors.Wrap(err, "updating subject")
	}

	if orig.affectsGPA(sub) {
		if err = svc.recompute(ctx, orig.SemesterID); err != nil {
			return sub, err
		}
		if sub.SemesterID != orig.SemesterID {
			if err = svc.recompute(ctx, sub.SemesterID); err != nil {
				return sub, err
			}
		}
	}
	return sub, nil
}

// Delete removes the Subject (its assignments and lectures follow by cascade).
// Deleting a missing subject is a no-op.
func (svc *Service) Delete(ctx context.Context, id int) error {
	sub, err := svc.repo.GetSubjectByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if err = svc.repo.DeleteSubject(ctx, id); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return svc.recompute(ctx, sub.SemesterID)
}

func (svc *Service) recompute(ctx context.Context, semesterID int) error {
	if _, err := svc.gpa.RecomputeSemesterGPA(ctx, semesterID); err != nil {
		return errors.Wrapf(err, "recomputing GPA of semester %d", semesterID)
	}
	return nil
}
