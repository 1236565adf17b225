package semester

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/unitrack/core"
	"github.com/trezcool/unitrack/core/subject"
)

var (
	// errors
	ErrNotFound = errors.New("semester not found")
	ErrExists   = errors.New("this semester already exists")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateSemester(ctx context.Context, sem Semester) (Semester, error)
		GetSemesterByID(ctx context.Context, id int) (Semester, error)
		// GetSemester looks a semester up by its (userID, year, number) natural key.
		GetSemester(ctx context.Context, userID, year, number int) (Semester, error)
		QuerySemestersByUser(ctx context.Context, userID int) ([]Semester, error)
		UpdateSemester(ctx context.Context, sem Semester) (Semester, error)
		DeleteSemester(ctx context.Context, id int) error
		DeleteSemestersByUser(ctx context.Context, userID int) error
	}

	Service struct {
		repo    Repository
		subRepo subject.Repository
	}
)

func NewService(repo Repository, subRepo subject.Repository) *Service {
	return &Service{repo: repo, subRepo: subRepo}
}

// Add creates the semester, or renames it when the user already has one for that year and number.
// There is no storage-level uniqueness on (user, year, number): this lookup is the only guard.
func (svc *Service) Add(ctx context.Context, ns NewSemester) (Semester, error) {
	ns.Clean()
	existing, err := svc.repo.GetSemester(ctx, ns.UserID, ns.Year, ns.Number)
	switch {
	case err == nil:
		existing.Name = ns.Name
		sem, err := svc.repo.UpdateSemester(ctx, existing)
		if err != nil {
			return Semester{}, errors.Wrap(err, "renaming semester")
		}
		return sem, nil
	case !errors.Is(err, ErrNotFound):
		return Semester{}, err
	}

	sem, err := svc.repo.CreateSemester(ctx, Semester{
		UserID:    ns.UserID,
		Year:      ns.Year,
		Number:    ns.Number,
		Name:      ns.Name,
		CreatedAt: nowFunc().UTC(),
	})
	if err != nil {
		return Semester{}, errors.Wrap(err, "creating semester")
	}
	return sem, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Semester, error) {
	return svc.repo.GetSemesterByID(ctx, id)
}

func (svc *Service) Get(ctx context.Context, userID, year, number int) (Semester, error) {
	return svc.repo.GetSemester(ctx, userID, year, number)
}

func (svc *Service) QueryByUser(ctx context.Context, userID int) ([]Semester, error) {
	return svc.repo.QuerySemestersByUser(ctx, userID)
}

// Update replaces year, number and name. Moving onto a (year, number) the user
// already holds is rejected.
func (svc *Service) Update(ctx context.Context, id int, us UpdateSemester) (Semester, error) {
	orig, err := svc.repo.GetSemesterByID(ctx, id)
	if err != nil {
		return Semester{}, err
	}
	if us.Year != orig.Year || us.Number != orig.Number {
		other, err := svc.repo.GetSemester(ctx, orig.UserID, us.Year, us.Number)
		if err == nil && other.ID != orig.ID {
			return Semester{}, core.NewConflictError("semester", "semester_number", ErrExists)
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return Semester{}, err
		}
	}
	orig.Year = us.Year
	orig.Number = us.Number
	orig.Name = core.CleanName(us.Name)
	sem, err := svc.repo.UpdateSemester(ctx, orig)
	if err != nil {
		return Semester{}, errors.Wrap(err, "updating semester")
	}
	return sem, nil
}

// Delete removes the semester's subjects first, then the semester.
// The store cascades the same way; the explicit step keeps parity with user deletion.
func (svc *Service) Delete(ctx context.Context, id int) error {
	if err := svc.subRepo.DeleteSubjectsBySemester(ctx, id); err != nil {
		return errors.Wrap(err, "deleting semester subjects")
	}
	if err := svc.repo.DeleteSemester(ctx, id); err != nil {
		return errors.Wrap(err, "deleting semester")
	}
	return nil
}
