package user

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/unitrack/core"
	"github.com/trezcool/unitrack/core/lecture"
	"github.com/trezcool/unitrack/core/semester"
)

var (
	// errors
	ErrNotFound        = errors.New("user not found")
	ErrStudentIDExists = errors.New("a user with this student id already exists")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		// QueryAllUsers orders by name.
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id int) (User, error)
		GetUserByStudentID(ctx context.Context, studentID string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUser(ctx context.Context, id int) error
	}

	// LectureRepository is the part of the lecture store the cascade needs.
	LectureRepository interface {
		QueryLecturesByUser(ctx context.Context, userID int) ([]lecture.Lecture, error)
		DeleteLecture(ctx context.Context, id int) error
	}

	// SemesterRepository is the part of the semester store the cascade needs.
	SemesterRepository interface {
		QuerySemestersByUser(ctx context.Context, userID int) ([]semester.Semester, error)
		DeleteSemestersByUser(ctx context.Context, userID int) error
	}

	// SubjectRepository is the part of the subject store the cascade needs.
	SubjectRepository interface {
		DeleteSubjectsBySemester(ctx context.Context, semesterID int) error
	}

	Service struct {
		repo    Repository
		lecRepo LectureRepository
		semRepo SemesterRepository
		subRepo SubjectRepository
	}
)

func NewService(repo Repository, lecRepo LectureRepository, semRepo SemesterRepository, subRepo SubjectRepository) *Service {
	return &Service{repo: repo, lecRepo: lecRepo, semRepo: semRepo, subRepo: subRepo}
}

// checkStudentID rejects a student id held by another user than exclID.
func (svc *Service) checkStudentID(ctx context.Context, studentID string, exclID int) error {
	other, err := svc.repo.GetUserByStudentID(ctx, studentID)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return err
	case other.ID == exclID:
		return nil
	}
	return core.NewConflictError("user", "student_id", ErrStudentIDExists)
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	nu.Clean()
	if err := svc.checkStudentID(ctx, nu.StudentID, 0); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.CreateUser(ctx, User{
		Name:       nu.Name,
		StudentID:  nu.StudentID,
		University: nu.University,
		CreatedAt:  nowFunc().UTC(),
	})
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByStudentID(ctx context.Context, studentID string) (User, error) {
	return svc.repo.GetUserByStudentID(ctx, core.CleanString(studentID))
}

func (svc *Service) Update(ctx context.Context, id int, uu UpdateUser) (User, error) {
	orig, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := svc.checkStudentID(ctx, uu.StudentID, orig.ID); err != nil {
		return User{}, err
	}
	orig.Name = uu.Name
	orig.StudentID = uu.StudentID
	orig.University = uu.University
	usr, err := svc.repo.UpdateUser(ctx, orig)
	if err != nil {
		return User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

// Delete removes the user and everything they own, in this order:
// lectures, subjects of every semester, semesters, then the user.
// The store cascades on its own as well; each step is a separate statement (no transaction).
func (svc *Service) Delete(ctx context.Context, id int) error {
	lectures, err := svc.lecRepo.QueryLecturesByUser(ctx, id)
	if err != nil {
		return errors.Wrap(err, "querying user lectures")
	}
	for _, lec := range lectures {
		if err := svc.lecRepo.DeleteLecture(ctx, lec.ID); err != nil {
			return errors.Wrapf(err, "deleting lecture %d", lec.ID)
		}
	}

	semesters, err := svc.semRepo.QuerySemestersByUser(ctx, id)
	if err != nil {
		return errors.Wrap(err, "querying user semesters")
	}
	for _, sem := range semesters {
		if err := svc.subRepo.DeleteSubjectsBySemester(ctx, sem.ID); err != nil {
			return errors.Wrapf(err, "deleting subjects of semester %d", sem.ID)
		}
	}
	if err := svc.semRepo.DeleteSemestersByUser(ctx, id); err != nil {
		return errors.Wrap(err, "deleting user semesters")
	}

	if err := svc.repo.DeleteUser(ctx, id); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return nil
}
