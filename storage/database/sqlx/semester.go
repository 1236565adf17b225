package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/unitrack/core"
	"github.com/trezcool/unitrack/core/semester"
	"github.com/trezcool/unitrack/core/watch"
)

const semesterColumns = "id, user_id, year, semester_number, name, gpa, created_at"

var semesterOrdering = []core.DBOrdering{
	{Field: "year", Ascending: true},
	{Field: "semester_number", Ascending: true},
}

type semesterRow struct {
	ID        int     `db:"id"`
	UserID    int     `db:"user_id"`
	Year      int     `db:"year"`
	Number    int     `db:"semester_number"`
	Name      string  `db:"name"`
	GPA       float64 `db:"gpa"`
	CreatedAt int64   `db:"created_at"`
}

func (r semesterRow) semester() semester.Semester {
	return semester.Semester{
		ID:        r.ID,
		UserID:    r.UserID,
		Year:      r.Year,
		Number:    r.Number,
		Name:      r.Name,
		GPA:       r.GPA,
		CreatedAt: fromMillis(r.CreatedAt),
	}
}

func semesters(rows []semesterRow) []semester.Semester {
	sems := make([]semester.Semester, 0, len(rows))
	for _, r := range rows {
		sems = append(sems, r.semester())
	}
	return sems
}

type semesterRepository struct {
	repository
}

var _ semester.Repository = (*semesterRepository)(nil) // interface compliance check

func NewSemesterRepository(exec core.DBExecutor, pub watch.Publisher) *semesterRepository {
	return &semesterRepository{repository{exec: exec, pub: pub}}
}

func (repo semesterRepository) CreateSemester(ctx context.Context, sem semester.Semester) (semester.Semester, error) {
	id, err := repo.insert(ctx,
		"INSERT INTO semesters (user_id, year, semester_number, name, gpa, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		sem.UserID, sem.Year, sem.Number, sem.Name, sem.GPA, toMillis(sem.CreatedAt))
	if err != nil {
		return semester.Semester{}, errors.Wrap(err, "inserting semester")
	}
	repo.publish(watch.Semesters)
	return repo.GetSemesterByID(ctx, id)
}

func (repo semesterRepository) GetSemesterByID(ctx context.Context, id int) (semester.Semester, error) {
	var row semesterRow
	if err := repo.get(ctx, &row, "SELECT "+semesterColumns+" FROM semesters WHERE id = ?", id); err != nil {
		return semester.Semester{}, trapNoRowsErr(err, semester.ErrNotFound, "getting semester")
	}
	return row.semester(), nil
}

func (repo semesterRepository) GetSemester(ctx context.Context, userID, year, number int) (semester.Semester, error) {
	var row semesterRow
	q := "SELECT " + semesterColumns + " FROM semesters WHERE user_id = ? AND year = ? AND semester_number = ? ORDER BY id LIMIT 1"
	if err := repo.get(ctx, &row, q, userID, year, number); err != nil {
		return semester.Semester{}, trapNoRowsErr(err, semester.ErrNotFound, "getting semester")
	}
	return row.semester(), nil
}

func (repo semesterRepository) QuerySemestersByUser(ctx context.Context, userID int) ([]semester.Semester, error) {
	var rows []semesterRow
	q := "SELECT " + semesterColumns + " FROM semesters WHERE user_id = ?" + orderBy(semesterOrdering...)
	if err := repo.selectAll(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying semesters")
	}
	return semesters(rows), nil
}

func (repo semesterRepository) UpdateSemester(ctx context.Context, sem semester.Semester) (semester.Semester, error) {
	n, err := repo.execute(ctx,
		"UPDATE semesters SET user_id = ?, year = ?, semester_number = ?, name = ?, gpa = ? WHERE id = ?",
		sem.UserID, sem.Year, sem.Number, sem.Name, sem.GPA, sem.ID)
	if err != nil {
		return semester.Semester{}, errors.Wrap(err, "updating semester")
	}
	if n == 0 {
		return semester.Semester{}, semester.ErrNotFound
	}
	repo.publish(watch.Semesters)
	return repo.GetSemesterByID(ctx, sem.ID)
}

func (repo semesterRepository) DeleteSemester(ctx context.Context, id int) error {
	if _, err := repo.execute(ctx, "DELETE FROM semesters WHERE id = ?", id); err != nil {
		return errors.Wrap(err, "deleting semester")
	}
	repo.publish(watch.Semesters, watch.Subjects, watch.Assignments, watch.Lectures)
	return nil
}

func (repo semesterRepository) DeleteSemestersByUser(ctx context.Context, userID int) error {
	if _, err := repo.execute(ctx, "DELETE FROM semesters WHERE user_id = ?", userID); err != nil {
		return errors.Wrap(err, "deleting user semesters")
	}
	repo.publish(watch.Semesters, watch.Subjects, watch.Assignments, watch.Lectures)
	return nil
}
