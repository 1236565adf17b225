package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/unitrack/core"
	"github.com/trezcool/unitrack/core/subject"
	"github.com/trezcool/unitrack/core/watch"
)

const subjectColumns = "sub.id, sub.semester_id, sub.name, sub.credit_value, sub.grade, sub.is_calculated, sub.created_at"

var subjectOrdering = []core.DBOrdering{{Field: "sub.name", Ascending: true}, {Field: "sub.id", Ascending: true}}

type subjectRow struct {
	ID           int    `db:"id"`
	SemesterID   int    `db:"semester_id"`
	Name         string `db:"name"`
	CreditValue  int    `db:"credit_value"`
	Grade        string `db:"grade"`
	IsCalculated bool   `db:"is_calculated"`
	CreatedAt    int64  `db:"created_at"`
}

func (r subjectRow) subject() subject.Subject {
	return subject.Subject{
		ID:           r.ID,
		SemesterID:   r.SemesterID,
		Name:         r.Name,
		CreditValue:  r.CreditValue,
		Grade:        r.Grade,
		IsCalculated: r.IsCalculated,
		CreatedAt:    fromMillis(r.CreatedAt),
	}
}

type subjectRepository struct {
	repository
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(exec core.DBExecutor, pub watch.Publisher) *subjectRepository {
	return &subjectRepository{repository{exec: exec, pub: pub}}
}

func (repo subjectRepository) query(ctx context.Context, q string, args ...interface{}) ([]subject.Subject, error) {
	var rows []subjectRow
	if err := repo.selectAll(ctx, &rows, q+orderBy(subjectOrdering...), args...); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	subjects := make([]subject.Subject, 0, len(rows))
	for _, r := range rows {
		subjects = append(subjects, r.subject())
	}
	return subjects, nil
}

func (repo subjectRepository) CreateSubject(ctx context.Context, sub subject.Subject) (subject.Subject, error) {
	id, err := repo.insert(ctx,
		"INSERT INTO subjects (semester_id, name, credit_value, grade, is_calculated, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		sub.SemesterID, sub.Name, sub.CreditValue, sub.Grade, sub.IsCalculated, toMillis(sub.CreatedAt))
	if err != nil {
		return subject.Subject{}, errors.Wrap(err, "inserting subject")
	}
	repo.publish(watch.Subjects)
	return repo.GetSubjectByID(ctx, id)
}

func (repo subjectRepository) GetSubjectByID(ctx context.Context, id int) (subject.Subject, error) {
	var row subjectRow
	if err := repo.get(ctx, &row, "SELECT "+subjectColumns+" FROM subjects sub WHERE sub.id = ?", id); err != nil {
		return subject.Subject{}, trapNoRowsErr(err, subject.ErrNotFound, "getting subject")
	}
	return row.subject(), nil
}

func (repo subjectRepository) QuerySubjectsBySemester(ctx context.Context, semesterID int) ([]subject.Subject, error) {
	return repo.query(ctx, "SELECT "+subjectColumns+" FROM subjects sub WHERE sub.semester_id = ?", semesterID)
}

func (repo subjectRepository) QuerySubjectsByUser(ctx context.Context, userID int) ([]subject.Subject, error) {
	return repo.query(ctx,
		"SELECT "+subjectColumns+" FROM subjects sub JOIN semesters sem ON sem.id = sub.semester_id WHERE sem.user_id = ?",
		userID)
}

func (repo subjectRepository) UpdateSubject(ctx context.Context, sub subject.Subject) (subject.Subject, error) {
	n, err := repo.execute(ctx,
		"UPDATE subjects SET semester_id = ?, name = ?, credit_value = ?, grade = ?, is_calculated = ? WHERE id = ?",
		sub.SemesterID, sub.Name, sub.CreditValue, sub.Grade, sub.IsCalculated, sub.ID)
	if err != nil {
		return subject.Subject{}, errors.Wrap(err, "updating subject")
	}
	if n == 0 {
		return subject.Subject{}, subject.ErrNotFound
	}
	repo.publish(watch.Subjects)
	return repo.GetSubjectByID(ctx, sub.ID)
}

func (repo subjectRepository) DeleteSubject(ctx context.Context, id int) error {
	if _, err := repo.execute(ctx, "DELETE FROM subjects WHERE id = ?", id); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	repo.publish(watch.Subjects, watch.Assignments, watch.Lectures)
	return nil
}

func (repo subjectRepository) DeleteSubjectsBySemester(ctx context.Context, semesterID int) error {
	if _, err := repo.execute(ctx, "DELETE FROM subjects WHERE semester_id = ?", semesterID); err != nil {
		return errors.Wrap(err, "deleting semester subjects")
	}
	repo.publish(watch.Subjects, watch.Assignments, watch.Lectures)
	return nil
}
