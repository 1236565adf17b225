// Package sqlxrepos implements the repositories of the core services on top of jmoiron/sqlx.
// Queries are written with `?` placeholders and rebound for the driver in use.
// Timestamps are stored as unix milliseconds.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/unitrack/core"
	"github.com/trezcool/unitrack/core/watch"
)

// Repositories bundles one repository per entity, all sharing the same executor and publisher.
type Repositories struct {
	Users       *userRepository
	Semesters   *semesterRepository
	Subjects    *subjectRepository
	Assignments *assignmentRepository
	Lectures    *lectureRepository
}

// New returns every repository. pub is notified after each successful mutation; it may be nil.
func New(exec core.DBExecutor, pub watch.Publisher) *Repositories {
	if pub == nil {
		pub = watch.NopPublisher{}
	}
	return &Repositories{
		Users:       NewUserRepository(exec, pub),
		Semesters:   NewSemesterRepository(exec, pub),
		Subjects:    NewSubjectRepository(exec, pub),
		Assignments: NewAssignmentRepository(exec, pub),
		Lectures:    NewLectureRepository(exec, pub),
	}
}

type repository struct {
	exec core.DBExecutor
	pub  watch.Publisher
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func orderBy(ordering ...core.DBOrdering) string {
	if len(ordering) == 0 {
		return ""
	}
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		orderList = append(orderList, ord.String())
	}
	return " ORDER BY " + strings.Join(orderList, ", ")
}

// trapNoRowsErr maps the "no rows" error to notFound.
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// connErr reports a lost or closed database as a core shutdown error.
func connErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "database is closed") {
		return core.NewShutdownError("database unavailable: " + err.Error())
	}
	return err
}

// insert runs an INSERT statement and returns the id of the new row.
func (repo repository) insert(ctx context.Context, query string, args ...interface{}) (int, error) {
	var id int
	err := repo.exec.QueryRowxContext(ctx, repo.exec.Rebind(query+" RETURNING id"), args...).Scan(&id)
	return id, connErr(err)
}

// execute runs a write statement and returns the number of affected rows.
func (repo repository) execute(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := repo.exec.ExecContext(ctx, repo.exec.Rebind(query), args...)
	if err != nil {
		return 0, connErr(err)
	}
	return res.RowsAffected()
}

func (repo repository) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return connErr(sqlx.GetContext(ctx, repo.exec, dest, repo.exec.Rebind(query), args...))
}

func (repo repository) selectAll(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return connErr(sqlx.SelectContext(ctx, repo.exec, dest, repo.exec.Rebind(query), args...))
}

func (repo repository) publish(tables ...string) {
	repo.pub.Publish(tables...)
}
