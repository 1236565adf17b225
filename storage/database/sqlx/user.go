package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/unitrack/core"
	"github.com/trezcool/unitrack/core/user"
	"github.com/trezcool/unitrack/core/watch"
)

const userColumns = "id, name, student_id, university, created_at"

type userRow struct {
	ID         int    `db:"id"`
	Name       string `db:"name"`
	StudentID  string `db:"student_id"`
	University string `db:"university"`
	CreatedAt  int64  `db:"created_at"`
}

func (r userRow) user() user.User {
	return user.User{
		ID:         r.ID,
		Name:       r.Name,
		StudentID:  r.StudentID,
		University: r.University,
		CreatedAt:  fromMillis(r.CreatedAt),
	}
}

type userRepository struct {
	repository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor, pub watch.Publisher) *userRepository {
	return &userRepository{repository{exec: exec, pub: pub}}
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	id, err := repo.insert(ctx,
		"INSERT INTO users (name, student_id, university, created_at) VALUES (?, ?, ?, ?)",
		usr.Name, usr.StudentID, usr.University, toMillis(usr.CreatedAt))
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	repo.publish(watch.Users)
	return repo.GetUserByID(ctx, id)
}

func (repo userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	q := "SELECT " + userColumns + " FROM users" + orderBy(core.DBOrdering{Field: "name", Ascending: true})
	if err := repo.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.user())
	}
	return users, nil
}

func (repo userRepository) getUser(ctx context.Context, where string, arg interface{}) (user.User, error) {
	var row userRow
	if err := repo.get(ctx, &row, "SELECT "+userColumns+" FROM users WHERE "+where, arg); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	return row.user(), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	return repo.getUser(ctx, "id = ?", id)
}

func (repo userRepository) GetUserByStudentID(ctx context.Context, studentID string) (user.User, error) {
	return repo.getUser(ctx, "student_id = ?", studentID)
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	n, err := repo.execute(ctx,
		"UPDATE users SET name = ?, student_id = ?, university = ? WHERE id = ?",
		usr.Name, usr.StudentID, usr.University, usr.ID)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	repo.publish(watch.Users)
	return repo.GetUserByID(ctx, usr.ID)
}

// DeleteUser relies on the store to cascade to everything the user owns.
func (repo userRepository) DeleteUser(ctx context.Context, id int) error {
	if _, err := repo.execute(ctx, "DELETE FROM users WHERE id = ?", id); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	repo.publish(watch.AllTables...)
	return nil
}
