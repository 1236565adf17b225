package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/unitrack/core"
	"github.com/trezcool/unitrack/core/lecture"
	"github.com/trezcool/unitrack/core/watch"
)

const lectureColumns = "id, user_id, subject_id, title, day_of_week, start_time, end_time, room, lecturer, " +
	"notification_enabled, notification_minutes_before, created_at"

var (
	byDayAndStart = []core.DBOrdering{
		{Field: "day_of_week", Ascending: true},
		{Field: "start_time", Ascending: true},
		{Field: "id", Ascending: true},
	}
	byStart = []core.DBOrdering{{Field: "start_time", Ascending: true}, {Field: "id", Ascending: true}}
)

type lectureRow struct {
	ID                        int    `db:"id"`
	UserID                    int    `db:"user_id"`
	SubjectID                 int    `db:"subject_id"`
	Title                     string `db:"title"`
	DayOfWeek                 int    `db:"day_of_week"`
	StartTime                 string `db:"start_time"`
	EndTime                   string `db:"end_time"`
	Room                      string `db:"room"`
	Lecturer                  string `db:"lecturer"`
	NotificationEnabled       bool   `db:"notification_enabled"`
	NotificationMinutesBefore int    `db:"notification_minutes_before"`
	CreatedAt                 int64  `db:"created_at"`
}

func (r lectureRow) lecture() lecture.Lecture {
	return lecture.Lecture{
		ID:                        r.ID,
		UserID:                    r.UserID,
		SubjectID:                 r.SubjectID,
		Title:                     r.Title,
		DayOfWeek:                 r.DayOfWeek,
		StartTime:                 r.StartTime,
		EndTime:                   r.EndTime,
		Room:                      r.Room,
		Lecturer:                  r.Lecturer,
		NotificationEnabled:       r.NotificationEnabled,
		NotificationMinutesBefore: r.NotificationMinutesBefore,
		CreatedAt:                 fromMillis(r.CreatedAt),
	}
}

type lectureRepository struct {
	repository
}

var _ lecture.Repository = (*lectureRepository)(nil) // interface compliance check

func NewLectureRepository(exec core.DBExecutor, pub watch.Publisher) *lectureRepository {
	return &lectureRepository{repository{exec: exec, pub: pub}}
}

func (repo lectureRepository) query(ctx context.Context, where string, ordering []core.DBOrdering, args ...interface{}) ([]lecture.Lecture, error) {
	var rows []lectureRow
	q := "SELECT " + lectureColumns + " FROM lectures WHERE " + where + orderBy(ordering...)
	if err := repo.selectAll(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying lectures")
	}
	lectures := make([]lecture.Lecture, 0, len(rows))
	for _, r := range rows {
		lectures = append(lectures, r.lecture())
	}
	return lectures, nil
}

func (repo lectureRepository) CreateLecture(ctx context.Context, lec lecture.Lecture) (lecture.Lecture, error) {
	id, err := repo.insert(ctx,
		`INSERT INTO lectures (user_id, subject_id, title, day_of_week, start_time, end_time, room, lecturer,
			notification_enabled, notification_minutes_before, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lec.UserID, lec.SubjectID, lec.Title, lec.DayOfWeek, lec.StartTime, lec.EndTime, lec.Room, lec.Lecturer,
		lec.NotificationEnabled, lec.NotificationMinutesBefore, toMillis(lec.CreatedAt))
	if err != nil {
		return lecture.Lecture{}, errors.Wrap(err, "inserting lecture")
	}
	repo.publish(watch.Lectures)
	return repo.GetLectureByID(ctx, id)
}

func (repo lectureRepository) GetLectureByID(ctx context.Context, id int) (lecture.Lecture, error) {
	var row lectureRow
	if err := repo.get(ctx, &row, "SELECT "+lectureColumns+" FROM lectures WHERE id = ?", id); err != nil {
		return lecture.Lecture{}, trapNoRowsErr(err, lecture.ErrNotFound, "getting lecture")
	}
	return row.lecture(), nil
}

func (repo lectureRepository) QueryLecturesByUser(ctx context.Context, userID int) ([]lecture.Lecture, error) {
	return repo.query(ctx, "user_id = ?", byDayAndStart, userID)
}

func (repo lectureRepository) QueryLecturesBySubject(ctx context.Context, subjectID int) ([]lecture.Lecture, error) {
	return repo.query(ctx, "subject_id = ?", byDayAndStart, subjectID)
}

func (repo lectureRepository) QueryLecturesByDay(ctx context.Context, userID, day int) ([]lecture.Lecture, error) {
	return repo.query(ctx, "user_id = ? AND day_of_week = ?", byStart, userID, day)
}

func (repo lectureRepository) QueryLecturesWithNotifications(ctx context.Context, userID int) ([]lecture.Lecture, error) {
	return repo.query(ctx, "user_id = ? AND notification_enabled = ?", byDayAndStart, userID, true)
}

func (repo lectureRepository) UpdateLecture(ctx context.Context, lec lecture.Lecture) (lecture.Lecture, error) {
	n, err := repo.execute(ctx,
		`UPDATE lectures SET user_id = ?, subject_id = ?, title = ?, day_of_week = ?, start_time = ?, end_time = ?,
			room = ?, lecturer = ?, notification_enabled = ?, notification_minutes_before = ?
		WHERE id = ?`,
		lec.UserID, lec.SubjectID, lec.Title, lec.DayOfWeek, lec.StartTime, lec.EndTime,
		lec.Room, lec.Lecturer, lec.NotificationEnabled, lec.NotificationMinutesBefore,
		lec.ID)
	if err != nil {
		return lecture.Lecture{}, errors.Wrap(err, "updating lecture")
	}
	if n == 0 {
		return lecture.Lecture{}, lecture.ErrNotFound
	}
	repo.publish(watch.Lectures)
	return repo.GetLectureByID(ctx, lec.ID)
}

func (repo lectureRepository) DeleteLecture(ctx context.Context, id int) error {
	if _, err := repo.execute(ctx, "DELETE FROM lectures WHERE id = ?", id); err != nil {
		return errors.Wrap(err, "deleting lecture")
	}
	repo.publish(watch.Lectures)
	return nil
}
