package lecture

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound       = errors.New("lecture not found")
	ErrEndBeforeStart = errors.New("end_time must be after start_time")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateLecture(ctx context.Context, lec Lecture) (Lecture, error)
		GetLectureByID(ctx context.Context, id int) (Lecture, error)
		// QueryLecturesByUser orders by day then start time.
		QueryLecturesByUser(ctx context.Context, userID int) ([]Lecture, error)
		// QueryLecturesBySubject orders by day then start time.
		QueryLecturesBySubject(ctx context.Context, subjectID int) ([]Lecture, error)
		// QueryLecturesByDay orders by start time.
		QueryLecturesByDay(ctx context.Context, userID, day int) ([]Lecture, error)
		QueryLecturesWithNotifications(ctx context.Context, userID int) ([]Lecture, error)
		UpdateLecture(ctx context.Context, lec Lecture) (Lecture, error)
		DeleteLecture(ctx context.Context, id int) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Add(ctx context.Context, nl NewLecture) (Lecture, error) {
	nl.Clean()
	lec := Lecture{
		UserID:                    nl.UserID,
		SubjectID:                 nl.SubjectID,
		Title:                     nl.Title,
		DayOfWeek:                 nl.DayOfWeek,
		StartTime:                 nl.StartTime,
		EndTime:                   nl.EndTime,
		Room:                      nl.Room,
		Lecturer:                  nl.Lecturer,
		NotificationEnabled:       true,
		NotificationMinutesBefore: DefaultNotificationMinutesBefore,
		CreatedAt:                 nowFunc().UTC(),
	}
	if nl.NotificationEnabled != nil {
		lec.NotificationEnabled = *nl.NotificationEnabled
	}
	if nl.NotificationMinutesBefore != nil {
		lec.NotificationMinutesBefore = *nl.NotificationMinutesBefore
	}

	lec, err := svc.repo.CreateLecture(ctx, lec)
	if err != nil {
		return Lecture{}, errors.Wrap(err, "creating lecture")
	}
	return lec, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Lecture, error) {
	return svc.repo.GetLectureByID(ctx, id)
}

func (svc *Service) QueryByUser(ctx context.Context, userID int) ([]Lecture, error) {
	return svc.repo.QueryLecturesByUser(ctx, userID)
}

func (svc *Service) QueryBySubject(ctx context.Context, subjectID int) ([]Lecture, error) {
	return svc.repo.QueryLecturesBySubject(ctx, subjectID)
}

func (svc *Service) QueryByDay(ctx context.Context, userID, day int) ([]Lecture, error) {
	return svc.repo.QueryLecturesByDay(ctx, userID, day)
}

// Today returns the lectures of the current local weekday.
func (svc *Service) Today(ctx context.Context, userID int) ([]Lecture, error) {
	return svc.repo.QueryLecturesByDay(ctx, userID, ISOWeekday(nowFunc()))
}

// WithNotifications returns the lectures a notification collaborator should schedule alarms for.
func (svc *Service) WithNotifications(ctx context.Context, userID int) ([]Lecture, error) {
	return svc.repo.QueryLecturesWithNotifications(ctx, userID)
}

// UpcomingReminders returns the next reminder of every notifying lecture, soonest first.
// Nothing is scheduled here.
func (svc *Service) UpcomingReminders(ctx context.Context, userID int) ([]Reminder, error) {
	lectures, err := svc.repo.QueryLecturesWithNotifications(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := nowFunc()
	reminders := make([]Reminder, 0, len(lectures))
	for _, lec := range lectures {
		at := lec.NextReminderAt(now)
		reminders = append(reminders, Reminder{
			Lecture:  lec,
			RemindAt: at,
			StartsAt: at.Add(time.Duration(lec.NotificationMinutesBefore) * time.Minute),
		})
	}
	sort.SliceStable(reminders, func(i, j int) bool {
		return reminders[i].RemindAt.Before(reminders[j].RemindAt)
	})
	return reminders, nil
}

// Update replaces the whole Lecture record; the owner never changes.
func (svc *Service) Update(ctx context.Context, id int, ul UpdateLecture) (Lecture, error) {
	orig, err := svc.repo.GetLectureByID(ctx, id)
	if err != nil {
		return Lecture{}, err
	}
	lec := Lecture{
		ID:                        orig.ID,
		UserID:                    orig.UserID,
		SubjectID:                 ul.SubjectID,
		Title:                     ul.Title,
		DayOfWeek:                 ul.DayOfWeek,
		StartTime:                 ul.StartTime,
		EndTime:                   ul.EndTime,
		Room:                      ul.Room,
		Lecturer:                  ul.Lecturer,
		NotificationEnabled:       ul.NotificationEnabled,
		NotificationMinutesBefore: ul.NotificationMinutesBefore,
		CreatedAt:                 orig.CreatedAt,
	}
	if lec, err = svc.repo.UpdateLecture(ctx, lec); err != nil {
		return Lecture{}, errors.Wrap(err, "updating lecture")
	}
	return lec, nil
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	if err := svc.repo.DeleteLecture(ctx, id); err != nil {
		return errors.Wrap(err, "deleting lecture")
	}
	return nil
}
