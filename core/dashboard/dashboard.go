// Package dashboard assembles the home screen of a user: GPA, semesters, deadlines,
// today's lectures and assignment progress, either once or as a live stream.
package dashboard

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/unitrack/core/assignment"
	"github.com/trezcool/unitrack/core/lecture"
	"github.com/trezcool/unitrack/core/semester"
	"github.com/trezcool/unitrack/core/user"
	"github.com/trezcool/unitrack/core/watch"
)

const DefaultDueSoonDays = 7

var nowFunc = time.Now // mockable

type (
	UserGetter interface {
		GetByID(ctx context.Context, id int) (user.User, error)
	}

	SemesterLister interface {
		QueryByUser(ctx context.Context, userID int) ([]semester.Semester, error)
	}

	GPAComputer interface {
		OverallGPA(ctx context.Context, userID int) (float64, error)
	}

	AssignmentQuerier interface {
		DueSoon(ctx context.Context, userID, days int) ([]assignment.Assignment, error)
		Overdue(ctx context.Context, userID int) ([]assignment.Assignment, error)
		UserStats(ctx context.Context, userID int) (assignment.Stats, error)
	}

	LectureQuerier interface {
		Today(ctx context.Context, userID int) ([]lecture.Lecture, error)
	}

	Dashboard struct {
		User          user.User           `json:"user"`
		OverallGPA    float64             `json:"overall_gpa"`
		Semesters     []semester.Semester `json:"semesters"`
		DueSoon       []assignment.View   `json:"due_soon"`
		Overdue       []assignment.View   `json:"overdue"`
		TodayLectures []lecture.Lecture   `json:"today_lectures"`
		Stats         assignment.Stats    `json:"stats"`
		GeneratedAt   time.Time           `json:"generated_at"`
	}

	Options struct {
		Users       UserGetter
		Semesters   SemesterLister
		GPA         GPAComputer
		Assignments AssignmentQuerier
		Lectures    LectureQuerier

		// Broker pushes invalidations to live dashboards; PollInterval re-runs them
		// regardless. Either may be left zero.
		Broker       *watch.Broker
		PollInterval time.Duration
		DueSoonDays  int
	}

	Service struct {
		opts Options
	}
)

func NewService(opts Options) *Service {
	if opts.DueSoonDays <= 0 {
		opts.DueSoonDays = DefaultDueSoonDays
	}
	return &Service{opts: opts}
}

// Snapshot loads every part of the dashboard concurrently.
// A missing user fails with user.ErrNotFound.
func (svc *Service) Snapshot(ctx context.Context, userID int) (Dashboard, error) {
	var (
		dash             Dashboard
		dueSoon, overdue []assignment.Assignment
	)
	opts := svc.opts
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		dash.User, err = opts.Users.GetByID(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		dash.OverallGPA, err = opts.GPA.OverallGPA(gctx, userID)
		return errors.Wrap(err, "computing overall GPA")
	})
	g.Go(func() (err error) {
		dash.Semesters, err = opts.Semesters.QueryByUser(gctx, userID)
		return errors.Wrap(err, "querying semesters")
	})
	g.Go(func() (err error) {
		dueSoon, err = opts.Assignments.DueSoon(gctx, userID, opts.DueSoonDays)
		return errors.Wrap(err, "querying assignments due soon")
	})
	g.Go(func() (err error) {
		overdue, err = opts.Assignments.Overdue(gctx, userID)
		return errors.Wrap(err, "querying overdue assignments")
	})
	g.Go(func() (err error) {
		dash.TodayLectures, err = opts.Lectures.Today(gctx, userID)
		return errors.Wrap(err, "querying today's lectures")
	})
	g.Go(func() (err error) {
		dash.Stats, err = opts.Assignments.UserStats(gctx, userID)
		return errors.Wrap(err, "computing assignment stats")
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	now := nowFunc()
	dash.DueSoon = assignment.Views(dueSoon, now)
	dash.Overdue = assignment.Views(overdue, now)
	dash.GeneratedAt = now
	return dash, nil
}

// Watch streams a fresh Dashboard whenever the user's data changes (and on every poll
// tick) until ctx is done.
func (svc *Service) Watch(ctx context.Context, userID int) <-chan watch.Snapshot[Dashboard] {
	return watch.Watch(ctx, svc.opts.Broker, svc.opts.PollInterval, func(ctx context.Context) (Dashboard, error) {
		return svc.Snapshot(ctx, userID)
	}, watch.AllTables...)
}
