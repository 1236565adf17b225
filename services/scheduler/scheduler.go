// Package scheduler runs the periodic maintenance jobs of the app on a cron schedule.
package scheduler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/unitrack/core"
)

const jobTimeout = 4 * time.Minute

type (
	// OverdueMarker relabels overdue pending assignments; see assignment.Service.MarkOverdue.
	OverdueMarker interface {
		MarkOverdue(ctx context.Context) (int64, error)
	}

	Scheduler struct {
		cron *cron.Cron
		log  core.Logger
	}
)

// cronLogger adapts core.Logger to cron.Logger.
type cronLogger struct {
	log core.Logger
}

var _ cron.Logger = cronLogger{} // interface compliance check

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}

// New returns a stopped Scheduler. Jobs recover from panics and never overlap with themselves.
func New(log core.Logger) *Scheduler {
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log: log,
	}
}

// AddOverdueSweep schedules the overdue sweep; spec is a cron spec such as "@every 15m".
func (s *Scheduler) AddOverdueSweep(spec string, marker OverdueMarker) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, OverdueSweep(marker, s.log))
	if err != nil {
		return 0, errors.Wrapf(err, "scheduling overdue sweep %q", spec)
	}
	s.log.Info("overdue sweep scheduled", "spec", spec)
	return id, nil
}

// OverdueSweep returns the job materializing the "overdue" label.
func OverdueSweep(marker OverdueMarker, log core.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		n, err := marker.MarkOverdue(ctx)
		if err != nil {
			log.Error("overdue sweep failed", "err", err)
			return
		}
		if n > 0 {
			log.Info("assignments marked overdue", "count", n)
		}
	}
}

func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// Run starts the scheduler and blocks until ctx is done, then waits for running jobs.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}
