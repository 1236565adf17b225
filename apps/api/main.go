package main

import (
	"context"
	"expvar"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	echoapi "github.com/trezcool/unitrack/apps/api/echo"
	"github.com/trezcool/unitrack/core"
	"github.com/trezcool/unitrack/core/assignment"
	"github.com/trezcool/unitrack/core/dashboard"
	"github.com/trezcool/unitrack/core/gpa"
	"github.com/trezcool/unitrack/core/lecture"
	"github.com/trezcool/unitrack/core/semester"
	"github.com/trezcool/unitrack/core/subject"
	"github.com/trezcool/unitrack/core/user"
	"github.com/trezcool/unitrack/core/watch"
	"github.com/trezcool/unitrack/services/export"
	logsvc "github.com/trezcool/unitrack/services/logger"
	"github.com/trezcool/unitrack/services/scheduler"
	"github.com/trezcool/unitrack/storage/database"
	sqlxrepos "github.com/trezcool/unitrack/storage/database/sqlx"
)

func main() {
	if err := run(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	zapLogger, err := logsvc.NewZapLogger(conf)
	if err != nil {
		return errors.Wrap(err, "setting up logger")
	}
	defer func() { _ = zapLogger.Sync() }()

	logger := logsvc.NewRollbarLogger(zapLogger, conf)
	defer logger.Close()

	// set up DB
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := setUpDB(ctx, conf)
	if err != nil {
		logger.Fatal("setting up database", "err", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", "err", err)
		}
	}()

	// set up repos & services
	broker := watch.NewBroker()
	repos := sqlxrepos.New(db, broker)

	gpaEngine := gpa.NewEngine(repos.Semesters, repos.Subjects)
	usrSvc := user.NewService(repos.Users, repos.Lectures, repos.Semesters, repos.Subjects)
	semSvc := semester.NewService(repos.Semesters, repos.Subjects)
	subSvc := subject.NewService(repos.Subjects, gpaEngine)
	asgSvc := assignment.NewService(repos.Assignments)
	lecSvc := lecture.NewService(repos.Lectures)
	dashSvc := dashboard.NewService(dashboard.Options{
		Users:        usrSvc,
		Semesters:    semSvc,
		GPA:          gpaEngine,
		Assignments:  asgSvc,
		Lectures:     lecSvc,
		Broker:       broker,
		PollInterval: conf.Watch.PollInterval,
		DueSoonDays:  conf.Assignments.DueSoonDays,
	})
	exportSvc := export.NewService(usrSvc, lecSvc, asgSvc, subSvc, gpaEngine)

	// =========================================================================
	// Initialize App

	logger.Info("Application initializing", "build", conf.Build, "config", conf.String())
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	subject.InitValidators(validate, translator)
	assignment.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error("debug server closed", "err", err)
		}
	}()

	// =========================================================================
	// Start API Service & Scheduler

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		SignalShutdown: stop,
		UserSvc:        usrSvc,
		SemesterSvc:    semSvc,
		SubjectSvc:     subSvc,
		AssignmentSvc:  asgSvc,
		LectureSvc:     lecSvc,
		GPAEngine:      gpaEngine,
		DashboardSvc:   dashSvc,
		ExportSvc:      exportSvc,
		Validate:       validate,
		Translator:     translator,
	})

	sched := scheduler.New(logger)
	if _, err = sched.AddOverdueSweep(conf.Scheduler.OverdueSpec, asgSvc); err != nil {
		logger.Fatal("scheduling overdue sweep", "err", err, "spec", conf.Scheduler.OverdueSpec)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("API listening", "host", conf.Server.Host)
		return server.Start()
	})
	g.Go(func() error {
		return sched.Run(gctx)
	})

	// =========================================================================
	// Shutdown

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Start shutdown...")

		// give outstanding requests a deadline for completion
		sctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(sctx); err != nil {
			logger.Error("could not stop server gracefully", "err", err)
			if err = server.Close(); err != nil {
				return errors.Wrap(err, "could not force stop server")
			}
		}
		return nil
	})

	if err = g.Wait(); err != nil {
		return errors.Wrap(err, "server error")
	}
	return nil
}

func setUpDB(ctx context.Context, conf *core.Config) (*sqlx.DB, error) {
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
