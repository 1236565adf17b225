package main

import (
	"context"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/unitrack/core"
	"github.com/trezcool/unitrack/core/assignment"
	"github.com/trezcool/unitrack/core/gpa"
	"github.com/trezcool/unitrack/core/lecture"
	"github.com/trezcool/unitrack/core/subject"
	"github.com/trezcool/unitrack/core/user"
	"github.com/trezcool/unitrack/services/export"
	logsvc "github.com/trezcool/unitrack/services/logger"
	"github.com/trezcool/unitrack/storage/database"
	sqlxrepos "github.com/trezcool/unitrack/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger, err := logsvc.NewZapLogger(conf)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", "err", err)
	}
	defer db.Close()

	// start CLI
	repos := sqlxrepos.New(db, nil)
	gpaEngine := gpa.NewEngine(repos.Semesters, repos.Subjects)
	usrSvc := user.NewService(repos.Users, repos.Lectures, repos.Semesters, repos.Subjects)
	asgSvc := assignment.NewService(repos.Assignments)
	cli := commandLine{
		db:        db,
		out:       os.Stdout,
		usrSvc:    usrSvc,
		gpa:       gpaEngine,
		asgSvc:    asgSvc,
		exportSvc: export.NewService(usrSvc, lecture.NewService(repos.Lectures), asgSvc, subject.NewService(repos.Subjects, gpaEngine), gpaEngine),
	}
	if err := cli.run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			logger.Error("command failed", "cmd", os.Args[1:], "err", err)
		}
		_ = logger.Sync()
		os.Exit(1)
	}
}
