package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/unitrack/core/assignment"
	"github.com/trezcool/unitrack/core/gpa"
	"github.com/trezcool/unitrack/core/user"
	"github.com/trezcool/unitrack/services/export"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db        *sqlx.DB
	out       io.Writer
	usrSvc    *user.Service
	gpa       *gpa.Engine
	asgSvc    *assignment.Service
	exportSvc *export.Service
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [VERSION] - run database migrations (up, up-by-one, up-to, down, down-to, status, version)")
	fmt.Fprintln(cli.out, "  adduser -name NAME -student STUDENT_ID [-university UNIVERSITY] - create or update a user")
	fmt.Fprintln(cli.out, "  deleteuser -student STUDENT_ID - delete a user and everything they own")
	fmt.Fprintln(cli.out, "  gpa -student STUDENT_ID [-recompute] - print the GPAs of a user")
	fmt.Fprintln(cli.out, "  markoverdue - relabel pending assignments past their due date")
	fmt.Fprintln(cli.out, "  export -student STUDENT_ID -format ics|xlsx -o FILE - export the calendar or the transcript")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := cli.newFlagSet("adduser")
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserStudent := addUserCmd.String("student", "", "The user's student id.")
	addUserUniversity := addUserCmd.String("university", "", "The user's university.")

	deleteUserCmd := cli.newFlagSet("deleteuser")
	deleteUserStudent := deleteUserCmd.String("student", "", "The user's student id.")

	gpaCmd := cli.newFlagSet("gpa")
	gpaStudent := gpaCmd.String("student", "", "The user's student id.")
	gpaRecompute := gpaCmd.Bool("recompute", false, "Refresh the cached semester GPAs first.")

	exportCmd := cli.newFlagSet("export")
	exportStudent := exportCmd.String("student", "", "The user's student id.")
	exportFormat := exportCmd.String("format", "ics", "ics (calendar) or xlsx (transcript).")
	exportOut := exportCmd.String("o", "", "The output file.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserName == "" || *addUserStudent == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(ctx, *addUserName, *addUserStudent, *addUserUniversity)

	case "deleteuser":
		if err := deleteUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *deleteUserStudent == "" {
			deleteUserCmd.Usage()
			return errHelp
		}
		return cli.deleteUser(ctx, *deleteUserStudent)

	case "gpa":
		if err := gpaCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *gpaStudent == "" {
			gpaCmd.Usage()
			return errHelp
		}
		return cli.printGPA(ctx, *gpaStudent, *gpaRecompute)

	case "markoverdue":
		return cli.markOverdue(ctx)

	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *exportStudent == "" || *exportOut == "" || (*exportFormat != formatICS && *exportFormat != formatXLSX) {
			exportCmd.Usage()
			return errHelp
		}
		return cli.export(ctx, *exportStudent, *exportFormat, *exportOut)

	default:
		cli.printUsage()
		return errHelp
	}
}
