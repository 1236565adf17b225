package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"
)

const (
	formatICS  = "ics"
	formatXLSX = "xlsx"
)

func (cli *commandLine) printGPA(ctx context.Context, studentID string, recompute bool) error {
	usr, err := cli.usrSvc.GetByStudentID(ctx, studentID)
	if err != nil {
		return err
	}
	if recompute {
		if err = cli.gpa.RecomputeUser(ctx, usr.ID); err != nil {
			return err
		}
	}
	tr, err := cli.gpa.Transcript(ctx, usr.ID)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s (%s)\n", usr.Name, usr.StudentID)
	for _, st := range tr.Semesters {
		fmt.Fprintf(tw, "%s\t%d credits\t%.2f\n", st.Semester.Name, st.Tally.Credits, st.GPA)
	}
	if err = tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Overall GPA: %.2f (%d credits)\n", tr.OverallGPA, tr.Tally.Credits)
	return nil
}

func (cli *commandLine) markOverdue(ctx context.Context) error {
	n, err := cli.asgSvc.MarkOverdue(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d assignment(s) marked overdue\n", n)
	return nil
}

func (cli *commandLine) export(ctx context.Context, studentID, format, path string) (err error) {
	usr, err := cli.usrSvc.GetByStudentID(ctx, studentID)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating export file")
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	switch format {
	case formatICS:
		err = cli.exportSvc.Calendar(ctx, f, usr.ID)
	case formatXLSX:
		err = cli.exportSvc.Transcript(ctx, f, usr.ID)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "exported %s to %s\n", format, path)
	return nil
}
