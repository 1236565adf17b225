package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/unitrack/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(ctx context.Context, name, studentID, university string) error {
	nu := user.NewUser{Name: name, StudentID: studentID, University: university}
	nu.Clean()

	usr, err := cli.usrSvc.GetByStudentID(ctx, nu.StudentID)
	switch {
	case err == nil:
		usr, err = cli.usrSvc.Update(ctx, usr.ID, user.UpdateUser{
			Name:       nu.Name,
			StudentID:  nu.StudentID,
			University: nu.University,
		})
	case errors.Is(err, user.ErrNotFound):
		usr, err = cli.usrSvc.Create(ctx, nu)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "user %d: %s (%s)\n", usr.ID, usr.Name, usr.StudentID)
	return nil
}

func (cli *commandLine) deleteUser(ctx context.Context, studentID string) error {
	usr, err := cli.usrSvc.GetByStudentID(ctx, studentID)
	if err != nil {
		return err
	}
	if err = cli.usrSvc.Delete(ctx, usr.ID); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "deleted user %d\n", usr.ID)
	return nil
}
