package main

import (
	"context"

	"github.com/examdesk/examblock/core"
	"github.com/examdesk/examblock/core/staff"
)

// addStaff creates a staff account, or resets an existing one's password.
func (cli *commandLine) addStaff(uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	st, err := cli.staffSvc.GetByUsernameOrEmail(ctx, uname)
	if err == nil {
		_, err = cli.staffSvc.SetPassword(ctx, st.ID, pwd)
		return err
	}
	if err != staff.ErrNotFound {
		return err
	}

	_, err = cli.staffSvc.Create(ctx, staff.NewStaff{
		Name:            uname,
		Username:        uname,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: pwd,
		IsAdmin:         isAdmin,
	})
	return err
}

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	st, err := cli.staffSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		return err
	}
	_, err = cli.staffSvc.SetPassword(ctx, st.ID, pwd)
	return err
}
