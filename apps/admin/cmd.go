package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/examdesk/examblock/core"
	"github.com/examdesk/examblock/core/exam"
	"github.com/examdesk/examblock/core/report"
	"github.com/examdesk/examblock/core/session"
	"github.com/examdesk/examblock/core/staff"
	"github.com/examdesk/examblock/core/student"
	"github.com/examdesk/examblock/core/venue"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db core.DBExecutor // nil when running against in-memory repos

	staffSvc   *staff.Service
	examSvc    *exam.Service
	studentSvc *student.Service
	venueSvc   *venue.Service
	sessionSvc *session.Service
	reportSvc  *report.Service

	examRepo    exam.Repository
	studentRepo student.Repository
	venueRepo   venue.Repository
	sessionRepo session.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  initdb                                 - create the database schema")
	fmt.Println("  addstaff -username USERNAME [-email EMAIL] [-admin] - add a staff account; the password is prompted")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset a staff member's password")
	fmt.Println("  export -file FILE                      - export the exam block to a block file")
	fmt.Println("  import -file FILE                      - import a block file")
	fmt.Println("  sessions                               - list scheduled sessions")
	fmt.Println("  allocate -session ID                   - build and print the session's desk allocation")
	fmt.Println("  report -session ID                     - print the session's finalisation report")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addStaffCmd := flag.NewFlagSet("addstaff", flag.ExitOnError)
	addStaffUname := addStaffCmd.String("username", "", "The account's username.")
	addStaffEmail := addStaffCmd.String("email", "", "The account's email.")
	addStaffAdmin := addStaffCmd.Bool("admin", false, "Grant admin rights.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The staff member's username or email. The password will be prompted next.")

	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportFile := exportCmd.String("file", "", "The block file to write.")

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "The block file to read.")

	allocateCmd := flag.NewFlagSet("allocate", flag.ExitOnError)
	allocateSession := allocateCmd.String("session", "", "The session ID to allocate.")

	reportCmd := flag.NewFlagSet("report", flag.ExitOnError)
	reportSession := reportCmd.String("session", "", "The session ID to report on.")

	switch args[1] {
	case "initdb":
		return cli.initDB()

	case "addstaff":
		if err := addStaffCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addStaffUname == "" {
			addStaffCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addStaffCmd.Usage()
			return errHelp
		}
		return cli.addStaff(*addStaffUname, *addStaffEmail, pwd, *addStaffAdmin)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *exportFile == "" {
			exportCmd.Usage()
			return errHelp
		}
		return cli.exportBlock(*exportFile)

	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importBlock(*importFile)

	case "sessions":
		return cli.listSessions()

	case "allocate":
		if err := allocateCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *allocateSession == "" {
			allocateCmd.Usage()
			return errHelp
		}
		return cli.allocate(*allocateSession)

	case "report":
		if err := reportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *reportSession == "" {
			reportCmd.Usage()
			return errHelp
		}
		return cli.report(*reportSession)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
