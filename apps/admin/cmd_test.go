package main

import (
	"bytes"
	"context"
	"net/mail"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/examdesk/examblock/core"
	"github.com/examdesk/examblock/core/exam"
	"github.com/examdesk/examblock/core/report"
	"github.com/examdesk/examblock/core/session"
	"github.com/examdesk/examblock/core/staff"
	"github.com/examdesk/examblock/core/student"
	"github.com/examdesk/examblock/core/venue"
	emailsvc "github.com/examdesk/examblock/services/email"
	inmemdb "github.com/examdesk/examblock/storage/inmem"
	testutil "github.com/examdesk/examblock/tests"
)

var staffRepo staff.Repository

func testConfig() *core.Config {
	return &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "ExamBlock",
		SecretKey:        "secret",
		DefaultFromEmail: mail.Address{Name: "ExamBlock", Address: "noreply@localhost"},
		CoordinatorEmail: mail.Address{Name: "Exams Coordinator", Address: "exams@localhost"},
	}
}

func setup(t *testing.T) *commandLine {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	staffRepo = inmemdb.NewStaffRepository(db)

	examRepo := inmemdb.NewExamRepository(db)
	studentRepo := inmemdb.NewStudentRepository(db)
	venueRepo := inmemdb.NewVenueRepository(db)
	sessionRepo := inmemdb.NewSessionRepository(db)

	examSvc := exam.NewService(examRepo)
	studentSvc := student.NewService(studentRepo)
	venueSvc := venue.NewService(venueRepo, sessionRepo)
	sessionSvc := session.NewService(sessionRepo, venueSvc, examSvc, studentSvc)

	conf := testConfig()
	return &commandLine{
		staffSvc:    staff.NewService(staffRepo),
		examSvc:     examSvc,
		studentSvc:  studentSvc,
		venueSvc:    venueSvc,
		sessionSvc:  sessionSvc,
		reportSvc:   report.NewService(sessionSvc, studentSvc, emailsvc.NewConsoleServiceMock(conf), conf),
		examRepo:    examRepo,
		studentRepo: studentRepo,
		venueRepo:   venueRepo,
		sessionRepo: sessionRepo,
	}
}

type cliTest struct {
	name    string
	args    []string // without program name
	wantErr error
	extra   interface{}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	st := testutil.CreateStaff(t, staffRepo, "Awe Mbiya", "awe", "awe@examdesk.test", "initialpwd", false)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "staff not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: staff.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", st.Username}, extra: extra{pwd: "brandnewpwd"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", st.Email}, extra: extra{pwd: "anothernewpwd"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshed, err := staffRepo.GetStaffByID(context.Background(), st.ID)
				if err != nil {
					t.Fatalf("GetStaffByID() failed: %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, st.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if errors.Cause(err) != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_addStaff(t *testing.T) {
	cli := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no username", args: []string{"addstaff"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"addstaff", "-username", "bob"}, wantErr: errHelp},
		{name: "new account", args: []string{"addstaff", "-username", "bob", "-email", "bob@examdesk.test"}, extra: extra{pwd: "bobpassword"}},
		{name: "new admin", args: []string{"addstaff", "-username", "root", "-admin"}, extra: extra{pwd: "rootpassword"}},
		{name: "existing account resets password", args: []string{"addstaff", "-username", "bob"}, extra: extra{pwd: "changedpassword"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); errors.Cause(err) != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	ctx := context.Background()
	bob, err := staffRepo.GetStaffByUsernameOrEmail(ctx, "bob")
	if err != nil {
		t.Fatalf("GetStaffByUsernameOrEmail() failed: %v", err)
	}
	if bob.IsAdmin {
		t.Error("bob should not be an admin")
	}
	if err = bob.CheckPassword("changedpassword"); err != nil {
		t.Error("bob's password was not reset")
	}
	root, err := staffRepo.GetStaffByUsernameOrEmail(ctx, "root")
	if err != nil {
		t.Fatalf("GetStaffByUsernameOrEmail() failed: %v", err)
	}
	if !root.IsAdmin {
		t.Error("root should be an admin")
	}
}

func Test_commandLine_blockFileRoundTrip(t *testing.T) {
	cli := setup(t)

	testutil.CreateSubject(t, cli.examRepo, "MAT", "Mathematics")
	unit := testutil.CreateUnit(t, cli.examRepo, "MAT", "3&4", "Units 3 & 4")
	ex := testutil.CreateExam(t, cli.examRepo, unit.Ref(), "Written paper", 120)
	testutil.CreateStudent(t, cli.studentRepo, "1001", "Smith", "Alice", false, unit.Ref())
	testutil.CreateVenue(t, cli.venueRepo, "GYM", "Main Gymnasium", 10, 12, false)
	startsAt := time.Date(2026, 11, 12, 9, 0, 0, 0, time.UTC)
	sess := testutil.CreateSession(t, cli.sessionRepo, "GYM", startsAt, ex.ID)

	path := filepath.Join(t.TempDir(), "block.txt")
	if err := cli.run([]string{"admin", "export", "-file", path}); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	// import into a fresh in-memory DB
	cli2 := setup(t)
	if err := cli2.run([]string{"admin", "import", "-file", path}); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	ctx := context.Background()
	students, err := cli2.studentRepo.QueryAllStudents(ctx)
	if err != nil {
		t.Fatalf("QueryAllStudents() failed: %v", err)
	}
	if len(students) != 1 || students[0].Number != "1001" {
		t.Errorf("imported students = %+v, want 1001", students)
	}
	imported, err := cli2.sessionRepo.GetSessionByID(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSessionByID() failed: %v", err)
	}
	if imported.VenueCode != "GYM" || !imported.StartsAt.Equal(startsAt) {
		t.Errorf("imported session = %+v", imported)
	}
	if len(imported.ExamIDs) != 1 || imported.ExamIDs[0] != ex.ID {
		t.Errorf("imported session exam IDs = %v, want [%s]", imported.ExamIDs, ex.ID)
	}
}

func Test_commandLine_allocateAndReport(t *testing.T) {
	cli := setup(t)

	testutil.CreateSubject(t, cli.examRepo, "MAT", "Mathematics")
	unit := testutil.CreateUnit(t, cli.examRepo, "MAT", "3&4", "Units 3 & 4")
	ex := testutil.CreateExam(t, cli.examRepo, unit.Ref(), "Written paper", 120)
	testutil.CreateStudent(t, cli.studentRepo, "1001", "Smith", "Alice", false, unit.Ref())
	testutil.CreateStudent(t, cli.studentRepo, "1002", "Jones", "Bob", false, unit.Ref())
	testutil.CreateVenue(t, cli.venueRepo, "GYM", "Main Gymnasium", 2, 4, false)
	sess := testutil.CreateSession(t, cli.sessionRepo, "GYM",
		time.Date(2026, 11, 12, 9, 0, 0, 0, time.UTC), ex.ID)

	tests := []cliTest{
		{name: "allocate: no session", args: []string{"allocate"}, wantErr: errHelp},
		{name: "allocate: not found", args: []string{"allocate", "-session", "nope"}, wantErr: session.ErrNotFound},
		{name: "allocate", args: []string{"allocate", "-session", sess.ID}},
		{name: "report: no session", args: []string{"report"}, wantErr: errHelp},
		{name: "report", args: []string{"report", "-session", sess.ID}},
		{name: "sessions", args: []string{"sessions"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); errors.Cause(err) != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_initDBWithoutDatabase(t *testing.T) {
	cli := setup(t)

	if err := cli.run([]string{"admin", "initdb"}); err == nil {
		t.Error("cli.run() expected an error without a database")
	}
}
