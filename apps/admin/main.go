package main

import (
	"log"
	"os"

	"github.com/examdesk/examblock/core"
	"github.com/examdesk/examblock/core/exam"
	"github.com/examdesk/examblock/core/report"
	"github.com/examdesk/examblock/core/session"
	"github.com/examdesk/examblock/core/staff"
	"github.com/examdesk/examblock/core/student"
	"github.com/examdesk/examblock/core/venue"
	emailsvc "github.com/examdesk/examblock/services/email"
	"github.com/examdesk/examblock/storage/database"
	sqlxrepos "github.com/examdesk/examblock/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	// set up repos & services
	examRepo := sqlxrepos.NewExamRepository(db)
	studentRepo := sqlxrepos.NewStudentRepository(db)
	venueRepo := sqlxrepos.NewVenueRepository(db)
	sessionRepo := sqlxrepos.NewSessionRepository(db)

	examSvc := exam.NewService(examRepo)
	studentSvc := student.NewService(studentRepo)
	venueSvc := venue.NewService(venueRepo, sessionRepo)
	sessionSvc := session.NewService(sessionRepo, venueSvc, examSvc, studentSvc)
	reportSvc := report.NewService(sessionSvc, studentSvc, emailsvc.NewConsoleService(conf), conf)

	// start CLI
	cli := commandLine{
		db:          db,
		staffSvc:    staff.NewService(sqlxrepos.NewStaffRepository(db)),
		examSvc:     examSvc,
		studentSvc:  studentSvc,
		venueSvc:    venueSvc,
		sessionSvc:  sessionSvc,
		reportSvc:   reportSvc,
		examRepo:    examRepo,
		studentRepo: studentRepo,
		venueRepo:   venueRepo,
		sessionRepo: sessionRepo,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
