package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/examdesk/examblock/apps/api/echo"
	"github.com/examdesk/examblock/core"
	"github.com/examdesk/examblock/core/exam"
	"github.com/examdesk/examblock/core/report"
	"github.com/examdesk/examblock/core/session"
	"github.com/examdesk/examblock/core/staff"
	"github.com/examdesk/examblock/core/student"
	"github.com/examdesk/examblock/core/venue"
	emailsvc "github.com/examdesk/examblock/services/email"
	logsvc "github.com/examdesk/examblock/services/logger"
	"github.com/examdesk/examblock/storage/database"
	sqlxrepos "github.com/examdesk/examblock/storage/database/sqlx"
)

const shutdownTimeout = 20 * time.Second

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("failed to close database", err)
		}
	}()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	sessionRepo := sqlxrepos.NewSessionRepository(db)
	examSvc := exam.NewService(sqlxrepos.NewExamRepository(db))
	studentSvc := student.NewService(sqlxrepos.NewStudentRepository(db))
	venueSvc := venue.NewService(sqlxrepos.NewVenueRepository(db), sessionRepo)
	sessionSvc := session.NewService(sessionRepo, venueSvc, examSvc, studentSvc)
	reportSvc := report.NewService(sessionSvc, studentSvc, mailSvc, conf)
	staffSvc := staff.NewService(sqlxrepos.NewStaffRepository(db))

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	server := echoapi.NewServer(&echoapi.Options{
		Conf:       conf,
		Logger:     logger,
		StaffSvc:   staffSvc,
		ExamSvc:    examSvc,
		StudentSvc: studentSvc,
		VenueSvc:   venueSvc,
		SessionSvc: sessionSvc,
		ReportSvc:  reportSvc,
	})

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-serverErrors:
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err = server.Shutdown(ctx); err != nil {
			logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.InitSchema(context.Background(), db); err != nil {
		return nil, err
	}
	return db, nil
}
