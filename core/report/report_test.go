package report_test

import (
	"context"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examdesk/examblock/core"
	"github.com/examdesk/examblock/core/exam"
	"github.com/examdesk/examblock/core/report"
	"github.com/examdesk/examblock/core/session"
	"github.com/examdesk/examblock/core/student"
	"github.com/examdesk/examblock/core/venue"
	emailsvc "github.com/examdesk/examblock/services/email"
	inmemdb "github.com/examdesk/examblock/storage/inmem"
	testutil "github.com/examdesk/examblock/tests"
)

func testConfig() *core.Config {
	return &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "ExamBlock",
		DefaultFromEmail: mail.Address{Name: "ExamBlock", Address: "noreply@localhost"},
		CoordinatorEmail: mail.Address{Name: "Exams Coordinator", Address: "exams@localhost"},
	}
}

func setup(t *testing.T) (*report.Service, *session.Service, *inmemdb.DB) {
	t.Helper()
	db, err := inmemdb.Open()
	require.NoError(t, err)

	conf := testConfig()
	sessionRepo := inmemdb.NewSessionRepository(db)
	examSvc := exam.NewService(inmemdb.NewExamRepository(db))
	studentSvc := student.NewService(inmemdb.NewStudentRepository(db))
	venueSvc := venue.NewService(inmemdb.NewVenueRepository(db), sessionRepo)
	sessionSvc := session.NewService(sessionRepo, venueSvc, examSvc, studentSvc)
	svc := report.NewService(sessionSvc, studentSvc, emailsvc.NewConsoleServiceMock(conf), conf)
	return svc, sessionSvc, db
}

func seedSession(t *testing.T, db *inmemdb.DB) session.Session {
	t.Helper()
	examRepo := inmemdb.NewExamRepository(db)
	studentRepo := inmemdb.NewStudentRepository(db)

	testutil.CreateSubject(t, examRepo, "MAT", "Mathematics")
	unit := testutil.CreateUnit(t, examRepo, "MAT", "3&4", "Units 3 & 4")
	ex := testutil.CreateExam(t, examRepo, unit.Ref(), "Written paper", 120)

	testutil.CreateStudent(t, studentRepo, "1001", "Smith", "Alice", false, unit.Ref())
	testutil.CreateStudent(t, studentRepo, "1002", "Jones", "Bob", false, unit.Ref())

	testutil.CreateVenue(t, inmemdb.NewVenueRepository(db), "GYM", "Main Gymnasium", 2, 4, false)
	return testutil.CreateSession(t, inmemdb.NewSessionRepository(db), "GYM",
		time.Date(2026, 11, 12, 9, 0, 0, 0, time.UTC), ex.ID)
}

func Test_Service_Generate(t *testing.T) {
	svc, sessionSvc, db := setup(t)
	ctx := context.Background()
	sess := seedSession(t, db)

	// no allocation yet
	_, err := svc.Generate(ctx, sess.ID)
	require.Error(t, err)

	_, err = sessionSvc.Allocate(ctx, sess.ID)
	require.NoError(t, err)

	content, err := svc.Generate(ctx, sess.ID)
	require.NoError(t, err)

	text := string(content)
	assert.Contains(t, text, "Session GYM 2026-11-12 09:00")
	assert.Contains(t, text, "Main Gymnasium")
	assert.Contains(t, text, "MAT/3&4 - Written paper (120 min)")
	assert.Contains(t, text, "skip-column")
	// both students appear by number, seated in surname order
	assert.Contains(t, text, "1001")
	assert.Contains(t, text, "1002")
	assert.Less(t, strings.Index(text, "Jones"), strings.Index(text, "Smith"))
}

func Test_Service_Finalise(t *testing.T) {
	svc, sessionSvc, db := setup(t)
	ctx := context.Background()
	sess := seedSession(t, db)

	emailsvc.ClearSentMessages()

	_, err := sessionSvc.Allocate(ctx, sess.ID)
	require.NoError(t, err)

	got, err := svc.Finalise(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, got.Finalised)

	// the coordinator got the report as a text attachment
	require.Len(t, emailsvc.SentMessages, 1)
	msg := emailsvc.SentMessages[0]
	assert.Equal(t, "exams@localhost", msg.To[0].Address)
	assert.Contains(t, msg.Subject, "GYM 2026-11-12 09:00")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "session-"+sess.ID+".txt", msg.Attachments[0].Filename)
	assert.Contains(t, msg.Attachments[0].Content.String(), "Session GYM 2026-11-12 09:00")

	// finalising again is rejected
	_, err = svc.Finalise(ctx, sess.ID)
	require.Error(t, err)
}
