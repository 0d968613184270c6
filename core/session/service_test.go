package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examdesk/examblock/core"
	"github.com/examdesk/examblock/core/allocation"
	"github.com/examdesk/examblock/core/exam"
	"github.com/examdesk/examblock/core/session"
	"github.com/examdesk/examblock/core/student"
	"github.com/examdesk/examblock/core/venue"
	inmemdb "github.com/examdesk/examblock/storage/inmem"
	testutil "github.com/examdesk/examblock/tests"
)

type fixture struct {
	db          *inmemdb.DB
	examRepo    exam.Repository
	studentRepo student.Repository
	venueRepo   venue.Repository
	sessionRepo session.Repository
	svc         *session.Service
}

func setup(t *testing.T) fixture {
	t.Helper()
	db, err := inmemdb.Open()
	require.NoError(t, err)

	examRepo := inmemdb.NewExamRepository(db)
	studentRepo := inmemdb.NewStudentRepository(db)
	venueRepo := inmemdb.NewVenueRepository(db)
	sessionRepo := inmemdb.NewSessionRepository(db)

	examSvc := exam.NewService(examRepo)
	studentSvc := student.NewService(studentRepo)
	venueSvc := venue.NewService(venueRepo, sessionRepo)
	svc := session.NewService(sessionRepo, venueSvc, examSvc, studentSvc)

	return fixture{
		db:          db,
		examRepo:    examRepo,
		studentRepo: studentRepo,
		venueRepo:   venueRepo,
		sessionRepo: sessionRepo,
		svc:         svc,
	}
}

func Test_Service_Roster_aaraPartition(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	testutil.CreateSubject(t, f.examRepo, "MAT", "Mathematics")
	unit := testutil.CreateUnit(t, f.examRepo, "MAT", "3&4", "Units 3 & 4")
	ex := testutil.CreateExam(t, f.examRepo, unit.Ref(), "Written paper", 120)

	plain := testutil.CreateStudent(t, f.studentRepo, "1001", "Smith", "Alice", false, unit.Ref())
	aara := testutil.CreateStudent(t, f.studentRepo, "1002", "Jones", "Bob", true, unit.Ref())
	// enrolled in nothing examined here
	testutil.CreateStudent(t, f.studentRepo, "1003", "Idle", "Cat", false)

	testutil.CreateVenue(t, f.venueRepo, "GYM", "Main Gymnasium", 10, 12, false)
	testutil.CreateVenue(t, f.venueRepo, "LIB", "Library", 3, 4, true)

	starts := time.Date(2026, 11, 12, 9, 0, 0, 0, time.UTC)
	mainSess := testutil.CreateSession(t, f.sessionRepo, "GYM", starts, ex.ID)
	aaraSess := testutil.CreateSession(t, f.sessionRepo, "LIB", starts, ex.ID)

	mainRoster, err := f.svc.Roster(ctx, mainSess)
	require.NoError(t, err)
	require.Len(t, mainRoster, 1)
	assert.Equal(t, plain.ID, mainRoster[0].ID)

	aaraRoster, err := f.svc.Roster(ctx, aaraSess)
	require.NoError(t, err)
	require.Len(t, aaraRoster, 1)
	assert.Equal(t, aara.ID, aaraRoster[0].ID)
}

func Test_Service_Roster_dedupesAcrossExams(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	testutil.CreateSubject(t, f.examRepo, "MAT", "Mathematics")
	u1 := testutil.CreateUnit(t, f.examRepo, "MAT", "1&2", "Units 1 & 2")
	u2 := testutil.CreateUnit(t, f.examRepo, "MAT", "3&4", "Units 3 & 4")
	ex1 := testutil.CreateExam(t, f.examRepo, u1.Ref(), "Paper 1", 90)
	ex2 := testutil.CreateExam(t, f.examRepo, u2.Ref(), "Paper 2", 90)

	// enrolled in both units: must appear once
	testutil.CreateStudent(t, f.studentRepo, "1001", "Smith", "Alice", false, u1.Ref(), u2.Ref())

	testutil.CreateVenue(t, f.venueRepo, "GYM", "Main Gymnasium", 10, 12, false)
	sess := testutil.CreateSession(t, f.sessionRepo, "GYM",
		time.Date(2026, 11, 12, 9, 0, 0, 0, time.UTC), ex1.ID, ex2.ID)

	roster, err := f.svc.Roster(ctx, sess)
	require.NoError(t, err)
	assert.Len(t, roster, 1)
}

func Test_Service_Allocate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	testutil.CreateSubject(t, f.examRepo, "MAT", "Mathematics")
	unit := testutil.CreateUnit(t, f.examRepo, "MAT", "3&4", "Units 3 & 4")
	ex := testutil.CreateExam(t, f.examRepo, unit.Ref(), "Written paper", 120)

	for _, surname := range []string{"Zed", "Amy", "Bob"} {
		testutil.CreateStudent(t, f.studentRepo, "n-"+surname, surname, "", false, unit.Ref())
	}

	testutil.CreateVenue(t, f.venueRepo, "GYM", "Main Gymnasium", 2, 4, false)
	sess := testutil.CreateSession(t, f.sessionRepo, "GYM",
		time.Date(2026, 11, 12, 9, 0, 0, 0, time.UTC), ex.ID)

	// 3 students, 8 desks: at most half full, skip-column mode
	asg, err := f.svc.Allocate(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, allocation.ModeSkipColumn, asg.Mode)
	assert.Equal(t, 3, asg.Seated())

	// allocate is idempotent: repeated runs yield the same assignment
	again, err := f.svc.Allocate(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, asg, again)

	// the stored allocation matches the returned one
	stored, err := f.svc.Allocation(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, asg, stored)
}

func Test_Service_Allocate_overCapacity(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	testutil.CreateSubject(t, f.examRepo, "MAT", "Mathematics")
	unit := testutil.CreateUnit(t, f.examRepo, "MAT", "3&4", "Units 3 & 4")
	ex := testutil.CreateExam(t, f.examRepo, unit.Ref(), "Written paper", 120)

	for _, number := range []string{"1001", "1002", "1003"} {
		testutil.CreateStudent(t, f.studentRepo, number, "S"+number, "", false, unit.Ref())
	}

	testutil.CreateVenue(t, f.venueRepo, "LAB", "Laboratory", 1, 2, false)
	sess := testutil.CreateSession(t, f.sessionRepo, "LAB",
		time.Date(2026, 11, 12, 9, 0, 0, 0, time.UTC), ex.ID)

	_, err := f.svc.Allocate(ctx, sess.ID)
	require.Error(t, err)
	assert.True(t, allocation.IsCapacityError(err))

	// nothing was stored
	_, err = f.svc.Allocation(ctx, sess.ID)
	assert.Equal(t, session.ErrNoAllocation, errors.Cause(err))
}

func Test_Service_Finalise(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	testutil.CreateSubject(t, f.examRepo, "MAT", "Mathematics")
	unit := testutil.CreateUnit(t, f.examRepo, "MAT", "3&4", "Units 3 & 4")
	ex := testutil.CreateExam(t, f.examRepo, unit.Ref(), "Written paper", 120)
	testutil.CreateStudent(t, f.studentRepo, "1001", "Smith", "Alice", false, unit.Ref())
	testutil.CreateVenue(t, f.venueRepo, "GYM", "Main Gymnasium", 2, 4, false)
	sess := testutil.CreateSession(t, f.sessionRepo, "GYM",
		time.Date(2026, 11, 12, 9, 0, 0, 0, time.UTC), ex.ID)

	// finalising an unallocated session is rejected
	_, err := f.svc.Finalise(ctx, sess.ID)
	require.Error(t, err)
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)

	_, err = f.svc.Allocate(ctx, sess.ID)
	require.NoError(t, err)

	got, err := f.svc.Finalise(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, got.Finalised)

	// finalised sessions reject mutation and re-allocation
	_, err = f.svc.Allocate(ctx, sess.ID)
	require.ErrorAs(t, err, &vErr)

	_, err = f.svc.Update(ctx, sess.ID, session.UpdateSession{StartsAt: time.Now().UTC()})
	require.ErrorAs(t, err, &vErr)

	_, err = f.svc.Finalise(ctx, sess.ID)
	require.ErrorAs(t, err, &vErr)
}

func Test_Service_venueGeometryLock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	testutil.CreateSubject(t, f.examRepo, "MAT", "Mathematics")
	unit := testutil.CreateUnit(t, f.examRepo, "MAT", "3&4", "Units 3 & 4")
	ex := testutil.CreateExam(t, f.examRepo, unit.Ref(), "Written paper", 120)
	testutil.CreateVenue(t, f.venueRepo, "GYM", "Main Gymnasium", 2, 4, false)

	venueSvc := venue.NewService(f.venueRepo, f.sessionRepo)

	// geometry is editable while nothing is scheduled
	_, err := venueSvc.Update(ctx, "GYM", venue.UpdateVenue{Name: "Gym", Rows: 3})
	require.NoError(t, err)

	testutil.CreateSession(t, f.sessionRepo, "GYM",
		time.Date(2026, 11, 12, 9, 0, 0, 0, time.UTC), ex.ID)

	// once scheduled, geometry is locked
	_, err = venueSvc.Update(ctx, "GYM", venue.UpdateVenue{Name: "Gym", Rows: 5})
	require.Error(t, err)
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)

	// renaming is still allowed
	_, err = venueSvc.Update(ctx, "GYM", venue.UpdateVenue{Name: "Great Hall"})
	require.NoError(t, err)

	// and the venue cannot be deleted while in use
	err = venueSvc.Delete(ctx, "GYM")
	require.ErrorAs(t, err, &vErr)
}
