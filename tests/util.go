package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/examdesk/examblock/core/exam"
	"github.com/examdesk/examblock/core/session"
	"github.com/examdesk/examblock/core/staff"
	"github.com/examdesk/examblock/core/student"
	"github.com/examdesk/examblock/core/venue"
)

func CreateSubject(t *testing.T, repo exam.Repository, code, title string) exam.Subject {
	t.Helper()
	now := time.Now().UTC()
	sub, err := repo.CreateSubject(context.Background(), exam.Subject{
		Code:      code,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return sub
}

func CreateUnit(t *testing.T, repo exam.Repository, subjectCode, code, title string) exam.Unit {
	t.Helper()
	now := time.Now().UTC()
	unit, err := repo.CreateUnit(context.Background(), exam.Unit{
		SubjectCode: subjectCode,
		Code:        code,
		Title:       title,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateUnit() failed: %v", err)
	}
	return unit
}

func CreateExam(t *testing.T, repo exam.Repository, unit exam.UnitRef, title string, minutes int) exam.Exam {
	t.Helper()
	now := time.Now().UTC()
	ex, err := repo.CreateExam(context.Background(), exam.Exam{
		ID:        uuid.New().String(),
		Unit:      unit,
		Title:     title,
		Minutes:   minutes,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateExam() failed: %v", err)
	}
	return ex
}

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	number, surname, givenName string,
	aara bool,
	units ...exam.UnitRef,
) student.Student {
	t.Helper()
	now := time.Now().UTC()
	st, err := repo.CreateStudent(context.Background(), student.Student{
		ID:        uuid.New().String(),
		Number:    number,
		Surname:   surname,
		GivenName: givenName,
		AARA:      aara,
		Units:     units,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return st
}

func CreateVenue(t *testing.T, repo venue.Repository, code, name string, rows, cols int, aara bool) venue.Venue {
	t.Helper()
	now := time.Now().UTC()
	v, err := repo.CreateVenue(context.Background(), venue.Venue{
		Code:      code,
		Name:      name,
		Rows:      rows,
		Columns:   cols,
		AARA:      aara,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateVenue() failed: %v", err)
	}
	return v
}

func CreateSession(t *testing.T, repo session.Repository, venueCode string, startsAt time.Time, examIDs ...string) session.Session {
	t.Helper()
	now := time.Now().UTC()
	sess, err := repo.CreateSession(context.Background(), session.Session{
		ID:        uuid.New().String(),
		VenueCode: venueCode,
		StartsAt:  startsAt,
		ExamIDs:   examIDs,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	return sess
}

func CreateStaff(t *testing.T, repo staff.Repository, name, uname, email, pwd string, isAdmin bool) staff.Staff {
	t.Helper()
	now := time.Now().UTC()
	st := staff.Staff{
		ID:        uuid.New().String(),
		Name:      name,
		Username:  uname,
		Email:     email,
		IsAdmin:   isAdmin,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := st.SetPassword(pwd); err != nil {
			t.Fatalf("CreateStaff() failed: %v", err)
		}
	}
	st, err := repo.CreateStaff(context.Background(), st)
	if err != nil {
		t.Fatalf("CreateStaff() failed: %v", err)
	}
	return st
}
