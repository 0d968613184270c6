// Package inmemdb provides map-backed repositories used by tests and by
// the API's demo mode.
package inmemdb

import (
	"sync"

	"github.com/examdesk/examblock/core/allocation"
	"github.com/examdesk/examblock/core/exam"
	"github.com/examdesk/examblock/core/session"
	"github.com/examdesk/examblock/core/staff"
	"github.com/examdesk/examblock/core/student"
	"github.com/examdesk/examblock/core/venue"
)

type (
	DB struct {
		exam    *examTables
		student *studentTable
		venue   *venueTable
		session *sessionTables
		staff   *staffTable
	}

	examTables struct {
		sync.RWMutex
		subjects map[string]*exam.Subject // by code
		units    map[string]*exam.Unit    // by UnitRef.String()
		exams    map[string]*exam.Exam    // by ID
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student // by ID
	}

	venueTable struct {
		sync.RWMutex
		table map[string]*venue.Venue // by code
	}

	sessionTables struct {
		sync.RWMutex
		table       map[string]*session.Session      // by ID
		allocations map[string]allocation.Assignment // by session ID
	}

	staffTable struct {
		sync.RWMutex
		table map[string]*staff.Staff // by ID
	}
)

func Open() (*DB, error) {
	db := &DB{
		exam: &examTables{
			subjects: make(map[string]*exam.Subject),
			units:    make(map[string]*exam.Unit),
			exams:    make(map[string]*exam.Exam),
		},
		student: &studentTable{table: make(map[string]*student.Student)},
		venue:   &venueTable{table: make(map[string]*venue.Venue)},
		session: &sessionTables{
			table:       make(map[string]*session.Session),
			allocations: make(map[string]allocation.Assignment),
		},
		staff: &staffTable{table: make(map[string]*staff.Staff)},
	}
	return db, nil
}
