// Package session binds exams to a venue at a date and time, and owns the
// session's desk allocation and finalisation state.
package session

import (
	"time"

	"github.com/examdesk/examblock/core"
)

type Session struct {
	ID        string    `json:"id"`
	VenueCode string    `json:"venue_code"`
	StartsAt  time.Time `json:"starts_at"`
	ExamIDs   []string  `json:"exam_ids"` // ordered, no duplicates
	Finalised bool      `json:"finalised"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Slot renders the venue+date+time slot, e.g. "GYM 2026-11-12 09:00".
func (s Session) Slot() string {
	return s.VenueCode + " " + s.StartsAt.Format("2006-01-02 15:04")
}

// NewSession contains information needed to schedule a new Session.
type NewSession struct {
	VenueCode string    `json:"venue_code" validate:"required,code_"`
	StartsAt  time.Time `json:"starts_at" validate:"required"`
	ExamIDs   []string  `json:"exam_ids" validate:"required,min=1,unique"`
}

func (ns *NewSession) Validate(svc *Service) error {
	ns.VenueCode = core.CleanCode(ns.VenueCode)

	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	return svc.checkReferences(ns.VenueCode, ns.ExamIDs)
}

// UpdateSession defines what may be modified on an existing, non-finalised
// Session. The venue is fixed at scheduling time.
type UpdateSession struct {
	StartsAt time.Time `json:"starts_at"`
	ExamIDs  []string  `json:"exam_ids" validate:"omitempty,min=1,unique"`
}

func (us *UpdateSession) Validate(svc *Service) error {
	if err := core.Validate.Struct(us); err != nil {
		return err
	}
	if us.ExamIDs != nil {
		return svc.checkReferences("", us.ExamIDs)
	}
	return nil
}
