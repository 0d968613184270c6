// Package student holds the student roster of the block.
package student

import (
	"time"

	"github.com/examdesk/examblock/core"
	"github.com/examdesk/examblock/core/exam"
)

type Student struct {
	ID        string         `json:"id"`
	Number    string         `json:"number"` // institutional identifier, unique
	Surname   string         `json:"surname"`
	GivenName string         `json:"given_name"`
	AARA      bool           `json:"aara"`
	Units     []exam.UnitRef `json:"units"`
	CreatedAt time.Time      `json:"created_at"` // UTC
	UpdatedAt time.Time      `json:"updated_at"` // UTC
}

func (s Student) FullName() string {
	if s.GivenName == "" {
		return s.Surname
	}
	return s.Surname + ", " + s.GivenName
}

// TakesUnit reports whether the student is enrolled in the given unit.
func (s Student) TakesUnit(ref exam.UnitRef) bool {
	for _, u := range s.Units {
		if u == ref {
			return true
		}
	}
	return false
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	Number    string   `json:"number" validate:"required,max=16,code_"`
	Surname   string   `json:"surname" validate:"required"`
	GivenName string   `json:"given_name"`
	AARA      bool     `json:"aara"`
	Units     []string `json:"units"` // SUBJECT/UNIT references

	unitRefs []exam.UnitRef
}

func (ns *NewStudent) Validate(svc *Service) error {
	ns.Number = core.CleanCode(ns.Number)
	ns.Surname = core.CleanString(ns.Surname)
	ns.GivenName = core.CleanString(ns.GivenName)

	if err := core.Validate.Struct(ns); err != nil {
		return err
	}

	refs, err := parseUnitRefs(ns.Units)
	if err != nil {
		return err
	}
	ns.unitRefs = refs

	return svc.checkNumberUniqueness(ns.Number)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
type UpdateStudent struct {
	Surname   string   `json:"surname"`
	GivenName string   `json:"given_name"`
	AARA      *bool    `json:"aara"`
	Units     []string `json:"units"`

	unitRefs []exam.UnitRef
}

func (us *UpdateStudent) Validate(orig Student) error {
	surname := core.CleanString(us.Surname)
	if surname != "" {
		us.Surname = surname
	} else {
		us.Surname = orig.Surname
	}
	us.GivenName = core.CleanString(us.GivenName)

	if err := core.Validate.Struct(us); err != nil {
		return err
	}

	if us.Units != nil {
		refs, err := parseUnitRefs(us.Units)
		if err != nil {
			return err
		}
		us.unitRefs = refs
	}
	return nil
}

func parseUnitRefs(units []string) ([]exam.UnitRef, error) {
	refs := make([]exam.UnitRef, 0, len(units))
	for _, u := range units {
		ref, err := exam.ParseUnitRef(u)
		if err != nil {
			return nil, core.NewValidationError(err, core.FieldError{Field: "units", Error: err.Error()})
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// QueryFilter applies AND operation on available fields.
// Search does a case-insensitive match on Number, Surname or GivenName.
type QueryFilter struct {
	Search string `query:"search"`
	AARA   *bool  `query:"aara"`
	Unit   string `query:"unit"` // SUBJECT/UNIT reference
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.AARA == nil && qf.Unit == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Unit = core.CleanCode(qf.Unit)
}
