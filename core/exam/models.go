// Package exam holds the subject/unit/exam side of the block: subjects
// taught at the institution, the units of each subject, and the exam papers
// sat for those units.
package exam

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/examdesk/examblock/core"
)

// UnitRef identifies a unit of a subject, e.g. MAT/3&4.
type UnitRef struct {
	SubjectCode string `json:"subject_code"`
	UnitCode    string `json:"unit_code"`
}

func (r UnitRef) String() string {
	return r.SubjectCode + "/" + r.UnitCode
}

func (r UnitRef) IsZero() bool {
	return r.SubjectCode == "" && r.UnitCode == ""
}

// ParseUnitRef parses a SUBJECT/UNIT reference.
func ParseUnitRef(s string) (UnitRef, error) {
	parts := strings.SplitN(core.CleanCode(s), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return UnitRef{}, errors.Errorf("invalid unit reference %q (want SUBJECT/UNIT)", s)
	}
	return UnitRef{SubjectCode: parts[0], UnitCode: parts[1]}, nil
}

type Subject struct {
	Code      string    `json:"code"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type Unit struct {
	SubjectCode string    `json:"subject_code"`
	Code        string    `json:"code"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (u Unit) Ref() UnitRef {
	return UnitRef{SubjectCode: u.SubjectCode, UnitCode: u.Code}
}

// Exam is one exam paper sat within the block.
type Exam struct {
	ID        string    `json:"id"`
	Unit      UnitRef   `json:"unit"`
	Title     string    `json:"title"`
	Minutes   int       `json:"minutes"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewSubject contains information needed to create a new Subject.
type NewSubject struct {
	Code  string `json:"code" validate:"required,max=16,code_"`
	Title string `json:"title" validate:"required"`
}

func (ns *NewSubject) Validate(svc *Service) error {
	ns.Code = core.CleanCode(ns.Code)
	ns.Title = core.CleanString(ns.Title)

	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	return svc.checkSubjectUniqueness(ns.Code)
}

// UpdateSubject defines what may be modified on an existing Subject.
type UpdateSubject struct {
	Title string `json:"title" validate:"required"`
}

func (us *UpdateSubject) Validate() error {
	us.Title = core.CleanString(us.Title)
	return core.Validate.Struct(us)
}

// NewUnit contains information needed to create a new Unit.
type NewUnit struct {
	SubjectCode string `json:"subject_code" validate:"required,code_"`
	Code        string `json:"code" validate:"required,max=16,code_"`
	Title       string `json:"title"`
}

func (nu *NewUnit) Validate(svc *Service) error {
	nu.SubjectCode = core.CleanCode(nu.SubjectCode)
	nu.Code = core.CleanCode(nu.Code)
	nu.Title = core.CleanString(nu.Title)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUnitUniqueness(UnitRef{SubjectCode: nu.SubjectCode, UnitCode: nu.Code})
}

// NewExam contains information needed to create a new Exam.
type NewExam struct {
	Unit    string `json:"unit" validate:"required"` // SUBJECT/UNIT
	Title   string `json:"title" validate:"required"`
	Minutes int    `json:"minutes" validate:"required,min=1"`

	unitRef UnitRef
}

func (ne *NewExam) Validate(svc *Service) error {
	ne.Title = core.CleanString(ne.Title)

	if err := core.Validate.Struct(ne); err != nil {
		return err
	}
	ref, err := ParseUnitRef(ne.Unit)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "unit", Error: err.Error()})
	}
	ne.unitRef = ref
	return nil
}
