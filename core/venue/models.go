// Package venue holds the rooms students sit exams in. Desk geometry is
// rows x columns, row-major; AARA venues are reserved for students needing
// access arrangements.
package venue

import (
	"time"

	"github.com/examdesk/examblock/core"
)

type Venue struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Rows      int       `json:"rows"`
	Columns   int       `json:"columns"`
	AARA      bool      `json:"aara"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (v Venue) DeskCount() int {
	return v.Rows * v.Columns
}

// NewVenue contains information needed to create a new Venue.
type NewVenue struct {
	Code    string `json:"code" validate:"required,max=16,code_"`
	Name    string `json:"name" validate:"required"`
	Rows    int    `json:"rows" validate:"required,min=1"`
	Columns int    `json:"columns" validate:"required,min=1"`
	AARA    bool   `json:"aara"`
}

func (nv *NewVenue) Validate(svc *Service) error {
	nv.Code = core.CleanCode(nv.Code)
	nv.Name = core.CleanString(nv.Name)

	if err := core.Validate.Struct(nv); err != nil {
		return err
	}
	return svc.checkCodeUniqueness(nv.Code)
}

// UpdateVenue defines what information may be provided to modify an existing
// Venue. Geometry changes are rejected once a session is scheduled against
// the venue.
type UpdateVenue struct {
	Name    string `json:"name"`
	Rows    int    `json:"rows" validate:"omitempty,min=1"`
	Columns int    `json:"columns" validate:"omitempty,min=1"`
	AARA    *bool  `json:"aara"`
}

func (uv *UpdateVenue) Validate(orig Venue) error {
	name := core.CleanString(uv.Name)
	if name != "" {
		uv.Name = name
	} else {
		uv.Name = orig.Name
	}
	return core.Validate.Struct(uv)
}
