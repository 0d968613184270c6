// Package allocation assigns a venue's desks to the students sitting an
// exam session: alphabetical surname order, skip-column placement when the
// venue is at most half full.
package allocation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Mode is the placement mode an assignment was built under.
type Mode string

const (
	// ModeDense fills desks in row-major order without gaps.
	ModeDense Mode = "dense"
	// ModeSkipColumn seats students in alternating columns (0, 2, 4, ...)
	// to enforce physical distancing.
	ModeSkipColumn Mode = "skip-column"
)

// Seated describes one student eligible to sit the session. The caller is
// responsible for the AARA partition: the list must already be filtered to
// students matching the venue's AARA flag.
type Seated struct {
	StudentID string
	Number    string
	Surname   string
	GivenName string
}

// Desk is one desk of the venue. Index is row-major, 1..rows*cols.
// An empty StudentID means the desk is unoccupied.
type Desk struct {
	Index     int    `json:"index"`
	Row       int    `json:"row"`
	Column    int    `json:"column"`
	StudentID string `json:"student_id,omitempty"`
}

// Assignment is a complete desk plan for one venue: every desk in row-major
// order, each holding at most one student.
type Assignment struct {
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	Mode    Mode   `json:"mode"`
	Desks   []Desk `json:"desks"`
}

// Seated reports how many desks are occupied.
func (a Assignment) Seated() int {
	var n int
	for _, d := range a.Desks {
		if d.StudentID != "" {
			n++
		}
	}
	return n
}

// DeskOf returns the desk assigned to the given student.
func (a Assignment) DeskOf(studentID string) (Desk, bool) {
	for _, d := range a.Desks {
		if d.StudentID == studentID {
			return d, true
		}
	}
	return Desk{}, false
}

// CapacityError reports more eligible students than desks available under
// the chosen placement mode. No partial assignment is produced.
type CapacityError struct {
	Students int
	Seats    int
	Mode     Mode
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%d students but only %d seats available in %s mode", e.Students, e.Seats, e.Mode)
}

// IsCapacityError reports whether err is a *CapacityError.
func IsCapacityError(err error) bool {
	var ce *CapacityError
	return errors.As(err, &ce)
}

// Allocate seats students at a rows x cols venue. Students are ordered by
// surname ascending (case-insensitive; ties broken by given name, then by
// student number). Skip-column placement applies when the students would
// fill at most half the desks (2*len(students) <= rows*cols); the boundary
// itself is skip-column. Pure: repeated calls with the same inputs yield
// the same assignment.
func Allocate(rows, cols int, students []Seated) (Assignment, error) {
	if rows < 1 || cols < 1 {
		return Assignment{}, errors.Errorf("invalid venue geometry: %dx%d", rows, cols)
	}

	sorted := make([]Seated, len(students))
	copy(sorted, students)
	sortSeating(sorted)

	mode := ModeDense
	seats := rows * cols
	if 2*len(sorted) <= rows*cols {
		mode = ModeSkipColumn
		seats = rows * ((cols + 1) / 2)
	}
	if len(sorted) > seats {
		return Assignment{}, &CapacityError{Students: len(sorted), Seats: seats, Mode: mode}
	}

	asg := Assignment{
		Rows:    rows,
		Columns: cols,
		Mode:    mode,
		Desks:   make([]Desk, 0, rows*cols),
	}
	var next int
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			desk := Desk{
				Index:  row*cols + col + 1,
				Row:    row,
				Column: col,
			}
			if next < len(sorted) && (mode == ModeDense || col%2 == 0) {
				desk.StudentID = sorted[next].StudentID
				next++
			}
			asg.Desks = append(asg.Desks, desk)
		}
	}
	return asg, nil
}

// sortSeating orders students for seating. The sort is total: two distinct
// students never compare equal, so the assignment is deterministic.
func sortSeating(students []Seated) {
	sort.SliceStable(students, func(i, j int) bool {
		si, sj := students[i], students[j]
		if c := compareFold(si.Surname, sj.Surname); c != 0 {
			return c < 0
		}
		if c := compareFold(si.GivenName, sj.GivenName); c != 0 {
			return c < 0
		}
		return si.Number < sj.Number
	})
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
