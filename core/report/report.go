// Package report renders the finalisation report of a session: the slot
// header, the seating grid and the desk-by-desk roster.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"github.com/examdesk/examblock/core/allocation"
	"github.com/examdesk/examblock/core/exam"
	"github.com/examdesk/examblock/core/session"
	"github.com/examdesk/examblock/core/student"
	"github.com/examdesk/examblock/core/venue"
)

// Data is everything needed to render a session's report.
type Data struct {
	Session    session.Session
	Venue      venue.Venue
	Exams      []exam.Exam
	Assignment allocation.Assignment
	Students   map[string]student.Student // by ID
}

// Render writes the text report to w.
func Render(w io.Writer, d Data) error {
	if _, err := fmt.Fprintf(w, "Session %s\n", d.Session.Slot()); err != nil {
		return errors.Wrap(err, "writing report header")
	}
	_, _ = fmt.Fprintf(w, "Venue: %s (%s), %dx%d desks", d.Venue.Name, d.Venue.Code, d.Venue.Rows, d.Venue.Columns)
	if d.Venue.AARA {
		_, _ = fmt.Fprint(w, ", AARA")
	}
	_, _ = fmt.Fprintln(w)
	for _, ex := range d.Exams {
		_, _ = fmt.Fprintf(w, "Exam: %s - %s (%d min)\n", ex.Unit, ex.Title, ex.Minutes)
	}
	_, _ = fmt.Fprintf(w, "Placement: %s, %d students seated\n\n", d.Assignment.Mode, d.Assignment.Seated())

	renderGrid(w, d)
	renderRoster(w, d)
	return nil
}

func renderGrid(w io.Writer, d Data) {
	table := tablewriter.NewWriter(w)

	header := make([]string, 0, d.Assignment.Columns+1)
	header = append(header, "")
	for col := 0; col < d.Assignment.Columns; col++ {
		header = append(header, "C"+strconv.Itoa(col+1))
	}
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for row := 0; row < d.Assignment.Rows; row++ {
		cells := make([]string, 0, d.Assignment.Columns+1)
		cells = append(cells, "R"+strconv.Itoa(row+1))
		for col := 0; col < d.Assignment.Columns; col++ {
			desk := d.Assignment.Desks[row*d.Assignment.Columns+col]
			cells = append(cells, gridCell(desk, d.Students))
		}
		table.Append(cells)
	}
	table.Render()
	_, _ = fmt.Fprintln(w)
}

func gridCell(desk allocation.Desk, students map[string]student.Student) string {
	if desk.StudentID == "" {
		return "-"
	}
	st, ok := students[desk.StudentID]
	if !ok {
		return desk.StudentID
	}
	return st.Number
}

func renderRoster(w io.Writer, d Data) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Desk", "Number", "Student"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, desk := range d.Assignment.Desks {
		if desk.StudentID == "" {
			continue
		}
		number, name := desk.StudentID, ""
		if st, ok := d.Students[desk.StudentID]; ok {
			number, name = st.Number, st.FullName()
		}
		table.Append([]string{strconv.Itoa(desk.Index), number, name})
	}
	table.Render()
}

// Bytes renders the report into memory.
func Bytes(d Data) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
