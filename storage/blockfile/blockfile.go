// Package blockfile reads and writes the exam-block file: a line-oriented
// text snapshot of the whole model. One record per line, '|'-separated
// fields, key=value attributes, written in a stable order so exports diff
// cleanly.
//
//	examblock v1
//	subject|MAT|Mathematics
//	unit|MAT|3&4|Units 3 & 4
//	exam|<id>|MAT/3&4|Written paper|minutes=120
//	student|<id>|1234|Smith|Alice|aara=false|units=MAT/3&4;ENG/1&2
//	venue|GYM|Main Gymnasium|rows=10|cols=12|aara=false
//	session|<id>|GYM|2026-11-12|09:00|finalised=false|exams=<id>;<id>
package blockfile

import (
	"sort"

	"github.com/examdesk/examblock/core/exam"
	"github.com/examdesk/examblock/core/session"
	"github.com/examdesk/examblock/core/student"
	"github.com/examdesk/examblock/core/venue"
)

const (
	header    = "examblock v1"
	fieldSep  = "|"
	listSep   = ";"
	timestamp = "2006-01-02 15:04"
)

// Block is a full snapshot of the exam-block model. Desk allocations are
// not part of the file: they are derived state, rebuilt by re-running the
// allocator.
type Block struct {
	Subjects []exam.Subject
	Units    []exam.Unit
	Exams    []exam.Exam
	Students []student.Student
	Venues   []venue.Venue
	Sessions []session.Session
}

// sorted returns a copy of the block in canonical write order.
func (b Block) sorted() Block {
	out := Block{
		Subjects: append([]exam.Subject(nil), b.Subjects...),
		Units:    append([]exam.Unit(nil), b.Units...),
		Exams:    append([]exam.Exam(nil), b.Exams...),
		Students: append([]student.Student(nil), b.Students...),
		Venues:   append([]venue.Venue(nil), b.Venues...),
		Sessions: append([]session.Session(nil), b.Sessions...),
	}
	sort.Slice(out.Subjects, func(i, j int) bool { return out.Subjects[i].Code < out.Subjects[j].Code })
	sort.Slice(out.Units, func(i, j int) bool { return out.Units[i].Ref().String() < out.Units[j].Ref().String() })
	sort.Slice(out.Exams, func(i, j int) bool {
		if a, b := out.Exams[i].Unit.String(), out.Exams[j].Unit.String(); a != b {
			return a < b
		}
		return out.Exams[i].ID < out.Exams[j].ID
	})
	sort.Slice(out.Students, func(i, j int) bool { return out.Students[i].Number < out.Students[j].Number })
	sort.Slice(out.Venues, func(i, j int) bool { return out.Venues[i].Code < out.Venues[j].Code })
	sort.Slice(out.Sessions, func(i, j int) bool {
		if !out.Sessions[i].StartsAt.Equal(out.Sessions[j].StartsAt) {
			return out.Sessions[i].StartsAt.Before(out.Sessions[j].StartsAt)
		}
		return out.Sessions[i].ID < out.Sessions[j].ID
	})
	return out
}
