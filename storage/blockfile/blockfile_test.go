package blockfile

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examdesk/examblock/core/exam"
	"github.com/examdesk/examblock/core/session"
	"github.com/examdesk/examblock/core/student"
	"github.com/examdesk/examblock/core/venue"
)

func testBlock() Block {
	starts := time.Date(2026, 11, 12, 9, 0, 0, 0, time.UTC)
	return Block{
		Subjects: []exam.Subject{
			{Code: "MAT", Title: "Mathematics"},
			{Code: "ENG", Title: "English"},
		},
		Units: []exam.Unit{
			{SubjectCode: "MAT", Code: "3&4", Title: "Units 3 & 4"},
			{SubjectCode: "ENG", Code: "1&2", Title: "Units 1 & 2"},
		},
		Exams: []exam.Exam{
			{ID: "ex-1", Unit: exam.UnitRef{SubjectCode: "MAT", UnitCode: "3&4"}, Title: "Written paper", Minutes: 120},
		},
		Students: []student.Student{
			{
				ID: "st-1", Number: "1001", Surname: "Smith", GivenName: "Alice", AARA: false,
				Units: []exam.UnitRef{{SubjectCode: "MAT", UnitCode: "3&4"}, {SubjectCode: "ENG", UnitCode: "1&2"}},
			},
			{ID: "st-2", Number: "1002", Surname: "Jones", GivenName: "Bob", AARA: true},
		},
		Venues: []venue.Venue{
			{Code: "GYM", Name: "Main Gymnasium", Rows: 10, Columns: 12, AARA: false},
		},
		Sessions: []session.Session{
			{ID: "se-1", VenueCode: "GYM", StartsAt: starts, ExamIDs: []string{"ex-1"}, Finalised: false},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testBlock()))

	got, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	var buf2 bytes.Buffer
	require.NoError(t, Write(&buf2, got))

	if buf.String() != buf2.String() {
		diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(buf.String()),
			B:        difflib.SplitLines(buf2.String()),
			FromFile: "first write",
			ToFile:   "second write",
			Context:  3,
		})
		t.Errorf("round trip is not stable:\n%s", diff)
	}
}

func TestWriteCanonicalOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testBlock()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{
		"examblock v1",
		"subject|ENG|English",
		"subject|MAT|Mathematics",
		"unit|ENG|1&2|Units 1 & 2",
		"unit|MAT|3&4|Units 3 & 4",
		"exam|ex-1|MAT/3&4|Written paper|minutes=120",
		"student|st-1|1001|Smith|Alice|aara=false|units=MAT/3&4;ENG/1&2",
		"student|st-2|1002|Jones|Bob|aara=true|units=",
		"venue|GYM|Main Gymnasium|rows=10|cols=12|aara=false",
		"session|se-1|GYM|2026-11-12|09:00|finalised=false|exams=ex-1",
	}
	assert.Equal(t, want, lines)
}

func TestWriteRejectsReservedCharacters(t *testing.T) {
	block := Block{Subjects: []exam.Subject{{Code: "BAD", Title: "pipe | title"}}}
	err := Write(&bytes.Buffer{}, block)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserved character")
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr string
	}{
		{"empty file", "", "empty block file"},
		{"bad header", "examblock v9\n", "bad header"},
		{"unknown kind", "examblock v1\nteacher|x\n", `line 2: unknown record kind "teacher"`},
		{"short subject", "examblock v1\nsubject|MAT\n", "line 2: subject record: want 2 fields"},
		{"bad minutes", "examblock v1\nexam|ex-1|MAT/3&4|Paper|minutes=soon\n", `line 2: exam record: minutes: invalid integer "soon"`},
		{"bad unit ref", "examblock v1\nstudent|st-1|1001|Smith|Alice|aara=false|units=MAT\n", "invalid unit reference"},
		{"bad bool", "examblock v1\nvenue|GYM|Gym|rows=2|cols=3|aara=maybe\n", `invalid boolean "maybe"`},
		{"bad time", "examblock v1\nsession|se-1|GYM|2026-13-40|09:00|finalised=false|exams=ex-1\n", "parsing start time"},
		{"missing attr key", "examblock v1\nvenue|GYM|Gym|2|cols=3|aara=false\n", `want rows=...`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadSkipsBlankLines(t *testing.T) {
	in := "examblock v1\n\nsubject|MAT|Mathematics\n\n"
	block, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, block.Subjects, 1)
	assert.Equal(t, "MAT", block.Subjects[0].Code)
}
