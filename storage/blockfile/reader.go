package blockfile

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/examdesk/examblock/core/exam"
	"github.com/examdesk/examblock/core/session"
	"github.com/examdesk/examblock/core/student"
	"github.com/examdesk/examblock/core/venue"
)

// Read parses a block file back into a Block. Errors carry the offending
// line number. The whole file is parsed before anything is returned: a bad
// record means no partial block.
func Read(r io.Reader) (Block, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return Block{}, errors.Wrap(err, "reading block file")
		}
		return Block{}, errors.New("empty block file")
	}
	if got := strings.TrimSpace(sc.Text()); got != header {
		return Block{}, errors.Errorf("line 1: bad header %q (want %q)", got, header)
	}

	var block Block
	for lineno := 2; sc.Scan(); lineno++ {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, fieldSep)
		kind, fields := fields[0], fields[1:]

		var err error
		switch kind {
		case "subject":
			err = block.readSubject(fields)
		case "unit":
			err = block.readUnit(fields)
		case "exam":
			err = block.readExam(fields)
		case "student":
			err = block.readStudent(fields)
		case "venue":
			err = block.readVenue(fields)
		case "session":
			err = block.readSession(fields)
		default:
			err = errors.Errorf("unknown record kind %q", kind)
		}
		if err != nil {
			return Block{}, errors.Wrapf(err, "line %d", lineno)
		}
	}
	if err := sc.Err(); err != nil {
		return Block{}, errors.Wrap(err, "reading block file")
	}
	return block, nil
}

func (b *Block) readSubject(fields []string) error {
	if len(fields) != 2 {
		return errors.Errorf("subject record: want 2 fields, got %d", len(fields))
	}
	b.Subjects = append(b.Subjects, exam.Subject{Code: fields[0], Title: fields[1]})
	return nil
}

func (b *Block) readUnit(fields []string) error {
	if len(fields) != 3 {
		return errors.Errorf("unit record: want 3 fields, got %d", len(fields))
	}
	b.Units = append(b.Units, exam.Unit{SubjectCode: fields[0], Code: fields[1], Title: fields[2]})
	return nil
}

func (b *Block) readExam(fields []string) error {
	if len(fields) != 4 {
		return errors.Errorf("exam record: want 4 fields, got %d", len(fields))
	}
	ref, err := exam.ParseUnitRef(fields[1])
	if err != nil {
		return errors.Wrap(err, "exam record")
	}
	minutes, err := attrInt(fields[3], "minutes")
	if err != nil {
		return errors.Wrap(err, "exam record")
	}
	b.Exams = append(b.Exams, exam.Exam{ID: fields[0], Unit: ref, Title: fields[2], Minutes: minutes})
	return nil
}

func (b *Block) readStudent(fields []string) error {
	if len(fields) != 6 {
		return errors.Errorf("student record: want 6 fields, got %d", len(fields))
	}
	aara, err := attrBool(fields[4], "aara")
	if err != nil {
		return errors.Wrap(err, "student record")
	}
	rawUnits, err := attrList(fields[5], "units")
	if err != nil {
		return errors.Wrap(err, "student record")
	}
	units := make([]exam.UnitRef, 0, len(rawUnits))
	for _, raw := range rawUnits {
		ref, err := exam.ParseUnitRef(raw)
		if err != nil {
			return errors.Wrap(err, "student record")
		}
		units = append(units, ref)
	}
	b.Students = append(b.Students, student.Student{
		ID:        fields[0],
		Number:    fields[1],
		Surname:   fields[2],
		GivenName: fields[3],
		AARA:      aara,
		Units:     units,
	})
	return nil
}

func (b *Block) readVenue(fields []string) error {
	if len(fields) != 5 {
		return errors.Errorf("venue record: want 5 fields, got %d", len(fields))
	}
	rows, err := attrInt(fields[2], "rows")
	if err != nil {
		return errors.Wrap(err, "venue record")
	}
	cols, err := attrInt(fields[3], "cols")
	if err != nil {
		return errors.Wrap(err, "venue record")
	}
	aara, err := attrBool(fields[4], "aara")
	if err != nil {
		return errors.Wrap(err, "venue record")
	}
	b.Venues = append(b.Venues, venue.Venue{
		Code:    fields[0],
		Name:    fields[1],
		Rows:    rows,
		Columns: cols,
		AARA:    aara,
	})
	return nil
}

func (b *Block) readSession(fields []string) error {
	if len(fields) != 6 {
		return errors.Errorf("session record: want 6 fields, got %d", len(fields))
	}
	startsAt, err := time.Parse(timestamp, fields[2]+" "+fields[3])
	if err != nil {
		return errors.Wrap(err, "session record: parsing start time")
	}
	finalised, err := attrBool(fields[4], "finalised")
	if err != nil {
		return errors.Wrap(err, "session record")
	}
	examIDs, err := attrList(fields[5], "exams")
	if err != nil {
		return errors.Wrap(err, "session record")
	}
	b.Sessions = append(b.Sessions, session.Session{
		ID:        fields[0],
		VenueCode: fields[1],
		StartsAt:  startsAt.UTC(),
		Finalised: finalised,
		ExamIDs:   examIDs,
	})
	return nil
}

func attr(field, key string) (string, error) {
	val, ok := strings.CutPrefix(field, key+"=")
	if !ok {
		return "", errors.Errorf("want %s=..., got %q", key, field)
	}
	return val, nil
}

func attrInt(field, key string) (int, error) {
	val, err := attr(field, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, errors.Errorf("%s: invalid integer %q", key, val)
	}
	return n, nil
}

func attrBool(field, key string) (bool, error) {
	val, err := attr(field, key)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, errors.Errorf("%s: invalid boolean %q", key, val)
	}
	return b, nil
}

func attrList(field, key string) ([]string, error) {
	val, err := attr(field, key)
	if err != nil {
		return nil, err
	}
	if val == "" {
		return nil, nil
	}
	return strings.Split(val, listSep), nil
}
