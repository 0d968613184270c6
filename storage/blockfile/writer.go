package blockfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Write serialises the block in canonical order.
func Write(w io.Writer, block Block) error {
	b := block.sorted()
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintln(bw, header); err != nil {
		return errors.Wrap(err, "writing header")
	}

	for _, sub := range b.Subjects {
		if err := writeRecord(bw, "subject", sub.Code, sub.Title); err != nil {
			return err
		}
	}
	for _, unit := range b.Units {
		if err := writeRecord(bw, "unit", unit.SubjectCode, unit.Code, unit.Title); err != nil {
			return err
		}
	}
	for _, ex := range b.Exams {
		if err := writeRecord(bw, "exam", ex.ID, ex.Unit.String(), ex.Title, "minutes="+strconv.Itoa(ex.Minutes)); err != nil {
			return err
		}
	}
	for _, st := range b.Students {
		units := make([]string, 0, len(st.Units))
		for _, ref := range st.Units {
			units = append(units, ref.String())
		}
		err := writeRecord(bw, "student",
			st.ID, st.Number, st.Surname, st.GivenName,
			"aara="+strconv.FormatBool(st.AARA),
			"units="+strings.Join(units, listSep))
		if err != nil {
			return err
		}
	}
	for _, v := range b.Venues {
		err := writeRecord(bw, "venue",
			v.Code, v.Name,
			"rows="+strconv.Itoa(v.Rows),
			"cols="+strconv.Itoa(v.Columns),
			"aara="+strconv.FormatBool(v.AARA))
		if err != nil {
			return err
		}
	}
	for _, sess := range b.Sessions {
		err := writeRecord(bw, "session",
			sess.ID, sess.VenueCode,
			sess.StartsAt.Format("2006-01-02"),
			sess.StartsAt.Format("15:04"),
			"finalised="+strconv.FormatBool(sess.Finalised),
			"exams="+strings.Join(sess.ExamIDs, listSep))
		if err != nil {
			return err
		}
	}

	return errors.Wrap(bw.Flush(), "flushing block file")
}

func writeRecord(w io.Writer, kind string, fields ...string) error {
	for _, f := range fields {
		if strings.ContainsAny(f, fieldSep+"\n") {
			return errors.Errorf("%s record: field %q contains a reserved character", kind, f)
		}
	}
	_, err := fmt.Fprintln(w, kind+fieldSep+strings.Join(fields, fieldSep))
	return errors.Wrapf(err, "writing %s record", kind)
}
