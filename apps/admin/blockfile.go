package main

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/examdesk/examblock/storage/blockfile"
)

// exportBlock writes the whole exam block to a block file.
func (cli *commandLine) exportBlock(path string) error {
	ctx := context.Background()

	var block blockfile.Block
	var err error
	if block.Subjects, err = cli.examRepo.QuerySubjects(ctx); err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if block.Units, err = cli.examRepo.QueryUnits(ctx, ""); err != nil {
		return errors.Wrap(err, "querying units")
	}
	if block.Exams, err = cli.examRepo.QueryExams(ctx); err != nil {
		return errors.Wrap(err, "querying exams")
	}
	if block.Students, err = cli.studentRepo.QueryAllStudents(ctx); err != nil {
		return errors.Wrap(err, "querying students")
	}
	if block.Venues, err = cli.venueRepo.QueryAllVenues(ctx); err != nil {
		return errors.Wrap(err, "querying venues")
	}
	if block.Sessions, err = cli.sessionRepo.QueryAllSessions(ctx); err != nil {
		return errors.Wrap(err, "querying sessions")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating block file")
	}
	defer func() { _ = f.Close() }()

	if err = blockfile.Write(f, block); err != nil {
		return err
	}
	color.Green("exported to %s", path)
	return nil
}

// importBlock loads a block file, keeping the file's IDs so sessions keep
// referring to the right exams.
func (cli *commandLine) importBlock(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening block file")
	}
	defer func() { _ = f.Close() }()

	block, err := blockfile.Read(f)
	if err != nil {
		return err
	}

	ctx := context.Background()
	for _, sub := range block.Subjects {
		if _, err = cli.examRepo.CreateSubject(ctx, sub); err != nil {
			return errors.Wrapf(err, "importing subject %s", sub.Code)
		}
	}
	for _, unit := range block.Units {
		if _, err = cli.examRepo.CreateUnit(ctx, unit); err != nil {
			return errors.Wrapf(err, "importing unit %s", unit.Ref())
		}
	}
	for _, ex := range block.Exams {
		if _, err = cli.examRepo.CreateExam(ctx, ex); err != nil {
			return errors.Wrapf(err, "importing exam %s", ex.ID)
		}
	}
	for _, st := range block.Students {
		if _, err = cli.studentRepo.CreateStudent(ctx, st); err != nil {
			return errors.Wrapf(err, "importing student %s", st.Number)
		}
	}
	for _, v := range block.Venues {
		if _, err = cli.venueRepo.CreateVenue(ctx, v); err != nil {
			return errors.Wrapf(err, "importing venue %s", v.Code)
		}
	}
	for _, sess := range block.Sessions {
		if _, err = cli.sessionRepo.CreateSession(ctx, sess); err != nil {
			return errors.Wrapf(err, "importing session %s", sess.ID)
		}
	}

	color.Green("imported %d subjects, %d units, %d exams, %d students, %d venues, %d sessions",
		len(block.Subjects), len(block.Units), len(block.Exams),
		len(block.Students), len(block.Venues), len(block.Sessions))
	return nil
}
