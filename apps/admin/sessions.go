package main

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"github.com/examdesk/examblock/core/allocation"
)

// listSessions prints the scheduled sessions as a table.
func (cli *commandLine) listSessions() error {
	ctx := context.Background()
	sessions, err := cli.sessionSvc.QueryAll(ctx)
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Venue", "Starts", "Exams", "Finalised"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, sess := range sessions {
		table.Append([]string{
			sess.ID,
			sess.VenueCode,
			sess.StartsAt.Format("2006-01-02 15:04"),
			strconv.Itoa(len(sess.ExamIDs)),
			strconv.FormatBool(sess.Finalised),
		})
	}
	table.Render()
	return nil
}

// allocate builds the session's desk allocation and prints the seating grid.
func (cli *commandLine) allocate(sessionID string) error {
	ctx := context.Background()
	asg, err := cli.sessionSvc.Allocate(ctx, sessionID)
	if err != nil {
		if allocation.IsCapacityError(err) {
			color.Red("%v", err)
		}
		return err
	}

	sess, err := cli.sessionSvc.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	roster, err := cli.sessionSvc.Roster(ctx, sess)
	if err != nil {
		return err
	}
	numbers := make(map[string]string, len(roster))
	for _, st := range roster {
		numbers[st.ID] = st.Number
	}

	color.Cyan("Session %s", sess.Slot())
	color.Cyan("Placement: %s, %d students seated", asg.Mode, asg.Seated())
	cli.printGrid(asg, numbers)
	return nil
}

func (cli *commandLine) printGrid(asg allocation.Assignment, numbers map[string]string) {
	table := tablewriter.NewWriter(os.Stdout)

	header := make([]string, 0, asg.Columns+1)
	header = append(header, "")
	for col := 0; col < asg.Columns; col++ {
		header = append(header, "C"+strconv.Itoa(col+1))
	}
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for row := 0; row < asg.Rows; row++ {
		cells := make([]string, 0, asg.Columns+1)
		cells = append(cells, "R"+strconv.Itoa(row+1))
		for col := 0; col < asg.Columns; col++ {
			desk := asg.Desks[row*asg.Columns+col]
			cell := "-"
			if desk.StudentID != "" {
				cell = desk.StudentID
				if number, ok := numbers[desk.StudentID]; ok {
					cell = number
				}
			}
			cells = append(cells, cell)
		}
		table.Append(cells)
	}
	table.Render()
}

// report prints the session's finalisation report.
func (cli *commandLine) report(sessionID string) error {
	content, err := cli.reportSvc.Generate(context.Background(), sessionID)
	if err != nil {
		return err
	}
	_, err = os.Stdout.WriteString(strings.TrimRight(string(content), "\n") + "\n")
	return err
}
