package main

import (
	"context"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/examdesk/examblock/storage/database"
)

func (cli *commandLine) initDB() error {
	if cli.db == nil {
		return errors.New("no database configured")
	}
	if err := database.InitSchema(context.Background(), cli.db); err != nil {
		return err
	}
	color.Green("database schema ready")
	return nil
}
