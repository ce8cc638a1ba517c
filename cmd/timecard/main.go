package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"

	"github.com/MrJamesThe3rd/timecard/internal/config"
	"github.com/MrJamesThe3rd/timecard/internal/database"
	"github.com/MrJamesThe3rd/timecard/internal/directory"
	"github.com/MrJamesThe3rd/timecard/internal/importer"
	"github.com/MrJamesThe3rd/timecard/internal/timesheet"
	timesheetStore "github.com/MrJamesThe3rd/timecard/internal/timesheet/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	policy, err := cfg.Policy()
	if err != nil {
		return err
	}

	location, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DB.Driver, cfg.DSN())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	dir := directory.NewClient(context.Background(), cfg.Directory.URL, cfg.Directory.Token, cfg.Directory.Timeout)

	a := &app{
		timesheets: timesheet.NewService(timesheetStore.New(db, cfg.DB.Driver), dir, timesheet.Options{
			Policy:                 policy,
			DefaultBreakHours:      cfg.Timesheet.DefaultBreakHours,
			DefaultProjectLocation: cfg.Timesheet.DefaultProjectLocation,
			Location:               location,
		}),
		imports: importer.NewService(),
		out:     os.Stdout,
		interactive: func() bool {
			return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
		},
		driver: cfg.DB.Driver,
	}

	return newRootCmd(a).Execute()
}
