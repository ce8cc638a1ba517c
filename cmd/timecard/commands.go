package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/MrJamesThe3rd/timecard/cmd/timecard/internal/view"
	"github.com/MrJamesThe3rd/timecard/internal/database"
	"github.com/MrJamesThe3rd/timecard/internal/importer"
	"github.com/MrJamesThe3rd/timecard/internal/timesheet"
)

type app struct {
	timesheets  *timesheet.Service
	imports     *importer.Service
	out         io.Writer
	interactive func() bool
	driver      database.Driver
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "timecard",
		Short:         "Equipment timesheet administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMigrateCmd(a),
		newCreateCmd(a),
		newListCmd(a),
		newPendingCmd(a),
		newShowCmd(a),
		newImportCmd(a),
		newSubmitCmd(a),
		newApproveCmd(a),
	)

	return root
}

// printList renders tables on a terminal and JSON otherwise.
func (a *app) printList(sheets []*timesheet.Timesheet) error {
	if a.interactive() {
		_, err := fmt.Fprint(a.out, view.RenderList(sheets))
		return err
	}

	return view.WriteJSON(a.out, sheets)
}

func (a *app) printCard(ts *timesheet.Timesheet) error {
	if a.interactive() {
		_, err := fmt.Fprint(a.out, view.RenderCard(ts))
		return err
	}

	return view.WriteJSON(a.out, []*timesheet.Timesheet{ts})
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q is not a timesheet id", timesheet.ErrInvalidInput, s)
	}

	return id, nil
}

func actorFlag(flags *pflag.FlagSet, actor *string) {
	flags.StringVar(actor, "actor", os.Getenv("USER"), "Name recorded on the approval trail")
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening the database already applied the schema.
			_, err := fmt.Fprintf(a.out, "%s schema is up to date\n", a.driver)
			return err
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	var params timesheet.CreateParams

	var month string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open the monthly timesheet for an equipment and driver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			monthYear, err := view.ResolveMonth(month, a.timesheets.Today())
			if err != nil {
				return err
			}

			params.MonthYear = monthYear

			ctx, cancel := view.DbCtx()
			defer cancel()

			ts, created, err := a.timesheets.Create(ctx, params)
			if err != nil {
				return err
			}

			if !created {
				fmt.Fprintln(cmd.ErrOrStderr(), "timesheet already exists")
			}

			return a.printCard(ts)
		},
	}

	cmd.Flags().StringVar(&params.EquipmentID, "equipment", "", "Equipment id")
	cmd.Flags().StringVar(&params.DriverID, "driver", "", "Driver id")
	cmd.Flags().StringVar(&params.ProjectLocation, "location", "", "Project location")
	cmd.Flags().StringVar(&month, "month", "this", "Month as YYYY-MM, this or last")
	_ = cmd.MarkFlagRequired("equipment")
	_ = cmd.MarkFlagRequired("driver")

	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var status, month, equipmentID, driverID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List timesheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter timesheet.ListFilter

			if status != "" {
				s := timesheet.Status(status)
				if !s.Valid() {
					return fmt.Errorf("%w: unknown status %q", timesheet.ErrInvalidInput, status)
				}

				filter.Status = &s
			}

			if cmd.Flags().Changed("month") {
				m, err := view.ResolveMonth(month, a.timesheets.Today())
				if err != nil {
					return err
				}

				filter.MonthYear = &m
			}

			if equipmentID != "" {
				filter.EquipmentID = &equipmentID
			}

			if driverID != "" {
				filter.DriverID = &driverID
			}

			ctx, cancel := view.DbCtx()
			defer cancel()

			sheets, err := a.timesheets.List(ctx, filter)
			if err != nil {
				return err
			}

			return a.printList(sheets)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (draft, submitted, approved)")
	cmd.Flags().StringVar(&month, "month", "", "Filter by month as YYYY-MM, this or last")
	cmd.Flags().StringVar(&equipmentID, "equipment", "", "Filter by equipment id")
	cmd.Flags().StringVar(&driverID, "driver", "", "Filter by driver id")

	return cmd
}

func newPendingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List timesheets waiting for approval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := view.DbCtx()
			defer cancel()

			sheets, err := a.timesheets.Pending(ctx)
			if err != nil {
				return err
			}

			return a.printList(sheets)
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a timesheet with every day and its totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := view.DbCtx()
			defer cancel()

			ts, err := a.timesheets.Get(ctx, id)
			if err != nil {
				return err
			}

			return a.printCard(ts)
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <id> <file>",
		Short: "Apply a site punch log to a draft timesheet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[1], err)
			}
			defer f.Close()

			rows, err := a.imports.Import(importer.Format(format), f)
			if err != nil {
				return err
			}

			ctx, cancel := view.DbCtx()
			defer cancel()

			ts, err := a.timesheets.ImportDays(ctx, id, rows)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "imported %d rows\n", len(rows))

			return a.printCard(ts)
		},
	}

	cmd.Flags().StringVar(&format, "format", string(importer.FormatSiteLog), "Import format")

	return cmd
}

func newSubmitCmd(a *app) *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "submit <id>",
		Short: "Submit a draft timesheet for approval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := view.DbCtx()
			defer cancel()

			ts, err := a.timesheets.Submit(ctx, id, actor)
			if err != nil {
				return err
			}

			return a.printCard(ts)
		},
	}

	actorFlag(cmd.Flags(), &actor)

	return cmd
}

func newApproveCmd(a *app) *cobra.Command {
	var actor, comment string

	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a submitted timesheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := view.DbCtx()
			defer cancel()

			ts, err := a.timesheets.Approve(ctx, id, comment, actor)
			if err != nil {
				return err
			}

			return a.printCard(ts)
		},
	}

	actorFlag(cmd.Flags(), &actor)
	cmd.Flags().StringVarP(&comment, "comment", "m", "", "Approval comment")

	return cmd
}
