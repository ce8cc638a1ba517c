package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/timecard/cmd/timecard/internal/view"
	"github.com/MrJamesThe3rd/timecard/internal/database"
	"github.com/MrJamesThe3rd/timecard/internal/importer"
	"github.com/MrJamesThe3rd/timecard/internal/timecalc"
	"github.com/MrJamesThe3rd/timecard/internal/timesheet"
	timesheetStore "github.com/MrJamesThe3rd/timecard/internal/timesheet/store"
)

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()

	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "timecard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctrl := gomock.NewController(t)
	dir := timesheet.NewMockDirectory(ctrl)
	dir.EXPECT().Equipment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id string) (*timesheet.Equipment, error) {
			return &timesheet.Equipment{ID: id}, nil
		}).AnyTimes()
	dir.EXPECT().Driver(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id string) (*timesheet.Driver, error) {
			return &timesheet.Driver{ID: id}, nil
		}).AnyTimes()

	var out bytes.Buffer

	return &app{
		timesheets: timesheet.NewService(timesheetStore.New(db, database.DriverSQLite), dir, timesheet.Options{
			Policy: timecalc.DefaultPolicy(),
			Now:    func() time.Time { return time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC) },
		}),
		imports:     importer.NewService(),
		out:         &out,
		interactive: func() bool { return false },
		driver:      database.DriverSQLite,
	}, &out
}

func execute(t *testing.T, a *app, out *bytes.Buffer, args ...string) ([]view.SummaryRow, error) {
	t.Helper()

	out.Reset()

	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetErr(&bytes.Buffer{})

	if err := cmd.Execute(); err != nil {
		return nil, err
	}

	var rows []view.SummaryRow
	require.NoError(t, json.Unmarshal(out.Bytes(), &rows), out.String())

	return rows, nil
}

func TestCommands_Lifecycle(t *testing.T) {
	a, out := newTestApp(t)

	rows, err := execute(t, a, out, "create", "--equipment", "EQ-1042", "--driver", "DRV-7")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2025-02-01", rows[0].MonthYear)

	id := rows[0].ID

	logPath := filepath.Join(t.TempDir(), "log.csv")
	require.NoError(t, os.WriteFile(logPath, []byte(
		"date;time_start;time_end;duty_break_hrs\n2025-02-03;07:00;19:00;1\n2025-02-04;06:00;14:00;0\n"), 0o600))

	rows, err = execute(t, a, out, "import", id, logPath)
	require.NoError(t, err)
	assert.Equal(t, 2, rows[0].Days)
	assert.True(t, decimal.NewFromInt(19).Equal(rows[0].Total), rows[0].Total.String())

	_, err = execute(t, a, out, "submit", id, "--actor", "site.clerk")
	require.NoError(t, err)

	rows, err = execute(t, a, out, "pending")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, timesheet.StatusSubmitted, rows[0].Status)

	rows, err = execute(t, a, out, "approve", id, "--actor", "eng.hassan", "-m", "ok")
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusApproved, rows[0].Status)

	_, err = execute(t, a, out, "import", id, logPath)
	assert.ErrorIs(t, err, timesheet.ErrLocked)

	rows, err = execute(t, a, out, "list", "--status", "approved", "--month", "2025-02")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, id, rows[0].ID)
}

func TestCommands_Errors(t *testing.T) {
	a, out := newTestApp(t)

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "Bad id", args: []string{"show", "nope"}, wantErr: timesheet.ErrInvalidInput},
		{name: "Unknown id", args: []string{"show", "6f1c1c1e-8a40-4b8e-9a6e-3b7f1d9c2a11"}, wantErr: timesheet.ErrNotFound},
		{name: "Bad status", args: []string{"list", "--status", "rejected"}, wantErr: timesheet.ErrInvalidInput},
		{name: "Bad month", args: []string{"create", "--equipment", "EQ-1", "--driver", "D-1", "--month", "2025-02-15"}, wantErr: timesheet.ErrInvalidPeriod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, a, out, tt.args...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCommands_Migrate(t *testing.T) {
	a, out := newTestApp(t)

	cmd := newRootCmd(a)
	cmd.SetArgs([]string{"migrate"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "sqlite schema is up to date\n", out.String())
}
