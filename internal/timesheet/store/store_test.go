package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/timecard/internal/database"
	"github.com/MrJamesThe3rd/timecard/internal/timecalc"
	"github.com/MrJamesThe3rd/timecard/internal/timesheet"
)

// newTestDB opens a file-backed SQLite database so every connection sees the same state.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "timecard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(newTestDB(t), database.DriverSQLite)
}

var created = time.Date(2025, 2, 1, 6, 0, 0, 0, time.UTC)

func newSheet(t *testing.T, equipmentID, driverID string, month time.Month) *timesheet.Timesheet {
	t.Helper()

	supplier := "Al Noor Rentals"

	ts, err := timesheet.New(timesheet.NewParams{
		EquipmentID:     equipmentID,
		DriverID:        driverID,
		MonthYear:       time.Date(2025, month, 1, 0, 0, 0, 0, time.UTC),
		ProjectLocation: "HAYA AL ANDLUS",
		SupplierName:    &supplier,
		DutyBreakHrs:    decimal.NewFromInt(1),
		CreatedAt:       created,
	})
	require.NoError(t, err)

	return ts
}

func mustClock(t *testing.T, hour, minute int) timecalc.Clock {
	t.Helper()

	c, err := timecalc.NewClock(hour, minute)
	require.NoError(t, err)

	return c
}

func TestStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ts := newSheet(t, "EQ-1", "DR-1", time.February)
	require.NoError(t, s.Create(ctx, ts))

	got, err := s.Get(ctx, ts.ID)
	require.NoError(t, err)

	assert.Equal(t, ts.ID, got.ID)
	assert.Equal(t, "EQ-1", got.EquipmentID)
	assert.Equal(t, "DR-1", got.DriverID)
	assert.True(t, got.MonthYear.Equal(ts.MonthYear))
	assert.Equal(t, "HAYA AL ANDLUS", got.ProjectLocation)
	require.NotNil(t, got.SupplierName)
	assert.Equal(t, "Al Noor Rentals", *got.SupplierName)
	assert.Nil(t, got.ChassisNo)
	assert.Nil(t, got.StartMeter)
	assert.Equal(t, timesheet.StatusDraft, got.Status)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.Empty(t, got.Approvals)

	require.Len(t, got.Days, 28)

	for i, d := range got.Days {
		assert.Equal(t, ts.Days[i].ID, d.ID)
		assert.True(t, d.LogDate.Equal(ts.Days[i].LogDate), "day %d", i)
		assert.Nil(t, d.TimeStart)
		assert.Nil(t, d.TimeEnd)
		assert.Nil(t, d.Hours)
		assert.True(t, d.DutyBreakHrs.Equal(decimal.NewFromInt(1)))
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, timesheet.ErrNotFound)
}

func TestStore_CreateDuplicatePeriod(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Create(ctx, newSheet(t, "EQ-1", "DR-1", time.March)))

	err := s.Create(ctx, newSheet(t, "EQ-1", "DR-1", time.March))
	assert.ErrorIs(t, err, timesheet.ErrExists)

	sheets, err := s.List(ctx, timesheet.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, sheets, 1)
	assert.Len(t, sheets[0].Days, 31)
}

func TestStore_FindByPeriod(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ts := newSheet(t, "EQ-1", "DR-1", time.April)
	require.NoError(t, s.Create(ctx, ts))

	got, err := s.FindByPeriod(ctx, "EQ-1", "DR-1", ts.MonthYear)
	require.NoError(t, err)
	assert.Equal(t, ts.ID, got.ID)
	assert.Len(t, got.Days, 30)

	_, err = s.FindByPeriod(ctx, "EQ-1", "DR-2", ts.MonthYear)
	assert.ErrorIs(t, err, timesheet.ErrNotFound)

	_, err = s.FindByPeriod(ctx, "EQ-1", "DR-1", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, timesheet.ErrNotFound)
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	feb := newSheet(t, "EQ-1", "DR-1", time.February)
	mar := newSheet(t, "EQ-1", "DR-1", time.March)
	other := newSheet(t, "EQ-2", "DR-2", time.February)

	for _, ts := range []*timesheet.Timesheet{feb, mar, other} {
		require.NoError(t, s.Create(ctx, ts))
	}

	submitted := feb
	require.NoError(t, submitted.Submit("eng-1", created))

	utx, err := s.BeginUpdate(ctx, submitted.ID)
	require.NoError(t, err)
	require.NoError(t, utx.Save(ctx, submitted))
	require.NoError(t, utx.Commit())

	statusSubmitted := timesheet.StatusSubmitted
	eq2 := "EQ-2"
	dr1 := "DR-1"
	month := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter timesheet.ListFilter
		want   []uuid.UUID
	}{
		{
			name: "All newest month first",
			want: []uuid.UUID{mar.ID, feb.ID, other.ID},
		},
		{
			name:   "By status",
			filter: timesheet.ListFilter{Status: &statusSubmitted},
			want:   []uuid.UUID{feb.ID},
		},
		{
			name:   "By equipment",
			filter: timesheet.ListFilter{EquipmentID: &eq2},
			want:   []uuid.UUID{other.ID},
		},
		{
			name:   "By driver and month",
			filter: timesheet.ListFilter{DriverID: &dr1, MonthYear: &month},
			want:   []uuid.UUID{feb.ID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheets, err := s.List(ctx, tt.filter)
			require.NoError(t, err)

			ids := make([]uuid.UUID, len(sheets))
			for i, ts := range sheets {
				ids[i] = ts.ID
				assert.NotEmpty(t, ts.Days)
			}

			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestStore_TimesheetIDByDay(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ts := newSheet(t, "EQ-1", "DR-1", time.February)
	require.NoError(t, s.Create(ctx, ts))

	id, err := s.TimesheetIDByDay(ctx, ts.Days[10].ID)
	require.NoError(t, err)
	assert.Equal(t, ts.ID, id)

	_, err = s.TimesheetIDByDay(ctx, uuid.New())
	assert.ErrorIs(t, err, timesheet.ErrNotFound)
}

func TestStore_UpdateRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ts := newSheet(t, "EQ-1", "DR-1", time.February)
	require.NoError(t, s.Create(ctx, ts))

	policy := timecalc.DefaultPolicy()
	date := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)

	utx, err := s.BeginUpdate(ctx, ts.ID)
	require.NoError(t, err)

	loaded, err := utx.Load(ctx)
	require.NoError(t, err)

	require.NoError(t, loaded.ClockIn(date, mustClock(t, 20, 0), policy))
	require.NoError(t, loaded.ClockOut(date, mustClock(t, 7, 30), policy))

	reason := "hydraulic leak"
	meter := decimal.RequireFromString("1520.5")
	require.NoError(t, loaded.UpdateHeader(timesheet.HeaderPatch{
		StartMeter: timesheet.Some(&meter),
	}))

	day, err := loaded.DayOn(time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, loaded.UpdateDay(day.ID, timesheet.DayPatch{
		BreakdownReason: timesheet.Some(&reason),
	}, policy))

	require.NoError(t, loaded.Submit("eng-1", created.Add(time.Hour)))
	require.NoError(t, loaded.Approve("ok", "eng-2", created.Add(2*time.Hour)))

	loaded.UpdatedAt = created.Add(2 * time.Hour)
	require.NoError(t, utx.Save(ctx, loaded))
	require.NoError(t, utx.Commit())

	got, err := s.Get(ctx, ts.ID)
	require.NoError(t, err)

	assert.Equal(t, timesheet.StatusApproved, got.Status)
	assert.True(t, got.UpdatedAt.Equal(created.Add(2*time.Hour)))
	require.NotNil(t, got.StartMeter)
	assert.True(t, got.StartMeter.Equal(meter))

	punched, err := got.DayOn(date)
	require.NoError(t, err)
	require.NotNil(t, punched.TimeStart)
	require.NotNil(t, punched.TimeEnd)
	assert.Equal(t, "20:00", punched.TimeStart.String())
	assert.Equal(t, "07:30", punched.TimeEnd.String())
	require.NotNil(t, punched.Hours)
	assert.Equal(t, "8", punched.Hours.Regular.String())
	assert.Equal(t, "2.5", punched.Hours.Overtime.String())
	assert.Equal(t, "10.5", punched.Hours.Total.String())

	broken, err := got.DayOn(day.LogDate)
	require.NoError(t, err)
	require.NotNil(t, broken.BreakdownReason)
	assert.Equal(t, reason, *broken.BreakdownReason)

	require.Len(t, got.Approvals, 2)
	assert.Equal(t, timesheet.StatusSubmitted, got.Approvals[0].Status)
	assert.Equal(t, timesheet.StatusApproved, got.Approvals[1].Status)

	approval := got.Approval()
	require.NotNil(t, approval)
	assert.Equal(t, "eng-2", approval.Actor)
	assert.Equal(t, "ok", approval.Comment)
	assert.Equal(t, timesheet.RoleSiteEngineer, approval.Role)
	assert.True(t, approval.ActedAt.Equal(created.Add(2*time.Hour)))

	summary := got.Summary()
	assert.Equal(t, 1, summary.Days)
	assert.Equal(t, "10.5", summary.Total.String())
}

func TestStore_RollbackDiscardsChanges(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ts := newSheet(t, "EQ-1", "DR-1", time.February)
	require.NoError(t, s.Create(ctx, ts))

	utx, err := s.BeginUpdate(ctx, ts.ID)
	require.NoError(t, err)

	loaded, err := utx.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, loaded.Submit("eng-1", created))
	require.NoError(t, utx.Save(ctx, loaded))
	require.NoError(t, utx.Rollback())

	got, err := s.Get(ctx, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusDraft, got.Status)
	assert.Empty(t, got.Approvals)
}

func TestStore_BeginUpdateMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.BeginUpdate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, timesheet.ErrNotFound)
}

// Concurrent clock-ins on different days of one timesheet must all survive.
func TestStore_ConcurrentClockIns(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	directory := timesheet.NewMockDirectory(ctrl)
	directory.EXPECT().Equipment(gomock.Any(), "EQ-1").Return(&timesheet.Equipment{ID: "EQ-1"}, nil)
	directory.EXPECT().Driver(gomock.Any(), "DR-1").Return(&timesheet.Driver{ID: "DR-1"}, nil)

	svc := timesheet.NewService(newTestStore(t), directory, timesheet.Options{
		Now: func() time.Time { return time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC) },
	})

	ts, isNew, err := svc.Create(ctx, timesheet.CreateParams{
		EquipmentID: "EQ-1",
		DriverID:    "DR-1",
		MonthYear:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.True(t, isNew)

	var wg sync.WaitGroup

	for day := 1; day <= 20; day++ {
		wg.Add(1)

		go func(day int) {
			defer wg.Done()

			date := time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC)
			if _, err := svc.ClockIn(ctx, ts.ID, &date); err != nil {
				t.Errorf("clock in %d: %v", day, err)
			}
		}(day)
	}

	wg.Wait()

	got, err := svc.Get(ctx, ts.ID)
	require.NoError(t, err)

	for i, d := range got.Days {
		if i < 20 {
			require.NotNil(t, d.TimeStart, fmt.Sprintf("day %d lost its clock-in", i+1))
			assert.Equal(t, "07:00", d.TimeStart.String())

			continue
		}

		assert.Nil(t, d.TimeStart)
	}
}
