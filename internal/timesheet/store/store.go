package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/timecard/internal/database"
	"github.com/MrJamesThe3rd/timecard/internal/timecalc"
	"github.com/MrJamesThe3rd/timecard/internal/timesheet"
)

type Store struct {
	db     *sql.DB
	driver database.Driver
}

func New(db *sql.DB, driver database.Driver) *Store {
	return &Store{db: db, driver: driver}
}

var _ timesheet.Repository = (*Store)(nil)

func (s *Store) q(query string) string {
	return rebind(s.driver, query)
}

// timeArg encodes a timestamp for the active backend. SQLite keeps text.
func (s *Store) timeArg(t time.Time) any {
	if s.driver == database.DriverSQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}

	return t.UTC()
}

const selectTimesheetColumns = `
	id, equipment_id, driver_id, month_year, project_location, supplier_name, chassis_no,
	start_meter, end_meter, diesel_consumption, status, created_at, updated_at
`

// scanTimesheet reads the header columns in selectTimesheetColumns order.
func scanTimesheet(s scanner) (*timesheet.Timesheet, error) {
	var ts timesheet.Timesheet

	var supplier, chassis sql.NullString

	var startMeter, endMeter, diesel decimal.NullDecimal

	var statusStr string

	if err := s.Scan(
		&ts.ID, &ts.EquipmentID, &ts.DriverID, dateInto(&ts.MonthYear), &ts.ProjectLocation,
		&supplier, &chassis, &startMeter, &endMeter, &diesel, &statusStr,
		timestampInto(&ts.CreatedAt), timestampInto(&ts.UpdatedAt),
	); err != nil {
		return nil, err
	}

	ts.Status = timesheet.Status(statusStr)
	ts.SupplierName = nullableString(supplier)
	ts.ChassisNo = nullableString(chassis)
	ts.StartMeter = nullableDecimal(startMeter)
	ts.EndMeter = nullableDecimal(endMeter)
	ts.DieselConsumption = nullableDecimal(diesel)

	return &ts, nil
}

func scanDay(s scanner) (*timesheet.Day, error) {
	var d timesheet.Day

	var start, end, reason sql.NullString

	var regular, overtime, total decimal.NullDecimal

	if err := s.Scan(
		&d.ID, dateInto(&d.LogDate), &start, &end, &d.DutyBreakHrs,
		&regular, &overtime, &total, &reason,
	); err != nil {
		return nil, err
	}

	var err error

	if d.TimeStart, err = parseClock(start); err != nil {
		return nil, fmt.Errorf("time_start: %w", err)
	}

	if d.TimeEnd, err = parseClock(end); err != nil {
		return nil, fmt.Errorf("time_end: %w", err)
	}

	if regular.Valid && overtime.Valid && total.Valid {
		d.Hours = &timecalc.Hours{
			Regular:  regular.Decimal,
			Overtime: overtime.Decimal,
			Total:    total.Decimal,
		}
	}

	d.BreakdownReason = nullableString(reason)

	return &d, nil
}

func (s *Store) Create(ctx context.Context, ts *timesheet.Timesheet) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := s.q(`
		INSERT INTO timesheets (id, equipment_id, driver_id, month_year, project_location, supplier_name,
			chassis_no, start_meter, end_meter, diesel_consumption, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (equipment_id, driver_id, month_year) DO NOTHING
	`)

	res, err := dbTx.ExecContext(ctx, query,
		ts.ID.String(),
		ts.EquipmentID,
		ts.DriverID,
		dateArg(ts.MonthYear),
		ts.ProjectLocation,
		stringArg(ts.SupplierName),
		stringArg(ts.ChassisNo),
		decimalArg(ts.StartMeter),
		decimalArg(ts.EndMeter),
		decimalArg(ts.DieselConsumption),
		string(ts.Status),
		s.timeArg(ts.CreatedAt),
		s.timeArg(ts.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting timesheet: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("inserting timesheet: %w", err)
	}

	if n == 0 {
		return timesheet.ErrExists
	}

	for _, d := range ts.Days {
		if err := s.insertDay(ctx, dbTx, ts.ID, d); err != nil {
			return err
		}
	}

	if err := s.insertApprovals(ctx, dbTx, ts); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) insertDay(ctx context.Context, db database.DBTX, timesheetID uuid.UUID, d *timesheet.Day) error {
	query := s.q(`
		INSERT INTO timesheet_days (id, timesheet_id, log_date, time_start, time_end, duty_break_hrs,
			regular_working_hrs, overtime_hrs, total_using_hrs, breakdown_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	regular, overtime, total := hoursArgs(d.Hours)

	_, err := db.ExecContext(ctx, query,
		d.ID.String(),
		timesheetID.String(),
		dateArg(d.LogDate),
		clockArg(d.TimeStart),
		clockArg(d.TimeEnd),
		d.DutyBreakHrs.String(),
		regular, overtime, total,
		stringArg(d.BreakdownReason),
	)
	if err != nil {
		return fmt.Errorf("inserting day %s: %w", dateArg(d.LogDate), err)
	}

	return nil
}

// insertApprovals writes records not yet stored. Existing rows are left untouched.
func (s *Store) insertApprovals(ctx context.Context, db database.DBTX, ts *timesheet.Timesheet) error {
	query := s.q(`
		INSERT INTO timesheet_approvals (id, timesheet_id, status, role, comment, actor, acted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`)

	for _, a := range ts.Approvals {
		_, err := db.ExecContext(ctx, query,
			a.ID.String(),
			ts.ID.String(),
			string(a.Status),
			a.Role,
			a.Comment,
			a.Actor,
			s.timeArg(a.ActedAt),
		)
		if err != nil {
			return fmt.Errorf("inserting approval: %w", err)
		}
	}

	return nil
}

func hoursArgs(h *timecalc.Hours) (any, any, any) {
	if h == nil {
		return nil, nil, nil
	}

	return h.Regular.String(), h.Overtime.String(), h.Total.String()
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*timesheet.Timesheet, error) {
	return s.load(ctx, s.db, id)
}

func (s *Store) FindByPeriod(ctx context.Context, equipmentID, driverID string, monthYear time.Time) (*timesheet.Timesheet, error) {
	query := s.q(`SELECT id FROM timesheets WHERE equipment_id = ? AND driver_id = ? AND month_year = ?`)

	var id uuid.UUID

	err := s.db.QueryRowContext(ctx, query, equipmentID, driverID, dateArg(monthYear)).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, timesheet.ErrNotFound
		}

		return nil, fmt.Errorf("finding timesheet: %w", err)
	}

	return s.load(ctx, s.db, id)
}

func (s *Store) List(ctx context.Context, filter timesheet.ListFilter) ([]*timesheet.Timesheet, error) {
	query := `SELECT ` + selectTimesheetColumns + ` FROM timesheets WHERE 1 = 1`

	var args []any

	if filter.Status != nil {
		query += " AND status = ?"

		args = append(args, string(*filter.Status))
	}

	if filter.EquipmentID != nil {
		query += " AND equipment_id = ?"

		args = append(args, *filter.EquipmentID)
	}

	if filter.DriverID != nil {
		query += " AND driver_id = ?"

		args = append(args, *filter.DriverID)
	}

	if filter.MonthYear != nil {
		query += " AND month_year = ?"

		args = append(args, dateArg(*filter.MonthYear))
	}

	query += " ORDER BY month_year DESC, equipment_id ASC, driver_id ASC"

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing timesheets: %w", err)
	}

	var sheets []*timesheet.Timesheet

	for rows.Next() {
		ts, err := scanTimesheet(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning timesheet: %w", err)
		}

		sheets = append(sheets, ts)
	}

	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating timesheet rows: %w", err)
	}

	// Children are read after the cursor is released: SQLite runs on a single connection.
	rows.Close()

	for _, ts := range sheets {
		if err := s.loadChildren(ctx, s.db, ts); err != nil {
			return nil, err
		}
	}

	return sheets, nil
}

func (s *Store) TimesheetIDByDay(ctx context.Context, dayID uuid.UUID) (uuid.UUID, error) {
	query := s.q(`SELECT timesheet_id FROM timesheet_days WHERE id = ?`)

	var id uuid.UUID

	if err := s.db.QueryRowContext(ctx, query, dayID.String()).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("%w: day %s", timesheet.ErrNotFound, dayID)
		}

		return uuid.Nil, fmt.Errorf("finding day: %w", err)
	}

	return id, nil
}

func (s *Store) load(ctx context.Context, db database.DBTX, id uuid.UUID) (*timesheet.Timesheet, error) {
	query := s.q(`SELECT ` + selectTimesheetColumns + ` FROM timesheets WHERE id = ?`)

	ts, err := scanTimesheet(db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: timesheet %s", timesheet.ErrNotFound, id)
		}

		return nil, fmt.Errorf("getting timesheet: %w", err)
	}

	if err := s.loadChildren(ctx, db, ts); err != nil {
		return nil, err
	}

	return ts, nil
}

func (s *Store) loadChildren(ctx context.Context, db database.DBTX, ts *timesheet.Timesheet) error {
	days, err := s.listDays(ctx, db, ts.ID)
	if err != nil {
		return err
	}

	approvals, err := s.listApprovals(ctx, db, ts.ID)
	if err != nil {
		return err
	}

	ts.Days = days
	ts.Approvals = approvals

	return nil
}

func (s *Store) listDays(ctx context.Context, db database.DBTX, timesheetID uuid.UUID) ([]*timesheet.Day, error) {
	query := s.q(`
		SELECT id, log_date, time_start, time_end, duty_break_hrs,
			regular_working_hrs, overtime_hrs, total_using_hrs, breakdown_reason
		FROM timesheet_days
		WHERE timesheet_id = ?
		ORDER BY log_date ASC
	`)

	rows, err := db.QueryContext(ctx, query, timesheetID.String())
	if err != nil {
		return nil, fmt.Errorf("listing days: %w", err)
	}
	defer rows.Close()

	var days []*timesheet.Day

	for rows.Next() {
		d, err := scanDay(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning day: %w", err)
		}

		days = append(days, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating day rows: %w", err)
	}

	return days, nil
}

func (s *Store) listApprovals(ctx context.Context, db database.DBTX, timesheetID uuid.UUID) ([]timesheet.Approval, error) {
	query := s.q(`
		SELECT id, status, role, comment, actor, acted_at
		FROM timesheet_approvals
		WHERE timesheet_id = ?
		ORDER BY acted_at ASC
	`)

	rows, err := db.QueryContext(ctx, query, timesheetID.String())
	if err != nil {
		return nil, fmt.Errorf("listing approvals: %w", err)
	}
	defer rows.Close()

	var approvals []timesheet.Approval

	for rows.Next() {
		var (
			a         timesheet.Approval
			statusStr string
		)

		if err := rows.Scan(&a.ID, &statusStr, &a.Role, &a.Comment, &a.Actor, timestampInto(&a.ActedAt)); err != nil {
			return nil, fmt.Errorf("scanning approval: %w", err)
		}

		a.Status = timesheet.Status(statusStr)
		approvals = append(approvals, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating approval rows: %w", err)
	}

	return approvals, nil
}

func updateLockKey(id uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write([]byte("timesheet"))
	h.Write([]byte{0})
	h.Write(id[:])

	return int64(h.Sum64())
}

type updateTx struct {
	store *Store
	tx    *sql.Tx
	id    uuid.UUID
}

// BeginUpdate opens a transaction holding the timesheet's write lock until
// Commit or Rollback. Postgres takes an advisory lock. SQLite is already
// serialized by its single connection.
func (s *Store) BeginUpdate(ctx context.Context, id uuid.UUID) (timesheet.UpdateTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning update tx: %w", err)
	}

	if s.driver == database.DriverPostgres {
		if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", updateLockKey(id)); err != nil {
			dbTx.Rollback()
			return nil, fmt.Errorf("acquiring timesheet lock: %w", err)
		}
	}

	var exists int

	err = dbTx.QueryRowContext(ctx, s.q(`SELECT 1 FROM timesheets WHERE id = ?`), id.String()).Scan(&exists)
	if err != nil {
		dbTx.Rollback()

		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: timesheet %s", timesheet.ErrNotFound, id)
		}

		return nil, fmt.Errorf("checking timesheet: %w", err)
	}

	return &updateTx{store: s, tx: dbTx, id: id}, nil
}

func (u *updateTx) Commit() error   { return u.tx.Commit() }
func (u *updateTx) Rollback() error { return u.tx.Rollback() }

func (u *updateTx) Load(ctx context.Context) (*timesheet.Timesheet, error) {
	return u.store.load(ctx, u.tx, u.id)
}

// Save writes the header, every day row and any new approval records.
func (u *updateTx) Save(ctx context.Context, ts *timesheet.Timesheet) error {
	s := u.store

	header := s.q(`
		UPDATE timesheets
		SET project_location = ?, supplier_name = ?, chassis_no = ?, start_meter = ?, end_meter = ?,
			diesel_consumption = ?, status = ?, updated_at = ?
		WHERE id = ?
	`)

	_, err := u.tx.ExecContext(ctx, header,
		ts.ProjectLocation,
		stringArg(ts.SupplierName),
		stringArg(ts.ChassisNo),
		decimalArg(ts.StartMeter),
		decimalArg(ts.EndMeter),
		decimalArg(ts.DieselConsumption),
		string(ts.Status),
		s.timeArg(ts.UpdatedAt),
		ts.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("updating timesheet: %w", err)
	}

	day := s.q(`
		UPDATE timesheet_days
		SET time_start = ?, time_end = ?, duty_break_hrs = ?, regular_working_hrs = ?,
			overtime_hrs = ?, total_using_hrs = ?, breakdown_reason = ?
		WHERE id = ? AND timesheet_id = ?
	`)

	for _, d := range ts.Days {
		regular, overtime, total := hoursArgs(d.Hours)

		_, err := u.tx.ExecContext(ctx, day,
			clockArg(d.TimeStart),
			clockArg(d.TimeEnd),
			d.DutyBreakHrs.String(),
			regular, overtime, total,
			stringArg(d.BreakdownReason),
			d.ID.String(),
			ts.ID.String(),
		)
		if err != nil {
			return fmt.Errorf("updating day %s: %w", dateArg(d.LogDate), err)
		}
	}

	return s.insertApprovals(ctx, u.tx, ts)
}
