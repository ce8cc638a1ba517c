package database

import (
	"database/sql"
	"fmt"
)

// Migrate creates the timesheet schema. Statements are idempotent and re-run on every start.
func Migrate(db *sql.DB, driver Driver) error {
	stmts := postgresSchema
	if driver == DriverSQLite {
		stmts = sqliteSchema
	}

	for i, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	return nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS timesheets (
		id                 UUID PRIMARY KEY,
		equipment_id       TEXT NOT NULL,
		driver_id          TEXT NOT NULL,
		month_year         DATE NOT NULL CHECK (EXTRACT(DAY FROM month_year) = 1),
		project_location   TEXT NOT NULL,
		supplier_name      TEXT,
		chassis_no         TEXT,
		start_meter        NUMERIC(10,1),
		end_meter          NUMERIC(10,1),
		diesel_consumption NUMERIC(10,2),
		status             TEXT NOT NULL DEFAULT 'draft'
		                   CHECK (status IN ('draft','submitted','approved')),
		created_at         TIMESTAMPTZ NOT NULL,
		updated_at         TIMESTAMPTZ NOT NULL,
		UNIQUE (equipment_id, driver_id, month_year)
	)`,
	`CREATE TABLE IF NOT EXISTS timesheet_days (
		id                  UUID PRIMARY KEY,
		timesheet_id        UUID NOT NULL REFERENCES timesheets(id) ON DELETE CASCADE,
		log_date            DATE NOT NULL,
		time_start          TIME,
		time_end            TIME,
		duty_break_hrs      NUMERIC(5,2) NOT NULL DEFAULT 0 CHECK (duty_break_hrs >= 0),
		regular_working_hrs NUMERIC(5,2),
		overtime_hrs        NUMERIC(5,2),
		total_using_hrs     NUMERIC(5,2),
		breakdown_reason    TEXT,
		UNIQUE (timesheet_id, log_date)
	)`,
	`CREATE TABLE IF NOT EXISTS timesheet_approvals (
		id           UUID PRIMARY KEY,
		timesheet_id UUID NOT NULL REFERENCES timesheets(id) ON DELETE CASCADE,
		status       TEXT NOT NULL CHECK (status IN ('submitted','approved')),
		role         TEXT NOT NULL,
		comment      TEXT NOT NULL DEFAULT '',
		actor        TEXT NOT NULL DEFAULT '',
		acted_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_timesheets_status ON timesheets(status)`,
	`CREATE INDEX IF NOT EXISTS idx_timesheet_approvals_timesheet ON timesheet_approvals(timesheet_id, acted_at)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS timesheets (
		id                 TEXT PRIMARY KEY,
		equipment_id       TEXT NOT NULL,
		driver_id          TEXT NOT NULL,
		month_year         TEXT NOT NULL,
		project_location   TEXT NOT NULL,
		supplier_name      TEXT,
		chassis_no         TEXT,
		start_meter        TEXT,
		end_meter          TEXT,
		diesel_consumption TEXT,
		status             TEXT NOT NULL DEFAULT 'draft'
		                   CHECK (status IN ('draft','submitted','approved')),
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL,
		UNIQUE (equipment_id, driver_id, month_year)
	)`,
	`CREATE TABLE IF NOT EXISTS timesheet_days (
		id                  TEXT PRIMARY KEY,
		timesheet_id        TEXT NOT NULL REFERENCES timesheets(id) ON DELETE CASCADE,
		log_date            TEXT NOT NULL,
		time_start          TEXT,
		time_end            TEXT,
		duty_break_hrs      TEXT NOT NULL DEFAULT '0',
		regular_working_hrs TEXT,
		overtime_hrs        TEXT,
		total_using_hrs     TEXT,
		breakdown_reason    TEXT,
		UNIQUE (timesheet_id, log_date)
	)`,
	`CREATE TABLE IF NOT EXISTS timesheet_approvals (
		id           TEXT PRIMARY KEY,
		timesheet_id TEXT NOT NULL REFERENCES timesheets(id) ON DELETE CASCADE,
		status       TEXT NOT NULL CHECK (status IN ('submitted','approved')),
		role         TEXT NOT NULL,
		comment      TEXT NOT NULL DEFAULT '',
		actor        TEXT NOT NULL DEFAULT '',
		acted_at     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_timesheets_status ON timesheets(status)`,
	`CREATE INDEX IF NOT EXISTS idx_timesheet_approvals_timesheet ON timesheet_approvals(timesheet_id, acted_at)`,
}
