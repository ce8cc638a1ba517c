package timesheet

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/timecard/internal/timecalc"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrLocked            = errors.New("timesheet locked")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidPeriod     = errors.New("invalid period")
	ErrInvalidInput      = errors.New("invalid input")

	// ErrExists is returned by Repository.Create when the equipment, driver
	// and month already have a timesheet.
	ErrExists = errors.New("timesheet already exists")
)

// Status represents the approval lifecycle state of a timesheet.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved:
		return true
	}

	return false
}

// RoleSiteEngineer is the only approval level in use.
const RoleSiteEngineer = "SiteEngineer"

// Timesheet is one month of time cards for an equipment and driver pair.
type Timesheet struct {
	ID                uuid.UUID
	EquipmentID       string
	DriverID          string
	MonthYear         time.Time // first day of the month, UTC
	ProjectLocation   string
	SupplierName      *string
	ChassisNo         *string
	StartMeter        *decimal.Decimal
	EndMeter          *decimal.Decimal
	DieselConsumption *decimal.Decimal
	Status            Status
	Approvals         []Approval // transition records, oldest first
	Days              []*Day     // one per calendar day, ascending
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Day is one calendar day's punches and derived hours.
type Day struct {
	ID              uuid.UUID
	LogDate         time.Time
	TimeStart       *timecalc.Clock
	TimeEnd         *timecalc.Clock
	DutyBreakHrs    decimal.Decimal
	Hours           *timecalc.Hours // nil until both punches exist
	BreakdownReason *string
}

// Approval records one workflow transition. Records are never rewritten.
type Approval struct {
	ID      uuid.UUID
	Status  Status
	Role    string
	Comment string
	Actor   string
	ActedAt time.Time
}

// Summary is the month total over valid days.
type Summary struct {
	Days     int
	Regular  decimal.Decimal
	Overtime decimal.Decimal
	Total    decimal.Decimal
}

type NewParams struct {
	EquipmentID     string
	DriverID        string
	MonthYear       time.Time
	ProjectLocation string
	SupplierName    *string
	ChassisNo       *string
	DutyBreakHrs    decimal.Decimal
	CreatedAt       time.Time
}

// New builds a draft timesheet with a row for every day of the month.
func New(params NewParams) (*Timesheet, error) {
	monthYear, err := ValidatePeriod(params.MonthYear)
	if err != nil {
		return nil, err
	}

	if err := validateBreak(params.DutyBreakHrs); err != nil {
		return nil, err
	}

	ts := &Timesheet{
		ID:              uuid.New(),
		EquipmentID:     params.EquipmentID,
		DriverID:        params.DriverID,
		MonthYear:       monthYear,
		ProjectLocation: params.ProjectLocation,
		SupplierName:    params.SupplierName,
		ChassisNo:       params.ChassisNo,
		Status:          StatusDraft,
		CreatedAt:       params.CreatedAt,
		UpdatedAt:       params.CreatedAt,
	}

	for _, date := range timecalc.DaysInMonth(monthYear) {
		ts.Days = append(ts.Days, &Day{
			ID:           uuid.New(),
			LogDate:      date,
			DutyBreakHrs: params.DutyBreakHrs,
		})
	}

	return ts, nil
}

// ValidatePeriod checks that t is the first day of a month with no time of day
// and returns it normalized to UTC.
func ValidatePeriod(t time.Time) (time.Time, error) {
	if t.IsZero() {
		return time.Time{}, fmt.Errorf("%w: month_year is required", ErrInvalidPeriod)
	}

	if t.Day() != 1 {
		return time.Time{}, fmt.Errorf("%w: %s is not the first day of a month", ErrInvalidPeriod, t.Format(time.DateOnly))
	}

	if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
		return time.Time{}, fmt.Errorf("%w: month_year must be a date without a time", ErrInvalidPeriod)
	}

	return timecalc.StartOfMonth(t), nil
}

// ParsePeriod parses a YYYY-MM-DD month start.
func ParsePeriod(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidPeriod, s)
	}

	return ValidatePeriod(t)
}

// DayOn returns the row for a calendar date.
func (t *Timesheet) DayOn(date time.Time) (*Day, error) {
	date = timecalc.DateOf(date)
	for _, d := range t.Days {
		if d.LogDate.Equal(date) {
			return d, nil
		}
	}

	return nil, fmt.Errorf("%w: no day %s in timesheet for %s",
		ErrNotFound, date.Format(time.DateOnly), t.MonthYear.Format("2006-01"))
}

// Day returns the row with the given id.
func (t *Timesheet) Day(id uuid.UUID) (*Day, error) {
	for _, d := range t.Days {
		if d.ID == id {
			return d, nil
		}
	}

	return nil, fmt.Errorf("%w: day %s", ErrNotFound, id)
}

// Approval returns the approval record once the timesheet is approved.
func (t *Timesheet) Approval() *Approval {
	for i := len(t.Approvals) - 1; i >= 0; i-- {
		if t.Approvals[i].Status == StatusApproved {
			return &t.Approvals[i]
		}
	}

	return nil
}

// Summary totals the valid days. A day counts only once both punches and its
// hours exist. Sums are rounded once after accumulation.
func (t *Timesheet) Summary() Summary {
	var s Summary

	for _, d := range t.Days {
		if !d.Valid() {
			continue
		}

		s.Days++
		s.Regular = s.Regular.Add(d.Hours.Regular)
		s.Overtime = s.Overtime.Add(d.Hours.Overtime)
		s.Total = s.Total.Add(d.Hours.Total)
	}

	s.Regular = timecalc.Round(s.Regular)
	s.Overtime = timecalc.Round(s.Overtime)
	s.Total = timecalc.Round(s.Total)

	return s
}

// Valid reports whether the day counts toward the month summary.
func (d *Day) Valid() bool {
	return d.TimeStart != nil && d.TimeEnd != nil && d.Hours != nil
}
