package timesheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/timecard/internal/timecalc"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=timesheet
type Repository interface {
	Create(ctx context.Context, ts *Timesheet) error
	Get(ctx context.Context, id uuid.UUID) (*Timesheet, error)
	FindByPeriod(ctx context.Context, equipmentID, driverID string, monthYear time.Time) (*Timesheet, error)
	List(ctx context.Context, filter ListFilter) ([]*Timesheet, error)
	TimesheetIDByDay(ctx context.Context, dayID uuid.UUID) (uuid.UUID, error)

	// BeginUpdate opens an exclusive read-modify-write unit on one timesheet.
	BeginUpdate(ctx context.Context, id uuid.UUID) (UpdateTx, error)
}

type UpdateTx interface {
	Load(ctx context.Context) (*Timesheet, error)
	Save(ctx context.Context, ts *Timesheet) error
	Commit() error
	Rollback() error
}

// Directory resolves equipment and drivers owned by the equipment directory.
type Directory interface {
	Equipment(ctx context.Context, id string) (*Equipment, error)
	Driver(ctx context.Context, id string) (*Driver, error)
}

type Equipment struct {
	ID              string
	Name            string
	PlateSerialNo   string
	CompanySupplier *string
	ChassisNo       *string
}

type Driver struct {
	ID          string
	Name        string
	EqamaNumber string
	PhoneNumber string
}

type ListFilter struct {
	Status      *Status
	EquipmentID *string
	DriverID    *string
	MonthYear   *time.Time
}

type Options struct {
	Policy                 timecalc.Policy
	DefaultBreakHours      decimal.Decimal
	DefaultProjectLocation string
	Location               *time.Location // site timezone for clock stamps
	Now                    func() time.Time
}

type Service struct {
	repo      Repository
	directory Directory
	opts      Options
	locks     *keyedMutex
}

func NewService(repo Repository, directory Directory, opts Options) *Service {
	if opts.Policy.StandardShiftHours.IsZero() {
		opts.Policy = timecalc.DefaultPolicy()
	}

	if opts.Location == nil {
		opts.Location = time.UTC
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		repo:      repo,
		directory: directory,
		opts:      opts,
		locks:     newKeyedMutex(),
	}
}

type CreateParams struct {
	EquipmentID     string
	DriverID        string
	MonthYear       time.Time
	ProjectLocation string
}

// Create returns the timesheet for the equipment, driver and month, creating
// it when none exists. The bool reports whether a new timesheet was made.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Timesheet, bool, error) {
	monthYear, err := ValidatePeriod(params.MonthYear)
	if err != nil {
		return nil, false, err
	}

	if params.EquipmentID == "" || params.DriverID == "" {
		return nil, false, fmt.Errorf("%w: equipment_id and driver_id are required", ErrInvalidInput)
	}

	if strings.ContainsRune(params.EquipmentID, 0) || strings.ContainsRune(params.DriverID, 0) {
		return nil, false, fmt.Errorf("%w: equipment_id and driver_id must not contain NUL", ErrInvalidInput)
	}

	equipment, err := s.directory.Equipment(ctx, params.EquipmentID)
	if err != nil {
		return nil, false, fmt.Errorf("resolving equipment %s: %w", params.EquipmentID, err)
	}

	if _, err := s.directory.Driver(ctx, params.DriverID); err != nil {
		return nil, false, fmt.Errorf("resolving driver %s: %w", params.DriverID, err)
	}

	unlock := s.locks.lock(periodKey(params.EquipmentID, params.DriverID, monthYear))
	defer unlock()

	existing, err := s.repo.FindByPeriod(ctx, params.EquipmentID, params.DriverID, monthYear)
	if err == nil {
		return existing, false, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("finding timesheet: %w", err)
	}

	location := params.ProjectLocation
	if location == "" {
		location = s.opts.DefaultProjectLocation
	}

	ts, err := New(NewParams{
		EquipmentID:     params.EquipmentID,
		DriverID:        params.DriverID,
		MonthYear:       monthYear,
		ProjectLocation: location,
		SupplierName:    equipment.CompanySupplier,
		ChassisNo:       equipment.ChassisNo,
		DutyBreakHrs:    s.opts.DefaultBreakHours,
		CreatedAt:       s.opts.Now().UTC(),
	})
	if err != nil {
		return nil, false, err
	}

	if err := s.repo.Create(ctx, ts); err != nil {
		if errors.Is(err, ErrExists) {
			// Another writer created it first.
			existing, getErr := s.repo.FindByPeriod(ctx, params.EquipmentID, params.DriverID, monthYear)
			if getErr != nil {
				return nil, false, fmt.Errorf("finding timesheet: %w", getErr)
			}

			return existing, false, nil
		}

		return nil, false, fmt.Errorf("creating timesheet: %w", err)
	}

	slog.Info("timesheet created", "timesheet_id", ts.ID, "equipment_id", ts.EquipmentID,
		"driver_id", ts.DriverID, "month_year", ts.MonthYear.Format(time.DateOnly))

	return ts, true, nil
}

// periodKey names the create lock for one period. NUL cannot appear in the ids.
func periodKey(equipmentID, driverID string, monthYear time.Time) string {
	return strings.Join([]string{"period", equipmentID, driverID, monthYear.Format(time.DateOnly)}, "\x00")
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Timesheet, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Timesheet, error) {
	return s.repo.List(ctx, filter)
}

// Pending lists timesheets waiting for approval.
func (s *Service) Pending(ctx context.Context) ([]*Timesheet, error) {
	status := StatusSubmitted
	return s.repo.List(ctx, ListFilter{Status: &status})
}

// Today returns the current calendar date at the site.
func (s *Service) Today() time.Time {
	return timecalc.DateOf(s.opts.Now().In(s.opts.Location))
}

// ClockIn stamps the current site time as time_start on logDate. A nil logDate means today.
func (s *Service) ClockIn(ctx context.Context, id uuid.UUID, logDate *time.Time) (*Timesheet, error) {
	date, at := s.punch(logDate)

	return s.mutate(ctx, id, func(ts *Timesheet) error {
		return ts.ClockIn(date, at, s.opts.Policy)
	})
}

// ClockOut stamps the current site time as time_end on logDate. A nil logDate means today.
func (s *Service) ClockOut(ctx context.Context, id uuid.UUID, logDate *time.Time) (*Timesheet, error) {
	date, at := s.punch(logDate)

	return s.mutate(ctx, id, func(ts *Timesheet) error {
		return ts.ClockOut(date, at, s.opts.Policy)
	})
}

func (s *Service) punch(logDate *time.Time) (time.Time, timecalc.Clock) {
	now := s.opts.Now().In(s.opts.Location)

	date := timecalc.DateOf(now)
	if logDate != nil {
		date = timecalc.DateOf(*logDate)
	}

	return date, timecalc.ClockAt(now)
}

// UpdateDay patches a day row and returns its whole timesheet.
func (s *Service) UpdateDay(ctx context.Context, dayID uuid.UUID, patch DayPatch) (*Timesheet, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}

	id, err := s.repo.TimesheetIDByDay(ctx, dayID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, func(ts *Timesheet) error {
		return ts.UpdateDay(dayID, patch, s.opts.Policy)
	})
}

func (s *Service) UpdateHeader(ctx context.Context, id uuid.UUID, patch HeaderPatch) (*Timesheet, error) {
	return s.mutate(ctx, id, func(ts *Timesheet) error {
		return ts.UpdateHeader(patch)
	})
}

// ImportDays applies a batch of day patches as a single unit.
func (s *Service) ImportDays(ctx context.Context, id uuid.UUID, rows []DayImport) (*Timesheet, error) {
	ts, err := s.mutate(ctx, id, func(ts *Timesheet) error {
		return ts.ImportDays(rows, s.opts.Policy)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("timesheet days imported", "timesheet_id", id, "rows", len(rows))

	return ts, nil
}

func (s *Service) Submit(ctx context.Context, id uuid.UUID, actor string) (*Timesheet, error) {
	ts, err := s.mutate(ctx, id, func(ts *Timesheet) error {
		return ts.Submit(actor, s.opts.Now().UTC())
	})
	if err != nil {
		return nil, err
	}

	slog.Info("timesheet submitted", "timesheet_id", id, "actor", actor)

	return ts, nil
}

func (s *Service) Approve(ctx context.Context, id uuid.UUID, comment, actor string) (*Timesheet, error) {
	ts, err := s.mutate(ctx, id, func(ts *Timesheet) error {
		return ts.Approve(comment, actor, s.opts.Now().UTC())
	})
	if err != nil {
		return nil, err
	}

	slog.Info("timesheet approved", "timesheet_id", id, "actor", actor)

	return ts, nil
}

// mutate runs fn as one locked read-modify-write cycle. Nothing is persisted
// unless fn succeeds.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(ts *Timesheet) error) (*Timesheet, error) {
	unlock := s.locks.lock(id.String())
	defer unlock()

	utx, err := s.repo.BeginUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer utx.Rollback()

	ts, err := utx.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load timesheet: %w", err)
	}

	if err := fn(ts); err != nil {
		return nil, err
	}

	ts.UpdatedAt = s.opts.Now().UTC()

	if err := utx.Save(ctx, ts); err != nil {
		return nil, fmt.Errorf("save timesheet: %w", err)
	}

	if err := utx.Commit(); err != nil {
		return nil, fmt.Errorf("commit timesheet: %w", err)
	}

	return ts, nil
}
