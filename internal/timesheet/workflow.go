package timesheet

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/timecard/internal/timecalc"
)

// Action is a workflow transition request.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
)

type transition struct {
	from Status
	to   Status
}

// transitions is the complete state table. Approved is terminal. A way back
// from submitted to draft would be one more entry here; none is defined yet.
var transitions = map[Action]transition{
	ActionSubmit:  {from: StatusDraft, to: StatusSubmitted},
	ActionApprove: {from: StatusSubmitted, to: StatusApproved},
}

func (t *Timesheet) transition(action Action, comment, actor string, at time.Time) error {
	tr, ok := transitions[action]
	if !ok {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
	}

	if t.Status != tr.from {
		return fmt.Errorf("%w: cannot %s a %s timesheet (requires %s)", ErrInvalidTransition, action, t.Status, tr.from)
	}

	t.Status = tr.to
	t.Approvals = append(t.Approvals, Approval{
		ID:      uuid.New(),
		Status:  tr.to,
		Role:    RoleSiteEngineer,
		Comment: comment,
		Actor:   actor,
		ActedAt: at,
	})

	return nil
}

// Submit moves a draft to submitted.
func (t *Timesheet) Submit(actor string, at time.Time) error {
	return t.transition(ActionSubmit, "", actor, at)
}

// Approve moves a submitted timesheet to approved and records the comment.
func (t *Timesheet) Approve(comment, actor string, at time.Time) error {
	return t.transition(ActionApprove, comment, actor, at)
}

// editable enforces that punches, day rows and header fields only change while
// the timesheet is a draft.
func (t *Timesheet) editable() error {
	if t.Status == StatusDraft {
		return nil
	}

	if t.Status == StatusApproved {
		return fmt.Errorf("%w: timesheet is approved and can no longer be edited", ErrLocked)
	}

	return fmt.Errorf("%w: timesheet is %s; edits are only allowed while draft", ErrLocked, t.Status)
}

// ClockIn stamps time_start on the day for date. A day already clocked in is left as is.
func (t *Timesheet) ClockIn(date time.Time, at timecalc.Clock, policy timecalc.Policy) error {
	if err := t.editable(); err != nil {
		return err
	}

	day, err := t.DayOn(date)
	if err != nil {
		return err
	}

	if day.TimeStart != nil {
		return nil
	}

	return day.apply(DayPatch{TimeStart: Some(&at)}, policy)
}

// ClockOut stamps time_end on the day for date. A day already clocked out is left as is.
// A stamp in the same minute as time_start is rejected rather than read as a 24 hour shift.
func (t *Timesheet) ClockOut(date time.Time, at timecalc.Clock, policy timecalc.Policy) error {
	if err := t.editable(); err != nil {
		return err
	}

	day, err := t.DayOn(date)
	if err != nil {
		return err
	}

	if day.TimeEnd != nil {
		return nil
	}

	if day.TimeStart == nil {
		return fmt.Errorf("%w: clock-out before clock-in on %s", ErrInvalidTransition, day.LogDate.Format(time.DateOnly))
	}

	if *day.TimeStart == at {
		return fmt.Errorf("%w: clock-out at %s is the same minute as clock-in on %s",
			ErrInvalidTransition, at, day.LogDate.Format(time.DateOnly))
	}

	return day.apply(DayPatch{TimeEnd: Some(&at)}, policy)
}

// UpdateDay applies a patch to the day with the given id.
func (t *Timesheet) UpdateDay(dayID uuid.UUID, patch DayPatch, policy timecalc.Policy) error {
	if err := t.editable(); err != nil {
		return err
	}

	day, err := t.Day(dayID)
	if err != nil {
		return err
	}

	return day.apply(patch, policy)
}

// DayImport is one row of a bulk punch import, addressed by date.
type DayImport struct {
	Line  int
	Date  time.Time
	Patch DayPatch
}

// ImportDays applies every row or none of them.
func (t *Timesheet) ImportDays(rows []DayImport, policy timecalc.Policy) error {
	if err := t.editable(); err != nil {
		return err
	}

	targets := make([]*Day, len(rows))

	for i, row := range rows {
		day, err := t.DayOn(row.Date)
		if err != nil {
			return fmt.Errorf("line %d: %w", row.Line, err)
		}

		if err := row.Patch.validate(); err != nil {
			return fmt.Errorf("line %d: %w", row.Line, err)
		}

		targets[i] = day
	}

	for i, row := range rows {
		if err := targets[i].apply(row.Patch, policy); err != nil {
			return fmt.Errorf("line %d: %w", row.Line, err)
		}
	}

	return nil
}

// HeaderPatch updates the descriptive card fields.
type HeaderPatch struct {
	ProjectLocation   Field[string]
	SupplierName      Field[*string]
	ChassisNo         Field[*string]
	StartMeter        Field[*decimal.Decimal]
	EndMeter          Field[*decimal.Decimal]
	DieselConsumption Field[*decimal.Decimal]
}

// UpdateHeader applies a header patch under the same lock as day edits.
func (t *Timesheet) UpdateHeader(patch HeaderPatch) error {
	if err := t.editable(); err != nil {
		return err
	}

	for _, c := range []struct {
		name   string
		field  Field[*decimal.Decimal]
		places int32
		upper  decimal.Decimal
	}{
		{"start_meter", patch.StartMeter, 1, maxMeter},
		{"end_meter", patch.EndMeter, 1, maxMeter},
		{"diesel_consumption", patch.DieselConsumption, 2, maxDiesel},
	} {
		if c.field.Set && c.field.Value != nil {
			if err := checkDecimal(c.name, *c.field.Value, c.places, c.upper); err != nil {
				return err
			}
		}
	}

	if patch.ProjectLocation.Set {
		if patch.ProjectLocation.Value == "" {
			return fmt.Errorf("%w: project_location must not be empty", ErrInvalidInput)
		}

		t.ProjectLocation = patch.ProjectLocation.Value
	}

	if patch.SupplierName.Set {
		t.SupplierName = patch.SupplierName.Value
	}

	if patch.ChassisNo.Set {
		t.ChassisNo = patch.ChassisNo.Value
	}

	if patch.StartMeter.Set {
		t.StartMeter = patch.StartMeter.Value
	}

	if patch.EndMeter.Set {
		t.EndMeter = patch.EndMeter.Value
	}

	if patch.DieselConsumption.Set {
		t.DieselConsumption = patch.DieselConsumption.Value
	}

	return nil
}
