package timesheet

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/timecard/internal/timecalc"
)

// Field is an optional patch value. Set distinguishes "leave unchanged" from
// an explicit value, including an explicit nil.
type Field[T any] struct {
	Set   bool
	Value T
}

func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// DayPatch updates any subset of a day's raw inputs.
type DayPatch struct {
	TimeStart       Field[*timecalc.Clock]
	TimeEnd         Field[*timecalc.Clock]
	DutyBreakHrs    Field[decimal.Decimal]
	BreakdownReason Field[*string]
}

func (p DayPatch) Empty() bool {
	return !p.TimeStart.Set && !p.TimeEnd.Set && !p.DutyBreakHrs.Set && !p.BreakdownReason.Set
}

func (p DayPatch) validate() error {
	if p.DutyBreakHrs.Set {
		return validateBreak(p.DutyBreakHrs.Value)
	}

	return nil
}

var (
	maxBreakHrs = decimal.NewFromInt(24)
	maxMeter    = decimal.RequireFromString("999999999.9")
	maxDiesel   = decimal.RequireFromString("99999999.99")
)

// checkDecimal keeps a value within [0, upper] and within the fractional digits
// its column stores.
func checkDecimal(name string, d decimal.Decimal, places int32, upper decimal.Decimal) error {
	if d.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, name)
	}

	if d.GreaterThan(upper) {
		return fmt.Errorf("%w: %s must not exceed %s", ErrInvalidInput, name, upper)
	}

	if !d.Equal(d.Round(places)) {
		return fmt.Errorf("%w: %s allows at most %d decimal places", ErrInvalidInput, name, places)
	}

	return nil
}

func validateBreak(d decimal.Decimal) error {
	return checkDecimal("duty break hours", d, 2, maxBreakHrs)
}

// apply merges the patch and recomputes the derived hours from the merged values.
func (d *Day) apply(patch DayPatch, policy timecalc.Policy) error {
	if err := patch.validate(); err != nil {
		return err
	}

	if patch.TimeStart.Set {
		d.TimeStart = patch.TimeStart.Value
	}

	if patch.TimeEnd.Set {
		d.TimeEnd = patch.TimeEnd.Value
	}

	if patch.DutyBreakHrs.Set {
		d.DutyBreakHrs = patch.DutyBreakHrs.Value
	}

	if patch.BreakdownReason.Set {
		d.BreakdownReason = patch.BreakdownReason.Value
	}

	d.recompute(policy)

	return nil
}

func (d *Day) recompute(policy timecalc.Policy) {
	d.Hours = policy.Compute(d.TimeStart, d.TimeEnd, d.DutyBreakHrs)
}
