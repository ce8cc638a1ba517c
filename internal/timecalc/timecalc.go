package timecalc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const minutesPerDay = 24 * 60

var (
	sixty = decimal.NewFromInt(60)

	// ErrInvalidClock is returned when a time-of-day string is not HH:MM or HH:MM:SS.
	ErrInvalidClock = errors.New("invalid time of day")
)

// Clock is a time of day at minute precision, counted from midnight.
type Clock int

// NewClock builds a Clock from an hour and minute.
func NewClock(hour, minute int) (Clock, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %02d:%02d", ErrInvalidClock, hour, minute)
	}

	return Clock(hour*60 + minute), nil
}

// ClockAt returns the time of day of t in its own location. Seconds are dropped.
func ClockAt(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

// ParseClock parses "HH:MM" or "HH:MM:SS". Seconds (and any fraction) are ignored.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}

	if len(parts) == 3 {
		sec, _, _ := strings.Cut(parts[2], ".")
		if n, err := strconv.Atoi(sec); err != nil || n < 0 || n > 59 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
		}
	}

	c, err := NewClock(hour, minute)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}

	return c, nil
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

// String formats the clock as zero-padded HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// SpanMinutes returns the minutes worked from start to end. An end at or before
// the start is read as the next day, so 20:00 to 04:00 is 480 minutes.
func SpanMinutes(start, end Clock) int {
	span := int(end) - int(start)
	if span <= 0 {
		span += minutesPerDay
	}

	return span
}

// Hours is the derived accounting for one day.
type Hours struct {
	Regular  decimal.Decimal
	Overtime decimal.Decimal
	Total    decimal.Decimal
}

// Policy holds the shift rules applied by Compute.
type Policy struct {
	StandardShiftHours decimal.Decimal
}

// DefaultPolicy is an 8 hour standard shift.
func DefaultPolicy() Policy {
	return Policy{StandardShiftHours: decimal.NewFromInt(8)}
}

// NewPolicy validates the standard shift length.
func NewPolicy(standardShiftHours decimal.Decimal) (Policy, error) {
	if !standardShiftHours.IsPositive() || standardShiftHours.GreaterThan(decimal.NewFromInt(24)) {
		return Policy{}, fmt.Errorf("standard shift must be within (0, 24] hours, got %s", standardShiftHours)
	}

	if !standardShiftHours.Equal(standardShiftHours.Round(2)) {
		return Policy{}, fmt.Errorf("standard shift must have at most two decimal places, got %s", standardShiftHours)
	}

	return Policy{StandardShiftHours: standardShiftHours}, nil
}

// Compute derives regular, overtime and total hours for a day. It returns nil
// when either punch is missing. Break time beyond the worked span clamps the
// result to zero. Values are rounded half-up to two places once, at the end.
func (p Policy) Compute(start, end *Clock, breakHrs decimal.Decimal) *Hours {
	if start == nil || end == nil {
		return nil
	}

	net := decimal.NewFromInt(int64(SpanMinutes(*start, *end))).Div(sixty).Sub(breakHrs)
	if net.IsNegative() {
		net = decimal.Zero
	}

	regular := decimal.Min(net, p.StandardShiftHours)

	overtime := net.Sub(p.StandardShiftHours)
	if overtime.IsNegative() {
		overtime = decimal.Zero
	}

	return &Hours{
		Regular:  Round(regular),
		Overtime: Round(overtime),
		Total:    Round(net),
	}
}

// Round rounds hours half-up to two decimal places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// StartOfMonth returns midnight UTC on the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns every calendar date of the month starting at monthStart, ascending.
func DaysInMonth(monthStart time.Time) []time.Time {
	first := StartOfMonth(monthStart)
	next := first.AddDate(0, 1, 0)

	days := make([]time.Time, 0, 31)
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}

	return days
}

// DateOf truncates t to its calendar date in t's location, expressed at midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
