package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/timecard/internal/timecalc"
	"github.com/MrJamesThe3rd/timecard/internal/timesheet"
)

// ResolveMonth turns a --month value into a month start. Besides YYYY-MM and
// YYYY-MM-01 it accepts "this" and "last" relative to today.
func ResolveMonth(s string, today time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "this":
		return timecalc.StartOfMonth(today), nil
	case "last":
		return timecalc.StartOfMonth(today).AddDate(0, -1, 0), nil
	}

	if len(s) == len("2006-01") {
		s += "-01"
	}

	t, err := timesheet.ParsePeriod(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("month %q: %w", s, err)
	}

	return t, nil
}
