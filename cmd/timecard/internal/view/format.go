package view

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/timecard/internal/timecalc"
)

const dbTimeout = 10 * time.Second

// FormatHours renders hours with two decimals.
func FormatHours(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// FormatMonth formats a month start as YYYY-MM.
func FormatMonth(t time.Time) string {
	return t.Format("2006-01")
}

// FormatClock renders a punch, or a placeholder when it is missing.
func FormatClock(c *timecalc.Clock) string {
	if c == nil {
		return "--:--"
	}

	return c.String()
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}

	return *s
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}
