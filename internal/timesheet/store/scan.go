package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/timecard/internal/database"
	"github.com/MrJamesThe3rd/timecard/internal/timecalc"
)

// sqliteTimeLayout is fixed width so stored timestamps sort as text.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// dateValue scans a DATE column. pgx yields time.Time, SQLite yields text.
type dateValue struct {
	dst *time.Time
}

func dateInto(dst *time.Time) *dateValue { return &dateValue{dst: dst} }

func (d *dateValue) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d.dst = timecalc.DateOf(v)
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	}

	return fmt.Errorf("unsupported date type %T", src)
}

func (d *dateValue) parse(s string) error {
	if len(s) > len(time.DateOnly) {
		s = s[:len(time.DateOnly)]
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return fmt.Errorf("parsing date %q: %w", s, err)
	}

	*d.dst = t

	return nil
}

// timestampValue scans a TIMESTAMPTZ column or its SQLite text form.
type timestampValue struct {
	dst *time.Time
}

func timestampInto(dst *time.Time) *timestampValue { return &timestampValue{dst: dst} }

func (ts *timestampValue) Scan(src any) error {
	var s string

	switch v := src.(type) {
	case time.Time:
		*ts.dst = v.UTC()
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parsing timestamp %q: %w", s, err)
	}

	*ts.dst = t.UTC()

	return nil
}

func parseClock(s sql.NullString) (*timecalc.Clock, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}

	c, err := timecalc.ParseClock(s.String)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}

	return &s.String
}

func nullableDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}

	return &d.Decimal
}

func clockArg(c *timecalc.Clock) any {
	if c == nil {
		return nil
	}

	return c.String()
}

func decimalArg(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}

	return d.String()
}

func stringArg(s *string) any {
	if s == nil {
		return nil
	}

	return *s
}

func dateArg(t time.Time) string {
	return t.Format(time.DateOnly)
}

// rebind rewrites ? placeholders to $n for Postgres.
func rebind(driver database.Driver, query string) string {
	if driver != database.DriverPostgres {
		return query
	}

	var (
		sb strings.Builder
		n  int
	)

	sb.Grow(len(query) + 16)

	for _, r := range query {
		if r != '?' {
			sb.WriteRune(r)
			continue
		}

		n++
		fmt.Fprintf(&sb, "$%d", n)
	}

	return sb.String()
}
