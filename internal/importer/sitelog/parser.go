package sitelog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	enc "github.com/MrJamesThe3rd/timecard/internal/encoding"
	"github.com/MrJamesThe3rd/timecard/internal/timecalc"
	"github.com/MrJamesThe3rd/timecard/internal/timesheet"
)

// Parser reads punch log CSV files into day patches. The column layout is
// detected from the header row and the delimiter from the first line.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]timesheet.DayImport, error) {
	utf8r, _, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: detect encoding: %w", timesheet.ErrInvalidInput, err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("%w: read input: %w", timesheet.ErrInvalidInput, err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := readRows(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: read csv: %w", timesheet.ErrInvalidInput, err)
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("%w: no punch log header found: expected date, time_start and time_end columns",
			timesheet.ErrInvalidInput)
	}

	return parseRows(profile, cols, rows[headerIdx+1:])
}

// row is one CSV record with the file line it starts on.
type row struct {
	line  int
	cells []string
}

// readRows reads every record. The csv reader drops blank lines, so line
// numbers come from FieldPos rather than the record index.
func readRows(reader *csv.Reader) ([]row, error) {
	var rows []row

	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}

		if err != nil {
			return nil, err
		}

		line, _ := reader.FieldPos(0)
		rows = append(rows, row{line: line, cells: cells})
	}
}

// sniffDelimiter picks the most frequent of ';', ',' and tab on the first non-empty line.
func sniffDelimiter(data []byte) rune {
	for line := range bytes.Lines(data) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		best, bestCount := ',', bytes.Count(line, []byte{','})

		for _, r := range []rune{';', '\t'} {
			if n := bytes.Count(line, []byte(string(r))); n > bestCount {
				best, bestCount = r, n
			}
		}

		return best
	}

	return ','
}

// colIndex maps lower-cased column names to their index in the row.
type colIndex map[string]int

// detectProfile scans rows for a header that matches a known profile.
// Returns the matched profile, column index map, and header row index.
func detectProfile(rows []row) (*Profile, colIndex, int) {
	for rowIdx, r := range rows {
		cols := make(colIndex)

		for i, cell := range r.cells {
			name := strings.ToLower(strings.TrimSpace(cell))
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows turns data rows into imports. Rows whose date cell does not start
// with a digit are taken as notes or totals and skipped.
func parseRows(p *Profile, cols colIndex, rows []row) ([]timesheet.DayImport, error) {
	breakIdx, hasBreak := cols[p.BreakCol]
	reasonIdx, hasReason := cols[p.ReasonCol]

	var imports []timesheet.DayImport

	for _, r := range rows {
		line, cells := r.line, r.cells

		dateStr := cellValue(cells, cols[p.DateCol])
		if dateStr == "" || !unicode.IsDigit(rune(dateStr[0])) {
			continue
		}

		date, err := parseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", timesheet.ErrInvalidInput, line, err)
		}

		var patch timesheet.DayPatch

		if patch.TimeStart, err = parsePunch(cellValue(cells, cols[p.StartCol])); err != nil {
			return nil, fmt.Errorf("%w: line %d: %s: %w", timesheet.ErrInvalidInput, line, p.StartCol, err)
		}

		if patch.TimeEnd, err = parsePunch(cellValue(cells, cols[p.EndCol])); err != nil {
			return nil, fmt.Errorf("%w: line %d: %s: %w", timesheet.ErrInvalidInput, line, p.EndCol, err)
		}

		if hasBreak {
			if patch.DutyBreakHrs, err = parseHours(cellValue(cells, breakIdx)); err != nil {
				return nil, fmt.Errorf("%w: line %d: %s: %w", timesheet.ErrInvalidInput, line, p.BreakCol, err)
			}
		}

		if hasReason {
			if reason := cellValue(cells, reasonIdx); reason != "" {
				patch.BreakdownReason = timesheet.Some(&reason)
			}
		}

		if patch.Empty() {
			continue
		}

		imports = append(imports, timesheet.DayImport{Line: line, Date: date, Patch: patch})
	}

	return imports, nil
}

var dateLayouts = []string{time.DateOnly, "02.01.2006", "02/01/2006", "02-01-2006"}

// parseDate accepts ISO and day-first dates. A trailing time, as spreadsheets
// append to date cells, is ignored.
func parseDate(s string) (time.Time, error) {
	s, _, _ = strings.Cut(s, " ")

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%q is not a date", s)
}

// parsePunch reads a clock cell. Empty leaves the punch alone; "-" or "nil" clears it.
func parsePunch(s string) (timesheet.Field[*timecalc.Clock], error) {
	switch strings.ToLower(s) {
	case "":
		return timesheet.Field[*timecalc.Clock]{}, nil
	case "-", "nil":
		return timesheet.Some[*timecalc.Clock](nil), nil
	}

	c, err := timecalc.ParseClock(s)
	if err != nil {
		return timesheet.Field[*timecalc.Clock]{}, err
	}

	return timesheet.Some(&c), nil
}

// parseHours reads a break cell, accepting a decimal comma.
func parseHours(s string) (timesheet.Field[decimal.Decimal], error) {
	if s == "" {
		return timesheet.Field[decimal.Decimal]{}, nil
	}

	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return timesheet.Field[decimal.Decimal]{}, fmt.Errorf("%q is not a number of hours", s)
	}

	if d.IsNegative() {
		return timesheet.Field[decimal.Decimal]{}, fmt.Errorf("%q must not be negative", s)
	}

	return timesheet.Some(d), nil
}

// cellValue safely gets a trimmed cell value from a record.
func cellValue(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}

	return strings.TrimSpace(cells[idx])
}
