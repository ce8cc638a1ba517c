package sitelog_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/timecard/internal/importer/sitelog"
	"github.com/MrJamesThe3rd/timecard/internal/timesheet"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestParser_SiteLog(t *testing.T) {
	csv := `Equipment;EQ-1042
Driver;Imran Khan

date;time_start;time_end;duty_break_hrs;breakdown_reason
2025-02-03;07:00;19:00;1;
2025-02-04;20:00;04:30;0,5;
2025-02-05;;;;hydraulic leak
Total;;;;
`

	p := sitelog.NewParser()
	rows, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, 5, rows[0].Line)
	assert.Equal(t, date(2025, 2, 3), rows[0].Date)
	require.True(t, rows[0].Patch.TimeStart.Set)
	assert.Equal(t, "07:00", rows[0].Patch.TimeStart.Value.String())
	assert.Equal(t, "19:00", rows[0].Patch.TimeEnd.Value.String())
	assert.Equal(t, "1", rows[0].Patch.DutyBreakHrs.Value.String())
	assert.False(t, rows[0].Patch.BreakdownReason.Set)

	assert.Equal(t, "0.5", rows[1].Patch.DutyBreakHrs.Value.String())

	assert.Equal(t, date(2025, 2, 5), rows[2].Date)
	assert.False(t, rows[2].Patch.TimeStart.Set)
	assert.False(t, rows[2].Patch.TimeEnd.Set)
	require.True(t, rows[2].Patch.BreakdownReason.Set)
	assert.Equal(t, "hydraulic leak", *rows[2].Patch.BreakdownReason.Value)
}

func TestParser_CommaDelimited(t *testing.T) {
	csv := "date,time_start,time_end\n2025-02-03,08:00,16:00\n"

	rows, err := sitelog.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "16:00", rows[0].Patch.TimeEnd.Value.String())
	assert.False(t, rows[0].Patch.DutyBreakHrs.Set)
}

func TestParser_Register(t *testing.T) {
	csv := `Date;Time In;Time Out;Break (Hrs);Remarks
03.02.2025;06:30;18:00;1;
04/02/2025 00:00:00;06:30;-;;engine overheating
`

	rows, err := sitelog.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, date(2025, 2, 3), rows[0].Date)
	assert.Equal(t, date(2025, 2, 4), rows[1].Date)

	// "-" clears the punch.
	require.True(t, rows[1].Patch.TimeEnd.Set)
	assert.Nil(t, rows[1].Patch.TimeEnd.Value)
	assert.Equal(t, "engine overheating", *rows[1].Patch.BreakdownReason.Value)
}

func TestParser_Latin1Encoding(t *testing.T) {
	utf8CSV := "date;time_start;time_end;breakdown_reason\n2025-02-03;07:00;15:00;Reparação do motor\n"

	latin1Bytes, err := charmap.Windows1252.NewEncoder().Bytes([]byte(utf8CSV))
	require.NoError(t, err)

	rows, err := sitelog.NewParser().Parse(bytes.NewReader(latin1Bytes))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Reparação do motor", *rows[0].Patch.BreakdownReason.Value)
}

func TestParser_DifferentColumnOrder(t *testing.T) {
	csv := `time_end;date;time_start
16:00;2025-02-03;08:00
`

	rows, err := sitelog.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "08:00", rows[0].Patch.TimeStart.Value.String())
	assert.Equal(t, "16:00", rows[0].Patch.TimeEnd.Value.String())
}

func TestParser_SkipsDateOnlyRows(t *testing.T) {
	csv := `date;time_start;time_end
2025-02-03;;
2025-02-04;08:00;
`

	rows, err := sitelog.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, date(2025, 2, 4), rows[0].Date)
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		wantMsg string
	}{
		{
			name:    "Empty file",
			csv:     "",
			wantMsg: "no punch log header",
		},
		{
			name:    "Missing time columns",
			csv:     "date;duty_break_hrs\n2025-02-03;1\n",
			wantMsg: "no punch log header",
		},
		{
			name:    "Bad date",
			csv:     "date;time_start;time_end\n2025-02-31;08:00;16:00\n",
			wantMsg: "line 2",
		},
		{
			name:    "Bad clock",
			csv:     "date;time_start;time_end\n2025-02-03;8h;16:00\n",
			wantMsg: "line 2: time_start",
		},
		{
			name:    "Out of range clock",
			csv:     "date;time_start;time_end\n2025-02-03;08:00;24:00\n",
			wantMsg: "line 2: time_end",
		},
		{
			name:    "Negative break",
			csv:     "date;time_start;time_end;duty_break_hrs\n2025-02-03;08:00;16:00;-1\n",
			wantMsg: "line 2: duty_break_hrs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sitelog.NewParser().Parse(strings.NewReader(tt.csv))
			require.Error(t, err)
			assert.ErrorIs(t, err, timesheet.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParser_ReaderFailure(t *testing.T) {
	connReset := errors.New("connection reset")

	tests := []struct {
		name string
		r    io.Reader
	}{
		{name: "Fails immediately", r: iotest.ErrReader(connReset)},
		{
			name: "Fails after header",
			r:    io.MultiReader(strings.NewReader("date;time_start;time_end\n"), iotest.ErrReader(connReset)),
		},
		{
			name: "Fails mid body",
			r: io.MultiReader(
				strings.NewReader("date;time_start;time_end\n"+strings.Repeat("2025-02-03;08:00;16:00\n", 400)),
				iotest.ErrReader(connReset),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sitelog.NewParser().Parse(tt.r)
			require.Error(t, err)
			assert.ErrorIs(t, err, timesheet.ErrInvalidInput)
			assert.ErrorIs(t, err, connReset)
		})
	}
}

func TestParser_HeaderOnly(t *testing.T) {
	rows, err := sitelog.NewParser().Parse(strings.NewReader("date;time_start;time_end"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}
