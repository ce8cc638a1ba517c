package view

import (
	"encoding/json"
	"io"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/timecard/internal/timesheet"
)

// SummaryRow is the machine-readable form of a timesheet used when output is
// not a terminal.
type SummaryRow struct {
	ID          string           `json:"id"`
	MonthYear   string           `json:"month_year"`
	EquipmentID string           `json:"equipment_id"`
	DriverID    string           `json:"driver_id"`
	Status      timesheet.Status `json:"status"`
	Days        int              `json:"days"`
	Regular     decimal.Decimal  `json:"regular_working_hrs"`
	Overtime    decimal.Decimal  `json:"overtime_hrs"`
	Total       decimal.Decimal  `json:"total_using_hrs"`
}

func NewSummaryRow(ts *timesheet.Timesheet) SummaryRow {
	s := ts.Summary()

	return SummaryRow{
		ID:          ts.ID.String(),
		MonthYear:   FormatDate(ts.MonthYear),
		EquipmentID: ts.EquipmentID,
		DriverID:    ts.DriverID,
		Status:      ts.Status,
		Days:        s.Days,
		Regular:     s.Regular,
		Overtime:    s.Overtime,
		Total:       s.Total,
	}
}

// WriteJSON writes one summary row per timesheet as a JSON array.
func WriteJSON(w io.Writer, sheets []*timesheet.Timesheet) error {
	rows := make([]SummaryRow, len(sheets))
	for i, ts := range sheets {
		rows[i] = NewSummaryRow(ts)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(rows)
}
