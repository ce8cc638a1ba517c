package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/timecard/internal/timesheet"
)

var (
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	faintStyle  = cellStyle.Faint(true)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))

	statusColors = map[timesheet.Status]lipgloss.Color{
		timesheet.StatusDraft:     lipgloss.Color("244"),
		timesheet.StatusSubmitted: lipgloss.Color("214"),
		timesheet.StatusApproved:  lipgloss.Color("42"),
	}
)

func statusBadge(s timesheet.Status) string {
	return lipgloss.NewStyle().Foreground(statusColors[s]).Render(string(s))
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		})
}

// RenderList draws one line per timesheet with its month totals.
func RenderList(sheets []*timesheet.Timesheet) string {
	if len(sheets) == 0 {
		return faintStyle.Render("No timesheets found.") + "\n"
	}

	t := newTable("ID", "Month", "Equipment", "Driver", "Status", "Days", "Regular", "Overtime", "Total")

	for _, ts := range sheets {
		s := ts.Summary()
		t.Row(
			ts.ID.String(),
			FormatMonth(ts.MonthYear),
			ts.EquipmentID,
			ts.DriverID,
			statusBadge(ts.Status),
			fmt.Sprint(s.Days),
			FormatHours(s.Regular),
			FormatHours(s.Overtime),
			FormatHours(s.Total),
		)
	}

	return t.String() + "\n"
}

// RenderCard draws the full monthly card: header, every day and the totals.
func RenderCard(ts *timesheet.Timesheet) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("%s / %s  %s", ts.EquipmentID, ts.DriverID, FormatMonth(ts.MonthYear))))
	b.WriteString("  " + statusBadge(ts.Status) + "\n")
	fmt.Fprintf(&b, "Location: %s   Supplier: %s   Chassis: %s\n",
		ts.ProjectLocation, orDash(ts.SupplierName), orDash(ts.ChassisNo))

	if ts.StartMeter != nil || ts.EndMeter != nil || ts.DieselConsumption != nil {
		fmt.Fprintf(&b, "Meter: %s -> %s   Diesel: %s\n",
			decimalOrDash(ts.StartMeter), decimalOrDash(ts.EndMeter), decimalOrDash(ts.DieselConsumption))
	}

	t := newTable("Date", "Start", "End", "Break", "Regular", "Overtime", "Total", "Breakdown")

	for _, d := range ts.Days {
		regular, overtime, total := "", "", ""
		if d.Hours != nil {
			regular = FormatHours(d.Hours.Regular)
			overtime = FormatHours(d.Hours.Overtime)
			total = FormatHours(d.Hours.Total)
		}

		t.Row(
			FormatDate(d.LogDate),
			FormatClock(d.TimeStart),
			FormatClock(d.TimeEnd),
			FormatHours(d.DutyBreakHrs),
			regular,
			overtime,
			total,
			orDash(d.BreakdownReason),
		)
	}

	b.WriteString(t.String() + "\n")

	s := ts.Summary()
	fmt.Fprintf(&b, "%d days   regular %s   overtime %s   total %s\n",
		s.Days, FormatHours(s.Regular), FormatHours(s.Overtime), FormatHours(s.Total))

	if a := ts.Approval(); a != nil {
		fmt.Fprintf(&b, "Approved by %s (%s) on %s", a.Actor, a.Role, FormatDate(a.ActedAt))
		if a.Comment != "" {
			fmt.Fprintf(&b, ": %s", a.Comment)
		}

		b.WriteString("\n")
	}

	return b.String()
}

func decimalOrDash(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}

	return d.String()
}
