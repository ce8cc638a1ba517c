package timesheet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/timecard/internal/timecalc"
	"github.com/MrJamesThe3rd/timecard/internal/timesheet"
)

type timesheetResponse struct {
	ID                uuid.UUID         `json:"id"`
	EquipmentID       string            `json:"equipment_id"`
	DriverID          string            `json:"driver_id"`
	MonthYear         string            `json:"month_year"`
	ProjectLocation   string            `json:"project_location"`
	SupplierName      *string           `json:"supplier_name"`
	ChassisNo         *string           `json:"chassis_no"`
	StartMeter        *float64          `json:"start_meter"`
	EndMeter          *float64          `json:"end_meter"`
	DieselConsumption *float64          `json:"diesel_consumption"`
	Status            timesheet.Status  `json:"status"`
	Days              []dayResponse     `json:"days"`
	Summary           summaryResponse   `json:"summary"`
	Approval          *approvalResponse `json:"approval"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

type dayResponse struct {
	ID                uuid.UUID `json:"id"`
	LogDate           string    `json:"log_date"`
	TimeStart         *string   `json:"time_start"`
	TimeEnd           *string   `json:"time_end"`
	DutyBreakHrs      float64   `json:"duty_break_hrs"`
	RegularWorkingHrs *float64  `json:"regular_working_hrs"`
	OvertimeHrs       *float64  `json:"overtime_hrs"`
	TotalUsingHrs     *float64  `json:"total_using_hrs"`
	BreakdownReason   *string   `json:"breakdown_reason"`
}

type summaryResponse struct {
	Days              int     `json:"days"`
	RegularWorkingHrs float64 `json:"regular_working_hrs"`
	OvertimeHrs       float64 `json:"overtime_hrs"`
	TotalUsingHrs     float64 `json:"total_using_hrs"`
}

type approvalResponse struct {
	Status  timesheet.Status `json:"status"`
	Role    string           `json:"role"`
	Comment string           `json:"comment"`
	Actor   string           `json:"actor"`
	ActedAt time.Time        `json:"acted_at"`
}

func toResponse(ts *timesheet.Timesheet) timesheetResponse {
	summary := ts.Summary()

	resp := timesheetResponse{
		ID:                ts.ID,
		EquipmentID:       ts.EquipmentID,
		DriverID:          ts.DriverID,
		MonthYear:         ts.MonthYear.Format(time.DateOnly),
		ProjectLocation:   ts.ProjectLocation,
		SupplierName:      ts.SupplierName,
		ChassisNo:         ts.ChassisNo,
		StartMeter:        toFloat(ts.StartMeter),
		EndMeter:          toFloat(ts.EndMeter),
		DieselConsumption: toFloat(ts.DieselConsumption),
		Status:            ts.Status,
		Days:              make([]dayResponse, len(ts.Days)),
		Summary: summaryResponse{
			Days:              summary.Days,
			RegularWorkingHrs: summary.Regular.InexactFloat64(),
			OvertimeHrs:       summary.Overtime.InexactFloat64(),
			TotalUsingHrs:     summary.Total.InexactFloat64(),
		},
		CreatedAt: ts.CreatedAt,
		UpdatedAt: ts.UpdatedAt,
	}

	for i, d := range ts.Days {
		resp.Days[i] = toDayResponse(d)
	}

	if a := ts.Approval(); a != nil {
		resp.Approval = &approvalResponse{
			Status:  a.Status,
			Role:    a.Role,
			Comment: a.Comment,
			Actor:   a.Actor,
			ActedAt: a.ActedAt,
		}
	}

	return resp
}

func toDayResponse(d *timesheet.Day) dayResponse {
	resp := dayResponse{
		ID:              d.ID,
		LogDate:         d.LogDate.Format(time.DateOnly),
		TimeStart:       clockString(d.TimeStart),
		TimeEnd:         clockString(d.TimeEnd),
		DutyBreakHrs:    d.DutyBreakHrs.InexactFloat64(),
		BreakdownReason: d.BreakdownReason,
	}

	if d.Hours != nil {
		resp.RegularWorkingHrs = new(d.Hours.Regular.InexactFloat64())
		resp.OvertimeHrs = new(d.Hours.Overtime.InexactFloat64())
		resp.TotalUsingHrs = new(d.Hours.Total.InexactFloat64())
	}

	return resp
}

func toResponseList(sheets []*timesheet.Timesheet) []timesheetResponse {
	resp := make([]timesheetResponse, len(sheets))
	for i, ts := range sheets {
		resp[i] = toResponse(ts)
	}

	return resp
}

func toFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}

	return new(d.InexactFloat64())
}

func clockString(c *timecalc.Clock) *string {
	if c == nil {
		return nil
	}

	return new(c.String())
}
