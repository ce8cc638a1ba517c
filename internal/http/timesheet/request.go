package timesheet

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/timecard/internal/timecalc"
	"github.com/MrJamesThe3rd/timecard/internal/timesheet"
)

type createTimesheetRequest struct {
	EquipmentID     string `json:"equipment_id"`
	DriverID        string `json:"driver_id"`
	MonthYear       string `json:"month_year"`
	ProjectLocation string `json:"project_location"`
}

type punchRequest struct {
	LogDate *string `json:"log_date"`
}

type approveRequest struct {
	Comment string `json:"comment"`
}

// decodeOptional decodes a JSON body into v. An empty body leaves v untouched.
func decodeOptional(body io.Reader, v any) error {
	err := json.NewDecoder(body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	return fmt.Errorf("%w: invalid request body: %w", timesheet.ErrInvalidInput, err)
}

// parseMonth accepts YYYY-MM-DD on the first of a month, or YYYY-MM.
func parseMonth(s string) (time.Time, error) {
	if len(s) == len("2006-01") {
		s += "-01"
	}

	return timesheet.ParsePeriod(s)
}

func parseLogDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}

	t, err := time.Parse(time.DateOnly, *s)
	if err != nil {
		return nil, fmt.Errorf("%w: log_date %q is not a YYYY-MM-DD date", timesheet.ErrInvalidInput, *s)
	}

	return &t, nil
}

// patchFields decodes a JSON object keeping each member raw, so an absent key
// and an explicit null can be told apart.
func patchFields(body io.Reader, allowed ...string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: invalid request body: %w", timesheet.ErrInvalidInput, err)
	}

	for name := range fields {
		if !slices.Contains(allowed, name) {
			return nil, fmt.Errorf("%w: unknown field %q", timesheet.ErrInvalidInput, name)
		}
	}

	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeDayPatch(body io.Reader) (timesheet.DayPatch, error) {
	var patch timesheet.DayPatch

	fields, err := patchFields(body, "time_start", "time_end", "duty_break_hrs", "breakdown_reason")
	if err != nil {
		return patch, err
	}

	if raw, ok := fields["time_start"]; ok {
		if patch.TimeStart, err = clockField("time_start", raw); err != nil {
			return patch, err
		}
	}

	if raw, ok := fields["time_end"]; ok {
		if patch.TimeEnd, err = clockField("time_end", raw); err != nil {
			return patch, err
		}
	}

	if raw, ok := fields["duty_break_hrs"]; ok {
		d, err := decimalField("duty_break_hrs", raw)
		if err != nil {
			return patch, err
		}

		if d == nil {
			return patch, fmt.Errorf("%w: duty_break_hrs must be a number", timesheet.ErrInvalidInput)
		}

		patch.DutyBreakHrs = timesheet.Some(*d)
	}

	if raw, ok := fields["breakdown_reason"]; ok {
		if patch.BreakdownReason, err = optionalStringField("breakdown_reason", raw); err != nil {
			return patch, err
		}
	}

	return patch, nil
}

func decodeHeaderPatch(body io.Reader) (timesheet.HeaderPatch, error) {
	var patch timesheet.HeaderPatch

	fields, err := patchFields(body, "project_location", "supplier_name", "chassis_no",
		"start_meter", "end_meter", "diesel_consumption")
	if err != nil {
		return patch, err
	}

	if raw, ok := fields["project_location"]; ok {
		var s string
		if isNull(raw) || json.Unmarshal(raw, &s) != nil {
			return patch, fmt.Errorf("%w: project_location must be a string", timesheet.ErrInvalidInput)
		}

		patch.ProjectLocation = timesheet.Some(strings.TrimSpace(s))
	}

	for name, dst := range map[string]*timesheet.Field[*string]{
		"supplier_name": &patch.SupplierName,
		"chassis_no":    &patch.ChassisNo,
	} {
		if raw, ok := fields[name]; ok {
			if *dst, err = optionalStringField(name, raw); err != nil {
				return patch, err
			}
		}
	}

	for name, dst := range map[string]*timesheet.Field[*decimal.Decimal]{
		"start_meter":        &patch.StartMeter,
		"end_meter":          &patch.EndMeter,
		"diesel_consumption": &patch.DieselConsumption,
	} {
		if raw, ok := fields[name]; ok {
			d, err := decimalField(name, raw)
			if err != nil {
				return patch, err
			}

			*dst = timesheet.Some(d)
		}
	}

	return patch, nil
}

// clockField reads "HH:MM" or null.
func clockField(name string, raw json.RawMessage) (timesheet.Field[*timecalc.Clock], error) {
	if isNull(raw) {
		return timesheet.Some[*timecalc.Clock](nil), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return timesheet.Field[*timecalc.Clock]{}, fmt.Errorf("%w: %s must be an HH:MM string or null", timesheet.ErrInvalidInput, name)
	}

	c, err := timecalc.ParseClock(s)
	if err != nil {
		return timesheet.Field[*timecalc.Clock]{}, fmt.Errorf("%w: %s: %w", timesheet.ErrInvalidInput, name, err)
	}

	return timesheet.Some(&c), nil
}

// decimalField reads a number, a numeric string, or null.
func decimalField(name string, raw json.RawMessage) (*decimal.Decimal, error) {
	if isNull(raw) {
		return nil, nil
	}

	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", timesheet.ErrInvalidInput, name)
	}

	return &d, nil
}

// optionalStringField reads a string or null. Blank strings clear the field.
func optionalStringField(name string, raw json.RawMessage) (timesheet.Field[*string], error) {
	if isNull(raw) {
		return timesheet.Some[*string](nil), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return timesheet.Field[*string]{}, fmt.Errorf("%w: %s must be a string or null", timesheet.ErrInvalidInput, name)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return timesheet.Some[*string](nil), nil
	}

	return timesheet.Some(&s), nil
}
