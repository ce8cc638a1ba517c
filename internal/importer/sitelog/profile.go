package sitelog

// Profile describes the column layout of a punch log export.
// Header cells are matched case-insensitively after trimming.
type Profile struct {
	Name      string
	DateCol   string
	StartCol  string
	EndCol    string
	BreakCol  string // optional
	ReasonCol string // optional
}

// requiredCols returns the column names that must be present for this profile to match.
func (p Profile) requiredCols() []string {
	return []string{p.DateCol, p.StartCol, p.EndCol}
}

// profiles is tried in order during header detection.
var profiles = []Profile{
	{
		Name:      "sitelog",
		DateCol:   "date",
		StartCol:  "time_start",
		EndCol:    "time_end",
		BreakCol:  "duty_break_hrs",
		ReasonCol: "breakdown_reason",
	},
	{
		// Paper time card typed up by the site office.
		Name:      "register",
		DateCol:   "date",
		StartCol:  "time in",
		EndCol:    "time out",
		BreakCol:  "break (hrs)",
		ReasonCol: "remarks",
	},
}
