package importer

import (
	"io"

	"github.com/MrJamesThe3rd/timecard/internal/timesheet"
)

// Format names a punch log file layout.
type Format string

const (
	FormatSiteLog Format = "sitelog"
)

type Importer interface {
	Parse(r io.Reader) ([]timesheet.DayImport, error)
}
