package importer

import (
	"fmt"
	"io"

	"github.com/MrJamesThe3rd/timecard/internal/importer/sitelog"
	"github.com/MrJamesThe3rd/timecard/internal/timesheet"
)

type Service struct {
	siteLogImporter Importer
}

func NewService() *Service {
	return &Service{
		siteLogImporter: sitelog.NewParser(),
	}
}

// Import parses a punch log. An empty format means the site log layout.
func (s *Service) Import(format Format, r io.Reader) ([]timesheet.DayImport, error) {
	var importer Importer

	switch format {
	case FormatSiteLog, "":
		importer = s.siteLogImporter
	default:
		return nil, fmt.Errorf("%w: unknown import format: %s", timesheet.ErrInvalidInput, format)
	}

	return importer.Parse(r)
}
