package corpus

import "errors"

var (
	// ErrUnsupportedFormat is returned for a corpus file that is neither .xlsx nor .csv.
	ErrUnsupportedFormat = errors.New("unsupported corpus format")

	// ErrNoSheets is returned for a workbook without worksheets.
	ErrNoSheets = errors.New("workbook has no sheets")

	// ErrRepositoryRequired is returned when a section repository is not provided.
	ErrRepositoryRequired = errors.New("section repository required")
)
