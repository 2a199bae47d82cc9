// Package corpus reads the statute table and seeds it into storage.
//
// The table has a header row followed by one row per section with the
// columns: section number, title, description, punishment. Extra columns
// are ignored.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/nyaya/core"
	"github.com/xuri/excelize/v2"
)

// Load reads sections from an .xlsx workbook (first sheet) or a .csv file.
func Load(path string) ([]*core.Section, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		return LoadXLSX(f)
	case ".csv":
		return LoadCSV(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// LoadXLSX reads sections from the first sheet of a workbook.
func LoadXLSX(r io.Reader) ([]*core.Section, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return fromRows(rows), nil
}

// LoadCSV reads sections from comma-separated rows. Rows may have any
// number of fields.
func LoadCSV(r io.Reader) ([]*core.Section, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, record)
	}
	return fromRows(rows), nil
}

// fromRows skips the header and converts the remaining rows. Blank rows are
// skipped silently, rows without a number or title with a warning.
func fromRows(rows [][]string) []*core.Section {
	var sections []*core.Section
	for i, row := range rows {
		if i == 0 {
			continue
		}
		section := &core.Section{
			SectionNo:   cell(row, 0),
			Title:       cell(row, 1),
			Description: cell(row, 2),
			Punishment:  cell(row, 3),
		}
		if section.SectionNo == "" && section.Title == "" && section.Description == "" && section.Punishment == "" {
			continue
		}
		if err := core.ValidateSection(section); err != nil {
			slog.Warn("skipping corpus row", "row", i+1, "err", err)
			continue
		}
		sections = append(sections, section)
	}
	return sections
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
