package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"chartgen/internal/models"
)

var (
	// ErrUnreadable is returned when the upload is not a spreadsheet container.
	ErrUnreadable = errors.New("file is not a readable spreadsheet")
	// ErrEmptySheet is returned when the first sheet has no rows.
	ErrEmptySheet = errors.New("first sheet has no rows")
)

// ExtractFile opens path and extracts the table from its first sheet.
func ExtractFile(path string) (*models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return Extract(f, path)
}

// Extract reads the first sheet of the workbook in r. name is only used to
// recognise CSV uploads by extension.
func Extract(r io.Reader, name string) (*models.Table, error) {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		rows, err := readCSV(r)
		if err != nil {
			return nil, err
		}
		return buildTable(rows)
	}

	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}
	sheet := sheets[0]
	raw, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrUnreadable, sheet, err)
	}

	rows := make([][]any, len(raw))
	for i, cols := range raw {
		row := make([]any, len(cols))
		for j, val := range cols {
			row[j] = typedCell(wb, sheet, i, j, val)
		}
		rows[i] = row
	}
	return buildTable(rows)
}

// buildTable splits rows into labels (row 0) and series (the rest), dropping
// the first column of each.
func buildTable(rows [][]any) (*models.Table, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	header := dropFirst(rows[0])
	labels := make([]string, len(header))
	for i, v := range header {
		if v != nil {
			labels[i] = fmt.Sprint(v)
		}
	}
	series := make([][]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		series = append(series, dropFirst(row))
	}
	return &models.Table{Labels: labels, Series: series}, nil
}

func dropFirst(row []any) []any {
	if len(row) <= 1 {
		return []any{}
	}
	return row[1:]
}

// typedCell converts a raw cell value into the JSON-friendly type the prompt
// should carry: numbers as float64, booleans as bool, blanks as nil.
func typedCell(wb *excelize.File, sheet string, row, col int, val string) any {
	if val == "" {
		return nil
	}
	ref, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return val
	}
	typ, err := wb.GetCellType(sheet, ref)
	if err != nil {
		return val
	}
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
		return val
	case excelize.CellTypeBool:
		return val == "1" || strings.EqualFold(val, "true")
	}
	return parseScalar(val)
}

func parseScalar(val string) any {
	if val == "" {
		return nil
	}
	if n, err := strconv.ParseFloat(val, 64); err == nil {
		return n
	}
	return val
}
