package spreadsheet

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestExtractHeaderAndSeries(t *testing.T) {
	data := buildWorkbook(t,
		[]any{"Month", "A", "B"},
		[]any{"Jan", 1, 2},
		[]any{"Feb", 3, 4},
	)

	table, err := Extract(bytes.NewReader(data), "sales.xlsx")
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, table.Labels)
	assert.Equal(t, [][]any{{1.0, 2.0}, {3.0, 4.0}}, table.Series)

	encoded, err := json.Marshal(table)
	require.NoError(t, err)
	assert.JSONEq(t, `{"labels":["A","B"],"series":[[1,2],[3,4]]}`, string(encoded))
}

func TestExtractReadsOnlyFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Name", "Score"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"x", 10}))
	_, err := f.NewSheet("Other")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Other", "A1", &[]any{"Ignored", "Header"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, err := Extract(bytes.NewReader(buf.Bytes()), "book.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"Score"}, table.Labels)
	assert.Equal(t, [][]any{{10.0}}, table.Series)
}

func TestExtractKeepsTextAndBlankCells(t *testing.T) {
	data := buildWorkbook(t,
		[]any{"Region", "Q1", "Q2", "Note"},
		[]any{"North", 5, nil, "late"},
	)

	table, err := Extract(bytes.NewReader(data), "regions.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"Q1", "Q2", "Note"}, table.Labels)
	require.Len(t, table.Series, 1)
	assert.Equal(t, []any{5.0, nil, "late"}, table.Series[0])
}

func TestExtractHeaderOnly(t *testing.T) {
	data := buildWorkbook(t, []any{"Month", "A"})

	table, err := Extract(bytes.NewReader(data), "header.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, table.Labels)
	assert.Empty(t, table.Series)
}

func TestExtractEmptySheet(t *testing.T) {
	data := buildWorkbook(t)

	_, err := Extract(bytes.NewReader(data), "empty.xlsx")
	require.ErrorIs(t, err, ErrEmptySheet)
}

func TestExtractUnreadable(t *testing.T) {
	_, err := Extract(strings.NewReader("definitely not a workbook"), "notes.xlsx")
	require.ErrorIs(t, err, ErrUnreadable)
}

func TestExtractCSV(t *testing.T) {
	csvData := "Month,A,B\nJan,1,2\nFeb,3,4\n"

	table, err := Extract(strings.NewReader(csvData), "sales.CSV")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, table.Labels)
	assert.Equal(t, [][]any{{1.0, 2.0}, {3.0, 4.0}}, table.Series)
}

func TestExtractCSVEmpty(t *testing.T) {
	_, err := Extract(strings.NewReader(""), "empty.csv")
	require.ErrorIs(t, err, ErrEmptySheet)
}

func TestExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.xlsx")
	require.NoError(t, os.WriteFile(path, buildWorkbook(t,
		[]any{"Month", "A"},
		[]any{"Jan", 7},
	), 0o600))

	table, err := ExtractFile(path)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{7.0}}, table.Series)

	_, err = ExtractFile(filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
}
