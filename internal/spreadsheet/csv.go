package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

func readCSV(r io.Reader) ([][]any, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	rows := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(rec))
		for j, val := range rec {
			if i == 0 {
				row[j] = val
				continue
			}
			row[j] = parseScalar(strings.TrimSpace(val))
		}
		rows[i] = row
	}
	return rows, nil
}
