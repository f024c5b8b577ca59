// internal/app/system/csvutil/rows.go
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEmpty is returned for a file with no header row.
var ErrEmpty = errors.New("csv: no header row")

// ErrTooManyRows is returned when a file holds more than the allowed rows.
var ErrTooManyRows = errors.New("csv: too many rows")

// ReadRows reads a header-keyed CSV file. Each data row becomes a map from
// the lower-cased header name to the trimmed cell. Rows whose cells are
// all blank are skipped. maxRows <= 0 means MaxRows.
func ReadRows(r io.Reader, maxRows int) ([]map[string]string, error) {
	if maxRows <= 0 {
		maxRows = MaxRows
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	keys := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		keys[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var rows []map[string]string
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		row := make(map[string]string, len(keys))
		blank := true
		for i, k := range keys {
			if k == "" || i >= len(rec) {
				continue
			}
			v := strings.TrimSpace(rec[i])
			if v != "" {
				blank = false
			}
			row[k] = v
		}
		if blank {
			continue
		}
		if len(rows) == maxRows {
			return nil, ErrTooManyRows
		}
		rows = append(rows, row)
	}
	return rows, nil
}
