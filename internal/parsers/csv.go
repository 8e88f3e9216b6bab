package parsers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// parseCSV converts CSV bytes to a JSON array of rows, each a list of string
// cells. Malformed records are skipped with a warning instead of failing the
// whole document.
func (r *Registry) parseCSV(body []byte) ([]byte, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	// Rows may have varying field counts; the consumer decides what a row means.
	reader.FieldsPerRecord = -1

	rows := [][]string{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				r.logger.Warn("skipping malformed csv record",
					"line", parseErr.Line, "error", parseErr.Err)
				continue
			}
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		rows = append(rows, record)
	}

	out, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode csv rows: %w", err)
	}
	return out, nil
}
