package http

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// readCSVRecords parses an uploaded CSV stream into generic records. The
// first row is the header and names the columns; every data row must have
// exactly that many fields. Values stay strings and are validated, date
// normalized, and type-coerced further down the pipeline.
func readCSVRecords(r io.Reader) ([]map[string]any, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty or invalid CSV file")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
	}

	var records []map[string]any
	lineNum := 1 // 1-based, header was line 1
	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", lineNum, err)
		}

		record := make(map[string]any, len(header))
		for i, col := range header {
			record[col] = strings.TrimSpace(row[i])
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no valid data found in the CSV file")
	}
	return records, nil
}

// writeCSV renders records as CSV in the given column order.
func writeCSV(w io.Writer, cols []string, records []map[string]any) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, record := range records {
		row := make([]string, len(cols))
		for i, col := range cols {
			row[i] = formatCSVValue(record[col])
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatCSVValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
