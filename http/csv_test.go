package http

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSVRecords(t *testing.T) {
	in := strings.NewReader("temperature,recorded_at\n21.5,08/01/2024 10:00:00\n22.0,2024-08-02 10:00:00\n")

	records, err := readCSVRecords(in)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "21.5", records[0]["temperature"])
	assert.Equal(t, "08/01/2024 10:00:00", records[0]["recorded_at"])
	assert.Equal(t, "22.0", records[1]["temperature"])
}

func TestReadCSVRecordsEmpty(t *testing.T) {
	_, err := readCSVRecords(strings.NewReader(""))
	assert.Error(t, err)

	// Header only, no data rows.
	_, err = readCSVRecords(strings.NewReader("temperature,recorded_at\n"))
	assert.Error(t, err)
}

func TestReadCSVRecordsRaggedRow(t *testing.T) {
	in := strings.NewReader("temperature,recorded_at\n21.5,2024-08-01 10:00:00\n22.0\n")
	_, err := readCSVRecords(in)
	assert.ErrorContains(t, err, "csv line 3")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	cols := []string{"id", "temperature", "recorded_at"}
	records := []map[string]any{
		{"id": int64(1), "temperature": 21.5, "recorded_at": "2024-08-01 10:00:00"},
		{"id": int64(2), "temperature": nil, "recorded_at": "2024-08-02 10:00:00"},
	}

	require.NoError(t, writeCSV(&buf, cols, records))

	want := "id,temperature,recorded_at\n" +
		"1,21.5,2024-08-01 10:00:00\n" +
		"2,,2024-08-02 10:00:00\n"
	assert.Equal(t, want, buf.String())
}
