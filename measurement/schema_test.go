package measurement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openairmap/sensor-api/measurement"
)

func TestParseColumnType(t *testing.T) {
	assert.Equal(t, measurement.ColumnString, measurement.ParseColumnType("string"))
	assert.Equal(t, measurement.ColumnFloat, measurement.ParseColumnType("FLOAT"))
	assert.Equal(t, measurement.ColumnDatetime, measurement.ParseColumnType(" datetime "))
	// Unrecognized types degrade to text instead of failing.
	assert.Equal(t, measurement.ColumnText, measurement.ParseColumnType("uuid"))
	assert.Equal(t, measurement.ColumnText, measurement.ParseColumnType(""))
}

func TestColumnTypeSQLType(t *testing.T) {
	assert.Equal(t, "TEXT", measurement.ColumnString.SQLType())
	assert.Equal(t, "DOUBLE PRECISION", measurement.ColumnNumber.SQLType())
	assert.Equal(t, "DOUBLE PRECISION", measurement.ColumnFloat.SQLType())
	assert.Equal(t, "BIGINT", measurement.ColumnInteger.SQLType())
	assert.Equal(t, "DATE", measurement.ColumnDate.SQLType())
	assert.Equal(t, "TIMESTAMP", measurement.ColumnDatetime.SQLType())
	assert.Equal(t, "TEXT", measurement.ColumnText.SQLType())
}

func TestSchemaDateColumn(t *testing.T) {
	schema, err := measurement.ParseSchema(map[string]string{
		"temperature": "float",
		"recorded_at": "datetime",
	})
	require.NoError(t, err)

	col, err := schema.DateColumn()
	require.NoError(t, err)
	assert.Equal(t, "recorded_at", col)
}

func TestSchemaDateColumnRejectsZeroOrMany(t *testing.T) {
	none, err := measurement.ParseSchema(map[string]string{
		"temperature": "float",
		"humidity":    "float",
	})
	require.NoError(t, err)
	_, err = none.DateColumn()
	assert.Error(t, err)

	two, err := measurement.ParseSchema(map[string]string{
		"recorded_at": "datetime",
		"observed_on": "date",
		"value":       "number",
	})
	require.NoError(t, err)
	_, err = two.DateColumn()
	assert.Error(t, err)
}

func TestParseSchemaRejectsEmpty(t *testing.T) {
	_, err := measurement.ParseSchema(nil)
	assert.Error(t, err)

	_, err = measurement.ParseSchema(map[string]string{" ": "float"})
	assert.Error(t, err)
}

func TestSameColumns(t *testing.T) {
	live := []string{"temperature", "humidity", "recorded_at"}

	assert.True(t, measurement.SameColumns([]string{"recorded_at", "temperature", "humidity"}, live))

	// Strict subset.
	assert.False(t, measurement.SameColumns([]string{"temperature", "recorded_at"}, live))
	// Strict superset.
	assert.False(t, measurement.SameColumns([]string{"temperature", "humidity", "recorded_at", "pm25"}, live))
	// Same size, different membership.
	assert.False(t, measurement.SameColumns([]string{"temperature", "humidity", "observed_at"}, live))
	// Disjoint.
	assert.False(t, measurement.SameColumns([]string{"a", "b", "c"}, live))
}

func TestRecordColumnsSorted(t *testing.T) {
	cols := measurement.RecordColumns(map[string]any{
		"temperature": 21.5,
		"recorded_at": "2024-08-01 10:00:00",
	})
	assert.Equal(t, []string{"recorded_at", "temperature"}, cols)
}
