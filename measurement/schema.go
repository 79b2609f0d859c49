package measurement

import (
	"fmt"
	"sort"
	"strings"
)

// ColumnType is the closed set of logical column types accepted when
// provisioning a measurement table. Unrecognized type strings degrade to
// ColumnText rather than failing the request.
type ColumnType string

const (
	ColumnString   ColumnType = "string"
	ColumnNumber   ColumnType = "number"
	ColumnFloat    ColumnType = "float"
	ColumnInteger  ColumnType = "integer"
	ColumnDate     ColumnType = "date"
	ColumnDatetime ColumnType = "datetime"
	ColumnText     ColumnType = "text" // fallback
)

// ParseColumnType maps a declared type string onto the closed enumeration.
func ParseColumnType(s string) ColumnType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ColumnString):
		return ColumnString
	case string(ColumnNumber):
		return ColumnNumber
	case string(ColumnFloat):
		return ColumnFloat
	case string(ColumnInteger):
		return ColumnInteger
	case string(ColumnDate):
		return ColumnDate
	case string(ColumnDatetime):
		return ColumnDatetime
	default:
		return ColumnText
	}
}

// SQLType returns the PostgreSQL column type backing this logical type.
func (t ColumnType) SQLType() string {
	switch t {
	case ColumnString, ColumnText:
		return "TEXT"
	case ColumnNumber, ColumnFloat:
		return "DOUBLE PRECISION"
	case ColumnInteger:
		return "BIGINT"
	case ColumnDate:
		return "DATE"
	case ColumnDatetime:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

// Temporal reports whether the type counts toward the one-date-column rule.
func (t ColumnType) Temporal() bool {
	return t == ColumnDate || t == ColumnDatetime
}

// Schema maps logical column names to their declared types.
type Schema map[string]ColumnType

// ParseSchema converts a raw column→type-string map into a Schema.
func ParseSchema(raw map[string]string) (Schema, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("sensor_data_schema must declare at least one column")
	}
	schema := make(Schema, len(raw))
	for col, typ := range raw {
		col = strings.TrimSpace(col)
		if col == "" {
			return nil, fmt.Errorf("sensor_data_schema contains an empty column name")
		}
		schema[col] = ParseColumnType(typ)
	}
	return schema, nil
}

// DateColumn returns the single date/datetime column declared by the schema.
// Zero or more than one temporal column is a validation error: without a
// unique temporal column the table has no resolvable ordering.
func (s Schema) DateColumn() (string, error) {
	var dateCols []string
	for col, typ := range s {
		if typ.Temporal() {
			dateCols = append(dateCols, col)
		}
	}
	if len(dateCols) != 1 {
		return "", fmt.Errorf("schema must contain exactly one date or datetime column, found %d", len(dateCols))
	}
	return dateCols[0], nil
}

// Columns returns the declared column names in sorted order.
func (s Schema) Columns() []string {
	cols := make([]string, 0, len(s))
	for col := range s {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// SameColumns reports whether two column sets are exactly equal: same
// cardinality and same member names. Subsets, supersets, and same-size sets
// with different members all fail. This equality check is the sole defense
// against malformed uploads and runs before any insert.
func SameColumns(incoming, live []string) bool {
	if len(incoming) != len(live) {
		return false
	}
	set := make(map[string]struct{}, len(live))
	for _, col := range live {
		set[col] = struct{}{}
	}
	for _, col := range incoming {
		if _, ok := set[col]; !ok {
			return false
		}
	}
	return true
}

// RecordColumns extracts the field names of one ingested record.
func RecordColumns(record map[string]any) []string {
	cols := make([]string, 0, len(record))
	for col := range record {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}
