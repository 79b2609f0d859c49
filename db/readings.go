package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/openairmap/sensor-api/measurement"
)

// canonicalTimeLayout is the wire form of every datetime value this API
// accepts and returns.
const canonicalTimeLayout = "2006-01-02 15:04:05"

// IngestReadings runs the write pipeline for one batch of records: table
// resolution, date-column resolution, per-record column-set validation, date
// normalization, and a single all-or-nothing bulk insert. The returned count
// always equals len(records) on success.
func (s *Store) IngestReadings(ctx context.Context, tableName string, records []map[string]any) (int, error) {
	if len(records) == 0 {
		return 0, fmt.Errorf("%w: payload contains no records", ErrSchemaMismatch)
	}

	exists, err := s.TableExists(ctx, tableName)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("table %s: %w", tableName, ErrNotFound)
	}

	dateCol, err := s.DateColumn(ctx, tableName)
	if err != nil {
		return 0, err
	}
	liveCols, err := s.LiveColumns(ctx, tableName)
	if err != nil {
		return 0, err
	}

	// Every record is validated individually, so a batch whose later records
	// diverge from the first is rejected before anything is written.
	for i, record := range records {
		if !measurement.SameColumns(measurement.RecordColumns(record), liveCols) {
			return 0, fmt.Errorf("record %d: %w", i, ErrSchemaMismatch)
		}
		if raw, ok := record[dateCol].(string); ok {
			normalized, err := measurement.NormalizeDate(raw)
			if err != nil {
				return 0, fmt.Errorf("record %d: %w", i, err)
			}
			record[dateCol] = normalized
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	insertSQL, argCount := buildInsertSQL(tableName, liveCols, len(records))
	args := make([]any, 0, argCount)
	for _, record := range records {
		for _, col := range liveCols {
			args = append(args, record[col])
		}
	}

	tag, err := tx.Exec(ctx, insertSQL, args...)
	if err != nil {
		return 0, fmt.Errorf("insert readings: %w", translate(err))
	}
	if int(tag.RowsAffected()) != len(records) {
		return 0, fmt.Errorf("insert readings: inserted %d of %d rows", tag.RowsAffected(), len(records))
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(records), nil
}

// buildInsertSQL renders a multi-row INSERT with numbered placeholders.
func buildInsertSQL(tableName string, cols []string, rowCount int) (string, int) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pgx.Identifier{tableName}.Sanitize())
	b.WriteString(" (")
	for i, col := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgx.Identifier{col}.Sanitize())
	}
	b.WriteString(") VALUES ")

	arg := 1
	for row := 0; row < rowCount; row++ {
		if row > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for i := range cols {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", arg)
			arg++
		}
		b.WriteString(")")
	}
	return b.String(), arg - 1
}

// QueryReadings runs the read pipeline: table and date-column resolution,
// bound normalization, then an inclusive [start, end] range query ordered by
// the date column. Zero matching rows is reported as ErrNoData, not an empty
// success. The returned column list preserves table order for CSV export.
func (s *Store) QueryReadings(ctx context.Context, tableName, startDate, endDate string) ([]map[string]any, []string, error) {
	dateCol, err := s.resolveTable(ctx, tableName)
	if err != nil {
		return nil, nil, err
	}

	start, err := measurement.NormalizeDate(startDate)
	if err != nil {
		return nil, nil, err
	}
	end, err := measurement.NormalizeDate(endDate)
	if err != nil {
		return nil, nil, err
	}

	sql := fmt.Sprintf("SELECT * FROM %s WHERE %s >= $1 AND %s <= $2 ORDER BY %s, id",
		pgx.Identifier{tableName}.Sanitize(),
		pgx.Identifier{dateCol}.Sanitize(),
		pgx.Identifier{dateCol}.Sanitize(),
		pgx.Identifier{dateCol}.Sanitize(),
	)

	rows, err := s.pool.Query(ctx, sql, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("query readings: %w", translate(err))
	}
	defer rows.Close()

	records, cols, err := collectRecords(rows)
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("table %s: %w", tableName, ErrNoData)
	}
	return records, cols, nil
}

// LastReading returns the row with the maximum date-column value, ties
// broken by the highest row id. An empty table is a valid outcome and yields
// a nil record without an error, distinct from an unprovisioned table.
func (s *Store) LastReading(ctx context.Context, tableName string) (map[string]any, error) {
	dateCol, err := s.resolveTable(ctx, tableName)
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf("SELECT * FROM %s ORDER BY %s DESC, id DESC LIMIT 1",
		pgx.Identifier{tableName}.Sanitize(),
		pgx.Identifier{dateCol}.Sanitize(),
	)

	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("last reading: %w", translate(err))
	}
	defer rows.Close()

	records, _, err := collectRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// resolveTable checks provisioning and resolves the date column, the shared
// prefix of every read-path operation.
func (s *Store) resolveTable(ctx context.Context, tableName string) (string, error) {
	exists, err := s.TableExists(ctx, tableName)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("table %s: %w", tableName, ErrNotFound)
	}
	return s.DateColumn(ctx, tableName)
}

// collectRecords drains a result set into generic records, rendering
// temporal values in canonical form so reads round-trip ingested data.
func collectRecords(rows pgx.Rows) ([]map[string]any, []string, error) {
	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, fd := range fields {
		cols[i] = fd.Name
	}

	records := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, nil, fmt.Errorf("read row values: %w", err)
		}
		record := make(map[string]any, len(values))
		for i, v := range values {
			record[cols[i]] = renderValue(v, fields[i].DataTypeOID)
		}
		records = append(records, record)
	}
	return records, cols, rows.Err()
}

func renderValue(v any, oid uint32) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	if oid == pgtype.DateOID {
		return t.Format("2006-01-02")
	}
	return t.Format(canonicalTimeLayout)
}
