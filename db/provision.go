package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/openairmap/sensor-api/measurement"
)

// querier is the subset of pgx shared by the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// createMeasurementTable issues the CREATE TABLE for a measurement stream:
// a system-generated id column, one physical column per declared logical
// column, and an index on the date column for range and ordering queries.
// Identifiers come from request parameters, so every one of them is quoted.
func createMeasurementTable(ctx context.Context, tx pgx.Tx, name string, schema measurement.Schema, dateCol string) error {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(pgx.Identifier{name}.Sanitize())
	b.WriteString(" (id BIGSERIAL PRIMARY KEY")
	for _, col := range schema.Columns() {
		b.WriteString(", ")
		b.WriteString(pgx.Identifier{col}.Sanitize())
		b.WriteString(" ")
		b.WriteString(schema[col].SQLType())
	}
	b.WriteString(")")

	if _, err := tx.Exec(ctx, b.String()); err != nil {
		return err
	}

	indexSQL := fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
		pgx.Identifier{name + "_" + dateCol + "_idx"}.Sanitize(),
		pgx.Identifier{name}.Sanitize(),
		pgx.Identifier{dateCol}.Sanitize(),
	)
	_, err := tx.Exec(ctx, indexSQL)
	return err
}

const tableExistsSQL = `
	SELECT EXISTS (
		SELECT 1 FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = $1
	)
`

// TableExists reports whether a measurement table is provisioned.
func (s *Store) TableExists(ctx context.Context, tableName string) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, tableExistsSQL, tableName).Scan(&exists); err != nil {
		return false, fmt.Errorf("table exists: %w", err)
	}
	return exists, nil
}

const liveColumnsSQL = `
	SELECT column_name
	FROM information_schema.columns
	WHERE table_schema = current_schema() AND table_name = $1
	ORDER BY ordinal_position
`

// LiveColumns returns the live column names of a table, excluding the
// system id column. An unprovisioned table yields ErrNotFound.
func (s *Store) LiveColumns(ctx context.Context, tableName string) ([]string, error) {
	rows, err := s.pool.Query(ctx, liveColumnsSQL, tableName)
	if err != nil {
		return nil, fmt.Errorf("live columns: %w", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		if col != "id" {
			cols = append(cols, col)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s: %w", tableName, ErrNotFound)
	}
	return cols, nil
}

const dateColumnsSQL = `
	SELECT column_name
	FROM information_schema.columns
	WHERE table_schema = current_schema() AND table_name = $1
	  AND (data_type = 'date' OR data_type LIKE 'timestamp%')
`

// DateColumn resolves the single date/datetime column of a live table. Zero
// or several temporal columns fail closed with ErrNoDateColumn: callers must
// never fall back to insertion order or a default column.
func (s *Store) DateColumn(ctx context.Context, tableName string) (string, error) {
	rows, err := s.pool.Query(ctx, dateColumnsSQL, tableName)
	if err != nil {
		return "", fmt.Errorf("date column: %w", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return "", fmt.Errorf("scan column name: %w", err)
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if len(cols) != 1 {
		return "", fmt.Errorf("table %s has %d date columns: %w", tableName, len(cols), ErrNoDateColumn)
	}
	return cols[0], nil
}

const updateSchemaJSONSQL = `
	UPDATE sensor_schemas
	SET sensor_data_schema = $2
	WHERE sensor_table_name = $1
`

// UpdateSchema amends a measurement stream: new columns are added and
// existing columns renamed on the live table, and the registry's recorded
// schema is rewritten to match. All of it runs in one transaction, so a
// failure partway leaves both sides untouched. The amended schema must still
// contain exactly one date column.
func (s *Store) UpdateSchema(ctx context.Context, tableName string, newColumns measurement.Schema, renameColumns map[string]string) (SchemaEntry, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return SchemaEntry{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	entry, err := s.schemaEntryByTable(ctx, tx, tableName)
	if err != nil {
		return SchemaEntry{}, err
	}

	// Compute the resulting declared schema up front and reject amendments
	// that would break the one-date-column rule before touching the table.
	amended := make(measurement.Schema, len(entry.SensorDataSchema)+len(newColumns))
	for col, typ := range entry.SensorDataSchema {
		amended[col] = measurement.ParseColumnType(typ)
	}
	for col, typ := range newColumns {
		if _, exists := amended[col]; exists {
			return SchemaEntry{}, fmt.Errorf("column %s: %w", col, ErrAlreadyExists)
		}
		amended[col] = typ
	}
	for oldCol, newCol := range renameColumns {
		typ, exists := amended[oldCol]
		if !exists {
			return SchemaEntry{}, fmt.Errorf("column %s: %w", oldCol, ErrNotFound)
		}
		if _, taken := amended[newCol]; taken {
			return SchemaEntry{}, fmt.Errorf("column %s: %w", newCol, ErrAlreadyExists)
		}
		delete(amended, oldCol)
		amended[newCol] = typ
	}
	if _, err := amended.DateColumn(); err != nil {
		return SchemaEntry{}, fmt.Errorf("%w: %s", ErrInvalidSchema, err)
	}

	table := pgx.Identifier{tableName}.Sanitize()
	for _, col := range newColumns.Columns() {
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
			table, pgx.Identifier{col}.Sanitize(), newColumns[col].SQLType())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return SchemaEntry{}, fmt.Errorf("add column %s: %w", col, translate(err))
		}
	}
	for oldCol, newCol := range renameColumns {
		stmt := fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
			table, pgx.Identifier{oldCol}.Sanitize(), pgx.Identifier{newCol}.Sanitize())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return SchemaEntry{}, fmt.Errorf("rename column %s: %w", oldCol, translate(err))
		}
	}

	declared := make(map[string]string, len(amended))
	for col, typ := range amended {
		declared[col] = string(typ)
	}
	schemaJSON, err := json.Marshal(declared)
	if err != nil {
		return SchemaEntry{}, fmt.Errorf("encode sensor_data_schema: %w", err)
	}
	if _, err := tx.Exec(ctx, updateSchemaJSONSQL, tableName, schemaJSON); err != nil {
		return SchemaEntry{}, fmt.Errorf("update schema entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return SchemaEntry{}, fmt.Errorf("commit: %w", err)
	}

	entry.SensorDataSchema = declared
	return entry, nil
}
