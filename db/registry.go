package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/openairmap/sensor-api/measurement"
)

// SchemaEntry is one row of the schema registry: the mapping from a logical
// measurement identity to its physical table and declared column types.
type SchemaEntry struct {
	ID                      int64             `json:"id"`
	SensorBrand             string            `json:"sensor_brand"`
	SensorID                string            `json:"sensor_id"`
	MeasurementType         string            `json:"measurement_type"`
	MeasurementTimeInterval string            `json:"measurement_time_interval"`
	MeasurementModel        string            `json:"measurement_model"`
	SensorTableName         string            `json:"sensor_table_name"`
	SensorDataSchema        map[string]string `json:"sensor_data_schema"`
	CreatedAt               time.Time         `json:"created_at"`
}

const schemaEntryColumns = `id, sensor_brand, sensor_id, measurement_type,
	measurement_time_interval, measurement_model, sensor_table_name,
	sensor_data_schema, created_at`

const listSchemasSQL = `
	SELECT ` + schemaEntryColumns + `
	FROM sensor_schemas
	ORDER BY sensor_brand, sensor_id, sensor_table_name
`

const listSchemasForSensorSQL = `
	SELECT ` + schemaEntryColumns + `
	FROM sensor_schemas
	WHERE sensor_brand = $1 AND sensor_id = $2
	ORDER BY sensor_table_name
`

const getSchemaByTableSQL = `
	SELECT ` + schemaEntryColumns + `
	FROM sensor_schemas
	WHERE sensor_table_name = $1
`

func scanSchemaEntry(row pgx.Row) (SchemaEntry, error) {
	var e SchemaEntry
	var schemaJSON []byte
	if err := row.Scan(
		&e.ID,
		&e.SensorBrand,
		&e.SensorID,
		&e.MeasurementType,
		&e.MeasurementTimeInterval,
		&e.MeasurementModel,
		&e.SensorTableName,
		&schemaJSON,
		&e.CreatedAt,
	); err != nil {
		return SchemaEntry{}, err
	}
	if err := json.Unmarshal(schemaJSON, &e.SensorDataSchema); err != nil {
		return SchemaEntry{}, fmt.Errorf("decode sensor_data_schema: %w", err)
	}
	return e, nil
}

// ListSchemas returns all registered schema entries.
func (s *Store) ListSchemas(ctx context.Context) ([]SchemaEntry, error) {
	return s.querySchemas(ctx, listSchemasSQL)
}

// ListSchemasForSensor returns the schema entries of a single sensor.
func (s *Store) ListSchemasForSensor(ctx context.Context, brand, id string) ([]SchemaEntry, error) {
	return s.querySchemas(ctx, listSchemasForSensorSQL, brand, id)
}

func (s *Store) querySchemas(ctx context.Context, sql string, args ...any) ([]SchemaEntry, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	defer rows.Close()

	entries := make([]SchemaEntry, 0)
	for rows.Next() {
		entry, err := scanSchemaEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schema entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

const insertSchemaSQL = `
	INSERT INTO sensor_schemas (sensor_brand, sensor_id, measurement_type,
		measurement_time_interval, measurement_model, sensor_table_name,
		sensor_data_schema)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, created_at
`

// RegisterSchema records a new measurement stream and provisions its
// physical table in one transaction, so the registry and the live table can
// never diverge on creation. The sensor itself must already be registered.
// Re-registering an existing identity returns ErrAlreadyExists, whether the
// duplicate is caught by the registry's unique table name or by the
// duplicate-table error of a concurrent create.
func (s *Store) RegisterSchema(ctx context.Context, identity measurement.Identity, schema measurement.Schema) (SchemaEntry, error) {
	dateCol, err := schema.DateColumn()
	if err != nil {
		return SchemaEntry{}, fmt.Errorf("%w: %s", ErrInvalidSchema, err)
	}

	if _, err := s.GetSensor(ctx, identity.SensorBrand, identity.SensorID); err != nil {
		return SchemaEntry{}, err
	}

	declared := make(map[string]string, len(schema))
	for col, typ := range schema {
		declared[col] = string(typ)
	}
	schemaJSON, err := json.Marshal(declared)
	if err != nil {
		return SchemaEntry{}, fmt.Errorf("encode sensor_data_schema: %w", err)
	}

	tableName := identity.TableName()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return SchemaEntry{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	entry := SchemaEntry{
		SensorBrand:             identity.SensorBrand,
		SensorID:                identity.SensorID,
		MeasurementType:         string(identity.Type),
		MeasurementTimeInterval: string(identity.Interval),
		MeasurementModel:        identity.ModelToken(),
		SensorTableName:         tableName,
		SensorDataSchema:        declared,
	}

	err = tx.QueryRow(ctx, insertSchemaSQL,
		entry.SensorBrand,
		entry.SensorID,
		entry.MeasurementType,
		entry.MeasurementTimeInterval,
		entry.MeasurementModel,
		entry.SensorTableName,
		schemaJSON,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return SchemaEntry{}, fmt.Errorf("register schema: %w", translate(err))
	}

	if err := createMeasurementTable(ctx, tx, tableName, schema, dateCol); err != nil {
		return SchemaEntry{}, fmt.Errorf("provision table %s: %w", tableName, translate(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return SchemaEntry{}, fmt.Errorf("commit: %w", err)
	}
	return entry, nil
}

// schemaEntryByTable fetches a registry row by physical table name.
func (s *Store) schemaEntryByTable(ctx context.Context, q querier, tableName string) (SchemaEntry, error) {
	entry, err := scanSchemaEntry(q.QueryRow(ctx, getSchemaByTableSQL, tableName))
	if errors.Is(err, pgx.ErrNoRows) {
		return SchemaEntry{}, fmt.Errorf("schema entry for table %s: %w", tableName, ErrNotFound)
	}
	if err != nil {
		return SchemaEntry{}, fmt.Errorf("get schema entry: %w", err)
	}
	return entry, nil
}
