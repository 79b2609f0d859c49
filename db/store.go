// Package db implements the storage layer: the sensor catalog, the schema
// registry, dynamic measurement-table provisioning, and the reading
// ingestion/export pipeline, all over a single pgx pool.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps database access helpers.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Healthy returns nil when the database is reachable.
func (s *Store) Healthy(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS sensors (
		sensor_brand         TEXT NOT NULL,
		sensor_id            TEXT NOT NULL,
		latitude             DOUBLE PRECISION NOT NULL,
		longitude            DOUBLE PRECISION NOT NULL,
		last_latitude        DOUBLE PRECISION,
		last_longitude       DOUBLE PRECISION,
		is_active            BOOLEAN NOT NULL DEFAULT TRUE,
		date_uploaded        TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_location_update TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (sensor_brand, sensor_id)
	)`,
	`CREATE TABLE IF NOT EXISTS sensor_schemas (
		id                        BIGSERIAL PRIMARY KEY,
		sensor_brand              TEXT NOT NULL,
		sensor_id                 TEXT NOT NULL,
		measurement_type          TEXT NOT NULL,
		measurement_time_interval TEXT NOT NULL,
		measurement_model         TEXT NOT NULL,
		sensor_table_name         TEXT NOT NULL UNIQUE,
		sensor_data_schema        JSONB NOT NULL,
		created_at                TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS sensor_schemas_sensor_idx
		ON sensor_schemas (sensor_brand, sensor_id)`,
}

// Migrate creates the catalog tables when they do not exist yet. Measurement
// tables themselves are provisioned on demand through the registry.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
