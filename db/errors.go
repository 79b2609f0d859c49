package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors surfaced by the storage layer. Handlers map these onto
// HTTP statuses with errors.Is.
var (
	// ErrNotFound covers absent sensors, registry entries, and measurement
	// tables.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists covers duplicate sensor registration, duplicate schema
	// registration, and duplicate-table or duplicate-column races detected by
	// the database itself.
	ErrAlreadyExists = errors.New("already exists")

	// ErrSchemaMismatch is returned when an incoming record's field set does
	// not exactly equal the live column set of the target table.
	ErrSchemaMismatch = errors.New("column names do not match table schema")

	// ErrInvalidSchema is returned when a declared or resulting schema breaks
	// the exactly-one-date-column rule.
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrNoDateColumn means the live table has zero or several temporal
	// columns, so no ordering or range filtering is possible.
	ErrNoDateColumn = errors.New("table has no resolvable date column")

	// ErrNoData is the empty-result outcome of a valid range query.
	ErrNoData = errors.New("no data found")
)

// PostgreSQL error codes used as the storage-level backstop for concurrent
// provisioning. Two racing creates both observe "does not exist"; the loser
// gets one of these instead of an application-level lock.
const (
	pgDuplicateTable  = "42P07"
	pgUniqueViolation = "23505"
	pgDuplicateColumn = "42701"
	pgUndefinedTable  = "42P01"
	pgUndefinedColumn = "42703"
)

// translate rewrites driver errors that have a contract-level meaning into
// the sentinel taxonomy, keeping the driver message for the caller.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgDuplicateTable, pgUniqueViolation, pgDuplicateColumn:
			return fmt.Errorf("%w: %s", ErrAlreadyExists, pgErr.Message)
		case pgUndefinedTable, pgUndefinedColumn:
			return fmt.Errorf("%w: %s", ErrNotFound, pgErr.Message)
		}
	}
	return err
}
