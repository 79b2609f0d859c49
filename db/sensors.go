package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Sensor represents a row of the sensor catalog.
type Sensor struct {
	SensorBrand        string    `json:"sensor_brand"`
	SensorID           string    `json:"sensor_id"`
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	LastLatitude       *float64  `json:"last_latitude,omitempty"`
	LastLongitude      *float64  `json:"last_longitude,omitempty"`
	IsActive           bool      `json:"is_active"`
	DateUploaded       time.Time `json:"date_uploaded"`
	LastLocationUpdate time.Time `json:"last_location_update"`
}

const sensorColumns = `sensor_brand, sensor_id, latitude, longitude,
	last_latitude, last_longitude, is_active, date_uploaded, last_location_update`

const listSensorsSQL = `
	SELECT ` + sensorColumns + `
	FROM sensors
	ORDER BY sensor_brand, sensor_id
`

const listSensorsByBrandSQL = `
	SELECT ` + sensorColumns + `
	FROM sensors
	WHERE sensor_brand = $1
	ORDER BY sensor_id
`

const getSensorSQL = `
	SELECT ` + sensorColumns + `
	FROM sensors
	WHERE sensor_brand = $1 AND sensor_id = $2
`

func scanSensor(row pgx.Row) (Sensor, error) {
	var s Sensor
	err := row.Scan(
		&s.SensorBrand,
		&s.SensorID,
		&s.Latitude,
		&s.Longitude,
		&s.LastLatitude,
		&s.LastLongitude,
		&s.IsActive,
		&s.DateUploaded,
		&s.LastLocationUpdate,
	)
	return s, err
}

// ListSensors returns all sensor catalog records.
func (s *Store) ListSensors(ctx context.Context) ([]Sensor, error) {
	return s.querySensors(ctx, listSensorsSQL)
}

// ListSensorsByBrand returns all sensors of one brand.
func (s *Store) ListSensorsByBrand(ctx context.Context, brand string) ([]Sensor, error) {
	return s.querySensors(ctx, listSensorsByBrandSQL, brand)
}

func (s *Store) querySensors(ctx context.Context, sql string, args ...any) ([]Sensor, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list sensors: %w", err)
	}
	defer rows.Close()

	sensors := make([]Sensor, 0)
	for rows.Next() {
		sensor, err := scanSensor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sensor: %w", err)
		}
		sensors = append(sensors, sensor)
	}
	return sensors, rows.Err()
}

// GetSensor returns one sensor, or ErrNotFound.
func (s *Store) GetSensor(ctx context.Context, brand, id string) (Sensor, error) {
	sensor, err := scanSensor(s.pool.QueryRow(ctx, getSensorSQL, brand, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Sensor{}, fmt.Errorf("sensor %s/%s: %w", brand, id, ErrNotFound)
	}
	if err != nil {
		return Sensor{}, fmt.Errorf("get sensor: %w", err)
	}
	return sensor, nil
}

const insertSensorSQL = `
	INSERT INTO sensors (sensor_brand, sensor_id, latitude, longitude)
	VALUES ($1, $2, $3, $4)
`

// RegisterSensor inserts a new catalog record. A duplicate (brand, id) pair
// surfaces as ErrAlreadyExists via the primary-key violation.
func (s *Store) RegisterSensor(ctx context.Context, brand, id string, lat, lon float64) error {
	if _, err := s.pool.Exec(ctx, insertSensorSQL, brand, id, lat, lon); err != nil {
		return fmt.Errorf("register sensor: %w", translate(err))
	}
	return nil
}

const updateLocationSQL = `
	UPDATE sensors
	SET last_latitude  = latitude,
	    last_longitude = longitude,
	    latitude  = $3,
	    longitude = $4,
	    last_location_update = now()
	WHERE sensor_brand = $1 AND sensor_id = $2
	RETURNING last_latitude, last_longitude
`

// UpdateSensorLocation moves a sensor, archiving the prior coordinates into
// the last_latitude/last_longitude fields. It returns the archived pair.
func (s *Store) UpdateSensorLocation(ctx context.Context, brand, id string, lat, lon float64) (prevLat, prevLon float64, err error) {
	err = s.pool.QueryRow(ctx, updateLocationSQL, brand, id, lat, lon).Scan(&prevLat, &prevLon)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, fmt.Errorf("sensor %s/%s: %w", brand, id, ErrNotFound)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("update sensor location: %w", err)
	}
	return prevLat, prevLon, nil
}

const deprecateSensorSQL = `
	UPDATE sensors
	SET is_active = FALSE
	WHERE sensor_brand = $1 AND sensor_id = $2
`

// DeprecateSensor flags a sensor inactive without removing its data. There
// is no reactivate operation.
func (s *Store) DeprecateSensor(ctx context.Context, brand, id string) error {
	tag, err := s.pool.Exec(ctx, deprecateSensorSQL, brand, id)
	if err != nil {
		return fmt.Errorf("deprecate sensor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sensor %s/%s: %w", brand, id, ErrNotFound)
	}
	return nil
}
