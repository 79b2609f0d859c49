// Package measurement holds the domain rules for sensor measurement streams:
// identity tuples, physical table naming, logical column types, and the date
// conventions shared by ingestion and queries.
package measurement

import (
	"fmt"
	"strings"
)

// DefaultModel is the placeholder model token used in table names when a
// stream has no correction model (every RAW stream).
const DefaultModel = "RAW-MODEL"

// Type classifies a measurement stream as raw sensor output or
// model-corrected data.
type Type string

const (
	TypeRaw       Type = "RAW"
	TypeCorrected Type = "CORRECTED"
)

// ParseType canonicalizes a measurement type string.
func ParseType(s string) (Type, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(TypeRaw):
		return TypeRaw, nil
	case string(TypeCorrected):
		return TypeCorrected, nil
	default:
		return "", fmt.Errorf("invalid measurement type %q: allowed values are RAW, CORRECTED", s)
	}
}

// Interval is the aggregation granularity of a measurement stream.
type Interval string

const (
	IntervalHourly Interval = "HOURLY"
	IntervalDaily  Interval = "DAILY"
	IntervalOther  Interval = "OTHER"
)

// ParseInterval canonicalizes a time interval string.
func ParseInterval(s string) (Interval, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(IntervalHourly):
		return IntervalHourly, nil
	case string(IntervalDaily):
		return IntervalDaily, nil
	case string(IntervalOther):
		return IntervalOther, nil
	default:
		return "", fmt.Errorf("invalid time interval %q: allowed values are HOURLY, DAILY, OTHER", s)
	}
}

// Identity selects exactly one physical measurement table.
type Identity struct {
	SensorBrand string
	SensorID    string
	Type        Type
	Interval    Interval
	Model       string // empty for RAW streams
}

// NewIdentity validates and canonicalizes the raw identity fields. A model is
// required for CORRECTED streams and rejected for RAW ones, which keeps the
// derived table names of the two types disjoint.
func NewIdentity(brand, id, typ, interval, model string) (Identity, error) {
	if strings.TrimSpace(brand) == "" || strings.TrimSpace(id) == "" {
		return Identity{}, fmt.Errorf("sensor brand and sensor ID are required")
	}

	t, err := ParseType(typ)
	if err != nil {
		return Identity{}, err
	}
	iv, err := ParseInterval(interval)
	if err != nil {
		return Identity{}, err
	}

	model = strings.TrimSpace(model)
	if model == DefaultModel {
		model = ""
	}
	if t == TypeCorrected && model == "" {
		return Identity{}, fmt.Errorf("measurement model is required for CORRECTED streams")
	}
	if t == TypeRaw && model != "" {
		return Identity{}, fmt.Errorf("measurement model %q is not applicable to RAW streams", model)
	}

	return Identity{
		SensorBrand: strings.TrimSpace(brand),
		SensorID:    strings.TrimSpace(id),
		Type:        t,
		Interval:    iv,
		Model:       model,
	}, nil
}

// ModelToken returns the model part of the table name, falling back to the
// placeholder when the stream has no model.
func (id Identity) ModelToken() string {
	if id.Model == "" {
		return DefaultModel
	}
	return id.Model
}

// TableName derives the physical table name for this identity. The mapping
// is pure: the same tuple always yields the same name, and distinct tuples
// never collide because every field appears as its own underscore-delimited
// segment.
func (id Identity) TableName() string {
	return fmt.Sprintf("%s_%s_%s_%s_%s",
		id.SensorBrand, id.SensorID, id.ModelToken(), id.Type, id.Interval)
}
