package measurement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openairmap/sensor-api/measurement"
)

func TestNewIdentity(t *testing.T) {
	tests := []struct {
		name    string
		brand   string
		id      string
		typ     string
		interva string
		model   string
		wantErr bool
	}{
		{name: "raw hourly", brand: "IQAir", id: "42", typ: "RAW", interva: "HOURLY"},
		{name: "lowercase enums accepted", brand: "IQAir", id: "42", typ: "raw", interva: "daily"},
		{name: "corrected with model", brand: "IQAir", id: "42", typ: "CORRECTED", interva: "HOURLY", model: "EPA-v2"},
		{name: "corrected without model", brand: "IQAir", id: "42", typ: "CORRECTED", interva: "HOURLY", wantErr: true},
		{name: "raw with model", brand: "IQAir", id: "42", typ: "RAW", interva: "HOURLY", model: "EPA-v2", wantErr: true},
		{name: "missing brand", brand: "", id: "42", typ: "RAW", interva: "HOURLY", wantErr: true},
		{name: "missing id", brand: "IQAir", id: " ", typ: "RAW", interva: "HOURLY", wantErr: true},
		{name: "bad type", brand: "IQAir", id: "42", typ: "AGGREGATED", interva: "HOURLY", wantErr: true},
		{name: "bad interval", brand: "IQAir", id: "42", typ: "RAW", interva: "WEEKLY", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := measurement.NewIdentity(tc.brand, tc.id, tc.typ, tc.interva, tc.model)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTableNameDeterministic(t *testing.T) {
	a, err := measurement.NewIdentity("IQAir", "42", "RAW", "HOURLY", "")
	require.NoError(t, err)
	b, err := measurement.NewIdentity("IQAir", "42", "raw", "hourly", "")
	require.NoError(t, err)

	assert.Equal(t, "IQAir_42_RAW-MODEL_RAW_HOURLY", a.TableName())
	assert.Equal(t, a.TableName(), b.TableName())
}

func TestTableNameDistinctTuples(t *testing.T) {
	raw, err := measurement.NewIdentity("IQAir", "42", "RAW", "HOURLY", "")
	require.NoError(t, err)
	corrected, err := measurement.NewIdentity("IQAir", "42", "CORRECTED", "HOURLY", "EPA-v2")
	require.NoError(t, err)
	otherModel, err := measurement.NewIdentity("IQAir", "42", "CORRECTED", "HOURLY", "EPA-v3")
	require.NoError(t, err)
	daily, err := measurement.NewIdentity("IQAir", "42", "RAW", "DAILY", "")
	require.NoError(t, err)

	names := []string{raw.TableName(), corrected.TableName(), otherModel.TableName(), daily.TableName()}
	seen := make(map[string]bool)
	for _, n := range names {
		assert.False(t, seen[n], "duplicate table name %q", n)
		seen[n] = true
	}
}

func TestModelPlaceholderInPathIsCanonical(t *testing.T) {
	// Readings routes carry the placeholder token explicitly for RAW streams;
	// it must resolve to the same identity as an absent model.
	withToken, err := measurement.NewIdentity("IQAir", "42", "RAW", "HOURLY", measurement.DefaultModel)
	require.NoError(t, err)
	without, err := measurement.NewIdentity("IQAir", "42", "RAW", "HOURLY", "")
	require.NoError(t, err)

	assert.Equal(t, without.TableName(), withToken.TableName())
}
