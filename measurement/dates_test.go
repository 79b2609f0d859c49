package measurement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openairmap/sensor-api/measurement"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"08/05/2024 14:30:00", "2024-08-05 14:30:00"},
		{"08/05/2024", "2024-08-05 00:00:00"},
		{"1/2/2024", "2024-01-02 00:00:00"},
		{"12/31/2024 23:59:59", "2024-12-31 23:59:59"},
		// Already-canonical values pass through unchanged.
		{"2024-08-05 14:30:00", "2024-08-05 14:30:00"},
		{"2024-08-05", "2024-08-05"},
		{"  2024-08-05  ", "2024-08-05"},
	}

	for _, tc := range tests {
		got, err := measurement.NormalizeDate(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestNormalizeDateIdempotent(t *testing.T) {
	once, err := measurement.NormalizeDate("08/05/2024 14:30:00")
	require.NoError(t, err)
	twice, err := measurement.NormalizeDate(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestNormalizeDateRejectsMalformedSlashes(t *testing.T) {
	for _, in := range []string{"08/2024", "08/05/24", "a/b/c/d"} {
		_, err := measurement.NormalizeDate(in)
		assert.Error(t, err, "input %q", in)
	}
}
