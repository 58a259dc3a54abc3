package incident

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParameterVector_ValidRow(t *testing.T) {
	p, err := ParseParameterVector("  1000\t30 0.9995   1800 ")
	require.NoError(t, err)
	assert.Equal(t, incidentParams, p)
	assert.Equal(t, []float64{1000, 30, 0.9995, 1800}, p.Values())
}

func TestParseParameterVector_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		row   string
		field string
	}{
		{"too few", "1000 30 0.9", "parameters"},
		{"too many", "1000 30 0.9 1800 1", "parameters"},
		{"not a number", "1000 thirty 0.9 1800", "parameters"},
		{"zero rate1", "0 30 0.9 1800", "arrival_rate_1"},
		{"negative rate2", "1000 30 0.9 -5", "arrival_rate_2"},
		{"negative latency", "1000 -1 0.9 1800", "database_latency_base"},
		{"availability above one", "1000 30 1.01 1800", "database_availability"},
		{"NaN", "1000 NaN 0.9 1800", "parameters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseParameterVector(tt.row)
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestNewParameterVector_BoundaryValues(t *testing.T) {
	_, err := NewParameterVector([]float64{1, 0, 0, 1})
	assert.NoError(t, err)
	_, err = NewParameterVector([]float64{1, 0, 1, 1})
	assert.NoError(t, err)
	_, err = NewParameterVector([]float64{math.Inf(1), 0, 1, 1})
	assert.Error(t, err)
}
