package dataset

import (
	"math"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObservations_File(t *testing.T) {
	f, err := os.Open("testdata/observations.csv")
	require.NoError(t, err)
	defer f.Close()

	obs, skipped, err := ParseObservations(f)
	require.NoError(t, err)

	assert.Equal(t, 1, skipped, "the non-integer year row is dropped")
	require.Len(t, obs, 5)

	assert.Equal(t, Observation{ISO3C: "USA", Year: 1999, Value: 100, Type: "x"}, obs[0])
	assert.True(t, math.IsNaN(obs[2].Value), "non-numeric value becomes NaN")
	assert.True(t, math.IsNaN(obs[3].Value), "empty value becomes NaN")
	assert.False(t, obs[2].Positive())
	assert.Equal(t, "y", obs[3].Type)
}

func TestParseObservations_MissingColumn(t *testing.T) {
	_, _, err := ParseObservations(strings.NewReader("iso3c,year,value\nUSA,1999,1\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "type")
}

func TestParseObservations_Empty(t *testing.T) {
	_, _, err := ParseObservations(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestParseObservations_ShortRowsAndFloatYears(t *testing.T) {
	in := "type,value,year,iso3c\nx,5,2001.0,ARG\nx,7\n"
	obs, skipped, err := ParseObservations(strings.NewReader(in))
	require.NoError(t, err)

	require.Len(t, obs, 1)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, Observation{ISO3C: "ARG", Year: 2001, Value: 5, Type: "x"}, obs[0])
}

func TestParseObservations_NonFiniteValues(t *testing.T) {
	tests := []struct {
		raw      string
		wantNaN  bool
		wantSame float64
	}{
		{"inf", true, 0},
		{"+Inf", true, 0},
		{"-Infinity", true, 0},
		{"1e400", true, 0},
		{"NaN", true, 0},
		{"abc", true, 0},
		{"", true, 0},
		{"0.0001234", false, 0.0001234},
		{"1e300", false, 1e300},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			in := "iso3c,year,value,type\nFRA,2000," + tt.raw + ",x\n"
			obs, skipped, err := ParseObservations(strings.NewReader(in))
			require.NoError(t, err)
			require.Len(t, obs, 1)
			assert.Zero(t, skipped)

			if tt.wantNaN {
				assert.True(t, math.IsNaN(obs[0].Value), "got %v", obs[0].Value)
				assert.False(t, obs[0].Positive())
				return
			}
			assert.Equal(t, tt.wantSame, obs[0].Value)
		})
	}
}
