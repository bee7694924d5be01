package meteogram

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geoforecast/internal/types"
)

func fptr(v float64) *float64 { return &v }

func newRequest(variable types.ForecastVariable) types.MeteogramRequest {
	return types.MeteogramRequest{
		Lat:      fptr(10),
		Lon:      fptr(20),
		Variable: variable,
	}
}

func TestGenerateSeriesShape(t *testing.T) {
	fixedTime := time.Date(2026, 3, 5, 14, 23, 45, 123456789, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixedTime))
	defer SetClock(nil)

	series := Generate(newRequest(types.VarTemperature2m))

	require.Len(t, series.Times, 49)
	require.Len(t, series.Values, 49)
	assert.Equal(t, 10.0, series.Lat)
	assert.Equal(t, 20.0, series.Lon)
	assert.Equal(t, types.VarTemperature2m, series.Variable)
	assert.Equal(t, "°C", series.Units)

	// The sequence starts on the truncated hour and steps hourly through +48h.
	assert.Equal(t, "2026-03-05T14:00:00Z", series.Times[0])
	assert.Equal(t, "2026-03-05T15:00:00Z", series.Times[1])
	assert.Equal(t, "2026-03-07T14:00:00Z", series.Times[48])
}

func TestGenerateTimestampFormat(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2026, 7, 1, 9, 59, 59, 0, time.UTC)))
	defer SetClock(nil)

	series := Generate(newRequest(types.VarTemperature2m))

	for _, ts := range series.Times {
		assert.True(t, strings.HasSuffix(ts, "Z"), "timestamp %q must end with Z", ts)
		assert.Equal(t, 1, strings.Count(ts, "Z"), "timestamp %q must carry exactly one zone marker", ts)
		assert.NotContains(t, ts, "+")

		parsed, err := time.Parse(time.RFC3339, ts)
		require.NoError(t, err, "timestamp %q must parse as RFC 3339", ts)
		assert.Zero(t, parsed.Minute())
		assert.Zero(t, parsed.Second())
	}
}

func TestGenerateValues(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2026, 3, 5, 14, 0, 0, 0, time.UTC)))
	defer SetClock(nil)

	series := Generate(newRequest(types.VarTemperature2m))

	// Both sine terms vanish at index 0.
	assert.Equal(t, 15.0, series.Values[0])

	// Index 6 sits on the diurnal peak: 15 + 10*sin(pi/2) + 1.5*sin(4.2).
	assert.InDelta(t, 23.69, series.Values[6], 1e-9)

	// Two decimal places everywhere.
	for _, v := range series.Values {
		assert.InDelta(t, v, math.Round(v*100)/100, 1e-9)
	}
}

func TestGenerateValueSequenceIsVariableIndependent(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2026, 3, 5, 14, 0, 0, 0, time.UTC)))
	defer SetClock(nil)

	temperature := Generate(newRequest(types.VarTemperature2m))
	precipitation := Generate(newRequest(types.VarPrecipitation))

	assert.Equal(t, temperature.Values, precipitation.Values)
	assert.Equal(t, "units", precipitation.Units)
}

func TestGenerateValueSequenceIsClockIndependent(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2026, 3, 5, 14, 0, 0, 0, time.UTC)))
	first := Generate(newRequest(types.VarTemperature2m))

	SetClock(clockwork.NewFakeClockAt(time.Date(2027, 11, 30, 3, 12, 0, 0, time.UTC)))
	second := Generate(newRequest(types.VarTemperature2m))
	SetClock(nil)

	// Timestamps track the clock; values depend only on the step index.
	assert.NotEqual(t, first.Times[0], second.Times[0])
	assert.Equal(t, first.Values, second.Values)
}

func TestUnitsFor(t *testing.T) {
	tests := []struct {
		variable types.ForecastVariable
		want     string
	}{
		{types.VarTemperature2m, "°C"},
		{types.VarPrecipitation, "units"},
		{types.VarPressureMSL, "units"},
	}
	for _, tt := range tests {
		t.Run(string(tt.variable), func(t *testing.T) {
			assert.Equal(t, tt.want, unitsFor(tt.variable))
		})
	}
}

func TestGenerateRealClock(t *testing.T) {
	SetClock(nil)

	before := time.Now().UTC().Truncate(time.Hour)
	series := Generate(newRequest(types.VarTemperature2m))
	after := time.Now().UTC().Truncate(time.Hour)

	start, err := time.Parse(time.RFC3339, series.Times[0])
	require.NoError(t, err)
	assert.False(t, start.Before(before))
	assert.False(t, start.After(after))
}
