// Package meteogram synthesizes hourly point time series for a requested
// location and variable. The values are mocked with a closed-form sine
// expression rather than derived from stored model output; only the
// timestamp sequence depends on the wall clock.
package meteogram

import (
	"math"
	"time"

	"geoforecast/internal/types"
)

const (
	// steps is the number of hourly points: the truncated start hour
	// through start+48h inclusive.
	steps = 49

	baseValue          = 15.0
	diurnalAmplitude   = 10.0
	diurnalPeriodHours = 24.0
	jitterAmplitude    = 1.5
	jitterFrequency    = 0.7

	// timeLayout has no zone designator; a literal "Z" is appended so each
	// emitted timestamp carries exactly one UTC marker.
	timeLayout = "2006-01-02T15:04:05"
)

// Series is the synthetic meteogram payload returned to callers.
type Series struct {
	Lat      float64                `json:"lat"`
	Lon      float64                `json:"lon"`
	Variable types.ForecastVariable `json:"variable"`
	Times    []string               `json:"times"`
	Values   []float64              `json:"values"`
	Units    string                 `json:"units"`
}

// Generate produces the series for a validated request. The start is the
// current UTC time truncated to the hour; values depend only on the step
// index, so two calls at different times yield identical value sequences.
func Generate(req types.MeteogramRequest) Series {
	start := clock.Now().UTC().Truncate(time.Hour)

	times := make([]string, steps)
	values := make([]float64, steps)
	for i := 0; i < steps; i++ {
		times[i] = start.Add(time.Duration(i) * time.Hour).Format(timeLayout) + "Z"
		values[i] = round2(valueAt(i))
	}

	return Series{
		Lat:      *req.Lat,
		Lon:      *req.Lon,
		Variable: req.Variable,
		Times:    times,
		Values:   values,
		Units:    unitsFor(req.Variable),
	}
}

// valueAt is the synthetic signal: a diurnal sine cycle plus a faster
// low-amplitude jitter term.
func valueAt(i int) float64 {
	x := float64(i)
	return baseValue +
		diurnalAmplitude*math.Sin(x/diurnalPeriodHours*2*math.Pi) +
		jitterAmplitude*math.Sin(x*jitterFrequency)
}

// unitsFor reports degrees Celsius for 2m temperature and the literal
// placeholder "units" for every other variable.
func unitsFor(variable types.ForecastVariable) string {
	if variable == types.VarTemperature2m {
		return "°C"
	}
	return "units"
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
