package types

// Validation constraint constants. Struct tags repeat the numeric bounds
// because Go tags cannot reference constants; these are the authoritative
// values for everything outside tag syntax.
const (
	MinLat = -90.0
	MaxLat = 90.0
	MinLon = -180.0
	MaxLon = 180.0

	MinLeadHours  = 1
	MaxLeadHours  = 240
	BBoxLen       = 4
	MaxNameLength = 200

	DefaultGridResKm = 10.0
)

// Listing endpoints default and cap their result counts per collection.
const (
	DefaultForecastListLimit = 20
	MaxForecastListLimit     = 200
	DefaultAlertListLimit    = 50
	MaxAlertListLimit        = 500
)

// ClampLimit bounds a caller-supplied result limit to [1, max]. Values
// below 1 are raised to 1, values above max are lowered to max.
func ClampLimit(limit, max int) int {
	if limit < 1 {
		return 1
	}
	if limit > max {
		return max
	}
	return limit
}
