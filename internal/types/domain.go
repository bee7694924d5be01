package types

// GridPoint is a single grid location of a forecast run carrying a
// time-ordered series of scalar values. The series length is expected to
// match the run's times sequence but is not enforced; stored payloads are
// returned exactly as accepted.
type GridPoint struct {
	Lat    float64   `json:"lat" validate:"latitude"`
	Lon    float64   `json:"lon" validate:"longitude"`
	Values []float64 `json:"values" validate:"required"`
}

// Forecast is the core record for a numerical weather model run: metadata
// plus a lightweight grid data product. It is both the request payload and
// the persisted document shape; defaults are materialized by Normalize
// before validation so stored documents always carry resolved values.
type Forecast struct {
	Model     ForecastModel    `json:"model" validate:"omitempty,wx_model"`
	InitTime  string           `json:"init_time" validate:"required"`
	LeadHours int              `json:"lead_hours" validate:"required,min=1,max=240"`
	Variable  ForecastVariable `json:"variable" validate:"omitempty,wx_variable"`

	// [minLon, minLat, maxLon, maxLat]
	BBox      []float64 `json:"bbox" validate:"required,len=4"`
	GridResKm *float64  `json:"grid_res_km" validate:"omitempty,gt=0"`

	Times []string    `json:"times" validate:"required"`
	Grid  []GridPoint `json:"grid" validate:"required,dive"`
}

// Normalize fills omitted fields with their documented defaults.
func (f *Forecast) Normalize() {
	if f.Model == "" {
		f.Model = ModelWRF
	}
	if f.Variable == "" {
		f.Variable = VarTemperature2m
	}
	if f.GridResKm == nil {
		res := DefaultGridResKm
		f.GridResKm = &res
	}
}

// Alert is a threshold rule over a geofenced polygon. No evaluation engine
// consumes these; they are stored and listed for downstream tooling.
type Alert struct {
	Name       string             `json:"name" validate:"required,max=200"`
	Variable   ForecastVariable   `json:"variable" validate:"omitempty,wx_scalar"`
	Threshold  *float64           `json:"threshold" validate:"required"`
	Comparison ComparisonOperator `json:"comparison" validate:"omitempty,cmp_op"`

	// Ordered [lon, lat] pairs forming a ring. Closure is not validated.
	Polygon [][]float64 `json:"polygon" validate:"required,dive,len=2"`
	Active  *bool       `json:"active"`
}

// Normalize fills omitted fields with their documented defaults.
func (a *Alert) Normalize() {
	if a.Variable == "" {
		a.Variable = VarTemperature2m
	}
	if a.Comparison == "" {
		a.Comparison = CmpGreaterThanEq
	}
	if a.Active == nil {
		active := true
		a.Active = &active
	}
}

// MeteogramRequest asks for a synthetic point time series. It is never
// persisted. ForecastID is accepted for forward compatibility and ignored
// by the compute path.
type MeteogramRequest struct {
	Lat        *float64         `json:"lat" validate:"required,latitude"`
	Lon        *float64         `json:"lon" validate:"required,longitude"`
	Variable   ForecastVariable `json:"variable" validate:"omitempty,wx_scalar"`
	ForecastID string           `json:"forecast_id"`
}

// Normalize fills omitted fields with their documented defaults.
func (m *MeteogramRequest) Normalize() {
	if m.Variable == "" {
		m.Variable = VarTemperature2m
	}
}

// ForecastRecord is the outward-facing shape of a stored forecast: the
// document fields plus the store-assigned identifier as a plain string
// named "id". The store-native key never appears in API payloads.
type ForecastRecord struct {
	ID string `json:"id"`
	Forecast
}

// AlertRecord is the outward-facing shape of a stored alert.
type AlertRecord struct {
	ID string `json:"id"`
	Alert
}
