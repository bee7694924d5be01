package types

// Collection names a logical document store namespace. Each record kind maps
// to exactly one collection; renaming a Go type never changes where records
// are persisted.
type Collection string

const (
	CollectionForecasts Collection = "forecast"
	CollectionAlerts    Collection = "alert"
)

// ForecastModel identifies the numerical weather model that produced a run.
type ForecastModel string

const (
	ModelWRF   ForecastModel = "WRF"
	ModelGFS   ForecastModel = "GFS"
	ModelICON  ForecastModel = "ICON"
	ModelECMWF ForecastModel = "ECMWF"
)

// ForecastVariable identifies a gridded output field of a model run.
type ForecastVariable string

const (
	VarTemperature2m ForecastVariable = "t2m"
	VarWindU10       ForecastVariable = "u10"
	VarWindV10       ForecastVariable = "v10"
	VarPrecipitation ForecastVariable = "precip"
	VarPressureMSL   ForecastVariable = "mslp"
)

// ComparisonOperator defines the threshold comparison for an alert rule.
type ComparisonOperator string

const (
	CmpGreaterThanEq ComparisonOperator = ">="
	CmpGreaterThan   ComparisonOperator = ">"
	CmpLessThanEq    ComparisonOperator = "<="
	CmpLessThan      ComparisonOperator = "<"
)

// AllForecastModels defines the complete set of valid forecast models.
// Used by validators to check the model field on incoming payloads.
var AllForecastModels = []string{
	string(ModelWRF),
	string(ModelGFS),
	string(ModelICON),
	string(ModelECMWF),
}

// AllForecastVariables defines the variables a forecast run may carry.
var AllForecastVariables = []string{
	string(VarTemperature2m),
	string(VarWindU10),
	string(VarWindV10),
	string(VarPrecipitation),
	string(VarPressureMSL),
}

// AllScalarVariables defines the subset of variables alert rules and
// meteogram requests may target. Wind components are excluded: a scalar
// threshold over a vector component is not a meaningful rule.
var AllScalarVariables = []string{
	string(VarTemperature2m),
	string(VarPrecipitation),
	string(VarPressureMSL),
}

// AllComparisons defines the valid threshold comparison operators.
var AllComparisons = []string{
	string(CmpGreaterThanEq),
	string(CmpGreaterThan),
	string(CmpLessThanEq),
	string(CmpLessThan),
}
