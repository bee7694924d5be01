package core

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"geoforecast/internal/types"
)

// testLogger returns a quiet logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// -- Test structs for custom validation tags --

type testModelStruct struct {
	Model string `validate:"omitempty,wx_model"`
}

type testVariableStruct struct {
	Variable string `validate:"omitempty,wx_variable"`
}

type testScalarStruct struct {
	Variable string `validate:"omitempty,wx_scalar"`
}

type testComparisonStruct struct {
	Comparison string `validate:"omitempty,cmp_op"`
}

type testRequiredStruct struct {
	Name     string `json:"name" validate:"required"`
	InitTime string `json:"init_time" validate:"required"`
}

type testMixedStruct struct {
	Name  string `json:"name" validate:"required"`
	Model string `json:"model" validate:"omitempty,wx_model"`
}

// -- ValidationResult tests --

func TestValidationResult_IsValid(t *testing.T) {
	t.Run("empty result is valid", func(t *testing.T) {
		r := ValidationResult{}
		if !r.IsValid() {
			t.Error("expected empty ValidationResult to be valid")
		}
	})

	t.Run("result with errors is not valid", func(t *testing.T) {
		r := ValidationResult{
			Errors: []ValidationError{{Field: "name", Code: "required", Message: "required"}},
		}
		if r.IsValid() {
			t.Error("expected ValidationResult with errors to be invalid")
		}
	})

	t.Run("result with only warnings is valid", func(t *testing.T) {
		r := ValidationResult{
			Warnings: []string{"default model applied"},
		}
		if !r.IsValid() {
			t.Error("expected ValidationResult with only warnings to be valid")
		}
	})
}

// -- NewValidator tests --

func TestNewValidator(t *testing.T) {
	v := NewValidator(testLogger())
	if v == nil {
		t.Fatal("NewValidator returned nil")
	}
	if v.validate == nil {
		t.Error("expected validate field to be non-nil")
	}
	if v.logger == nil {
		t.Error("expected logger field to be non-nil")
	}
}

func TestNewValidator_NilLogger(t *testing.T) {
	v := NewValidator(nil)
	if v == nil {
		t.Fatal("NewValidator returned nil")
	}
	if v.logger == nil {
		t.Error("expected nil logger to fall back to the default logger")
	}
}

// -- ValidateStruct tests --

func TestValidateStruct_Success(t *testing.T) {
	v := NewValidator(testLogger())

	req := testRequiredStruct{
		Name:     "Test",
		InitTime: "2026-08-25T00:00:00Z",
	}

	err := v.ValidateStruct(req)
	if err != nil {
		t.Errorf("expected nil error, got: %v", err)
	}
}

func TestValidateStruct_Failure_ReturnsAppError(t *testing.T) {
	v := NewValidator(testLogger())

	req := testRequiredStruct{
		Name:     "",
		InitTime: "",
	}

	err := v.ValidateStruct(req)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T: %v", err, err)
	}

	// The error code should map to the first validation failure.
	if appErr.Code != types.ErrCodeValidationMissingField {
		t.Errorf("expected code %s, got %s", types.ErrCodeValidationMissingField, appErr.Code)
	}

	// Details should contain validation_errors.
	if appErr.Details == nil {
		t.Fatal("expected non-nil details")
	}
	ve, ok := appErr.Details["validation_errors"]
	if !ok {
		t.Fatal("expected validation_errors key in details")
	}
	errs, ok := ve.([]ValidationError)
	if !ok {
		t.Fatalf("expected []ValidationError, got %T", ve)
	}
	if len(errs) < 2 {
		t.Errorf("expected at least 2 validation errors, got %d", len(errs))
	}
}

func TestValidateStruct_UsesJSONFieldNames(t *testing.T) {
	v := NewValidator(testLogger())

	req := testRequiredStruct{Name: "ok", InitTime: ""}

	result := v.ValidateStructWithWarnings(req)
	if result.IsValid() {
		t.Fatal("expected invalid result")
	}
	if result.Errors[0].Field != "init_time" {
		t.Errorf("expected field name from json tag %q, got %q", "init_time", result.Errors[0].Field)
	}
}

// -- ValidateStructWithWarnings tests --

func TestValidateStructWithWarnings_Valid(t *testing.T) {
	v := NewValidator(testLogger())

	req := testRequiredStruct{
		Name:     "Test",
		InitTime: "2026-08-25T00:00:00Z",
	}

	result := v.ValidateStructWithWarnings(req)
	if !result.IsValid() {
		t.Errorf("expected valid result, got errors: %v", result.Errors)
	}
}

func TestValidateStructWithWarnings_Invalid(t *testing.T) {
	v := NewValidator(testLogger())

	req := testMixedStruct{
		Name:  "",
		Model: "HRRR",
	}

	result := v.ValidateStructWithWarnings(req)
	if result.IsValid() {
		t.Error("expected invalid result")
	}
	if len(result.Errors) < 2 {
		t.Errorf("expected at least 2 errors, got %d", len(result.Errors))
	}

	// Check that proper codes are set.
	codeMap := make(map[string]bool)
	for _, e := range result.Errors {
		codeMap[e.Code] = true
	}
	if !codeMap[string(types.ErrCodeValidationMissingField)] {
		t.Error("expected validation_missing_required_field code for empty Name")
	}
	if !codeMap[string(types.ErrCodeValidationInvalidModel)] {
		t.Error("expected validation_invalid_model code for unknown model")
	}
}

func TestValidateStructWithWarnings_NonStruct(t *testing.T) {
	v := NewValidator(testLogger())

	result := v.ValidateStructWithWarnings("not a struct")
	if result.IsValid() {
		t.Fatal("expected invalid result for non-struct value")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected exactly 1 error, got %d", len(result.Errors))
	}
	if result.Errors[0].Code != string(types.ErrCodeInternalUnexpected) {
		t.Errorf("expected internal error code, got %s", result.Errors[0].Code)
	}
}

// -- Model vocabulary tests --

func TestValidateModel_Valid(t *testing.T) {
	v := NewValidator(testLogger())

	for _, model := range types.AllForecastModels {
		t.Run(model, func(t *testing.T) {
			req := testModelStruct{Model: model}
			if err := v.ValidateStruct(req); err != nil {
				t.Errorf("expected model %q to be valid, got: %v", model, err)
			}
		})
	}
}

func TestValidateModel_Invalid(t *testing.T) {
	v := NewValidator(testLogger())

	invalidModels := []string{"HRRR", "wrf", "gfs", "NAM", "unknown"}

	for _, model := range invalidModels {
		t.Run(model, func(t *testing.T) {
			req := testModelStruct{Model: model}
			err := v.ValidateStruct(req)
			if err == nil {
				t.Errorf("expected model %q to be invalid", model)
				return
			}

			var appErr *types.AppError
			if errors.As(err, &appErr) {
				if appErr.Code != types.ErrCodeValidationInvalidModel {
					t.Errorf("expected code %s, got %s", types.ErrCodeValidationInvalidModel, appErr.Code)
				}
			}
		})
	}
}

func TestValidateModel_Empty_SkipsValidation(t *testing.T) {
	v := NewValidator(testLogger())

	// Empty value with omitempty passes; defaulting happens in Normalize.
	req := testModelStruct{Model: ""}
	if err := v.ValidateStruct(req); err != nil {
		t.Errorf("expected empty model with omitempty to pass, got: %v", err)
	}
}

// -- Variable vocabulary tests --

func TestValidateVariable_Valid(t *testing.T) {
	v := NewValidator(testLogger())

	for _, variable := range types.AllForecastVariables {
		t.Run(variable, func(t *testing.T) {
			req := testVariableStruct{Variable: variable}
			if err := v.ValidateStruct(req); err != nil {
				t.Errorf("expected variable %q to be valid, got: %v", variable, err)
			}
		})
	}
}

func TestValidateVariable_Invalid(t *testing.T) {
	v := NewValidator(testLogger())

	invalidVariables := []string{"temperature", "T2M", "wind", "rain"}

	for _, variable := range invalidVariables {
		t.Run(variable, func(t *testing.T) {
			req := testVariableStruct{Variable: variable}
			err := v.ValidateStruct(req)
			if err == nil {
				t.Errorf("expected variable %q to be invalid", variable)
				return
			}

			var appErr *types.AppError
			if errors.As(err, &appErr) {
				if appErr.Code != types.ErrCodeValidationInvalidVariable {
					t.Errorf("expected code %s, got %s", types.ErrCodeValidationInvalidVariable, appErr.Code)
				}
			}
		})
	}
}

// -- Scalar variable tests --

func TestValidateScalar_Valid(t *testing.T) {
	v := NewValidator(testLogger())

	for _, variable := range types.AllScalarVariables {
		t.Run(variable, func(t *testing.T) {
			req := testScalarStruct{Variable: variable}
			if err := v.ValidateStruct(req); err != nil {
				t.Errorf("expected scalar variable %q to be valid, got: %v", variable, err)
			}
		})
	}
}

func TestValidateScalar_RejectsWindComponents(t *testing.T) {
	v := NewValidator(testLogger())

	// Wind components are valid forecast variables but not scalar targets.
	for _, variable := range []string{"u10", "v10"} {
		t.Run(variable, func(t *testing.T) {
			req := testScalarStruct{Variable: variable}
			err := v.ValidateStruct(req)
			if err == nil {
				t.Errorf("expected wind component %q to be rejected as a scalar", variable)
				return
			}

			var appErr *types.AppError
			if errors.As(err, &appErr) {
				if appErr.Code != types.ErrCodeValidationInvalidVariable {
					t.Errorf("expected code %s, got %s", types.ErrCodeValidationInvalidVariable, appErr.Code)
				}
			}
		})
	}
}

// -- Comparison operator tests --

func TestValidateComparison_Valid(t *testing.T) {
	v := NewValidator(testLogger())

	for _, cmp := range types.AllComparisons {
		t.Run(cmp, func(t *testing.T) {
			req := testComparisonStruct{Comparison: cmp}
			if err := v.ValidateStruct(req); err != nil {
				t.Errorf("expected comparison %q to be valid, got: %v", cmp, err)
			}
		})
	}
}

func TestValidateComparison_Invalid(t *testing.T) {
	v := NewValidator(testLogger())

	invalidComparisons := []string{"==", "!=", "gte", "greater_than"}

	for _, cmp := range invalidComparisons {
		t.Run(cmp, func(t *testing.T) {
			req := testComparisonStruct{Comparison: cmp}
			err := v.ValidateStruct(req)
			if err == nil {
				t.Errorf("expected comparison %q to be invalid", cmp)
				return
			}

			var appErr *types.AppError
			if errors.As(err, &appErr) {
				if appErr.Code != types.ErrCodeValidationInvalidComparison {
					t.Errorf("expected code %s, got %s", types.ErrCodeValidationInvalidComparison, appErr.Code)
				}
			}
		})
	}
}

// -- Domain payload tests --

func validForecast() types.Forecast {
	res := 3.0
	return types.Forecast{
		Model:     types.ModelWRF,
		InitTime:  "2026-08-25T00:00:00Z",
		LeadHours: 48,
		Variable:  types.VarTemperature2m,
		BBox:      []float64{-105.5, 39.5, -104.5, 40.5},
		GridResKm: &res,
		Times:     []string{"2026-08-25T00:00:00Z", "2026-08-25T01:00:00Z"},
		Grid: []types.GridPoint{
			{Lat: 40.0, Lon: -105.0, Values: []float64{15.2, 15.8}},
		},
	}
}

func validAlert() types.Alert {
	threshold := 35.0
	active := true
	return types.Alert{
		Name:       "Denver heat warning",
		Variable:   types.VarTemperature2m,
		Threshold:  &threshold,
		Comparison: types.CmpGreaterThanEq,
		Polygon: [][]float64{
			{-105.1, 39.9},
			{-104.9, 39.9},
			{-104.9, 40.1},
			{-105.1, 40.1},
			{-105.1, 39.9},
		},
		Active: &active,
	}
}

func TestValidateForecast_Valid(t *testing.T) {
	v := NewValidator(testLogger())

	f := validForecast()
	if err := v.ValidateStruct(f); err != nil {
		t.Errorf("expected valid forecast to pass, got: %v", err)
	}
}

func TestValidateForecast_BBoxLength(t *testing.T) {
	v := NewValidator(testLogger())

	f := validForecast()
	f.BBox = []float64{-105.5, 39.5, -104.5}

	err := v.ValidateStruct(f)
	if err == nil {
		t.Fatal("expected 3-element bbox to fail validation")
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T", err)
	}
	if appErr.Code != types.ErrCodeValidationInvalidBBox {
		t.Errorf("expected code %s, got %s", types.ErrCodeValidationInvalidBBox, appErr.Code)
	}
}

func TestValidateForecast_LeadHoursRange(t *testing.T) {
	v := NewValidator(testLogger())

	f := validForecast()
	f.LeadHours = 300

	err := v.ValidateStruct(f)
	if err == nil {
		t.Fatal("expected lead_hours above 240 to fail validation")
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T", err)
	}
	if appErr.Code != types.ErrCodeValidationOutOfRange {
		t.Errorf("expected code %s, got %s", types.ErrCodeValidationOutOfRange, appErr.Code)
	}
}

func TestValidateForecast_GridCoordinates(t *testing.T) {
	v := NewValidator(testLogger())

	f := validForecast()
	f.Grid = []types.GridPoint{
		{Lat: 95.0, Lon: -105.0, Values: []float64{15.2}},
	}

	err := v.ValidateStruct(f)
	if err == nil {
		t.Fatal("expected out-of-range grid latitude to fail validation")
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T", err)
	}
	if appErr.Code != types.ErrCodeValidationInvalidLat {
		t.Errorf("expected code %s, got %s", types.ErrCodeValidationInvalidLat, appErr.Code)
	}
}

func TestValidateForecast_NegativeGridRes(t *testing.T) {
	v := NewValidator(testLogger())

	f := validForecast()
	res := -1.0
	f.GridResKm = &res

	err := v.ValidateStruct(f)
	if err == nil {
		t.Fatal("expected non-positive grid resolution to fail validation")
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T", err)
	}
	if appErr.Code != types.ErrCodeValidationOutOfRange {
		t.Errorf("expected code %s, got %s", types.ErrCodeValidationOutOfRange, appErr.Code)
	}
}

func TestValidateAlert_Valid(t *testing.T) {
	v := NewValidator(testLogger())

	a := validAlert()
	if err := v.ValidateStruct(a); err != nil {
		t.Errorf("expected valid alert to pass, got: %v", err)
	}
}

func TestValidateAlert_PolygonPairs(t *testing.T) {
	v := NewValidator(testLogger())

	a := validAlert()
	a.Polygon = [][]float64{
		{-105.1, 39.9},
		{-104.9, 39.9, 1.0}, // not a [lon, lat] pair
		{-105.1, 40.1},
	}

	err := v.ValidateStruct(a)
	if err == nil {
		t.Fatal("expected malformed polygon vertex to fail validation")
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T", err)
	}
	if appErr.Code != types.ErrCodeValidationInvalidPolygon {
		t.Errorf("expected code %s, got %s", types.ErrCodeValidationInvalidPolygon, appErr.Code)
	}
}

func TestValidateAlert_MissingThreshold(t *testing.T) {
	v := NewValidator(testLogger())

	a := validAlert()
	a.Threshold = nil

	err := v.ValidateStruct(a)
	if err == nil {
		t.Fatal("expected missing threshold to fail validation")
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T", err)
	}
	if appErr.Code != types.ErrCodeValidationMissingField {
		t.Errorf("expected code %s, got %s", types.ErrCodeValidationMissingField, appErr.Code)
	}
}

func TestValidateMeteogramRequest(t *testing.T) {
	v := NewValidator(testLogger())

	lat := 40.0
	lon := -105.0

	t.Run("valid", func(t *testing.T) {
		req := types.MeteogramRequest{Lat: &lat, Lon: &lon, Variable: types.VarTemperature2m}
		if err := v.ValidateStruct(req); err != nil {
			t.Errorf("expected valid request to pass, got: %v", err)
		}
	})

	t.Run("missing lat", func(t *testing.T) {
		req := types.MeteogramRequest{Lon: &lon}
		err := v.ValidateStruct(req)
		if err == nil {
			t.Fatal("expected missing lat to fail validation")
		}

		var appErr *types.AppError
		if errors.As(err, &appErr) {
			if appErr.Code != types.ErrCodeValidationMissingField {
				t.Errorf("expected code %s, got %s", types.ErrCodeValidationMissingField, appErr.Code)
			}
		}
	})

	t.Run("lat out of range", func(t *testing.T) {
		badLat := 95.0
		req := types.MeteogramRequest{Lat: &badLat, Lon: &lon}
		err := v.ValidateStruct(req)
		if err == nil {
			t.Fatal("expected out-of-range lat to fail validation")
		}

		var appErr *types.AppError
		if errors.As(err, &appErr) {
			if appErr.Code != types.ErrCodeValidationInvalidLat {
				t.Errorf("expected code %s, got %s", types.ErrCodeValidationInvalidLat, appErr.Code)
			}
		}
	})

	t.Run("lon out of range", func(t *testing.T) {
		badLon := 200.0
		req := types.MeteogramRequest{Lat: &lat, Lon: &badLon}
		err := v.ValidateStruct(req)
		if err == nil {
			t.Fatal("expected out-of-range lon to fail validation")
		}

		var appErr *types.AppError
		if errors.As(err, &appErr) {
			if appErr.Code != types.ErrCodeValidationInvalidLon {
				t.Errorf("expected code %s, got %s", types.ErrCodeValidationInvalidLon, appErr.Code)
			}
		}
	})
}

// -- Tag mapping tests --

func TestTagToErrorCode(t *testing.T) {
	cases := []struct {
		tag      string
		expected types.ErrorCode
	}{
		{"required", types.ErrCodeValidationMissingField},
		{"latitude", types.ErrCodeValidationInvalidLat},
		{"longitude", types.ErrCodeValidationInvalidLon},
		{"wx_model", types.ErrCodeValidationInvalidModel},
		{"wx_variable", types.ErrCodeValidationInvalidVariable},
		{"wx_scalar", types.ErrCodeValidationInvalidVariable},
		{"cmp_op", types.ErrCodeValidationInvalidComparison},
		{"min", types.ErrCodeValidationOutOfRange},
		{"max", types.ErrCodeValidationOutOfRange},
		{"gt", types.ErrCodeValidationOutOfRange},
		{"email", errCodeValidationInvalidValue},
	}

	for _, tc := range cases {
		t.Run(tc.tag, func(t *testing.T) {
			got := tagToErrorCode(tc.tag)
			if got != string(tc.expected) {
				t.Errorf("tagToErrorCode(%q) = %q, want %q", tc.tag, got, tc.expected)
			}
		})
	}
}
