package core

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"geoforecast/internal/types"
)

// errCodeValidationInvalidValue is the fallback code for failed rules that
// have no more specific classification.
const errCodeValidationInvalidValue types.ErrorCode = "validation_invalid_value"

// ValidationError describes a single failed rule on a single field.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult aggregates all failures and warnings from one struct
// validation pass.
type ValidationResult struct {
	Errors   []ValidationError `json:"errors"`
	Warnings []string          `json:"warnings,omitempty"`
}

// IsValid reports whether the result carries no errors. Warnings alone do
// not make a result invalid.
func (r ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Validator wraps go-playground/validator with the platform's domain rules:
// weather model and variable vocabularies, comparison operators, and
// geographic coordinate checks. Field names in validation output come from
// json tags so they match the wire format clients actually send.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a Validator with all custom tags registered.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New()

	// Report field names as their json tag, not the Go identifier.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "wx_model", membershipRule(types.AllForecastModels))
	mustRegister(v, "wx_variable", membershipRule(types.AllForecastVariables))
	mustRegister(v, "wx_scalar", membershipRule(types.AllScalarVariables))
	mustRegister(v, "cmp_op", membershipRule(types.AllComparisons))

	return &Validator{
		validate: v,
		logger:   logger,
	}
}

// mustRegister registers a custom validation tag and panics on failure.
// Registration only fails for an empty tag name, which is a programming
// error caught at startup.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("core: registering validation tag %q: %v", tag, err))
	}
}

// membershipRule builds a validator.Func that accepts only values found in
// the allowed set. The field is expected to be a string-kinded type.
func membershipRule(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return slices.Contains(allowed, fl.Field().String())
	}
}

// ValidateStruct validates s and returns nil when it passes. On failure it
// returns a *types.AppError whose Code is the first failed rule's code and
// whose Details carry the full list under "validation_errors".
func (v *Validator) ValidateStruct(s any) *types.AppError {
	result := v.ValidateStructWithWarnings(s)
	if result.IsValid() {
		return nil
	}

	first := result.Errors[0]
	return types.NewAppErrorWithDetails(
		types.ErrorCode(first.Code),
		"request validation failed",
		nil,
		map[string]any{
			"validation_errors": result.Errors,
		},
	)
}

// ValidateStructWithWarnings validates s and returns the full result,
// allowing callers to inspect individual failures.
func (v *Validator) ValidateStructWithWarnings(s any) ValidationResult {
	var result ValidationResult

	err := v.validate.Struct(s)
	if err == nil {
		return result
	}

	var invalidErr *validator.InvalidValidationError
	if errors.As(err, &invalidErr) {
		// The value passed in was not a struct at all. This is a caller
		// bug, not a client error.
		v.logger.Error("validation called on non-struct value",
			slog.String("type", fmt.Sprintf("%T", s)),
		)
		result.Errors = append(result.Errors, ValidationError{
			Field:   "",
			Code:    string(types.ErrCodeInternalUnexpected),
			Message: "value cannot be validated",
		})
		return result
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			result.Errors = append(result.Errors, ValidationError{
				Field:   fe.Field(),
				Code:    string(codeFor(fe)),
				Message: messageFor(fe),
			})
		}
	}

	return result
}

// codeFor maps a field error to its stable error code. The len tag is shared
// by bounding boxes and polygon vertices, so it is disambiguated by the
// field's namespace.
func codeFor(fe validator.FieldError) types.ErrorCode {
	if fe.Tag() == "len" {
		ns := strings.ToLower(fe.Namespace())
		switch {
		case strings.Contains(ns, "bbox"):
			return types.ErrCodeValidationInvalidBBox
		case strings.Contains(ns, "polygon"):
			return types.ErrCodeValidationInvalidPolygon
		}
	}
	return types.ErrorCode(tagToErrorCode(fe.Tag()))
}

// tagToErrorCode maps a validation tag to its error code string. It is kept
// as a pure function over the tag name so the mapping can be table-tested.
func tagToErrorCode(tag string) string {
	switch tag {
	case "required":
		return string(types.ErrCodeValidationMissingField)
	case "latitude":
		return string(types.ErrCodeValidationInvalidLat)
	case "longitude":
		return string(types.ErrCodeValidationInvalidLon)
	case "wx_model":
		return string(types.ErrCodeValidationInvalidModel)
	case "wx_variable", "wx_scalar":
		return string(types.ErrCodeValidationInvalidVariable)
	case "cmp_op":
		return string(types.ErrCodeValidationInvalidComparison)
	case "min", "max", "gt":
		return string(types.ErrCodeValidationOutOfRange)
	default:
		return string(errCodeValidationInvalidValue)
	}
}

// messageFor builds the human-readable message for a failed rule.
func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("field %s is required", fe.Field())
	case "latitude":
		return fmt.Sprintf("field %s must be a valid latitude between -90 and 90", fe.Field())
	case "longitude":
		return fmt.Sprintf("field %s must be a valid longitude between -180 and 180", fe.Field())
	case "wx_model":
		return fmt.Sprintf("field %s must be one of: %s", fe.Field(), strings.Join(types.AllForecastModels, ", "))
	case "wx_variable":
		return fmt.Sprintf("field %s must be one of: %s", fe.Field(), strings.Join(types.AllForecastVariables, ", "))
	case "wx_scalar":
		return fmt.Sprintf("field %s must be one of: %s", fe.Field(), strings.Join(types.AllScalarVariables, ", "))
	case "cmp_op":
		return fmt.Sprintf("field %s must be one of: %s", fe.Field(), strings.Join(types.AllComparisons, ", "))
	case "len":
		return fmt.Sprintf("field %s must contain exactly %s elements", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("field %s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("field %s must be at most %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("field %s must be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("field %s failed validation rule %q", fe.Field(), fe.Tag())
	}
}
