// Package validation decodes and checks request input, reporting every
// problem as a FieldError rather than stopping at the first one.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one invalid input field. Field is the location of
// the value, e.g. "body.content" or "query.limit".
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Error types reported in FieldError.Type.
const (
	TypeMissing        = "missing"
	TypeJSONInvalid    = "json_invalid"
	TypeObjectType     = "model_attributes_type"
	TypeStringType     = "string_type"
	TypeListType       = "list_type"
	TypeIntParsing     = "int_parsing"
	TypeStringTooShort = "string_too_short"
	TypeStringTooLong  = "string_too_long"
	TypeTooLong        = "too_long"
	TypeGreaterOrEqual = "greater_than_equal"
	TypeLessOrEqual    = "less_than_equal"
	TypeValueError     = "value_error"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check runs struct tag validation on s and converts failures whose field
// has not already been reported.
func check(location string, s any, reported map[string]bool) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: location, Message: err.Error(), Type: TypeValueError}}
	}

	var out []FieldError
	for _, fe := range verrs {
		field := location + "." + fe.Field()
		if reported[field] {
			continue
		}
		out = append(out, translate(field, fe))
	}
	return out
}

func translate(field string, fe validator.FieldError) FieldError {
	kind := fe.Kind()
	switch fe.Tag() {
	case "required":
		return FieldError{Field: field, Message: "Field required", Type: TypeMissing}
	case "min":
		if kind == reflect.String {
			return FieldError{Field: field, Message: fmt.Sprintf("String should have at least %s %s", fe.Param(), plural(fe.Param(), "character")), Type: TypeStringTooShort}
		}
	case "max":
		if kind == reflect.String {
			return FieldError{Field: field, Message: fmt.Sprintf("String should have at most %s %s", fe.Param(), plural(fe.Param(), "character")), Type: TypeStringTooLong}
		}
		if kind == reflect.Slice {
			n := reflect.ValueOf(fe.Value()).Len()
			return FieldError{Field: field, Message: fmt.Sprintf("List should have at most %s items after validation, not %d", fe.Param(), n), Type: TypeTooLong}
		}
	case "gte":
		return FieldError{Field: field, Message: "Input should be greater than or equal to " + fe.Param(), Type: TypeGreaterOrEqual}
	case "lte":
		return FieldError{Field: field, Message: "Input should be less than or equal to " + fe.Param(), Type: TypeLessOrEqual}
	}
	return FieldError{Field: field, Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag()), Type: TypeValueError}
}

func plural(n, unit string) string {
	if n == "1" {
		return unit
	}
	return unit + "s"
}
