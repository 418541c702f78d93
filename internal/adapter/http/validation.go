package http

import (
	"encoding/json"
	"errors"
	"reflect"
	"strconv"
	"strings"
	"time"

	"loan-origination-api/internal/apperror"

	"github.com/go-playground/validator/v10"
)

type FieldError = apperror.FieldError

type CustomValidator struct {
	v   *validator.Validate
	now func() time.Time
}

func NewValidator() *CustomValidator { return NewValidatorWithClock(time.Now) }

// NewValidatorWithClock lets tests pin "current year".
func NewValidatorWithClock(now func() time.Time) *CustomValidator {
	cv := &CustomValidator{v: validator.New(), now: now}

	// report json names: collateral.manufacturing_year, not Collateral.ManufacturingYear
	cv.v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// upper bound moves with the calendar, so it is read on every call
	_ = cv.v.RegisterValidation("maxcurrentyear", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= int64(cv.now().Year())
	})

	return cv
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// ToFieldErrors maps validator.ValidationErrors → []FieldError in struct order.
func ToFieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		out = append(out, FieldError{Field: fieldPath(e), Message: message(e)})
	}
	return out
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "must be at most " + e.Param() + " characters"
		}
		return "must be less than or equal to " + e.Param()
	case "oneof":
		return "must be one of [" + e.Param() + "]"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "maxcurrentyear":
		return "must not be later than the current year"
	default:
		return e.Tag() + " validation failed"
	}
}

// typeMismatch turns a JSON type error into a violation of that field.
func typeMismatch(ute *json.UnmarshalTypeError) FieldError {
	field := ute.Field
	if field == "" {
		field = "_"
	}
	return FieldError{Field: field, Message: "must be " + jsonKind(ute.Type) + ", got " + ute.Value}
}

func jsonKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.String:
		return "a string"
	case reflect.Struct, reflect.Map:
		return "an object"
	default:
		return "of type " + strconv.Quote(t.String())
	}
}
