// Package payload turns loosely typed request bodies into validated, typed inputs.
//
// Clients send numbers as strings, multipart forms send everything as strings, and JSON bodies
// may omit fields entirely. Every builder here coerces first (spf13/cast), then validates the
// typed struct (validator tags) and reports failures with the client-facing messages.
package payload

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"

	"storefront/internal/apperr"
)

// Client-facing validation messages.
const (
	MsgMissingProductFields = "Missing required fields: name, price, category"
	MsgInvalidSizesColors   = "Invalid sizes or colors (must be arrays)"
	MsgInvalidImages        = "Invalid images (must be an array)"
	MsgInvalidOriginalPrice = "originalPrice must be a finite number"
	MsgInvalidPrice         = "price must be a finite number"
	MsgSoldOutNotBoolean    = "soldOut must be boolean"
	MsgActiveNotBoolean     = "active must be boolean"
	MsgInvalidItems         = "Invalid items (must be an array of objects)"
	MsgItemProductID        = "Each item requires productId"
	MsgItemQuantity         = "Item quantity must be a positive integer"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json names in field errors.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

// failedFields lists the json names of the fields that failed validation.
func failedFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}

// toNumber coerces numbers and numeric strings. Booleans, objects and blanks are not numbers.
func toNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		if strings.TrimSpace(val) == "" {
			return 0, false
		}
		f, err := cast.ToFloat64E(strings.TrimSpace(val))
		return f, err == nil
	default:
		f, err := cast.ToFloat64E(val)
		return f, err == nil
	}
}

// toStringList accepts a JSON array. A missing or null value is an empty list; anything else fails.
func toStringList(v any) ([]string, bool) {
	switch val := v.(type) {
	case nil:
		return []string{}, true
	case []string:
		return val, true
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, err := cast.ToStringE(item)
			if err != nil {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// toBool accepts JSON booleans and, for multipart forms, "true"/"false" strings.
func toBool(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		b, err := cast.ToBoolE(strings.TrimSpace(val))
		return b, err == nil
	default:
		return false, false
	}
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	return cast.ToString(v)
}

func invalid(format string, args ...any) error {
	return apperr.Validation(fmt.Sprintf(format, args...))
}
