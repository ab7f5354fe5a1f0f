// Package validate wraps go-playground/validator for request structs and adds
// a "phone" rule backed by libphonenumber.
package validate

import (
	"errors"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/pawanbhattarai/PMS/internal/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

var (
	v      *validator.Validate
	region atomic.Value
)

func init() {
	region.Store("US")

	v = validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return Phone(fl.Field().String()) == nil
	}); err != nil {
		panic(err)
	}
}

// SetDefaultRegion sets the region used for phone numbers without a country code.
func SetDefaultRegion(r string) {
	if r = strings.ToUpper(strings.TrimSpace(r)); r != "" {
		region.Store(r)
	}
}

// Phone reports whether s is a valid phone number in the default region or in
// international form.
func Phone(s string) error {
	p, err := libphonenumber.Parse(s, region.Load().(string))
	if err != nil {
		return err
	}
	if !libphonenumber.IsValidNumber(p) {
		return errors.New("phone number is not valid")
	}
	return nil
}

// Struct validates s and returns an apperr validation error carrying one entry
// per failed field.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return apperr.Wrap(err, "validate request")
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = message(fe)
	}
	return &apperr.Error{Kind: apperr.Validation, Message: "invalid request", Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "phone":
		return "must be a valid phone number"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return "failed " + fe.Tag()
}
