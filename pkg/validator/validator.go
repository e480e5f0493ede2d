package validator

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var (
	validate    = validator.New()
	hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)
)

func init() {
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})

	// HH:MM, 00:00 - 23:59
	validate.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return hhmmPattern.MatchString(fl.Field().String())
	})

	// Money fields are validated as plain numbers (gt, gte, lte ...).
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		switch v := field.Interface().(type) {
		case decimal.Decimal:
			f, _ := v.Float64()
			return f
		case decimal.NullDecimal:
			if !v.Valid {
				return nil
			}
			f, _ := v.Decimal.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{}, decimal.NullDecimal{})
	validate.RegisterAlias("dec_gt0", "gt=0")
	validate.RegisterAlias("dec_gte0", "gte=0")
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*ErrorResponse{{FailedField: "", Tag: "invalid", Value: err.Error()}}
		}
		for _, err := range validationErrs {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}

// FirstError returns a readable message for the first failure, or "" when data is valid.
func FirstError(data interface{}) string {
	errs := ValidateStruct(data)
	if len(errs) == 0 {
		return ""
	}
	first := errs[0]
	if first.Value != "" {
		return fmt.Sprintf("Validation failed: Field '%s' failed on tag '%s' (%s)", first.FailedField, first.Tag, first.Value)
	}
	return fmt.Sprintf("Validation failed: Field '%s' failed on tag '%s'", first.FailedField, first.Tag)
}

// IsValidHHMM reports whether value is a 24h HH:MM time.
func IsValidHHMM(value string) bool {
	return hhmmPattern.MatchString(value)
}
