package utils

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the console's custom tags registered:
//   - phone: parses as a valid number for CountryCode
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return ValidatePhoneNumber(fl.Field().String(), CountryCode) == nil
		})
	})
	return validate
}

func ValidateStruct(s any) error {
	return Validator().Struct(s)
}
