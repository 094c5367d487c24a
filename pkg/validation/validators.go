package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Deliberately loose: something@something.tld with no whitespace
var emailShapeRegex = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// New returns a validator with the custom rules registered
func New() *validator.Validate {
	v := validator.New()
	RegisterValidators(v)
	return v
}

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("simple_email", SimpleEmail)
}

// SimpleEmail checks only the local@domain.tld shape
func SimpleEmail(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true // Optional, use required if needed
	}
	return emailShapeRegex.MatchString(val)
}
