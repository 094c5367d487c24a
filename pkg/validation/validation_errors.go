package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// User-facing messages for the contact form
const (
	MsgFieldsRequired = "All fields and CAPTCHA are required."
	MsgInvalidEmail   = "Invalid email format."
	MsgInvalidInput   = "Invalid form data."
	MsgFieldTooLong   = "One or more fields are too long."
)

// ContactMessage collapses validation errors into the single message shown to
// the submitter. Missing fields take precedence over a malformed email, which
// takes precedence over an overlong value.
func ContactMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return MsgInvalidInput
	}

	msg := MsgInvalidInput
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			return MsgFieldsRequired
		case "simple_email":
			msg = MsgInvalidEmail
		case "max":
			if msg != MsgInvalidEmail {
				msg = MsgFieldTooLong
			}
		}
	}
	return msg
}

// FormatValidationErrors lists failing fields for logs, e.g. "Phone: required"
func FormatValidationErrors(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, fmt.Sprintf("%s: %s", e.Field(), e.Tag()))
	}
	return messages
}
