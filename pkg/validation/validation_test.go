package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type form struct {
	Name  string `validate:"required,max=10"`
	Email string `validate:"required,simple_email"`
}

func TestSimpleEmail(t *testing.T) {
	v := New()
	for email, ok := range map[string]bool{
		"jane@example.com":      true,
		"a@b.co":                true,
		"first.last@sub.dom.io": true,
		"jane@example":          false,
		"jane.example.com":      false,
		"jane @example.com":     false,
		"@example.com":          false,
	} {
		err := v.Struct(form{Name: "x", Email: email})
		assert.Equal(t, ok, err == nil, email)
	}
}

func TestContactMessage(t *testing.T) {
	v := New()

	t.Run("missing field wins over bad email", func(t *testing.T) {
		err := v.Struct(form{Email: "nope"})
		require.Error(t, err)
		assert.Equal(t, MsgFieldsRequired, ContactMessage(err))
		assert.ElementsMatch(t, []string{"Name: required", "Email: simple_email"}, FormatValidationErrors(err))
	})

	t.Run("bad email", func(t *testing.T) {
		err := v.Struct(form{Name: "Jane", Email: "nope"})
		require.Error(t, err)
		assert.Equal(t, MsgInvalidEmail, ContactMessage(err))
	})

	t.Run("overlong value", func(t *testing.T) {
		err := v.Struct(form{Name: "Jane Doe The Third", Email: "jane@example.com"})
		require.Error(t, err)
		assert.Equal(t, MsgFieldTooLong, ContactMessage(err))
	})

	t.Run("bad email wins over overlong value", func(t *testing.T) {
		err := v.Struct(form{Name: "Jane Doe The Third", Email: "nope"})
		require.Error(t, err)
		assert.Equal(t, MsgInvalidEmail, ContactMessage(err))
	})

	t.Run("not a validation error", func(t *testing.T) {
		assert.Equal(t, MsgInvalidInput, ContactMessage(errors.New("boom")))
		assert.Equal(t, []string{"boom"}, FormatValidationErrors(errors.New("boom")))
	})
}
