package validation

import (
	"errors"
	"testing"

	"github.com/nfrund/gatehouse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormState_UntouchedFieldShowsNoError(t *testing.T) {
	f := NewFormState("", "")

	assert.True(t, f.Invalid())
	assert.Empty(t, f.FieldError(FieldEmail))
	assert.Empty(t, f.FieldError(FieldPassword))

	f.Touch(FieldEmail)
	assert.Equal(t, EmailMessage, f.FieldError(FieldEmail))
	assert.Empty(t, f.FieldError(FieldPassword), "password is still untouched")
}

func TestFormState_MalformedEmailAfterTouch(t *testing.T) {
	f := NewFormState("not-an-email", "Abcdef1")
	assert.Empty(t, f.FieldError(FieldEmail))

	f.Touch(FieldEmail)
	assert.Equal(t, EmailMessage, f.FieldError(FieldEmail))

	f.Email = "name@gmail.com"
	assert.Empty(t, f.FieldError(FieldEmail), "re-evaluated on every interaction")
}

func TestFormState_TouchAll(t *testing.T) {
	f := NewFormState("name@gmail.com", "short")
	f.TouchAll()

	assert.Empty(t, f.FieldError(FieldEmail))
	assert.Equal(t, PasswordMessage, f.FieldError(FieldPassword))

	err := f.FirstError()
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, FieldPassword, ve.Field)
}

func TestFormState_ZeroValueTouch(t *testing.T) {
	var f FormState
	f.Touch(FieldEmail)
	f.Touch("remember")
	assert.True(t, f.Touched(FieldEmail))
	assert.False(t, f.Touched("remember"))
}

func TestValidator_Validate(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&CredentialsForm{Email: "name@gmail.com", Password: "Abcdef1"}))

	err := v.Validate(&CredentialsForm{Email: "name@gmail.com", Password: "abcdef1"})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, FieldPassword, ve.Field)
	assert.Equal(t, PasswordMessage, ve.Message)

	err = v.Validate(&CredentialsForm{Email: "not-an-email", Password: "Abcdef1"})
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, FieldEmail, ve.Field)

	padded := CredentialsForm{Email: " name@gmail.com ", Password: "Abcdef1"}
	padded.Trim()
	assert.NoError(t, v.Validate(&padded))
	assert.Equal(t, "name@gmail.com", padded.Email)

	err = v.Validate(&ResetForm{Code: "abc", NewPassword: "Ab1"})
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, FieldPassword, ve.Field)
}
