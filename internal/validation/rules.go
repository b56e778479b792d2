// Package validation holds the form rules that run before any call to the
// identity provider.
package validation

import (
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Field names as they appear in forms.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
)

// Messages shown next to an invalid field.
const (
	EmailMessage    = "Please enter a valid email."
	PasswordMessage = "Password must be 7+ chars, include 1 uppercase, 1 number, and be letters/numbers only."
)

// PasswordPolicyTag is the validator tag for ValidPassword.
const PasswordPolicyTag = "password_policy"

var (
	alphanumeric7 = regexp.MustCompile(`^[A-Za-z0-9]{7,}$`)
	hasUpper      = regexp.MustCompile(`[A-Z]`)
	hasDigit      = regexp.MustCompile(`[0-9]`)
)

var (
	defaultOnce     sync.Once
	defaultValidate *validator.Validate
)

func validate() *validator.Validate {
	defaultOnce.Do(func() {
		defaultValidate = newValidate()
	})
	return defaultValidate
}

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation(PasswordPolicyTag, func(fl validator.FieldLevel) bool {
		return ValidPassword(fl.Field().String())
	})
	return v
}

// ValidPassword reports whether s is at least 7 characters of [A-Za-z0-9]
// with at least one uppercase letter and at least one digit.
func ValidPassword(s string) bool {
	return alphanumeric7.MatchString(s) && hasUpper.MatchString(s) && hasDigit.MatchString(s)
}

// ValidEmail reports whether s is non-empty and shaped like an email
// address. Surrounding whitespace is ignored.
func ValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return validate().Var(s, "email") == nil
}
