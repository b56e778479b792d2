package validation

import (
	"strings"

	"github.com/nfrund/gatehouse/internal/domain"
)

// CredentialsForm is bound from the login and signup forms.
type CredentialsForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,password_policy"`
}

// Trim strips surrounding whitespace from the email so struct validation
// agrees with ValidEmail.
func (f *CredentialsForm) Trim() {
	f.Email = strings.TrimSpace(f.Email)
}

// Credentials returns the normalized credential pair.
func (f CredentialsForm) Credentials() domain.Credentials {
	return domain.Credentials{Email: f.Email, Password: f.Password}.Normalize()
}

// ResetForm is bound from the password reset confirmation form.
type ResetForm struct {
	Code        string `form:"code" validate:"required"`
	NewPassword string `form:"password" validate:"required,password_policy"`
}

// FormState tracks per-field interaction and validity for the auth form,
// plus the submit outcome. A field only reports an error once it has been
// touched.
type FormState struct {
	Email    string
	Password string

	touched map[string]bool

	Submitting bool
	Error      string
	Success    string
}

// NewFormState creates a FormState with no touched fields.
func NewFormState(email, password string) *FormState {
	return &FormState{Email: email, Password: password, touched: map[string]bool{}}
}

// Touch marks field as interacted with. Unknown fields are ignored.
func (f *FormState) Touch(field string) {
	if field != FieldEmail && field != FieldPassword {
		return
	}
	if f.touched == nil {
		f.touched = map[string]bool{}
	}
	f.touched[field] = true
}

// TouchAll marks every field as touched, as a submit does.
func (f *FormState) TouchAll() {
	f.Touch(FieldEmail)
	f.Touch(FieldPassword)
}

// Touched reports whether field has been interacted with.
func (f *FormState) Touched(field string) bool {
	return f.touched[field]
}

// Valid reports whether field currently passes its rule.
func (f *FormState) Valid(field string) bool {
	switch field {
	case FieldEmail:
		return ValidEmail(f.Email)
	case FieldPassword:
		return ValidPassword(f.Password)
	default:
		return true
	}
}

// FieldError returns the message to show for field, or "" when the field
// is untouched or valid.
func (f *FormState) FieldError(field string) string {
	if !f.Touched(field) || f.Valid(field) {
		return ""
	}
	return MessageFor(field)
}

// Invalid reports whether any field fails its rule, touched or not.
func (f *FormState) Invalid() bool {
	return !f.Valid(FieldEmail) || !f.Valid(FieldPassword)
}

// FirstError returns the first field failure as a ValidationError, or nil.
func (f *FormState) FirstError() error {
	for _, field := range []string{FieldEmail, FieldPassword} {
		if !f.Valid(field) {
			return &domain.ValidationError{Field: field, Message: MessageFor(field)}
		}
	}
	return nil
}
