package validation

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/nfrund/gatehouse/internal/domain"
)

// Validator wraps go-playground/validator with the password policy
// registered. It satisfies echo.Validator.
type Validator struct {
	validator *validator.Validate
}

// New creates a Validator.
func New() *Validator {
	return &Validator{validator: newValidate()}
}

// Validate implements the echo.Validator interface. The first failing field
// is returned as a *domain.ValidationError carrying the field message.
func (v *Validator) Validate(i interface{}) error {
	err := v.validator.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	field := formFieldName(verrs[0])
	return &domain.ValidationError{Field: field, Message: MessageFor(field)}
}

// MessageFor returns the user-facing message for an invalid field.
func MessageFor(field string) string {
	switch field {
	case FieldEmail:
		return EmailMessage
	case FieldPassword:
		return PasswordMessage
	default:
		return "Please check this field."
	}
}

func formFieldName(fe validator.FieldError) string {
	switch fe.Field() {
	case "Email":
		return FieldEmail
	case "Password", "NewPassword":
		return FieldPassword
	default:
		return fe.Field()
	}
}
