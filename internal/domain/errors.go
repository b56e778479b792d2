package domain

import (
	"errors"
	"fmt"
)

// Provider error codes. They follow the identity-provider convention of a
// namespaced string so that messages from any backend map onto the same set.
const (
	CodeEmailInUse         = "auth/email-already-in-use"
	CodeInvalidCredentials = "auth/invalid-credential"
	CodeUserNotFound       = "auth/user-not-found"
	CodeWeakPassword       = "auth/weak-password"
	CodeInvalidResetCode   = "auth/invalid-action-code"
	CodeNetwork            = "auth/network-request-failed"
	CodeInternal           = "auth/internal-error"
)

// Sentinel errors for provider failures. A *ProviderError matches one of
// these with errors.Is when their codes agree.
var (
	ErrEmailInUse         = &ProviderError{Code: CodeEmailInUse, Message: "The email address is already in use by another account."}
	ErrInvalidCredentials = &ProviderError{Code: CodeInvalidCredentials, Message: "Invalid email or password."}
	ErrUserNotFound       = &ProviderError{Code: CodeUserNotFound, Message: "There is no user record corresponding to this email."}
	ErrWeakPassword       = &ProviderError{Code: CodeWeakPassword, Message: "The password is too weak."}
	ErrInvalidResetCode   = &ProviderError{Code: CodeInvalidResetCode, Message: "The password reset link is invalid or has expired."}
)

// ErrUnknown is used when a failure carries no message that could be shown.
var ErrUnknown = errors.New("an unknown error occurred")

// ValidationError is a local, field-level failure. It blocks a submission
// before any provider call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ProviderError is a failure reported by the identity provider. Error
// returns Message verbatim so it can be shown to the user as is.
type ProviderError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a ProviderError with the same code.
func (e *ProviderError) Is(target error) bool {
	t, ok := target.(*ProviderError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithOp returns a copy of e annotated with the gateway operation and cause.
func (e *ProviderError) WithOp(op string, cause error) *ProviderError {
	return &ProviderError{Op: op, Code: e.Code, Message: e.Message, Err: cause}
}

// NewProviderError builds a ProviderError for an arbitrary code.
func NewProviderError(op, code, message string, cause error) *ProviderError {
	return &ProviderError{Op: op, Code: code, Message: message, Err: cause}
}

// AsProviderError converts any error returned by a provider into a
// ProviderError. Errors that carry no message become ErrUnknown.
func AsProviderError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.Op == "" {
			return pe.WithOp(op, pe.Err)
		}
		return pe
	}
	if err.Error() == "" {
		return fmt.Errorf("%s: %w", op, ErrUnknown)
	}
	return NewProviderError(op, CodeInternal, err.Error(), err)
}

// UserMessage picks the text to show for err: the validation or provider
// message when there is one, otherwise fallback.
func UserMessage(err error, fallback string) string {
	var ve *ValidationError
	if errors.As(err, &ve) && ve.Message != "" {
		return ve.Message
	}
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return fallback
}
