// Package identity is the credential gateway: the only component that talks
// to the hosted identity provider and the only source of session-change
// events.
package identity

import (
	"context"

	"github.com/nfrund/gatehouse/internal/domain"
)

// Provider is a hosted identity provider. Implementations return
// *domain.ProviderError values for failures the user should see.
type Provider interface {
	// CreateAccount registers a new account and signs it in.
	CreateAccount(ctx context.Context, email, password string) (*domain.Identity, error)
	// SignIn verifies credentials and returns the signed-in identity.
	SignIn(ctx context.Context, email, password string) (*domain.Identity, error)
	// SendPasswordReset dispatches a reset link to email.
	SendPasswordReset(ctx context.Context, email string) error
	// ConfirmPasswordReset sets a new password using a code from a reset link.
	ConfirmPasswordReset(ctx context.Context, code, newPassword string) error
	// SignOut ends the provider session behind token.
	SignOut(ctx context.Context, token string) error
}

// TokenVerifier is implemented by providers that can validate the tokens
// they issue, for bearer-token API access.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*domain.Identity, error)
}
