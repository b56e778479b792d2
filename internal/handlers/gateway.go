package handlers

import (
	"context"

	"github.com/nfrund/gatehouse/internal/domain"
	"github.com/nfrund/gatehouse/internal/session"
)

// Gateway is the slice of identity.Gateway the handlers use.
type Gateway interface {
	Signup(ctx context.Context, sid string, creds domain.Credentials) (*domain.Identity, error)
	Login(ctx context.Context, sid string, creds domain.Credentials) (*domain.Identity, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, code, newPassword string) error
	Logout(ctx context.Context, sid string) error
	CurrentSession(ctx context.Context, sid string) session.State
	Await(ctx context.Context, sid string, present bool) (session.State, error)
	Watch(sid string) (<-chan session.State, func())
}
