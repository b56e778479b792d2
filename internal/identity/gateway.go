package identity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nfrund/gatehouse/internal/domain"
	"github.com/nfrund/gatehouse/internal/metrics"
	"github.com/nfrund/gatehouse/internal/pubsub"
	"github.com/nfrund/gatehouse/internal/session"
)

// Gateway operation names, used for errors, logs and metrics.
const (
	OpSignup       = "signup"
	OpLogin        = "login"
	OpResetRequest = "reset_request"
	OpResetConfirm = "reset_confirm"
	OpLogout       = "logout"
)

// Gateway wraps a Provider. Successful sign-ins and sign-outs are not
// written to the session store directly: they are published as events and
// applied by the session tracker, possibly after the call has returned.
type Gateway struct {
	provider  Provider
	publisher pubsub.Publisher
	tracker   *session.Tracker
	versions  session.Versions
	metrics   metrics.Recorder
	now       func() time.Time
	logger    *slog.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithMetrics sets the metrics recorder.
func WithMetrics(r metrics.Recorder) GatewayOption {
	return func(g *Gateway) {
		g.metrics = r
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) GatewayOption {
	return func(g *Gateway) {
		g.now = now
	}
}

// NewGateway creates a Gateway publishing session events on publisher and
// reading session state from tracker.
func NewGateway(provider Provider, publisher pubsub.Publisher, tracker *session.Tracker, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		provider:  provider,
		publisher: publisher,
		tracker:   tracker,
		metrics:   metrics.Nop{},
		now:       time.Now,
		logger:    slog.Default().With("component", "credential_gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Signup creates an account and signs the session in.
func (g *Gateway) Signup(ctx context.Context, sid string, creds domain.Credentials) (*domain.Identity, error) {
	creds = creds.Normalize()
	id, err := g.provider.CreateAccount(ctx, creds.Email, creds.Password)
	g.metrics.RecordAuthAttempt(OpSignup, err)
	if err != nil {
		g.logger.WarnContext(ctx, "Signup failed", "email", creds.Email, "error", err)
		return nil, domain.AsProviderError(OpSignup, err)
	}
	if err := g.publishPresent(ctx, sid, id, session.ReasonSignup); err != nil {
		return nil, err
	}
	return id, nil
}

// Login verifies credentials and signs the session in.
func (g *Gateway) Login(ctx context.Context, sid string, creds domain.Credentials) (*domain.Identity, error) {
	creds = creds.Normalize()
	id, err := g.provider.SignIn(ctx, creds.Email, creds.Password)
	g.metrics.RecordAuthAttempt(OpLogin, err)
	if err != nil {
		g.logger.WarnContext(ctx, "Failed login attempt", "email", creds.Email, "error", err)
		return nil, domain.AsProviderError(OpLogin, err)
	}
	if err := g.publishPresent(ctx, sid, id, session.ReasonSignin); err != nil {
		return nil, err
	}
	return id, nil
}

// RequestPasswordReset asks the provider to send a reset link to email.
func (g *Gateway) RequestPasswordReset(ctx context.Context, email string) error {
	err := g.provider.SendPasswordReset(ctx, email)
	g.metrics.RecordAuthAttempt(OpResetRequest, err)
	if err != nil {
		g.logger.WarnContext(ctx, "Password reset request failed", "email", email, "error", err)
		return domain.AsProviderError(OpResetRequest, err)
	}
	return nil
}

// ConfirmPasswordReset completes a reset started by RequestPasswordReset.
// It does not sign the session in.
func (g *Gateway) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	err := g.provider.ConfirmPasswordReset(ctx, code, newPassword)
	g.metrics.RecordAuthAttempt(OpResetConfirm, err)
	if err != nil {
		g.logger.WarnContext(ctx, "Password reset confirmation failed", "error", err)
		return domain.AsProviderError(OpResetConfirm, err)
	}
	return nil
}

// Logout signs the provider session out and clears the local session. The
// local session is cleared even when the provider call fails; that failure
// is still returned.
func (g *Gateway) Logout(ctx context.Context, sid string) error {
	cur, err := g.tracker.Current(ctx, sid)
	if err != nil {
		g.logger.ErrorContext(ctx, "Failed to read session before logout", "sid", sid, "error", err)
	}

	var signOutErr error
	if cur.Token != "" {
		signOutErr = g.provider.SignOut(ctx, cur.Token)
	}
	g.metrics.RecordAuthAttempt(OpLogout, signOutErr)
	if signOutErr != nil {
		g.logger.WarnContext(ctx, "Provider sign-out failed, clearing local session anyway", "sid", sid, "error", signOutErr)
	}

	if err := g.publish(ctx, session.State{SessionID: sid, Reason: session.ReasonSignout}); err != nil {
		return err
	}
	return domain.AsProviderError(OpLogout, signOutErr)
}

// CurrentSession returns a snapshot of the session without waiting for
// pending events. A session whose expiry has passed is reported absent and
// an expiry event is published for it. The event only clears the state that
// was read, so a sign-in landing in between survives.
func (g *Gateway) CurrentSession(ctx context.Context, sid string) session.State {
	st, err := g.tracker.Current(ctx, sid)
	if err != nil {
		g.logger.ErrorContext(ctx, "Failed to read session", "sid", sid, "error", err)
		return session.Absent(sid)
	}
	if !st.Present && st.Token != "" && !st.ExpiresAt.IsZero() && !g.now().Before(st.ExpiresAt) {
		expired := session.State{SessionID: sid, Reason: session.ReasonExpired, Supersedes: st.Version}
		if err := g.publish(ctx, expired); err != nil {
			g.logger.ErrorContext(ctx, "Failed to publish session expiry", "sid", sid, "error", err)
		}
		return session.Absent(sid)
	}
	return st
}

// Await waits until the session's presence matches present, as reported
// by session-change notifications.
func (g *Gateway) Await(ctx context.Context, sid string, present bool) (session.State, error) {
	return g.tracker.Await(ctx, sid, present)
}

// Watch streams session-change notifications for sid. The returned func
// stops the stream.
func (g *Gateway) Watch(sid string) (<-chan session.State, func()) {
	return g.tracker.Watch(sid)
}

func (g *Gateway) publishPresent(ctx context.Context, sid string, id *domain.Identity, reason session.Reason) error {
	return g.publish(ctx, session.State{
		SessionID: sid,
		Present:   true,
		UserID:    id.UID,
		Email:     id.Email,
		Token:     id.Token,
		ExpiresAt: id.ExpiresAt,
		Reason:    reason,
	})
}

func (g *Gateway) publish(ctx context.Context, st session.State) error {
	st.Version = g.versions.Next()
	st.ChangedAt = g.now().UTC()
	if err := pubsub.PublishJSON(ctx, g.publisher, session.Topic, st.SessionID, st); err != nil {
		g.logger.ErrorContext(ctx, "Failed to publish session event", "sid", st.SessionID, "reason", st.Reason, "error", err)
		return fmt.Errorf("failed to publish session event: %w", err)
	}
	g.metrics.RecordSessionEvent(string(st.Reason))
	return nil
}
