package identity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nfrund/gatehouse/internal/domain"
	"github.com/nfrund/gatehouse/internal/pubsub"
	"github.com/nfrund/gatehouse/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider is an in-memory Provider for gateway tests.
type fakeProvider struct {
	mu         sync.Mutex
	accounts   map[string]string
	signOutErr error
	resetErr   error
	signedOut  []string
	expiresIn  time.Duration
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{accounts: map[string]string{}, expiresIn: time.Hour}
}

func (p *fakeProvider) identity(email string) *domain.Identity {
	return &domain.Identity{UID: "uid-" + email, Email: email, Token: "token-" + email, ExpiresAt: time.Now().Add(p.expiresIn)}
}

func (p *fakeProvider) CreateAccount(ctx context.Context, email, password string) (*domain.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.accounts[email]; ok {
		return nil, domain.ErrEmailInUse
	}
	p.accounts[email] = password
	return p.identity(email), nil
}

func (p *fakeProvider) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pw, ok := p.accounts[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if pw != password {
		return nil, domain.ErrInvalidCredentials
	}
	return p.identity(email), nil
}

func (p *fakeProvider) SendPasswordReset(ctx context.Context, email string) error {
	if p.resetErr != nil {
		return p.resetErr
	}
	if _, ok := p.accounts[email]; !ok {
		return domain.ErrUserNotFound
	}
	return nil
}

func (p *fakeProvider) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	if code != "good-code" {
		return domain.ErrInvalidResetCode
	}
	return nil
}

func (p *fakeProvider) SignOut(ctx context.Context, token string) error {
	p.mu.Lock()
	p.signedOut = append(p.signedOut, token)
	p.mu.Unlock()
	return p.signOutErr
}

func newTestGateway(t *testing.T, provider Provider, opts ...GatewayOption) *Gateway {
	t.Helper()
	bus := pubsub.NewWatermillBridge()
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	tracker := session.NewTracker(session.NewMemoryStore(), time.Hour)
	require.NoError(t, tracker.Start(ctx, bus))
	return NewGateway(provider, bus, tracker, opts...)
}

func awaitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestGateway_SignupThenLogin(t *testing.T) {
	g := newTestGateway(t, newFakeProvider())
	ctx := awaitCtx(t)

	id, err := g.Signup(ctx, "sid-1", domain.Credentials{Email: " new@example.com ", Password: "Abcdef1"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", id.Email)

	st, err := g.Await(ctx, "sid-1", true)
	require.NoError(t, err)
	assert.Equal(t, session.ReasonSignup, st.Reason)

	_, err = g.Login(ctx, "sid-2", domain.Credentials{Email: "new@example.com", Password: "Abcdef1"})
	require.NoError(t, err)
	st, err = g.Await(ctx, "sid-2", true)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", st.Email)
	assert.True(t, g.CurrentSession(ctx, "sid-2").Present)
}

func TestGateway_ProviderErrorsAreSurfaced(t *testing.T) {
	p := newFakeProvider()
	g := newTestGateway(t, p)
	ctx := awaitCtx(t)

	_, err := g.Signup(ctx, "sid", domain.Credentials{Email: "dup@example.com", Password: "Abcdef1"})
	require.NoError(t, err)

	_, err = g.Signup(ctx, "sid", domain.Credentials{Email: "dup@example.com", Password: "Abcdef1"})
	assert.ErrorIs(t, err, domain.ErrEmailInUse)
	var pe *domain.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, OpSignup, pe.Op)

	_, err = g.Login(ctx, "sid-x", domain.Credentials{Email: "dup@example.com", Password: "Wrong12"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.False(t, g.CurrentSession(ctx, "sid-x").Present)

	_, err = g.Login(ctx, "sid-x", domain.Credentials{Email: "ghost@example.com", Password: "Abcdef1"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestGateway_LogoutClearsSession(t *testing.T) {
	p := newFakeProvider()
	g := newTestGateway(t, p)
	ctx := awaitCtx(t)

	_, err := g.Signup(ctx, "sid", domain.Credentials{Email: "a@example.com", Password: "Abcdef1"})
	require.NoError(t, err)
	_, err = g.Await(ctx, "sid", true)
	require.NoError(t, err)

	require.NoError(t, g.Logout(ctx, "sid"))
	_, err = g.Await(ctx, "sid", false)
	require.NoError(t, err)
	assert.False(t, g.CurrentSession(ctx, "sid").Present)
	assert.Equal(t, []string{"token-a@example.com"}, p.signedOut)
}

func TestGateway_LogoutClearsSessionWhenProviderFails(t *testing.T) {
	p := newFakeProvider()
	p.signOutErr = errors.New("network unreachable")
	g := newTestGateway(t, p)
	ctx := awaitCtx(t)

	_, err := g.Login(ctx, "sid", domain.Credentials{Email: "a@example.com", Password: "x"})
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = g.Signup(ctx, "sid", domain.Credentials{Email: "a@example.com", Password: "Abcdef1"})
	require.NoError(t, err)
	_, err = g.Await(ctx, "sid", true)
	require.NoError(t, err)

	err = g.Logout(ctx, "sid")
	assert.EqualError(t, err, "network unreachable")

	_, err = g.Await(ctx, "sid", false)
	require.NoError(t, err)
}

func TestGateway_RequestPasswordReset(t *testing.T) {
	p := newFakeProvider()
	g := newTestGateway(t, p)
	ctx := awaitCtx(t)

	assert.ErrorIs(t, g.RequestPasswordReset(ctx, "ghost@example.com"), domain.ErrUserNotFound)

	p.resetErr = errors.New("smtp: 550 mailbox unavailable")
	err := g.RequestPasswordReset(ctx, "ghost@example.com")
	assert.Equal(t, "smtp: 550 mailbox unavailable", domain.UserMessage(err, "Could not send reset email."))
}

func TestGateway_ConfirmPasswordReset(t *testing.T) {
	g := newTestGateway(t, newFakeProvider())
	ctx := awaitCtx(t)

	assert.NoError(t, g.ConfirmPasswordReset(ctx, "good-code", "Abcdef1"))
	assert.ErrorIs(t, g.ConfirmPasswordReset(ctx, "bad-code", "Abcdef1"), domain.ErrInvalidResetCode)
}

func TestGateway_ExpiredSessionReadsAbsent(t *testing.T) {
	p := newFakeProvider()
	p.expiresIn = 50 * time.Millisecond
	g := newTestGateway(t, p)
	ctx := awaitCtx(t)

	_, err := g.Signup(ctx, "sid", domain.Credentials{Email: "a@example.com", Password: "Abcdef1"})
	require.NoError(t, err)
	_, err = g.Await(ctx, "sid", true)
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)
	assert.False(t, g.CurrentSession(ctx, "sid").Present)

	// The expiry event eventually replaces the stored state.
	require.Eventually(t, func() bool {
		st := g.CurrentSession(ctx, "sid")
		return !st.Present && st.Token == "" && st.Reason == session.ReasonExpired
	}, time.Second, 10*time.Millisecond)
}

// interleavingStore runs hook once, right after the next armed Get has read
// its state and before that state is returned.
type interleavingStore struct {
	session.Store
	armed atomic.Bool
	hook  func()
}

func (s *interleavingStore) Get(ctx context.Context, sid string) (session.State, bool, error) {
	st, ok, err := s.Store.Get(ctx, sid)
	if s.armed.CompareAndSwap(true, false) {
		s.hook()
	}
	return st, ok, err
}

func TestGateway_ExpiryDoesNotClearNewerSignIn(t *testing.T) {
	p := newFakeProvider()
	p.expiresIn = 50 * time.Millisecond

	bus := pubsub.NewWatermillBridge()
	t.Cleanup(func() { _ = bus.Close() })
	runCtx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := &interleavingStore{Store: session.NewMemoryStore()}
	tracker := session.NewTracker(store, time.Hour)
	require.NoError(t, tracker.Start(runCtx, bus))
	g := NewGateway(p, bus, tracker)
	ctx := awaitCtx(t)

	creds := domain.Credentials{Email: "a@example.com", Password: "Abcdef1"}
	_, err := g.Signup(ctx, "sid", creds)
	require.NoError(t, err)
	_, err = g.Await(ctx, "sid", true)
	require.NoError(t, err)
	time.Sleep(80 * time.Millisecond)

	p.mu.Lock()
	p.expiresIn = time.Hour
	p.mu.Unlock()
	store.hook = func() {
		_, err := g.Login(ctx, "sid", creds)
		require.NoError(t, err)
		require.Eventually(t, func() bool {
			st, ok, _ := store.Store.Get(ctx, "sid")
			return ok && st.Active(time.Now())
		}, time.Second, 5*time.Millisecond)
	}
	store.armed.Store(true)

	assert.False(t, g.CurrentSession(ctx, "sid").Present, "the stale read still reports expiry")

	assert.Never(t, func() bool {
		return !g.CurrentSession(ctx, "sid").Present
	}, 200*time.Millisecond, 10*time.Millisecond, "the expiry event must not sign out the newer session")
	assert.Equal(t, "a@example.com", g.CurrentSession(ctx, "sid").Email)
}
