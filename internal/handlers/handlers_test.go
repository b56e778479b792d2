package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/gatehouse/internal/domain"
	"github.com/nfrund/gatehouse/internal/landing"
	"github.com/nfrund/gatehouse/internal/metrics"
	"github.com/nfrund/gatehouse/internal/middleware"
	"github.com/nfrund/gatehouse/internal/rendering"
	sess "github.com/nfrund/gatehouse/internal/session"
	"github.com/nfrund/gatehouse/internal/validation"
	"github.com/nfrund/gatehouse/internal/view"
	"github.com/stretchr/testify/require"
)

const (
	testSessionSecret = "a-very-secret-key-for-testing-!"
	goodPassword      = "Secret123"
)

// fakeGateway is an in-memory Gateway keyed by session id.
type fakeGateway struct {
	mu        sync.Mutex
	accounts  map[string]string
	sessions  map[string]sess.State
	watchers  map[string]chan sess.State
	resetErr  error
	logoutErr error
	resets    []string
	confirmed []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		accounts: map[string]string{},
		sessions: map[string]sess.State{},
		watchers: map[string]chan sess.State{},
	}
}

func (f *fakeGateway) signIn(sid, email string) {
	f.sessions[sid] = sess.State{SessionID: sid, Present: true, Email: email, Token: "token-" + email, ExpiresAt: time.Now().Add(time.Hour)}
}

func (f *fakeGateway) Signup(ctx context.Context, sid string, creds domain.Credentials) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[creds.Email]; ok {
		return nil, domain.ErrEmailInUse
	}
	f.accounts[creds.Email] = creds.Password
	f.signIn(sid, creds.Email)
	return &domain.Identity{Email: creds.Email}, nil
}

func (f *fakeGateway) Login(ctx context.Context, sid string, creds domain.Credentials) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pw, ok := f.accounts[creds.Email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if pw != creds.Password {
		return nil, domain.ErrInvalidCredentials
	}
	f.signIn(sid, creds.Email)
	return &domain.Identity{Email: creds.Email}, nil
}

func (f *fakeGateway) RequestPasswordReset(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, email)
	return f.resetErr
}

func (f *fakeGateway) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	if code != "good-code" {
		return domain.ErrInvalidResetCode
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, newPassword)
	return nil
}

func (f *fakeGateway) Logout(ctx context.Context, sid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, sid)
	return f.logoutErr
}

func (f *fakeGateway) CurrentSession(ctx context.Context, sid string) sess.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st, ok := f.sessions[sid]; ok {
		return st
	}
	return sess.Absent(sid)
}

func (f *fakeGateway) Await(ctx context.Context, sid string, present bool) (sess.State, error) {
	return f.CurrentSession(ctx, sid), nil
}

func (f *fakeGateway) Watch(sid string) (<-chan sess.State, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan sess.State, 1)
	f.watchers[sid] = ch
	return ch, func() {}
}

func (f *fakeGateway) watcher(sid string) chan sess.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.watchers[sid]
}

type staticUsers []domain.UserRow

func (s staticUsers) Users(ctx context.Context) []domain.UserRow { return s }

var testUsers = staticUsers{
	{ID: 1, Name: "Jordan Lee", Email: "jordan@example.com", Role: "admin", Status: "active"},
	{ID: 2, Name: "Sam Patel", Email: "sam@example.com", Role: "member", Status: "active"},
}

// flashPayload is what the test-only /_flash route reports.
type flashPayload struct {
	Success []string `json:"success"`
	Error   []string `json:"error"`
	Email   string   `json:"email"`
}

// handlerTest drives an echo instance like a browser, replaying cookies.
type handlerTest struct {
	t       *testing.T
	e       *echo.Echo
	gw      *fakeGateway
	cookies map[string]*http.Cookie
	sid     string
}

func newHandlerTest(t *testing.T) *handlerTest {
	t.Helper()
	e := echo.New()
	e.Renderer = rendering.NewUniversalRenderer()
	e.Validator = validation.New()
	e.Use(session.Middleware(sessions.NewCookieStore([]byte(testSessionSecret))))
	e.Use(middleware.SessionID())

	gw := newFakeGateway()
	content, err := landing.Load()
	require.NoError(t, err)

	auth := NewAuthHandler(gw, 50*time.Millisecond)
	auth.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	e.GET("/login", auth.LoginGet)
	e.POST("/login", auth.LoginPost)
	e.POST("/signup", auth.SignupPost)
	e.POST("/login/validate", auth.ValidatePost)
	e.POST("/forgot-password", auth.ForgotPasswordPost)
	e.GET("/reset-password", auth.ResetPasswordGet)
	e.POST("/reset-password", auth.ResetPasswordPost)

	lh := NewLandingHandler(gw, content, testUsers, 50*time.Millisecond)
	guarded := e.Group("", middleware.Guard(gw, metrics.Nop{}))
	guarded.GET("/landing", lh.Landing)
	guarded.POST("/landing/menu", lh.Menu)
	guarded.POST("/logout", lh.Logout)

	e.GET("/_flash", func(c echo.Context) error {
		email := view.PopFormEmail(c)
		data := view.GetFlashData(c)
		return c.JSON(http.StatusOK, flashPayload{Success: data.Success, Error: data.Error, Email: email})
	})
	e.GET("/_sid", func(c echo.Context) error {
		return c.String(http.StatusOK, middleware.SessionIDFrom(c))
	})

	ht := &handlerTest{t: t, e: e, gw: gw, cookies: map[string]*http.Cookie{}}
	ht.sid = ht.do(http.MethodGet, "/_sid", nil, nil).Body.String()
	require.NotEmpty(t, ht.sid)
	return ht
}

func (h *handlerTest) do(method, target string, form url.Values, header http.Header) *httptest.ResponseRecorder {
	h.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for _, c := range h.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		h.cookies[c.Name] = c
	}
	return rec
}

func (h *handlerTest) signIn(email string) {
	h.gw.mu.Lock()
	defer h.gw.mu.Unlock()
	h.gw.accounts[email] = goodPassword
	h.gw.signIn(h.sid, email)
}

func (h *handlerTest) flashes() flashPayload {
	h.t.Helper()
	rec := h.do(http.MethodGet, "/_flash", nil, nil)
	require.Equal(h.t, http.StatusOK, rec.Code)
	var p flashPayload
	require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func credentials(email, password string) url.Values {
	return url.Values{"email": {email}, "password": {password}}
}

func htmxHeader() http.Header {
	return http.Header{"Hx-Request": {"true"}}
}
