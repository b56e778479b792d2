package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/nfrund/gatehouse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanding(t *testing.T) {
	t.Run("guard sends absent sessions to login", func(t *testing.T) {
		ht := newHandlerTest(t)
		rec := ht.do(http.MethodGet, "/landing", nil, nil)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("renders the page for the signed-in email", func(t *testing.T) {
		ht := newHandlerTest(t)
		ht.signIn("a@example.com")

		rec := ht.do(http.MethodGet, "/landing", nil, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "a@example.com")
		assert.Contains(t, body, "Jordan Lee")
		assert.Contains(t, body, `ws-connect="/ws/session"`)
		assert.Contains(t, body, `<nav id="navbar" class="navbar">`)
	})
}

func TestMenu(t *testing.T) {
	ht := newHandlerTest(t)
	ht.signIn("a@example.com")

	cases := []struct {
		name   string
		form   url.Values
		status int
		class  string
	}{
		{"toggle opens", url.Values{"action": {"toggle"}, "menu_open": {"false"}}, http.StatusOK, `class="navbar open"`},
		{"toggle closes", url.Values{"action": {"toggle"}, "menu_open": {"true"}}, http.StatusOK, `class="navbar"`},
		{"close", url.Values{"action": {"close"}, "menu_open": {"true"}}, http.StatusOK, `class="navbar"`},
		{"unknown action", url.Values{"action": {"spin"}}, http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ht.do(http.MethodPost, "/landing/menu", tc.form, htmxHeader())

			assert.Equal(t, tc.status, rec.Code)
			if tc.class != "" {
				assert.Contains(t, rec.Body.String(), tc.class)
				assert.NotContains(t, rec.Body.String(), "<html")
			}
		})
	}

	t.Run("htmx request without a session is redirected by header", func(t *testing.T) {
		other := newHandlerTest(t)
		rec := other.do(http.MethodPost, "/landing/menu", url.Values{"action": {"toggle"}}, htmxHeader())

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("HX-Redirect"))
	})
}

func TestLogout(t *testing.T) {
	t.Run("clears the session", func(t *testing.T) {
		ht := newHandlerTest(t)
		ht.signIn("a@example.com")

		rec := ht.do(http.MethodPost, "/logout", url.Values{}, nil)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.False(t, ht.gw.CurrentSession(context.Background(), ht.sid).Present)
		flashes := ht.flashes()
		assert.Equal(t, []string{msgLoggedOut}, flashes.Success)
		assert.Empty(t, flashes.Error)
	})

	t.Run("provider failure is reported but the session still ends", func(t *testing.T) {
		ht := newHandlerTest(t)
		ht.signIn("a@example.com")
		ht.gw.logoutErr = domain.NewProviderError("logout", domain.CodeNetwork, "The identity service is unavailable.", errors.New("dial tcp"))

		ht.do(http.MethodPost, "/logout", url.Values{}, nil)

		assert.False(t, ht.gw.CurrentSession(context.Background(), ht.sid).Present)
		flashes := ht.flashes()
		assert.Equal(t, []string{"The identity service is unavailable."}, flashes.Error)
		assert.Equal(t, []string{msgLoggedOut}, flashes.Success)
	})
}
