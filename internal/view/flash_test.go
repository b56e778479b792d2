package view_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/gatehouse/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	g "maragu.dev/gomponents/html"
)

const testSessionSecret = "a-very-secret-key-for-testing-!"

func setupTestContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	store := sessions.NewCookieStore([]byte(testSessionSecret))
	sessionMiddleware := session.Middleware(store)

	// Run a dummy handler through the middleware so the context carries the store.
	var c echo.Context
	handler := func(ctx echo.Context) error { c = ctx; return nil }
	_ = sessionMiddleware(handler)(e.NewContext(req, rec))

	return c, rec
}

func TestFlashMessages(t *testing.T) {
	t.Run("Set and Get Success Flash", func(t *testing.T) {
		c, _ := setupTestContext()

		view.SetFlashSuccess(c, "It worked!")
		flashes := view.GetFlashData(c)

		assert.Equal(t, []string{"It worked!"}, flashes.Success)
		assert.Empty(t, flashes.Error)

		flashesAfterRead := view.GetFlashData(c)
		assert.True(t, flashesAfterRead.Empty(), "Flashes should be cleared after being read")
	})

	t.Run("Set and Get Error Flash", func(t *testing.T) {
		c, _ := setupTestContext()

		view.SetFlashError(c, "It failed!")
		flashes := view.GetFlashData(c)

		assert.Equal(t, []string{"It failed!"}, flashes.Error)
		assert.Empty(t, flashes.Success)
	})

	t.Run("Form email is popped once", func(t *testing.T) {
		c, _ := setupTestContext()

		view.SetFormEmail(c, "a@example.com")
		assert.Equal(t, "a@example.com", view.PopFormEmail(c))
		assert.Empty(t, view.PopFormEmail(c))
		assert.True(t, view.GetFlashData(c).Empty(), "the prefilled email is not a message")
	})

	t.Run("No session middleware", func(t *testing.T) {
		e := echo.New()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

		assert.NotPanics(t, func() {
			view.SetFlashError(c, "ignored")
			assert.True(t, view.GetFlashData(c).Empty())
		})
	})
}

func TestAdapters(t *testing.T) {
	node := g.P(g.Class("x"), g.ID("p1"))
	var b strings.Builder
	require.NoError(t, view.AdaptGomponentToTempl(node).Render(context.Background(), &b))
	assert.Equal(t, `<p class="x" id="p1"></p>`, b.String())

	component := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := w.Write([]byte("<em>" + templ.EscapeString(ctx.Value(ctxKey{}).(string)) + "</em>"))
		return err
	})
	b.Reset()
	ctx := context.WithValue(context.Background(), ctxKey{}, "a<b")
	require.NoError(t, view.AdaptTemplToGomponent(ctx, component).Render(&b))
	assert.Equal(t, "<em>a&lt;b</em>", b.String())
}

type ctxKey struct{}
