// Package rendering writes templ components and gomponents nodes to HTTP
// responses and to bytes for websocket pushes.
package rendering

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/gatehouse/internal/middleware"
)

// Renderer renders either component kind.
type Renderer interface {
	// RenderComponent renders a component to bytes, for htmx fragments
	// pushed over a websocket.
	RenderComponent(ctx context.Context, component interface{}) ([]byte, error)

	// RenderPage writes a component as a full HTTP response.
	RenderPage(c echo.Context, status int, component interface{}) error
}

// UniversalRenderer renders templ components and gomponents nodes. It is
// also the echo.Renderer behind c.Render.
type UniversalRenderer struct{}

// NewUniversalRenderer creates a new UniversalRenderer.
func NewUniversalRenderer() *UniversalRenderer {
	return &UniversalRenderer{}
}

// gomponentNode matches gomponents.Node without importing it.
type gomponentNode interface {
	Render(w io.Writer) error
}

func (tr *UniversalRenderer) render(ctx context.Context, component interface{}, w io.Writer) error {
	switch c := component.(type) {
	case templ.Component:
		return c.Render(ctx, w)
	case gomponentNode:
		return c.Render(w)
	default:
		return fmt.Errorf("unsupported component type: %T", component)
	}
}

// RenderComponent implements Renderer.
func (tr *UniversalRenderer) RenderComponent(ctx context.Context, component interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := tr.render(ctx, component, &buf); err != nil {
		return nil, fmt.Errorf("failed to render component to bytes: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPage implements Renderer. The component is rendered to a buffer
// first so a render error can still become an error response.
func (tr *UniversalRenderer) RenderPage(c echo.Context, status int, component interface{}) error {
	ctx := c.Request().Context()
	html, err := tr.RenderComponent(ctx, component)
	if err != nil {
		middleware.FromContext(ctx).Error("Failed to render page", "error", err)
		return err
	}
	return c.HTMLBlob(status, html)
}

// Render implements echo.Renderer for c.Render(status, "", component).
// The name is unused.
func (tr *UniversalRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	if c.Response().Header().Get(echo.HeaderContentType) == "" {
		c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	}
	return tr.render(c.Request().Context(), data, w)
}
