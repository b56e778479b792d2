// Package layouts holds the page shell shared by every full-page response.
package layouts

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/nfrund/gatehouse/internal/view"
	cmp "maragu.dev/gomponents"
	c "maragu.dev/gomponents/components"
	g "maragu.dev/gomponents/html"
)

const htmxSrc = "https://unpkg.com/htmx.org@2.0.4"
const htmxWSSrc = "https://unpkg.com/htmx-ext-ws@2.0.2/ws.js"

// Base wraps page content in the HTML document with the flash messages on
// top.
func Base(title string, flashes view.FlashData, content cmp.Node) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		doc := c.HTML5(c.HTML5Props{
			Title:    CalculateTitle(title),
			Language: "en",
			Head: []cmp.Node{
				g.Meta(g.Name("viewport"), g.Content("width=device-width, initial-scale=1")),
				g.Link(g.Rel("stylesheet"), g.Href("/static/app.css")),
				g.Script(g.Src(htmxSrc)),
				g.Script(g.Src(htmxWSSrc)),
			},
			Body: []cmp.Node{
				view.AdaptTemplToGomponent(ctx, Flashes(flashes)),
				content,
			},
		})
		return doc.Render(w)
	})
}

// Flashes renders the one-shot messages.
func Flashes(flashes view.FlashData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if flashes.Empty() {
			return nil
		}
		if _, err := io.WriteString(w, `<div id="flash" role="status">`); err != nil {
			return err
		}
		for _, msg := range flashes.Error {
			if _, err := io.WriteString(w, `<div class="alert-error">`+templ.EscapeString(msg)+`</div>`); err != nil {
				return err
			}
		}
		for _, msg := range flashes.Success {
			if _, err := io.WriteString(w, `<div class="alert-success">`+templ.EscapeString(msg)+`</div>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}
