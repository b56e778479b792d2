package view

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"maragu.dev/gomponents"
)

// nodeComponent lets a gomponents.Node be rendered wherever a templ.Component
// is expected.
type nodeComponent struct {
	node gomponents.Node
}

func (a nodeComponent) Render(ctx context.Context, w io.Writer) error {
	return a.node.Render(w)
}

// AdaptGomponentToTempl converts a gomponents.Node into a templ.Component.
func AdaptGomponentToTempl(node gomponents.Node) templ.Component {
	return nodeComponent{node: node}
}

// componentNode lets a templ.Component be embedded in a gomponents tree.
// gomponents does not pass a context, so the component renders with ctx as
// captured at adaptation time.
type componentNode struct {
	ctx       context.Context
	component templ.Component
}

func (a componentNode) Render(w io.Writer) error {
	return a.component.Render(a.ctx, w)
}

// AdaptTemplToGomponent converts a templ.Component into a gomponents.Node.
func AdaptTemplToGomponent(ctx context.Context, component templ.Component) gomponents.Node {
	if ctx == nil {
		ctx = context.Background()
	}
	return componentNode{ctx: ctx, component: component}
}
