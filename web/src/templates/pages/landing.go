package pages

import (
	"strconv"

	"github.com/nfrund/gatehouse/internal/domain"
	"github.com/nfrund/gatehouse/internal/landing"
	"github.com/nfrund/gatehouse/internal/session"
	cmp "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	g "maragu.dev/gomponents/html"
)

// Landing renders the guarded dashboard page.
func Landing(p landing.Page) cmp.Node {
	return g.Div(
		hx.Ext("ws"),
		cmp.Attr("ws-connect", "/ws/session"),
		Navbar(p),
		g.Div(g.ID("session-status")),
		hero(p),
		about(p),
		testimonials(p.Testimonials),
		features(p.Features),
		team(p),
		g.Footer(
			g.Class("container"),
			g.Span(cmp.Textf("© %d %s", p.Year, p.Brand)),
		),
	)
}

// Navbar renders the top bar. It is the htmx partial returned by
// POST /landing/menu, which flips MenuOpen.
func Navbar(p landing.Page) cmp.Node {
	class := "navbar"
	if p.MenuOpen {
		class = "navbar open"
	}
	return g.Nav(
		g.ID("navbar"),
		g.Class(class),
		g.A(g.Href("/landing"), cmp.Text(p.Brand)),
		g.Button(
			g.Type("button"),
			g.Aria("label", "Toggle navigation"),
			g.Aria("expanded", strconv.FormatBool(p.MenuOpen)),
			hx.Post("/landing/menu"),
			hx.Vals(`{"action": "toggle", "menu_open": "`+strconv.FormatBool(p.MenuOpen)+`"}`),
			hx.Target("#navbar"),
			hx.Swap("outerHTML"),
			cmp.Text("☰"),
		),
		g.Div(
			g.Class("menu"),
			menuLink("#about", "About"),
			menuLink("#testimonials", "Testimonials"),
			menuLink("#features", "Features"),
			menuLink("#team", "Team"),
			g.Span(cmp.Text("Signed in: "), g.Strong(cmp.Text(p.DisplayName()))),
			g.Form(
				g.Method("post"),
				g.Action("/logout"),
				g.Button(g.Type("submit"), cmp.Text("Logout")),
			),
		),
	)
}

func menuLink(href, label string) cmp.Node {
	return g.A(
		g.Href(href),
		hx.Post("/landing/menu"),
		hx.Vals(`{"action": "close"}`),
		hx.Target("#navbar"),
		hx.Swap("outerHTML"),
		cmp.Text(label),
	)
}

func hero(p landing.Page) cmp.Node {
	return g.Header(
		g.Class("container"),
		g.H1(cmp.Text(p.Hero.Title)),
		g.P(cmp.Text(p.Hero.Lead)),
		g.Dl(
			cmp.Map(p.Summary, func(s landing.SummaryItem) cmp.Node {
				return cmp.Group([]cmp.Node{g.Dt(cmp.Text(s.Label)), g.Dd(cmp.Text(s.Value))})
			}),
		),
	)
}

func about(p landing.Page) cmp.Node {
	return g.Section(
		g.ID("about"),
		g.Class("container"),
		g.H2(cmp.Text("About")),
		g.P(cmp.Text(p.About)),
		g.Div(
			g.Class("profile"),
			g.Div(cmp.Text("Signed in as:")),
			g.Strong(cmp.Text(p.DisplayName())),
		),
	)
}

func testimonials(items []landing.Testimonial) cmp.Node {
	return g.Section(
		g.ID("testimonials"),
		g.Class("container"),
		g.H2(cmp.Text("Testimonials")),
		cmp.Map(items, func(t landing.Testimonial) cmp.Node {
			return g.Figure(
				g.Class("testimonial"),
				g.Video(g.Src(t.VideoSrc), g.Controls(), cmp.Attr("playsinline")),
				g.BlockQuote(cmp.Text("“"+t.Quote+"”")),
				g.FigCaption(g.Strong(cmp.Text(t.Name)), cmp.Text(" · "+t.Title)),
			)
		}),
	)
}

func features(items []landing.Feature) cmp.Node {
	return g.Section(
		g.ID("features"),
		g.Class("container"),
		g.H2(cmp.Text("Features")),
		cmp.Map(items, func(f landing.Feature) cmp.Node {
			return g.Div(
				g.Class("feature"),
				g.H3(cmp.Text(f.Title)),
				g.P(cmp.Text(f.Description)),
			)
		}),
	)
}

func team(p landing.Page) cmp.Node {
	return g.Section(
		g.ID("team"),
		g.Class("container"),
		g.H2(cmp.Text("Team")),
		g.Table(
			g.THead(g.Tr(
				g.Th(cmp.Text("ID")), g.Th(cmp.Text("Name")), g.Th(cmp.Text("Email")),
				g.Th(cmp.Text("Role")), g.Th(cmp.Text("Status")),
			)),
			g.TBody(
				cmp.Map(p.Users, func(u domain.UserRow) cmp.Node {
					return g.Tr(
						g.Td(cmp.Text(strconv.Itoa(u.ID))),
						g.Td(cmp.Text(u.Name)),
						g.Td(cmp.Text(u.Email)),
						g.Td(cmp.Text(u.Role)),
						g.Td(cmp.Text(u.Status)),
					)
				}),
			),
		),
	)
}

// SessionBanner is pushed over the session websocket. It swaps into
// #session-status out of band.
func SessionBanner(st session.State) cmp.Node {
	return g.Div(
		g.ID("session-status"),
		hx.SwapOOB("true"),
		cmp.If(!st.Present, g.Div(
			g.Class("alert-error"),
			g.Role("alert"),
			cmp.Text(bannerText(st.Reason)+" "),
			g.A(g.Href("/login"), cmp.Text("Sign in again")),
		)),
	)
}

func bannerText(reason session.Reason) string {
	if reason == session.ReasonExpired {
		return "Your session has expired."
	}
	return "You have been signed out."
}
