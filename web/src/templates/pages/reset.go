package pages

import (
	cmp "maragu.dev/gomponents"
	g "maragu.dev/gomponents/html"
)

// ResetPasswordData carries the code from the reset link into the form.
type ResetPasswordData struct {
	Code string
}

// ResetPassword renders the new-password form.
func ResetPassword(data ResetPasswordData) cmp.Node {
	return g.Main(
		g.Class("container"),
		g.H1(cmp.Text("Choose a new password")),
		g.Form(
			g.Method("post"),
			g.Action("/reset-password"),
			g.Input(g.Type("hidden"), g.Name("code"), g.Value(data.Code)),
			g.Div(
				g.Label(g.For("password"), cmp.Text("New password")),
				g.Input(g.ID("password"), g.Type("password"), g.Name("password"), g.Required()),
			),
			g.Div(
				g.Label(g.For("password_confirm"), cmp.Text("Confirm password")),
				g.Input(g.ID("password_confirm"), g.Type("password"), g.Name("password_confirm"), g.Required()),
			),
			passwordRules(),
			g.Button(g.Type("submit"), cmp.Text("Reset password")),
		),
	)
}
