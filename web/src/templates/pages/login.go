package pages

import (
	"fmt"

	"github.com/nfrund/gatehouse/internal/validation"
	cmp "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	g "maragu.dev/gomponents/html"
)

// ForgotData is the view model of the reset-link dialog.
type ForgotData struct {
	Open    bool
	Email   string
	Error   string
	Success string
}

// LoginData is the view model of the auth page.
type LoginData struct {
	Form   *validation.FormState
	Forgot ForgotData
	Year   int
}

// Login renders the auth page: the credentials form plus the reset dialog.
func Login(data LoginData) cmp.Node {
	return g.Main(
		g.Class("container"),
		g.Div(
			g.Class("login-header"),
			g.H1(cmp.Text("Welcome back")),
			g.Small(cmp.Text("Sign in to access your dashboard")),
		),
		CredentialsForm(data.Form),
		g.A(
			g.Href("/login?forgot=1"),
			cmp.Text("Forgot password?"),
		),
		passwordRules(),
		ForgotDialog(data.Forgot),
		g.Footer(g.P(cmp.Textf("© %d Gatehouse • Secure sign-in", data.Year))),
	)
}

// CredentialsForm renders the login/signup form.
func CredentialsForm(form *validation.FormState) cmp.Node {
	return g.Form(
		g.ID("credentials"),
		g.Method("post"),
		g.Action("/login"),
		cmp.Attr("novalidate"),
		touchedInputs(form, false),
		field(form, validation.FieldEmail, "Email", "email", "name@gmail.com", form.Email),
		field(form, validation.FieldPassword, "Password", "password", "••••••••", ""),
		actions(form, false),
	)
}

// ValidationPartial is the htmx response of POST /login/validate. Every
// part swaps out of band, so the inputs being typed in are left alone.
func ValidationPartial(form *validation.FormState) cmp.Node {
	return cmp.Group{
		touchedInputs(form, true),
		fieldError(form, validation.FieldEmail, true),
		fieldError(form, validation.FieldPassword, true),
		actions(form, true),
	}
}

func field(form *validation.FormState, name, label, inputType, placeholder, value string) cmp.Node {
	id := "input-" + name
	return g.Div(
		g.Class("form-group"),
		g.Label(g.For(id), cmp.Text(label)),
		g.Input(
			g.ID(id),
			g.Type(inputType),
			g.Name(name),
			g.Placeholder(placeholder),
			cmp.If(value != "", g.Value(value)),
			cmp.If(form.FieldError(name) != "", g.Aria("invalid", "true")),
			hx.Post("/login/validate"),
			hx.Trigger("blur, keyup changed delay:400ms"),
			hx.Include("#credentials"),
			hx.Swap("none"),
			hx.Vals(fmt.Sprintf(`{"field": %q}`, name)),
		),
		fieldError(form, name, false),
	)
}

func fieldError(form *validation.FormState, name string, oob bool) cmp.Node {
	msg := form.FieldError(name)
	return g.Div(
		g.ID("error-"+name),
		g.Class("field-error"),
		cmp.If(oob, hx.SwapOOB("true")),
		cmp.If(msg != "", cmp.Text(msg)),
	)
}

func actions(form *validation.FormState, oob bool) cmp.Node {
	disabled := form.Submitting || form.Invalid()
	label := "Login"
	if form.Submitting {
		label = "Logging in…"
	}
	return g.Div(
		g.ID("form-actions"),
		cmp.If(oob, hx.SwapOOB("true")),
		g.Button(
			g.Type("submit"),
			cmp.If(disabled, g.Disabled()),
			cmp.Text(label),
		),
		cmp.If(form.Error != "", g.Div(g.Class("alert-error"), g.Role("alert"), cmp.Text(form.Error))),
		cmp.If(form.Success != "", g.Div(g.Class("alert-success"), g.Role("status"), cmp.Text(form.Success))),
		g.Hr(),
		g.Button(
			g.Type("submit"),
			cmp.Attr("formaction", "/signup"),
			cmp.If(disabled, g.Disabled()),
			cmp.Text("Create account"),
		),
	)
}

func touchedInputs(form *validation.FormState, oob bool) cmp.Node {
	var nodes []cmp.Node
	for _, name := range []string{validation.FieldEmail, validation.FieldPassword} {
		if form.Touched(name) {
			nodes = append(nodes, g.Input(g.Type("hidden"), g.Name("touched"), g.Value(name)))
		}
	}
	return g.Div(
		g.ID("touched-fields"),
		cmp.If(oob, hx.SwapOOB("true")),
		cmp.Group(nodes),
	)
}

func passwordRules() cmp.Node {
	return g.Div(
		g.Class("password-rules"),
		g.Strong(cmp.Text("Password rules:")),
		g.Ul(
			g.Li(cmp.Text("7+ characters")),
			g.Li(cmp.Text("At least 1 uppercase letter")),
			g.Li(cmp.Text("At least 1 number")),
			g.Li(cmp.Text("Letters/numbers only")),
		),
	)
}

// ForgotDialog renders the reset-link dialog. It is open when data.Open is
// set and is the htmx partial returned by POST /forgot-password.
func ForgotDialog(data ForgotData) cmp.Node {
	return g.Dialog(
		g.ID("forgot-dialog"),
		cmp.If(data.Open, cmp.Attr("open")),
		g.H2(cmp.Text("Reset password")),
		g.P(cmp.Text("Enter your email and we'll send a password reset link.")),
		g.Form(
			g.Method("post"),
			g.Action("/forgot-password"),
			hx.Post("/forgot-password"),
			hx.Target("#forgot-dialog"),
			hx.Swap("outerHTML"),
			g.Input(
				g.Type("email"),
				g.Name("email"),
				g.Placeholder("name@gmail.com"),
				cmp.If(data.Email != "", g.Value(data.Email)),
			),
			cmp.If(data.Error != "", g.Div(g.Class("field-error"), cmp.Text(data.Error))),
			cmp.If(data.Success != "", g.Div(g.Class("alert-success"), cmp.Text(data.Success))),
			g.A(g.Href("/login"), cmp.Text("Cancel")),
			g.Button(g.Type("submit"), cmp.Text("Send link")),
		),
	)
}
