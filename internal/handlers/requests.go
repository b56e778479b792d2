package handlers

import "strings"

// ValidateRequest is posted by the credentials form on every field
// interaction.
type ValidateRequest struct {
	Email    string   `form:"email"`
	Password string   `form:"password"`
	Field    string   `form:"field"`
	Touched  []string `form:"touched"`
}

// ForgotRequest is posted by the reset-link dialog.
type ForgotRequest struct {
	Email string `form:"email"`
}

// ResetRequest is posted by the new-password form.
type ResetRequest struct {
	Code            string `form:"code"`
	Password        string `form:"password"`
	PasswordConfirm string `form:"password_confirm"`
}

// MenuRequest toggles or closes the landing navbar.
type MenuRequest struct {
	Action   string `form:"action"`
	MenuOpen bool   `form:"menu_open"`
}

func (r ForgotRequest) normalized() string {
	return strings.TrimSpace(r.Email)
}
