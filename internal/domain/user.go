package domain

import (
	"strings"
	"time"
)

// Credentials is the transient email/password pair collected by a form.
// It is never persisted by the application.
type Credentials struct {
	Email    string
	Password string
}

// Normalize trims surrounding whitespace from the email. The password is
// used exactly as typed.
func (c Credentials) Normalize() Credentials {
	return Credentials{Email: strings.TrimSpace(c.Email), Password: c.Password}
}

// Identity is a signed-in user as reported by the identity provider.
type Identity struct {
	UID       string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// UserRow is one record of the static user list.
type UserRow struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
}
