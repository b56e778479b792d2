package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// UsersHandler serves the static user list as JSON.
type UsersHandler struct {
	users UserSource
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(users UserSource) *UsersHandler {
	return &UsersHandler{users: users}
}

// List handles GET /api/users.
func (h *UsersHandler) List(c echo.Context) error {
	rows := h.users.Users(c.Request().Context())
	return c.JSON(http.StatusOK, UsersResponse{Users: rows, Count: len(rows)})
}

// Health handles GET /health.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
