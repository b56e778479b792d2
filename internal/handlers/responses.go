package handlers

import "github.com/nfrund/gatehouse/internal/domain"

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// UsersResponse is the body of GET /api/users.
type UsersResponse struct {
	Users []domain.UserRow `json:"users"`
	Count int              `json:"count"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
