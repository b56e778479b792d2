package format

import (
	"bytes"
	"testing"

	"github.com/nfrund/gatehouse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersTable(t *testing.T) {
	var buf bytes.Buffer
	err := UsersTable(&buf, []domain.UserRow{
		{ID: 1, Name: "Jordan Lee", Email: "jordan@example.com", Role: "admin", Status: "active"},
		{ID: 2, Name: "Mia Rossi", Email: "mia@example.com", Role: "member", Status: "suspended"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "ID  NAME")
	assert.Contains(t, out, "Admin")
	assert.Contains(t, out, "Suspended")
	assert.NotContains(t, out, "No users found")
}

func TestUsersTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, UsersTable(&buf, nil))
	assert.Contains(t, buf.String(), "No users found")
}

func TestUsersJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, UsersJSON(&buf, []domain.UserRow{{ID: 1, Name: "Jordan Lee"}}))
	assert.Contains(t, buf.String(), `"count": 1`)
	assert.Contains(t, buf.String(), `"name": "Jordan Lee"`)
}
