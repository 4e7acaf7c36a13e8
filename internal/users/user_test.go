package users

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "mila@example.com", NormalizeEmail("mila@example.com"))
	assert.Equal(t, "mila@example.com", NormalizeEmail("MILA@Example.COM"))
	assert.Equal(t, "mila@example.com", NormalizeEmail("  mila@example.com\t"))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestUser_Sanitized(t *testing.T) {
	u := &User{
		ID:           "user-id-1",
		Name:         "Mila",
		Email:        "mila@example.com",
		PasswordHash: "$2a$10$somethingsomething",
		Role:         RoleAdmin,
	}

	sanitized := u.Sanitized()
	assert.Equal(t, u.ID, sanitized.ID)
	assert.Equal(t, u.Name, sanitized.Name)
	assert.Equal(t, u.Email, sanitized.Email)
	assert.Equal(t, u.Role, sanitized.Role)

	asJson, err := json.Marshal(sanitized)
	require.NoError(t, err)
	assert.NotContains(t, string(asJson), "password")
	assert.NotContains(t, string(asJson), u.PasswordHash)
}

func TestUser_JSONHidesPasswordHash(t *testing.T) {
	u := &User{
		ID:           "user-id-1",
		PasswordHash: "$2a$10$somethingsomething",
	}

	asJson, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(asJson), u.PasswordHash)
}
