package test

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/alexis077/bookshelf/internal/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestAdminSurface() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	admin := doRegister(ctx, t, s.httpClient, "The Admin", "the.admin@example.com", "admins-password")
	regular := doRegister(ctx, t, s.httpClient, "Regular Reader", "regular.reader@example.com", "readers-password")
	s.promoteToAdmin(t, admin.ID)

	regularToken := doLogin(ctx, t, s.httpClient, "regular.reader@example.com", "readers-password").Token
	// login after promotion so the token carries the admin role
	adminToken := doLogin(ctx, t, s.httpClient, "the.admin@example.com", "admins-password").Token

	// a regular user is gated out of the admin surface
	resp, parsed := doRequest(ctx, t, s.httpClient, "GET", "/api/admin/users", nil, regularToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "access denied, admin role required", parsed.Message)

	// and without a token the guard rejects the request first
	resp, _ = doRequest(ctx, t, s.httpClient, "GET", "/api/admin/users", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// the admin can list accounts
	resp, parsed = doRequest(ctx, t, s.httpClient, "GET", "/api/admin/users", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all []users.SanitizedUser
	require.NoError(t, json.Unmarshal(parsed.Data, &all))
	assert.GreaterOrEqual(t, len(all), 2)

	// and change a role through the API
	resp, parsed = doRequest(ctx, t, s.httpClient, "PUT", "/api/admin/users/"+regular.ID+"/role", map[string]string{
		"role": "admin",
	}, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated users.SanitizedUser
	require.NoError(t, json.Unmarshal(parsed.Data, &updated))
	assert.Equal(t, users.RoleAdmin, updated.Role)

	// tokens issued before the change still carry the old role
	resp, _ = doRequest(ctx, t, s.httpClient, "GET", "/api/admin/users", nil, regularToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// a fresh login picks the new role up
	freshToken := doLogin(ctx, t, s.httpClient, "regular.reader@example.com", "readers-password").Token
	resp, _ = doRequest(ctx, t, s.httpClient, "GET", "/api/admin/users", nil, freshToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
