package test

import (
	"context"
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestRegisterAndLogin() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	created := doRegister(ctx, t, s.httpClient, "Reader One", "Reader.One@Example.com", "readers-password")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "reader.one@example.com", created.Email)
	assert.Equal(t, "user", created.Role)

	// duplicate email, different casing
	resp, parsed := doRequest(ctx, t, s.httpClient, "POST", "/api/auth/register", registerRequest{
		Name:     "Reader One Again",
		Email:    "READER.ONE@example.com",
		Password: "other-password",
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, parsed.Success)
	assert.Equal(t, "account with this email already exists", parsed.Message)

	loggedIn := doLogin(ctx, t, s.httpClient, "reader.one@example.com", "readers-password")
	assert.Equal(t, created.ID, loggedIn.ID)
	assert.NotEmpty(t, loggedIn.Token)

	// the stored secret is a bcrypt hash, not the plaintext
	var storedHash string
	err := s.DB.QueryRow(
		`SELECT password_hash FROM site_user WHERE id = $1;`, created.ID,
	).Scan(&storedHash)
	require.NoError(t, err)
	assert.NotEqual(t, "readers-password", storedHash)
	assert.Contains(t, storedHash, "$2a$")
}

func (s *IntegrationTestSuite) TestLogin_InvalidCredentials() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	doRegister(ctx, t, s.httpClient, "Reader Two", "reader.two@example.com", "readers-password")

	// unknown email and wrong password come back identical
	respUnknown, parsedUnknown := doRequest(ctx, t, s.httpClient, "POST", "/api/auth/login", loginRequest{
		Email:    "nobody@example.com",
		Password: "readers-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, respUnknown.StatusCode)

	respWrongPass, parsedWrongPass := doRequest(ctx, t, s.httpClient, "POST", "/api/auth/login", loginRequest{
		Email:    "reader.two@example.com",
		Password: "wrong-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, respWrongPass.StatusCode)

	assert.Equal(t, parsedUnknown.Message, parsedWrongPass.Message)
	assert.Equal(t, "invalid credentials", parsedUnknown.Message)
}

func (s *IntegrationTestSuite) TestGuardedRouteWithoutToken() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resp, parsed := doRequest(ctx, t, s.httpClient, "GET", "/api/books/user/books", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "authentication required", parsed.Message)

	resp, parsed = doRequest(ctx, t, s.httpClient, "GET", "/api/books/user/books", nil, "not-a-real-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid or expired token", parsed.Message)
}
