package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/alexis077/bookshelf/internal/auth"
	"github.com/alexis077/bookshelf/internal/users"

	"github.com/stretchr/testify/require"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func doRequest(
	ctx context.Context,
	t *testing.T,
	client *http.Client,
	method, path string,
	body any,
	token string,
) (*http.Response, apiResponse) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyJson, err := json.Marshal(body)
		require.NoError(t, err)
		bodyReader = bytes.NewBuffer(bodyJson)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, bodyReader)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed apiResponse
	if len(respBytes) > 0 {
		require.NoError(t, json.Unmarshal(respBytes, &parsed),
			"unparseable response: %s", string(respBytes))
	}

	return resp, parsed
}

func doRegister(
	ctx context.Context,
	t *testing.T,
	client *http.Client,
	name, email, password string,
) users.SanitizedUser {
	t.Helper()

	resp, parsed := doRequest(ctx, t, client, "POST", "/api/auth/register", registerRequest{
		Name:     name,
		Email:    email,
		Password: password,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, parsed.Success)

	var created users.SanitizedUser
	require.NoError(t, json.Unmarshal(parsed.Data, &created))
	return created
}

func doLogin(
	ctx context.Context,
	t *testing.T,
	client *http.Client,
	email, password string,
) auth.UserWithToken {
	t.Helper()

	resp, parsed := doRequest(ctx, t, client, "POST", "/api/auth/login", loginRequest{
		Email:    email,
		Password: password,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, parsed.Success)

	var loggedIn auth.UserWithToken
	require.NoError(t, json.Unmarshal(parsed.Data, &loggedIn))
	require.NotEmpty(t, loggedIn.Token)
	return loggedIn
}

// promoteToAdmin flips the role directly in the DB; the first admin of
// a deployment has to be seeded the same way.
func (s *IntegrationTestSuite) promoteToAdmin(t *testing.T, userID string) {
	t.Helper()
	res, err := s.DB.Exec(`UPDATE site_user SET role = 'admin' WHERE id = $1;`, userID)
	require.NoError(t, err)
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)
	fmt.Printf("user %s promoted to admin\n", userID)
}
