package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexis077/bookshelf/internal/auth"
	"github.com/alexis077/bookshelf/internal/users"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSigningSecret = []byte("test-signing-secret")

func newGuardedRouter(t *testing.T, issuer *auth.TokenIssuer, adminOnly bool) *mux.Router {
	t.Helper()

	r := mux.NewRouter()
	r.Use(NewAuthMiddlewareHandler(issuer).Authenticate())
	if adminOnly {
		r.Use(RequireAdmin())
	}

	r.HandleFunc("/guarded", func(w http.ResponseWriter, r *http.Request) {
		claims := AuthorizedUserFromContext(r.Context())
		require.NotNil(t, claims)
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(claims.Email))
		require.NoError(t, err)
	}).Methods("GET")

	return r
}

func guardedRequest(t *testing.T, router *mux.Router, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest("GET", "/guarded", nil)
	require.NoError(t, err)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	issuer := auth.NewTokenIssuer(testSigningSecret, time.Hour)
	router := newGuardedRouter(t, issuer, false)

	rr := guardedRequest(t, router, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "authentication required")
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	issuer := auth.NewTokenIssuer(testSigningSecret, time.Hour)
	router := newGuardedRouter(t, issuer, false)

	token, err := issuer.Issue("user-id-1", "user@example.com", users.RoleUser)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"no bearer prefix": token,
		"wrong scheme":     "Basic " + token,
		"empty token":      "Bearer ",
	} {
		rr := guardedRequest(t, router, header)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "case: %s", name)
		assert.Contains(t, rr.Body.String(), "authentication required", "case: %s", name)
	}
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	issuer := auth.NewTokenIssuer(testSigningSecret, time.Hour)
	router := newGuardedRouter(t, issuer, false)

	otherIssuer := auth.NewTokenIssuer([]byte("a-different-secret"), time.Hour)
	foreignToken, err := otherIssuer.Issue("user-id-1", "user@example.com", users.RoleUser)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"garbage token": "Bearer not-a-real-token",
		"wrong secret":  "Bearer " + foreignToken,
	} {
		rr := guardedRequest(t, router, header)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "case: %s", name)
		assert.Contains(t, rr.Body.String(), auth.ErrInvalidToken.Error(), "case: %s", name)
	}
}

func TestAuthenticate_ValidToken(t *testing.T) {
	issuer := auth.NewTokenIssuer(testSigningSecret, time.Hour)
	router := newGuardedRouter(t, issuer, false)

	token, err := issuer.Issue("user-id-1", "user@example.com", users.RoleUser)
	require.NoError(t, err)

	rr := guardedRequest(t, router, "Bearer "+token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user@example.com", rr.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	issuer := auth.NewTokenIssuer(testSigningSecret, time.Hour)
	router := newGuardedRouter(t, issuer, true)

	userToken, err := issuer.Issue("user-id-1", "user@example.com", users.RoleUser)
	require.NoError(t, err)
	adminToken, err := issuer.Issue("admin-id-1", "admin@example.com", users.RoleAdmin)
	require.NoError(t, err)

	// plain user is gated out
	rr := guardedRequest(t, router, "Bearer "+userToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "access denied, admin role required")

	// admin goes through
	rr = guardedRequest(t, router, "Bearer "+adminToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "admin@example.com", rr.Body.String())
}

func TestRequireAdmin_WithoutAuthenticate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(RequireAdmin())
	r.HandleFunc("/guarded", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	// no claims in context, the gate denies access
	rr := guardedRequest(t, r, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAuthorizedUserFromContext_Empty(t *testing.T) {
	req, err := http.NewRequest("GET", "/", nil)
	require.NoError(t, err)
	assert.Nil(t, AuthorizedUserFromContext(req.Context()))
}
