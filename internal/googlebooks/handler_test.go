package googlebooks

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexis077/bookshelf/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newHandlerTestRouter(t *testing.T) (*mux.Router, *httptest.Server) {
	t.Helper()

	server := newTestCatalogServer(t, nil)
	t.Cleanup(server.Close)

	api := NewApi(server.URL, "test-api-key", server.Client())
	handler := NewHandler(api, metrics.NewTestManager())

	r := mux.NewRouter()
	handler.SetupRoutes(r)
	return r, server
}

func TestGoogleBooksHandler_Search(t *testing.T) {
	router, _ := newHandlerTestRouter(t)

	req, err := http.NewRequest("GET", "/api/books/search?q=dune", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	var found []CatalogBook
	require.NoError(t, json.Unmarshal(resp.Data, &found))
	require.Len(t, found, 2)
	assert.Equal(t, "Dune", found[0].Title)
}

func TestGoogleBooksHandler_Search_MissingQuery(t *testing.T) {
	router, _ := newHandlerTestRouter(t)

	req, err := http.NewRequest("GET", "/api/books/search", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "search query is required", resp.Message)
}

func TestGoogleBooksHandler_Search_UpstreamDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	api := NewApi(server.URL, "test-api-key", server.Client())
	handler := NewHandler(api, metrics.NewTestManager())
	router := mux.NewRouter()
	handler.SetupRoutes(router)

	req, err := http.NewRequest("GET", "/api/books/search?q=dune", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	// upstream failure still yields 200 with an empty result list
	require.Equal(t, http.StatusOK, rr.Code)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	var found []CatalogBook
	require.NoError(t, json.Unmarshal(resp.Data, &found))
	assert.Empty(t, found)
}

func TestGoogleBooksHandler_GetVolume(t *testing.T) {
	router, _ := newHandlerTestRouter(t)

	req, err := http.NewRequest("GET", "/api/books/external/vol-1", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	var book CatalogBook
	require.NoError(t, json.Unmarshal(resp.Data, &book))
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, "vol-1", book.GoogleBooksID)
}

func TestGoogleBooksHandler_GetVolume_NotFound(t *testing.T) {
	router, _ := newHandlerTestRouter(t)

	req, err := http.NewRequest("GET", "/api/books/external/no-such-volume", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "book not found", resp.Message)
}
