package test

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/alexis077/bookshelf/internal/books"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type newBookRequest struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	ISBN      string `json:"isbn"`
	PageCount int    `json:"page_count"`
}

func (s *IntegrationTestSuite) TestBooksLifecycle() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	doRegister(ctx, t, s.httpClient, "Book Owner", "book.owner@example.com", "owners-password")
	loggedIn := doLogin(ctx, t, s.httpClient, "book.owner@example.com", "owners-password")
	token := loggedIn.Token

	// add
	resp, parsed := doRequest(ctx, t, s.httpClient, "POST", "/api/books", newBookRequest{
		Title:     "Snow Crash",
		Author:    "Neal Stephenson",
		ISBN:      "9780553380958",
		PageCount: 440,
	}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, parsed.Success)

	var added books.Book
	require.NoError(t, json.Unmarshal(parsed.Data, &added))
	require.NotEmpty(t, added.ID)
	assert.Equal(t, loggedIn.ID, added.UserID)

	// adding without a token is rejected
	resp, _ = doRequest(ctx, t, s.httpClient, "POST", "/api/books", newBookRequest{
		Title:  "No Token",
		Author: "Nobody",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// public get
	resp, parsed = doRequest(ctx, t, s.httpClient, "GET", "/api/books/"+added.ID, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched books.Book
	require.NoError(t, json.Unmarshal(parsed.Data, &fetched))
	assert.Equal(t, "Snow Crash", fetched.Title)

	// my books
	resp, parsed = doRequest(ctx, t, s.httpClient, "GET", "/api/books/user/books", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mine []books.Book
	require.NoError(t, json.Unmarshal(parsed.Data, &mine))
	require.NotEmpty(t, mine)
	for _, b := range mine {
		assert.Equal(t, loggedIn.ID, b.UserID)
	}

	// update
	resp, parsed = doRequest(ctx, t, s.httpClient, "PUT", "/api/books/"+added.ID, map[string]any{
		"page_count": 470,
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated books.Book
	require.NoError(t, json.Unmarshal(parsed.Data, &updated))
	assert.Equal(t, 470, updated.PageCount)
	assert.Equal(t, "Snow Crash", updated.Title)

	// delete
	resp, _ = doRequest(ctx, t, s.httpClient, "DELETE", "/api/books/"+added.ID, nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, parsed = doRequest(ctx, t, s.httpClient, "GET", "/api/books/"+added.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "book not found", parsed.Message)
}
