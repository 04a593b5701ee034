package client

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	t.Setenv("BOOKSHELF_API_URL", srv.URL)
	t.Setenv("BOOKSHELF_SESSION_FILE", t.TempDir()+"/session")
	return New()
}

func TestDo_SendsCookieAndDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("bookshelf_session")
		if err != nil || ck.Value != "tok" {
			w.WriteHeader(http.StatusSeeOther)
			return
		}
		_, _ = w.Write([]byte(`{"id":7}`))
	})
	c.Token = "tok"

	var out struct{ ID int }
	require.NoError(t, c.Do(http.MethodGet, "/account", nil, &out))
	assert.Equal(t, 7, out.ID)
}

func TestDo_RedirectMeansLoginRequired(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
	})

	err := c.Do(http.MethodGet, "/reviews", nil, nil)
	assert.ErrorIs(t, err, ErrLoginRequired)
}

func TestDo_APIErrorCarriesMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"access denied"}`))
	})

	err := c.Do(http.MethodDelete, "/reviews/3", nil, nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "access denied", apiErr.Message)
}

func TestDo_TracksSessionCookie(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "bookshelf_session", Value: "fresh", Path: "/"})
			w.WriteHeader(http.StatusOK)
		case "/auth/logout":
			http.SetCookie(w, &http.Cookie{Name: "bookshelf_session", Value: "", Path: "/", MaxAge: -1})
			w.WriteHeader(http.StatusNoContent)
		}
	})

	require.NoError(t, c.Do(http.MethodPost, "/auth/login", map[string]string{"email": "a@x.com"}, nil))
	assert.Equal(t, "fresh", c.Token)

	require.NoError(t, c.Do(http.MethodPost, "/auth/logout", nil, nil))
	assert.Empty(t, c.Token)
}
