package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crucial707/bookshelf/cmd/cli/config"
	"github.com/crucial707/bookshelf/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, h http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	t.Setenv("BOOKSHELF_API_URL", srv.URL)
	t.Setenv("BOOKSHELF_SESSION_FILE", t.TempDir()+"/session")
}

func TestLogin_SavesSessionToken(t *testing.T) {
	setup(t, func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["email"] != "a@x.com" || in["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "bookshelf_session", Value: "tok-1", Path: "/"})
		_ = json.NewEncoder(w).Encode(models.Identity{ID: 1, Name: "Ann", Email: "a@x.com"})
	})

	cmd := loginCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--email", "a@x.com", "--password", "pw"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Signed in as Ann")

	token, err := config.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
}

func TestLogin_PromptsAndReportsBadCredentials(t *testing.T) {
	setup(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
	})

	cmd := loginCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("a@x.com\nwrong\n"))
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")

	_, err = config.LoadToken()
	assert.ErrorIs(t, err, config.ErrNotLoggedIn)
}

func TestLogout_ClearsTokenEvenWhenServerFails(t *testing.T) {
	setup(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	require.NoError(t, config.SaveToken("tok"))

	cmd := logoutCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())

	_, err := config.LoadToken()
	assert.ErrorIs(t, err, config.ErrNotLoggedIn)
}
