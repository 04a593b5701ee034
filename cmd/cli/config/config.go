package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultAPIURL     = "http://localhost:8080"
	defaultCookieName = "bookshelf_session"
	tokenFileName     = ".bookshelf_session"
)

// ErrNotLoggedIn means no session token is stored locally.
var ErrNotLoggedIn = errors.New("not logged in; run `bookshelf login` first")

// APIURL returns the base URL of the bookshelf API.
// It can be overridden with the BOOKSHELF_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("BOOKSHELF_API_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return defaultAPIURL
}

// CookieName is the session cookie the API expects (BOOKSHELF_SESSION_COOKIE).
func CookieName() string {
	if v := os.Getenv("BOOKSHELF_SESSION_COOKIE"); v != "" {
		return v
	}
	return defaultCookieName
}

// TokenPath is where the session token is kept: BOOKSHELF_SESSION_FILE, or
// ~/.bookshelf_session.
func TokenPath() string {
	if v := os.Getenv("BOOKSHELF_SESSION_FILE"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return tokenFileName
	}
	return filepath.Join(home, tokenFileName)
}

// SaveToken stores the session token readable by the current user only.
func SaveToken(token string) error {
	return os.WriteFile(TokenPath(), []byte(token), 0o600)
}

// LoadToken returns the stored session token or ErrNotLoggedIn.
func LoadToken() (string, error) {
	data, err := os.ReadFile(TokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotLoggedIn
	}
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNotLoggedIn
	}
	return token, nil
}

// ClearToken removes the stored token. A missing file is not an error.
func ClearToken() error {
	err := os.Remove(TokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
