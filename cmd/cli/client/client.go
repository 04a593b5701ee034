// Package client talks to the bookshelf API on behalf of the CLI.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/crucial707/bookshelf/cmd/cli/config"
)

// ErrLoginRequired is returned when the API redirects to its login page,
// meaning the stored session is missing or no longer valid.
var ErrLoginRequired = errors.New("session expired or missing; run `bookshelf login`")

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Message)
}

// Client sends JSON requests carrying the session cookie. Redirects are not
// followed so an expired session is reported instead of silently chased.
type Client struct {
	BaseURL    string
	CookieName string
	Token      string
	HTTP       *http.Client
}

// New returns a Client configured from the environment with the stored token, if any.
func New() *Client {
	token, _ := config.LoadToken()
	return &Client{
		BaseURL:    config.APIURL(),
		CookieName: config.CookieName(),
		Token:      token,
		HTTP: &http.Client{
			Timeout: 15 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Do sends in as JSON (when non-nil) and decodes the response into out (when
// non-nil). A session cookie set by the response replaces c.Token.
func (c *Client) Do(method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.AddCookie(&http.Cookie{Name: c.CookieName, Value: c.Token})
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	for _, ck := range resp.Cookies() {
		if ck.Name == c.CookieName {
			if ck.MaxAge < 0 {
				c.Token = ""
			} else {
				c.Token = ck.Value
			}
		}
	}

	data, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusSeeOther:
		return ErrLoginRequired
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
	}

	if out != nil && len(data) > 0 {
		return json.Unmarshal(data, out)
	}
	return nil
}

func errorMessage(data []byte) string {
	var e struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if json.Unmarshal(data, &e) != nil || e.Error == "" {
		return string(bytes.TrimSpace(data))
	}
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s %v", e.Error, e.Fields)
	}
	return e.Error
}
