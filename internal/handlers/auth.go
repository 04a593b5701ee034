package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/crucial707/bookshelf/internal/apperr"
	"github.com/crucial707/bookshelf/internal/metrics"
	"github.com/crucial707/bookshelf/internal/middleware"
	"github.com/crucial707/bookshelf/internal/models"
)

// Credentials registers and verifies accounts.
type Credentials interface {
	Register(ctx context.Context, name, email, password string) (*models.Account, error)
	Verify(ctx context.Context, email, password string) (*models.Account, error)
}

// Sessions issues, restores and ends login sessions.
type Sessions interface {
	Establish(ctx context.Context, identity models.Identity) (string, error)
	Restore(ctx context.Context, token string) (*models.Identity, error)
	Invalidate(ctx context.Context, token string) error
}

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Credentials Credentials
	Sessions    Sessions
	Cookie      middleware.SessionCookie

	// SignedInPath is where a signed-in caller of GET /auth/login is sent.
	SignedInPath string
	Log          *slog.Logger
}

type registerInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

type loginInput struct {
	Email    string `json:"email" validate:"required,max=255"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

// ==========================
// Register
// ==========================

// Register creates an account and signs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input registerInput
	if !decodeJSON(w, r, &input) {
		return
	}

	acct, err := h.Credentials.Register(r.Context(), input.Name, input.Email, input.Password)
	switch {
	case errors.Is(err, apperr.ErrDuplicateEmail):
		metrics.IncAuthAttempt("register", "duplicate")
		JSONError(w, "email already registered", http.StatusConflict)
		return
	case errors.Is(err, apperr.ErrInvalidCredential):
		metrics.IncAuthAttempt("register", "invalid")
		JSONValidationError(w, "validation failed", map[string]string{"password": "unusable"}, http.StatusBadRequest)
		return
	case err != nil:
		metrics.IncAuthAttempt("register", "error")
		serviceError(w, r, h.Log, err)
		return
	}

	ident := acct.Identity()
	if !h.signIn(w, r, ident) {
		return
	}
	metrics.IncAuthAttempt("register", "ok")
	logger(h.Log).Info("account registered", "user_id", ident.ID)
	writeJSON(w, http.StatusCreated, ident)
}

// ==========================
// Login
// ==========================

// Login verifies credentials and starts a session. Unknown email and wrong
// password get the same answer.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input loginInput
	if !decodeJSON(w, r, &input) {
		return
	}

	acct, err := h.Credentials.Verify(r.Context(), input.Email, input.Password)
	if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrInvalidCredential) {
		metrics.IncAuthAttempt("login", "invalid")
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		metrics.IncAuthAttempt("login", "error")
		serviceError(w, r, h.Log, err)
		return
	}

	ident := acct.Identity()
	if !h.signIn(w, r, ident) {
		return
	}
	metrics.IncAuthAttempt("login", "ok")
	writeJSON(w, http.StatusOK, ident)
}

// LoginStatus answers GET /auth/login: signed-in callers are redirected to
// their account, everyone else is told to log in.
func (h *AuthHandler) LoginStatus(w http.ResponseWriter, r *http.Request) {
	_, err := h.Sessions.Restore(r.Context(), h.Cookie.Token(r))
	switch {
	case err == nil:
		http.Redirect(w, r, h.SignedInPath, http.StatusSeeOther)
	case apperr.IsSessionFailure(err):
		JSONError(w, "login required", http.StatusUnauthorized)
	default:
		serviceError(w, r, h.Log, err)
	}
}

// ==========================
// Logout
// ==========================

// Logout ends the caller's session, if any, and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Invalidate(r.Context(), h.Cookie.Token(r)); err != nil {
		logger(h.Log).Warn("logout: invalidate session failed", "error", err)
	}
	h.Cookie.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request, ident models.Identity) bool {
	token, err := h.Sessions.Establish(r.Context(), ident)
	if err != nil {
		serviceError(w, r, h.Log, err)
		return false
	}
	h.Cookie.Set(w, token)
	return true
}
