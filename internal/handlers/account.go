package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/crucial707/bookshelf/internal/account"
	"github.com/crucial707/bookshelf/internal/middleware"
	"github.com/crucial707/bookshelf/internal/models"
)

// AccountService covers the signed-in account operations.
type AccountService interface {
	Profile(ctx context.Context, ident models.Identity) (*account.Profile, error)
	ChangePassword(ctx context.Context, ident models.Identity, password, confirm string) error
	Delete(ctx context.Context, ident models.Identity) error
}

type AccountHandler struct {
	Accounts AccountService
	Cookie   middleware.SessionCookie
	Log      *slog.Logger
}

// GetAccount returns the caller's identity with their reviews.
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	p, err := h.Accounts.Profile(r.Context(), ident)
	if err != nil {
		serviceError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ChangePassword expects the new password twice: {"password":..,"password2":..}.
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var input struct {
		Password  string `json:"password" validate:"required,maxbytes=72"`
		Password2 string `json:"password2" validate:"required,maxbytes=72"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}

	if err := h.Accounts.ChangePassword(r.Context(), ident, input.Password, input.Password2); err != nil {
		serviceError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount removes the caller's account and everything it owns, then
// signs them out.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if err := h.Accounts.Delete(r.Context(), ident); err != nil {
		serviceError(w, r, h.Log, err)
		return
	}
	h.Cookie.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
