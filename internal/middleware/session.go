package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/crucial707/bookshelf/internal/apperr"
	"github.com/crucial707/bookshelf/internal/models"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const identityKey ctxKey = "identity"

// Restorer resolves a session token to the identity it belongs to.
type Restorer interface {
	Restore(ctx context.Context, token string) (*models.Identity, error)
}

// SessionCookie describes the cookie carrying the session token.
type SessionCookie struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// Token returns the session token sent with r, or "".
func (c SessionCookie) Token(r *http.Request) string {
	ck, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return ck.Value
}

// Set issues the session cookie for token with a fresh expiry.
func (c SessionCookie) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.TTL / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear tells the client to drop the session cookie.
func (c SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequireSession admits only requests carrying a live session. Anything that
// is not a valid session (no cookie, unknown, expired, account gone) clears
// the cookie and redirects to loginPath with 303. A store failure is a 500.
// On success the identity is stored in the request context and the cookie
// is re-issued so its expiry follows the session's.
func RequireSession(sessions Restorer, cookie SessionCookie, loginPath string, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cookie.Token(r)
			ident, err := sessions.Restore(r.Context(), token)
			if err != nil {
				if apperr.IsSessionFailure(err) {
					if token != "" {
						cookie.Clear(w)
					}
					http.Redirect(w, r, loginPath, http.StatusSeeOther)
					return
				}
				log.Error("restore session failed",
					"request_id", chimw.GetReqID(r.Context()),
					"path", r.URL.Path,
					"error", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			cookie.Set(w, token)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *ident)))
		})
	}
}

// WithIdentity returns ctx carrying ident.
func WithIdentity(ctx context.Context, ident models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// IdentityFromContext returns the identity put there by RequireSession.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(models.Identity)
	return ident, ok
}
