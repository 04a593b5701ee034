// Package session issues and restores server-side login sessions.
//
// A session token is an opaque random string handed to the client. The
// server keeps only its SHA-256 and the account id, so the stored row can
// neither be replayed nor reveal anything about the account. Restoring a
// session re-reads the account through an allow-list projection; the
// password hash never enters this package.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/crucial707/bookshelf/internal/apperr"
	"github.com/crucial707/bookshelf/internal/db"
	"github.com/crucial707/bookshelf/internal/models"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Store persists session rows.
type Store interface {
	Create(ctx context.Context, tokenHash string, userID int, expiresAt time.Time) error
	Get(ctx context.Context, tokenHash string) (*models.Session, error)
	Touch(ctx context.Context, tokenHash string, expiresAt time.Time) error
	Delete(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// IdentityStore loads the projection a session restores to.
type IdentityStore interface {
	GetIdentity(ctx context.Context, id int) (*models.Identity, error)
}

// Options tune a Manager. Zero values disable the restore cache.
type Options struct {
	TTL          time.Duration
	StoreTimeout time.Duration
	CacheSize    int
	CacheTTL     time.Duration
	Logger       *slog.Logger
}

type cached struct {
	identity  models.Identity
	expiresAt time.Time
}

// Manager establishes, restores and invalidates sessions.
type Manager struct {
	sessions Store
	users    IdentityStore
	ttl      time.Duration
	timeout  time.Duration
	cache    *expirable.LRU[string, cached]
	revoked  *expirable.LRU[string, struct{}]
	log      *slog.Logger
	now      func() time.Time
}

// NewManager returns a Manager backed by sessions and users.
func NewManager(sessions Store, users IdentityStore, opts Options) *Manager {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	m := &Manager{
		sessions: sessions,
		users:    users,
		ttl:      ttl,
		timeout:  opts.StoreTimeout,
		log:      log.With("component", "session"),
		now:      time.Now,
	}
	if opts.CacheSize > 0 && opts.CacheTTL > 0 {
		m.cache = expirable.NewLRU[string, cached](opts.CacheSize, nil, opts.CacheTTL)
		// Invalidated keys outlive any entry a racing restore could still add.
		m.revoked = expirable.NewLRU[string, struct{}](opts.CacheSize, nil, opts.CacheTTL)
	}
	return m
}

// TTL is the idle lifetime of a session.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Establish opens a session for identity and returns the client token.
func (m *Manager) Establish(ctx context.Context, identity models.Identity) (string, error) {
	token := uuid.NewString()
	expires := m.now().Add(m.ttl)

	sctx, cancel := db.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.sessions.Create(sctx, hashToken(token), identity.ID, expires); err != nil {
		return "", apperr.Store("create session", err)
	}
	return token, nil
}

// Restore resolves token to the identity it was issued for and slides the
// session expiry forward. It fails with ErrSessionNotFound, ErrSessionExpired,
// ErrNotFound (account gone) or ErrStoreUnavailable.
func (m *Manager) Restore(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, apperr.ErrSessionNotFound
	}
	key := hashToken(token)
	now := m.now()

	if m.cache != nil {
		if c, ok := m.cache.Get(key); ok && now.Before(c.expiresAt) {
			ident := c.identity
			return &ident, nil
		}
	}

	sctx, cancel := db.WithTimeout(ctx, m.timeout)
	defer cancel()

	sess, err := m.sessions.Get(sctx, key)
	if errors.Is(err, apperr.ErrSessionNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, apperr.Store("load session", err)
	}

	if sess.Expired(now) {
		m.drop(sctx, key)
		return nil, apperr.ErrSessionExpired
	}

	ident, err := m.users.GetIdentity(sctx, sess.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		m.log.Warn("session references missing account", "user_id", sess.UserID)
		m.drop(sctx, key)
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Store("load identity", err)
	}

	expires := now.Add(m.ttl)
	if err := m.sessions.Touch(sctx, key, expires); err != nil {
		m.log.Warn("refresh session failed", "user_id", ident.ID, "error", err)
		expires = sess.ExpiresAt
	}

	if m.cache != nil {
		m.cache.Add(key, cached{identity: *ident, expiresAt: expires})
		if m.revoked.Contains(key) {
			m.cache.Remove(key)
			return nil, apperr.ErrSessionNotFound
		}
	}
	return ident, nil
}

// Invalidate ends the session behind token. Unknown tokens are not an error.
func (m *Manager) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	key := hashToken(token)
	if m.revoked != nil {
		m.revoked.Add(key, struct{}{})
	}

	sctx, cancel := db.WithTimeout(ctx, m.timeout)
	defer cancel()
	err := m.sessions.Delete(sctx, key)
	if m.cache != nil {
		m.cache.Remove(key)
	}
	if err != nil {
		return apperr.Store("delete session", err)
	}
	return nil
}

// EvictAccount drops every cached session of userID. Rows are deleted by the
// caller, usually inside the account deletion transaction.
func (m *Manager) EvictAccount(userID int) {
	if m.cache == nil {
		return
	}
	for _, key := range m.cache.Keys() {
		if c, ok := m.cache.Peek(key); ok && c.identity.ID == userID {
			m.cache.Remove(key)
		}
	}
}

// PurgeExpired deletes expired session rows and returns how many went.
func (m *Manager) PurgeExpired(ctx context.Context) (int64, error) {
	sctx, cancel := db.WithTimeout(ctx, m.timeout)
	defer cancel()
	n, err := m.sessions.DeleteExpired(sctx, m.now())
	if err != nil {
		return 0, apperr.Store("purge sessions", err)
	}
	return n, nil
}

func (m *Manager) drop(ctx context.Context, key string) {
	if m.cache != nil {
		m.cache.Remove(key)
	}
	if err := m.sessions.Delete(ctx, key); err != nil {
		m.log.Warn("delete stale session failed", "error", err)
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
