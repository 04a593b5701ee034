// Package credentials owns password hashing and verification for accounts.
//
// Hashes are bcrypt with a configurable cost. Verification of an unknown
// email still performs one bcrypt comparison so response time does not tell
// a caller whether the account exists.
package credentials

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/crucial707/bookshelf/internal/apperr"
	"github.com/crucial707/bookshelf/internal/db"
	"github.com/crucial707/bookshelf/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the subset of the users repository the credential store needs.
type UserStore interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, name, email, passwordHash string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}

// Store registers, verifies and re-hashes account credentials.
type Store struct {
	users     UserStore
	cost      int
	timeout   time.Duration
	log       *slog.Logger
	dummyHash []byte
}

// NewStore returns a Store hashing with the given bcrypt cost.
func NewStore(users UserStore, cost int, timeout time.Duration, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	// Compared against when the email is unknown; the plaintext is irrelevant.
	dummy, err := bcrypt.GenerateFromPassword([]byte("bookshelf/no-such-account"), cost)
	if err != nil {
		log.Warn("credentials: dummy hash unavailable", "error", err)
	}
	return &Store{
		users:     users,
		cost:      cost,
		timeout:   timeout,
		log:       log.With("component", "credentials"),
		dummyHash: dummy,
	}
}

// Register creates an account for email. It fails with ErrDuplicateEmail if
// the email is taken, including when a concurrent registration wins the race.
func (s *Store) Register(ctx context.Context, name, email, password string) (*models.Account, error) {
	exists, err := s.emailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.ErrDuplicateEmail
	}

	hash, err := s.hash(password)
	if err != nil {
		s.log.Error("hash password failed", "error", err)
		return nil, apperr.ErrInvalidCredential
	}

	sctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()
	acct, err := s.users.Create(sctx, name, email, hash)
	if errors.Is(err, apperr.ErrDuplicateEmail) {
		return nil, err
	}
	if err != nil {
		return nil, apperr.Store("create account", err)
	}
	return acct, nil
}

// Verify checks password against the stored hash for email.
// An unknown email yields ErrNotFound; a wrong password, or any failure of
// the comparison itself, yields ErrInvalidCredential.
func (s *Store) Verify(ctx context.Context, email, password string) (*models.Account, error) {
	sctx, cancel := db.WithTimeout(ctx, s.timeout)
	acct, err := s.users.GetByEmail(sctx, email)
	cancel()
	if errors.Is(err, apperr.ErrNotFound) {
		if s.dummyHash != nil {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		}
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Store("load account", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.log.Error("compare password failed", "user_id", acct.ID, "error", err)
		}
		return nil, apperr.ErrInvalidCredential
	}
	return acct, nil
}

// ChangePassword stores a freshly salted hash of newPassword for email.
// It does not look at the current password; confirming the new one is the
// caller's job.
func (s *Store) ChangePassword(ctx context.Context, email, newPassword string) error {
	hash, err := s.hash(newPassword)
	if err != nil {
		s.log.Error("hash password failed", "error", err)
		return apperr.ErrUpdateFailed
	}

	sctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.users.UpdatePassword(sctx, email, hash); err != nil {
		s.log.Error("update password failed", "error", err)
		return errors.Join(apperr.ErrUpdateFailed, err)
	}
	return nil
}

func (s *Store) emailExists(ctx context.Context, email string) (bool, error) {
	sctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()
	exists, err := s.users.EmailExists(sctx, email)
	if err != nil {
		return false, apperr.Store("check email", err)
	}
	return exists, nil
}

func (s *Store) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
