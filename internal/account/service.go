// Package account implements the signed-in account operations: profile,
// password change and deletion.
package account

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/crucial707/bookshelf/internal/apperr"
	"github.com/crucial707/bookshelf/internal/db"
	"github.com/crucial707/bookshelf/internal/models"
	"github.com/crucial707/bookshelf/internal/repo"
)

// ReviewLister returns an account's reviews.
type ReviewLister interface {
	List(ctx context.Context, userID int) ([]models.Review, error)
}

// PasswordChanger rehashes and stores a new password.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, email, newPassword string) error
}

// SessionEvictor forgets cached sessions of a deleted account.
type SessionEvictor interface {
	EvictAccount(userID int)
}

// AuditLog records account-level events.
type AuditLog interface {
	Log(ctx context.Context, userID int, action, resourceType string, resourceID int, details string) error
}

// Profile is what the account page shows.
type Profile struct {
	models.Identity
	Reviews []models.Review `json:"reviews"`
}

type Service struct {
	db       *sql.DB
	reviews  ReviewLister
	creds    PasswordChanger
	sessions SessionEvictor
	audit    AuditLog
	timeout  time.Duration
	log      *slog.Logger
}

// NewService wires the account service. conn is used for the deletion
// transaction; audit may be nil.
func NewService(conn *sql.DB, reviews ReviewLister, creds PasswordChanger, sessions SessionEvictor, audit AuditLog, timeout time.Duration, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		db:       conn,
		reviews:  reviews,
		creds:    creds,
		sessions: sessions,
		audit:    audit,
		timeout:  timeout,
		log:      log.With("component", "account"),
	}
}

// Profile returns the identity with its reviews, newest first.
func (s *Service) Profile(ctx context.Context, ident models.Identity) (*Profile, error) {
	list, err := s.reviews.List(ctx, ident.ID)
	if err != nil {
		return nil, err
	}
	return &Profile{Identity: ident, Reviews: list}, nil
}

// ChangePassword sets a new password once both submitted copies match.
func (s *Service) ChangePassword(ctx context.Context, ident models.Identity, password, confirm string) error {
	if password != confirm {
		return apperr.ErrPasswordMismatch
	}
	if err := s.creds.ChangePassword(ctx, ident.Email, password); err != nil {
		s.log.Error("change password failed", "user_id", ident.ID, "error", err)
		return err
	}
	s.log.Info("password changed", "user_id", ident.ID)
	if s.audit != nil {
		if err := s.audit.Log(ctx, ident.ID, "password", "account", ident.ID, ""); err != nil {
			s.log.Warn("audit log failed", "user_id", ident.ID, "action", "password", "error", err)
		}
	}
	return nil
}

// Delete removes the account with its audit trail, sessions and reviews in a
// single transaction, then drops any cached sessions.
func (s *Service) Delete(ctx context.Context, ident models.Identity) error {
	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()

	var removed int64
	err := db.WithTx(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		if err := repo.NewAuditRepo(tx).DeleteByUser(ctx, ident.ID); err != nil {
			return err
		}
		if err := repo.NewSessionRepo(tx).DeleteByUser(ctx, ident.ID); err != nil {
			return err
		}
		n, err := repo.NewReviewRepo(tx).DeleteByUser(ctx, ident.ID)
		if err != nil {
			return err
		}
		removed = n
		return repo.NewUserRepo(tx).Delete(ctx, ident.ID)
	})
	if errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if err != nil {
		return apperr.Store("delete account", err)
	}

	s.sessions.EvictAccount(ident.ID)
	s.log.Info("account deleted", "user_id", ident.ID, "reviews_removed", removed)
	return nil
}
