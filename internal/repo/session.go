package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/crucial707/bookshelf/internal/apperr"
	"github.com/crucial707/bookshelf/internal/db"
	"github.com/crucial707/bookshelf/internal/models"
)

// SessionRepo persists server-side sessions keyed by token hash.
type SessionRepo struct {
	DB db.DBTX
}

// NewSessionRepo returns a new SessionRepo.
func NewSessionRepo(q db.DBTX) *SessionRepo {
	return &SessionRepo{DB: q}
}

// Create stores a session bound to userID.
func (r *SessionRepo) Create(ctx context.Context, tokenHash string, userID int, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO sessions (token_hash, user_id, expires_at) VALUES ($1, $2, $3)`,
		tokenHash, userID, expiresAt,
	)
	return err
}

// Get returns the session row, or apperr.ErrSessionNotFound.
func (r *SessionRepo) Get(ctx context.Context, tokenHash string) (*models.Session, error) {
	var s models.Session
	err := r.DB.QueryRowContext(ctx,
		`SELECT token_hash, user_id, created_at, expires_at FROM sessions WHERE token_hash = $1`,
		tokenHash,
	).Scan(&s.TokenHash, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Touch moves the expiry of a live session forward.
func (r *SessionRepo) Touch(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE sessions SET expires_at = $1 WHERE token_hash = $2`,
		expiresAt, tokenHash,
	)
	return err
}

// Delete removes one session. Deleting an unknown session is not an error.
func (r *SessionRepo) Delete(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	return err
}

// DeleteByUser removes every session of an account.
func (r *SessionRepo) DeleteByUser(ctx context.Context, userID int) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

// DeleteExpired removes sessions whose expiry is at or before now.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
