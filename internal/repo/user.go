package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/crucial707/bookshelf/internal/apperr"
	"github.com/crucial707/bookshelf/internal/db"
	"github.com/crucial707/bookshelf/internal/models"
	"github.com/lib/pq"
)

// uniqueViolation is the postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// ==========================
// UserRepo
// ==========================
type UserRepo struct {
	DB db.DBTX
}

// ==========================
// Constructor
// ==========================
func NewUserRepo(q db.DBTX) *UserRepo {
	return &UserRepo{DB: q}
}

// ==========================
// Create User
// ==========================

// Create inserts an account with an already computed password hash.
// A concurrent registration of the same email surfaces as ErrDuplicateEmail.
func (r *UserRepo) Create(ctx context.Context, name, email, passwordHash string) (*models.Account, error) {
	query := `
		INSERT INTO users (username, email, password)
		VALUES ($1, $2, $3)
		RETURNING id, username, email, password
	`

	acct := &models.Account{}

	err := r.DB.QueryRowContext(ctx, query, name, email, passwordHash).
		Scan(&acct.ID, &acct.Name, &acct.Email, &acct.PasswordHash)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, apperr.ErrDuplicateEmail
		}
		return nil, err
	}

	return acct, nil
}

// ==========================
// Email Exists
// ==========================
func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email,
	).Scan(&exists)
	return exists, err
}

// ==========================
// Get By Email
// ==========================

// GetByEmail loads the full row including the password hash. Only the
// credential store should call it.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `
		SELECT id, username, email, password
		FROM users
		WHERE email = $1
	`

	acct := &models.Account{}

	err := r.DB.QueryRowContext(ctx, query, email).
		Scan(&acct.ID, &acct.Name, &acct.Email, &acct.PasswordHash)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return acct, nil
}

// ==========================
// Get Identity
// ==========================

// GetIdentity selects only the allow-listed columns for a session restore.
func (r *UserRepo) GetIdentity(ctx context.Context, id int) (*models.Identity, error) {
	query := `
		SELECT id, username, email
		FROM users
		WHERE id = $1
	`

	ident := &models.Identity{}

	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&ident.ID, &ident.Name, &ident.Email)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return ident, nil
}

// ==========================
// Update Password
// ==========================
func (r *UserRepo) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password = $1 WHERE email = $2`,
		passwordHash, email,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return apperr.ErrNotFound
	}

	return nil
}

// ==========================
// Delete User
// ==========================
func (r *UserRepo) Delete(ctx context.Context, id int) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return apperr.ErrNotFound
	}

	return nil
}
