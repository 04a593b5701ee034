package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crucial707/bookshelf/internal/apperr"
	"github.com/crucial707/bookshelf/internal/db"
	"github.com/crucial707/bookshelf/internal/models"
)

// reviewSortColumns maps the accepted sort fields onto SQL identifiers. Only
// values from this map are ever interpolated into a query.
var reviewSortColumns = map[string]string{
	"id":    "id",
	"date":  "date",
	"title": "title",
}

const reviewColumns = `id, user_id, title, description, notes, isbn, date, image`

// ========================
// REPOSITORY STRUCT
// ========================

type ReviewRepo struct {
	DB db.DBTX
}

func NewReviewRepo(q db.DBTX) *ReviewRepo {
	return &ReviewRepo{DB: q}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReview(s scanner) (*models.Review, error) {
	var rv models.Review
	err := s.Scan(
		&rv.ID,
		&rv.UserID,
		&rv.Title,
		&rv.Description,
		&rv.Notes,
		&rv.ISBN,
		&rv.Date,
		&rv.Image,
	)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *ReviewRepo) list(ctx context.Context, query string, args ...any) ([]models.Review, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *rv)
	}
	return reviews, rows.Err()
}

// ========================
// CREATE REVIEW
// ========================

func (r *ReviewRepo) Create(ctx context.Context, rv *models.Review) (*models.Review, error) {
	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO reviews (user_id, title, description, notes, isbn, date, image)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+reviewColumns,
		rv.UserID, rv.Title, rv.Description, rv.Notes, rv.ISBN, rv.Date, rv.Image,
	)
	return scanReview(row)
}

// ========================
// GET REVIEW BY ID
// ========================

// GetByID fetches a review regardless of owner. Callers must compare
// UserID with the requester before using the result.
func (r *ReviewRepo) GetByID(ctx context.Context, id int) (*models.Review, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+reviewColumns+`
		 FROM reviews
		 WHERE id = $1`,
		id,
	)
	rv, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	return rv, err
}

// ========================
// LIST REVIEWS BY OWNER
// ========================

func (r *ReviewRepo) ListByUser(ctx context.Context, userID int) ([]models.Review, error) {
	return r.list(ctx,
		`SELECT `+reviewColumns+`
		 FROM reviews
		 WHERE user_id = $1
		 ORDER BY id DESC`,
		userID,
	)
}

// ========================
// LIST REVIEWS SORTED
// ========================

// ListSorted orders one owner's reviews by an allow-listed field.
func (r *ReviewRepo) ListSorted(ctx context.Context, userID int, field string, desc bool) ([]models.Review, error) {
	column, ok := reviewSortColumns[field]
	if !ok {
		return nil, apperr.ErrInvalidSortParameter
	}
	direction := "ASC"
	if desc {
		direction = "DESC"
	}

	query := fmt.Sprintf(
		`SELECT %s
		 FROM reviews
		 WHERE user_id = $1
		 ORDER BY %s %s`,
		reviewColumns, column, direction,
	)
	return r.list(ctx, query, userID)
}

// ========================
// UPDATE REVIEW
// ========================

// Update rewrites the editable fields of a review owned by userID.
func (r *ReviewRepo) Update(ctx context.Context, id, userID int, in models.ReviewInput, image *string) (*models.Review, error) {
	row := r.DB.QueryRowContext(ctx,
		`UPDATE reviews
		 SET title = $1, description = $2, notes = $3, isbn = $4, image = $5
		 WHERE id = $6 AND user_id = $7
		 RETURNING `+reviewColumns,
		in.Title, in.Description, in.Notes, in.ISBN, image, id, userID,
	)
	rv, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	return rv, err
}

// ========================
// DELETE REVIEW
// ========================

func (r *ReviewRepo) Delete(ctx context.Context, id, userID int) error {
	result, err := r.DB.ExecContext(ctx,
		`DELETE FROM reviews WHERE id = $1 AND user_id = $2`,
		id, userID,
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

// DeleteByUser removes every review of an account.
func (r *ReviewRepo) DeleteByUser(ctx context.Context, userID int) (int64, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM reviews WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
