// Package reviews implements the owner-scoped review operations.
//
// Every operation on a single review fetches it first and compares its owner
// with the requester before reading or writing; list queries are also
// filtered by owner in SQL.
package reviews

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/crucial707/bookshelf/internal/apperr"
	"github.com/crucial707/bookshelf/internal/db"
	"github.com/crucial707/bookshelf/internal/metrics"
	"github.com/crucial707/bookshelf/internal/models"
)

// Repository is the review persistence the service relies on.
type Repository interface {
	Create(ctx context.Context, rv *models.Review) (*models.Review, error)
	GetByID(ctx context.Context, id int) (*models.Review, error)
	ListByUser(ctx context.Context, userID int) ([]models.Review, error)
	ListSorted(ctx context.Context, userID int, field string, desc bool) ([]models.Review, error)
	Update(ctx context.Context, id, userID int, in models.ReviewInput, image *string) (*models.Review, error)
	Delete(ctx context.Context, id, userID int) error
}

// CoverLookup turns an ISBN into a cover reference, or nil.
type CoverLookup interface {
	URL(isbn string) *string
}

// AuditLog records successful mutations.
type AuditLog interface {
	Log(ctx context.Context, userID int, action, resourceType string, resourceID int, details string) error
}

type Service struct {
	repo    Repository
	covers  CoverLookup
	audit   AuditLog
	timeout time.Duration
	log     *slog.Logger
	now     func() time.Time
}

// NewService wires the review service. audit may be nil.
func NewService(repo Repository, covers CoverLookup, audit AuditLog, timeout time.Duration, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:    repo,
		covers:  covers,
		audit:   audit,
		timeout: timeout,
		log:     log.With("component", "reviews"),
		now:     time.Now,
	}
}

// List returns the owner's reviews, newest first.
func (s *Service) List(ctx context.Context, userID int) ([]models.Review, error) {
	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Store("list reviews", err)
	}
	return list, nil
}

// Sort returns the owner's reviews ordered by an allow-listed field. Invalid
// parameters are rejected before any query runs.
func (s *Service) Sort(ctx context.Context, userID int, field, order string) ([]models.Review, error) {
	spec, err := ParseSort(field, order)
	if err != nil {
		s.log.Info("rejected sort parameters", "user_id", userID, "field", field, "order", order)
		return nil, err
	}

	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()
	list, err := s.repo.ListSorted(ctx, userID, spec.Field, spec.Desc)
	if err != nil {
		return nil, apperr.Store("sort reviews", err)
	}
	return list, nil
}

// Get returns one review if userID owns it.
func (s *Service) Get(ctx context.Context, userID, id int) (*models.Review, error) {
	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.authorize(ctx, userID, id)
}

// Add creates a review for userID. Notes default to "No notes", the date is
// today's and the cover comes from the ISBN.
func (s *Service) Add(ctx context.Context, userID int, in models.ReviewInput) (*models.Review, error) {
	if in.Notes == "" {
		in.Notes = models.DefaultNotes
	}
	y, m, d := s.now().UTC().Date()
	rv := &models.Review{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Notes:       in.Notes,
		ISBN:        in.ISBN,
		Date:        time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Image:       s.covers.URL(in.ISBN),
	}

	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()
	created, err := s.repo.Create(ctx, rv)
	if err != nil {
		return nil, apperr.Store("create review", err)
	}
	s.record(ctx, userID, "create", created.ID, created.Title)
	return created, nil
}

// Edit replaces the editable fields of a review owned by userID.
func (s *Service) Edit(ctx context.Context, userID, id int, in models.ReviewInput) (*models.Review, error) {
	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.authorize(ctx, userID, id); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, userID, in, s.covers.URL(in.ISBN))
	if errors.Is(err, apperr.ErrNotFound) {
		// Deleted between the check and the write.
		return nil, err
	}
	if err != nil {
		return nil, apperr.Store("update review", err)
	}
	s.record(ctx, userID, "update", id, updated.Title)
	return updated, nil
}

// Delete removes a review owned by userID.
func (s *Service) Delete(ctx context.Context, userID, id int) error {
	ctx, cancel := db.WithTimeout(ctx, s.timeout)
	defer cancel()

	rv, err := s.authorize(ctx, userID, id)
	if err != nil {
		return err
	}

	err = s.repo.Delete(ctx, id, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if err != nil {
		return apperr.Store("delete review", err)
	}
	s.record(ctx, userID, "delete", id, rv.Title)
	return nil
}

// authorize loads review id and checks that userID owns it. Missing and
// foreign reviews are logged apart but both deny access.
func (s *Service) authorize(ctx context.Context, userID, id int) (*models.Review, error) {
	rv, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		s.log.Info("review not found", "user_id", userID, "review_id", id)
		metrics.IncReviewDenied("not_found")
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Store("load review", err)
	}
	if rv.UserID != userID {
		s.log.Warn("review owned by another account", "user_id", userID, "review_id", id)
		metrics.IncReviewDenied("forbidden")
		return nil, apperr.ErrForbidden
	}
	return rv, nil
}

func (s *Service) record(ctx context.Context, userID int, action string, reviewID int, details string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, userID, action, "review", reviewID, details); err != nil {
		s.log.Warn("audit log failed", "user_id", userID, "action", action, "review_id", reviewID, "error", err)
	}
}
