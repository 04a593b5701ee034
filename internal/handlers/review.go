package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/crucial707/bookshelf/internal/middleware"
	"github.com/crucial707/bookshelf/internal/models"
	"github.com/go-chi/chi/v5"
)

// ReviewService is the owner-scoped review API used by the handlers.
type ReviewService interface {
	List(ctx context.Context, userID int) ([]models.Review, error)
	Sort(ctx context.Context, userID int, field, order string) ([]models.Review, error)
	Get(ctx context.Context, userID, id int) (*models.Review, error)
	Add(ctx context.Context, userID int, in models.ReviewInput) (*models.Review, error)
	Edit(ctx context.Context, userID, id int, in models.ReviewInput) (*models.Review, error)
	Delete(ctx context.Context, userID, id int) error
}

type ReviewHandler struct {
	Reviews ReviewService
	Log     *slog.Logger
}

// ListReviews returns the caller's reviews. With ?sort=<field>&order=<dir>
// the list is ordered accordingly; without, newest first.
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	field, order := q.Get("sort"), q.Get("order")

	var (
		list []models.Review
		err  error
	)
	if field == "" && order == "" {
		list, err = h.Reviews.List(r.Context(), ident.ID)
	} else {
		list, err = h.Reviews.Sort(r.Context(), ident.ID, field, order)
	}
	if err != nil {
		serviceError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// SortReviews is the body form of a sorted listing: {"field":"title","order":"asc"}.
func (h *ReviewHandler) SortReviews(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var input struct {
		Field string `json:"field"`
		Order string `json:"order"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}

	list, err := h.Reviews.Sort(r.Context(), ident.ID, input.Field, input.Order)
	if err != nil {
		serviceError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var input models.ReviewInput
	if !decodeJSON(w, r, &input) {
		return
	}

	rv, err := h.Reviews.Add(r.Context(), ident.ID, input)
	if err != nil {
		serviceError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}

func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := reviewID(w, r)
	if !ok {
		return
	}

	rv, err := h.Reviews.Get(r.Context(), ident.ID, id)
	if err != nil {
		serviceError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := reviewID(w, r)
	if !ok {
		return
	}
	var input models.ReviewInput
	if !decodeJSON(w, r, &input) {
		return
	}

	rv, err := h.Reviews.Edit(r.Context(), ident.ID, id, input)
	if err != nil {
		serviceError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := reviewID(w, r)
	if !ok {
		return
	}

	if err := h.Reviews.Delete(r.Context(), ident.ID, id); err != nil {
		serviceError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func reviewID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		JSONError(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// requireIdentity fetches the identity put in the context by the session
// gate. Reaching a handler without one is a routing mistake, so it is
// answered like a missing login.
func requireIdentity(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		JSONError(w, "login required", http.StatusUnauthorized)
	}
	return ident, ok
}
