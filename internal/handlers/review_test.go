package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/bookshelf/internal/cover"
	"github.com/crucial707/bookshelf/internal/middleware"
	"github.com/crucial707/bookshelf/internal/models"
	"github.com/crucial707/bookshelf/internal/repo"
	"github.com/crucial707/bookshelf/internal/reviews"
	"github.com/go-chi/chi/v5"
)

var reviewCols = []string{"id", "user_id", "title", "description", "notes", "isbn", "date", "image"}

// reviewRouter mounts the review handler with the given identity already
// attached, standing in for the session gate.
func reviewRouter(db *sql.DB, ident models.Identity) http.Handler {
	h := &ReviewHandler{Reviews: reviews.NewService(repo.NewReviewRepo(db), cover.New(""), nil, time.Second, nil)}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithIdentity(req.Context(), ident)))
		})
	})
	r.Get("/reviews", h.ListReviews)
	r.Post("/reviews", h.CreateReview)
	r.Post("/reviews/sort", h.SortReviews)
	r.Get("/reviews/{id}", h.GetReview)
	r.Put("/reviews/{id}", h.UpdateReview)
	r.Delete("/reviews/{id}", h.DeleteReview)
	return r
}

var (
	ann = models.Identity{ID: 1, Name: "Ann", Email: "a@x.com"}
	bob = models.Identity{ID: 2, Name: "Bob", Email: "b@x.com"}
)

func TestReviewHandler_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO reviews`).
		WithArgs(1, "Dune", "", "No notes", "", sqlmock.AnyArg(), nil).
		WillReturnRows(sqlmock.NewRows(reviewCols).AddRow(9, 1, "Dune", "", "No notes", "", time.Now(), nil))

	rr := httptest.NewRecorder()
	reviewRouter(db, ann).ServeHTTP(rr, postJSON("/reviews", map[string]string{"title": "Dune"}))

	if rr.Code != http.StatusCreated {
		t.Fatalf("Create status: got %d, want 201 (body %s)", rr.Code, rr.Body.String())
	}
	var out models.Review
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.ID != 9 || out.UserID != 1 || out.Notes != "No notes" || out.Date.IsZero() {
		t.Errorf("unexpected review: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestReviewHandler_Create_CannotSetOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	rr := httptest.NewRecorder()
	reviewRouter(db, ann).ServeHTTP(rr, postJSON("/reviews", map[string]any{"title": "Dune", "user_id": 2}))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Create status: got %d, want 400", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestReviewHandler_ForeignAndMissingLookTheSame(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM reviews\s+WHERE id = \$1`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(reviewCols).AddRow(5, 1, "Dune", "", "No notes", "", time.Now(), nil))
	mock.ExpectQuery(`FROM reviews\s+WHERE id = \$1`).
		WithArgs(6).
		WillReturnRows(sqlmock.NewRows(reviewCols))

	router := reviewRouter(db, bob)
	var bodies []string
	for _, path := range []string{"/reviews/5", "/reviews/6"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusForbidden {
			t.Errorf("GET %s: got %d, want 403", path, rr.Code)
		}
		bodies = append(bodies, rr.Body.String())
	}
	if bodies[0] != bodies[1] || bodies[0] != "{\"error\":\"access denied\"}\n" {
		t.Errorf("denials differ: %q vs %q", bodies[0], bodies[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestReviewHandler_ForeignDeleteDenied(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM reviews\s+WHERE id = \$1`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(reviewCols).AddRow(5, 1, "Dune", "", "No notes", "", time.Now(), nil))
	// No DELETE may follow.

	rr := httptest.NewRecorder()
	reviewRouter(db, bob).ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/reviews/5", nil))

	if rr.Code != http.StatusForbidden {
		t.Errorf("Delete status: got %d, want 403", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestReviewHandler_UpdateOwn(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM reviews\s+WHERE id = \$1`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(reviewCols).AddRow(5, 1, "Dune", "", "No notes", "", time.Now(), nil))
	mock.ExpectQuery(`UPDATE reviews`).
		WithArgs("Dune Messiah", "", "", "", nil, 5, 1).
		WillReturnRows(sqlmock.NewRows(reviewCols).AddRow(5, 1, "Dune Messiah", "", "", "", time.Now(), nil))

	body, _ := json.Marshal(map[string]string{"title": "Dune Messiah"})
	req := httptest.NewRequest(http.MethodPut, "/reviews/5", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	reviewRouter(db, ann).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Update status: got %d, want 200 (body %s)", rr.Code, rr.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestReviewHandler_InvalidID(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	rr := httptest.NewRecorder()
	reviewRouter(db, ann).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reviews/abc", nil))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestReviewHandler_ListSorted(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`WHERE user_id = \$1\s+ORDER BY date ASC`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(reviewCols).AddRow(1, 1, "A", "", "No notes", "", time.Now(), nil))

	rr := httptest.NewRecorder()
	reviewRouter(db, ann).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reviews?sort=date&order=Asc", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("List status: got %d, want 200", rr.Code)
	}
	var out []models.Review
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out) != 1 {
		t.Errorf("unexpected list: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestReviewHandler_SortRejected(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	router := reviewRouter(db, ann)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, postJSON("/reviews/sort", map[string]string{"field": "password", "order": "asc"}))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("POST sort status: got %d, want 400", rr.Code)
	}
	var out map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["error"] != "invalid sorting parameters" {
		t.Errorf("error: got %q", out["error"])
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reviews?sort=title&order=sideways", nil))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("GET sort status: got %d, want 400", rr.Code)
	}

	// Nothing reached the store.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
