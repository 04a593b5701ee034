package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/bookshelf/internal/credentials"
	"github.com/crucial707/bookshelf/internal/middleware"
	"github.com/crucial707/bookshelf/internal/repo"
	"github.com/crucial707/bookshelf/internal/session"
	"golang.org/x/crypto/bcrypt"
)

var testCookie = middleware.SessionCookie{Name: "sid", TTL: time.Hour}

func newAuthHandler(db *sql.DB) *AuthHandler {
	users := repo.NewUserRepo(db)
	return &AuthHandler{
		Credentials:  credentials.NewStore(users, bcrypt.MinCost, time.Second, nil),
		Sessions:     session.NewManager(repo.NewSessionRepo(db), users, session.Options{TTL: time.Hour}),
		Cookie:       testCookie,
		SignedInPath: "/account",
	}
}

func postJSON(path string, v any) *http.Request {
	body, _ := json.Marshal(v)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == testCookie.Name {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Register(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("Ann", "a@x.com", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password"}).AddRow(1, "Ann", "a@x.com", "$2a$04$hash"))
	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs(sqlmock.AnyArg(), 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := newAuthHandler(db)
	rr := httptest.NewRecorder()
	h.Register(rr, postJSON("/auth/register", map[string]string{"name": "Ann", "email": "a@x.com", "password": "pw1"}))

	if rr.Code != http.StatusCreated {
		t.Fatalf("Register status: got %d, want 201 (body %s)", rr.Code, rr.Body.String())
	}
	var out map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["email"] != "a@x.com" || out["name"] != "Ann" {
		t.Errorf("unexpected identity: %v", out)
	}
	if _, leaked := out["password"]; leaked {
		t.Error("response must not carry a password field")
	}
	if c := sessionCookie(t, rr); c == nil || c.Value == "" || !c.HttpOnly {
		t.Errorf("expected session cookie, got %+v", c)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	h := newAuthHandler(db)
	rr := httptest.NewRecorder()
	h.Register(rr, postJSON("/auth/register", map[string]string{"name": "Ann", "email": "a@x.com", "password": "pw1"}))

	if rr.Code != http.StatusConflict {
		t.Errorf("Register status: got %d, want 409", rr.Code)
	}
	if sessionCookie(t, rr) != nil {
		t.Error("no session may be issued for a duplicate")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	h := &AuthHandler{}
	rr := httptest.NewRecorder()
	h.Register(rr, postJSON("/auth/register", map[string]string{"name": "Ann", "email": "not-an-email"}))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Register status: got %d, want 400", rr.Code)
	}
	var out struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Fields["email"] != "email" || out.Fields["password"] != "required" {
		t.Errorf("unexpected fields: %v", out.Fields)
	}
}

func TestAuthHandler_Register_MultibytePasswordOverLimit(t *testing.T) {
	h := &AuthHandler{}
	rr := httptest.NewRecorder()
	h.Register(rr, postJSON("/auth/register", map[string]string{
		"name": "Ann", "email": "a@x.com", "password": strings.Repeat("é", 72),
	}))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Register status: got %d, want 400", rr.Code)
	}
	var out struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Fields["password"] != "maxbytes" {
		t.Errorf("unexpected fields: %v", out.Fields)
	}
}

func TestAuthHandler_Register_RejectsServerFields(t *testing.T) {
	h := &AuthHandler{}
	rr := httptest.NewRecorder()
	h.Register(rr, postJSON("/auth/register", map[string]any{"name": "Ann", "email": "a@x.com", "password": "pw", "id": 1}))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Register status: got %d, want 400", rr.Code)
	}
}

func TestAuthHandler_Login(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("pw1"), bcrypt.MinCost)
	mock.ExpectQuery(`SELECT id, username, email, password`).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password"}).AddRow(1, "Ann", "a@x.com", string(hash)))
	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs(sqlmock.AnyArg(), 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := newAuthHandler(db)
	rr := httptest.NewRecorder()
	h.Login(rr, postJSON("/auth/login", map[string]string{"email": "a@x.com", "password": "pw1"}))

	if rr.Code != http.StatusOK {
		t.Fatalf("Login status: got %d, want 200 (body %s)", rr.Code, rr.Body.String())
	}
	if c := sessionCookie(t, rr); c == nil || c.Value == "" {
		t.Error("expected session cookie")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("pw1"), bcrypt.MinCost)
	mock.ExpectQuery(`SELECT id, username, email, password`).
		WithArgs("nobody@x.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT id, username, email, password`).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password"}).AddRow(1, "Ann", "a@x.com", string(hash)))

	h := newAuthHandler(db)
	bodies := make([]string, 0, 2)
	for _, in := range []map[string]string{
		{"email": "nobody@x.com", "password": "pw1"},
		{"email": "a@x.com", "password": "wrong"},
	} {
		rr := httptest.NewRecorder()
		h.Login(rr, postJSON("/auth/login", in))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("Login(%s) status: got %d, want 401", in["email"], rr.Code)
		}
		if sessionCookie(t, rr) != nil {
			t.Errorf("Login(%s): unexpected session cookie", in["email"])
		}
		bodies = append(bodies, rr.Body.String())
	}
	if bodies[0] != bodies[1] {
		t.Errorf("unknown email and wrong password must look the same: %q vs %q", bodies[0], bodies[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_LoginStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	exp := time.Now().Add(time.Hour)
	mock.ExpectQuery(`FROM sessions WHERE token_hash`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"token_hash", "user_id", "created_at", "expires_at"}).AddRow("h", 1, time.Now(), exp))
	mock.ExpectQuery(`SELECT id, username, email\s+FROM users`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email"}).AddRow(1, "Ann", "a@x.com"))
	mock.ExpectExec(`UPDATE sessions SET expires_at`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := newAuthHandler(db)

	// Anonymous.
	rr := httptest.NewRecorder()
	h.LoginStatus(rr, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status: got %d, want 401", rr.Code)
	}

	// Signed in.
	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "tok"})
	rr = httptest.NewRecorder()
	h.LoginStatus(rr, req)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/account" {
		t.Errorf("signed-in: got %d to %q", rr.Code, rr.Header().Get("Location"))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM sessions WHERE token_hash = \$1`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := newAuthHandler(db)
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "tok"})
	rr := httptest.NewRecorder()
	h.Logout(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("Logout status: got %d, want 204", rr.Code)
	}
	if c := sessionCookie(t, rr); c == nil || c.MaxAge >= 0 {
		t.Errorf("expected cleared cookie, got %+v", c)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
