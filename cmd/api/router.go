package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/crucial707/bookshelf/internal/account"
	"github.com/crucial707/bookshelf/internal/config"
	"github.com/crucial707/bookshelf/internal/cover"
	"github.com/crucial707/bookshelf/internal/credentials"
	"github.com/crucial707/bookshelf/internal/handlers"
	"github.com/crucial707/bookshelf/internal/middleware"
	"github.com/crucial707/bookshelf/internal/repo"
	"github.com/crucial707/bookshelf/internal/reviews"
	"github.com/crucial707/bookshelf/internal/session"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	loginPath   = "/auth/login"
	accountPath = "/account"
)

// app holds what main needs beyond the HTTP handler.
type app struct {
	handler  http.Handler
	sessions *session.Manager
}

// newRouter builds the full HTTP handler on top of database.
func newRouter(database *sql.DB, cfg config.Config) http.Handler {
	return newApp(database, cfg, slog.Default()).handler
}

func newApp(database *sql.DB, cfg config.Config, log *slog.Logger) *app {
	// ===== Stores =====
	userRepo := repo.NewUserRepo(database)
	reviewRepo := repo.NewReviewRepo(database)
	sessionRepo := repo.NewSessionRepo(database)
	auditRepo := repo.NewAuditRepo(database)

	// ===== Services =====
	creds := credentials.NewStore(userRepo, cfg.BcryptCost, cfg.StoreTimeout, log)
	sessions := session.NewManager(sessionRepo, userRepo, session.Options{
		TTL:          cfg.SessionTTL,
		StoreTimeout: cfg.StoreTimeout,
		CacheSize:    cfg.SessionCacheSize,
		CacheTTL:     cfg.SessionCacheTTL,
		Logger:       log,
	})
	reviewSvc := reviews.NewService(reviewRepo, cover.New(cfg.CoverURLFormat), auditRepo, cfg.StoreTimeout, log)
	accountSvc := account.NewService(database, reviewSvc, creds, sessions, auditRepo, cfg.StoreTimeout, log)

	cookie := middleware.SessionCookie{
		Name:   cfg.SessionCookie,
		Secure: cfg.SecureCookies(),
		TTL:    sessions.TTL(),
	}
	if cookie.Name == "" {
		cookie.Name = "bookshelf_session"
	}

	// ===== Handlers =====
	authHandler := &handlers.AuthHandler{
		Credentials:  creds,
		Sessions:     sessions,
		Cookie:       cookie,
		SignedInPath: accountPath,
		Log:          log,
	}
	reviewHandler := &handlers.ReviewHandler{Reviews: reviewSvc, Log: log}
	accountHandler := &handlers.AccountHandler{Accounts: accountSvc, Cookie: cookie, Log: log}
	auditHandler := &handlers.AuditHandler{Repo: auditRepo, Log: log}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLog(log))
	r.Use(middleware.Recoverer(log))
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSEnabled()))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	// ===== Probes =====
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := database.PingContext(ctx); err != nil {
			log.Warn("readiness check failed", "error", err)
			handlers.JSONError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// ===== Auth =====
	limiter := middleware.NewIPRateLimiter(cfg.AuthRatePerMinute, cfg.AuthRateBurst)
	limiter.TrustProxy = cfg.TrustProxyHeaders
	r.Route("/auth", func(r chi.Router) {
		r.With(limiter.Middleware).Post("/register", authHandler.Register)
		r.With(limiter.Middleware).Post("/login", authHandler.Login)
		r.Get("/login", authHandler.LoginStatus)
		r.Post("/logout", authHandler.Logout)
	})

	// ===== Signed-in routes =====
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(sessions, cookie, loginPath, log))

		r.Get("/account", accountHandler.GetAccount)
		r.Put("/account/password", accountHandler.ChangePassword)
		r.Delete("/account", accountHandler.DeleteAccount)

		r.Get("/reviews", reviewHandler.ListReviews)
		r.Post("/reviews", reviewHandler.CreateReview)
		r.Post("/reviews/sort", reviewHandler.SortReviews)
		r.Get("/reviews/{id}", reviewHandler.GetReview)
		r.Put("/reviews/{id}", reviewHandler.UpdateReview)
		r.Delete("/reviews/{id}", reviewHandler.DeleteReview)

		r.Get("/audit", auditHandler.ListAudit)
	})

	return &app{handler: r, sessions: sessions}
}
