package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/crucial707/bookshelf/internal/apperr"
	"github.com/crucial707/bookshelf/internal/models"
)

// AuditReader lists an account's audit entries.
type AuditReader interface {
	ListByUser(ctx context.Context, userID, limit, offset int) ([]models.AuditEntry, error)
}

// AuditHandler serves the caller's own audit trail.
type AuditHandler struct {
	Repo AuditReader
	Log  *slog.Logger
}

// ListAudit returns the caller's recent audit entries. Query: limit (default 50, max 200), offset (default 0).
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 200 {
			limit = val
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if val, err := strconv.Atoi(o); err == nil && val >= 0 {
			offset = val
		}
	}

	entries, err := h.Repo.ListByUser(r.Context(), ident.ID, limit, offset)
	if err != nil {
		serviceError(w, r, h.Log, apperr.Store("list audit", err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
