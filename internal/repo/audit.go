package repo

import (
	"context"

	"github.com/crucial707/bookshelf/internal/db"
	"github.com/crucial707/bookshelf/internal/models"
)

// AuditRepo persists audit log entries.
type AuditRepo struct {
	db db.DBTX
}

// NewAuditRepo returns a new AuditRepo.
func NewAuditRepo(q db.DBTX) *AuditRepo {
	return &AuditRepo{db: q}
}

// Log records an audit entry. action is create|update|delete|password; resourceType is review|account.
func (r *AuditRepo) Log(ctx context.Context, userID int, action, resourceType string, resourceID int, details string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (user_id, action, resource_type, resource_id, details) VALUES ($1, $2, $3, $4, $5)`,
		userID, action, resourceType, resourceID, details,
	)
	return err
}

// ListByUser returns one account's audit entries, newest first.
func (r *AuditRepo) ListByUser(ctx context.Context, userID, limit, offset int) ([]models.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, action, resource_type, resource_id, COALESCE(details,''), created_at
		 FROM audit_log
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.AuditEntry{}
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.ResourceType, &e.ResourceID, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteByUser removes an account's audit trail.
func (r *AuditRepo) DeleteByUser(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM audit_log WHERE user_id = $1`, userID)
	return err
}
