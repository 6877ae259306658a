package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/kkn-placement-api/internal/models"
)

// AuditRepository reads and appends the registration audit ledger. Writes
// that must commit with a status change go through the registration
// repository's transaction instead.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append inserts a standalone audit entry (comments, document uploads).
func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_entries
	(id, registration_id, actor_id, action, old_status, new_status, note, metadata, created_at)
	VALUES (:id, :registration_id, :actor_id, :action, :old_status, :new_status, :note, :metadata, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// ListByRegistration returns the audit trail newest first.
func (r *AuditRepository) ListByRegistration(ctx context.Context, registrationID string) ([]models.AuditEntry, error) {
	const query = `SELECT id, registration_id, actor_id, action, old_status, new_status, note, metadata, created_at
	FROM audit_entries WHERE registration_id = $1 ORDER BY created_at DESC, id DESC`
	var entries []models.AuditEntry
	if err := r.db.SelectContext(ctx, &entries, query, registrationID); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
