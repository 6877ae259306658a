package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/kkn-placement-api/internal/models"
)

// DocumentRepository persists registration document references.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a document reference together with its audit entry in one
// transaction. A document that exists without its audit trail entry, or the
// other way round, is never observable.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.RegistrationDocument, entry *models.AuditEntry) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create document: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO registration_documents
	(id, registration_id, doc_type, storage_key, file_name, mime_type, created_at)
	VALUES (:id, :registration_id, :doc_type, :storage_key, :file_name, :mime_type, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create registration document: %w", err)
	}

	if entry != nil {
		entry.RegistrationID = doc.RegistrationID
		if err := insertAuditEntry(ctx, tx, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create document: %w", err)
	}
	return nil
}

// ListByRegistration returns documents in upload order.
func (r *DocumentRepository) ListByRegistration(ctx context.Context, registrationID string) ([]models.RegistrationDocument, error) {
	const query = `SELECT id, registration_id, doc_type, storage_key, file_name, mime_type, created_at
	FROM registration_documents WHERE registration_id = $1 ORDER BY created_at ASC`
	var docs []models.RegistrationDocument
	if err := r.db.SelectContext(ctx, &docs, query, registrationID); err != nil {
		return nil, fmt.Errorf("list registration documents: %w", err)
	}
	return docs, nil
}

// CountByRegistration returns the number of stored document references.
func (r *DocumentRepository) CountByRegistration(ctx context.Context, registrationID string) (int, error) {
	const query = `SELECT COUNT(*) FROM registration_documents WHERE registration_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, registrationID); err != nil {
		return 0, fmt.Errorf("count registration documents: %w", err)
	}
	return count, nil
}
