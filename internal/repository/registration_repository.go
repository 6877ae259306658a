package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/kkn-placement-api/internal/models"
)

// RegistrationRepository persists placement registrations and their
// transition audit trail.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const registrationColumns = `id, student_id, location_id, period_id, category, status, notes,
       reviewer_id, reviewed_at, advisor_id, team_id, created_at, updated_at`

// Create inserts a new registration together with its CREATED audit entry in
// one transaction.
func (r *RegistrationRepository) Create(ctx context.Context, registration *models.Registration, entry *models.AuditEntry) error {
	now := time.Now().UTC()
	if registration.ID == "" {
		registration.ID = uuid.NewString()
	}
	if registration.Status == "" {
		registration.Status = models.RegistrationStatusPending
	}
	if registration.CreatedAt.IsZero() {
		registration.CreatedAt = now
	}
	registration.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create registration: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO registrations
	(id, student_id, location_id, period_id, category, status, notes, reviewer_id, reviewed_at, advisor_id, team_id, created_at, updated_at)
	VALUES (:id, :student_id, :location_id, :period_id, :category, :status, :notes, :reviewer_id, :reviewed_at, :advisor_id, :team_id, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, registration); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}

	if entry != nil {
		entry.RegistrationID = registration.ID
		if err := insertAuditEntry(ctx, tx, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create registration: %w", err)
	}
	return nil
}

// GetByID fetches a registration by identifier.
func (r *RegistrationRepository) GetByID(ctx context.Context, id string) (*models.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM registrations WHERE id = $1`, registrationColumns)
	var registration models.Registration
	if err := r.db.GetContext(ctx, &registration, query, id); err != nil {
		return nil, err
	}
	return &registration, nil
}

// ExistsNonRejected reports whether the student already holds a registration
// for the period that is not rejected. Rejected records do not block a new
// attempt.
func (r *RegistrationRepository) ExistsNonRejected(ctx context.Context, studentID, periodID string) (bool, error) {
	const query = `SELECT EXISTS (
		SELECT 1 FROM registrations
		WHERE student_id = $1 AND period_id = $2 AND status <> $3
	)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID, periodID, models.RegistrationStatusRejected); err != nil {
		return false, fmt.Errorf("check duplicate registration: %w", err)
	}
	return exists, nil
}

// List returns registrations matching the filter, newest first.
func (r *RegistrationRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM registrations`, registrationColumns))

	conditions := make([]string, 0, 3)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.PeriodID != "" {
		args = append(args, filter.PeriodID)
		conditions = append(conditions, fmt.Sprintf("period_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var registrations []models.Registration
	if err := r.db.SelectContext(ctx, &registrations, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return registrations, nil
}

// TransitionParams groups the columns mutated by a review decision.
type TransitionParams struct {
	ID             string
	ExpectedStatus models.RegistrationStatus
	NewStatus      models.RegistrationStatus
	ReviewerID     string
	ReviewedAt     time.Time
	Notes          *string
}

// Transition applies a status change guarded by the expected current status
// and appends the audit entry in the same transaction. Returns
// sql.ErrNoRows when the guard did not match, meaning a concurrent update
// won or the status was not transitionable.
func (r *RegistrationRepository) Transition(ctx context.Context, params TransitionParams, entry *models.AuditEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration transition: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `UPDATE registrations
	SET status = $1, reviewer_id = $2, reviewed_at = $3, notes = COALESCE($4, notes), updated_at = $3
	WHERE id = $5 AND status = $6`
	result, err := tx.ExecContext(ctx, query,
		params.NewStatus, params.ReviewerID, params.ReviewedAt, params.Notes, params.ID, params.ExpectedStatus)
	if err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check registration transition rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	if entry != nil {
		entry.RegistrationID = params.ID
		if err := insertAuditEntry(ctx, tx, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registration transition: %w", err)
	}
	return nil
}

func insertAuditEntry(ctx context.Context, tx *sqlx.Tx, entry *models.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_entries
	(id, registration_id, actor_id, action, old_status, new_status, note, metadata, created_at)
	VALUES (:id, :registration_id, :actor_id, :action, :old_status, :new_status, :note, :metadata, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}
