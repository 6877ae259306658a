package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/kkn-placement-api/internal/models"
)

// GradeRepository persists terminal grades. One row per registration.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// Upsert inserts or updates the grade for a registration. Re-grading the
// same registration updates in place, never appends a second row.
func (r *GradeRepository) Upsert(ctx context.Context, grade *models.Grade) error {
	now := time.Now().UTC()
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = now
	}
	grade.UpdatedAt = now
	const query = `INSERT INTO grades
	(id, registration_id, grader_id, score, letter, certificate_number, certificate_path, created_at, updated_at)
	VALUES (:id, :registration_id, :grader_id, :score, :letter, :certificate_number, :certificate_path, :created_at, :updated_at)
	ON CONFLICT (registration_id) DO UPDATE
	SET grader_id = EXCLUDED.grader_id, score = EXCLUDED.score, letter = EXCLUDED.letter,
	    certificate_number = EXCLUDED.certificate_number, certificate_path = EXCLUDED.certificate_path,
	    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}
	return nil
}

// GetByRegistration fetches the grade attached to a registration.
func (r *GradeRepository) GetByRegistration(ctx context.Context, registrationID string) (*models.Grade, error) {
	const query = `SELECT id, registration_id, grader_id, score, letter, certificate_number, certificate_path, created_at, updated_at
	FROM grades WHERE registration_id = $1`
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, registrationID); err != nil {
		return nil, err
	}
	return &grade, nil
}

// CertificateNumberInUse reports whether another registration already holds
// the certificate number. Certificate numbers are globally unique.
func (r *GradeRepository) CertificateNumberInUse(ctx context.Context, certificateNumber, excludeRegistrationID string) (bool, error) {
	const query = `SELECT EXISTS (
		SELECT 1 FROM grades WHERE certificate_number = $1 AND registration_id <> $2
	)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, certificateNumber, excludeRegistrationID); err != nil {
		return false, fmt.Errorf("check certificate number: %w", err)
	}
	return exists, nil
}
