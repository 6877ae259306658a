package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/kkn-placement-api/internal/models"
)

// TemplateRepository serves document template and period reference data.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository constructs the repository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// ListForPeriod returns the templates applying to a period: period-scoped
// rows unioned with global rows (null period), in display order.
func (r *TemplateRepository) ListForPeriod(ctx context.Context, periodID string) ([]models.DocumentTemplate, error) {
	const query = `SELECT id, period_id, slug, name, required, display_order, created_at, updated_at
	FROM document_templates
	WHERE period_id = $1 OR period_id IS NULL
	ORDER BY display_order ASC, slug ASC`
	var templates []models.DocumentTemplate
	if err := r.db.SelectContext(ctx, &templates, query, periodID); err != nil {
		return nil, fmt.Errorf("list document templates: %w", err)
	}
	return templates, nil
}

// Upsert creates or replaces a template slot keyed by slug and period scope.
func (r *TemplateRepository) Upsert(ctx context.Context, template *models.DocumentTemplate) error {
	now := time.Now().UTC()
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}
	template.UpdatedAt = now
	const query = `INSERT INTO document_templates
	(id, period_id, slug, name, required, display_order, created_at, updated_at)
	VALUES (:id, :period_id, :slug, :name, :required, :display_order, :created_at, :updated_at)
	ON CONFLICT (slug, COALESCE(period_id, '')) DO UPDATE
	SET name = EXCLUDED.name, required = EXCLUDED.required,
	    display_order = EXCLUDED.display_order, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, template); err != nil {
		return fmt.Errorf("upsert document template: %w", err)
	}
	return nil
}

// GetPeriod fetches period reference data.
func (r *TemplateRepository) GetPeriod(ctx context.Context, id string) (*models.Period, error) {
	const query = `SELECT id, name, year, opens_at, closes_at, active FROM periods WHERE id = $1`
	var period models.Period
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}
