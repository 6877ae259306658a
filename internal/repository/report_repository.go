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

// ReportRepository persists team reports, their attachments, and the
// append-only review history.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportColumns = `id, team_id, author_id, author_role, type, week, title, description,
       status, submitted_at, notes, created_at, updated_at`

// Create inserts the report, its attachments, and the initial SUBMITTED
// history entry in one transaction.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report, attachments []models.ReportAttachment, history *models.ReportHistory) error {
	now := time.Now().UTC()
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create report: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO reports
	(id, team_id, author_id, author_role, type, week, title, description, status, submitted_at, notes, created_at, updated_at)
	VALUES (:id, :team_id, :author_id, :author_role, :type, :week, :title, :description, :status, :submitted_at, :notes, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create report: %w", err)
	}

	for i := range attachments {
		attachments[i].ReportID = report.ID
		if err := insertAttachment(ctx, tx, &attachments[i]); err != nil {
			return err
		}
	}

	if history != nil {
		history.ReportID = report.ID
		if err := insertReportHistory(ctx, tx, history); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create report: %w", err)
	}
	return nil
}

// GetByID fetches a report by identifier.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	query := fmt.Sprintf(`SELECT %s FROM reports WHERE id = $1`, reportColumns)
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// List returns reports matching the filter, newest first.
func (r *ReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM reports`, reportColumns))

	conditions := make([]string, 0, 4)
	if filter.TeamID != "" {
		args = append(args, filter.TeamID)
		conditions = append(conditions, fmt.Sprintf("team_id = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.AuthorID != "" {
		args = append(args, filter.AuthorID)
		conditions = append(conditions, fmt.Sprintf("author_id = $%d", len(args)))
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

	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// Transition updates status and the notes cache guarded by the expected
// current status, and appends the history entry in the same transaction. The
// notes column always mirrors the newest history row. Returns sql.ErrNoRows
// when the guard did not match.
func (r *ReportRepository) Transition(ctx context.Context, id string, expected, next models.ReportStatus, note *string, history *models.ReportHistory) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin report transition: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	const query = `UPDATE reports
	SET status = $1, notes = $2, submitted_at = CASE WHEN $1 = 'SUBMITTED' THEN $3 ELSE submitted_at END, updated_at = $3
	WHERE id = $4 AND status = $5`
	result, err := tx.ExecContext(ctx, query, next, note, now, id, expected)
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check report transition rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	if history != nil {
		history.ReportID = id
		if err := insertReportHistory(ctx, tx, history); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit report transition: %w", err)
	}
	return nil
}

// ListHistory returns the review trail oldest first, reconstructing the
// narrative order.
func (r *ReportRepository) ListHistory(ctx context.Context, reportID string) ([]models.ReportHistory, error) {
	const query = `SELECT id, report_id, reviewer_id, status, note, created_at
	FROM report_history WHERE report_id = $1 ORDER BY created_at ASC, id ASC`
	var entries []models.ReportHistory
	if err := r.db.SelectContext(ctx, &entries, query, reportID); err != nil {
		return nil, fmt.Errorf("list report history: %w", err)
	}
	return entries, nil
}

// ListAttachments returns the attachments recorded at submission.
func (r *ReportRepository) ListAttachments(ctx context.Context, reportID string) ([]models.ReportAttachment, error) {
	const query = `SELECT id, report_id, storage_key, file_name, mime_type, created_at
	FROM report_attachments WHERE report_id = $1 ORDER BY created_at ASC`
	var attachments []models.ReportAttachment
	if err := r.db.SelectContext(ctx, &attachments, query, reportID); err != nil {
		return nil, fmt.Errorf("list report attachments: %w", err)
	}
	return attachments, nil
}

// CountUnfinished counts the team's reports that have not reached approval.
// Draft rows do not count; they were never part of the review cycle.
func (r *ReportRepository) CountUnfinished(ctx context.Context, teamID string) (int, error) {
	const query = `SELECT COUNT(*) FROM reports
	WHERE team_id = $1 AND status NOT IN ($2, $3)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, teamID, models.ReportStatusApproved, models.ReportStatusDraft); err != nil {
		return 0, fmt.Errorf("count unfinished reports: %w", err)
	}
	return count, nil
}

func insertAttachment(ctx context.Context, tx *sqlx.Tx, attachment *models.ReportAttachment) error {
	if attachment.ID == "" {
		attachment.ID = uuid.NewString()
	}
	if attachment.CreatedAt.IsZero() {
		attachment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO report_attachments
	(id, report_id, storage_key, file_name, mime_type, created_at)
	VALUES (:id, :report_id, :storage_key, :file_name, :mime_type, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, attachment); err != nil {
		return fmt.Errorf("create report attachment: %w", err)
	}
	return nil
}

func insertReportHistory(ctx context.Context, tx *sqlx.Tx, history *models.ReportHistory) error {
	if history.ID == "" {
		history.ID = uuid.NewString()
	}
	if history.CreatedAt.IsZero() {
		history.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO report_history
	(id, report_id, reviewer_id, status, note, created_at)
	VALUES (:id, :report_id, :reviewer_id, :status, :note, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, history); err != nil {
		return fmt.Errorf("append report history: %w", err)
	}
	return nil
}
