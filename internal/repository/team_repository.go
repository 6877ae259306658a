package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/kkn-placement-api/internal/models"
)

// TeamRepository persists teams and their rosters.
type TeamRepository struct {
	db *sqlx.DB
}

// NewTeamRepository constructs the repository.
func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

const teamColumns = `id, name, location_id, period_id, advisor_id, status, start_date, end_date, created_at, updated_at`

// Create inserts a new team in draft status.
func (r *TeamRepository) Create(ctx context.Context, team *models.Team) error {
	now := time.Now().UTC()
	if team.ID == "" {
		team.ID = uuid.NewString()
	}
	if team.Status == "" {
		team.Status = models.TeamStatusDraft
	}
	if team.CreatedAt.IsZero() {
		team.CreatedAt = now
	}
	team.UpdatedAt = now
	const query = `INSERT INTO teams
	(id, name, location_id, period_id, advisor_id, status, start_date, end_date, created_at, updated_at)
	VALUES (:id, :name, :location_id, :period_id, :advisor_id, :status, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, team); err != nil {
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

// GetByID fetches a team by identifier.
func (r *TeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	query := fmt.Sprintf(`SELECT %s FROM teams WHERE id = $1`, teamColumns)
	var team models.Team
	if err := r.db.GetContext(ctx, &team, query, id); err != nil {
		return nil, err
	}
	return &team, nil
}

// ExistsForLocationPeriod reports whether a team already occupies the
// (location, period) pair.
func (r *TeamRepository) ExistsForLocationPeriod(ctx context.Context, locationID, periodID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM teams WHERE location_id = $1 AND period_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, locationID, periodID); err != nil {
		return false, fmt.Errorf("check duplicate team: %w", err)
	}
	return exists, nil
}

// List returns teams matching the filter, newest first.
func (r *TeamRepository) List(ctx context.Context, filter models.TeamFilter) ([]models.Team, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM teams`, teamColumns))

	conditions := make([]string, 0, 4)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.PeriodID != "" {
		args = append(args, filter.PeriodID)
		conditions = append(conditions, fmt.Sprintf("period_id = $%d", len(args)))
	}
	if filter.LocationID != "" {
		args = append(args, filter.LocationID)
		conditions = append(conditions, fmt.Sprintf("location_id = $%d", len(args)))
	}
	if filter.AdvisorID != "" {
		args = append(args, filter.AdvisorID)
		conditions = append(conditions, fmt.Sprintf("advisor_id = $%d", len(args)))
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

	var teams []models.Team
	if err := r.db.SelectContext(ctx, &teams, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

// UpdateStatus transitions team status guarded by the expected current
// status. Returns sql.ErrNoRows when the guard did not match.
func (r *TeamRepository) UpdateStatus(ctx context.Context, id string, expected, next models.TeamStatus, startDate, endDate *time.Time) error {
	const query = `UPDATE teams
	SET status = $1, start_date = COALESCE($2, start_date), end_date = COALESCE($3, end_date), updated_at = $4
	WHERE id = $5 AND status = $6`
	result, err := r.db.ExecContext(ctx, query, next, startDate, endDate, time.Now().UTC(), id, expected)
	if err != nil {
		return fmt.Errorf("update team status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check team status rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const memberColumns = `id, team_id, student_id, source_registration_id, position, status, joined_at, notes`

// AddMember inserts a roster entry. When the member carries a source
// registration, the registration's team link is written in the same
// transaction, guarded on the registration still being approved and not
// linked elsewhere. Returns sql.ErrNoRows when that guard does not match;
// the member insert rolls back with it.
func (r *TeamRepository) AddMember(ctx context.Context, member *models.TeamMember) error {
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	if member.Status == "" {
		member.Status = models.MemberStatusActive
	}
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add team member: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO team_members
	(id, team_id, student_id, source_registration_id, position, status, joined_at, notes)
	VALUES (:id, :team_id, :student_id, :source_registration_id, :position, :status, :joined_at, :notes)`
	if _, err := tx.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("add team member: %w", err)
	}

	if member.SourceRegistrationID != nil {
		const link = `UPDATE registrations SET team_id = $1, updated_at = $2
		WHERE id = $3 AND status = $4 AND (team_id IS NULL OR team_id = $1)`
		result, err := tx.ExecContext(ctx, link,
			member.TeamID, time.Now().UTC(), *member.SourceRegistrationID, models.RegistrationStatusApproved)
		if err != nil {
			return fmt.Errorf("link registration to team: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("check registration link rows: %w", err)
		}
		if rows == 0 {
			return sql.ErrNoRows
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add team member: %w", err)
	}
	return nil
}

// FindMembership returns the student's non-withdrawn membership in the team,
// or nil when none exists. Withdrawn memberships do not block re-joining.
func (r *TeamRepository) FindMembership(ctx context.Context, teamID, studentID string) (*models.TeamMember, error) {
	query := fmt.Sprintf(`SELECT %s FROM team_members
	WHERE team_id = $1 AND student_id = $2 AND status <> $3
	LIMIT 1`, memberColumns)
	var member models.TeamMember
	err := r.db.GetContext(ctx, &member, query, teamID, studentID, models.MemberStatusWithdrawn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find membership: %w", err)
	}
	return &member, nil
}

// ListMembers returns the full roster including departed members.
func (r *TeamRepository) ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error) {
	query := fmt.Sprintf(`SELECT %s FROM team_members WHERE team_id = $1 ORDER BY joined_at ASC`, memberColumns)
	var members []models.TeamMember
	if err := r.db.SelectContext(ctx, &members, query, teamID); err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	return members, nil
}

// WithdrawMember marks a member withdrawn; roster rows are never deleted.
func (r *TeamRepository) WithdrawMember(ctx context.Context, teamID, memberID string) error {
	const query = `UPDATE team_members SET status = $1 WHERE id = $2 AND team_id = $3 AND status <> $1`
	result, err := r.db.ExecContext(ctx, query, models.MemberStatusWithdrawn, memberID, teamID)
	if err != nil {
		return fmt.Errorf("withdraw team member: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check withdraw rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountActiveMembers counts members with active status only, so departed
// members never inflate dashboard numbers.
func (r *TeamRepository) CountActiveMembers(ctx context.Context, teamID string) (int, error) {
	const query = `SELECT COUNT(*) FROM team_members WHERE team_id = $1 AND status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, teamID, models.MemberStatusActive); err != nil {
		return 0, fmt.Errorf("count active members: %w", err)
	}
	return count, nil
}

// ActivePositions returns the distinct positions held by active members.
func (r *TeamRepository) ActivePositions(ctx context.Context, teamID string) ([]models.MemberPosition, error) {
	const query = `SELECT DISTINCT position FROM team_members WHERE team_id = $1 AND status = $2`
	var positions []models.MemberPosition
	if err := r.db.SelectContext(ctx, &positions, query, teamID, models.MemberStatusActive); err != nil {
		return nil, fmt.Errorf("list active positions: %w", err)
	}
	return positions, nil
}
