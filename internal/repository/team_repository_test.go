package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kkn-placement-api/internal/models"
)

func TestTeamUpdateStatusGuard(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeamRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE teams")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "team-1", models.TeamStatusDraft, models.TeamStatusActive, nil, nil)
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddMemberLinksRegistrationInSameTransaction(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeamRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO team_members").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE registrations SET team_id")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	regID := "reg-1"
	member := &models.TeamMember{
		TeamID:               "team-1",
		StudentID:            "student-1",
		SourceRegistrationID: &regID,
		Position:             models.PositionCoordinator,
	}
	err := repo.AddMember(context.Background(), member)
	require.NoError(t, err)
	assert.NotEmpty(t, member.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddMemberRollsBackWhenLinkGuardFails(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeamRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO team_members").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE registrations SET team_id")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	regID := "reg-1"
	member := &models.TeamMember{
		TeamID:               "team-1",
		StudentID:            "student-1",
		SourceRegistrationID: &regID,
		Position:             models.PositionCoordinator,
	}
	err := repo.AddMember(context.Background(), member)
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindMembershipSkipsWithdrawn(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeamRepository(db)

	mock.ExpectQuery("SELECT .+ FROM team_members").
		WithArgs("team-1", "student-1", string(models.MemberStatusWithdrawn)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "team_id", "student_id", "source_registration_id", "position", "status", "joined_at", "notes"}))

	member, err := repo.FindMembership(context.Background(), "team-1", "student-1")
	require.NoError(t, err)
	assert.Nil(t, member)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawMemberNeverDeletes(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeamRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE team_members SET status")).
		WithArgs(string(models.MemberStatusWithdrawn), "member-1", "team-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.WithdrawMember(context.Background(), "team-1", "member-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivePositionsDistinct(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeamRepository(db)

	rows := sqlmock.NewRows([]string{"position"}).
		AddRow(string(models.PositionCoordinator)).
		AddRow(string(models.PositionSecretary))
	mock.ExpectQuery("SELECT DISTINCT position FROM team_members").
		WithArgs("team-1", string(models.MemberStatusActive)).
		WillReturnRows(rows)

	positions, err := repo.ActivePositions(context.Background(), "team-1")
	require.NoError(t, err)
	assert.Equal(t, []models.MemberPosition{models.PositionCoordinator, models.PositionSecretary}, positions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamCreateDefaultsDraft(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeamRepository(db)

	mock.ExpectExec("INSERT INTO teams").WillReturnResult(sqlmock.NewResult(1, 1))

	team := &models.Team{Name: "Posko", LocationID: "loc-1", PeriodID: "period-1"}
	err := repo.Create(context.Background(), team)
	require.NoError(t, err)
	assert.Equal(t, models.TeamStatusDraft, team.Status)
	assert.NotEmpty(t, team.ID)
	assert.False(t, team.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
