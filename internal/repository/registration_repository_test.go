package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kkn-placement-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestRegistrationCreateCommitsWithAudit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO registrations").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO audit_entries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	registration := &models.Registration{
		StudentID:  "student-1",
		LocationID: "loc-1",
		PeriodID:   "period-1",
		Category:   models.CategoryRegular,
	}
	pending := models.RegistrationStatusPending
	entry := &models.AuditEntry{ActorID: "student-1", Action: models.AuditActionCreated, NewStatus: &pending}

	err := repo.Create(context.Background(), registration, entry)
	require.NoError(t, err)
	assert.NotEmpty(t, registration.ID)
	assert.Equal(t, registration.ID, entry.RegistrationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationTransitionGuardsExpectedStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE registrations")).
		WithArgs(string(models.RegistrationStatusApproved), "staff-1", now, nil, "reg-1", string(models.RegistrationStatusPending)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_entries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	params := TransitionParams{
		ID:             "reg-1",
		ExpectedStatus: models.RegistrationStatusPending,
		NewStatus:      models.RegistrationStatusApproved,
		ReviewerID:     "staff-1",
		ReviewedAt:     now,
	}
	old := models.RegistrationStatusPending
	next := models.RegistrationStatusApproved
	entry := &models.AuditEntry{ActorID: "staff-1", Action: models.AuditActionApproved, OldStatus: &old, NewStatus: &next}

	err := repo.Transition(context.Background(), params, entry)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationTransitionLostRaceRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE registrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	params := TransitionParams{
		ID:             "reg-1",
		ExpectedStatus: models.RegistrationStatusPending,
		NewStatus:      models.RegistrationStatusRejected,
		ReviewerID:     "staff-1",
		ReviewedAt:     time.Now().UTC(),
	}
	err := repo.Transition(context.Background(), params, &models.AuditEntry{})
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsNonRejectedIgnoresRejected(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	rows := sqlmock.NewRows([]string{"exists"}).AddRow(false)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("student-1", "period-1", string(models.RegistrationStatusRejected)).
		WillReturnRows(rows)

	exists, err := repo.ExistsNonRejected(context.Background(), "student-1", "period-1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationListBuildsFilter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "location_id", "period_id", "category", "status", "notes", "reviewer_id", "reviewed_at", "advisor_id", "team_id", "created_at", "updated_at"}).
		AddRow("reg-1", "student-1", "loc-1", "period-1", "REGULAR", "PENDING", nil, nil, nil, nil, nil, now, now)
	mock.ExpectQuery("SELECT .+ FROM registrations WHERE status IN").
		WithArgs(string(models.RegistrationStatusPending), "student-1").
		WillReturnRows(rows)

	registrations, err := repo.List(context.Background(), models.RegistrationFilter{
		Status:    []models.RegistrationStatus{models.RegistrationStatusPending},
		StudentID: "student-1",
	})
	require.NoError(t, err)
	assert.Len(t, registrations, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
