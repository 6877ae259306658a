package repository

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kkn-placement-api/internal/models"
)

func TestDocumentCreateCommitsWithAudit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO registration_documents").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO audit_entries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	doc := &models.RegistrationDocument{
		RegistrationID: "reg-1",
		DocType:        models.DocTypeTranscript,
		StorageKey:     "uploads/t.pdf",
		FileName:       "t.pdf",
	}
	entry := &models.AuditEntry{ActorID: "student-1", Action: models.AuditActionDocumentUploaded}

	err := repo.Create(context.Background(), doc, entry)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "reg-1", entry.RegistrationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentCreateRollsBackWhenAuditFails(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO registration_documents").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO audit_entries").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	doc := &models.RegistrationDocument{
		RegistrationID: "reg-1",
		DocType:        models.DocTypeTranscript,
		StorageKey:     "uploads/t.pdf",
		FileName:       "t.pdf",
	}
	entry := &models.AuditEntry{ActorID: "student-1", Action: models.AuditActionDocumentUploaded}

	err := repo.Create(context.Background(), doc, entry)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
