package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kkn-placement-api/internal/dto"
	"github.com/noah-isme/kkn-placement-api/internal/models"
	"github.com/noah-isme/kkn-placement-api/internal/repository"
	appErrors "github.com/noah-isme/kkn-placement-api/pkg/errors"
)

type registrationStoreStub struct {
	registrations map[string]*models.Registration
	exists        bool
	transitions   []repository.TransitionParams
	entries       []*models.AuditEntry
	transitionErr error
}

func newRegistrationStoreStub() *registrationStoreStub {
	return &registrationStoreStub{registrations: make(map[string]*models.Registration)}
}

func (s *registrationStoreStub) Create(ctx context.Context, registration *models.Registration, entry *models.AuditEntry) error {
	if registration.ID == "" {
		registration.ID = "reg-1"
	}
	s.registrations[registration.ID] = registration
	s.entries = append(s.entries, entry)
	return nil
}

func (s *registrationStoreStub) GetByID(ctx context.Context, id string) (*models.Registration, error) {
	if registration, ok := s.registrations[id]; ok {
		copy := *registration
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *registrationStoreStub) ExistsNonRejected(ctx context.Context, studentID, periodID string) (bool, error) {
	return s.exists, nil
}

func (s *registrationStoreStub) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error) {
	result := make([]models.Registration, 0, len(s.registrations))
	for _, registration := range s.registrations {
		if filter.StudentID != "" && registration.StudentID != filter.StudentID {
			continue
		}
		result = append(result, *registration)
	}
	return result, nil
}

func (s *registrationStoreStub) Transition(ctx context.Context, params repository.TransitionParams, entry *models.AuditEntry) error {
	s.transitions = append(s.transitions, params)
	if s.transitionErr != nil {
		return s.transitionErr
	}
	registration, ok := s.registrations[params.ID]
	if !ok {
		return sql.ErrNoRows
	}
	if registration.Status != params.ExpectedStatus {
		return sql.ErrNoRows
	}
	registration.Status = params.NewStatus
	registration.ReviewerID = &params.ReviewerID
	registration.ReviewedAt = &params.ReviewedAt
	s.entries = append(s.entries, entry)
	return nil
}

type documentStoreStub struct {
	docs      map[string][]models.RegistrationDocument
	entries   []*models.AuditEntry
	count     int
	createErr error
}

func newDocumentStoreStub() *documentStoreStub {
	return &documentStoreStub{docs: make(map[string][]models.RegistrationDocument)}
}

func (s *documentStoreStub) Create(ctx context.Context, doc *models.RegistrationDocument, entry *models.AuditEntry) error {
	if s.createErr != nil {
		return s.createErr
	}
	if doc.ID == "" {
		doc.ID = "doc-1"
	}
	s.docs[doc.RegistrationID] = append(s.docs[doc.RegistrationID], *doc)
	if entry != nil {
		s.entries = append(s.entries, entry)
	}
	return nil
}

func (s *documentStoreStub) ListByRegistration(ctx context.Context, registrationID string) ([]models.RegistrationDocument, error) {
	return s.docs[registrationID], nil
}

func (s *documentStoreStub) CountByRegistration(ctx context.Context, registrationID string) (int, error) {
	if s.count > 0 {
		return s.count, nil
	}
	return len(s.docs[registrationID]), nil
}

type auditStoreStub struct {
	entries []*models.AuditEntry
}

func (s *auditStoreStub) Append(ctx context.Context, entry *models.AuditEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *auditStoreStub) ListByRegistration(ctx context.Context, registrationID string) ([]models.AuditEntry, error) {
	result := make([]models.AuditEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		result = append(result, *entry)
	}
	return result, nil
}

type periodStoreStub struct {
	periods map[string]*models.Period
}

func (s *periodStoreStub) GetPeriod(ctx context.Context, id string) (*models.Period, error) {
	if period, ok := s.periods[id]; ok {
		return period, nil
	}
	return nil, sql.ErrNoRows
}

type completionStub struct {
	result *models.CompletionResult
}

func (s *completionStub) CheckCompletion(ctx context.Context, periodID string, docs []models.RegistrationDocument) (*models.CompletionResult, error) {
	if s.result != nil {
		return s.result, nil
	}
	return &models.CompletionResult{Complete: true, Missing: []string{}}, nil
}

type emitterStub struct {
	events []models.Event
}

func (s *emitterStub) Emit(event models.Event) {
	s.events = append(s.events, event)
}

func openPeriod(id string) *models.Period {
	now := time.Now().UTC()
	return &models.Period{
		ID:       id,
		Name:     "Test Period",
		Year:     now.Year(),
		OpensAt:  now.Add(-24 * time.Hour),
		ClosesAt: now.Add(24 * time.Hour),
		Active:   true,
	}
}

type registrationFixture struct {
	store      *registrationStoreStub
	documents  *documentStoreStub
	audits     *auditStoreStub
	periods    *periodStoreStub
	completion *completionStub
	emitter    *emitterStub
	svc        *RegistrationService
}

func newRegistrationFixture() *registrationFixture {
	f := &registrationFixture{
		store:      newRegistrationStoreStub(),
		documents:  newDocumentStoreStub(),
		audits:     &auditStoreStub{},
		periods:    &periodStoreStub{periods: map[string]*models.Period{"period-1": openPeriod("period-1")}},
		completion: &completionStub{},
		emitter:    &emitterStub{},
	}
	f.svc = NewRegistrationService(f.store, f.documents, f.audits, f.periods, f.completion, f.emitter, nil, 5, nil)
	return f
}

func studentActor(id string) *models.ActorClaims {
	return &models.ActorClaims{ActorID: id, Role: models.RoleStudent}
}

func reviewerActor(id string) *models.ActorClaims {
	return &models.ActorClaims{
		ActorID:      id,
		Role:         models.RoleStaff,
		Capabilities: []models.Capability{models.CapabilityReviewRegistration},
	}
}

func TestSubmitCreatesPendingRegistration(t *testing.T) {
	f := newRegistrationFixture()
	registration, err := f.svc.Submit(context.Background(), studentActor("student-1"), dto.CreateRegistrationRequest{
		LocationID: "loc-1",
		PeriodID:   "period-1",
	})
	require.NoError(t, err)
	require.Equal(t, models.RegistrationStatusPending, registration.Status)
	require.Equal(t, models.CategoryRegular, registration.Category)
	require.Len(t, f.store.entries, 1)
	require.Equal(t, models.AuditActionCreated, f.store.entries[0].Action)
}

func TestSubmitRejectsClosedPeriod(t *testing.T) {
	f := newRegistrationFixture()
	closed := openPeriod("period-2")
	closed.ClosesAt = time.Now().UTC().Add(-time.Hour)
	f.periods.periods["period-2"] = closed

	_, err := f.svc.Submit(context.Background(), studentActor("student-1"), dto.CreateRegistrationRequest{
		LocationID: "loc-1",
		PeriodID:   "period-2",
	})
	require.ErrorIs(t, err, appErrors.ErrPeriodClosed)
}

func TestSubmitRejectsDuplicate(t *testing.T) {
	f := newRegistrationFixture()
	f.store.exists = true

	_, err := f.svc.Submit(context.Background(), studentActor("student-1"), dto.CreateRegistrationRequest{
		LocationID: "loc-1",
		PeriodID:   "period-1",
	})
	require.ErrorIs(t, err, appErrors.ErrDuplicateRegistration)
}

func TestSubmitRejectsNonStudent(t *testing.T) {
	f := newRegistrationFixture()
	_, err := f.svc.Submit(context.Background(), reviewerActor("staff-1"), dto.CreateRegistrationRequest{
		LocationID: "loc-1",
		PeriodID:   "period-1",
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func seedRegistration(f *registrationFixture, status models.RegistrationStatus) *models.Registration {
	registration := &models.Registration{
		ID:         "reg-1",
		StudentID:  "student-1",
		LocationID: "loc-1",
		PeriodID:   "period-1",
		Category:   models.CategoryRegular,
		Status:     status,
	}
	f.store.registrations[registration.ID] = registration
	return registration
}

func TestReviewApprovesCompleteRegistration(t *testing.T) {
	f := newRegistrationFixture()
	seedRegistration(f, models.RegistrationStatusPending)

	registration, err := f.svc.Review(context.Background(), reviewerActor("staff-1"), "reg-1", dto.ReviewRegistrationRequest{
		Decision: models.RegistrationStatusApproved,
	})
	require.NoError(t, err)
	require.Equal(t, models.RegistrationStatusApproved, registration.Status)
	require.Len(t, f.store.transitions, 1)
	require.Equal(t, models.RegistrationStatusPending, f.store.transitions[0].ExpectedStatus)
	require.Len(t, f.emitter.events, 1)
	require.Equal(t, models.EventRegistrationReviewed, f.emitter.events[0].Type)
}

func TestReviewRequiresCapability(t *testing.T) {
	f := newRegistrationFixture()
	seedRegistration(f, models.RegistrationStatusPending)

	actor := &models.ActorClaims{ActorID: "staff-2", Role: models.RoleStaff}
	_, err := f.svc.Review(context.Background(), actor, "reg-1", dto.ReviewRegistrationRequest{
		Decision: models.RegistrationStatusApproved,
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestReviewRejectsSelfReview(t *testing.T) {
	f := newRegistrationFixture()
	seedRegistration(f, models.RegistrationStatusPending)

	actor := reviewerActor("student-1")
	_, err := f.svc.Review(context.Background(), actor, "reg-1", dto.ReviewRegistrationRequest{
		Decision: models.RegistrationStatusApproved,
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestReviewBlocksIncompleteDocuments(t *testing.T) {
	f := newRegistrationFixture()
	seedRegistration(f, models.RegistrationStatusPending)
	f.completion.result = &models.CompletionResult{Complete: false, Missing: []string{"transcript"}}

	_, err := f.svc.Review(context.Background(), reviewerActor("staff-1"), "reg-1", dto.ReviewRegistrationRequest{
		Decision: models.RegistrationStatusApproved,
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrIncompleteDocuments.Code, appErr.Code)
	require.Equal(t, []string{"transcript"}, appErr.Details["missing"])
	require.Empty(t, f.store.transitions)
}

func TestReviewOverrideRequiresCapabilityAndNote(t *testing.T) {
	f := newRegistrationFixture()
	seedRegistration(f, models.RegistrationStatusPending)
	f.completion.result = &models.CompletionResult{Complete: false, Missing: []string{"transcript"}}

	_, err := f.svc.Review(context.Background(), reviewerActor("staff-1"), "reg-1", dto.ReviewRegistrationRequest{
		Decision: models.RegistrationStatusApproved,
		Override: true,
		Note:     "documents verified on paper",
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	admin := &models.ActorClaims{ActorID: "admin-1", Role: models.RoleAdmin}
	_, err = f.svc.Review(context.Background(), admin, "reg-1", dto.ReviewRegistrationRequest{
		Decision: models.RegistrationStatusApproved,
		Override: true,
	})
	appErr = appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	registration, err := f.svc.Review(context.Background(), admin, "reg-1", dto.ReviewRegistrationRequest{
		Decision: models.RegistrationStatusApproved,
		Override: true,
		Note:     "documents verified on paper",
	})
	require.NoError(t, err)
	require.Equal(t, models.RegistrationStatusApproved, registration.Status)

	last := f.store.entries[len(f.store.entries)-1]
	require.Contains(t, string(last.Metadata), `"override":true`)
}

func TestReviewRequiresNoteForRejection(t *testing.T) {
	f := newRegistrationFixture()
	seedRegistration(f, models.RegistrationStatusPending)

	_, err := f.svc.Review(context.Background(), reviewerActor("staff-1"), "reg-1", dto.ReviewRegistrationRequest{
		Decision: models.RegistrationStatusRejected,
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestReviewRejectsTerminalStatus(t *testing.T) {
	f := newRegistrationFixture()
	seedRegistration(f, models.RegistrationStatusApproved)

	_, err := f.svc.Review(context.Background(), reviewerActor("staff-1"), "reg-1", dto.ReviewRegistrationRequest{
		Decision: models.RegistrationStatusRejected,
		Note:     "late",
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestReviewLostRaceSurfacesConflict(t *testing.T) {
	f := newRegistrationFixture()
	seedRegistration(f, models.RegistrationStatusPending)
	f.store.transitionErr = sql.ErrNoRows

	_, err := f.svc.Review(context.Background(), reviewerActor("staff-1"), "reg-1", dto.ReviewRegistrationRequest{
		Decision: models.RegistrationStatusApproved,
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrConflictingUpdate.Code, appErr.Code)
}

func TestResubmitFromNeedsRevision(t *testing.T) {
	f := newRegistrationFixture()
	seedRegistration(f, models.RegistrationStatusNeedsRevision)

	registration, err := f.svc.Resubmit(context.Background(), studentActor("student-1"), "reg-1")
	require.NoError(t, err)
	require.Equal(t, models.RegistrationStatusPending, registration.Status)
	require.Equal(t, models.AuditActionResubmitted, f.store.entries[len(f.store.entries)-1].Action)
}

func TestResubmitRejectsOtherStudents(t *testing.T) {
	f := newRegistrationFixture()
	seedRegistration(f, models.RegistrationStatusNeedsRevision)

	_, err := f.svc.Resubmit(context.Background(), studentActor("student-2"), "reg-1")
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestUploadDocumentAppendsAudit(t *testing.T) {
	f := newRegistrationFixture()
	seedRegistration(f, models.RegistrationStatusPending)

	doc, err := f.svc.UploadDocument(context.Background(), studentActor("student-1"), "reg-1", dto.UploadDocumentRequest{
		DocType:    models.DocTypeTranscript,
		StorageKey: "uploads/t.pdf",
		FileName:   "t.pdf",
	})
	require.NoError(t, err)
	require.NotEmpty(t, doc.ID)
	require.Len(t, f.documents.entries, 1)
	require.Equal(t, models.AuditActionDocumentUploaded, f.documents.entries[0].Action)
	require.Contains(t, string(f.documents.entries[0].Metadata), doc.ID)
}

func TestUploadDocumentFailsClosedOnStoreError(t *testing.T) {
	f := newRegistrationFixture()
	seedRegistration(f, models.RegistrationStatusPending)
	f.documents.createErr = errors.New("audit entry insert failed")

	_, err := f.svc.UploadDocument(context.Background(), studentActor("student-1"), "reg-1", dto.UploadDocumentRequest{
		DocType:    models.DocTypeTranscript,
		StorageKey: "uploads/t.pdf",
		FileName:   "t.pdf",
	})
	require.Error(t, err)
	require.Empty(t, f.documents.docs["reg-1"])
	require.Empty(t, f.documents.entries)
}

func TestUploadDocumentRejectedAfterApproval(t *testing.T) {
	f := newRegistrationFixture()
	seedRegistration(f, models.RegistrationStatusApproved)

	_, err := f.svc.UploadDocument(context.Background(), studentActor("student-1"), "reg-1", dto.UploadDocumentRequest{
		DocType:    models.DocTypeTranscript,
		StorageKey: "uploads/t.pdf",
		FileName:   "t.pdf",
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestUploadDocumentEnforcesLimit(t *testing.T) {
	f := newRegistrationFixture()
	seedRegistration(f, models.RegistrationStatusPending)
	f.documents.count = 5

	_, err := f.svc.UploadDocument(context.Background(), studentActor("student-1"), "reg-1", dto.UploadDocumentRequest{
		DocType:    models.DocTypeTranscript,
		StorageKey: "uploads/t.pdf",
		FileName:   "t.pdf",
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestCommentEmitsGuidanceEvent(t *testing.T) {
	f := newRegistrationFixture()
	seedRegistration(f, models.RegistrationStatusPending)

	entry, err := f.svc.Comment(context.Background(), studentActor("student-1"), "reg-1", dto.CommentRequest{Note: "when is the briefing?"})
	require.NoError(t, err)
	require.Equal(t, models.AuditActionComment, entry.Action)
	require.Len(t, f.emitter.events, 1)
	require.Equal(t, models.EventGuidanceMessagePosted, f.emitter.events[0].Type)
}

func TestListPinsStudentsToOwnRecords(t *testing.T) {
	f := newRegistrationFixture()
	seedRegistration(f, models.RegistrationStatusPending)
	f.store.registrations["reg-2"] = &models.Registration{ID: "reg-2", StudentID: "student-2", Status: models.RegistrationStatusPending}

	result, err := f.svc.List(context.Background(), studentActor("student-1"), dto.RegistrationQuery{StudentID: "student-2"})
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, "student-1", result[0].StudentID)
}

func TestExportAuditTrailRendersCSV(t *testing.T) {
	f := newRegistrationFixture()
	seedRegistration(f, models.RegistrationStatusPending)
	note := "looks good"
	f.audits.entries = append(f.audits.entries, &models.AuditEntry{
		RegistrationID: "reg-1",
		ActorID:        "staff-1",
		Action:         models.AuditActionComment,
		Note:           &note,
		CreatedAt:      time.Now().UTC(),
	})

	data, err := f.svc.ExportAuditTrail(context.Background(), reviewerActor("staff-1"), "reg-1", "csv")
	require.NoError(t, err)
	require.Contains(t, string(data), "timestamp,actor_id,action")
	require.Contains(t, string(data), "looks good")
}

func TestExportAuditTrailRendersPDF(t *testing.T) {
	f := newRegistrationFixture()
	seedRegistration(f, models.RegistrationStatusPending)
	f.audits.entries = append(f.audits.entries, &models.AuditEntry{
		RegistrationID: "reg-1",
		ActorID:        "staff-1",
		Action:         models.AuditActionComment,
		CreatedAt:      time.Now().UTC(),
	})

	data, err := f.svc.ExportAuditTrail(context.Background(), reviewerActor("staff-1"), "reg-1", "pdf")
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestExportAuditTrailRejectsUnknownFormat(t *testing.T) {
	f := newRegistrationFixture()
	seedRegistration(f, models.RegistrationStatusPending)

	_, err := f.svc.ExportAuditTrail(context.Background(), reviewerActor("staff-1"), "reg-1", "xlsx")
	require.Error(t, err)
}
