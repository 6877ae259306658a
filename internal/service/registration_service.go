package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/kkn-placement-api/internal/dto"
	"github.com/noah-isme/kkn-placement-api/internal/models"
	"github.com/noah-isme/kkn-placement-api/internal/repository"
	"github.com/noah-isme/kkn-placement-api/pkg/export"
	appErrors "github.com/noah-isme/kkn-placement-api/pkg/errors"
)

type registrationStore interface {
	Create(ctx context.Context, registration *models.Registration, entry *models.AuditEntry) error
	GetByID(ctx context.Context, id string) (*models.Registration, error)
	ExistsNonRejected(ctx context.Context, studentID, periodID string) (bool, error)
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error)
	Transition(ctx context.Context, params repository.TransitionParams, entry *models.AuditEntry) error
}

type documentStore interface {
	Create(ctx context.Context, doc *models.RegistrationDocument, entry *models.AuditEntry) error
	ListByRegistration(ctx context.Context, registrationID string) ([]models.RegistrationDocument, error)
	CountByRegistration(ctx context.Context, registrationID string) (int, error)
}

type auditStore interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
	ListByRegistration(ctx context.Context, registrationID string) ([]models.AuditEntry, error)
}

type periodStore interface {
	GetPeriod(ctx context.Context, id string) (*models.Period, error)
}

type completionChecker interface {
	CheckCompletion(ctx context.Context, periodID string, docs []models.RegistrationDocument) (*models.CompletionResult, error)
}

type eventEmitter interface {
	Emit(event models.Event)
}

// decisionActions maps a review decision to its audit action name.
var decisionActions = map[models.RegistrationStatus]string{
	models.RegistrationStatusApproved:      models.AuditActionApproved,
	models.RegistrationStatusRejected:      models.AuditActionRejected,
	models.RegistrationStatusNeedsRevision: models.AuditActionNeedsRevision,
}

// RegistrationService orchestrates the registration lifecycle: submission,
// document uploads, review decisions, comments, and the audit trail.
type RegistrationService struct {
	registrations registrationStore
	documents     documentStore
	audits        auditStore
	periods       periodStore
	completion    completionChecker
	events        eventEmitter
	metrics       *MetricsService
	csv           *export.CSVExporter
	pdf           *export.PDFExporter
	maxDocuments  int
	logger        *zap.Logger
	now           func() time.Time
}

// NewRegistrationService constructs the service.
func NewRegistrationService(
	registrations registrationStore,
	documents documentStore,
	audits auditStore,
	periods periodStore,
	completion completionChecker,
	events eventEmitter,
	metrics *MetricsService,
	maxDocuments int,
	logger *zap.Logger,
) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxDocuments <= 0 {
		maxDocuments = 20
	}
	return &RegistrationService{
		registrations: registrations,
		documents:     documents,
		audits:        audits,
		periods:       periods,
		completion:    completion,
		events:        events,
		metrics:       metrics,
		csv:           export.NewCSVExporter(),
		pdf:           export.NewPDFExporter(),
		maxDocuments:  maxDocuments,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Submit creates a new pending registration for the acting student. The
// period window must be open and the student must not already hold a
// non-rejected registration for the period.
func (s *RegistrationService) Submit(ctx context.Context, actor *models.ActorClaims, req dto.CreateRegistrationRequest) (*models.Registration, error) {
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students may submit registrations")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	period, err := s.periods.GetPeriod(ctx, req.PeriodID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, err
	}
	if !period.IsOpenAt(s.now()) {
		return nil, appErrors.ErrPeriodClosed
	}

	exists, err := s.registrations.ExistsNonRejected(ctx, actor.ActorID, req.PeriodID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, appErrors.ErrDuplicateRegistration
	}

	category := req.Category
	if category == "" {
		category = models.CategoryRegular
	}
	registration := &models.Registration{
		StudentID:  actor.ActorID,
		LocationID: req.LocationID,
		PeriodID:   req.PeriodID,
		Category:   category,
		Status:     models.RegistrationStatusPending,
	}
	if note := strings.TrimSpace(req.Notes); note != "" {
		registration.Notes = &note
	}

	pending := models.RegistrationStatusPending
	entry := &models.AuditEntry{
		ActorID:   actor.ActorID,
		Action:    models.AuditActionCreated,
		NewStatus: &pending,
	}
	if err := s.registrations.Create(ctx, registration, entry); err != nil {
		return nil, err
	}

	s.logger.Info("registration submitted",
		zap.String("registration_id", registration.ID),
		zap.String("student_id", actor.ActorID),
		zap.String("period_id", req.PeriodID))
	return registration, nil
}

// Get fetches a registration. Students can only see their own.
func (s *RegistrationService) Get(ctx context.Context, actor *models.ActorClaims, id string) (*models.Registration, error) {
	registration, err := s.registrations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, err
	}
	if actor.Role == models.RoleStudent && registration.StudentID != actor.ActorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only view their own registrations")
	}
	return registration, nil
}

// List returns registrations matching the query. Student actors are pinned
// to their own records regardless of the requested filter.
func (s *RegistrationService) List(ctx context.Context, actor *models.ActorClaims, query dto.RegistrationQuery) ([]models.Registration, error) {
	filter := models.RegistrationFilter{
		StudentID: query.StudentID,
		PeriodID:  query.PeriodID,
		Status:    query.Status,
		Limit:     query.Limit,
		Offset:    query.Offset,
	}
	if actor.Role == models.RoleStudent {
		filter.StudentID = actor.ActorID
	}
	return s.registrations.List(ctx, filter)
}

// UploadDocument records an uploaded document reference and the matching
// audit entry. Only the owning student may upload, and only while the
// registration still accepts changes.
func (s *RegistrationService) UploadDocument(ctx context.Context, actor *models.ActorClaims, registrationID string, req dto.UploadDocumentRequest) (*models.RegistrationDocument, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	registration, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, err
	}
	if registration.StudentID != actor.ActorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owning student may upload documents")
	}
	if registration.Status != models.RegistrationStatusPending && registration.Status != models.RegistrationStatusNeedsRevision {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "documents can only be uploaded while the registration awaits review")
	}

	count, err := s.documents.CountByRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if count >= s.maxDocuments {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("registration already holds the maximum of %d documents", s.maxDocuments))
	}

	doc := &models.RegistrationDocument{
		ID:             uuid.NewString(),
		RegistrationID: registrationID,
		DocType:        req.DocType,
		StorageKey:     req.StorageKey,
		FileName:       req.FileName,
		MimeType:       req.MimeType,
	}
	metadata, _ := json.Marshal(map[string]string{"document_id": doc.ID, "doc_type": string(doc.DocType)})
	entry := &models.AuditEntry{
		RegistrationID: registrationID,
		ActorID:        actor.ActorID,
		Action:         models.AuditActionDocumentUploaded,
		Metadata:       metadata,
	}
	// Document and audit entry commit together or not at all.
	if err := s.documents.Create(ctx, doc, entry); err != nil {
		return nil, err
	}
	return doc, nil
}

// Documents returns the uploaded references together with the completeness
// verdict for the registration's period.
func (s *RegistrationService) Documents(ctx context.Context, actor *models.ActorClaims, registrationID string) ([]models.RegistrationDocument, *models.CompletionResult, error) {
	registration, err := s.Get(ctx, actor, registrationID)
	if err != nil {
		return nil, nil, err
	}
	docs, err := s.documents.ListByRegistration(ctx, registrationID)
	if err != nil {
		return nil, nil, err
	}
	result, err := s.completion.CheckCompletion(ctx, registration.PeriodID, docs)
	if err != nil {
		return nil, nil, err
	}
	return docs, result, nil
}

// Review applies a reviewer decision. Approval is gated on document
// completeness unless an authorised override accompanies the decision; the
// override is recorded in the audit metadata. The status update and its
// audit entry commit atomically.
func (s *RegistrationService) Review(ctx context.Context, actor *models.ActorClaims, registrationID string, req dto.ReviewRegistrationRequest) (*models.Registration, error) {
	if !actor.Has(models.CapabilityReviewRegistration) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "reviewing requires the review_registration capability")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	registration, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, err
	}
	if registration.StudentID == actor.ActorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "reviewers cannot review their own registration")
	}
	if !isReviewable(registration.Status) {
		return nil, appErrors.WithDetails(appErrors.ErrInvalidTransition, map[string]interface{}{
			"current_status": registration.Status,
		})
	}

	action, ok := decisionActions[req.Decision]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown review decision")
	}
	if req.Decision != models.RegistrationStatusApproved && strings.TrimSpace(req.Note) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a note is required for rejection or revision requests")
	}

	var metadata []byte
	if req.Decision == models.RegistrationStatusApproved {
		docs, err := s.documents.ListByRegistration(ctx, registrationID)
		if err != nil {
			return nil, err
		}
		result, err := s.completion.CheckCompletion(ctx, registration.PeriodID, docs)
		if err != nil {
			return nil, err
		}
		if !result.Complete {
			if !req.Override {
				return nil, appErrors.WithDetails(appErrors.ErrIncompleteDocuments, map[string]interface{}{
					"missing":     result.Missing,
					"suggestions": result.Suggestions,
				})
			}
			if !actor.Has(models.CapabilityOverrideDocumentCheck) {
				return nil, appErrors.Clone(appErrors.ErrForbidden, "overriding the document check requires the override_document_check capability")
			}
			if strings.TrimSpace(req.Note) == "" {
				return nil, appErrors.Clone(appErrors.ErrValidation, "an override requires a justifying note")
			}
			metadata, _ = json.Marshal(map[string]interface{}{
				"override": true,
				"missing":  result.Missing,
			})
		}
	}

	now := s.now()
	oldStatus := registration.Status
	newStatus := req.Decision
	var note *string
	if trimmed := strings.TrimSpace(req.Note); trimmed != "" {
		note = &trimmed
	}
	entry := &models.AuditEntry{
		ActorID:   actor.ActorID,
		Action:    action,
		OldStatus: &oldStatus,
		NewStatus: &newStatus,
		Note:      note,
		Metadata:  metadata,
	}
	params := repository.TransitionParams{
		ID:             registrationID,
		ExpectedStatus: oldStatus,
		NewStatus:      newStatus,
		ReviewerID:     actor.ActorID,
		ReviewedAt:     now,
		Notes:          note,
	}
	if err := s.registrations.Transition(ctx, params, entry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.resolveTransitionConflict(ctx, registrationID)
		}
		return nil, err
	}

	s.metrics.RecordTransition(string(newStatus))
	s.emit(models.Event{
		Type:       models.EventRegistrationReviewed,
		EntityID:   registrationID,
		ActorID:    actor.ActorID,
		OccurredAt: now,
		Payload: map[string]interface{}{
			"old_status": oldStatus,
			"new_status": newStatus,
		},
	})

	registration.Status = newStatus
	registration.ReviewerID = &entry.ActorID
	registration.ReviewedAt = &now
	if note != nil {
		registration.Notes = note
	}
	registration.UpdatedAt = now
	return registration, nil
}

// Resubmit moves a registration back to pending after revisions. Only the
// owning student may resubmit, and only from the needs-revision state.
func (s *RegistrationService) Resubmit(ctx context.Context, actor *models.ActorClaims, registrationID string) (*models.Registration, error) {
	registration, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, err
	}
	if registration.StudentID != actor.ActorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owning student may resubmit")
	}
	if registration.Status != models.RegistrationStatusNeedsRevision {
		return nil, appErrors.WithDetails(appErrors.ErrInvalidTransition, map[string]interface{}{
			"current_status": registration.Status,
		})
	}

	now := s.now()
	oldStatus := registration.Status
	newStatus := models.RegistrationStatusPending
	entry := &models.AuditEntry{
		ActorID:   actor.ActorID,
		Action:    models.AuditActionResubmitted,
		OldStatus: &oldStatus,
		NewStatus: &newStatus,
	}
	params := repository.TransitionParams{
		ID:             registrationID,
		ExpectedStatus: oldStatus,
		NewStatus:      newStatus,
		ReviewerID:     actor.ActorID,
		ReviewedAt:     now,
	}
	if err := s.registrations.Transition(ctx, params, entry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.resolveTransitionConflict(ctx, registrationID)
		}
		return nil, err
	}

	registration.Status = newStatus
	registration.UpdatedAt = now
	return registration, nil
}

// Comment appends a guidance note to the audit trail without touching the
// registration status.
func (s *RegistrationService) Comment(ctx context.Context, actor *models.ActorClaims, registrationID string, req dto.CommentRequest) (*models.AuditEntry, error) {
	registration, err := s.Get(ctx, actor, registrationID)
	if err != nil {
		return nil, err
	}

	note := strings.TrimSpace(req.Note)
	if note == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "note is required")
	}
	entry := &models.AuditEntry{
		RegistrationID: registration.ID,
		ActorID:        actor.ActorID,
		Action:         models.AuditActionComment,
		Note:           &note,
	}
	if err := s.audits.Append(ctx, entry); err != nil {
		return nil, err
	}

	s.emit(models.Event{
		Type:       models.EventGuidanceMessagePosted,
		EntityID:   registration.ID,
		ActorID:    actor.ActorID,
		OccurredAt: s.now(),
	})
	return entry, nil
}

// AuditTrail returns the registration's audit entries, newest first.
func (s *RegistrationService) AuditTrail(ctx context.Context, actor *models.ActorClaims, registrationID string) ([]models.AuditEntry, error) {
	if _, err := s.Get(ctx, actor, registrationID); err != nil {
		return nil, err
	}
	return s.audits.ListByRegistration(ctx, registrationID)
}

// ExportAuditTrail renders the audit trail for offline archiving. Supported
// formats are "csv" (default) and "pdf".
func (s *RegistrationService) ExportAuditTrail(ctx context.Context, actor *models.ActorClaims, registrationID, format string) ([]byte, error) {
	entries, err := s.AuditTrail(ctx, actor, registrationID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"timestamp", "actor_id", "action", "old_status", "new_status", "note"},
		Rows:    make([]map[string]string, 0, len(entries)),
	}
	for _, entry := range entries {
		row := map[string]string{
			"timestamp": entry.CreatedAt.Format(time.RFC3339),
			"actor_id":  entry.ActorID,
			"action":    entry.Action,
		}
		if entry.OldStatus != nil {
			row["old_status"] = string(*entry.OldStatus)
		}
		if entry.NewStatus != nil {
			row["new_status"] = string(*entry.NewStatus)
		}
		if entry.Note != nil {
			row["note"] = *entry.Note
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	switch strings.ToLower(format) {
	case "pdf":
		return s.pdf.Render(dataset, fmt.Sprintf("Audit Trail %s", registrationID))
	case "", "csv":
		return s.csv.Render(dataset)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

// resolveTransitionConflict distinguishes a lost race from an outright
// invalid transition after a guarded update touched no rows.
func (s *RegistrationService) resolveTransitionConflict(ctx context.Context, registrationID string) error {
	current, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return err
	}
	if isReviewable(current.Status) {
		return appErrors.ErrConflictingUpdate
	}
	return appErrors.WithDetails(appErrors.ErrConflictingUpdate, map[string]interface{}{
		"current_status": current.Status,
	})
}

func (s *RegistrationService) emit(event models.Event) {
	if s.events == nil {
		return
	}
	s.events.Emit(event)
}

func isReviewable(status models.RegistrationStatus) bool {
	for _, candidate := range models.ReviewableStatuses {
		if candidate == status {
			return true
		}
	}
	return false
}
