package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/kkn-placement-api/internal/dto"
	"github.com/noah-isme/kkn-placement-api/internal/models"
	appErrors "github.com/noah-isme/kkn-placement-api/pkg/errors"
)

type reportStore interface {
	Create(ctx context.Context, report *models.Report, attachments []models.ReportAttachment, history *models.ReportHistory) error
	GetByID(ctx context.Context, id string) (*models.Report, error)
	List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error)
	Transition(ctx context.Context, id string, expected, next models.ReportStatus, note *string, history *models.ReportHistory) error
	ListHistory(ctx context.Context, reportID string) ([]models.ReportHistory, error)
	ListAttachments(ctx context.Context, reportID string) ([]models.ReportAttachment, error)
}

type reportTeamStore interface {
	GetByID(ctx context.Context, id string) (*models.Team, error)
	FindMembership(ctx context.Context, teamID, studentID string) (*models.TeamMember, error)
}

const maxReportWeek = 52

// ReportService runs the report review cycle: submission, advisor
// evaluation, and resubmission after revision.
type ReportService struct {
	reports reportStore
	teams   reportTeamStore
	events  eventEmitter
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewReportService constructs the service.
func NewReportService(reports reportStore, teams reportTeamStore, events eventEmitter, metrics *MetricsService, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reports: reports,
		teams:   teams,
		events:  events,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Submit creates a report in the submitted state together with its
// attachments and initial history entry. The author must be an active team
// member or the team's advisor, and the team must be active.
func (s *ReportService) Submit(ctx context.Context, actor *models.ActorClaims, teamID string, req dto.SubmitReportRequest) (*models.Report, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "team not found")
		}
		return nil, err
	}
	if team.Status != models.TeamStatusActive {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "reports can only be submitted for active teams")
	}

	authorRole, err := s.resolveAuthorRole(ctx, actor, team)
	if err != nil {
		return nil, err
	}

	week, err := validateWeek(req.Type, req.Week)
	if err != nil {
		return nil, err
	}

	now := s.now()
	report := &models.Report{
		TeamID:      teamID,
		AuthorID:    actor.ActorID,
		AuthorRole:  authorRole,
		Type:        req.Type,
		Week:        week,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Status:      models.ReportStatusSubmitted,
		SubmittedAt: &now,
	}

	attachments := make([]models.ReportAttachment, 0, len(req.Attachments))
	for _, payload := range req.Attachments {
		attachments = append(attachments, models.ReportAttachment{
			StorageKey: payload.StorageKey,
			FileName:   payload.FileName,
			MimeType:   payload.MimeType,
		})
	}

	history := &models.ReportHistory{
		ReviewerID: actor.ActorID,
		Status:     models.ReportStatusSubmitted,
	}
	if err := s.reports.Create(ctx, report, attachments, history); err != nil {
		return nil, err
	}

	s.logger.Info("report submitted",
		zap.String("report_id", report.ID),
		zap.String("team_id", teamID),
		zap.String("type", string(req.Type)))
	return report, nil
}

// Get fetches a report by identifier.
func (s *ReportService) Get(ctx context.Context, id string) (*models.Report, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, err
	}
	return report, nil
}

// List returns a team's reports matching the query, newest first.
func (s *ReportService) List(ctx context.Context, teamID string, query dto.ReportQuery) ([]models.Report, error) {
	return s.reports.List(ctx, models.ReportFilter{
		TeamID: teamID,
		Type:   query.Type,
		Status: query.Status,
		Limit:  query.Limit,
		Offset: query.Offset,
	})
}

// Evaluate applies the advisor's decision to a submitted report. A note is
// mandatory unless the report is approved. The status change and history
// entry commit atomically.
func (s *ReportService) Evaluate(ctx context.Context, actor *models.ActorClaims, reportID string, req dto.EvaluateReportRequest) (*models.Report, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	report, err := s.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}

	team, err := s.teams.GetByID(ctx, report.TeamID)
	if err != nil {
		return nil, err
	}
	if !s.canEvaluate(actor, team) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the team advisor may evaluate reports")
	}
	if report.AuthorID == actor.ActorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "authors cannot evaluate their own report")
	}
	if report.Status != models.ReportStatusSubmitted {
		return nil, appErrors.WithDetails(appErrors.ErrInvalidTransition, map[string]interface{}{
			"current_status": report.Status,
		})
	}

	note := strings.TrimSpace(req.Note)
	if req.Decision != models.ReportStatusApproved && note == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a note is required when the report is not approved")
	}
	var notePtr *string
	if note != "" {
		notePtr = &note
	}

	history := &models.ReportHistory{
		ReviewerID: actor.ActorID,
		Status:     req.Decision,
		Note:       notePtr,
	}
	if err := s.reports.Transition(ctx, reportID, models.ReportStatusSubmitted, req.Decision, notePtr, history); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrConflictingUpdate
		}
		return nil, err
	}

	s.metrics.RecordEvaluation(string(req.Decision))
	if s.events != nil {
		s.events.Emit(models.Event{
			Type:       models.EventReportEvaluated,
			EntityID:   reportID,
			ActorID:    actor.ActorID,
			OccurredAt: s.now(),
			Payload: map[string]interface{}{
				"decision": req.Decision,
				"team_id":  report.TeamID,
			},
		})
	}

	report.Status = req.Decision
	report.Notes = notePtr
	return report, nil
}

// Resubmit returns a revised report to the submitted state. Only the
// original author may resubmit.
func (s *ReportService) Resubmit(ctx context.Context, actor *models.ActorClaims, reportID string) (*models.Report, error) {
	report, err := s.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.AuthorID != actor.ActorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author may resubmit a report")
	}
	if report.Status != models.ReportStatusRevised {
		return nil, appErrors.WithDetails(appErrors.ErrInvalidTransition, map[string]interface{}{
			"current_status": report.Status,
		})
	}

	history := &models.ReportHistory{
		ReviewerID: actor.ActorID,
		Status:     models.ReportStatusSubmitted,
	}
	if err := s.reports.Transition(ctx, reportID, models.ReportStatusRevised, models.ReportStatusSubmitted, nil, history); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrConflictingUpdate
		}
		return nil, err
	}

	report.Status = models.ReportStatusSubmitted
	report.Notes = nil
	return report, nil
}

// History returns the review trail oldest first.
func (s *ReportService) History(ctx context.Context, reportID string) ([]models.ReportHistory, error) {
	if _, err := s.Get(ctx, reportID); err != nil {
		return nil, err
	}
	return s.reports.ListHistory(ctx, reportID)
}

// Attachments returns the files recorded at submission.
func (s *ReportService) Attachments(ctx context.Context, reportID string) ([]models.ReportAttachment, error) {
	if _, err := s.Get(ctx, reportID); err != nil {
		return nil, err
	}
	return s.reports.ListAttachments(ctx, reportID)
}

func (s *ReportService) resolveAuthorRole(ctx context.Context, actor *models.ActorClaims, team *models.Team) (models.ReportAuthorRole, error) {
	if team.AdvisorID != nil && *team.AdvisorID == actor.ActorID {
		return models.ReportAuthorAdvisor, nil
	}
	member, err := s.teams.FindMembership(ctx, team.ID, actor.ActorID)
	if err != nil {
		return "", err
	}
	if member == nil || member.Status != models.MemberStatusActive {
		return "", appErrors.Clone(appErrors.ErrForbidden, "only active team members or the advisor may submit reports")
	}
	return models.ReportAuthorStudent, nil
}

func (s *ReportService) canEvaluate(actor *models.ActorClaims, team *models.Team) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	return actor.Role == models.RoleAdvisor && team.AdvisorID != nil && *team.AdvisorID == actor.ActorID
}

// validateWeek enforces the week rules per report type: weekly reports carry
// a positive week number, final reports carry none.
func validateWeek(reportType models.ReportType, week *int) (*int, error) {
	switch reportType {
	case models.ReportTypeWeekly:
		if week == nil || *week < 1 || *week > maxReportWeek {
			return nil, appErrors.ErrInvalidWeek
		}
		return week, nil
	case models.ReportTypeFinal:
		if week != nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidWeek, "final reports do not carry a week number")
		}
		return nil, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown report type")
	}
}
