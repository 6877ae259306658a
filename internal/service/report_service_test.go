package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kkn-placement-api/internal/dto"
	"github.com/noah-isme/kkn-placement-api/internal/models"
	appErrors "github.com/noah-isme/kkn-placement-api/pkg/errors"
)

type reportStoreStub struct {
	reports     map[string]*models.Report
	attachments map[string][]models.ReportAttachment
	history     map[string][]models.ReportHistory
}

func newReportStoreStub() *reportStoreStub {
	return &reportStoreStub{
		reports:     make(map[string]*models.Report),
		attachments: make(map[string][]models.ReportAttachment),
		history:     make(map[string][]models.ReportHistory),
	}
}

func (s *reportStoreStub) Create(ctx context.Context, report *models.Report, attachments []models.ReportAttachment, history *models.ReportHistory) error {
	if report.ID == "" {
		report.ID = "report-1"
	}
	s.reports[report.ID] = report
	for _, attachment := range attachments {
		attachment.ReportID = report.ID
		s.attachments[report.ID] = append(s.attachments[report.ID], attachment)
	}
	if history != nil {
		history.ReportID = report.ID
		s.history[report.ID] = append(s.history[report.ID], *history)
	}
	return nil
}

func (s *reportStoreStub) GetByID(ctx context.Context, id string) (*models.Report, error) {
	if report, ok := s.reports[id]; ok {
		copy := *report
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *reportStoreStub) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	result := make([]models.Report, 0, len(s.reports))
	for _, report := range s.reports {
		result = append(result, *report)
	}
	return result, nil
}

func (s *reportStoreStub) Transition(ctx context.Context, id string, expected, next models.ReportStatus, note *string, history *models.ReportHistory) error {
	report, ok := s.reports[id]
	if !ok || report.Status != expected {
		return sql.ErrNoRows
	}
	report.Status = next
	report.Notes = note
	if history != nil {
		history.ReportID = id
		s.history[id] = append(s.history[id], *history)
	}
	return nil
}

func (s *reportStoreStub) ListHistory(ctx context.Context, reportID string) ([]models.ReportHistory, error) {
	return s.history[reportID], nil
}

func (s *reportStoreStub) ListAttachments(ctx context.Context, reportID string) ([]models.ReportAttachment, error) {
	return s.attachments[reportID], nil
}

type reportTeamStoreStub struct {
	teams   map[string]*models.Team
	members map[string][]*models.TeamMember
}

func newReportTeamStoreStub() *reportTeamStoreStub {
	return &reportTeamStoreStub{
		teams:   make(map[string]*models.Team),
		members: make(map[string][]*models.TeamMember),
	}
}

func (s *reportTeamStoreStub) GetByID(ctx context.Context, id string) (*models.Team, error) {
	if team, ok := s.teams[id]; ok {
		copy := *team
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *reportTeamStoreStub) FindMembership(ctx context.Context, teamID, studentID string) (*models.TeamMember, error) {
	for _, member := range s.members[teamID] {
		if member.StudentID == studentID && member.Status != models.MemberStatusWithdrawn {
			copy := *member
			return &copy, nil
		}
	}
	return nil, nil
}

type reportFixture struct {
	reports *reportStoreStub
	teams   *reportTeamStoreStub
	emitter *emitterStub
	svc     *ReportService
}

func newReportFixture() *reportFixture {
	f := &reportFixture{
		reports: newReportStoreStub(),
		teams:   newReportTeamStoreStub(),
		emitter: &emitterStub{},
	}
	f.svc = NewReportService(f.reports, f.teams, f.emitter, nil, nil)
	return f
}

func seedActiveTeam(f *reportFixture) *models.Team {
	advisorID := "advisor-1"
	team := &models.Team{
		ID:         "team-1",
		Name:       "Posko Desa Maju",
		LocationID: "loc-1",
		PeriodID:   "period-1",
		AdvisorID:  &advisorID,
		Status:     models.TeamStatusActive,
	}
	f.teams.teams[team.ID] = team
	f.teams.members[team.ID] = append(f.teams.members[team.ID], &models.TeamMember{
		ID: "member-1", TeamID: team.ID, StudentID: "student-1",
		Position: models.PositionCoordinator, Status: models.MemberStatusActive,
	})
	return team
}

func advisorActor(id string) *models.ActorClaims {
	return &models.ActorClaims{ActorID: id, Role: models.RoleAdvisor}
}

func intPtr(v int) *int { return &v }

func TestSubmitWeeklyReport(t *testing.T) {
	f := newReportFixture()
	seedActiveTeam(f)

	report, err := f.svc.Submit(context.Background(), studentActor("student-1"), "team-1", dto.SubmitReportRequest{
		Type:  models.ReportTypeWeekly,
		Week:  intPtr(3),
		Title: "Week three activities",
		Attachments: []dto.AttachmentPayload{
			{StorageKey: "reports/w3.pdf", FileName: "w3.pdf"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusSubmitted, report.Status)
	require.Equal(t, models.ReportAuthorStudent, report.AuthorRole)
	require.NotNil(t, report.SubmittedAt)
	require.Len(t, f.reports.attachments[report.ID], 1)
	require.Len(t, f.reports.history[report.ID], 1)
	require.Equal(t, models.ReportStatusSubmitted, f.reports.history[report.ID][0].Status)
}

func TestSubmitWeeklyRequiresValidWeek(t *testing.T) {
	f := newReportFixture()
	seedActiveTeam(f)

	for _, week := range []*int{nil, intPtr(0), intPtr(-2), intPtr(60)} {
		_, err := f.svc.Submit(context.Background(), studentActor("student-1"), "team-1", dto.SubmitReportRequest{
			Type: models.ReportTypeWeekly, Week: week, Title: "t",
		})
		appErr := appErrors.FromError(err)
		require.Equal(t, appErrors.ErrInvalidWeek.Code, appErr.Code)
	}
}

func TestSubmitFinalRejectsWeekNumber(t *testing.T) {
	f := newReportFixture()
	seedActiveTeam(f)

	_, err := f.svc.Submit(context.Background(), studentActor("student-1"), "team-1", dto.SubmitReportRequest{
		Type: models.ReportTypeFinal, Week: intPtr(1), Title: "final",
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrInvalidWeek.Code, appErr.Code)
}

func TestSubmitByAdvisorTagsAuthorRole(t *testing.T) {
	f := newReportFixture()
	seedActiveTeam(f)

	report, err := f.svc.Submit(context.Background(), advisorActor("advisor-1"), "team-1", dto.SubmitReportRequest{
		Type: models.ReportTypeFinal, Title: "supervision summary",
	})
	require.NoError(t, err)
	require.Equal(t, models.ReportAuthorAdvisor, report.AuthorRole)
}

func TestSubmitRejectsNonMembers(t *testing.T) {
	f := newReportFixture()
	seedActiveTeam(f)

	_, err := f.svc.Submit(context.Background(), studentActor("student-99"), "team-1", dto.SubmitReportRequest{
		Type: models.ReportTypeWeekly, Week: intPtr(1), Title: "t",
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestSubmitRejectsInactiveTeam(t *testing.T) {
	f := newReportFixture()
	team := seedActiveTeam(f)
	team.Status = models.TeamStatusDraft

	_, err := f.svc.Submit(context.Background(), studentActor("student-1"), "team-1", dto.SubmitReportRequest{
		Type: models.ReportTypeWeekly, Week: intPtr(1), Title: "t",
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func seedSubmittedReport(f *reportFixture) *models.Report {
	report := &models.Report{
		ID:         "report-1",
		TeamID:     "team-1",
		AuthorID:   "student-1",
		AuthorRole: models.ReportAuthorStudent,
		Type:       models.ReportTypeWeekly,
		Week:       intPtr(1),
		Title:      "Week one",
		Status:     models.ReportStatusSubmitted,
	}
	f.reports.reports[report.ID] = report
	return report
}

func TestEvaluateApproval(t *testing.T) {
	f := newReportFixture()
	seedActiveTeam(f)
	seedSubmittedReport(f)

	report, err := f.svc.Evaluate(context.Background(), advisorActor("advisor-1"), "report-1", dto.EvaluateReportRequest{
		Decision: models.ReportStatusApproved,
	})
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusApproved, report.Status)
	require.Len(t, f.reports.history["report-1"], 1)
	require.Len(t, f.emitter.events, 1)
	require.Equal(t, models.EventReportEvaluated, f.emitter.events[0].Type)
}

func TestEvaluateRequiresNoteWhenNotApproved(t *testing.T) {
	f := newReportFixture()
	seedActiveTeam(f)
	seedSubmittedReport(f)

	_, err := f.svc.Evaluate(context.Background(), advisorActor("advisor-1"), "report-1", dto.EvaluateReportRequest{
		Decision: models.ReportStatusRevised,
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestEvaluateRevisionMirrorsNote(t *testing.T) {
	f := newReportFixture()
	seedActiveTeam(f)
	seedSubmittedReport(f)

	report, err := f.svc.Evaluate(context.Background(), advisorActor("advisor-1"), "report-1", dto.EvaluateReportRequest{
		Decision: models.ReportStatusRevised,
		Note:     "add the attendance sheet",
	})
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusRevised, report.Status)
	require.NotNil(t, report.Notes)
	require.Equal(t, "add the attendance sheet", *report.Notes)

	history := f.reports.history["report-1"]
	require.Len(t, history, 1)
	require.NotNil(t, history[0].Note)
	require.Equal(t, *report.Notes, *history[0].Note)
}

func TestEvaluateRejectsForeignAdvisor(t *testing.T) {
	f := newReportFixture()
	seedActiveTeam(f)
	seedSubmittedReport(f)

	_, err := f.svc.Evaluate(context.Background(), advisorActor("advisor-2"), "report-1", dto.EvaluateReportRequest{
		Decision: models.ReportStatusApproved,
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestEvaluateRejectsDoubleDecision(t *testing.T) {
	f := newReportFixture()
	seedActiveTeam(f)
	report := seedSubmittedReport(f)
	report.Status = models.ReportStatusApproved

	_, err := f.svc.Evaluate(context.Background(), advisorActor("advisor-1"), "report-1", dto.EvaluateReportRequest{
		Decision: models.ReportStatusRejected,
		Note:     "changed my mind",
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestResubmitRevisedReport(t *testing.T) {
	f := newReportFixture()
	seedActiveTeam(f)
	report := seedSubmittedReport(f)
	report.Status = models.ReportStatusRevised

	resubmitted, err := f.svc.Resubmit(context.Background(), studentActor("student-1"), "report-1")
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusSubmitted, resubmitted.Status)
	require.Nil(t, resubmitted.Notes)
	require.Len(t, f.reports.history["report-1"], 1)
}

func TestResubmitOnlyByAuthor(t *testing.T) {
	f := newReportFixture()
	seedActiveTeam(f)
	report := seedSubmittedReport(f)
	report.Status = models.ReportStatusRevised

	_, err := f.svc.Resubmit(context.Background(), studentActor("student-2"), "report-1")
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestReportReviewCycleEndToEnd(t *testing.T) {
	f := newReportFixture()
	seedActiveTeam(f)
	ctx := context.Background()

	report, err := f.svc.Submit(ctx, studentActor("student-1"), "team-1", dto.SubmitReportRequest{
		Type:  models.ReportTypeWeekly,
		Week:  intPtr(3),
		Title: "Week three activities",
	})
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusSubmitted, report.Status)

	revised, err := f.svc.Evaluate(ctx, advisorActor("advisor-1"), report.ID, dto.EvaluateReportRequest{
		Decision: models.ReportStatusRevised,
		Note:     "attendance sheet is missing",
	})
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusRevised, revised.Status)

	resubmitted, err := f.svc.Resubmit(ctx, studentActor("student-1"), report.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusSubmitted, resubmitted.Status)
	require.Nil(t, resubmitted.Notes)

	final, err := f.svc.Evaluate(ctx, advisorActor("advisor-1"), report.ID, dto.EvaluateReportRequest{
		Decision: models.ReportStatusApproved,
		Note:     "good work",
	})
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusApproved, final.Status)
	require.NotNil(t, final.Notes)
	require.Equal(t, "good work", *final.Notes)

	history, err := f.svc.History(ctx, report.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	require.Equal(t, models.ReportStatusSubmitted, history[0].Status)
	require.Equal(t, models.ReportStatusRevised, history[1].Status)
	require.Equal(t, models.ReportStatusSubmitted, history[2].Status)
	require.Equal(t, models.ReportStatusApproved, history[3].Status)
	require.NotNil(t, history[3].Note)
	require.Equal(t, *final.Notes, *history[3].Note)
}

func TestResubmitRejectedReportNotAllowed(t *testing.T) {
	f := newReportFixture()
	seedActiveTeam(f)
	report := seedSubmittedReport(f)
	report.Status = models.ReportStatusRejected

	_, err := f.svc.Resubmit(context.Background(), studentActor("student-1"), "report-1")
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}
