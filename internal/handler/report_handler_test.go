package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/kkn-placement-api/internal/dto"
	"github.com/noah-isme/kkn-placement-api/internal/middleware"
	"github.com/noah-isme/kkn-placement-api/internal/models"
	appErrors "github.com/noah-isme/kkn-placement-api/pkg/errors"
)

type fakeReportSrv struct {
	report     *models.Report
	err        error
	lastSubmit dto.SubmitReportRequest
	lastTeamID string
}

func (f *fakeReportSrv) Submit(_ context.Context, _ *models.ActorClaims, teamID string, req dto.SubmitReportRequest) (*models.Report, error) {
	f.lastTeamID = teamID
	f.lastSubmit = req
	return f.report, f.err
}

func (f *fakeReportSrv) Get(context.Context, string) (*models.Report, error) {
	return f.report, f.err
}

func (f *fakeReportSrv) List(context.Context, string, dto.ReportQuery) ([]models.Report, error) {
	if f.report == nil {
		return nil, f.err
	}
	return []models.Report{*f.report}, f.err
}

func (f *fakeReportSrv) Evaluate(context.Context, *models.ActorClaims, string, dto.EvaluateReportRequest) (*models.Report, error) {
	return f.report, f.err
}

func (f *fakeReportSrv) Resubmit(context.Context, *models.ActorClaims, string) (*models.Report, error) {
	return f.report, f.err
}

func (f *fakeReportSrv) History(context.Context, string) ([]models.ReportHistory, error) {
	return nil, f.err
}

func (f *fakeReportSrv) Attachments(context.Context, string) ([]models.ReportAttachment, error) {
	return nil, f.err
}

func TestReportHandlerSubmit(t *testing.T) {
	srv := &fakeReportSrv{report: &models.Report{ID: "report-1", Status: models.ReportStatusSubmitted}}
	handler := NewReportHandler(srv)

	c, rec := newTestContext(t, http.MethodPost, "/teams/team-1/reports", `{"type":"WEEKLY","week":2,"title":"Week two"}`)
	c.Params = gin.Params{{Key: "id", Value: "team-1"}}
	c.Set(middleware.ContextUserKey, testActor())

	handler.Submit(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "team-1", srv.lastTeamID)
	assert.Equal(t, models.ReportTypeWeekly, srv.lastSubmit.Type)
	assert.NotNil(t, srv.lastSubmit.Week)
	assert.Equal(t, 2, *srv.lastSubmit.Week)
}

func TestReportHandlerSubmitRequiresActor(t *testing.T) {
	handler := NewReportHandler(&fakeReportSrv{})

	c, rec := newTestContext(t, http.MethodPost, "/teams/team-1/reports", `{"type":"WEEKLY","week":1,"title":"t"}`)
	c.Params = gin.Params{{Key: "id", Value: "team-1"}}

	handler.Submit(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReportHandlerEvaluatePropagatesConflict(t *testing.T) {
	srv := &fakeReportSrv{err: appErrors.ErrConflictingUpdate}
	handler := NewReportHandler(srv)

	c, rec := newTestContext(t, http.MethodPost, "/reports/report-1/evaluate", `{"decision":"APPROVED"}`)
	c.Params = gin.Params{{Key: "id", Value: "report-1"}}
	c.Set(middleware.ContextUserKey, &models.ActorClaims{ActorID: "advisor-1", Role: models.RoleAdvisor})

	handler.Evaluate(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var envelope testEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, appErrors.ErrConflictingUpdate.Code, envelope.Error.Code)
}

func TestReportHandlerListParsesFilters(t *testing.T) {
	srv := &fakeReportSrv{report: &models.Report{ID: "report-1"}}
	handler := NewReportHandler(srv)

	c, rec := newTestContext(t, http.MethodGet, "/teams/team-1/reports?type=weekly&status=submitted,revised", "")
	c.Params = gin.Params{{Key: "id", Value: "team-1"}}

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
}
