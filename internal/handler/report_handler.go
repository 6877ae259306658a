package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/kkn-placement-api/internal/dto"
	"github.com/noah-isme/kkn-placement-api/internal/models"
	appErrors "github.com/noah-isme/kkn-placement-api/pkg/errors"
	"github.com/noah-isme/kkn-placement-api/pkg/response"
)

type reportService interface {
	Submit(ctx context.Context, actor *models.ActorClaims, teamID string, req dto.SubmitReportRequest) (*models.Report, error)
	Get(ctx context.Context, id string) (*models.Report, error)
	List(ctx context.Context, teamID string, query dto.ReportQuery) ([]models.Report, error)
	Evaluate(ctx context.Context, actor *models.ActorClaims, reportID string, req dto.EvaluateReportRequest) (*models.Report, error)
	Resubmit(ctx context.Context, actor *models.ActorClaims, reportID string) (*models.Report, error)
	History(ctx context.Context, reportID string) ([]models.ReportHistory, error)
	Attachments(ctx context.Context, reportID string) ([]models.ReportAttachment, error)
}

// ReportHandler exposes REST endpoints for the report review cycle.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(service reportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Submit godoc
// @Summary Submit a team report
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Team ID"
// @Param payload body dto.SubmitReportRequest true "Report payload"
// @Success 201 {object} response.Envelope
// @Router /teams/{id}/reports [post]
func (h *ReportHandler) Submit(c *gin.Context) {
	var req dto.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid report payload"))
		return
	}
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, err := h.service.Submit(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, report, nil)
}

// List godoc
// @Summary List a team's reports
// @Tags Reports
// @Produce json
// @Param id path string true "Team ID"
// @Param type query string false "Report type"
// @Param status query string false "Comma separated statuses"
// @Success 200 {object} response.Envelope
// @Router /teams/{id}/reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	limit, offset := parsePagination(c)
	query := dto.ReportQuery{Limit: limit, Offset: offset}
	if rawType := c.Query("type"); rawType != "" {
		query.Type = models.ReportType(strings.ToUpper(rawType))
	}
	for _, status := range splitStatuses(c.Query("status")) {
		query.Status = append(query.Status, models.ReportStatus(status))
	}
	reports, err := h.service.List(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// Get godoc
// @Summary Get report detail with attachments
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	id := c.Param("id")
	report, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	attachments, err := h.service.Attachments(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"report": report, "attachments": attachments}, nil)
}

// Evaluate godoc
// @Summary Evaluate a submitted report
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.EvaluateReportRequest true "Evaluation decision"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/evaluate [post]
func (h *ReportHandler) Evaluate(c *gin.Context) {
	var req dto.EvaluateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid evaluation payload"))
		return
	}
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, err := h.service.Evaluate(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Resubmit godoc
// @Summary Resubmit a revised report
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/resubmit [post]
func (h *ReportHandler) Resubmit(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, err := h.service.Resubmit(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// History godoc
// @Summary Get the report review history
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/history [get]
func (h *ReportHandler) History(c *gin.Context) {
	entries, err := h.service.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
