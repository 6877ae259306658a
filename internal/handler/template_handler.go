package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/kkn-placement-api/internal/dto"
	"github.com/noah-isme/kkn-placement-api/internal/models"
	appErrors "github.com/noah-isme/kkn-placement-api/pkg/errors"
	"github.com/noah-isme/kkn-placement-api/pkg/response"
)

type templateService interface {
	Templates(ctx context.Context, periodID string) ([]models.DocumentTemplate, error)
	UpsertTemplate(ctx context.Context, actor *models.ActorClaims, req dto.UpsertTemplateRequest) (*models.DocumentTemplate, error)
	Period(ctx context.Context, id string) (*models.Period, error)
}

// TemplateHandler exposes REST endpoints for document templates.
type TemplateHandler struct {
	service templateService
}

// NewTemplateHandler constructs the handler.
func NewTemplateHandler(service templateService) *TemplateHandler {
	return &TemplateHandler{service: service}
}

// ListForPeriod godoc
// @Summary List document templates for a period
// @Tags Templates
// @Produce json
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /periods/{id}/templates [get]
func (h *TemplateHandler) ListForPeriod(c *gin.Context) {
	templates, err := h.service.Templates(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, templates, nil)
}

// GetPeriod godoc
// @Summary Get placement period reference data
// @Tags Templates
// @Produce json
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /periods/{id} [get]
func (h *TemplateHandler) GetPeriod(c *gin.Context) {
	period, err := h.service.Period(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// Upsert godoc
// @Summary Create or update a template slot
// @Tags Templates
// @Accept json
// @Produce json
// @Param payload body dto.UpsertTemplateRequest true "Template payload"
// @Success 200 {object} response.Envelope
// @Router /templates [put]
func (h *TemplateHandler) Upsert(c *gin.Context) {
	var req dto.UpsertTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid template payload"))
		return
	}
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	template, err := h.service.UpsertTemplate(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, template, nil)
}
