package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/kkn-placement-api/internal/dto"
	"github.com/noah-isme/kkn-placement-api/internal/models"
	"github.com/noah-isme/kkn-placement-api/internal/service"
	appErrors "github.com/noah-isme/kkn-placement-api/pkg/errors"
	"github.com/noah-isme/kkn-placement-api/pkg/response"
)

type gradeService interface {
	Assign(ctx context.Context, actor *models.ActorClaims, registrationID string, req dto.AssignGradeRequest) (*models.Grade, error)
	Get(ctx context.Context, actor *models.ActorClaims, registrationID string) (*models.Grade, error)
	CertificateLink(ctx context.Context, actor *models.ActorClaims, registrationID string) (*service.CertificateLink, error)
}

// GradeHandler exposes REST endpoints for grading and certificates.
type GradeHandler struct {
	service gradeService
}

// NewGradeHandler constructs the handler.
func NewGradeHandler(service gradeService) *GradeHandler {
	return &GradeHandler{service: service}
}

// Assign godoc
// @Summary Assign the terminal grade
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body dto.AssignGradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Router /registrations/{id}/grade [put]
func (h *GradeHandler) Assign(c *gin.Context) {
	var req dto.AssignGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid grade payload"))
		return
	}
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	grade, err := h.service.Assign(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// Get godoc
// @Summary Get the grade for a registration
// @Tags Grades
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Router /registrations/{id}/grade [get]
func (h *GradeHandler) Get(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	grade, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// CertificateLink godoc
// @Summary Get a signed certificate download link
// @Tags Grades
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Router /registrations/{id}/grade/certificate [get]
func (h *GradeHandler) CertificateLink(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	link, err := h.service.CertificateLink(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}
