package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/kkn-placement-api/internal/dto"
	"github.com/noah-isme/kkn-placement-api/internal/middleware"
	"github.com/noah-isme/kkn-placement-api/internal/models"
	appErrors "github.com/noah-isme/kkn-placement-api/pkg/errors"
	"github.com/noah-isme/kkn-placement-api/pkg/response"
)

type registrationService interface {
	Submit(ctx context.Context, actor *models.ActorClaims, req dto.CreateRegistrationRequest) (*models.Registration, error)
	Get(ctx context.Context, actor *models.ActorClaims, id string) (*models.Registration, error)
	List(ctx context.Context, actor *models.ActorClaims, query dto.RegistrationQuery) ([]models.Registration, error)
	Review(ctx context.Context, actor *models.ActorClaims, id string, req dto.ReviewRegistrationRequest) (*models.Registration, error)
	Resubmit(ctx context.Context, actor *models.ActorClaims, id string) (*models.Registration, error)
	Comment(ctx context.Context, actor *models.ActorClaims, id string, req dto.CommentRequest) (*models.AuditEntry, error)
	UploadDocument(ctx context.Context, actor *models.ActorClaims, id string, req dto.UploadDocumentRequest) (*models.RegistrationDocument, error)
	Documents(ctx context.Context, actor *models.ActorClaims, id string) ([]models.RegistrationDocument, *models.CompletionResult, error)
	AuditTrail(ctx context.Context, actor *models.ActorClaims, id string) ([]models.AuditEntry, error)
	ExportAuditTrail(ctx context.Context, actor *models.ActorClaims, id, format string) ([]byte, error)
}

// RegistrationHandler exposes REST endpoints for the registration lifecycle.
type RegistrationHandler struct {
	service registrationService
}

// NewRegistrationHandler constructs the handler.
func NewRegistrationHandler(service registrationService) *RegistrationHandler {
	return &RegistrationHandler{service: service}
}

// Create godoc
// @Summary Submit a placement registration
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body dto.CreateRegistrationRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Router /registrations [post]
func (h *RegistrationHandler) Create(c *gin.Context) {
	var req dto.CreateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid registration payload"))
		return
	}
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	registration, err := h.service.Submit(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, registration, nil)
}

// List godoc
// @Summary List registrations
// @Tags Registrations
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param period_id query string false "Period ID"
// @Param student_id query string false "Student ID"
// @Success 200 {object} response.Envelope
// @Router /registrations [get]
func (h *RegistrationHandler) List(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit, offset := parsePagination(c)
	query := dto.RegistrationQuery{
		PeriodID:  strings.TrimSpace(c.Query("period_id")),
		StudentID: strings.TrimSpace(c.Query("student_id")),
		Limit:     limit,
		Offset:    offset,
	}
	for _, status := range splitStatuses(c.Query("status")) {
		query.Status = append(query.Status, models.RegistrationStatus(status))
	}
	registrations, err := h.service.List(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registrations, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get registration detail
// @Tags Registrations
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Router /registrations/{id} [get]
func (h *RegistrationHandler) Get(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	registration, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registration, nil)
}

// Review godoc
// @Summary Review a registration
// @Tags Registrations
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body dto.ReviewRegistrationRequest true "Review decision"
// @Success 200 {object} response.Envelope
// @Router /registrations/{id}/review [post]
func (h *RegistrationHandler) Review(c *gin.Context) {
	var req dto.ReviewRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid review payload"))
		return
	}
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	registration, err := h.service.Review(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registration, nil)
}

// Resubmit godoc
// @Summary Resubmit a registration after revision
// @Tags Registrations
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Router /registrations/{id}/resubmit [post]
func (h *RegistrationHandler) Resubmit(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	registration, err := h.service.Resubmit(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registration, nil)
}

// Comment godoc
// @Summary Post a guidance comment
// @Tags Registrations
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body dto.CommentRequest true "Comment payload"
// @Success 201 {object} response.Envelope
// @Router /registrations/{id}/comments [post]
func (h *RegistrationHandler) Comment(c *gin.Context) {
	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid comment payload"))
		return
	}
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	entry, err := h.service.Comment(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, entry, nil)
}

// UploadDocument godoc
// @Summary Record an uploaded registration document
// @Tags Registrations
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body dto.UploadDocumentRequest true "Document reference"
// @Success 201 {object} response.Envelope
// @Router /registrations/{id}/documents [post]
func (h *RegistrationHandler) UploadDocument(c *gin.Context) {
	var req dto.UploadDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid document payload"))
		return
	}
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	doc, err := h.service.UploadDocument(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, doc, nil)
}

// Documents godoc
// @Summary List documents with completeness verdict
// @Tags Registrations
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Router /registrations/{id}/documents [get]
func (h *RegistrationHandler) Documents(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	docs, completion, err := h.service.Documents(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"documents": docs, "completion": completion}, nil)
}

// Completeness godoc
// @Summary Check document completeness for a registration
// @Tags Registrations
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Router /registrations/{id}/completeness [get]
func (h *RegistrationHandler) Completeness(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	_, completion, err := h.service.Documents(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, completion, nil)
}

// AuditTrail godoc
// @Summary Get the registration audit trail
// @Tags Registrations
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Router /registrations/{id}/audit [get]
func (h *RegistrationHandler) AuditTrail(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	entries, err := h.service.AuditTrail(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// ExportAudit godoc
// @Summary Export the audit trail as CSV
// @Tags Registrations
// @Produce text/csv
// @Param id path string true "Registration ID"
// @Success 200 {string} string "CSV content"
// @Router /registrations/{id}/audit/export [get]
func (h *RegistrationHandler) ExportAudit(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id := c.Param("id")
	format := c.DefaultQuery("format", "csv")
	data, err := h.service.ExportAuditTrail(c.Request.Context(), actor, id, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	contentType := "text/csv"
	if format == "pdf" {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="audit-%s.%s"`, id, format))
	c.Data(http.StatusOK, contentType, data)
}
