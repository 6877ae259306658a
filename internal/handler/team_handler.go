package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/kkn-placement-api/internal/dto"
	"github.com/noah-isme/kkn-placement-api/internal/middleware"
	"github.com/noah-isme/kkn-placement-api/internal/models"
	appErrors "github.com/noah-isme/kkn-placement-api/pkg/errors"
	"github.com/noah-isme/kkn-placement-api/pkg/response"
)

type teamService interface {
	FormTeam(ctx context.Context, actor *models.ActorClaims, req dto.CreateTeamRequest) (*models.Team, error)
	Get(ctx context.Context, id string) (*models.Team, error)
	List(ctx context.Context, query dto.TeamQuery) ([]models.Team, error)
	Roster(ctx context.Context, teamID string) ([]models.TeamMember, bool, error)
	AddMember(ctx context.Context, actor *models.ActorClaims, teamID string, req dto.AddMemberRequest) (*models.TeamMember, error)
	RemoveMember(ctx context.Context, actor *models.ActorClaims, teamID, memberID string) error
	MissingOfficers(ctx context.Context, teamID string) ([]models.MemberPosition, error)
	Activate(ctx context.Context, actor *models.ActorClaims, teamID string, startDate *time.Time) (*models.Team, error)
	Complete(ctx context.Context, actor *models.ActorClaims, teamID string, endDate *time.Time) (*models.Team, error)
}

type teamLifecycleRequest struct {
	Date *time.Time `json:"date"`
}

// TeamHandler exposes REST endpoints for teams and rosters.
type TeamHandler struct {
	service teamService
}

// NewTeamHandler constructs the handler.
func NewTeamHandler(service teamService) *TeamHandler {
	return &TeamHandler{service: service}
}

// Create godoc
// @Summary Form a new team
// @Tags Teams
// @Accept json
// @Produce json
// @Param payload body dto.CreateTeamRequest true "Team payload"
// @Success 201 {object} response.Envelope
// @Router /teams [post]
func (h *TeamHandler) Create(c *gin.Context) {
	var req dto.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid team payload"))
		return
	}
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	team, err := h.service.FormTeam(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, team, nil)
}

// List godoc
// @Summary List teams
// @Tags Teams
// @Produce json
// @Param period_id query string false "Period ID"
// @Param location_id query string false "Location ID"
// @Param status query string false "Comma separated statuses"
// @Success 200 {object} response.Envelope
// @Router /teams [get]
func (h *TeamHandler) List(c *gin.Context) {
	limit, offset := parsePagination(c)
	query := dto.TeamQuery{
		PeriodID:   strings.TrimSpace(c.Query("period_id")),
		LocationID: strings.TrimSpace(c.Query("location_id")),
		AdvisorID:  strings.TrimSpace(c.Query("advisor_id")),
		Limit:      limit,
		Offset:     offset,
	}
	for _, status := range splitStatuses(c.Query("status")) {
		query.Status = append(query.Status, models.TeamStatus(status))
	}
	teams, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teams, nil)
}

// Get godoc
// @Summary Get team detail with roster
// @Tags Teams
// @Produce json
// @Param id path string true "Team ID"
// @Success 200 {object} response.Envelope
// @Router /teams/{id} [get]
func (h *TeamHandler) Get(c *gin.Context) {
	id := c.Param("id")
	team, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	roster, fromCache, err := h.service.Roster(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, fromCache)
	missing, err := h.service.MissingOfficers(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"team":              team,
		"roster":            roster,
		"missing_positions": missing,
	}, nil, middleware.ExtractMeta(c))
}

// OfficerStatus godoc
// @Summary Check officer completeness for a team
// @Tags Teams
// @Produce json
// @Param id path string true "Team ID"
// @Success 200 {object} response.Envelope
// @Router /teams/{id}/officer-status [get]
func (h *TeamHandler) OfficerStatus(c *gin.Context) {
	missing, err := h.service.MissingOfficers(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"complete":          len(missing) == 0,
		"missing_positions": missing,
	}, nil)
}

// AddMember godoc
// @Summary Add a student to the roster
// @Tags Teams
// @Accept json
// @Produce json
// @Param id path string true "Team ID"
// @Param payload body dto.AddMemberRequest true "Member payload"
// @Success 201 {object} response.Envelope
// @Router /teams/{id}/members [post]
func (h *TeamHandler) AddMember(c *gin.Context) {
	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid member payload"))
		return
	}
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	member, err := h.service.AddMember(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, member, nil)
}

// RemoveMember godoc
// @Summary Withdraw a member from the roster
// @Tags Teams
// @Produce json
// @Param id path string true "Team ID"
// @Param memberId path string true "Member ID"
// @Success 204 {object} nil
// @Router /teams/{id}/members/{memberId} [delete]
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.RemoveMember(c.Request.Context(), actor, c.Param("id"), c.Param("memberId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Activate godoc
// @Summary Activate a draft team
// @Tags Teams
// @Accept json
// @Produce json
// @Param id path string true "Team ID"
// @Success 200 {object} response.Envelope
// @Router /teams/{id}/activate [post]
func (h *TeamHandler) Activate(c *gin.Context) {
	var req teamLifecycleRequest
	_ = c.ShouldBindJSON(&req)
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	team, err := h.service.Activate(c.Request.Context(), actor, c.Param("id"), req.Date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, team, nil)
}

// Complete godoc
// @Summary Complete an active team
// @Tags Teams
// @Accept json
// @Produce json
// @Param id path string true "Team ID"
// @Success 200 {object} response.Envelope
// @Router /teams/{id}/complete [post]
func (h *TeamHandler) Complete(c *gin.Context) {
	var req teamLifecycleRequest
	_ = c.ShouldBindJSON(&req)
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	team, err := h.service.Complete(c.Request.Context(), actor, c.Param("id"), req.Date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, team, nil)
}
