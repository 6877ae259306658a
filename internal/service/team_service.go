package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/kkn-placement-api/internal/dto"
	"github.com/noah-isme/kkn-placement-api/internal/models"
	appErrors "github.com/noah-isme/kkn-placement-api/pkg/errors"
)

type teamStore interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id string) (*models.Team, error)
	ExistsForLocationPeriod(ctx context.Context, locationID, periodID string) (bool, error)
	List(ctx context.Context, filter models.TeamFilter) ([]models.Team, error)
	UpdateStatus(ctx context.Context, id string, expected, next models.TeamStatus, startDate, endDate *time.Time) error
	AddMember(ctx context.Context, member *models.TeamMember) error
	FindMembership(ctx context.Context, teamID, studentID string) (*models.TeamMember, error)
	ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error)
	WithdrawMember(ctx context.Context, teamID, memberID string) error
	CountActiveMembers(ctx context.Context, teamID string) (int, error)
	ActivePositions(ctx context.Context, teamID string) ([]models.MemberPosition, error)
}

type teamRegistrationStore interface {
	GetByID(ctx context.Context, id string) (*models.Registration, error)
}

type reportCounter interface {
	CountUnfinished(ctx context.Context, teamID string) (int, error)
}

// TeamService manages team formation, rosters, and team lifecycle.
type TeamService struct {
	teams         teamStore
	registrations teamRegistrationStore
	reports       reportCounter
	cache         *CacheService
	rosterTTL     time.Duration
	logger        *zap.Logger
}

// NewTeamService constructs the service.
func NewTeamService(teams teamStore, registrations teamRegistrationStore, reports reportCounter, cache *CacheService, rosterTTL time.Duration, logger *zap.Logger) *TeamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeamService{
		teams:         teams,
		registrations: registrations,
		reports:       reports,
		cache:         cache,
		rosterTTL:     rosterTTL,
		logger:        logger,
	}
}

func rosterCacheKey(teamID string) string {
	return fmt.Sprintf("roster:team:%s", teamID)
}

// FormTeam creates a draft team for a location and period. One team per
// (location, period) pair.
func (s *TeamService) FormTeam(ctx context.Context, actor *models.ActorClaims, req dto.CreateTeamRequest) (*models.Team, error) {
	if !actor.Has(models.CapabilityManageTeams) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "forming teams requires the manage_teams capability")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	exists, err := s.teams.ExistsForLocationPeriod(ctx, req.LocationID, req.PeriodID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, appErrors.ErrDuplicateTeam
	}

	team := &models.Team{
		Name:       strings.TrimSpace(req.Name),
		LocationID: req.LocationID,
		PeriodID:   req.PeriodID,
		Status:     models.TeamStatusDraft,
	}
	if req.AdvisorID != "" {
		advisorID := req.AdvisorID
		team.AdvisorID = &advisorID
	}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, err
	}

	s.logger.Info("team formed",
		zap.String("team_id", team.ID),
		zap.String("location_id", req.LocationID),
		zap.String("period_id", req.PeriodID))
	return team, nil
}

// Get fetches a team by identifier.
func (s *TeamService) Get(ctx context.Context, id string) (*models.Team, error) {
	team, err := s.teams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "team not found")
		}
		return nil, err
	}
	return team, nil
}

// List returns teams matching the query.
func (s *TeamService) List(ctx context.Context, query dto.TeamQuery) ([]models.Team, error) {
	return s.teams.List(ctx, models.TeamFilter{
		PeriodID:   query.PeriodID,
		LocationID: query.LocationID,
		Status:     query.Status,
		AdvisorID:  query.AdvisorID,
		Limit:      query.Limit,
		Offset:     query.Offset,
	})
}

// Roster returns the full roster including departed members, consulting the
// cache first. The second return reports whether the cache served the call.
func (s *TeamService) Roster(ctx context.Context, teamID string) ([]models.TeamMember, bool, error) {
	var cached []models.TeamMember
	if hit, err := s.cache.Get(ctx, rosterCacheKey(teamID), &cached); err == nil && hit {
		return cached, true, nil
	}

	members, err := s.teams.ListMembers(ctx, teamID)
	if err != nil {
		return nil, false, err
	}
	if err := s.cache.Set(ctx, rosterCacheKey(teamID), members, s.rosterTTL); err != nil {
		s.logger.Warn("roster cache population failed", zap.String("team_id", teamID), zap.Error(err))
	}
	return members, false, nil
}

// AddMember adds a student to the roster. When a source registration is
// given it must be an approved registration of the same student for the
// team's location and period; the registration is then linked to the team.
func (s *TeamService) AddMember(ctx context.Context, actor *models.ActorClaims, teamID string, req dto.AddMemberRequest) (*models.TeamMember, error) {
	if !actor.Has(models.CapabilityManageTeams) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "roster changes require the manage_teams capability")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	team, err := s.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.Status == models.TeamStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "completed teams do not accept roster changes")
	}

	existing, err := s.teams.FindMembership(ctx, teamID, req.StudentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, appErrors.ErrDuplicateMembership
	}

	member := &models.TeamMember{
		TeamID:    teamID,
		StudentID: req.StudentID,
		Position:  req.Position,
		Status:    models.MemberStatusActive,
	}
	if note := strings.TrimSpace(req.Notes); note != "" {
		member.Notes = &note
	}

	if req.SourceRegistrationID != "" {
		registration, err := s.registrations.GetByID(ctx, req.SourceRegistrationID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "source registration not found")
			}
			return nil, err
		}
		if registration.Status != models.RegistrationStatusApproved {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "source registration is not approved")
		}
		if registration.StudentID != req.StudentID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "source registration belongs to a different student")
		}
		if registration.PeriodID != team.PeriodID || registration.LocationID != team.LocationID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "source registration targets a different location or period")
		}
		if registration.TeamID != nil && *registration.TeamID != teamID {
			return nil, appErrors.Clone(appErrors.ErrConflict, "source registration is already linked to another team")
		}
		sourceID := req.SourceRegistrationID
		member.SourceRegistrationID = &sourceID
	}

	// The roster insert and the registration link commit in one transaction;
	// a guard failure means the registration changed underneath us.
	if err := s.teams.AddMember(ctx, member); err != nil {
		if member.SourceRegistrationID != nil && errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WithDetails(appErrors.ErrConflictingUpdate, map[string]interface{}{
				"source_registration_id": *member.SourceRegistrationID,
			})
		}
		return nil, err
	}

	s.invalidateRoster(ctx, teamID)
	return member, nil
}

// RemoveMember withdraws a member from the roster. Rows are never deleted so
// historical rosters remain reconstructable.
func (s *TeamService) RemoveMember(ctx context.Context, actor *models.ActorClaims, teamID, memberID string) error {
	if !actor.Has(models.CapabilityManageTeams) {
		return appErrors.Clone(appErrors.ErrForbidden, "roster changes require the manage_teams capability")
	}

	team, err := s.Get(ctx, teamID)
	if err != nil {
		return err
	}
	if team.Status == models.TeamStatusCompleted {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "completed teams do not accept roster changes")
	}

	if err := s.teams.WithdrawMember(ctx, teamID, memberID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "active membership not found")
		}
		return err
	}
	s.invalidateRoster(ctx, teamID)
	return nil
}

// MissingOfficers returns the officer positions not yet held by an active
// member.
func (s *TeamService) MissingOfficers(ctx context.Context, teamID string) ([]models.MemberPosition, error) {
	held, err := s.teams.ActivePositions(ctx, teamID)
	if err != nil {
		return nil, err
	}
	heldSet := make(map[models.MemberPosition]bool, len(held))
	for _, position := range held {
		heldSet[position] = true
	}
	missing := make([]models.MemberPosition, 0, len(models.OfficerPositions))
	for _, position := range models.OfficerPositions {
		if !heldSet[position] {
			missing = append(missing, position)
		}
	}
	return missing, nil
}

// Activate moves a draft team into the active state. Every officer position
// must be held by an active member first.
func (s *TeamService) Activate(ctx context.Context, actor *models.ActorClaims, teamID string, startDate *time.Time) (*models.Team, error) {
	if !actor.Has(models.CapabilityManageTeams) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "activating teams requires the manage_teams capability")
	}

	team, err := s.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.Status != models.TeamStatusDraft {
		return nil, appErrors.WithDetails(appErrors.ErrInvalidTransition, map[string]interface{}{
			"current_status": team.Status,
		})
	}

	missing, err := s.MissingOfficers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrPreconditionFailed, map[string]interface{}{
			"missing_positions": missing,
		})
	}

	if err := s.teams.UpdateStatus(ctx, teamID, models.TeamStatusDraft, models.TeamStatusActive, startDate, nil); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrConflictingUpdate
		}
		return nil, err
	}
	team.Status = models.TeamStatusActive
	if startDate != nil {
		team.StartDate = startDate
	}
	return team, nil
}

// Complete closes out an active team. Every report that entered the review
// cycle must be approved first.
func (s *TeamService) Complete(ctx context.Context, actor *models.ActorClaims, teamID string, endDate *time.Time) (*models.Team, error) {
	if !actor.Has(models.CapabilityManageTeams) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "completing teams requires the manage_teams capability")
	}

	team, err := s.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.Status != models.TeamStatusActive {
		return nil, appErrors.WithDetails(appErrors.ErrInvalidTransition, map[string]interface{}{
			"current_status": team.Status,
		})
	}

	unfinished, err := s.reports.CountUnfinished(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if unfinished > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrPreconditionFailed, map[string]interface{}{
			"unfinished_reports": unfinished,
		})
	}

	if err := s.teams.UpdateStatus(ctx, teamID, models.TeamStatusActive, models.TeamStatusCompleted, nil, endDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrConflictingUpdate
		}
		return nil, err
	}
	team.Status = models.TeamStatusCompleted
	if endDate != nil {
		team.EndDate = endDate
	}
	return team, nil
}

func (s *TeamService) invalidateRoster(ctx context.Context, teamID string) {
	if err := s.cache.Invalidate(ctx, rosterCacheKey(teamID)); err != nil {
		s.logger.Warn("roster cache invalidation failed", zap.String("team_id", teamID), zap.Error(err))
	}
}
