package models

import "time"

// TeamStatus captures the lifecycle of a field team (posko).
type TeamStatus string

const (
	TeamStatusDraft     TeamStatus = "DRAFT"
	TeamStatusActive    TeamStatus = "ACTIVE"
	TeamStatusCompleted TeamStatus = "COMPLETED"
)

// MemberPosition is the role a student holds within a team.
type MemberPosition string

const (
	PositionCoordinator     MemberPosition = "COORDINATOR"
	PositionSecretary       MemberPosition = "SECRETARY"
	PositionTreasurer       MemberPosition = "TREASURER"
	PositionPublicRelations MemberPosition = "PUBLIC_RELATIONS"
	PositionPublication     MemberPosition = "PUBLICATION"
	PositionGeneralMember   MemberPosition = "GENERAL_MEMBER"
)

// OfficerPositions are the roles a team must fill before activation.
var OfficerPositions = []MemberPosition{
	PositionCoordinator,
	PositionSecretary,
	PositionTreasurer,
}

// MemberStatus captures membership state. Members are withdrawn, never
// deleted, so historical rosters stay intact.
type MemberStatus string

const (
	MemberStatusActive    MemberStatus = "ACTIVE"
	MemberStatusInactive  MemberStatus = "INACTIVE"
	MemberStatusWithdrawn MemberStatus = "WITHDRAWN"
)

// Team is the field group formed from approved registrations at one location
// for one period. One team per (location, period) pair.
type Team struct {
	ID         string     `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	LocationID string     `db:"location_id" json:"location_id"`
	PeriodID   string     `db:"period_id" json:"period_id"`
	AdvisorID  *string    `db:"advisor_id" json:"advisor_id,omitempty"`
	Status     TeamStatus `db:"status" json:"status"`
	StartDate  *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate    *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// TeamMember links a student to a team. SourceRegistrationID is nil for
// administratively added members.
type TeamMember struct {
	ID                   string         `db:"id" json:"id"`
	TeamID               string         `db:"team_id" json:"team_id"`
	StudentID            string         `db:"student_id" json:"student_id"`
	SourceRegistrationID *string        `db:"source_registration_id" json:"source_registration_id,omitempty"`
	Position             MemberPosition `db:"position" json:"position"`
	Status               MemberStatus   `db:"status" json:"status"`
	JoinedAt             time.Time      `db:"joined_at" json:"joined_at"`
	Notes                *string        `db:"notes" json:"notes,omitempty"`
}

// TeamFilter constrains team listing queries.
type TeamFilter struct {
	PeriodID   string
	LocationID string
	Status     []TeamStatus
	AdvisorID  string
	Limit      int
	Offset     int
}
