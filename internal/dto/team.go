package dto

import "github.com/noah-isme/kkn-placement-api/internal/models"

// CreateTeamRequest forms a new team for a location and period.
type CreateTeamRequest struct {
	Name       string `json:"name" validate:"required"`
	LocationID string `json:"location_id" validate:"required"`
	PeriodID   string `json:"period_id" validate:"required"`
	AdvisorID  string `json:"advisor_id"`
}

// AddMemberRequest adds a student to a team roster. SourceRegistrationID
// links the membership to the approved registration it originates from;
// administrative additions leave it empty.
type AddMemberRequest struct {
	StudentID            string                `json:"student_id" validate:"required"`
	Position             models.MemberPosition `json:"position" validate:"required,oneof=COORDINATOR SECRETARY TREASURER PUBLIC_RELATIONS PUBLICATION GENERAL_MEMBER"`
	SourceRegistrationID string                `json:"source_registration_id"`
	Notes                string                `json:"notes"`
}

// TeamQuery filters team listings.
type TeamQuery struct {
	PeriodID   string
	LocationID string
	Status     []models.TeamStatus
	AdvisorID  string
	Limit      int
	Offset     int
}
