package models

import "time"

// RegistrationStatus captures the lifecycle states of a placement registration.
type RegistrationStatus string

const (
	RegistrationStatusPending       RegistrationStatus = "PENDING"
	RegistrationStatusApproved      RegistrationStatus = "APPROVED"
	RegistrationStatusRejected      RegistrationStatus = "REJECTED"
	RegistrationStatusNeedsRevision RegistrationStatus = "NEEDS_REVISION"
)

// ReviewableStatuses lists the states a reviewer may act on.
var ReviewableStatuses = []RegistrationStatus{
	RegistrationStatusPending,
	RegistrationStatusNeedsRevision,
}

// RegistrationCategory classifies how the student entered the program.
type RegistrationCategory string

const (
	CategoryRegular        RegistrationCategory = "REGULAR"
	CategorySpecialProgram RegistrationCategory = "SPECIAL_PROGRAM"
	CategoryOther          RegistrationCategory = "OTHER"
)

// Registration is a student's application to join a placement period at a
// chosen location. One non-rejected registration per student and period.
// TeamID may only be set while the registration is approved.
type Registration struct {
	ID         string               `db:"id" json:"id"`
	StudentID  string               `db:"student_id" json:"student_id"`
	LocationID string               `db:"location_id" json:"location_id"`
	PeriodID   string               `db:"period_id" json:"period_id"`
	Category   RegistrationCategory `db:"category" json:"category"`
	Status     RegistrationStatus   `db:"status" json:"status"`
	Notes      *string              `db:"notes" json:"notes,omitempty"`
	ReviewerID *string              `db:"reviewer_id" json:"reviewer_id,omitempty"`
	ReviewedAt *time.Time           `db:"reviewed_at" json:"reviewed_at,omitempty"`
	AdvisorID  *string              `db:"advisor_id" json:"advisor_id,omitempty"`
	TeamID     *string              `db:"team_id" json:"team_id,omitempty"`
	CreatedAt  time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time            `db:"updated_at" json:"updated_at"`
}

// RegistrationFilter constrains listing queries.
type RegistrationFilter struct {
	StudentID string
	PeriodID  string
	Status    []RegistrationStatus
	Limit     int
	Offset    int
}
