package models

import "github.com/golang-jwt/jwt/v5"

// ActorRole represents the resolved role of an authenticated actor.
type ActorRole string

const (
	RoleStudent ActorRole = "STUDENT"
	RoleAdvisor ActorRole = "ADVISOR"
	RoleStaff   ActorRole = "STAFF"
	RoleAdmin   ActorRole = "ADMIN"
)

// Capability names a single permission granted to an actor. Capabilities are
// resolved upstream and arrive embedded in the actor token; this service only
// checks them.
type Capability string

const (
	CapabilityReviewRegistration    Capability = "review_registration"
	CapabilityOverrideDocumentCheck Capability = "override_document_check"
	CapabilityManageTeams           Capability = "manage_teams"
	CapabilityManageTemplates       Capability = "manage_templates"
	CapabilityAssignGrades          Capability = "assign_grades"
)

// ActorClaims is the JWT payload describing the acting user.
type ActorClaims struct {
	ActorID      string       `json:"actor_id"`
	Role         ActorRole    `json:"role"`
	FullName     string       `json:"full_name"`
	Capabilities []Capability `json:"capabilities"`
	jwt.RegisteredClaims
}

// Has reports whether the actor carries the given capability. Admins
// implicitly hold every capability.
func (c *ActorClaims) Has(capability Capability) bool {
	if c == nil {
		return false
	}
	if c.Role == RoleAdmin {
		return true
	}
	for _, granted := range c.Capabilities {
		if granted == capability {
			return true
		}
	}
	return false
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
