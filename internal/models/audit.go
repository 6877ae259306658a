package models

import "time"

// AuditAction constants represent the registration actions that are logged.
const (
	AuditActionCreated          = "CREATED"
	AuditActionApproved         = "APPROVED"
	AuditActionRejected         = "REJECTED"
	AuditActionNeedsRevision    = "NEEDS_REVISION"
	AuditActionResubmitted      = "RESUBMITTED"
	AuditActionComment          = "COMMENT"
	AuditActionDocumentUploaded = "DOCUMENT_UPLOADED"
)

// AuditEntry is an append-only record of a registration transition or
// side-effecting action. Entries are never edited once written.
type AuditEntry struct {
	ID             string              `db:"id" json:"id"`
	RegistrationID string              `db:"registration_id" json:"registration_id"`
	ActorID        string              `db:"actor_id" json:"actor_id"`
	Action         string              `db:"action" json:"action"`
	OldStatus      *RegistrationStatus `db:"old_status" json:"old_status,omitempty"`
	NewStatus      *RegistrationStatus `db:"new_status" json:"new_status,omitempty"`
	Note           *string             `db:"note" json:"note,omitempty"`
	Metadata       []byte              `db:"metadata" json:"metadata,omitempty"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
}
