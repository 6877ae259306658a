package models

import "time"

// EventType names a structured domain event emitted by the workflows.
// Delivery is an external concern; failure to deliver never rolls back the
// originating transaction.
type EventType string

const (
	EventRegistrationReviewed  EventType = "registration.reviewed"
	EventReportEvaluated       EventType = "report.evaluated"
	EventGuidanceMessagePosted EventType = "guidance.message_posted"
)

// Event is the payload handed to the dispatcher.
type Event struct {
	Type       EventType              `json:"type"`
	EntityID   string                 `json:"entity_id"`
	ActorID    string                 `json:"actor_id"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}
