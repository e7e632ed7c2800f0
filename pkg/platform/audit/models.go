package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing downstream.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance:
	// a case changed owning office or family.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for debugging and operational
	// visibility, such as a transfer blocked by open actions.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// Subject is the case reference the event is about.
	Subject string
	Action  string
	Reason  string
	// Detail carries a short outcome summary ("2 dispatch failures").
	Detail    string
	RequestID string
	// ActorID is the credential holder that requested the operation.
	ActorID   string
	ClientIP  string
	UserAgent string
}

type AuditEvent string

const (
	EventTransferBlocked         AuditEvent = "case_transfer_blocked"
	EventTransferCompleted       AuditEvent = "case_transfer_completed"
	EventTransferPartiallyFailed AuditEvent = "case_transfer_partially_failed"
	EventLinkedCaseUpdated       AuditEvent = "linked_case_office_updated"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventTransferCompleted:       CategoryCompliance,
	EventTransferPartiallyFailed: CategoryCompliance,
	EventLinkedCaseUpdated:       CategoryCompliance,
	EventTransferBlocked:         CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
