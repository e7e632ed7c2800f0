// Package ports defines the interfaces the case transfer module consumes.
// Adapters in store and dispatch implement them; tests use the generated mocks.
package ports

import (
	"context"
	"log/slog"

	"casetransfer/internal/casetransfer/models"
	"casetransfer/pkg/attrs"
	"casetransfer/pkg/platform/audit"
	"casetransfer/pkg/platform/middleware/metadata"
	"casetransfer/pkg/requestcontext"
)

// SearchCriteria narrows a case search to one family.
type SearchCriteria struct {
	Family     models.Family
	References []string
}

// CaseRepository is read access to cases held in the external case store.
type CaseRepository interface {
	// Get returns the case with reference in family, or an error wrapping
	// sentinel.ErrNotFound. Transport failures wrap sentinel.ErrUnavailable.
	Get(ctx context.Context, cred models.Credential, family models.Family, reference string) (*models.Case, error)

	// Search returns every case matching criteria; no match is an empty slice.
	Search(ctx context.Context, cred models.Credential, criteria SearchCriteria) ([]*models.Case, error)
}

// EventDispatcher applies a named operation to a target case out of process.
type EventDispatcher interface {
	// Dispatch hands cmd to the remote side. A nil error means it was accepted;
	// delivery semantics belong to the dispatcher.
	Dispatch(ctx context.Context, cred models.Credential, cmd models.DispatchCommand) error
}

// AuditPublisher emits audit events for transfer outcomes.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LogAudit logs an audit event and emits it to the publisher if available.
// The "case_reference" attribute becomes the event subject; "actor" overrides
// the actor carried by ctx.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher AuditPublisher, event audit.AuditEvent, attributes ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}

	args := append(attributes, "event", string(event), "log_type", "audit")
	if logger != nil {
		logger.InfoContext(ctx, string(event), args...)
	}

	if publisher == nil {
		return
	}
	actor := attrs.ExtractString(attributes, "actor")
	if actor == "" {
		actor = requestcontext.Actor(ctx)
	}
	err := publisher.Emit(ctx, audit.Event{
		Category:  event.Category(),
		Subject:   attrs.ExtractString(attributes, "case_reference"),
		Action:    string(event),
		Reason:    attrs.ExtractString(attributes, "reason"),
		Detail:    attrs.ExtractString(attributes, "detail"),
		RequestID: requestID,
		ActorID:   actor,
		ClientIP:  metadata.GetClientIP(ctx),
		UserAgent: metadata.GetUserAgent(ctx),
	})
	if err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}
