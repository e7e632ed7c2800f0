package models

import (
	"time"

	"github.com/google/uuid"
)

// Operation names the remote operation applied to a target case.
type Operation string

const (
	// OperationUpdateOffice moves an existing record to another office in its family.
	OperationUpdateOffice Operation = "update_managing_office"
	// OperationCreateInFamily re-creates a record in the destination family.
	OperationCreateInFamily Operation = "create_in_family"
)

// DispatchCommand is one per-member operation handed to the event dispatcher.
type DispatchCommand struct {
	ID                uuid.UUID
	Operation         Operation
	TargetReference   string
	TargetFamily      Family
	DestinationFamily Family
	DestinationOffice string
	Reason            string
	// SourceReference links the command back to the case the user transferred.
	SourceReference string
	PositionType    string
	// Snapshot is set for OperationCreateInFamily only.
	Snapshot    *Case
	Actor       string
	RequestedAt time.Time
}

// NewDispatchCommand stamps a command with a fresh ID and time.
func NewDispatchCommand(op Operation, target *Case, now time.Time) DispatchCommand {
	return DispatchCommand{
		ID:              uuid.New(),
		Operation:       op,
		TargetReference: target.Reference,
		TargetFamily:    target.Family,
		RequestedAt:     now,
	}
}
