// Package dispatch implements ports.EventDispatcher over Kafka, Redis Streams
// and memory. All transports carry the same JSON envelope.
package dispatch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"casetransfer/internal/casetransfer/models"
)

// Envelope is the wire form of a dispatch command.
type Envelope struct {
	ID                string       `json:"id"`
	Operation         string       `json:"operation"`
	TargetReference   string       `json:"target_reference"`
	TargetFamily      string       `json:"target_family"`
	DestinationFamily string       `json:"destination_family,omitempty"`
	DestinationOffice string       `json:"destination_office"`
	Reason            string       `json:"reason,omitempty"`
	SourceReference   string       `json:"source_reference"`
	PositionType      string       `json:"position_type,omitempty"`
	Actor             string       `json:"actor,omitempty"`
	RequestedAt       time.Time    `json:"requested_at"`
	Snapshot          *models.Case `json:"snapshot,omitempty"`
}

// Encode renders cmd as an envelope. The credential token never leaves the
// process; only the actor travels with the event.
func Encode(cmd models.DispatchCommand) ([]byte, error) {
	payload, err := json.Marshal(Envelope{
		ID:                cmd.ID.String(),
		Operation:         string(cmd.Operation),
		TargetReference:   cmd.TargetReference,
		TargetFamily:      string(cmd.TargetFamily),
		DestinationFamily: string(cmd.DestinationFamily),
		DestinationOffice: cmd.DestinationOffice,
		Reason:            cmd.Reason,
		SourceReference:   cmd.SourceReference,
		PositionType:      cmd.PositionType,
		Actor:             cmd.Actor,
		RequestedAt:       cmd.RequestedAt.UTC(),
		Snapshot:          cmd.Snapshot,
	})
	if err != nil {
		return nil, fmt.Errorf("encode dispatch command %s: %w", cmd.ID, err)
	}
	return payload, nil
}

// Decode parses an envelope produced by Encode.
func Decode(payload []byte) (models.DispatchCommand, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return models.DispatchCommand{}, fmt.Errorf("decode dispatch envelope: %w", err)
	}
	id, err := uuid.Parse(env.ID)
	if err != nil {
		return models.DispatchCommand{}, fmt.Errorf("decode dispatch envelope id: %w", err)
	}
	op := models.Operation(env.Operation)
	if op != models.OperationUpdateOffice && op != models.OperationCreateInFamily {
		return models.DispatchCommand{}, fmt.Errorf("unknown dispatch operation %q", env.Operation)
	}
	return models.DispatchCommand{
		ID:                id,
		Operation:         op,
		TargetReference:   env.TargetReference,
		TargetFamily:      models.Family(env.TargetFamily),
		DestinationFamily: models.Family(env.DestinationFamily),
		DestinationOffice: env.DestinationOffice,
		Reason:            env.Reason,
		SourceReference:   env.SourceReference,
		PositionType:      env.PositionType,
		Actor:             env.Actor,
		RequestedAt:       env.RequestedAt,
		Snapshot:          env.Snapshot,
	}, nil
}
