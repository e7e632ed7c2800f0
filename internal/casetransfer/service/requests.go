package service

import "casetransfer/internal/casetransfer/models"

// TransferRequest names a stored case to transfer. An empty DestinationOffice
// or Reason falls back to the case's pending transfer.
type TransferRequest struct {
	SourceReference   string
	Family            models.Family
	DestinationOffice string
	Reason            string
	// Scope, when set, rejects destinations outside it.
	Scope models.TransferScope
}

// TransferResult is the mutated source case plus every reported failure.
// The caller persists Case.
type TransferResult struct {
	Case   *models.Case
	Errors []string
}
