package handler

import (
	"strings"

	"casetransfer/internal/casetransfer/models"
	"casetransfer/internal/casetransfer/service"
	dErrors "casetransfer/pkg/domain-errors"
)

// TransferCaseRequest carries the full case being edited. destination_office
// may be omitted when the case has a pending transfer.
type TransferCaseRequest struct {
	Case              *models.Case `json:"case"`
	DestinationOffice string       `json:"destination_office,omitempty"`
	Reason            string       `json:"reason,omitempty"`
}

func (r *TransferCaseRequest) Validate() error {
	if r.Case == nil {
		return dErrors.New(dErrors.CodeBadRequest, "case is required")
	}
	r.Case.Reference = strings.TrimSpace(r.Case.Reference)
	if r.Case.Reference == "" {
		return dErrors.New(dErrors.CodeValidation, "case.reference is required")
	}
	if !r.Case.Family.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "case.family must be ET_EnglandWales or ET_Scotland")
	}
	r.DestinationOffice = strings.TrimSpace(r.DestinationOffice)
	return nil
}

// TransferByReferenceRequest names a stored case.
type TransferByReferenceRequest struct {
	Reference         string `json:"reference"`
	Family            string `json:"family"`
	DestinationOffice string `json:"destination_office,omitempty"`
	Reason            string `json:"reason,omitempty"`
	Scope             string `json:"scope,omitempty"`
}

func (r *TransferByReferenceRequest) Validate() error {
	r.Reference = strings.TrimSpace(r.Reference)
	if r.Reference == "" {
		return dErrors.New(dErrors.CodeValidation, "reference is required")
	}
	if !models.Family(r.Family).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "family must be ET_EnglandWales or ET_Scotland")
	}
	if r.Scope != "" && !models.TransferScope(r.Scope).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "scope must be same_family or cross_family")
	}
	return nil
}

func (r *TransferByReferenceRequest) toService() service.TransferRequest {
	return service.TransferRequest{
		SourceReference:   r.Reference,
		Family:            models.Family(r.Family),
		DestinationOffice: strings.TrimSpace(r.DestinationOffice),
		Reason:            r.Reason,
		Scope:             models.TransferScope(r.Scope),
	}
}
