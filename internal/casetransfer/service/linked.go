package service

import (
	"context"
	"fmt"
	"strings"

	"casetransfer/internal/casetransfer/models"
	"casetransfer/internal/casetransfer/ports"
	dErrors "casetransfer/pkg/domain-errors"
	"casetransfer/pkg/platform/audit"
)

// ApplyLinkedTransfer handles the update event received by a group member
// during a same-family transfer: target alone takes the new office. No group
// is resolved and nothing is dispatched.
func (s *Service) ApplyLinkedTransfer(ctx context.Context, target *models.Case, destinationOffice, reason string, cred models.Credential) error {
	if target == nil || target.Reference == "" {
		return dErrors.New(dErrors.CodeBadRequest, "target case is required")
	}
	office := strings.TrimSpace(destinationOffice)
	if office == "" {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("no destination office given for case %s", target.Reference))
	}
	family, ok := s.offices.FamilyOf(office)
	if !ok {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown destination office %q", office))
	}
	if family != target.Family {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("%s is not a same-family destination for case %s", office, target.Reference))
	}

	previous := target.ManagingOffice
	target.ManagingOffice = office
	target.PendingTransfer = nil

	ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventLinkedCaseUpdated,
		"case_reference", target.Reference,
		"previous_office", previous,
		"destination_office", office,
		"reason", reason,
		"actor", cred.Actor,
	)
	return nil
}
