package service

import (
	"fmt"
	"strings"

	"casetransfer/internal/casetransfer/models"
	dErrors "casetransfer/pkg/domain-errors"
)

// DestinationOffices lists where a case managed by currentOffice may be
// transferred within scope.
func (s *Service) DestinationOffices(currentOffice string, scope models.TransferScope) ([]string, error) {
	if !scope.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown transfer scope %q", scope))
	}
	currentOffice = strings.TrimSpace(currentOffice)
	if _, ok := s.offices.FamilyOf(currentOffice); !ok {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown office %q", currentOffice))
	}
	destinations, err := s.offices.Destinations(currentOffice, scope)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list destination offices")
	}
	if destinations == nil {
		destinations = []string{}
	}
	return destinations, nil
}
