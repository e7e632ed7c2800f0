package strategy

import (
	"context"

	"casetransfer/internal/casetransfer/models"
)

// SameFamily moves a group between offices of one family. Every member but
// the source gets an update event; the source is updated in place.
type SameFamily struct {
	runner *runner
}

func (s *SameFamily) Scope() models.TransferScope { return models.ScopeSameFamily }

func (s *SameFamily) Apply(ctx context.Context, group *models.TransferGroup, req Request) []string {
	var cmds []models.DispatchCommand
	for _, member := range group.Members() {
		if member.Reference == req.Source.Reference {
			continue
		}
		cmd := req.command(models.OperationUpdateOffice, member)
		cmd.DestinationFamily = member.Family
		cmds = append(cmds, cmd)
	}

	errs := s.runner.dispatchAll(ctx, cmds, req.Credential)

	req.Source.ManagingOffice = req.DestinationOffice
	req.Source.PendingTransfer = nil
	return errs
}
