package strategy

import (
	"context"

	"casetransfer/internal/casetransfer/models"
)

const transferMarkupPrefix = "Transferred to "

// CrossFamily re-creates every member, source included, in the destination
// family. The source record stays where it is and is marked as transferred.
type CrossFamily struct {
	runner *runner
}

func (s *CrossFamily) Scope() models.TransferScope { return models.ScopeCrossFamily }

func (s *CrossFamily) Apply(ctx context.Context, group *models.TransferGroup, req Request) []string {
	members := group.Members()
	cmds := make([]models.DispatchCommand, 0, len(members))
	for _, member := range members {
		cmd := req.command(models.OperationCreateInFamily, member)
		cmd.DestinationFamily = req.DestinationFamily
		cmd.PositionType = member.PositionType
		cmd.Snapshot = member.Clone()
		cmds = append(cmds, cmd)
	}

	errs := s.runner.dispatchAll(ctx, cmds, req.Credential)

	req.Source.PositionType = models.PositionTransferred
	req.Source.TransferMarkup = TransferMarkup(req.DestinationOffice)
	req.Source.PendingTransfer = nil
	return errs
}

// TransferMarkup is the note left on a case re-created in another family.
func TransferMarkup(office string) string {
	return transferMarkupPrefix + office
}
