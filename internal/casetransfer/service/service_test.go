package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"casetransfer/internal/casetransfer/mocks"
	"casetransfer/internal/casetransfer/models"
	"casetransfer/internal/casetransfer/offices"
	"casetransfer/internal/casetransfer/ports"
	dErrors "casetransfer/pkg/domain-errors"
	"casetransfer/pkg/platform/audit"
	auditmemory "casetransfer/pkg/platform/audit/store/memory"
	"casetransfer/pkg/platform/middleware/metadata"
	"casetransfer/pkg/platform/sentinel"
)

//go:generate mockgen -source=../ports/ports.go -destination=../mocks/mocks.go -package=mocks CaseRepository,EventDispatcher,AuditPublisher

type ServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	cases      *mocks.MockCaseRepository
	events     *mocks.MockEventDispatcher
	auditStore *auditmemory.InMemoryStore
	service    *Service
	cred       models.Credential
	now        time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.cases = mocks.NewMockCaseRepository(s.ctrl)
	s.events = mocks.NewMockEventDispatcher(s.ctrl)
	s.auditStore = auditmemory.NewInMemoryStore()
	s.cred = models.Credential{Token: "token", Actor: "caseworker-1"}
	s.now = time.Date(2021, 11, 2, 9, 30, 0, 0, time.UTC)
	s.service = s.newService()
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) newService(opts ...Option) *Service {
	opts = append([]Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(audit.NewPublisher(s.auditStore)),
		WithClock(func() time.Time { return s.now }),
	}, opts...)
	svc, err := New(s.cases, s.events, offices.Default(), opts...)
	s.Require().NoError(err)
	return svc
}

func rootCase(links ...string) *models.Case {
	return &models.Case{
		Reference:         "A/2021",
		Family:            models.FamilyEnglandWales,
		ManagingOffice:    "Manchester",
		PositionType:      "Awaiting ET3",
		CounterClaimLinks: links,
	}
}

func counterClaim(reference string) *models.Case {
	return &models.Case{
		Reference:      reference,
		Family:         models.FamilyEnglandWales,
		ManagingOffice: "Manchester",
		CounterClaimOf: "A/2021",
	}
}

func (s *ServiceSuite) expectGet(reference string, c *models.Case, err error) *gomock.Call {
	return s.cases.EXPECT().Get(gomock.Any(), s.cred, models.FamilyEnglandWales, reference).Return(c, err)
}

func (s *ServiceSuite) expectSearch(references ...string) *gomock.Call {
	return s.cases.EXPECT().Search(gomock.Any(), s.cred, ports.SearchCriteria{
		Family:     models.FamilyEnglandWales,
		References: references,
	})
}

func (s *ServiceSuite) auditActions(subject string) []string {
	events, err := s.auditStore.ListBySubject(context.Background(), subject)
	s.Require().NoError(err)
	actions := make([]string, 0, len(events))
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	return actions
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *ServiceSuite) TestNew() {
	s.Run("requires a case repository", func() {
		_, err := New(nil, s.events, offices.Default())
		s.ErrorContains(err, "case repository is required")
	})

	s.Run("requires an event dispatcher", func() {
		_, err := New(s.cases, nil, offices.Default())
		s.ErrorContains(err, "event dispatcher is required")
	})

	s.Run("requires an office directory", func() {
		_, err := New(s.cases, s.events, nil)
		s.ErrorContains(err, "office directory is required")
	})
}

// =============================================================================
// Same-Family Transfer Tests
// =============================================================================

func (s *ServiceSuite) TestTransferCaseSameFamily() {
	ctx := context.Background()

	s.Run("root with one counter-claim moves both", func() {
		source := rootCase("B/2021")
		source.PendingTransfer = &models.PendingTransfer{DestinationOffice: "Leeds", Reason: "Claimant moved"}
		s.expectSearch("B/2021").Return([]*models.Case{counterClaim("B/2021")}, nil)
		s.events.EXPECT().Dispatch(gomock.Any(), s.cred, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ models.Credential, cmd models.DispatchCommand) error {
				s.Equal(models.OperationUpdateOffice, cmd.Operation)
				s.Equal("B/2021", cmd.TargetReference)
				s.Equal("Leeds", cmd.DestinationOffice)
				s.Equal("A/2021", cmd.SourceReference)
				s.Equal(s.now, cmd.RequestedAt)
				return nil
			})

		errs, err := s.service.TransferCase(ctx, source, "Leeds", "Claimant moved", s.cred)

		s.Require().NoError(err)
		s.NotNil(errs)
		s.Empty(errs)
		s.Equal("Leeds", source.ManagingOffice)
		s.Nil(source.PendingTransfer)
		s.Equal("Awaiting ET3", source.PositionType)
		s.Equal(models.FamilyEnglandWales, source.Family)
		s.Contains(s.auditActions("A/2021"), string(audit.EventTransferCompleted))
	})

	s.Run("counter-claim source resolves the same group as its root", func() {
		source := counterClaim("B/2021")
		gomock.InOrder(
			s.expectSearch("A/2021").Return([]*models.Case{rootCase("B/2021", "C/2021")}, nil),
			s.expectSearch("C/2021").Return([]*models.Case{counterClaim("C/2021")}, nil),
		)
		var targets []string
		s.events.EXPECT().Dispatch(gomock.Any(), s.cred, gomock.Any()).Times(2).
			DoAndReturn(func(_ context.Context, _ models.Credential, cmd models.DispatchCommand) error {
				targets = append(targets, cmd.TargetReference)
				s.Equal("B/2021", cmd.SourceReference)
				return nil
			})

		errs, err := s.service.TransferCase(ctx, source, "Bristol", "Respondent request", s.cred)

		s.Require().NoError(err)
		s.Empty(errs)
		s.Equal([]string{"A/2021", "C/2021"}, targets)
		s.Equal("Bristol", source.ManagingOffice)
	})

	s.Run("one failed dispatch is reported and siblings continue", func() {
		source := rootCase("B/2021", "C/2021")
		s.expectSearch("B/2021", "C/2021").
			Return([]*models.Case{counterClaim("B/2021"), counterClaim("C/2021")}, nil)
		gomock.InOrder(
			s.events.EXPECT().Dispatch(gomock.Any(), s.cred, gomock.Any()).Return(errors.New("event rejected")),
			s.events.EXPECT().Dispatch(gomock.Any(), s.cred, gomock.Any()).Return(nil),
		)

		errs, err := s.service.TransferCase(ctx, source, "Leeds", "Claimant moved", s.cred)

		s.Require().NoError(err)
		s.Require().Len(errs, 1)
		s.Contains(errs[0], "B/2021")
		s.Equal("Leeds", source.ManagingOffice)
		s.Contains(s.auditActions("A/2021"), string(audit.EventTransferPartiallyFailed))
	})

	s.Run("stale counter-claim link is skipped", func() {
		source := rootCase("B/2021")
		s.expectSearch("B/2021").Return([]*models.Case{}, nil)

		errs, err := s.service.TransferCase(ctx, source, "Leeds", "Claimant moved", s.cred)

		s.Require().NoError(err)
		s.Empty(errs)
		s.Equal("Leeds", source.ManagingOffice)
	})
}

// =============================================================================
// Cross-Family Transfer Tests
// =============================================================================

func (s *ServiceSuite) TestTransferCaseCrossFamily() {
	ctx := context.Background()

	s.Run("every member is re-created and the source marked", func() {
		source := rootCase("B/2021")
		source.PendingTransfer = &models.PendingTransfer{DestinationOffice: "Glasgow"}
		s.expectSearch("B/2021").Return([]*models.Case{counterClaim("B/2021")}, nil)
		var cmds []models.DispatchCommand
		s.events.EXPECT().Dispatch(gomock.Any(), s.cred, gomock.Any()).Times(2).
			DoAndReturn(func(_ context.Context, _ models.Credential, cmd models.DispatchCommand) error {
				cmds = append(cmds, cmd)
				return nil
			})

		errs, err := s.service.TransferCase(ctx, source, "Glasgow", "Claimant moved to Scotland", s.cred)

		s.Require().NoError(err)
		s.Empty(errs)
		s.Require().Len(cmds, 2)
		s.Equal("A/2021", cmds[0].TargetReference)
		s.Equal("B/2021", cmds[1].TargetReference)
		for _, cmd := range cmds {
			s.Equal(models.OperationCreateInFamily, cmd.Operation)
			s.Equal(models.FamilyScotland, cmd.DestinationFamily)
			s.NotNil(cmd.Snapshot)
		}
		s.Equal(models.PositionTransferred, source.PositionType)
		s.Equal("Transferred to Glasgow", source.TransferMarkup)
		s.Nil(source.PendingTransfer)
		s.Equal("Manchester", source.ManagingOffice)
		s.Equal(models.FamilyEnglandWales, source.Family)
	})

	s.Run("caller cancellation does not abort issued dispatches", func() {
		source := rootCase("B/2021")
		s.expectSearch("B/2021").Return([]*models.Case{counterClaim("B/2021")}, nil)
		cancelCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		gomock.InOrder(
			s.events.EXPECT().Dispatch(gomock.Any(), s.cred, gomock.Any()).
				DoAndReturn(func(_ context.Context, _ models.Credential, _ models.DispatchCommand) error {
					cancel()
					return nil
				}),
			s.events.EXPECT().Dispatch(gomock.Any(), s.cred, gomock.Any()).
				DoAndReturn(func(dctx context.Context, _ models.Credential, _ models.DispatchCommand) error {
					return dctx.Err()
				}),
		)

		errs, err := s.service.TransferCase(cancelCtx, source, "Glasgow", "Claimant moved", s.cred)

		s.Require().NoError(err)
		s.Empty(errs)
	})

	s.Run("caller deadline still bounds a stalled dispatch", func() {
		source := rootCase()
		deadlineCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		s.events.EXPECT().Dispatch(gomock.Any(), s.cred, gomock.Any()).
			DoAndReturn(func(dctx context.Context, _ models.Credential, _ models.DispatchCommand) error {
				<-dctx.Done()
				return dctx.Err()
			})

		start := time.Now()
		errs, err := s.service.TransferCase(deadlineCtx, source, "Glasgow", "Claimant moved", s.cred)

		s.Require().NoError(err)
		s.Less(time.Since(start), 5*time.Second)
		s.Require().Len(errs, 1)
		s.Contains(errs[0], "Unable to create case A/2021")
		s.Contains(errs[0], context.DeadlineExceeded.Error())
		s.Equal(models.PositionTransferred, source.PositionType)
	})

	s.Run("dispatch timeout bounds a stalled dispatch without a caller deadline", func() {
		svc := s.newService(WithDispatchTimeout(50 * time.Millisecond))
		source := rootCase()
		s.events.EXPECT().Dispatch(gomock.Any(), s.cred, gomock.Any()).
			DoAndReturn(func(dctx context.Context, _ models.Credential, _ models.DispatchCommand) error {
				<-dctx.Done()
				return dctx.Err()
			})

		start := time.Now()
		errs, err := svc.TransferCase(ctx, source, "Leeds", "Claimant moved", s.cred)

		s.Require().NoError(err)
		s.Less(time.Since(start), 5*time.Second)
		s.Require().Len(errs, 1)
		s.Contains(errs[0], "Unable to transfer case A/2021 to Leeds")
		s.Equal("Leeds", source.ManagingOffice)
	})
}

// =============================================================================
// Validation Gate Tests
// =============================================================================

func (s *ServiceSuite) TestTransferCaseBlockedByValidation() {
	ctx := context.Background()

	s.Run("open BF action on the source blocks the transfer", func() {
		source := rootCase()
		source.BFActions = []models.BroughtForwardAction{{Action: "Check ET3"}}
		source.PendingTransfer = &models.PendingTransfer{DestinationOffice: "Leeds"}

		errs, err := s.service.TransferCase(ctx, source, "Leeds", "Claimant moved", s.cred)

		s.Require().NoError(err)
		s.Equal([]string{
			"There are one or more open Brought Forward actions that must be cleared before the case A/2021 can be transferred",
		}, errs)
		s.Equal("Manchester", source.ManagingOffice)
		s.NotNil(source.PendingTransfer)
		s.Equal([]string{string(audit.EventTransferBlocked)}, s.auditActions("A/2021"))
	})

	s.Run("a listed hearing on a counter-claim blocks the whole group", func() {
		source := rootCase("B/2021")
		blocked := counterClaim("B/2021")
		blocked.Hearings = []models.Hearing{{Number: "1", Sessions: []models.HearingSession{{Status: models.HearingStatusListed}}}}
		s.expectSearch("B/2021").Return([]*models.Case{blocked}, nil)

		errs, err := s.service.TransferCase(ctx, source, "Glasgow", "Claimant moved", s.cred)

		s.Require().NoError(err)
		s.Require().Len(errs, 1)
		s.Contains(errs[0], "B/2021")
		s.Contains(errs[0], "status Listed")
		s.Empty(source.TransferMarkup)
		s.Equal("Awaiting ET3", source.PositionType)
	})

	s.Run("no member is mutated when blocked", func() {
		source := rootCase("B/2021", "C/2021")
		source.PendingTransfer = &models.PendingTransfer{DestinationOffice: "Glasgow", Reason: "Claimant moved"}
		clean := counterClaim("B/2021")
		blocked := counterClaim("C/2021")
		blocked.BFActions = []models.BroughtForwardAction{{Action: "Chase"}}
		before := []*models.Case{source.Clone(), clean.Clone(), blocked.Clone()}
		s.expectSearch("B/2021", "C/2021").Return([]*models.Case{clean, blocked}, nil)

		errs, err := s.service.TransferCase(ctx, source, "Glasgow", "Claimant moved", s.cred)

		s.Require().NoError(err)
		s.Require().Len(errs, 1)
		s.Equal(before[0], source)
		s.Equal(before[1], clean)
		s.Equal(before[2], blocked)
	})

	s.Run("failures across members are all reported", func() {
		source := rootCase("B/2021")
		source.BFActions = []models.BroughtForwardAction{{ClearedDate: " "}}
		blocked := counterClaim("B/2021")
		blocked.BFActions = []models.BroughtForwardAction{{Action: "Chase"}}
		blocked.Hearings = []models.Hearing{{Sessions: []models.HearingSession{{Status: models.HearingStatusListed}}}}
		s.expectSearch("B/2021").Return([]*models.Case{blocked}, nil)

		errs, err := s.service.TransferCase(ctx, source, "Leeds", "Claimant moved", s.cred)

		s.Require().NoError(err)
		s.Require().Len(errs, 3)
		s.Contains(errs[0], "A/2021")
		s.Contains(errs[1], "B/2021")
		s.Contains(errs[2], "B/2021")
	})
}

// =============================================================================
// Error Path Tests
// =============================================================================

func (s *ServiceSuite) TestTransferCaseErrors() {
	ctx := context.Background()

	s.Run("missing root is not found", func() {
		source := counterClaim("B/2021")
		s.expectSearch("A/2021").Return([]*models.Case{}, nil)

		errs, err := s.service.TransferCase(ctx, source, "Leeds", "Claimant moved", s.cred)

		s.Nil(errs)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal("Manchester", source.ManagingOffice)
	})

	s.Run("store outage is unavailable", func() {
		source := rootCase("B/2021")
		s.expectSearch("B/2021").Return(nil, sentinel.ErrUnavailable)

		_, err := s.service.TransferCase(ctx, source, "Leeds", "Claimant moved", s.cred)

		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("unknown destination office", func() {
		_, err := s.service.TransferCase(ctx, rootCase(), "Atlantis", "", s.cred)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("same-family destination equal to current office", func() {
		_, err := s.service.TransferCase(ctx, rootCase(), "Manchester", "", s.cred)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.ErrorContains(err, "already managed by Manchester")
	})

	s.Run("no destination and no pending transfer", func() {
		_, err := s.service.TransferCase(ctx, rootCase(), "", "", s.cred)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("nil source", func() {
		_, err := s.service.TransferCase(ctx, nil, "Leeds", "", s.cred)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *ServiceSuite) TestTransferCaseFallsBackToPendingTransfer() {
	source := rootCase()
	source.PendingTransfer = &models.PendingTransfer{DestinationOffice: "Watford", Reason: "Venue closure"}

	errs, err := s.service.TransferCase(context.Background(), source, "", "", s.cred)

	s.Require().NoError(err)
	s.Empty(errs)
	s.Equal("Watford", source.ManagingOffice)
	s.Nil(source.PendingTransfer)
}

func (s *ServiceSuite) TestTransferCaseInScope() {
	ctx := context.Background()

	s.Run("cross-family destination rejected on same-family scope", func() {
		_, err := s.service.TransferCaseInScope(ctx, rootCase(), "Glasgow", "", models.ScopeSameFamily, s.cred)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.ErrorContains(err, "not a same-family destination")
	})

	s.Run("same-family destination rejected on cross-family scope", func() {
		_, err := s.service.TransferCaseInScope(ctx, rootCase(), "Leeds", "", models.ScopeCrossFamily, s.cred)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("matching scope transfers", func() {
		source := rootCase()
		s.events.EXPECT().Dispatch(gomock.Any(), s.cred, gomock.Any()).Return(nil)

		errs, err := s.service.TransferCaseInScope(ctx, source, "Aberdeen", "", models.ScopeCrossFamily, s.cred)

		s.Require().NoError(err)
		s.Empty(errs)
		s.Equal("Transferred to Aberdeen", source.TransferMarkup)
	})

	s.Run("unknown scope", func() {
		_, err := s.service.TransferCaseInScope(ctx, rootCase(), "Leeds", "", "sideways", s.cred)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Transfer By Reference Tests
// =============================================================================

func (s *ServiceSuite) TestTransfer() {
	ctx := context.Background()

	s.Run("loads the source and returns it mutated", func() {
		s.expectGet("A/2021", rootCase(), nil)

		result, err := s.service.Transfer(ctx, TransferRequest{
			SourceReference:   "A/2021",
			Family:            models.FamilyEnglandWales,
			DestinationOffice: "Newcastle",
			Reason:            "Claimant moved",
		}, s.cred)

		s.Require().NoError(err)
		s.Empty(result.Errors)
		s.Equal("Newcastle", result.Case.ManagingOffice)
	})

	s.Run("missing source is not found", func() {
		s.expectGet("A/2021", nil, sentinel.ErrNotFound)

		_, err := s.service.Transfer(ctx, TransferRequest{
			SourceReference:   "A/2021",
			Family:            models.FamilyEnglandWales,
			DestinationOffice: "Newcastle",
		}, s.cred)

		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("blank reference is a bad request", func() {
		_, err := s.service.Transfer(ctx, TransferRequest{Family: models.FamilyEnglandWales}, s.cred)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("unknown family", func() {
		_, err := s.service.Transfer(ctx, TransferRequest{SourceReference: "A/2021", Family: "ET_Atlantis"}, s.cred)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Linked Case Tests
// =============================================================================

func (s *ServiceSuite) TestApplyLinkedTransfer() {
	ctx := context.Background()

	s.Run("target takes the new office without dispatching", func() {
		target := counterClaim("B/2021")
		target.PendingTransfer = &models.PendingTransfer{DestinationOffice: "Leeds"}

		err := s.service.ApplyLinkedTransfer(ctx, target, "Leeds", "Claimant moved", s.cred)

		s.Require().NoError(err)
		s.Equal("Leeds", target.ManagingOffice)
		s.Nil(target.PendingTransfer)
		s.Equal([]string{string(audit.EventLinkedCaseUpdated)}, s.auditActions("B/2021"))
	})

	s.Run("office in another family is rejected", func() {
		target := counterClaim("B/2021")

		err := s.service.ApplyLinkedTransfer(ctx, target, "Dundee", "", s.cred)

		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("Manchester", target.ManagingOffice)
	})

	s.Run("missing target", func() {
		err := s.service.ApplyLinkedTransfer(ctx, nil, "Leeds", "", s.cred)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

// =============================================================================
// Destination Office Tests
// =============================================================================

func (s *ServiceSuite) TestDestinationOffices() {
	s.Run("same family excludes the current office", func() {
		got, err := s.service.DestinationOffices("Manchester", models.ScopeSameFamily)
		s.Require().NoError(err)
		s.Len(got, 10)
		s.NotContains(got, "Manchester")
		s.Contains(got, "Leeds")
	})

	s.Run("scotland offers no intra-family destinations", func() {
		got, err := s.service.DestinationOffices("Glasgow", models.ScopeSameFamily)
		s.Require().NoError(err)
		s.NotNil(got)
		s.Empty(got)
	})

	s.Run("cross family lists the other family", func() {
		got, err := s.service.DestinationOffices("Glasgow", models.ScopeCrossFamily)
		s.Require().NoError(err)
		s.Len(got, 11)
		s.Contains(got, "Manchester")
	})

	s.Run("unknown office", func() {
		_, err := s.service.DestinationOffices("Atlantis", models.ScopeSameFamily)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown scope", func() {
		_, err := s.service.DestinationOffices("Leeds", "sideways")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Audit Tests
// =============================================================================

func (s *ServiceSuite) TestAuditEventCarriesActor() {
	source := rootCase()
	s.events.EXPECT().Dispatch(gomock.Any(), s.cred, gomock.Any()).Return(nil)

	ctx := metadata.WithClientMetadata(context.Background(), "192.0.2.10", "caseworker-ui/2.3")

	_, err := s.service.TransferCase(ctx, source, "Dundee", "Claimant moved", s.cred)
	s.Require().NoError(err)

	events, err := s.auditStore.ListBySubject(context.Background(), "A/2021")
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("caseworker-1", events[0].ActorID)
	s.Equal("192.0.2.10", events[0].ClientIP)
	s.Equal("caseworker-ui/2.3", events[0].UserAgent)
	s.Equal(audit.CategoryCompliance, events[0].Category)
	s.Equal("Claimant moved", events[0].Reason)
}

func (s *ServiceSuite) TestAuditPublisherFailureDoesNotFailTransfer() {
	publisher := mocks.NewMockAuditPublisher(s.ctrl)
	publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("outbox down"))
	svc := s.newService(WithAuditPublisher(publisher))
	source := rootCase()

	errs, err := svc.TransferCase(context.Background(), source, "Leeds", "", s.cred)

	s.Require().NoError(err)
	s.Empty(errs)
	s.Equal("Leeds", source.ManagingOffice)
}
