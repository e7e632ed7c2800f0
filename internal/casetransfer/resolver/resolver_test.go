package resolver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"casetransfer/internal/casetransfer/mocks"
	"casetransfer/internal/casetransfer/models"
	"casetransfer/internal/casetransfer/ports"
	dErrors "casetransfer/pkg/domain-errors"
	"casetransfer/pkg/platform/sentinel"
)

//go:generate mockgen -source=../ports/ports.go -destination=../mocks/mocks.go -package=mocks CaseRepository,EventDispatcher,AuditPublisher

type ResolverSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	cases    *mocks.MockCaseRepository
	resolver *Resolver
	cred     models.Credential
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.cases = mocks.NewMockCaseRepository(s.ctrl)
	var err error
	s.resolver, err = New(s.cases, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)
	s.cred = models.Credential{Token: "token", Actor: "caseworker-1"}
}

func (s *ResolverSuite) TearDownTest() {
	s.ctrl.Finish()
}

func newRoot(links ...string) *models.Case {
	return &models.Case{
		Reference:         "120001/2021",
		Family:            models.FamilyEnglandWales,
		ManagingOffice:    "Manchester",
		CounterClaimLinks: links,
	}
}

func newCounterClaim(reference string) *models.Case {
	return &models.Case{
		Reference:      reference,
		Family:         models.FamilyEnglandWales,
		ManagingOffice: "Manchester",
		CounterClaimOf: "120001/2021",
	}
}

func (s *ResolverSuite) expectSearch(references ...string) *gomock.Call {
	return s.cases.EXPECT().Search(gomock.Any(), s.cred, ports.SearchCriteria{
		Family:     models.FamilyEnglandWales,
		References: references,
	})
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *ResolverSuite) TestNew() {
	s.Run("nil repository returns error", func() {
		_, err := New(nil)
		s.ErrorContains(err, "case repository is required")
	})
}

// =============================================================================
// Resolve Tests
// =============================================================================

func (s *ResolverSuite) TestResolveFromRoot() {
	ctx := context.Background()

	s.Run("root without counter-claims is a group of one", func() {
		root := newRoot()

		group, err := s.resolver.Resolve(ctx, root, s.cred)

		s.Require().NoError(err)
		s.Same(root, group.Root)
		s.Empty(group.CounterClaims)
	})

	s.Run("counter-claims are fetched in one search and kept in link order", func() {
		root := newRoot("120003/2021", "120002/2021")
		s.expectSearch("120003/2021", "120002/2021").
			Return([]*models.Case{newCounterClaim("120002/2021"), newCounterClaim("120003/2021")}, nil)

		group, err := s.resolver.Resolve(ctx, root, s.cred)

		s.Require().NoError(err)
		s.Equal([]string{"120001/2021", "120003/2021", "120002/2021"}, group.References())
		s.Same(root, group.Root)
	})

	s.Run("stale counter-claim link is skipped", func() {
		root := newRoot("120002/2021", "120003/2021")
		s.expectSearch("120002/2021", "120003/2021").
			Return([]*models.Case{newCounterClaim("120003/2021")}, nil)

		group, err := s.resolver.Resolve(ctx, root, s.cred)

		s.Require().NoError(err)
		s.Equal([]string{"120001/2021", "120003/2021"}, group.References())
	})

	s.Run("store outage on a counter-claim is propagated", func() {
		root := newRoot("120002/2021")
		s.expectSearch("120002/2021").
			Return(nil, fmt.Errorf("search cases: %w", sentinel.ErrUnavailable))

		_, err := s.resolver.Resolve(ctx, root, s.cred)

		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
		s.ErrorIs(err, sentinel.ErrUnavailable)
	})
}

func (s *ResolverSuite) TestResolveFromCounterClaim() {
	ctx := context.Background()

	s.Run("counter-claim resolves to the same group as its root", func() {
		source := newCounterClaim("120002/2021")
		sibling := newCounterClaim("120003/2021")
		root := newRoot("120002/2021", "120003/2021")
		gomock.InOrder(
			s.expectSearch("120001/2021").Return([]*models.Case{root}, nil),
			s.expectSearch("120003/2021").Return([]*models.Case{sibling}, nil),
		)

		group, err := s.resolver.Resolve(ctx, source, s.cred)

		s.Require().NoError(err)
		s.Equal([]string{"120001/2021", "120002/2021", "120003/2021"}, group.References())
		member, ok := group.Find("120002/2021")
		s.Require().True(ok)
		s.Same(source, member, "supplied source must not be replaced by a stored copy")
	})

	s.Run("source as the only link needs no search", func() {
		source := newCounterClaim("120002/2021")
		s.expectSearch("120001/2021").Return([]*models.Case{newRoot("120002/2021")}, nil)

		group, err := s.resolver.Resolve(ctx, source, s.cred)

		s.Require().NoError(err)
		s.Equal([]string{"120001/2021", "120002/2021"}, group.References())
	})

	s.Run("missing root is not found", func() {
		source := newCounterClaim("120002/2021")
		s.expectSearch("120001/2021").Return([]*models.Case{}, nil)

		_, err := s.resolver.Resolve(ctx, source, s.cred)

		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("root store outage is unavailable", func() {
		source := newCounterClaim("120002/2021")
		s.expectSearch("120001/2021").Return(nil, sentinel.ErrUnavailable)

		_, err := s.resolver.Resolve(ctx, source, s.cred)

		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("source missing from stale root links is still a member", func() {
		source := newCounterClaim("120002/2021")
		root := newRoot()
		s.expectSearch("120001/2021").Return([]*models.Case{root}, nil)

		group, err := s.resolver.Resolve(ctx, source, s.cred)

		s.Require().NoError(err)
		s.Equal([]string{"120001/2021", "120002/2021"}, group.References())
	})
}

func (s *ResolverSuite) TestResolveRejectsEmptySource() {
	_, err := s.resolver.Resolve(context.Background(), &models.Case{}, s.cred)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}
