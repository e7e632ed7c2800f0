//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"casetransfer/internal/casetransfer/models"
	"casetransfer/internal/casetransfer/ports"
	"casetransfer/internal/casetransfer/store"
	audit "casetransfer/pkg/platform/audit"
	auditpostgres "casetransfer/pkg/platform/audit/store/postgres"
	"casetransfer/pkg/platform/sentinel"
	txcontext "casetransfer/pkg/platform/tx"
	"casetransfer/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	cred     models.Credential
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.Migrate(context.Background()))
	s.cred = models.Credential{Token: "token"}
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background(), "cases", "outbox"))
}

func (s *PostgresStoreSuite) seed(cases ...*models.Case) {
	for _, c := range cases {
		s.Require().NoError(s.store.Save(context.Background(), c))
	}
}

func (s *PostgresStoreSuite) TestGetRoundTripsDocument() {
	ctx := context.Background()
	s.seed(&models.Case{
		Reference:         "120001/2021",
		Family:            models.FamilyEnglandWales,
		ManagingOffice:    "Leeds",
		BFActions:         []models.BroughtForwardAction{{Action: "Chase ET3", ClearedDate: "2021-10-01"}},
		Hearings:          []models.Hearing{{Number: "1", Sessions: []models.HearingSession{{Status: models.HearingStatusHeard}}}},
		CounterClaimLinks: []string{"120002/2021"},
		PendingTransfer:   &models.PendingTransfer{DestinationOffice: "Bristol", Reason: "Claimant moved"},
	})

	got, err := s.store.Get(ctx, s.cred, models.FamilyEnglandWales, "120001/2021")

	s.Require().NoError(err)
	s.Equal("Leeds", got.ManagingOffice)
	s.Equal(models.FamilyEnglandWales, got.Family)
	s.Equal([]string{"120002/2021"}, got.CounterClaimLinks)
	s.Require().NotNil(got.PendingTransfer)
	s.Equal("Bristol", got.PendingTransfer.DestinationOffice)
	s.True(got.BFActions[0].IsCleared())
}

func (s *PostgresStoreSuite) TestGetMissingIsNotFound() {
	_, err := s.store.Get(context.Background(), s.cred, models.FamilyScotland, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSearch() {
	ctx := context.Background()
	s.seed(
		&models.Case{Reference: "120001/2021", Family: models.FamilyEnglandWales, ManagingOffice: "Leeds"},
		&models.Case{Reference: "120002/2021", Family: models.FamilyEnglandWales, ManagingOffice: "Leeds", CounterClaimOf: "120001/2021"},
		&models.Case{Reference: "120002/2021", Family: models.FamilyScotland, ManagingOffice: "Glasgow"},
	)

	s.Run("by references within one family", func() {
		got, err := s.store.Search(ctx, s.cred, ports.SearchCriteria{
			Family:     models.FamilyEnglandWales,
			References: []string{"120001/2021", "120002/2021"},
		})
		s.Require().NoError(err)
		s.Len(got, 2)
	})

	s.Run("references that do not exist are omitted", func() {
		got, err := s.store.Search(ctx, s.cred, ports.SearchCriteria{
			Family:     models.FamilyEnglandWales,
			References: []string{"120002/2021", "999999/2021"},
		})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal("120002/2021", got[0].Reference)
	})

	s.Run("family comes from the row", func() {
		got, err := s.store.Search(ctx, s.cred, ports.SearchCriteria{Family: models.FamilyScotland})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(models.FamilyScotland, got[0].Family)
	})
}

func (s *PostgresStoreSuite) TestSaveUpserts() {
	ctx := context.Background()
	s.seed(&models.Case{Reference: "120001/2021", Family: models.FamilyEnglandWales, ManagingOffice: "Leeds"})
	s.seed(&models.Case{Reference: "120001/2021", Family: models.FamilyEnglandWales, ManagingOffice: "Watford"})

	got, err := s.store.Get(ctx, s.cred, models.FamilyEnglandWales, "120001/2021")

	s.Require().NoError(err)
	s.Equal("Watford", got.ManagingOffice)
}

func (s *PostgresStoreSuite) TestSaveAndOutboxShareTransaction() {
	ctx := context.Background()
	outbox := auditpostgres.New(s.postgres.DB)
	moved := &models.Case{Reference: "120001/2021", Family: models.FamilyEnglandWales, ManagingOffice: "Leeds"}
	event := audit.Event{
		Timestamp: time.Date(2021, 11, 2, 9, 30, 0, 0, time.UTC),
		Subject:   moved.Reference,
		Action:    string(audit.EventTransferCompleted),
		ActorID:   "caseworker-1",
	}
	countOutbox := func() int {
		var n int
		s.Require().NoError(s.postgres.DB.QueryRowContext(ctx, "SELECT count(*) FROM outbox").Scan(&n))
		return n
	}

	s.Run("rollback discards both writes", func() {
		err := txcontext.RunInTx(ctx, s.postgres.DB, func(ctx context.Context) error {
			s.Require().NoError(s.store.Save(ctx, moved))
			s.Require().NoError(outbox.Append(ctx, event))
			return errors.New("abort")
		})

		s.EqualError(err, "abort")
		_, getErr := s.store.Get(ctx, s.cred, models.FamilyEnglandWales, moved.Reference)
		s.ErrorIs(getErr, sentinel.ErrNotFound)
		s.Zero(countOutbox())
	})

	s.Run("commit keeps both writes", func() {
		err := txcontext.RunInTx(ctx, s.postgres.DB, func(ctx context.Context) error {
			if err := s.store.Save(ctx, moved); err != nil {
				return err
			}
			return outbox.Append(ctx, event)
		})

		s.Require().NoError(err)
		got, getErr := s.store.Get(ctx, s.cred, models.FamilyEnglandWales, moved.Reference)
		s.Require().NoError(getErr)
		s.Equal("Leeds", got.ManagingOffice)
		s.Equal(1, countOutbox())
	})
}
