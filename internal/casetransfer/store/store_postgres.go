package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"casetransfer/internal/casetransfer/models"
	"casetransfer/internal/casetransfer/ports"
	"casetransfer/pkg/platform/sentinel"
	txcontext "casetransfer/pkg/platform/tx"
)

// Schema creates the tables used by PostgresStore and the audit outbox.
const Schema = `
CREATE TABLE IF NOT EXISTS cases (
	reference  TEXT        NOT NULL,
	family     TEXT        NOT NULL,
	document   JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (reference, family)
);

CREATE TABLE IF NOT EXISTS outbox (
	id             UUID        PRIMARY KEY,
	aggregate_type TEXT        NOT NULL,
	aggregate_id   TEXT        NOT NULL,
	event_type     TEXT        NOT NULL,
	payload        JSONB       NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
);
`

// PostgresStore keeps each case as a JSONB document keyed by reference and family.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// Migrate applies Schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply case schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, _ models.Credential, family models.Family, reference string) (*models.Case, error) {
	var document []byte
	err := txcontext.Or(ctx, s.db).QueryRowContext(ctx,
		`SELECT document FROM cases WHERE reference = $1 AND family = $2`,
		reference, string(family),
	).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("case %s in %s: %w", reference, family, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find case %s: %w: %w", reference, sentinel.ErrUnavailable, err)
	}
	return decodeCase(document, family)
}

func (s *PostgresStore) Search(ctx context.Context, _ models.Credential, criteria ports.SearchCriteria) ([]*models.Case, error) {
	query := `
		SELECT document FROM cases
		WHERE family = $1
		  AND (cardinality($2::text[]) = 0 OR reference = ANY($2))
		ORDER BY reference
	`
	rows, err := txcontext.Or(ctx, s.db).QueryContext(ctx, query,
		string(criteria.Family),
		pq.Array(criteria.References),
	)
	if err != nil {
		return nil, fmt.Errorf("search cases: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()

	out := []*models.Case{}
	for rows.Next() {
		var document []byte
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		c, err := decodeCase(document, criteria.Family)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w: %w", sentinel.ErrUnavailable, err)
	}
	return out, nil
}

// Save upserts c. The transfer flow never calls it; callers that own the
// source case persist through it.
func (s *PostgresStore) Save(ctx context.Context, c *models.Case) error {
	if c == nil || c.Reference == "" || !c.Family.IsValid() {
		return fmt.Errorf("case must have a reference and a known family")
	}
	document, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal case %s: %w", c.Reference, err)
	}
	query := `
		INSERT INTO cases (reference, family, document, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (reference, family) DO UPDATE SET
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := txcontext.Or(ctx, s.db).ExecContext(ctx, query, c.Reference, string(c.Family), document, s.now()); err != nil {
		return fmt.Errorf("save case %s: %w", c.Reference, err)
	}
	return nil
}

// decodeCase stamps the family from the row location; a document never
// decides its own family.
func decodeCase(document []byte, family models.Family) (*models.Case, error) {
	var c models.Case
	if err := json.Unmarshal(document, &c); err != nil {
		return nil, fmt.Errorf("decode case document: %w", err)
	}
	c.Family = family
	return &c, nil
}
