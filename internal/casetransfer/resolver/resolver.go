// Package resolver expands any member of a transfer group into the full group:
// the root case plus every counter-claim it links to.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"casetransfer/internal/casetransfer/models"
	"casetransfer/internal/casetransfer/ports"
	dErrors "casetransfer/pkg/domain-errors"
)

type Resolver struct {
	cases  ports.CaseRepository
	logger *slog.Logger
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func New(cases ports.CaseRepository, opts ...Option) (*Resolver, error) {
	if cases == nil {
		return nil, fmt.Errorf("case repository is required")
	}
	r := &Resolver{cases: cases, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve returns the transfer group source belongs to, loading the root and
// its counter-claims through the store's search. A missing root is
// CodeNotFound; a store outage is CodeUnavailable. Counter-claim links that no
// longer resolve are logged and skipped.
//
// The supplied source object is always a member: it replaces the stored copy
// of itself so callers mutate the instance they hold.
func (r *Resolver) Resolve(ctx context.Context, source *models.Case, cred models.Credential) (*models.TransferGroup, error) {
	if source == nil || source.Reference == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "source case reference is required")
	}

	root, err := r.root(ctx, source, cred)
	if err != nil {
		return nil, err
	}

	stored, err := r.counterClaims(ctx, root, source, cred)
	if err != nil {
		return nil, err
	}

	group := &models.TransferGroup{Root: root}
	sourceSeen := root == source
	for _, link := range root.CounterClaimLinks {
		if link == source.Reference {
			group.CounterClaims = append(group.CounterClaims, source)
			sourceSeen = true
			continue
		}
		counterClaim, ok := stored[link]
		if !ok {
			r.logger.WarnContext(ctx, "skipping stale counter-claim link",
				"root_reference", root.Reference,
				"counter_claim_reference", link,
			)
			continue
		}
		group.CounterClaims = append(group.CounterClaims, counterClaim)
	}

	if !sourceSeen {
		r.logger.WarnContext(ctx, "source case missing from root counter-claim links",
			"root_reference", root.Reference,
			"case_reference", source.Reference,
		)
		group.CounterClaims = append(group.CounterClaims, source)
	}

	return group, nil
}

func (r *Resolver) root(ctx context.Context, source *models.Case, cred models.Credential) (*models.Case, error) {
	if !source.IsCounterClaim() {
		return source, nil
	}
	found, err := r.cases.Search(ctx, cred, ports.SearchCriteria{
		Family:     source.Family,
		References: []string{source.CounterClaimOf},
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable,
			fmt.Sprintf("failed to load original case %s", source.CounterClaimOf))
	}
	if len(found) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound,
			fmt.Sprintf("original case %s for counter-claim %s not found", source.CounterClaimOf, source.Reference))
	}
	return found[0], nil
}

// counterClaims loads every linked counter-claim other than source in one
// search, keyed by reference.
func (r *Resolver) counterClaims(ctx context.Context, root, source *models.Case, cred models.Credential) (map[string]*models.Case, error) {
	references := make([]string, 0, len(root.CounterClaimLinks))
	for _, link := range root.CounterClaimLinks {
		if link != source.Reference && !slices.Contains(references, link) {
			references = append(references, link)
		}
	}
	if len(references) == 0 {
		return nil, nil
	}

	found, err := r.cases.Search(ctx, cred, ports.SearchCriteria{Family: root.Family, References: references})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable,
			fmt.Sprintf("failed to load counter-claims of %s", root.Reference))
	}
	byReference := make(map[string]*models.Case, len(found))
	for _, c := range found {
		byReference[c.Reference] = c
	}
	return byReference, nil
}
