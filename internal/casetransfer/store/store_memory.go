package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"casetransfer/internal/casetransfer/models"
	"casetransfer/internal/casetransfer/ports"
	"casetransfer/pkg/platform/sentinel"
)

// InMemoryStore is a CaseRepository for tests and local runs. It hands out
// copies so callers never share state with the store.
type InMemoryStore struct {
	mu    sync.RWMutex
	cases map[caseKey]*models.Case
	// order keeps Search results deterministic.
	order []caseKey
}

type caseKey struct {
	family    models.Family
	reference string
}

func NewInMemoryStore(seed ...*models.Case) *InMemoryStore {
	s := &InMemoryStore{cases: make(map[caseKey]*models.Case)}
	for _, c := range seed {
		_ = s.Save(context.Background(), c)
	}
	return s
}

func (s *InMemoryStore) Get(_ context.Context, _ models.Credential, family models.Family, reference string) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[caseKey{family: family, reference: reference}]
	if !ok {
		return nil, fmt.Errorf("case %s in %s: %w", reference, family, sentinel.ErrNotFound)
	}
	return c.Clone(), nil
}

func (s *InMemoryStore) Search(_ context.Context, _ models.Credential, criteria ports.SearchCriteria) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Case{}
	for _, key := range s.order {
		if key.family != criteria.Family {
			continue
		}
		c := s.cases[key]
		if matches(c, criteria) {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

// Save inserts or replaces c under its family and reference.
func (s *InMemoryStore) Save(_ context.Context, c *models.Case) error {
	if c == nil || c.Reference == "" || !c.Family.IsValid() {
		return fmt.Errorf("case must have a reference and a known family")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := caseKey{family: c.Family, reference: c.Reference}
	if _, ok := s.cases[key]; !ok {
		s.order = append(s.order, key)
	}
	s.cases[key] = c.Clone()
	return nil
}

func matches(c *models.Case, criteria ports.SearchCriteria) bool {
	if len(criteria.References) > 0 && !slices.Contains(criteria.References, c.Reference) {
		return false
	}
	return true
}
