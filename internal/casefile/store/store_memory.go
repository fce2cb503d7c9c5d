package store

import (
	"context"
	"sort"
	"sync"

	"rehabdocs/internal/casefile/models"
	"rehabdocs/internal/catalog"
	id "rehabdocs/pkg/domain"
	"rehabdocs/pkg/platform/sentinel"
)

// ListFilter narrows and pages case listings.
type ListFilter struct {
	Status   models.Status
	Court    catalog.Court
	ClientID id.ClientID
	Offset   int
	Limit    int
}

// InMemoryStore keeps cases in a map for development and tests.
type InMemoryStore struct {
	mu    sync.RWMutex
	cases map[id.CaseID]*models.Case
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{cases: make(map[id.CaseID]*models.Case)}
}

func (s *InMemoryStore) Save(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.cases[c.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, caseID id.CaseID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[caseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemoryStore) Delete(_ context.Context, caseID id.CaseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[caseID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.cases, caseID)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, filter ListFilter) ([]*models.Case, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Case
	for _, c := range s.cases {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Court != "" && c.Court != filter.Court {
			continue
		}
		if !filter.ClientID.IsNil() && c.ClientID != filter.ClientID {
			continue
		}
		cp := *c
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() > matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if filter.Offset >= total {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (s *InMemoryStore) CountByClient(_ context.Context, clientID id.ClientID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.cases {
		if c.ClientID == clientID {
			n++
		}
	}
	return n, nil
}
