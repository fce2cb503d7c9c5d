package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"rehabdocs/internal/client/models"
	id "rehabdocs/pkg/domain"
	"rehabdocs/pkg/platform/sentinel"
)

// ListFilter narrows and pages List results. Search matches name or phone,
// case-insensitively.
type ListFilter struct {
	Search string
	Offset int
	Limit  int
}

// InMemoryStore keeps clients in a map for development and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	clients map[id.ClientID]*models.Client
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{clients: make(map[id.ClientID]*models.Client)}
}

func (s *InMemoryStore) Save(_ context.Context, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := cloneClient(client)
	s.clients[client.ID] = cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, clientID id.ClientID) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[clientID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneClient(c), nil
}

func (s *InMemoryStore) Delete(_ context.Context, clientID id.ClientID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[clientID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.clients, clientID)
	return nil
}

// List returns a page of clients ordered newest first, plus the total count
// of matches before paging.
func (s *InMemoryStore) List(_ context.Context, filter ListFilter) ([]*models.Client, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Client
	needle := strings.ToLower(filter.Search)
	for _, c := range s.clients {
		if needle != "" &&
			!strings.Contains(strings.ToLower(c.Name), needle) &&
			!strings.Contains(strings.ToLower(c.Phone), needle) {
			continue
		}
		matched = append(matched, cloneClient(c))
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

func cloneClient(c *models.Client) *models.Client {
	cp := *c
	if c.Certificate != nil {
		cert := *c.Certificate
		cp.Certificate = &cert
	}
	return &cp
}
