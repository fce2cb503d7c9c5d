package store

import (
	"context"
	"sort"
	"sync"

	"rehabdocs/internal/catalog"
	"rehabdocs/internal/checklist/models"
	id "rehabdocs/pkg/domain"
	"rehabdocs/pkg/platform/sentinel"
)

// InMemoryStore keeps checklist entries in a map for development and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.ChecklistEntryID]*models.Entry
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.ChecklistEntryID]*models.Entry)}
}

func (s *InMemoryStore) SaveAll(_ context.Context, entries []*models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		cp := cloneEntry(e)
		s.entries[e.ID] = cp
	}
	return nil
}

func (s *InMemoryStore) Save(ctx context.Context, entry *models.Entry) error {
	return s.SaveAll(ctx, []*models.Entry{entry})
}

func (s *InMemoryStore) FindByID(_ context.Context, entryID id.ChecklistEntryID) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[entryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneEntry(e), nil
}

// FindByCase returns a case's entries in their seeded order.
func (s *InMemoryStore) FindByCase(_ context.Context, caseID id.CaseID) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Entry
	for _, e := range s.entries {
		if e.CaseID == caseID {
			out = append(out, cloneEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].DocumentType < out[j].DocumentType
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) FindByCaseAndType(_ context.Context, caseID id.CaseID, docType catalog.DocumentType) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.CaseID == caseID && e.DocumentType == docType {
			return cloneEntry(e), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByDocumentID(_ context.Context, documentID id.DocumentID) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.DocumentID != nil && *e.DocumentID == documentID {
			return cloneEntry(e), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) DeleteByCase(_ context.Context, caseID id.CaseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for eid, e := range s.entries {
		if e.CaseID == caseID {
			delete(s.entries, eid)
		}
	}
	return nil
}

// SummariesByCases computes per-case status summaries in one pass, for case
// list views.
func (s *InMemoryStore) SummariesByCases(_ context.Context, caseIDs []id.CaseID) (map[id.CaseID]models.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byCase := make(map[id.CaseID][]*models.Entry)
	want := make(map[id.CaseID]bool, len(caseIDs))
	for _, cid := range caseIDs {
		want[cid] = true
	}
	for _, e := range s.entries {
		if want[e.CaseID] {
			byCase[e.CaseID] = append(byCase[e.CaseID], e)
		}
	}

	out := make(map[id.CaseID]models.Summary, len(caseIDs))
	for _, cid := range caseIDs {
		out[cid] = models.Summarize(byCase[cid])
	}
	return out, nil
}

func cloneEntry(e *models.Entry) *models.Entry {
	cp := *e
	if e.DocumentID != nil {
		d := *e.DocumentID
		cp.DocumentID = &d
	}
	return &cp
}
