package audit

import (
	"context"
	"sync"
)

// MemoryStore keeps the most recent events in a bounded ring. It is the
// default sink when Kafka is not configured.
type MemoryStore struct {
	mu     sync.Mutex
	events []Event
	max    int
}

func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = 1024
	}
	return &MemoryStore{max: max}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if len(s.events) > s.max {
		s.events = s.events[len(s.events)-s.max:]
	}
	return nil
}

// List returns a copy of the retained events, oldest first.
func (s *MemoryStore) List(_ context.Context) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out, nil
}
