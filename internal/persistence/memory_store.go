package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/petrijr/flowkit/pkg/api"
)

// InMemoryFlowStore is a simple, goroutine-safe FlowStore backed by a map.
// Documents are copied on the way in and out.
type InMemoryFlowStore struct {
	mu    sync.RWMutex
	flows map[string]*api.Flow
	now   func() time.Time
}

// Ensure InMemoryFlowStore implements FlowStore.
var _ FlowStore = (*InMemoryFlowStore)(nil)

// NewInMemoryFlowStore creates a new InMemoryFlowStore.
func NewInMemoryFlowStore() *InMemoryFlowStore {
	return &InMemoryFlowStore{
		flows: make(map[string]*api.Flow),
		now:   time.Now,
	}
}

func (s *InMemoryFlowStore) ListFlows(ctx context.Context) ([]*api.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*api.Flow, 0, len(s.flows))
	for _, f := range s.flows {
		result = append(result, f.Clone())
	}
	sortFlows(result)
	return result, nil
}

func (s *InMemoryFlowStore) FetchFlow(ctx context.Context, id string) (*api.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.flows[id]
	if !ok {
		return nil, notFound(id)
	}
	return f.Clone(), nil
}

func (s *InMemoryFlowStore) CreateFlow(ctx context.Context, name string) (*api.Flow, error) {
	f, err := newFlow(name, s.now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.flows[f.ID] = f
	return f.Clone(), nil
}

func (s *InMemoryFlowStore) PersistFlow(ctx context.Context, id string, attrs api.FlowAttributes) (*api.Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flows[id]
	if !ok {
		return nil, notFound(id)
	}
	updated := applyAttributes(f, attrs, s.now())
	s.flows[id] = updated
	return updated.Clone(), nil
}

func (s *InMemoryFlowStore) DeleteFlow(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.flows[id]; !ok {
		return notFound(id)
	}
	delete(s.flows, id)
	return nil
}

// Put stores f as is, replacing any flow with the same id. It is meant for
// seeding fixtures.
func (s *InMemoryFlowStore) Put(f *api.Flow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[f.ID] = f.Clone()
}
