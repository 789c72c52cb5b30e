package plugin

import (
	"context"
	"sort"
	"sync"
)

// Store persists plugin manifests across restarts.
type Store interface {
	Load(ctx context.Context) ([]Manifest, error)
	Save(ctx context.Context, m Manifest) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// MemoryStore keeps manifests in memory. It is the default store and the one
// used by tests.
type MemoryStore struct {
	mu        sync.Mutex
	manifests map[string]Manifest
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{manifests: make(map[string]Manifest)}
}

func (s *MemoryStore) Load(context.Context) ([]Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Manifest, 0, len(s.manifests))
	for _, m := range s.manifests {
		out = append(out, m.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Save(_ context.Context, m Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifests[m.ID] = m.clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.manifests, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
