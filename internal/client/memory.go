package client

import (
	"context"
	"sync"

	"github.com/dineflow/hookbridge/internal/provider"
)

// MemoryStore keeps client configuration in process memory. Used in tests and
// in single-node deployments that provision clients at startup.
type MemoryStore struct {
	mu      sync.RWMutex
	configs map[string]*Config
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{configs: make(map[string]*Config)}
}

func key(p provider.Provider, clientID string) string {
	return string(p) + "/" + clientID
}

func (s *MemoryStore) Get(_ context.Context, p provider.Provider, clientID string) (*Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[key(p, clientID)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *cfg
	return &cp, nil
}

func (s *MemoryStore) Put(_ context.Context, cfg *Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *cfg
	s.configs[key(cfg.Provider, cfg.ClientID)] = &cp
	return nil
}

func (s *MemoryStore) List(_ context.Context, p provider.Provider) ([]*Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Config
	for _, cfg := range s.configs {
		if cfg.Provider == p {
			cp := *cfg
			out = append(out, &cp)
		}
	}
	return out, nil
}
