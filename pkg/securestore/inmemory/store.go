package inmemorystore

import (
	"context"
	"sync"

	"github.com/tdex-network/notewallet/pkg/securestore"
)

type store struct {
	lock  *sync.RWMutex
	items map[string]string
}

// NewStore returns an in-memory storage provider, mainly used for tests.
func NewStore() securestore.Provider {
	return &store{&sync.RWMutex{}, map[string]string{}}
}

func (s *store) Get(_ context.Context, keys []string) (map[string]string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	res := make(map[string]string)
	for _, k := range keys {
		if v, ok := s.items[k]; ok {
			res[k] = v
		}
	}
	return res, nil
}

func (s *store) Set(_ context.Context, items map[string]string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	for k, v := range items {
		s.items[k] = v
	}
	return nil
}

func (s *store) Remove(_ context.Context, keys []string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, k := range keys {
		delete(s.items, k)
	}
	return nil
}

func (s *store) Close() error { return nil }
