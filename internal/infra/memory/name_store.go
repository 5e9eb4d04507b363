package memory

import (
	"context"
	"sync"

	"recapp-sync-service/internal/domain"
)

// NameStore is an in-memory adapter over the external user directory. Ids
// without a known name are skipped, not errors.
type NameStore struct {
	mu    sync.RWMutex
	names map[string]domain.UserName
}

func NewNameStore() *NameStore {
	return &NameStore{names: make(map[string]domain.UserName)}
}

func (s *NameStore) Put(userID string, name domain.UserName) {
	s.mu.Lock()
	s.names[userID] = name
	s.mu.Unlock()
}

func (s *NameStore) GetNames(_ context.Context, ids []string) ([]domain.UserName, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]domain.UserName, 0, len(ids))
	for _, id := range ids {
		if name, ok := s.names[id]; ok {
			names = append(names, name)
		}
	}
	return names, nil
}
