package inmemory

import (
	"context"
	"sync"

	"github.com/tdex-network/notewallet/internal/core/domain"
)

type syncStateRepositoryImpl struct {
	locker *sync.RWMutex
	state  domain.SyncState
}

// NewSyncStateRepositoryImpl returns a SyncStateRepository with cursor 0.
func NewSyncStateRepositoryImpl() domain.SyncStateRepository {
	return &syncStateRepositoryImpl{
		locker: &sync.RWMutex{},
		state:  domain.SyncState{Addresses: []string{}},
	}
}

func (r *syncStateRepositoryImpl) GetSyncState(
	_ context.Context,
) (*domain.SyncState, error) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	state := domain.SyncState{
		Cursor:    r.state.Cursor,
		Addresses: append([]string{}, r.state.Addresses...),
	}
	return &state, nil
}

func (r *syncStateRepositoryImpl) UpdateSyncState(
	_ context.Context, state domain.SyncState,
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	r.state = domain.SyncState{
		Cursor:    state.Cursor,
		Addresses: append([]string{}, state.Addresses...),
	}
	return nil
}
