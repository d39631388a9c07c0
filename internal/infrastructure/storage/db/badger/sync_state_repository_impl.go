package dbbadger

import (
	"context"
	"errors"

	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const syncStateKey = "sync_state"

type syncStateRepositoryImpl struct {
	store *badgerhold.Store
}

// NewSyncStateRepositoryImpl initialize a badger implementation of the
// domain.SyncStateRepository
func NewSyncStateRepositoryImpl(store *badgerhold.Store) domain.SyncStateRepository {
	return syncStateRepositoryImpl{store}
}

func (r syncStateRepositoryImpl) GetSyncState(
	_ context.Context,
) (*domain.SyncState, error) {
	state := domain.SyncState{}
	if err := r.store.Get(syncStateKey, &state); err != nil {
		if !errors.Is(err, badgerhold.ErrNotFound) {
			return nil, err
		}
	}
	if state.Addresses == nil {
		state.Addresses = []string{}
	}
	return &state, nil
}

func (r syncStateRepositoryImpl) UpdateSyncState(
	_ context.Context, state domain.SyncState,
) error {
	return r.store.Upsert(syncStateKey, state)
}
