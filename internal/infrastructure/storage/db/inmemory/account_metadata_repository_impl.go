package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/tdex-network/notewallet/internal/core/domain"
)

type accountMetadataRepositoryImpl struct {
	locker   *sync.RWMutex
	metadata map[string]domain.AccountCreationMetadata
}

// NewAccountMetadataRepositoryImpl returns a new empty
// AccountMetadataRepository.
func NewAccountMetadataRepositoryImpl() domain.AccountMetadataRepository {
	return &accountMetadataRepositoryImpl{
		locker:   &sync.RWMutex{},
		metadata: make(map[string]domain.AccountCreationMetadata),
	}
}

// AddMetadata doesn't overwrite already existing metadata for the same
// address.
func (r *accountMetadataRepositoryImpl) AddMetadata(
	_ context.Context, metadata domain.AccountCreationMetadata,
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	if _, ok := r.metadata[metadata.Address]; ok {
		return nil
	}
	r.metadata[metadata.Address] = metadata
	return nil
}

func (r *accountMetadataRepositoryImpl) GetMetadata(
	_ context.Context, address string,
) (*domain.AccountCreationMetadata, error) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	m, ok := r.metadata[address]
	if !ok {
		return nil, ErrMetadataNotFound
	}
	return &m, nil
}

func (r *accountMetadataRepositoryImpl) GetAllMetadata(
	_ context.Context,
) ([]domain.AccountCreationMetadata, error) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	list := make([]domain.AccountCreationMetadata, 0, len(r.metadata))
	for _, m := range r.metadata {
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Address < list[j].Address
	})
	return list, nil
}

func (r *accountMetadataRepositoryImpl) UpdateMetadata(
	_ context.Context, address string,
	updateFn func(m *domain.AccountCreationMetadata) (*domain.AccountCreationMetadata, error),
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	m, ok := r.metadata[address]
	if !ok {
		return ErrMetadataNotFound
	}
	updated, err := updateFn(&m)
	if err != nil {
		return err
	}
	r.metadata[address] = *updated
	return nil
}
