package dbbadger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type accountMetadataRepositoryImpl struct {
	store *badgerhold.Store
}

// NewAccountMetadataRepositoryImpl initialize a badger implementation of the
// domain.AccountMetadataRepository
func NewAccountMetadataRepositoryImpl(store *badgerhold.Store) domain.AccountMetadataRepository {
	return accountMetadataRepositoryImpl{store}
}

func (r accountMetadataRepositoryImpl) AddMetadata(
	_ context.Context, metadata domain.AccountCreationMetadata,
) error {
	err := r.store.Insert(metadata.Address, metadata)
	if errors.Is(err, badgerhold.ErrKeyExists) {
		return nil
	}
	return err
}

func (r accountMetadataRepositoryImpl) GetMetadata(
	_ context.Context, address string,
) (*domain.AccountCreationMetadata, error) {
	m := domain.AccountCreationMetadata{}
	if err := r.store.Get(address, &m); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, ErrMetadataNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r accountMetadataRepositoryImpl) GetAllMetadata(
	_ context.Context,
) ([]domain.AccountCreationMetadata, error) {
	var list []domain.AccountCreationMetadata
	query := (&badgerhold.Query{}).SortBy("Address")
	if err := r.store.Find(&list, query); err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.AccountCreationMetadata{}
	}
	return list, nil
}

func (r accountMetadataRepositoryImpl) UpdateMetadata(
	_ context.Context, address string,
	updateFn func(m *domain.AccountCreationMetadata) (*domain.AccountCreationMetadata, error),
) error {
	return r.store.Badger().Update(func(txn *badger.Txn) error {
		m := domain.AccountCreationMetadata{}
		if err := r.store.TxGet(txn, address, &m); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return ErrMetadataNotFound
			}
			return err
		}

		updated, err := updateFn(&m)
		if err != nil {
			return err
		}
		return r.store.TxUpdate(txn, address, *updated)
	})
}
