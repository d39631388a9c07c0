package dbbadger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type ownedRecordRepositoryImpl struct {
	store *badgerhold.Store
}

// NewOwnedRecordRepositoryImpl initialize a badger implementation of the
// domain.OwnedRecordRepository
func NewOwnedRecordRepositoryImpl(store *badgerhold.Store) domain.OwnedRecordRepository {
	return ownedRecordRepositoryImpl{store}
}

func (r ownedRecordRepositoryImpl) AddRecords(
	_ context.Context, records ...domain.OwnedRecord,
) (int, error) {
	count := 0
	err := r.store.Badger().Update(func(txn *badger.Txn) error {
		for _, rec := range records {
			if err := r.store.TxInsert(txn, rec.Key(), rec); err != nil {
				if errors.Is(err, badgerhold.ErrKeyExists) {
					continue
				}
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return -1, err
	}
	return count, nil
}

func (r ownedRecordRepositoryImpl) GetRecord(
	_ context.Context, key string,
) (*domain.OwnedRecord, error) {
	rec := domain.OwnedRecord{}
	if err := r.store.Get(key, &rec); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r ownedRecordRepositoryImpl) GetRecordsForAddress(
	_ context.Context, address string,
) ([]domain.OwnedRecord, error) {
	return r.findRecords(badgerhold.Where("Address").Eq(address))
}

func (r ownedRecordRepositoryImpl) GetUntaggedRecords(
	_ context.Context,
) ([]domain.OwnedRecord, error) {
	return r.findRecords(badgerhold.Where("Tag").Eq(""))
}

func (r ownedRecordRepositoryImpl) GetAllRecords(
	_ context.Context,
) ([]domain.OwnedRecord, error) {
	return r.findRecords(&badgerhold.Query{})
}

func (r ownedRecordRepositoryImpl) UpdateRecord(
	_ context.Context, key string,
	updateFn func(r *domain.OwnedRecord) (*domain.OwnedRecord, error),
) error {
	return r.store.Badger().Update(func(txn *badger.Txn) error {
		rec := domain.OwnedRecord{}
		if err := r.store.TxGet(txn, key, &rec); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return ErrRecordNotFound
			}
			return err
		}

		updated, err := updateFn(&rec)
		if err != nil {
			return err
		}
		return r.store.TxUpdate(txn, key, *updated)
	})
}

func (r ownedRecordRepositoryImpl) findRecords(
	query *badgerhold.Query,
) ([]domain.OwnedRecord, error) {
	var records []domain.OwnedRecord
	if err := r.store.Find(&records, query.SortBy("ID")); err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.OwnedRecord{}
	}
	return records, nil
}
