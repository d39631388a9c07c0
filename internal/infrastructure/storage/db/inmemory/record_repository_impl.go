package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/tdex-network/notewallet/internal/core/domain"
)

type ownedRecordRepositoryImpl struct {
	locker  *sync.RWMutex
	records map[string]domain.OwnedRecord
}

// NewOwnedRecordRepositoryImpl returns a new empty OwnedRecordRepository.
func NewOwnedRecordRepositoryImpl() domain.OwnedRecordRepository {
	return &ownedRecordRepositoryImpl{
		locker:  &sync.RWMutex{},
		records: make(map[string]domain.OwnedRecord),
	}
}

func (r *ownedRecordRepositoryImpl) AddRecords(
	_ context.Context, records ...domain.OwnedRecord,
) (int, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	count := 0
	for _, rec := range records {
		key := rec.Key()
		if _, ok := r.records[key]; ok {
			continue
		}
		r.records[key] = rec
		count++
	}
	return count, nil
}

func (r *ownedRecordRepositoryImpl) GetRecord(
	_ context.Context, key string,
) (*domain.OwnedRecord, error) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	rec, ok := r.records[key]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &rec, nil
}

func (r *ownedRecordRepositoryImpl) GetRecordsForAddress(
	_ context.Context, address string,
) ([]domain.OwnedRecord, error) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	return r.find(func(rec domain.OwnedRecord) bool {
		return rec.Address == address
	}), nil
}

func (r *ownedRecordRepositoryImpl) GetUntaggedRecords(
	_ context.Context,
) ([]domain.OwnedRecord, error) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	return r.find(func(rec domain.OwnedRecord) bool {
		return !rec.IsTagged()
	}), nil
}

func (r *ownedRecordRepositoryImpl) GetAllRecords(
	_ context.Context,
) ([]domain.OwnedRecord, error) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	return r.find(func(domain.OwnedRecord) bool { return true }), nil
}

func (r *ownedRecordRepositoryImpl) UpdateRecord(
	_ context.Context, key string,
	updateFn func(r *domain.OwnedRecord) (*domain.OwnedRecord, error),
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	rec, ok := r.records[key]
	if !ok {
		return ErrRecordNotFound
	}
	updated, err := updateFn(&rec)
	if err != nil {
		return err
	}
	r.records[key] = *updated
	return nil
}

func (r *ownedRecordRepositoryImpl) find(
	filter func(rec domain.OwnedRecord) bool,
) []domain.OwnedRecord {
	records := make([]domain.OwnedRecord, 0)
	for _, rec := range r.records {
		if filter(rec) {
			records = append(records, rec)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].ID == records[j].ID {
			return records[i].Key() < records[j].Key()
		}
		return records[i].ID < records[j].ID
	})
	return records
}
