package domain

import "context"

// OwnedRecordRepository is the abstraction for any kind of database intended
// to persist owned records.
type OwnedRecordRepository interface {
	// AddRecords stores the given records, skipping those already stored. It
	// returns the number of records actually added.
	AddRecords(ctx context.Context, records ...OwnedRecord) (int, error)
	// GetRecord returns the record with the given key.
	GetRecord(ctx context.Context, key string) (*OwnedRecord, error)
	// GetRecordsForAddress returns the records owned by the given address,
	// ordered by id.
	GetRecordsForAddress(ctx context.Context, address string) ([]OwnedRecord, error)
	// GetUntaggedRecords returns all the records not yet tagged, ordered by id.
	GetUntaggedRecords(ctx context.Context) ([]OwnedRecord, error)
	// GetAllRecords returns all records, ordered by id.
	GetAllRecords(ctx context.Context) ([]OwnedRecord, error)
	// UpdateRecord allows to commit multiple changes to the same record in a
	// transactional way.
	UpdateRecord(
		ctx context.Context,
		key string, updateFn func(r *OwnedRecord) (*OwnedRecord, error),
	) error
}

// AccountMetadataRepository persists the creation metadata of the addresses
// of the wallet.
type AccountMetadataRepository interface {
	AddMetadata(ctx context.Context, metadata AccountCreationMetadata) error
	GetMetadata(ctx context.Context, address string) (*AccountCreationMetadata, error)
	GetAllMetadata(ctx context.Context) ([]AccountCreationMetadata, error)
	UpdateMetadata(
		ctx context.Context,
		address string,
		updateFn func(m *AccountCreationMetadata) (*AccountCreationMetadata, error),
	) error
}

// SyncStateRepository persists the scanning progress.
type SyncStateRepository interface {
	GetSyncState(ctx context.Context) (*SyncState, error)
	UpdateSyncState(ctx context.Context, state SyncState) error
}
