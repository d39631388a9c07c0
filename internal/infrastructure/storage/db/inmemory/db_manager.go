package inmemory

import (
	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/tdex-network/notewallet/internal/core/ports"
)

type RepoManager struct {
	transactionRepository     domain.TransactionRepository
	recordRepository          domain.OwnedRecordRepository
	accountMetadataRepository domain.AccountMetadataRepository
	syncStateRepository       domain.SyncStateRepository
	dappSessionRepository     domain.DAppSessionRepository
}

func NewRepoManager() ports.RepoManager {
	return &RepoManager{
		transactionRepository:     NewTransactionRepositoryImpl(),
		recordRepository:          NewOwnedRecordRepositoryImpl(),
		accountMetadataRepository: NewAccountMetadataRepositoryImpl(),
		syncStateRepository:       NewSyncStateRepositoryImpl(),
		dappSessionRepository:     NewDAppSessionRepositoryImpl(),
	}
}

func (d *RepoManager) TransactionRepository() domain.TransactionRepository {
	return d.transactionRepository
}

func (d *RepoManager) OwnedRecordRepository() domain.OwnedRecordRepository {
	return d.recordRepository
}

func (d *RepoManager) AccountMetadataRepository() domain.AccountMetadataRepository {
	return d.accountMetadataRepository
}

func (d *RepoManager) SyncStateRepository() domain.SyncStateRepository {
	return d.syncStateRepository
}

func (d *RepoManager) DAppSessionRepository() domain.DAppSessionRepository {
	return d.dappSessionRepository
}

func (d *RepoManager) Close() {}
