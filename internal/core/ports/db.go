package ports

import (
	"github.com/tdex-network/notewallet/internal/core/domain"
)

// RepoManager interface defines the methods to access the repositories of
// all the persisted entities.
type RepoManager interface {
	TransactionRepository() domain.TransactionRepository
	OwnedRecordRepository() domain.OwnedRecordRepository
	AccountMetadataRepository() domain.AccountMetadataRepository
	SyncStateRepository() domain.SyncStateRepository
	DAppSessionRepository() domain.DAppSessionRepository

	Close()
}
