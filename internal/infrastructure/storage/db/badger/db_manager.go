package dbbadger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/tdex-network/notewallet/internal/core/ports"
	"github.com/timshannon/badgerhold/v4"
)

const (
	walletStoreDir      = "wallet"
	transactionStoreDir = "transactions"
	gcInterval          = 30 * time.Minute
)

type repoManager struct {
	walletStore *badgerhold.Store
	txStore     *badgerhold.Store
	quit        chan struct{}

	transactionRepository     domain.TransactionRepository
	recordRepository          domain.OwnedRecordRepository
	accountMetadataRepository domain.AccountMetadataRepository
	syncStateRepository       domain.SyncStateRepository
	dappSessionRepository     domain.DAppSessionRepository
}

// NewRepoManager opens (or creates if not exists) the badger stores in
// baseDbDir, one for the wallet data and one for the transaction queue. An
// empty baseDbDir makes the stores live in memory.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	var walletDir, txDir string
	if len(baseDbDir) > 0 {
		walletDir = filepath.Join(baseDbDir, walletStoreDir)
		txDir = filepath.Join(baseDbDir, transactionStoreDir)
	}

	walletStore, err := createDb(walletDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening wallet db: %w", err)
	}

	txStore, err := createDb(txDir, logger)
	if err != nil {
		// nolint
		walletStore.Close()
		return nil, fmt.Errorf("opening transactions db: %w", err)
	}

	m := &repoManager{
		walletStore:               walletStore,
		txStore:                   txStore,
		quit:                      make(chan struct{}),
		transactionRepository:     NewTransactionRepositoryImpl(txStore),
		recordRepository:          NewOwnedRecordRepositoryImpl(walletStore),
		accountMetadataRepository: NewAccountMetadataRepositoryImpl(walletStore),
		syncStateRepository:       NewSyncStateRepositoryImpl(walletStore),
		dappSessionRepository:     NewDAppSessionRepositoryImpl(walletStore),
	}
	if len(baseDbDir) > 0 {
		go m.runValueLogGC(logger)
	}
	return m, nil
}

func (m *repoManager) TransactionRepository() domain.TransactionRepository {
	return m.transactionRepository
}

func (m *repoManager) OwnedRecordRepository() domain.OwnedRecordRepository {
	return m.recordRepository
}

func (m *repoManager) AccountMetadataRepository() domain.AccountMetadataRepository {
	return m.accountMetadataRepository
}

func (m *repoManager) SyncStateRepository() domain.SyncStateRepository {
	return m.syncStateRepository
}

func (m *repoManager) DAppSessionRepository() domain.DAppSessionRepository {
	return m.dappSessionRepository
}

func (m *repoManager) Close() {
	close(m.quit)
	// nolint
	m.walletStore.Close()
	// nolint
	m.txStore.Close()
}

func (m *repoManager) runValueLogGC(logger badger.Logger) {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.quit:
			return
		case <-ticker.C:
			for _, s := range []*badgerhold.Store{m.walletStore, m.txStore} {
				if err := s.Badger().RunValueLogGC(0.5); err != nil &&
					err != badger.ErrNoRewrite && logger != nil {
					logger.Errorf("%s", err)
				}
			}
		}
	}
}

// JSONEncode is a custom JSON based encoder for badger
func JSONEncode(value interface{}) ([]byte, error) {
	var buff bytes.Buffer

	en := json.NewEncoder(&buff)

	err := en.Encode(value)
	if err != nil {
		return nil, err
	}

	return buff.Bytes(), nil
}

// JSONDecode is a custom JSON based decoder for badger
func JSONDecode(data []byte, value interface{}) error {
	var buff bytes.Buffer
	de := json.NewDecoder(&buff)

	_, err := buff.Write(data)
	if err != nil {
		return err
	}

	return de.Decode(value)
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger
	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	return badgerhold.Open(badgerhold.Options{
		Encoder:          JSONEncode,
		Decoder:          JSONDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}
