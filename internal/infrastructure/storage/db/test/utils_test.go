package db_test

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/tdex-network/notewallet/internal/core/ports"
	dbbadger "github.com/tdex-network/notewallet/internal/infrastructure/storage/db/badger"
	"github.com/tdex-network/notewallet/internal/infrastructure/storage/db/inmemory"
)

type repoManager struct {
	Name    string
	Manager ports.RepoManager
}

// createRepoManagers returns every implementation of the repo manager. The
// badger one is backed by a temporary dir.
func createRepoManagers(t *testing.T) []repoManager {
	badgerManager, err := dbbadger.NewRepoManager(t.TempDir(), nil)
	require.NoError(t, err)

	inMemoryBadgerManager, err := dbbadger.NewRepoManager("", nil)
	require.NoError(t, err)

	managers := []repoManager{
		{"inmemory", inmemory.NewRepoManager()},
		{"badger", badgerManager},
		{"badger_inmemory", inMemoryBadgerManager},
	}
	t.Cleanup(func() {
		for _, m := range managers {
			m.Manager.Close()
		}
	})
	return managers
}

func makeRandomTransaction(createdAt int64) *domain.QueuedTransaction {
	tx, _ := domain.NewQueuedTransaction(
		domain.TransactionTypeSend, randomHex(33), json.RawMessage(`{"to":"`+randomHex(20)+`"}`),
	)
	tx.CreatedAt = createdAt
	return tx
}

func makeRandomRecords(num int, address string) []domain.OwnedRecord {
	records := make([]domain.OwnedRecord, 0, num)
	for i := 0; i < num; i++ {
		records = append(records, domain.NewOwnedRecord(address, domain.RecordMetadata{
			ID:           int64(randomIntInRange(1, 1000000)),
			TransitionID: randomHex(32),
			NonceX:       randomHex(32),
			NonceY:       randomHex(32),
			OwnerX:       randomHex(32),
			BlockHeight:  int64(randomIntInRange(1, 100000)),
		}))
	}
	return records
}

func randomHex(len int) string {
	return hex.EncodeToString(randomBytes(len))
}

func randomBytes(len int) []byte {
	b := make([]byte, len)
	//nolint
	rand.Read(b)
	return b
}

func randomIntInRange(min, max int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(max-min)))
	return int(n.Int64()) + min
}
