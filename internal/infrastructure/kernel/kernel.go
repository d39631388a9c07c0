package kernel

import (
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/tdex-network/notewallet/internal/core/ports"
	"github.com/tdex-network/notewallet/pkg/wallet"
)

const (
	// DefaultCPUBatchSize is the number of records scanned per call by the
	// cpu kernel.
	DefaultCPUBatchSize = 5000
	// DefaultGPUBatchSize is the number of records scanned per call by the
	// accelerated kernel.
	DefaultGPUBatchSize = 200000

	// minRecordsPerWorker is the least number of records that justifies
	// splitting a batch among workers.
	minRecordsPerWorker = 10
)

// Opts ...
type Opts struct {
	// UseGPU selects the accelerated kernel when available.
	UseGPU    bool
	BatchSize int
	Workers   int
}

// New returns the accelerated kernel if requested and available, the cpu
// one otherwise.
func New(opts Opts) ports.OwnershipKernel {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	if opts.UseGPU {
		if workers > 1 {
			return NewGPUKernel(opts.BatchSize, workers)
		}
		log.Warn("accelerated scanning unavailable, falling back to cpu kernel")
	}
	return NewCPUKernel(opts.BatchSize)
}

// DefaultWorkers is half the number of cpus, at least 1.
func DefaultWorkers() int {
	n := runtime.NumCPU() / 2
	if n < 1 {
		return 1
	}
	return n
}

type scanKey struct {
	key *wallet.OwnershipKey
}

func parseKeys(keys []ports.ViewKey) ([]scanKey, error) {
	parsed := make([]scanKey, 0, len(keys))
	for _, k := range keys {
		key, err := wallet.NewOwnershipKey(k.Address, k.ViewKey)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, scanKey{key})
	}
	return parsed, nil
}

// scanRecords tests every record against every key. Records that can't be
// parsed are considered not owned.
func scanRecords(
	keys []scanKey, records []domain.RecordMetadata,
) []domain.OwnedRecord {
	owned := make([]domain.OwnedRecord, 0)
	for _, r := range records {
		var owner string
		for _, k := range keys {
			ok, err := k.key.Owns(r.NonceX, r.NonceY, r.OwnerX)
			if err != nil {
				log.Tracef("skipping malformed record %d: %s", r.ID, err)
				continue
			}
			if ok && owner == "" {
				owner = k.key.Address()
			}
		}
		if owner != "" {
			owned = append(owned, domain.NewOwnedRecord(owner, r))
		}
	}
	return owned
}
