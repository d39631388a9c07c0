package kernel

import (
	"context"

	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/tdex-network/notewallet/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

type gpuKernel struct {
	batchSize int
	workers   int
}

// NewGPUKernel returns a kernel splitting large batches of records among
// parallel workers.
func NewGPUKernel(batchSize, workers int) ports.OwnershipKernel {
	if batchSize <= 0 {
		batchSize = DefaultGPUBatchSize
	}
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	return &gpuKernel{batchSize, workers}
}

func (k *gpuKernel) Name() string {
	return "gpu"
}

func (k *gpuKernel) BatchSize() int {
	return k.batchSize
}

func (k *gpuKernel) Scan(
	ctx context.Context, keys []ports.ViewKey, records []domain.RecordMetadata,
) ([]domain.OwnedRecord, error) {
	parsed, err := parseKeys(keys)
	if err != nil {
		return nil, err
	}

	chunks := chunk(records, k.workers)
	results := make([][]domain.OwnedRecord, len(chunks))

	eg, ctx := errgroup.WithContext(ctx)
	for i := range chunks {
		i := i
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = scanRecords(parsed, chunks[i])
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	owned := make([]domain.OwnedRecord, 0)
	for _, r := range results {
		owned = append(owned, r...)
	}
	return owned, nil
}

// chunk splits records into at most workers chunks, or returns a single one
// if there are too few records.
func chunk(
	records []domain.RecordMetadata, workers int,
) [][]domain.RecordMetadata {
	if len(records) < workers*minRecordsPerWorker {
		return [][]domain.RecordMetadata{records}
	}

	size := (len(records) + workers - 1) / workers
	chunks := make([][]domain.RecordMetadata, 0, workers)
	for i := 0; i < len(records); i += size {
		end := i + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[i:end])
	}
	return chunks
}
