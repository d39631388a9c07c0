package kernel

import (
	"context"

	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/tdex-network/notewallet/internal/core/ports"
)

type cpuKernel struct {
	batchSize int
}

// NewCPUKernel returns a kernel scanning records sequentially.
func NewCPUKernel(batchSize int) ports.OwnershipKernel {
	if batchSize <= 0 {
		batchSize = DefaultCPUBatchSize
	}
	return &cpuKernel{batchSize}
}

func (k *cpuKernel) Name() string {
	return "cpu"
}

func (k *cpuKernel) BatchSize() int {
	return k.batchSize
}

func (k *cpuKernel) Scan(
	ctx context.Context, keys []ports.ViewKey, records []domain.RecordMetadata,
) ([]domain.OwnedRecord, error) {
	parsed, err := parseKeys(keys)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scanRecords(parsed, records), nil
}
