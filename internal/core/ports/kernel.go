package ports

import (
	"context"

	"github.com/tdex-network/notewallet/internal/core/domain"
)

// OwnershipKernel tests chain records against a set of view keys. Every
// record goes through the same operations regardless of the outcome.
type OwnershipKernel interface {
	// Name identifies the kernel in logs.
	Name() string
	// BatchSize is the preferred number of records per Scan call.
	BatchSize() int
	// Scan returns the records owned by any of the keys.
	Scan(
		ctx context.Context, keys []ViewKey, records []domain.RecordMetadata,
	) ([]domain.OwnedRecord, error)
}

// TagProofInput is what's needed to prove the tag of an owned record.
type TagProofInput struct {
	Tag      string
	TagIndex uint64
	Address  string
	ViewKey  string
	Record   domain.OwnedRecord
}

// TagProof ...
type TagProof struct {
	RecordKey string
	RecordID  int64
	Tag       string
	TagIndex  uint64
	Proof     string
}

// TagProver generates the proofs of the given tags. A proof that can't be
// generated is reported in the errors map keyed by record key.
type TagProver interface {
	ProveTags(
		ctx context.Context, inputs []TagProofInput,
	) ([]TagProof, map[string]error)
}
