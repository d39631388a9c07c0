package ports

import (
	"context"
	"encoding/json"

	"github.com/tdex-network/notewallet/internal/core/domain"
)

// UnsignedTransaction is a transaction built by the chain client, ready to be
// signed by the account owning its inputs.
type UnsignedTransaction struct {
	ID string `json:"id"`
	// SigningInputs is the hex encoded message to sign.
	SigningInputs string          `json:"signingInputs"`
	Body          json.RawMessage `json:"body"`
}

// ProvenTransaction is a signed transaction with its validity proof.
type ProvenTransaction struct {
	ID    string          `json:"id"`
	Body  json.RawMessage `json:"body"`
	Proof string          `json:"proof"`
}

// ChainClient is the network client used to sync records and to build, prove
// and submit transactions. Implementations are not safe for concurrent use and
// callers must serialize access.
type ChainClient interface {
	GetBlockHeight(ctx context.Context) (int64, error)
	// GetRecords returns at most limit records with id greater than afterID,
	// ordered by id.
	GetRecords(
		ctx context.Context, afterID int64, limit int,
	) ([]domain.RecordMetadata, error)
	// GetLatestRecordID returns the id of the last record created at or
	// before the given block height.
	GetLatestRecordID(ctx context.Context, blockHeight int64) (int64, error)
	TagRecord(ctx context.Context, recordID int64, tag, proof string) error

	BuildTransaction(
		ctx context.Context, tx domain.QueuedTransaction,
	) (*UnsignedTransaction, error)
	ProveTransaction(
		ctx context.Context, tx UnsignedTransaction, signature string,
	) (*ProvenTransaction, error)
	SubmitTransaction(ctx context.Context, tx ProvenTransaction) (string, error)
}
