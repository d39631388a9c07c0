package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TransactionType ...
type TransactionType string

const (
	TransactionTypeSend    TransactionType = "Send"
	TransactionTypeConsume TransactionType = "Consume"
	TransactionTypeCustom  TransactionType = "Custom"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeSend, TransactionTypeConsume, TransactionTypeCustom:
		return true
	default:
		return false
	}
}

// TransactionStatus ...
type TransactionStatus string

const (
	TransactionStatusQueued      TransactionStatus = "Queued"
	TransactionStatusAuthorizing TransactionStatus = "Authorizing"
	TransactionStatusGenerating  TransactionStatus = "Generating"
	TransactionStatusSubmitting  TransactionStatus = "Submitting"
	TransactionStatusCompleted   TransactionStatus = "Completed"
	TransactionStatusFailed      TransactionStatus = "Failed"
)

var nextStatus = map[TransactionStatus]TransactionStatus{
	TransactionStatusQueued:      TransactionStatusAuthorizing,
	TransactionStatusAuthorizing: TransactionStatusGenerating,
	TransactionStatusGenerating:  TransactionStatusSubmitting,
	TransactionStatusSubmitting:  TransactionStatusCompleted,
}

// IsTerminal returns whether no further transition is possible.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// IsInProgress returns whether a generation attempt is running.
func (s TransactionStatus) IsInProgress() bool {
	return s == TransactionStatusAuthorizing ||
		s == TransactionStatusGenerating ||
		s == TransactionStatusSubmitting
}

// QueuedTransaction is a transaction requested by the user and waiting to be
// built, signed, proven and submitted by the generation pipeline.
type QueuedTransaction struct {
	ID                  string            `json:"id"`
	Type                TransactionType   `json:"type"`
	Status              TransactionStatus `json:"status"`
	AccountPublicKey    string            `json:"accountPublicKey"`
	Payload             json.RawMessage   `json:"payload,omitempty"`
	CreatedAt           int64             `json:"createdAt"`
	ProcessingStartedAt int64             `json:"processingStartedAt,omitempty"`
	CompletedAt         int64             `json:"completedAt,omitempty"`
	TxHash              string            `json:"txHash,omitempty"`
	Error               string            `json:"error,omitempty"`
}

// NewQueuedTransaction returns a new transaction in Queued status.
func NewQueuedTransaction(
	txType TransactionType, accountPublicKey string, payload json.RawMessage,
) (*QueuedTransaction, error) {
	if !txType.IsValid() {
		return nil, ErrInvalidTransactionType
	}
	if accountPublicKey == "" {
		return nil, ErrAccountNotFound
	}
	return &QueuedTransaction{
		ID:               uuid.New().String(),
		Type:             txType,
		Status:           TransactionStatusQueued,
		AccountPublicKey: accountPublicKey,
		Payload:          payload,
		CreatedAt:        time.Now().Unix(),
	}, nil
}

// Advance moves the transaction to the next step of the pipeline.
func (t *QueuedTransaction) Advance() error {
	if t.Status.IsTerminal() {
		return ErrTransactionFinalized
	}
	next, ok := nextStatus[t.Status]
	if !ok {
		return ErrInvalidStatusTransition
	}

	now := time.Now().Unix()
	if t.Status == TransactionStatusQueued {
		t.ProcessingStartedAt = now
	}
	if next == TransactionStatusCompleted {
		t.CompletedAt = now
	}
	t.Status = next
	return nil
}

// Complete marks the transaction as Completed with the given hash. It must be
// in Submitting status.
func (t *QueuedTransaction) Complete(txHash string) error {
	if t.Status != TransactionStatusSubmitting {
		if t.Status.IsTerminal() {
			return ErrTransactionFinalized
		}
		return ErrInvalidStatusTransition
	}
	if err := t.Advance(); err != nil {
		return err
	}
	t.TxHash = txHash
	return nil
}

// Fail marks the transaction as Failed with the given reason.
func (t *QueuedTransaction) Fail(reason string) error {
	if t.Status.IsTerminal() {
		return ErrTransactionFinalized
	}
	t.Status = TransactionStatusFailed
	t.Error = reason
	t.CompletedAt = time.Now().Unix()
	return nil
}

// IsStuck returns whether the transaction has been in progress for longer
// than maxWait.
func (t *QueuedTransaction) IsStuck(now time.Time, maxWait time.Duration) bool {
	if !t.Status.IsInProgress() {
		return false
	}
	startedAt := time.Unix(t.ProcessingStartedAt, 0)
	return now.Sub(startedAt) > maxWait
}
