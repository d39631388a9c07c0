package domain

import "context"

// TransactionRepository is the abstraction for any kind of database intended
// to persist queued transactions.
type TransactionRepository interface {
	// AddTransaction adds a new transaction to the repository.
	AddTransaction(ctx context.Context, tx *QueuedTransaction) error
	// GetTransaction returns the transaction with the given id.
	GetTransaction(ctx context.Context, id string) (*QueuedTransaction, error)
	// GetTransactionsByStatus returns all transactions in any of the given
	// statuses, oldest first.
	GetTransactionsByStatus(
		ctx context.Context, statuses ...TransactionStatus,
	) ([]QueuedTransaction, error)
	// GetAllTransactions returns all transactions, oldest first.
	GetAllTransactions(ctx context.Context) ([]QueuedTransaction, error)
	// UpdateTransaction allows to commit multiple changes to the same
	// transaction in a transactional way.
	UpdateTransaction(
		ctx context.Context,
		id string, updateFn func(tx *QueuedTransaction) (*QueuedTransaction, error),
	) error
	// DeleteTransaction removes a transaction from the repository.
	DeleteTransaction(ctx context.Context, id string) error
}
