package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/tdex-network/notewallet/internal/core/domain"
)

type transactionRepositoryImpl struct {
	locker       *sync.RWMutex
	transactions map[string]domain.QueuedTransaction
}

// NewTransactionRepositoryImpl returns a new empty TransactionRepository.
func NewTransactionRepositoryImpl() domain.TransactionRepository {
	return &transactionRepositoryImpl{
		locker:       &sync.RWMutex{},
		transactions: make(map[string]domain.QueuedTransaction),
	}
}

func (r *transactionRepositoryImpl) AddTransaction(
	_ context.Context, tx *domain.QueuedTransaction,
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	if _, ok := r.transactions[tx.ID]; ok {
		return ErrTransactionAlreadyExists
	}
	r.transactions[tx.ID] = copyTransaction(*tx)
	return nil
}

func (r *transactionRepositoryImpl) GetTransaction(
	_ context.Context, id string,
) (*domain.QueuedTransaction, error) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	tx, ok := r.transactions[id]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	tx = copyTransaction(tx)
	return &tx, nil
}

func (r *transactionRepositoryImpl) GetTransactionsByStatus(
	_ context.Context, statuses ...domain.TransactionStatus,
) ([]domain.QueuedTransaction, error) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	filter := make(map[domain.TransactionStatus]bool, len(statuses))
	for _, s := range statuses {
		filter[s] = true
	}
	return r.find(func(tx domain.QueuedTransaction) bool {
		return filter[tx.Status]
	}), nil
}

func (r *transactionRepositoryImpl) GetAllTransactions(
	_ context.Context,
) ([]domain.QueuedTransaction, error) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	return r.find(func(domain.QueuedTransaction) bool { return true }), nil
}

func (r *transactionRepositoryImpl) UpdateTransaction(
	_ context.Context, id string,
	updateFn func(tx *domain.QueuedTransaction) (*domain.QueuedTransaction, error),
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	tx, ok := r.transactions[id]
	if !ok {
		return ErrTransactionNotFound
	}
	tx = copyTransaction(tx)

	updated, err := updateFn(&tx)
	if err != nil {
		return err
	}
	r.transactions[id] = copyTransaction(*updated)
	return nil
}

func (r *transactionRepositoryImpl) DeleteTransaction(
	_ context.Context, id string,
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	if _, ok := r.transactions[id]; !ok {
		return ErrTransactionNotFound
	}
	delete(r.transactions, id)
	return nil
}

func (r *transactionRepositoryImpl) find(
	filter func(tx domain.QueuedTransaction) bool,
) []domain.QueuedTransaction {
	txs := make([]domain.QueuedTransaction, 0)
	for _, tx := range r.transactions {
		if filter(tx) {
			txs = append(txs, copyTransaction(tx))
		}
	}
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].CreatedAt == txs[j].CreatedAt {
			return txs[i].ID < txs[j].ID
		}
		return txs[i].CreatedAt < txs[j].CreatedAt
	})
	return txs
}

func copyTransaction(tx domain.QueuedTransaction) domain.QueuedTransaction {
	if tx.Payload != nil {
		payload := make([]byte, len(tx.Payload))
		copy(payload, tx.Payload)
		tx.Payload = payload
	}
	return tx
}
