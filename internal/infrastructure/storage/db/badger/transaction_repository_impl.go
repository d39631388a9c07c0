package dbbadger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type transactionRepositoryImpl struct {
	store *badgerhold.Store
}

// NewTransactionRepositoryImpl initialize a badger implementation of the
// domain.TransactionRepository
func NewTransactionRepositoryImpl(store *badgerhold.Store) domain.TransactionRepository {
	return transactionRepositoryImpl{store}
}

func (r transactionRepositoryImpl) AddTransaction(
	_ context.Context, tx *domain.QueuedTransaction,
) error {
	return r.store.Insert(tx.ID, *tx)
}

func (r transactionRepositoryImpl) GetTransaction(
	_ context.Context, id string,
) (*domain.QueuedTransaction, error) {
	tx := domain.QueuedTransaction{}
	if err := r.store.Get(id, &tx); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}

func (r transactionRepositoryImpl) GetTransactionsByStatus(
	_ context.Context, statuses ...domain.TransactionStatus,
) ([]domain.QueuedTransaction, error) {
	if len(statuses) <= 0 {
		return []domain.QueuedTransaction{}, nil
	}
	values := make([]interface{}, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, s)
	}
	return r.findTransactions(badgerhold.Where("Status").In(values...))
}

func (r transactionRepositoryImpl) GetAllTransactions(
	_ context.Context,
) ([]domain.QueuedTransaction, error) {
	return r.findTransactions(&badgerhold.Query{})
}

func (r transactionRepositoryImpl) UpdateTransaction(
	_ context.Context, id string,
	updateFn func(tx *domain.QueuedTransaction) (*domain.QueuedTransaction, error),
) error {
	return r.store.Badger().Update(func(txn *badger.Txn) error {
		tx := domain.QueuedTransaction{}
		if err := r.store.TxGet(txn, id, &tx); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}

		updated, err := updateFn(&tx)
		if err != nil {
			return err
		}
		return r.store.TxUpdate(txn, id, *updated)
	})
}

func (r transactionRepositoryImpl) DeleteTransaction(
	_ context.Context, id string,
) error {
	if err := r.store.Delete(id, domain.QueuedTransaction{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return ErrTransactionNotFound
		}
		return err
	}
	return nil
}

func (r transactionRepositoryImpl) findTransactions(
	query *badgerhold.Query,
) ([]domain.QueuedTransaction, error) {
	var txs []domain.QueuedTransaction
	if err := r.store.Find(&txs, query.SortBy("CreatedAt", "ID")); err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []domain.QueuedTransaction{}
	}
	return txs, nil
}
