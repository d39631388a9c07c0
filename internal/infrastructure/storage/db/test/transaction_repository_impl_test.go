package db_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/notewallet/internal/core/domain"
)

func TestTransactionRepositoryImplementations(t *testing.T) {
	managers := createRepoManagers(t)

	for i := range managers {
		m := managers[i]

		t.Run(m.Name, func(t *testing.T) {
			repo := m.Manager.TransactionRepository()

			t.Run("testAddAndListTransactions", func(t *testing.T) {
				testAddAndListTransactions(t, repo)
			})
			t.Run("testUpdateTransaction", func(t *testing.T) {
				testUpdateTransaction(t, repo)
			})
			t.Run("testConcurrentUpdates", func(t *testing.T) {
				testConcurrentUpdates(t, repo)
			})
		})
	}
}

func testAddAndListTransactions(t *testing.T, repo domain.TransactionRepository) {
	ctx := context.Background()

	txs := []*domain.QueuedTransaction{
		makeRandomTransaction(30),
		makeRandomTransaction(10),
		makeRandomTransaction(20),
	}
	for _, tx := range txs {
		require.NoError(t, repo.AddTransaction(ctx, tx))
	}
	require.Error(t, repo.AddTransaction(ctx, txs[0]))

	all, err := repo.GetAllTransactions(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(all), 3)
	for i := 1; i < len(all); i++ {
		require.LessOrEqual(t, all[i-1].CreatedAt, all[i].CreatedAt)
	}

	tx, err := repo.GetTransaction(ctx, txs[1].ID)
	require.NoError(t, err)
	require.Equal(t, txs[1].AccountPublicKey, tx.AccountPublicKey)
	require.JSONEq(t, string(txs[1].Payload), string(tx.Payload))

	none, err := repo.GetTransactionsByStatus(ctx)
	require.NoError(t, err)
	require.Empty(t, none)

	require.NoError(t, repo.DeleteTransaction(ctx, txs[0].ID))
	_, err = repo.GetTransaction(ctx, txs[0].ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func testUpdateTransaction(t *testing.T, repo domain.TransactionRepository) {
	ctx := context.Background()

	tx := makeRandomTransaction(1)
	require.NoError(t, repo.AddTransaction(ctx, tx))

	for i := 0; i < 3; i++ {
		err := repo.UpdateTransaction(
			ctx, tx.ID,
			func(tx *domain.QueuedTransaction) (*domain.QueuedTransaction, error) {
				return tx, tx.Advance()
			},
		)
		require.NoError(t, err)
	}

	submitting, err := repo.GetTransactionsByStatus(ctx, domain.TransactionStatusSubmitting)
	require.NoError(t, err)
	require.Len(t, submitting, 1)
	require.Equal(t, tx.ID, submitting[0].ID)

	err = repo.UpdateTransaction(
		ctx, tx.ID,
		func(tx *domain.QueuedTransaction) (*domain.QueuedTransaction, error) {
			return tx, tx.Complete("txhash")
		},
	)
	require.NoError(t, err)

	err = repo.UpdateTransaction(
		ctx, tx.ID,
		func(tx *domain.QueuedTransaction) (*domain.QueuedTransaction, error) {
			if err := tx.Fail("too late"); err != nil {
				return nil, err
			}
			return tx, nil
		},
	)
	require.ErrorIs(t, err, domain.ErrTransactionFinalized)

	got, err := repo.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TransactionStatusCompleted, got.Status)
	require.Equal(t, "txhash", got.TxHash)

	err = repo.UpdateTransaction(
		ctx, "unknown",
		func(tx *domain.QueuedTransaction) (*domain.QueuedTransaction, error) {
			return tx, nil
		},
	)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func testConcurrentUpdates(t *testing.T, repo domain.TransactionRepository) {
	ctx := context.Background()

	tx := makeRandomTransaction(2)
	require.NoError(t, repo.AddTransaction(ctx, tx))

	// Only one of the concurrent attempts to fail the transaction can succeed.
	wg := &sync.WaitGroup{}
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repo.UpdateTransaction(
				ctx, tx.ID,
				func(tx *domain.QueuedTransaction) (*domain.QueuedTransaction, error) {
					if err := tx.Fail("failed"); err != nil {
						return nil, err
					}
					return tx, nil
				},
			)
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		}
	}
	require.Equal(t, 1, succeeded)
}
