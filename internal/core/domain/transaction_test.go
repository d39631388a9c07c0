package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/notewallet/internal/core/domain"
)

func TestTransactionLifecycle(t *testing.T) {
	tx, err := domain.NewQueuedTransaction(domain.TransactionTypeSend, "pk", nil)
	require.NoError(t, err)
	require.NotEmpty(t, tx.ID)
	require.Equal(t, domain.TransactionStatusQueued, tx.Status)

	expected := []domain.TransactionStatus{
		domain.TransactionStatusAuthorizing,
		domain.TransactionStatusGenerating,
		domain.TransactionStatusSubmitting,
	}
	for _, status := range expected {
		require.NoError(t, tx.Advance())
		require.Equal(t, status, tx.Status)
		require.True(t, tx.Status.IsInProgress())
	}
	require.NotZero(t, tx.ProcessingStartedAt)

	require.NoError(t, tx.Complete("txhash"))
	require.Equal(t, domain.TransactionStatusCompleted, tx.Status)
	require.Equal(t, "txhash", tx.TxHash)
	require.True(t, tx.Status.IsTerminal())

	require.ErrorIs(t, tx.Advance(), domain.ErrTransactionFinalized)
	require.ErrorIs(t, tx.Complete("other"), domain.ErrTransactionFinalized)
	require.ErrorIs(t, tx.Fail("boom"), domain.ErrTransactionFinalized)
}

func TestFailingTransaction(t *testing.T) {
	_, err := domain.NewQueuedTransaction("Unknown", "pk", nil)
	require.ErrorIs(t, err, domain.ErrInvalidTransactionType)
	_, err = domain.NewQueuedTransaction(domain.TransactionTypeConsume, "", nil)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	tx, err := domain.NewQueuedTransaction(domain.TransactionTypeConsume, "pk", nil)
	require.NoError(t, err)
	require.ErrorIs(t, tx.Complete("hash"), domain.ErrInvalidStatusTransition)

	require.NoError(t, tx.Fail("boom"))
	require.Equal(t, domain.TransactionStatusFailed, tx.Status)
	require.Equal(t, "boom", tx.Error)
}

func TestIsStuck(t *testing.T) {
	tx, err := domain.NewQueuedTransaction(domain.TransactionTypeCustom, "pk", nil)
	require.NoError(t, err)

	now := time.Now()
	require.False(t, tx.IsStuck(now.Add(time.Hour), time.Minute))

	require.NoError(t, tx.Advance())
	require.False(t, tx.IsStuck(now, time.Minute))
	require.True(t, tx.IsStuck(now.Add(2*time.Minute), time.Minute))
}
