package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/notewallet/internal/core/application/pipeline"
	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/tdex-network/notewallet/internal/core/ports"
	"github.com/tdex-network/notewallet/internal/infrastructure/storage/db/inmemory"
	"github.com/tdex-network/notewallet/pkg/locks"
	"github.com/tdex-network/notewallet/pkg/worker"
)

const (
	accountPubkey = "02a1b2c3"
	signingInputs = "deadbeef"
	signature     = "cafebabe"
	txHash        = "0xabc"
)

var (
	ctx     = context.Background()
	payload = json.RawMessage(`{"to":"addr","amount":1}`)

	unsigned = &ports.UnsignedTransaction{
		ID: "utx", SigningInputs: signingInputs, Body: json.RawMessage(`{}`),
	}
	proven = &ports.ProvenTransaction{
		ID: "utx", Body: json.RawMessage(`{}`), Proof: "proof",
	}
)

type testEnv struct {
	svc    *pipeline.Service
	repo   domain.TransactionRepository
	chain  *mockChainClient
	signer *mockSigner
	locks  *locks.Registry

	lock    *sync.Mutex
	updates []domain.TransactionStatus
}

func (e *testEnv) statuses() []domain.TransactionStatus {
	e.lock.Lock()
	defer e.lock.Unlock()
	return append([]domain.TransactionStatus{}, e.updates...)
}

func newTestEnv(t *testing.T, mode worker.Mode) *testEnv {
	env := &testEnv{
		repo:   inmemory.NewTransactionRepositoryImpl(),
		chain:  &mockChainClient{},
		signer: &mockSigner{},
		locks:  locks.NewRegistry(),
		lock:   &sync.Mutex{},
	}
	runner := worker.NewRunner(mode, 1)
	t.Cleanup(runner.Close)

	svc, err := pipeline.NewService(pipeline.Opts{
		Repo:       env.repo,
		Chain:      env.chain,
		ClientLock: locks.NewClientLock(),
		Signer:     env.signer,
		Runner:     runner,
		Locks:      env.locks,
		OnUpdate: func(tx domain.QueuedTransaction) {
			env.lock.Lock()
			defer env.lock.Unlock()
			env.updates = append(env.updates, tx.Status)
		},
	})
	require.NoError(t, err)
	env.svc = svc
	return env
}

func TestNewServiceMissingDeps(t *testing.T) {
	_, err := pipeline.NewService(pipeline.Opts{})
	require.Error(t, err)
}

func TestHappyPath(t *testing.T) {
	for _, mode := range []worker.Mode{worker.ModeWorker, worker.ModeInline} {
		t.Run(string(mode), func(t *testing.T) {
			env := newTestEnv(t, mode)
			env.chain.On("BuildTransaction", mock.Anything, mock.Anything).Return(unsigned, nil)
			env.signer.On("SignTransaction", mock.Anything, accountPubkey, signingInputs).
				Return(signature, nil)
			env.chain.On("ProveTransaction", mock.Anything, *unsigned, signature).
				Return(proven, nil)
			env.chain.On("SubmitTransaction", mock.Anything, *proven).Return(txHash, nil)

			tx, err := env.svc.QueueTransaction(
				ctx, domain.TransactionTypeSend, accountPubkey, payload,
			)
			require.NoError(t, err)
			require.Equal(t, domain.TransactionStatusQueued, tx.Status)

			ok, err := env.svc.Loop(ctx)
			require.NoError(t, err)
			require.True(t, ok)

			got, err := env.repo.GetTransaction(ctx, tx.ID)
			require.NoError(t, err)
			require.Equal(t, domain.TransactionStatusCompleted, got.Status)
			require.Equal(t, txHash, got.TxHash)
			require.NotZero(t, got.ProcessingStartedAt)
			require.NotZero(t, got.CompletedAt)

			require.Equal(t, []domain.TransactionStatus{
				domain.TransactionStatusQueued,
				domain.TransactionStatusAuthorizing,
				domain.TransactionStatusGenerating,
				domain.TransactionStatusSubmitting,
				domain.TransactionStatusCompleted,
			}, env.statuses())

			// Nothing left to do.
			ok, err = env.svc.Loop(ctx)
			require.NoError(t, err)
			require.True(t, ok)

			outstanding, err := env.svc.ListTransactions(ctx, true)
			require.NoError(t, err)
			require.Empty(t, outstanding)

			env.chain.AssertNumberOfCalls(t, "SubmitTransaction", 1)
			env.signer.AssertExpectations(t)
		})
	}
}

func TestFailingSteps(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name        string
		setup       func(env *testEnv)
		expectedErr error
	}{
		{
			name: "build fails",
			setup: func(env *testEnv) {
				env.chain.On("BuildTransaction", mock.Anything, mock.Anything).
					Return(nil, errBoom)
			},
		},
		{
			name: "sign fails",
			setup: func(env *testEnv) {
				env.chain.On("BuildTransaction", mock.Anything, mock.Anything).
					Return(unsigned, nil)
				env.signer.On("SignTransaction", mock.Anything, mock.Anything, mock.Anything).
					Return("", errBoom)
			},
		},
		{
			name: "prove fails",
			setup: func(env *testEnv) {
				env.chain.On("BuildTransaction", mock.Anything, mock.Anything).
					Return(unsigned, nil)
				env.signer.On("SignTransaction", mock.Anything, mock.Anything, mock.Anything).
					Return(signature, nil)
				env.chain.On("ProveTransaction", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, errBoom)
			},
		},
		{
			name: "submit fails",
			setup: func(env *testEnv) {
				env.chain.On("BuildTransaction", mock.Anything, mock.Anything).
					Return(unsigned, nil)
				env.signer.On("SignTransaction", mock.Anything, mock.Anything, mock.Anything).
					Return(signature, nil)
				env.chain.On("ProveTransaction", mock.Anything, mock.Anything, mock.Anything).
					Return(proven, nil)
				env.chain.On("SubmitTransaction", mock.Anything, mock.Anything).
					Return("", errBoom)
			},
		},
		{
			name: "build returns nothing",
			setup: func(env *testEnv) {
				env.chain.On("BuildTransaction", mock.Anything, mock.Anything).
					Return(nil, nil)
			},
			expectedErr: pipeline.ErrEmptyChainResponse,
		},
		{
			name: "prove returns nothing",
			setup: func(env *testEnv) {
				env.chain.On("BuildTransaction", mock.Anything, mock.Anything).
					Return(unsigned, nil)
				env.signer.On("SignTransaction", mock.Anything, mock.Anything, mock.Anything).
					Return(signature, nil)
				env.chain.On("ProveTransaction", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, nil)
			},
			expectedErr: pipeline.ErrEmptyChainResponse,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, worker.ModeWorker)
			tt.setup(env)

			tx, err := env.svc.QueueTransaction(
				ctx, domain.TransactionTypeConsume, accountPubkey, nil,
			)
			require.NoError(t, err)

			ok, err := env.svc.Loop(ctx)
			require.NoError(t, err)
			require.False(t, ok)

			got, err := env.repo.GetTransaction(ctx, tx.ID)
			require.NoError(t, err)
			require.Equal(t, domain.TransactionStatusFailed, got.Status)
			expectedErr := tt.expectedErr
			if expectedErr == nil {
				expectedErr = errBoom
			}
			require.Equal(t, expectedErr.Error(), got.Error)
			require.Empty(t, got.TxHash)

			statuses := env.statuses()
			require.Equal(t, domain.TransactionStatusFailed, statuses[len(statuses)-1])
		})
	}
}

func TestOldestQueuedFirst(t *testing.T) {
	env := newTestEnv(t, worker.ModeInline)

	older, _ := domain.NewQueuedTransaction(domain.TransactionTypeSend, accountPubkey, nil)
	older.CreatedAt = 1
	newer, _ := domain.NewQueuedTransaction(domain.TransactionTypeCustom, accountPubkey, nil)
	newer.CreatedAt = 2
	require.NoError(t, env.repo.AddTransaction(ctx, newer))
	require.NoError(t, env.repo.AddTransaction(ctx, older))

	env.chain.On("BuildTransaction", mock.Anything, mock.MatchedBy(
		func(tx domain.QueuedTransaction) bool { return tx.ID == older.ID },
	)).Return(nil, errors.New("boom"))

	ok, err := env.svc.Loop(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	got, err := env.repo.GetTransaction(ctx, newer.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TransactionStatusQueued, got.Status)
}

func TestStuckTransactions(t *testing.T) {
	env := newTestEnv(t, worker.ModeWorker)

	stuck, _ := domain.NewQueuedTransaction(domain.TransactionTypeSend, accountPubkey, nil)
	require.NoError(t, stuck.Advance())
	stuck.ProcessingStartedAt = time.Now().Add(-time.Hour).Unix()
	require.NoError(t, env.repo.AddTransaction(ctx, stuck))

	running, _ := domain.NewQueuedTransaction(domain.TransactionTypeSend, accountPubkey, nil)
	require.NoError(t, running.Advance())
	require.NoError(t, env.repo.AddTransaction(ctx, running))

	queued, err := env.svc.QueueTransaction(
		ctx, domain.TransactionTypeSend, accountPubkey, nil,
	)
	require.NoError(t, err)

	// The stuck transaction is failed while the one still in progress blocks
	// the queue.
	ok, err := env.svc.Loop(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := env.repo.GetTransaction(ctx, stuck.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TransactionStatusFailed, got.Status)
	require.NotEmpty(t, got.Error)

	got, err = env.repo.GetTransaction(ctx, running.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TransactionStatusAuthorizing, got.Status)

	got, err = env.repo.GetTransaction(ctx, queued.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TransactionStatusQueued, got.Status)

	env.chain.AssertNotCalled(t, "BuildTransaction", mock.Anything, mock.Anything)
}

func TestLoopSkippedWhenRunning(t *testing.T) {
	env := newTestEnv(t, worker.ModeWorker)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		// nolint
		env.locks.TryWithLock(locks.TransactionsLoop, func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	_, err := env.svc.QueueTransaction(ctx, domain.TransactionTypeSend, accountPubkey, nil)
	require.NoError(t, err)

	ok, err := env.svc.Loop(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	env.chain.AssertNotCalled(t, "BuildTransaction", mock.Anything, mock.Anything)

	close(release)
	<-done
}

func TestCancelTransaction(t *testing.T) {
	env := newTestEnv(t, worker.ModeWorker)

	tx, err := env.svc.QueueTransaction(ctx, domain.TransactionTypeSend, accountPubkey, nil)
	require.NoError(t, err)
	require.NoError(t, env.svc.CancelTransaction(ctx, tx.ID))

	got, err := env.repo.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TransactionStatusFailed, got.Status)

	err = env.svc.CancelTransaction(ctx, tx.ID)
	require.ErrorIs(t, err, domain.ErrTransactionFinalized)

	inProgress, _ := domain.NewQueuedTransaction(domain.TransactionTypeSend, accountPubkey, nil)
	require.NoError(t, inProgress.Advance())
	require.NoError(t, env.repo.AddTransaction(ctx, inProgress))
	err = env.svc.CancelTransaction(ctx, inProgress.ID)
	require.ErrorIs(t, err, pipeline.ErrTransactionInProgress)

	err = env.svc.CancelTransaction(ctx, "unknown")
	require.ErrorIs(t, err, domain.ErrNotFound)

	all, err := env.svc.ListTransactions(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
