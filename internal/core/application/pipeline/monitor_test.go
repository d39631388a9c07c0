package pipeline_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/notewallet/internal/core/application/pipeline"
	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/tdex-network/notewallet/pkg/worker"
)

var monitorOpts = pipeline.MonitorOpts{
	PollInterval:   20 * time.Millisecond,
	AutoCloseDelay: 50 * time.Millisecond,
}

func TestMonitorAutoClose(t *testing.T) {
	env := newTestEnv(t, worker.ModeWorker)
	env.chain.On("BuildTransaction", mock.Anything, mock.Anything).Return(unsigned, nil)
	env.signer.On("SignTransaction", mock.Anything, mock.Anything, mock.Anything).
		Return(signature, nil)
	env.chain.On("ProveTransaction", mock.Anything, mock.Anything, mock.Anything).
		Return(proven, nil)
	env.chain.On("SubmitTransaction", mock.Anything, mock.Anything).Return(txHash, nil)

	for i := 0; i < 3; i++ {
		_, err := env.svc.QueueTransaction(
			ctx, domain.TransactionTypeSend, accountPubkey, payload,
		)
		require.NoError(t, err)
	}

	var closed int32
	opts := monitorOpts
	opts.OnClose = func() { atomic.StoreInt32(&closed, 1) }
	monitor := pipeline.NewMonitor(env.svc, opts)

	require.NoError(t, monitor.Start(ctx))
	require.ErrorIs(t, monitor.Start(ctx), pipeline.ErrMonitorRunning)

	select {
	case <-monitor.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not close")
	}

	state := monitor.State()
	require.False(t, state.Running)
	require.True(t, state.HasLoadedOnce)
	require.False(t, state.Error)
	require.Empty(t, state.Transactions)
	require.Equal(t, int32(1), atomic.LoadInt32(&closed))

	all, err := env.svc.ListTransactions(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, tx := range all {
		require.Equal(t, domain.TransactionStatusCompleted, tx.Status)
	}

	// A closed monitor can be started again.
	require.NoError(t, monitor.Start(ctx))
	<-monitor.Done()
}

func TestMonitorStickyError(t *testing.T) {
	env := newTestEnv(t, worker.ModeWorker)
	env.chain.On("BuildTransaction", mock.Anything, mock.Anything).
		Return(nil, errors.New("boom"))

	for i := 0; i < 2; i++ {
		_, err := env.svc.QueueTransaction(
			ctx, domain.TransactionTypeSend, accountPubkey, payload,
		)
		require.NoError(t, err)
	}

	monitor := pipeline.NewMonitor(env.svc, monitorOpts)
	require.NoError(t, monitor.Start(ctx))

	// The failure ends the session and the error stays visible.
	select {
	case <-monitor.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not close after failure")
	}
	state := monitor.State()
	require.False(t, state.Running)
	require.True(t, state.Error)
	require.Len(t, state.Transactions, 1)
	require.Equal(t, domain.TransactionStatusQueued, state.Transactions[0].Status)

	time.Sleep(5 * monitorOpts.PollInterval)
	env.chain.AssertNumberOfCalls(t, "BuildTransaction", 1)

	// Restarting clears the error.
	require.NoError(t, monitor.Start(ctx))
	require.Eventually(t, func() bool {
		failed, err := env.repo.GetTransactionsByStatus(
			ctx, domain.TransactionStatusFailed,
		)
		return err == nil && len(failed) == 2
	}, 2*time.Second, 10*time.Millisecond)
	monitor.Stop()
}

func TestMonitorRecoversAfterFailure(t *testing.T) {
	env := newTestEnv(t, worker.ModeWorker)
	env.chain.On("BuildTransaction", mock.Anything, mock.Anything).
		Return(nil, errors.New("boom")).Once()
	env.chain.On("BuildTransaction", mock.Anything, mock.Anything).Return(unsigned, nil)
	env.signer.On("SignTransaction", mock.Anything, mock.Anything, mock.Anything).
		Return(signature, nil)
	env.chain.On("ProveTransaction", mock.Anything, mock.Anything, mock.Anything).
		Return(proven, nil)
	env.chain.On("SubmitTransaction", mock.Anything, mock.Anything).Return(txHash, nil)

	first, err := env.svc.QueueTransaction(
		ctx, domain.TransactionTypeSend, accountPubkey, payload,
	)
	require.NoError(t, err)

	monitor := pipeline.NewMonitor(env.svc, monitorOpts)
	require.NoError(t, monitor.Start(ctx))
	<-monitor.Done()
	require.True(t, monitor.State().Error)

	got, err := env.repo.GetTransaction(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TransactionStatusFailed, got.Status)

	// Queuing after a failure starts a fresh session.
	second, err := env.svc.QueueTransaction(
		ctx, domain.TransactionTypeSend, accountPubkey, payload,
	)
	require.NoError(t, err)
	require.NoError(t, monitor.Start(ctx))
	monitor.Trigger()

	require.Eventually(t, func() bool {
		got, err := env.repo.GetTransaction(ctx, second.ID)
		return err == nil && got.Status == domain.TransactionStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case <-monitor.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not close")
	}
	require.False(t, monitor.State().Error)
}

func TestMonitorTrigger(t *testing.T) {
	env := newTestEnv(t, worker.ModeInline)
	env.chain.On("BuildTransaction", mock.Anything, mock.Anything).Return(unsigned, nil)
	env.signer.On("SignTransaction", mock.Anything, mock.Anything, mock.Anything).
		Return(signature, nil)
	env.chain.On("ProveTransaction", mock.Anything, mock.Anything, mock.Anything).
		Return(proven, nil)
	env.chain.On("SubmitTransaction", mock.Anything, mock.Anything).Return(txHash, nil)

	opts := pipeline.MonitorOpts{
		PollInterval:   time.Hour,
		AutoCloseDelay: time.Second,
	}
	monitor := pipeline.NewMonitor(env.svc, opts)
	require.NoError(t, monitor.Start(ctx))
	defer monitor.Stop()

	require.Eventually(t, func() bool {
		return monitor.State().HasLoadedOnce
	}, time.Second, 5*time.Millisecond)

	tx, err := env.svc.QueueTransaction(
		ctx, domain.TransactionTypeSend, accountPubkey, payload,
	)
	require.NoError(t, err)
	monitor.Trigger()

	require.Eventually(t, func() bool {
		got, err := env.repo.GetTransaction(ctx, tx.ID)
		return err == nil && got.Status == domain.TransactionStatusCompleted
	}, time.Second, 5*time.Millisecond)
}
