package records_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/tdex-network/notewallet/internal/core/ports"
)

type mockChainClient struct {
	mock.Mock
}

func (m *mockChainClient) GetBlockHeight(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockChainClient) GetRecords(
	ctx context.Context, afterID int64, limit int,
) ([]domain.RecordMetadata, error) {
	args := m.Called(ctx, afterID, limit)
	var res []domain.RecordMetadata
	if a := args.Get(0); a != nil {
		res = a.([]domain.RecordMetadata)
	}
	return res, args.Error(1)
}

func (m *mockChainClient) GetLatestRecordID(
	ctx context.Context, blockHeight int64,
) (int64, error) {
	args := m.Called(ctx, blockHeight)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockChainClient) TagRecord(
	ctx context.Context, recordID int64, tag, proof string,
) error {
	args := m.Called(ctx, recordID, tag, proof)
	return args.Error(0)
}

func (m *mockChainClient) BuildTransaction(
	ctx context.Context, tx domain.QueuedTransaction,
) (*ports.UnsignedTransaction, error) {
	args := m.Called(ctx, tx)
	var res *ports.UnsignedTransaction
	if a := args.Get(0); a != nil {
		res = a.(*ports.UnsignedTransaction)
	}
	return res, args.Error(1)
}

func (m *mockChainClient) ProveTransaction(
	ctx context.Context, tx ports.UnsignedTransaction, signature string,
) (*ports.ProvenTransaction, error) {
	args := m.Called(ctx, tx, signature)
	var res *ports.ProvenTransaction
	if a := args.Get(0); a != nil {
		res = a.(*ports.ProvenTransaction)
	}
	return res, args.Error(1)
}

func (m *mockChainClient) SubmitTransaction(
	ctx context.Context, tx ports.ProvenTransaction,
) (string, error) {
	args := m.Called(ctx, tx)
	return args.String(0), args.Error(1)
}

type mockKeyProvider struct {
	mock.Mock
}

func (m *mockKeyProvider) ViewKeys(ctx context.Context) ([]ports.ViewKey, error) {
	args := m.Called(ctx)
	var res []ports.ViewKey
	if a := args.Get(0); a != nil {
		res = a.([]ports.ViewKey)
	}
	return res, args.Error(1)
}
