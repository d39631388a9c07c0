package background_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tdex-network/notewallet/internal/core/domain"
)

type mockSessionRepository struct {
	mock.Mock
}

func (m *mockSessionRepository) AddSession(
	ctx context.Context, session domain.DAppSession,
) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockSessionRepository) GetSession(
	ctx context.Context, origin, accountPublicKey string,
) (*domain.DAppSession, error) {
	args := m.Called(ctx, origin, accountPublicKey)

	var res *domain.DAppSession
	if a := args.Get(0); a != nil {
		res = a.(*domain.DAppSession)
	}
	return res, args.Error(1)
}

func (m *mockSessionRepository) GetAllSessions(
	ctx context.Context,
) ([]domain.DAppSession, error) {
	args := m.Called(ctx)

	var res []domain.DAppSession
	if a := args.Get(0); a != nil {
		res = a.([]domain.DAppSession)
	}
	return res, args.Error(1)
}

func (m *mockSessionRepository) DeleteSession(
	ctx context.Context, origin, accountPublicKey string,
) error {
	args := m.Called(ctx, origin, accountPublicKey)
	return args.Error(0)
}
