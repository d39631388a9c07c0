package dbbadger

import (
	"context"
	"errors"

	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type dappSessionRepositoryImpl struct {
	store *badgerhold.Store
}

// NewDAppSessionRepositoryImpl initialize a badger implementation of the
// domain.DAppSessionRepository
func NewDAppSessionRepositoryImpl(store *badgerhold.Store) domain.DAppSessionRepository {
	return dappSessionRepositoryImpl{store}
}

func (r dappSessionRepositoryImpl) AddSession(
	_ context.Context, session domain.DAppSession,
) error {
	return r.store.Upsert(session.Key(), session)
}

func (r dappSessionRepositoryImpl) GetSession(
	_ context.Context, origin, accountPublicKey string,
) (*domain.DAppSession, error) {
	s := domain.DAppSession{}
	key := domain.DAppSessionKey(origin, accountPublicKey)
	if err := r.store.Get(key, &s); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r dappSessionRepositoryImpl) GetAllSessions(
	_ context.Context,
) ([]domain.DAppSession, error) {
	var list []domain.DAppSession
	query := (&badgerhold.Query{}).SortBy("Origin", "AccountPublicKey")
	if err := r.store.Find(&list, query); err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.DAppSession{}
	}
	return list, nil
}

func (r dappSessionRepositoryImpl) DeleteSession(
	_ context.Context, origin, accountPublicKey string,
) error {
	key := domain.DAppSessionKey(origin, accountPublicKey)
	if err := r.store.Delete(key, domain.DAppSession{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}
