package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/tdex-network/notewallet/internal/core/domain"
)

type dappSessionRepositoryImpl struct {
	locker   *sync.RWMutex
	sessions map[string]domain.DAppSession
}

// NewDAppSessionRepositoryImpl returns a new empty DAppSessionRepository.
func NewDAppSessionRepositoryImpl() domain.DAppSessionRepository {
	return &dappSessionRepositoryImpl{
		locker:   &sync.RWMutex{},
		sessions: make(map[string]domain.DAppSession),
	}
}

func (r *dappSessionRepositoryImpl) AddSession(
	_ context.Context, session domain.DAppSession,
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	r.sessions[session.Key()] = session
	return nil
}

func (r *dappSessionRepositoryImpl) GetSession(
	_ context.Context, origin, accountPublicKey string,
) (*domain.DAppSession, error) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	s, ok := r.sessions[domain.DAppSessionKey(origin, accountPublicKey)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (r *dappSessionRepositoryImpl) GetAllSessions(
	_ context.Context,
) ([]domain.DAppSession, error) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	list := make([]domain.DAppSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Key() < list[j].Key()
	})
	return list, nil
}

func (r *dappSessionRepositoryImpl) DeleteSession(
	_ context.Context, origin, accountPublicKey string,
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	key := domain.DAppSessionKey(origin, accountPublicKey)
	if _, ok := r.sessions[key]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, key)
	return nil
}
