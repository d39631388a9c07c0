package background

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/notewallet/internal/core/application/vault"
	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/tdex-network/notewallet/pkg/securestore"
)

// ErrStoreClosed is returned for any job submitted after Close.
var ErrStoreClosed = errors.New("store is closed")

// Event is emitted after every successful state mutation.
type Event struct {
	State domain.FrontState
}

type job struct {
	fn     func(s *storeState) error
	mutate bool
	done   chan error
}

// storeState is only ever accessed from the store goroutine.
type storeState struct {
	inited bool
	wallet domain.WalletState
	vault  *vault.Vault
}

// Store owns the wallet state and the unlocked vault. Jobs are executed one
// at a time by a single goroutine in arrival order.
type Store struct {
	storage   securestore.SecureStorage
	vaultOpts vault.Options

	jobs     chan job
	quit     chan struct{}
	stopped  chan struct{}
	quitOnce *sync.Once

	lock      *sync.RWMutex
	listeners map[string]chan Event
}

// NewStore returns a store on top of the given storage and starts its
// goroutine.
func NewStore(
	storage securestore.SecureStorage, vaultOpts vault.Options,
) (*Store, error) {
	if storage == nil {
		return nil, errors.New("missing secure storage")
	}

	s := &Store{
		storage:   storage,
		vaultOpts: vaultOpts,
		jobs:      make(chan job),
		quit:      make(chan struct{}),
		stopped:   make(chan struct{}),
		quitOnce:  &sync.Once{},
		lock:      &sync.RWMutex{},
		listeners: make(map[string]chan Event),
	}
	go s.run()
	return s, nil
}

// Subscribe registers a listener of state change events. The channel has a
// buffer of one and always holds the latest event. The returned function
// unregisters the listener and closes the channel.
func (s *Store) Subscribe() (<-chan Event, func()) {
	id := uuid.New().String()
	ch := make(chan Event, 1)

	s.lock.Lock()
	s.listeners[id] = ch
	s.lock.Unlock()

	once := &sync.Once{}
	return ch, func() {
		once.Do(func() {
			s.lock.Lock()
			defer s.lock.Unlock()
			if _, ok := s.listeners[id]; ok {
				delete(s.listeners, id)
				close(ch)
			}
		})
	}
}

// Close stops the store goroutine and locks the vault if unlocked.
func (s *Store) Close() {
	s.quitOnce.Do(func() {
		close(s.quit)
		<-s.stopped

		s.lock.Lock()
		defer s.lock.Unlock()
		for id, ch := range s.listeners {
			close(ch)
			delete(s.listeners, id)
		}
	})
}

// exec runs fn on the store goroutine and waits for it to complete. Mutating
// jobs emit a change event when successful.
func (s *Store) exec(
	ctx context.Context, mutate bool, fn func(s *storeState) error,
) error {
	j := job{fn, mutate, make(chan error, 1)}

	select {
	case <-s.quit:
		return ErrStoreClosed
	case <-ctx.Done():
		return ctx.Err()
	case s.jobs <- j:
	}

	// Once accepted the job always runs to completion so the state never
	// ends up half updated.
	select {
	case err := <-j.done:
		return err
	case <-s.stopped:
		return ErrStoreClosed
	}
}

func (s *Store) run() {
	defer close(s.stopped)

	state := &storeState{
		wallet: domain.WalletState{Status: domain.StatusIdle},
	}

	for {
		select {
		case <-s.quit:
			if state.vault != nil {
				state.vault.Lock()
			}
			return
		case j := <-s.jobs:
			err := j.fn(state)
			if err == nil && j.mutate {
				if !state.wallet.IsConsistent() {
					log.Warn("store: wallet state is inconsistent after mutation")
				}
				s.publish(Event{state.wallet.Front()})
			}
			j.done <- err
		}
	}
}

func (s *Store) publish(event Event) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	for _, ch := range s.listeners {
		select {
		case ch <- event:
		default:
			// Replace the stale event with the latest one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- event:
			default:
			}
		}
	}
}
