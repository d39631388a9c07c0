package locks

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

const (
	// Records guards record scanning and tagging.
	Records = "records"
	// AccountCreationBlockHeights guards the account creation metadata sync.
	AccountCreationBlockHeights = "account-creation-block-heights"
	// TransactionsLoop guards the transaction generation loop.
	TransactionsLoop = "generate-transactions-loop"
)

// Registry is a set of named non-blocking locks. Failing to acquire one of
// them is a normal outcome meaning that someone else is already doing the
// job.
type Registry struct {
	lock  *sync.Mutex
	locks map[string]*semaphore.Weighted
}

// NewRegistry returns an empty set of named locks.
func NewRegistry() *Registry {
	return &Registry{&sync.Mutex{}, map[string]*semaphore.Weighted{}}
}

// TryWithLock runs fn only if the lock with the given name is available, and
// releases it when fn returns. The returned boolean tells whether fn was run.
func (r *Registry) TryWithLock(name string, fn func() error) (bool, error) {
	sem := r.get(name)
	if !sem.TryAcquire(1) {
		return false, nil
	}
	defer sem.Release(1)

	return true, fn()
}

// IsHeld returns whether the lock with the given name is currently held.
func (r *Registry) IsHeld(name string) bool {
	sem := r.get(name)
	if !sem.TryAcquire(1) {
		return true
	}
	sem.Release(1)
	return false
}

func (r *Registry) get(name string) *semaphore.Weighted {
	r.lock.Lock()
	defer r.lock.Unlock()

	sem, ok := r.locks[name]
	if !ok {
		sem = semaphore.NewWeighted(1)
		r.locks[name] = sem
	}
	return sem
}

// ClientLock serializes the access to a resource not safe for concurrent use,
// like the chain client.
type ClientLock struct {
	sem *semaphore.Weighted
}

// NewClientLock ...
func NewClientLock() *ClientLock {
	return &ClientLock{semaphore.NewWeighted(1)}
}

// WithLock waits for the lock, runs fn and releases the lock, even if fn
// panics. It returns the context error if the lock can't be acquired before
// ctx is done.
func (l *ClientLock) WithLock(
	ctx context.Context, fn func(ctx context.Context) error,
) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer l.sem.Release(1)

	return fn(ctx)
}
