package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// Mode tells where tasks are executed.
type Mode string

const (
	// ModeWorker runs every task in its own worker, terminated as soon as the
	// task returns or the caller gives up.
	ModeWorker Mode = "worker"
	// ModeInline runs tasks in the caller's context. It's used on devices
	// where a separate worker would exceed the available memory.
	ModeInline Mode = "inline"
)

// ErrRunnerClosed ...
var ErrRunnerClosed = errors.New("worker runner is closed")

// Task is a unit of work. It must return as soon as ctx is done.
type Task func(ctx context.Context) (interface{}, error)

type result struct {
	value interface{}
	err   error
}

// Runner executes heavy tasks either on dedicated workers or inline.
type Runner struct {
	mode  Mode
	slots *semaphore.Weighted

	lock    *sync.Mutex
	closed  bool
	cancels map[int]context.CancelFunc
	nextID  int
	wg      *sync.WaitGroup
}

// NewRunner returns a runner with the given mode. At most maxWorkers tasks
// run at the same time in ModeWorker; a non positive value defaults to half
// the number of CPUs.
func NewRunner(mode Mode, maxWorkers int) *Runner {
	if mode != ModeInline {
		mode = ModeWorker
	}
	if maxWorkers <= 0 {
		maxWorkers = DefaultWorkers()
	}
	return &Runner{
		mode:    mode,
		slots:   semaphore.NewWeighted(int64(maxWorkers)),
		lock:    &sync.Mutex{},
		cancels: map[int]context.CancelFunc{},
		wg:      &sync.WaitGroup{},
	}
}

// DefaultWorkers returns max(1, NumCPU/2).
func DefaultWorkers() int {
	n := runtime.NumCPU() / 2
	if n < 1 {
		return 1
	}
	return n
}

// Mode ...
func (r *Runner) Mode() Mode {
	return r.mode
}

// Run executes the task and waits for its result. In ModeWorker the worker is
// terminated on both success and failure, and also when ctx is done before
// the task completes.
func (r *Runner) Run(ctx context.Context, task Task) (interface{}, error) {
	if r.isClosed() {
		return nil, ErrRunnerClosed
	}

	if r.mode == ModeInline {
		return runSafe(ctx, task)
	}

	if err := r.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.slots.Release(1)

	workerCtx, id, err := r.spawn(ctx)
	if err != nil {
		return nil, err
	}
	defer r.terminate(id)

	resultCh := make(chan result, 1)
	go func() {
		defer r.wg.Done()
		value, err := runSafe(workerCtx, task)
		resultCh <- result{value, err}
	}()

	select {
	case res := <-resultCh:
		return res.value, res.err
	case <-workerCtx.Done():
		log.Debugf("worker %d terminated before completing its task", id)
		return nil, workerCtx.Err()
	}
}

// Close terminates all running workers and waits for them to exit.
func (r *Runner) Close() {
	r.lock.Lock()
	r.closed = true
	for _, cancel := range r.cancels {
		cancel()
	}
	r.lock.Unlock()

	r.wg.Wait()
}

func (r *Runner) spawn(ctx context.Context) (context.Context, int, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.closed {
		return nil, 0, ErrRunnerClosed
	}

	workerCtx, cancel := context.WithCancel(ctx)
	id := r.nextID
	r.nextID++
	r.cancels[id] = cancel
	r.wg.Add(1)
	return workerCtx, id, nil
}

func (r *Runner) terminate(id int) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if cancel, ok := r.cancels[id]; ok {
		cancel()
		delete(r.cancels, id)
	}
}

func (r *Runner) isClosed() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.closed
}

func runSafe(ctx context.Context, task Task) (value interface{}, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task panicked: %v", rec)
		}
	}()
	return task(ctx)
}
