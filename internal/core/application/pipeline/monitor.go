package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/notewallet/internal/core/domain"
)

const (
	DefaultPollInterval   = 10 * time.Second
	DefaultAutoCloseDelay = 3 * time.Second
)

// ErrMonitorRunning is returned when starting a monitor already running.
var ErrMonitorRunning = errors.New("transaction monitor already running")

// MonitorState is a snapshot of the monitor.
type MonitorState struct {
	Running       bool                       `json:"running"`
	HasLoadedOnce bool                       `json:"hasLoadedOnce"`
	Error         bool                       `json:"error"`
	Transactions  []domain.QueuedTransaction `json:"transactions"`
}

// MonitorOpts ...
type MonitorOpts struct {
	PollInterval   time.Duration
	AutoCloseDelay time.Duration
	// OnClose, if defined, is called when the monitor closes automatically
	// after all transactions are processed.
	OnClose func()
}

// Monitor drives the transaction loop of a Service: once immediately when
// started, then every poll interval while transactions are outstanding. A
// failed iteration sets a sticky error and ends the session, the error stays
// visible in State until the next start. Once at least one fetch completed,
// no transaction is outstanding and there's no error, the monitor closes
// itself after the auto-close delay unless something changes in the
// meantime.
type Monitor struct {
	svc  *Service
	opts MonitorOpts

	lock          *sync.RWMutex
	running       bool
	hasLoadedOnce bool
	stickyErr     bool
	transactions  []domain.QueuedTransaction

	trigger chan struct{}
	quit    chan struct{}
	done    chan struct{}
}

func NewMonitor(svc *Service, opts MonitorOpts) *Monitor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.AutoCloseDelay <= 0 {
		opts.AutoCloseDelay = DefaultAutoCloseDelay
	}
	done := make(chan struct{})
	close(done)

	return &Monitor{
		svc:          svc,
		opts:         opts,
		lock:         &sync.RWMutex{},
		transactions: []domain.QueuedTransaction{},
		trigger:      make(chan struct{}, 1),
		done:         done,
	}
}

// Start runs the monitor in background until it auto-closes, Stop is called
// or ctx is done.
func (m *Monitor) Start(ctx context.Context) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.running {
		return ErrMonitorRunning
	}

	m.running = true
	m.hasLoadedOnce = false
	m.stickyErr = false
	m.transactions = []domain.QueuedTransaction{}
	m.quit = make(chan struct{})
	m.done = make(chan struct{})

	go m.run(ctx, m.quit, m.done)
	return nil
}

// Stop halts the monitor and waits for the current iteration to complete.
func (m *Monitor) Stop() {
	m.lock.Lock()
	if !m.running {
		m.lock.Unlock()
		return
	}
	close(m.quit)
	done := m.done
	m.lock.Unlock()

	<-done
}

// Trigger requests an immediate iteration, for example because a new
// transaction was queued.
func (m *Monitor) Trigger() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

// Done returns a channel closed when the monitor stops.
func (m *Monitor) Done() <-chan struct{} {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.done
}

func (m *Monitor) State() MonitorState {
	m.lock.RLock()
	defer m.lock.RUnlock()

	txs := make([]domain.QueuedTransaction, len(m.transactions))
	copy(txs, m.transactions)
	return MonitorState{
		Running:       m.running,
		HasLoadedOnce: m.hasLoadedOnce,
		Error:         m.stickyErr,
		Transactions:  txs,
	}
}

func (m *Monitor) run(ctx context.Context, quit, done chan struct{}) {
	defer func() {
		m.lock.Lock()
		m.running = false
		m.lock.Unlock()
		close(done)
	}()

	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()

	var closeTimer *time.Timer
	var closeCh <-chan time.Time
	defer func() {
		if closeTimer != nil {
			closeTimer.Stop()
		}
	}()

	m.tick(ctx)

	for {
		state := m.State()
		if state.Error {
			log.Debug("transactions loop failed, closing monitor")
			return
		}
		outstanding := len(state.Transactions) > 0

		if state.HasLoadedOnce && !outstanding {
			if closeTimer == nil {
				closeTimer = time.NewTimer(m.opts.AutoCloseDelay)
				closeCh = closeTimer.C
			}
		} else if closeTimer != nil {
			closeTimer.Stop()
			closeTimer, closeCh = nil, nil
		}

		select {
		case <-ctx.Done():
			return
		case <-quit:
			return
		case <-closeCh:
			log.Debug("all transactions processed, closing monitor")
			if m.opts.OnClose != nil {
				m.opts.OnClose()
			}
			return
		case <-ticker.C:
			if outstanding {
				m.tick(ctx)
			}
		case <-m.trigger:
			m.tick(ctx)
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	sticky := false

	ok, err := m.svc.Loop(ctx)
	if err != nil {
		log.WithError(err).Warn("transactions loop failed")
		sticky = true
	} else if !ok {
		sticky = true
	}

	txs, err := m.svc.ListTransactions(ctx, true)
	if err != nil {
		log.WithError(err).Warn("failed to fetch outstanding transactions")
		sticky = true
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if txs != nil {
		m.transactions = txs
	}
	m.hasLoadedOnce = true
	m.stickyErr = m.stickyErr || sticky
}
