package records

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultSyncInterval ...
const DefaultSyncInterval = 20 * time.Second

// Syncer periodically runs the account creation heights sync, the records
// sync and the tagging pass, in this order, while isReady returns true.
type Syncer struct {
	svc      *Service
	interval time.Duration
	isReady  func(ctx context.Context) bool

	lock    *sync.Mutex
	trigger chan struct{}
	quit    chan struct{}
	done    chan struct{}
}

func NewSyncer(
	svc *Service, interval time.Duration, isReady func(ctx context.Context) bool,
) *Syncer {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	if isReady == nil {
		isReady = func(context.Context) bool { return true }
	}
	return &Syncer{
		svc:      svc,
		interval: interval,
		isReady:  isReady,
		lock:     &sync.Mutex{},
		trigger:  make(chan struct{}, 1),
	}
}

// Start runs the syncer in background. Calling Start on a running syncer is
// a no-op.
func (s *Syncer) Start(ctx context.Context) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.quit != nil {
		return
	}
	s.quit = make(chan struct{})
	s.done = make(chan struct{})

	go s.run(ctx, s.quit, s.done)
}

// Stop halts the syncer and waits for the running pass to complete.
func (s *Syncer) Stop() {
	s.lock.Lock()
	quit, done := s.quit, s.done
	s.quit, s.done = nil, nil
	s.lock.Unlock()

	if quit == nil {
		return
	}
	close(quit)
	<-done
}

// Trigger requests an immediate pass.
func (s *Syncer) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Sync runs a single pass. Errors are logged and left to the next pass.
func (s *Syncer) Sync(ctx context.Context) {
	if !s.isReady(ctx) {
		return
	}

	if _, err := s.svc.SyncAccountCreationHeights(ctx); err != nil {
		log.WithError(err).Warn("failed to sync account creation block heights")
	}
	if _, err := s.svc.SyncRecords(ctx); err != nil {
		log.WithError(err).Warn("failed to sync records")
		return
	}
	if _, err := s.svc.TagOwnedRecords(ctx); err != nil {
		log.WithError(err).Warn("failed to tag owned records")
	}
}

func (s *Syncer) run(ctx context.Context, quit, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sync(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-quit:
			return
		case <-ticker.C:
			s.Sync(ctx)
		case <-s.trigger:
			s.Sync(ctx)
		}
	}
}
