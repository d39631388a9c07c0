package intercominterface

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/notewallet/internal/core/application/background"
	"github.com/tdex-network/notewallet/internal/core/application/pipeline"
	"github.com/tdex-network/notewallet/internal/core/application/pubsub"
	"github.com/tdex-network/notewallet/internal/core/application/records"
	"github.com/tdex-network/notewallet/internal/core/domain"
	interfaces "github.com/tdex-network/notewallet/internal/interfaces"
	"github.com/tdex-network/notewallet/pkg/intercom"
	websocketport "github.com/tdex-network/notewallet/pkg/intercom/websocket"
	"github.com/tdex-network/notewallet/pkg/stats"
)

const (
	// IntercomPath is the websocket endpoint of the intercom server.
	IntercomPath = "/intercom"
	// MetricsPath exposes the prometheus metrics.
	MetricsPath = "/metrics"

	shutdownTimeout = 5 * time.Second
)

type service struct {
	opts     ServiceOpts
	server   *intercom.Server
	http     *http.Server
	listener net.Listener

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	wg          *sync.WaitGroup
}

type ServiceOpts struct {
	// Address is the host:port the http server listens on.
	Address string
	// Origin is the only origin accepted by the intercom server.
	Origin string
	// PasswordFile, if defined, contains the password used to unlock the
	// wallet at startup.
	PasswordFile string
	NoMetrics    bool

	Store    *background.Store
	Actions  *background.Actions
	Pipeline *pipeline.Service
	Monitor  *pipeline.Monitor
	Records  *records.Service
	Syncer   *records.Syncer
	// Webhooks is optional.
	Webhooks *pubsub.Service
}

func (o ServiceOpts) validate() error {
	if o.Address == "" {
		return fmt.Errorf("missing listening address")
	}
	if _, _, err := net.SplitHostPort(o.Address); err != nil {
		return fmt.Errorf("invalid listening address: %s", err)
	}
	if o.PasswordFile != "" {
		if _, err := os.Stat(o.PasswordFile); err != nil {
			return fmt.Errorf("password file: %s", err)
		}
	}
	if o.Store == nil {
		return fmt.Errorf("missing store")
	}
	if o.Actions == nil {
		return fmt.Errorf("missing actions")
	}
	if o.Pipeline == nil || o.Monitor == nil {
		return fmt.Errorf("missing transaction pipeline")
	}
	if o.Records == nil || o.Syncer == nil {
		return fmt.Errorf("missing records service")
	}
	return nil
}

// NewService returns the intercom interface of the daemon: a websocket
// endpoint serving the wallet message catalog, plus the metrics endpoint.
func NewService(opts ServiceOpts) (interfaces.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}

	server := intercom.NewServer(opts.Origin)
	server.OnConnectionsChange(func(connected int) {
		stats.ConnectedPorts.Set(float64(connected))
	})
	server.OnRequest(NewWalletHandler(opts.Actions))
	server.OnRequest(NewTransactionHandler(opts.Pipeline, opts.Monitor))
	server.OnRequest(NewRecordsHandler(opts.Records, opts.Syncer, opts.Actions))
	if opts.Webhooks != nil {
		server.OnRequest(NewWebhookHandler(opts.Webhooks))
	}

	mux := http.NewServeMux()
	mux.Handle(IntercomPath, websocketport.Handler(server))
	if !opts.NoMetrics {
		mux.Handle(MetricsPath, promhttp.Handler())
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &service{
		opts:   opts,
		server: server,
		http: &http.Server{
			Addr:              opts.Address,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ctx:    ctx,
		cancel: cancel,
		wg:     &sync.WaitGroup{},
	}, nil
}

func (s *service) Start() error {
	if err := s.opts.Actions.Init(s.ctx); err != nil {
		return fmt.Errorf("failed to load wallet: %w", err)
	}

	events, unsubscribe := s.opts.Store.Subscribe()
	s.unsubscribe = unsubscribe
	s.wg.Add(1)
	go s.listenStateChanges(events)

	if s.opts.PasswordFile != "" {
		if err := s.autoUnlock(); err != nil {
			log.WithError(err).Warn("failed to unlock wallet with password file")
		}
	}

	// Resume outstanding transactions left by a previous run, if any.
	if err := s.opts.Monitor.Start(s.ctx); err != nil &&
		!errors.Is(err, pipeline.ErrMonitorRunning) {
		return err
	}

	listener, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}
	s.listener = listener

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.http.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("intercom server stopped unexpectedly")
		}
	}()

	log.Infof("intercom interface is listening on %s", listener.Addr())
	return nil
}

func (s *service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// nolint
	s.http.Shutdown(ctx)
	log.Debug("stopped http server")

	s.server.Close()
	log.Debug("closed intercom connections")

	s.opts.Syncer.Stop()
	s.opts.Monitor.Stop()
	s.cancel()
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.wg.Wait()
	log.Debug("stopped background services")
}

func (s *service) autoUnlock() error {
	buf, err := os.ReadFile(s.opts.PasswordFile)
	if err != nil {
		return err
	}
	password := strings.TrimSpace(string(buf))
	if err := s.opts.Actions.Unlock(s.ctx, password); err != nil {
		return err
	}
	log.Info("wallet unlocked with password file")
	return nil
}

// listenStateChanges notifies every front context of the new state and
// starts or stops the record syncer depending on the wallet status.
func (s *service) listenStateChanges(events <-chan background.Event) {
	defer s.wg.Done()

	for event := range events {
		state := event.State
		if err := s.server.Broadcast(Notification{StateUpdated}); err != nil {
			log.WithError(err).Debug("failed to broadcast state update")
		}

		if state.Status == domain.StatusReady {
			s.opts.Syncer.Start(s.ctx)
			s.opts.Syncer.Trigger()
		} else {
			s.opts.Syncer.Stop()
		}

		if s.opts.Webhooks != nil {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				if err := s.opts.Webhooks.PublishStateUpdatedEvent(
					s.ctx, state,
				); err != nil {
					log.WithError(err).Debug("failed to publish state update")
				}
			}()
		}
	}
}
