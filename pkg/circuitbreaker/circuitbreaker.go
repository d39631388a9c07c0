package circuitbreaker

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const (
	// DefaultMinRequests is the number of requests a breaker lets through
	// before it can trip.
	DefaultMinRequests = 10
	// DefaultFailureRatio is the share of failed requests that trips a
	// breaker.
	DefaultFailureRatio = 0.6
	// DefaultOpenTimeout is how long a tripped breaker rejects requests
	// before letting a trial request through.
	DefaultOpenTimeout = time.Minute
)

// Settings tunes the breaker guarding the calls to a remote service. Zero
// values fall back to the defaults.
type Settings struct {
	// Service names the breaker in logs.
	Service      string
	MinRequests  int
	FailureRatio float64
	OpenTimeout  time.Duration
}

// New returns a breaker that trips once more than MinRequests calls to the
// service were made and at least FailureRatio of them failed. Callers decide
// what a failure is by returning an error from Execute.
func New(settings Settings) *gobreaker.CircuitBreaker {
	service := settings.Service
	if service == "" {
		service = "remote"
	}
	minRequests := settings.MinRequests
	if minRequests <= 0 {
		minRequests = DefaultMinRequests
	}
	ratio := settings.FailureRatio
	if ratio <= 0 || ratio > 1 {
		ratio = DefaultFailureRatio
	}
	openTimeout := settings.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = DefaultOpenTimeout
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    service,
		Timeout: openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failed := float64(counts.TotalFailures) / float64(counts.Requests)
			return int(counts.Requests) > minRequests && failed >= ratio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger := log.WithFields(log.Fields{
				"service": name, "from": from.String(), "to": to.String(),
			})
			if to == gobreaker.StateOpen {
				logger.Warn("calls to service suspended")
				return
			}
			logger.Debug("circuit breaker state changed")
		},
	})
}
