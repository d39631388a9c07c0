package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/tdex-network/notewallet/internal/core/ports"
	"github.com/tdex-network/notewallet/pkg/locks"
	"github.com/tdex-network/notewallet/pkg/stats"
	"github.com/tdex-network/notewallet/pkg/worker"
)

const (
	// DefaultMaxWaitBeforeCancel is how long a transaction can stay in
	// progress before being considered stuck.
	DefaultMaxWaitBeforeCancel = 30 * time.Minute
	// MobileMaxWaitBeforeCancel is the same as DefaultMaxWaitBeforeCancel for
	// mobile devices, where generation runs inline and an interrupted attempt
	// is far more likely.
	MobileMaxWaitBeforeCancel = 2 * time.Minute

	stuckTransactionReason = "transaction generation timed out"
	cancelledReason        = "cancelled by user"
)

var (
	// ErrTransactionInProgress is returned when trying to cancel a
	// transaction that's being generated.
	ErrTransactionInProgress = errors.New("transaction generation in progress")
	// ErrEmptyChainResponse is returned when the chain client replies with
	// neither a transaction nor an error.
	ErrEmptyChainResponse = errors.New("empty response from chain")
)

// Service drives queued transactions through the generation pipeline.
type Service struct {
	repo       domain.TransactionRepository
	chain      ports.ChainClient
	clientLock *locks.ClientLock
	signer     ports.Signer
	runner     *worker.Runner
	locks      *locks.Registry

	maxWaitBeforeCancel time.Duration
	onUpdate            func(tx domain.QueuedTransaction)
}

// Opts ...
type Opts struct {
	Repo       domain.TransactionRepository
	Chain      ports.ChainClient
	ClientLock *locks.ClientLock
	Signer     ports.Signer
	Runner     *worker.Runner
	Locks      *locks.Registry

	MaxWaitBeforeCancel time.Duration
	// OnUpdate, if defined, is called after every persisted status change.
	OnUpdate func(tx domain.QueuedTransaction)
}

func (o Opts) validate() error {
	if o.Repo == nil {
		return fmt.Errorf("missing transaction repository")
	}
	if o.Chain == nil {
		return fmt.Errorf("missing chain client")
	}
	if o.ClientLock == nil {
		return fmt.Errorf("missing client lock")
	}
	if o.Signer == nil {
		return fmt.Errorf("missing signer")
	}
	if o.Runner == nil {
		return fmt.Errorf("missing worker runner")
	}
	if o.Locks == nil {
		return fmt.Errorf("missing lock registry")
	}
	return nil
}

func NewService(opts Opts) (*Service, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	maxWait := opts.MaxWaitBeforeCancel
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitBeforeCancel
		if opts.Runner.Mode() == worker.ModeInline {
			maxWait = MobileMaxWaitBeforeCancel
		}
	}

	return &Service{
		repo:                opts.Repo,
		chain:               opts.Chain,
		clientLock:          opts.ClientLock,
		signer:              opts.Signer,
		runner:              opts.Runner,
		locks:               opts.Locks,
		maxWaitBeforeCancel: maxWait,
		onUpdate:            opts.OnUpdate,
	}, nil
}

// QueueTransaction adds a new transaction to the queue.
func (s *Service) QueueTransaction(
	ctx context.Context, txType domain.TransactionType,
	accountPublicKey string, payload json.RawMessage,
) (*domain.QueuedTransaction, error) {
	tx, err := domain.NewQueuedTransaction(txType, accountPublicKey, payload)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddTransaction(ctx, tx); err != nil {
		return nil, err
	}

	log.Debugf("queued %s transaction %s", tx.Type, tx.ID)
	s.notify(*tx)
	return tx, nil
}

// CancelTransaction fails a queued transaction. Transactions in progress can't
// be cancelled.
func (s *Service) CancelTransaction(ctx context.Context, id string) error {
	var cancelled *domain.QueuedTransaction
	if err := s.repo.UpdateTransaction(
		ctx, id,
		func(tx *domain.QueuedTransaction) (*domain.QueuedTransaction, error) {
			if tx.Status.IsInProgress() {
				return nil, ErrTransactionInProgress
			}
			if err := tx.Fail(cancelledReason); err != nil {
				return nil, err
			}
			cancelled = tx
			return tx, nil
		},
	); err != nil {
		return err
	}

	stats.Transactions.WithLabelValues("cancelled").Inc()
	s.notify(*cancelled)
	return nil
}

// ListTransactions returns all transactions, or only the outstanding ones,
// oldest first.
func (s *Service) ListTransactions(
	ctx context.Context, outstandingOnly bool,
) ([]domain.QueuedTransaction, error) {
	if outstandingOnly {
		return s.repo.GetTransactionsByStatus(ctx, outstandingStatuses...)
	}
	return s.repo.GetAllTransactions(ctx)
}

// Loop is a single iteration of the transaction generation loop. It returns
// false if the processed transaction failed, true otherwise, including when
// another iteration is already running.
func (s *Service) Loop(ctx context.Context) (bool, error) {
	ok := true
	acquired, err := s.locks.TryWithLock(locks.TransactionsLoop, func() error {
		var err error
		ok, err = s.loop(ctx)
		return err
	})
	if !acquired {
		log.Debug("transactions loop already running, skipping")
		stats.SkippedSyncs.WithLabelValues(locks.TransactionsLoop).Inc()
		return true, nil
	}
	return ok, err
}

var outstandingStatuses = []domain.TransactionStatus{
	domain.TransactionStatusQueued,
	domain.TransactionStatusAuthorizing,
	domain.TransactionStatusGenerating,
	domain.TransactionStatusSubmitting,
}

func (s *Service) loop(ctx context.Context) (bool, error) {
	if err := s.cancelStuckTransactions(ctx); err != nil {
		return false, err
	}

	inProgress, err := s.repo.GetTransactionsByStatus(
		ctx,
		domain.TransactionStatusAuthorizing,
		domain.TransactionStatusGenerating,
		domain.TransactionStatusSubmitting,
	)
	if err != nil {
		return false, err
	}
	if len(inProgress) > 0 {
		return true, nil
	}

	queued, err := s.repo.GetTransactionsByStatus(ctx, domain.TransactionStatusQueued)
	if err != nil {
		return false, err
	}
	if len(queued) <= 0 {
		return true, nil
	}

	return s.generate(ctx, queued[0].ID)
}

func (s *Service) cancelStuckTransactions(ctx context.Context) error {
	txs, err := s.repo.GetTransactionsByStatus(
		ctx,
		domain.TransactionStatusAuthorizing,
		domain.TransactionStatusGenerating,
		domain.TransactionStatusSubmitting,
	)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, tx := range txs {
		if !tx.IsStuck(now, s.maxWaitBeforeCancel) {
			continue
		}
		log.Warnf("cancelling stuck transaction %s", tx.ID)
		if err := s.fail(ctx, tx.ID, stuckTransactionReason); err != nil {
			return err
		}
	}
	return nil
}

// generate brings the transaction from Queued to Completed, persisting every
// intermediate status. Any step failure marks it as Failed.
func (s *Service) generate(ctx context.Context, id string) (bool, error) {
	logger := log.WithField("tx", id)

	tx, err := s.advance(ctx, id) // Authorizing
	if err != nil {
		return false, err
	}

	var unsigned *ports.UnsignedTransaction
	if err := s.clientLock.WithLock(ctx, func(ctx context.Context) error {
		var err error
		unsigned, err = s.chain.BuildTransaction(ctx, *tx)
		if err == nil && unsigned == nil {
			err = ErrEmptyChainResponse
		}
		return err
	}); err != nil {
		logger.WithError(err).Warn("failed to build transaction")
		return false, s.fail(ctx, id, err.Error())
	}

	signature, err := s.signer.SignTransaction(
		ctx, tx.AccountPublicKey, unsigned.SigningInputs,
	)
	if err != nil {
		logger.WithError(err).Warn("failed to sign transaction")
		return false, s.fail(ctx, id, err.Error())
	}

	if _, err := s.advance(ctx, id); err != nil { // Generating
		return false, err
	}

	res, err := s.runner.Run(ctx, func(ctx context.Context) (interface{}, error) {
		var proven *ports.ProvenTransaction
		err := s.clientLock.WithLock(ctx, func(ctx context.Context) error {
			var err error
			proven, err = s.chain.ProveTransaction(ctx, *unsigned, signature)
			return err
		})
		return proven, err
	})
	proven, _ := res.(*ports.ProvenTransaction)
	if err == nil && proven == nil {
		err = ErrEmptyChainResponse
	}
	if err != nil {
		logger.WithError(err).Warn("failed to prove transaction")
		return false, s.fail(ctx, id, err.Error())
	}

	if _, err := s.advance(ctx, id); err != nil { // Submitting
		return false, err
	}

	var txHash string
	if err := s.clientLock.WithLock(ctx, func(ctx context.Context) error {
		var err error
		txHash, err = s.chain.SubmitTransaction(ctx, *proven)
		return err
	}); err != nil {
		logger.WithError(err).Warn("failed to submit transaction")
		return false, s.fail(ctx, id, err.Error())
	}

	var completed *domain.QueuedTransaction
	if err := s.repo.UpdateTransaction(
		ctx, id,
		func(tx *domain.QueuedTransaction) (*domain.QueuedTransaction, error) {
			if err := tx.Complete(txHash); err != nil {
				return nil, err
			}
			completed = tx
			return tx, nil
		},
	); err != nil {
		return false, err
	}

	logger.Infof("transaction completed with hash %s", txHash)
	stats.Transactions.WithLabelValues(string(domain.TransactionStatusCompleted)).Inc()
	s.notify(*completed)
	return true, nil
}

func (s *Service) advance(
	ctx context.Context, id string,
) (*domain.QueuedTransaction, error) {
	var updated *domain.QueuedTransaction
	if err := s.repo.UpdateTransaction(
		ctx, id,
		func(tx *domain.QueuedTransaction) (*domain.QueuedTransaction, error) {
			if err := tx.Advance(); err != nil {
				return nil, err
			}
			updated = tx
			return tx, nil
		},
	); err != nil {
		return nil, err
	}

	s.notify(*updated)
	return updated, nil
}

func (s *Service) fail(ctx context.Context, id, reason string) error {
	var failed *domain.QueuedTransaction
	if err := s.repo.UpdateTransaction(
		ctx, id,
		func(tx *domain.QueuedTransaction) (*domain.QueuedTransaction, error) {
			if err := tx.Fail(reason); err != nil {
				return nil, err
			}
			failed = tx
			return tx, nil
		},
	); err != nil {
		return err
	}

	stats.Transactions.WithLabelValues(string(domain.TransactionStatusFailed)).Inc()
	s.notify(*failed)
	return nil
}

func (s *Service) notify(tx domain.QueuedTransaction) {
	if s.onUpdate != nil {
		s.onUpdate(tx)
	}
}
