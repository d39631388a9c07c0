package records

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/tdex-network/notewallet/internal/core/ports"
	"github.com/tdex-network/notewallet/pkg/locks"
	"github.com/tdex-network/notewallet/pkg/stats"
	"github.com/tdex-network/notewallet/pkg/wallet"
)

const (
	// DefaultPageSize is the number of record metadata fetched from the chain
	// per request.
	DefaultPageSize = 5000
	// MaxRecordResolveAttempts caps the number of failed lookups of the record
	// associated to the creation height of an address.
	MaxRecordResolveAttempts = 3
)

// Service scans the chain for records owned by the wallet and tags them.
type Service struct {
	chain      ports.ChainClient
	clientLock *locks.ClientLock
	locks      *locks.Registry
	keys       ports.KeyProvider
	kernel     ports.OwnershipKernel
	prover     ports.TagProver

	records   domain.OwnedRecordRepository
	metadata  domain.AccountMetadataRepository
	syncState domain.SyncStateRepository

	pageSize  int
	onRecords func(records []domain.OwnedRecord)

	// resolveFailures is guarded by the account creation heights lock.
	resolveFailures map[string]int
}

// Opts ...
type Opts struct {
	Chain       ports.ChainClient
	ClientLock  *locks.ClientLock
	Locks       *locks.Registry
	Keys        ports.KeyProvider
	Kernel      ports.OwnershipKernel
	Prover      ports.TagProver
	RepoManager ports.RepoManager

	PageSize int
	// OnRecords, if defined, is called with the newly found owned records.
	OnRecords func(records []domain.OwnedRecord)
}

func (o Opts) validate() error {
	if o.Chain == nil {
		return fmt.Errorf("missing chain client")
	}
	if o.ClientLock == nil {
		return fmt.Errorf("missing client lock")
	}
	if o.Locks == nil {
		return fmt.Errorf("missing lock registry")
	}
	if o.Keys == nil {
		return fmt.Errorf("missing key provider")
	}
	if o.Kernel == nil {
		return fmt.Errorf("missing ownership kernel")
	}
	if o.Prover == nil {
		return fmt.Errorf("missing tag prover")
	}
	if o.RepoManager == nil {
		return fmt.Errorf("missing repo manager")
	}
	return nil
}

func NewService(opts Opts) (*Service, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &Service{
		chain:      opts.Chain,
		clientLock: opts.ClientLock,
		locks:      opts.Locks,
		keys:       opts.Keys,
		kernel:     opts.Kernel,
		prover:     opts.Prover,
		records:    opts.RepoManager.OwnedRecordRepository(),
		metadata:   opts.RepoManager.AccountMetadataRepository(),
		syncState:  opts.RepoManager.SyncStateRepository(),
		pageSize:   pageSize,
		onRecords:  opts.OnRecords,

		resolveFailures: make(map[string]int),
	}, nil
}

// SyncRecords scans the records created since the last sync and persists
// those owned by the wallet. It returns true without doing anything if
// another pass over records is running.
func (s *Service) SyncRecords(ctx context.Context) (skipped bool, err error) {
	return s.tryWithLock(locks.Records, func() error {
		return s.syncRecords(ctx)
	})
}

// TagOwnedRecords derives, proves and submits the tags of all untagged
// records. A record is marked as tagged only once the chain accepted it.
func (s *Service) TagOwnedRecords(ctx context.Context) (skipped bool, err error) {
	return s.tryWithLock(locks.Records, func() error {
		return s.tagOwnedRecords(ctx)
	})
}

// SyncAccountCreationHeights stores the creation metadata of new addresses
// and tries to resolve the ones still missing their associated record.
func (s *Service) SyncAccountCreationHeights(
	ctx context.Context,
) (skipped bool, err error) {
	return s.tryWithLock(locks.AccountCreationBlockHeights, func() error {
		return s.syncAccountCreationHeights(ctx)
	})
}

// GetOwnedRecords returns the owned records of the given address, or all of
// them if address is empty.
func (s *Service) GetOwnedRecords(
	ctx context.Context, address string,
) ([]domain.OwnedRecord, error) {
	if address == "" {
		return s.records.GetAllRecords(ctx)
	}
	return s.records.GetRecordsForAddress(ctx, address)
}

func (s *Service) tryWithLock(name string, fn func() error) (bool, error) {
	acquired, err := s.locks.TryWithLock(name, fn)
	if !acquired {
		log.Debugf("%s lock busy, skipping", name)
		stats.SkippedSyncs.WithLabelValues(name).Inc()
		return true, nil
	}
	return false, err
}

func (s *Service) viewKeys(ctx context.Context) ([]ports.ViewKey, error) {
	keys, err := s.keys.ViewKeys(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrLocked) || errors.Is(err, domain.ErrInvalidState) {
			return nil, nil
		}
		return nil, err
	}
	return keys, nil
}

func (s *Service) syncRecords(ctx context.Context) error {
	keys, err := s.viewKeys(ctx)
	if err != nil || len(keys) <= 0 {
		return err
	}

	state, err := s.syncState.GetSyncState(ctx)
	if err != nil {
		return err
	}

	addresses := make([]string, 0, len(keys))
	for _, k := range keys {
		addresses = append(addresses, k.Address)
	}

	cursor := state.Cursor
	if !state.Covers(addresses) {
		cursor, err = s.rescanCursor(ctx, *state, keys)
		if err != nil {
			return err
		}
		log.Debugf("new addresses found, scanning records from id %d", cursor)
	}

	start := time.Now()
	defer func() {
		stats.ScanDuration.Observe(time.Since(start).Seconds())
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var page []domain.RecordMetadata
		if err := s.clientLock.WithLock(ctx, func(ctx context.Context) error {
			var err error
			page, err = s.chain.GetRecords(ctx, cursor, s.pageSize)
			return err
		}); err != nil {
			return fmt.Errorf("failed to fetch records after %d: %w", cursor, err)
		}

		if len(page) > 0 {
			if err := s.scan(ctx, keys, page); err != nil {
				return err
			}
			cursor = page[len(page)-1].ID
		}

		if err := s.syncState.UpdateSyncState(ctx, domain.SyncState{
			Cursor:    cursor,
			Addresses: addresses,
		}); err != nil {
			return err
		}

		if len(page) < s.pageSize {
			return nil
		}
	}
}

// rescanCursor returns the id to restart scanning from so that records of
// the addresses not covered by state are not missed.
func (s *Service) rescanCursor(
	ctx context.Context, state domain.SyncState, keys []ports.ViewKey,
) (int64, error) {
	known := make(map[string]bool, len(state.Addresses))
	for _, a := range state.Addresses {
		known[a] = true
	}

	cursor := state.Cursor
	for _, k := range keys {
		if known[k.Address] {
			continue
		}
		from := int64(0)
		if !k.FromGenesis {
			m, err := s.metadata.GetMetadata(ctx, k.Address)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return 0, err
			}
			if m != nil {
				from = m.AssociatedRecordID
			}
		}
		if from < cursor {
			cursor = from
		}
	}
	return cursor, nil
}

func (s *Service) scan(
	ctx context.Context, keys []ports.ViewKey, page []domain.RecordMetadata,
) error {
	batchSize := s.kernel.BatchSize()
	if batchSize <= 0 {
		batchSize = len(page)
	}

	owned := make([]domain.OwnedRecord, 0)
	for i := 0; i < len(page); i += batchSize {
		end := i + batchSize
		if end > len(page) {
			end = len(page)
		}
		found, err := s.kernel.Scan(ctx, keys, page[i:end])
		if err != nil {
			return fmt.Errorf("%s kernel failed to scan records: %w", s.kernel.Name(), err)
		}
		owned = append(owned, found...)
	}
	stats.ScannedRecords.Add(float64(len(page)))

	if len(owned) <= 0 {
		return nil
	}

	count, err := s.records.AddRecords(ctx, owned...)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Infof("found %d new owned records", count)
		stats.OwnedRecords.Add(float64(count))
		if s.onRecords != nil {
			s.onRecords(owned)
		}
	}
	return nil
}

func (s *Service) tagOwnedRecords(ctx context.Context) error {
	keys, err := s.viewKeys(ctx)
	if err != nil || len(keys) <= 0 {
		return err
	}

	inputs, err := s.collectProofInputs(ctx, keys)
	if err != nil || len(inputs) <= 0 {
		return err
	}

	proofs, proofErrs := s.prover.ProveTags(ctx, inputs)
	for key, err := range proofErrs {
		log.WithError(err).Warnf("failed to prove tag of record %s", key)
		stats.TaggedRecords.WithLabelValues("proof_failed").Inc()
	}

	for _, p := range proofs {
		if err := s.clientLock.WithLock(ctx, func(ctx context.Context) error {
			return s.chain.TagRecord(ctx, p.RecordID, p.Tag, p.Proof)
		}); err != nil {
			log.WithError(err).Warnf("failed to tag record %s", p.RecordKey)
			stats.TaggedRecords.WithLabelValues("submit_failed").Inc()
			continue
		}

		tag, tagIndex := p.Tag, p.TagIndex
		if err := s.records.UpdateRecord(
			ctx, p.RecordKey,
			func(r *domain.OwnedRecord) (*domain.OwnedRecord, error) {
				r.Tag = tag
				r.TagIndex = tagIndex
				return r, nil
			},
		); err != nil {
			return err
		}
		stats.TaggedRecords.WithLabelValues("tagged").Inc()
	}
	return nil
}

// collectProofInputs assigns to every untagged record of a known address the
// next tag index of that address, in record id order.
func (s *Service) collectProofInputs(
	ctx context.Context, keys []ports.ViewKey,
) ([]ports.TagProofInput, error) {
	untagged, err := s.records.GetUntaggedRecords(ctx)
	if err != nil || len(untagged) <= 0 {
		return nil, err
	}

	all, err := s.records.GetAllRecords(ctx)
	if err != nil {
		return nil, err
	}

	viewKeys := make(map[string]string, len(keys))
	for _, k := range keys {
		viewKeys[k.Address] = k.ViewKey
	}

	nextIndex := make(map[string]uint64)
	for _, r := range all {
		if !r.IsTagged() {
			continue
		}
		if next, ok := nextIndex[r.Address]; !ok || r.TagIndex+1 > next {
			nextIndex[r.Address] = r.TagIndex + 1
		}
	}

	sort.SliceStable(untagged, func(i, j int) bool {
		return untagged[i].ID < untagged[j].ID
	})

	inputs := make([]ports.TagProofInput, 0, len(untagged))
	for _, r := range untagged {
		viewKey, ok := viewKeys[r.Address]
		if !ok {
			continue
		}
		index := nextIndex[r.Address]
		nextIndex[r.Address] = index + 1

		inputs = append(inputs, ports.TagProofInput{
			Tag:      wallet.DeriveTag(viewKey, index),
			TagIndex: index,
			Address:  r.Address,
			ViewKey:  viewKey,
			Record:   r,
		})
	}
	return inputs, nil
}

func (s *Service) syncAccountCreationHeights(ctx context.Context) error {
	keys, err := s.viewKeys(ctx)
	if err != nil || len(keys) <= 0 {
		return err
	}

	var height *int64
	blockHeight := func() (int64, error) {
		if height != nil {
			return *height, nil
		}
		var h int64
		if err := s.clientLock.WithLock(ctx, func(ctx context.Context) error {
			var err error
			h, err = s.chain.GetBlockHeight(ctx)
			return err
		}); err != nil {
			return 0, err
		}
		height = &h
		return h, nil
	}

	for _, k := range keys {
		m, err := s.metadata.GetMetadata(ctx, k.Address)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if m == nil {
			metadata := domain.AccountCreationMetadata{Address: k.Address}
			if !k.FromGenesis {
				h, err := blockHeight()
				if err != nil {
					return fmt.Errorf("failed to get block height: %w", err)
				}
				metadata.BlockHeight = h
				// A failure here is retried by the next passes.
				metadata.AssociatedRecordID, _ = s.latestRecordID(ctx, h)
			}
			if err := s.metadata.AddMetadata(ctx, metadata); err != nil {
				return err
			}
			continue
		}

		if !m.NeedsResolution() ||
			s.resolveFailures[k.Address] >= MaxRecordResolveAttempts {
			continue
		}
		id, err := s.latestRecordID(ctx, m.BlockHeight)
		if err != nil {
			s.resolveFailures[k.Address]++
			continue
		}
		if id == 0 {
			continue
		}
		if err := s.metadata.UpdateMetadata(
			ctx, k.Address,
			func(m *domain.AccountCreationMetadata) (*domain.AccountCreationMetadata, error) {
				m.AssociatedRecordID = id
				return m, nil
			},
		); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) latestRecordID(
	ctx context.Context, blockHeight int64,
) (int64, error) {
	var id int64
	if err := s.clientLock.WithLock(ctx, func(ctx context.Context) error {
		var err error
		id, err = s.chain.GetLatestRecordID(ctx, blockHeight)
		return err
	}); err != nil {
		log.WithError(err).Debugf(
			"failed to get latest record at block height %d", blockHeight,
		)
		return 0, err
	}
	return id, nil
}
