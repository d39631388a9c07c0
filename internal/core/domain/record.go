package domain

import "fmt"

// RecordMetadata is the public part of a chain record needed to test its
// ownership.
type RecordMetadata struct {
	ID           int64  `json:"id"`
	TransitionID string `json:"transition_id"`
	OutputIndex  uint32 `json:"output_index"`
	NonceX       string `json:"nonce_x"`
	NonceY       string `json:"nonce_y"`
	OwnerX       string `json:"owner_x"`
	BlockHeight  int64  `json:"block_height"`
}

// OwnedRecord is a chain record whose ownership has been confirmed against
// one of the wallet's view keys.
type OwnedRecord struct {
	ID           int64
	Address      string
	TransitionID string
	OutputIndex  uint32
	NonceX       string
	NonceY       string
	OwnerX       string
	BlockHeight  int64
	// Tag is empty until the record has been tagged on chain.
	Tag      string
	TagIndex uint64
	Synced   bool
}

// NewOwnedRecord returns an untagged record owned by the given address.
func NewOwnedRecord(address string, metadata RecordMetadata) OwnedRecord {
	return OwnedRecord{
		ID:           metadata.ID,
		Address:      address,
		TransitionID: metadata.TransitionID,
		OutputIndex:  metadata.OutputIndex,
		NonceX:       metadata.NonceX,
		NonceY:       metadata.NonceY,
		OwnerX:       metadata.OwnerX,
		BlockHeight:  metadata.BlockHeight,
	}
}

// Key returns the unique identifier of the record.
func (r OwnedRecord) Key() string {
	return RecordKey(r.Address, r.TransitionID, r.OutputIndex)
}

// IsTagged ...
func (r OwnedRecord) IsTagged() bool {
	return r.Tag != ""
}

// Metadata returns the public part of the record.
func (r OwnedRecord) Metadata() RecordMetadata {
	return RecordMetadata{
		ID:           r.ID,
		TransitionID: r.TransitionID,
		OutputIndex:  r.OutputIndex,
		NonceX:       r.NonceX,
		NonceY:       r.NonceY,
		OwnerX:       r.OwnerX,
		BlockHeight:  r.BlockHeight,
	}
}

// RecordKey returns the unique identifier of a record given its address,
// transition id and output index.
func RecordKey(address, transitionID string, outputIndex uint32) string {
	return fmt.Sprintf("%s:%s:%d", address, transitionID, outputIndex)
}

// AccountCreationMetadata tracks the block height at which an address was
// first seen by the wallet, and the first record owned by it.
type AccountCreationMetadata struct {
	Address     string
	BlockHeight int64
	// AssociatedRecordID is 0 until resolved.
	AssociatedRecordID int64
}

// IsResolved ...
func (m AccountCreationMetadata) IsResolved() bool {
	return m.AssociatedRecordID != 0
}

// NeedsResolution returns whether the associated record must still be looked
// up. Addresses created at height 0 are scanned from genesis.
func (m AccountCreationMetadata) NeedsResolution() bool {
	return m.BlockHeight > 0 && !m.IsResolved()
}

// SyncState is the scanning progress: the id of the last scanned record and
// the addresses it was scanned for.
type SyncState struct {
	Cursor    int64
	Addresses []string
}

// Covers returns whether the state was built scanning for all the given
// addresses.
func (s SyncState) Covers(addresses []string) bool {
	known := make(map[string]struct{}, len(s.Addresses))
	for _, a := range s.Addresses {
		known[a] = struct{}{}
	}
	for _, a := range addresses {
		if _, ok := known[a]; !ok {
			return false
		}
	}
	return true
}
