package inmemory

import (
	"fmt"

	"github.com/tdex-network/notewallet/internal/core/domain"
)

var (
	// ErrTransactionNotFound ...
	ErrTransactionNotFound = fmt.Errorf("transaction %w", domain.ErrNotFound)
	// ErrTransactionAlreadyExists ...
	ErrTransactionAlreadyExists = fmt.Errorf("transaction already exists")
	// ErrRecordNotFound ...
	ErrRecordNotFound = fmt.Errorf("record %w", domain.ErrNotFound)
	// ErrMetadataNotFound ...
	ErrMetadataNotFound = fmt.Errorf("account metadata %w", domain.ErrNotFound)
	// ErrSessionNotFound ...
	ErrSessionNotFound = fmt.Errorf("dapp session %w", domain.ErrNotFound)
)
