package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when an action is not allowed by the current
	// status of the wallet.
	ErrInvalidState = errors.New("action not allowed in the current wallet state")
	// ErrAlreadyExists is returned when trying to create a wallet twice.
	ErrAlreadyExists = fmt.Errorf("%w: wallet already exists", ErrInvalidState)
	// ErrLocked is returned when an operation requires the wallet to be
	// unlocked.
	ErrLocked = errors.New("wallet must be unlocked to perform this operation")
	// ErrInvalidPassword ...
	ErrInvalidPassword = errors.New("invalid password")
	// ErrNullPassword ...
	ErrNullPassword = errors.New("password must not be null")
	// ErrNotFound is returned by repositories when the requested entity
	// doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrAccountNotFound ...
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountAlreadyExists ...
	ErrAccountAlreadyExists = errors.New("account already exists")
	// ErrLastAccount is returned when trying to remove the only account left.
	ErrLastAccount = errors.New("the last account of the wallet can't be removed")
	// ErrInvalidAccountName ...
	ErrInvalidAccountName = errors.New("invalid account name")
	// ErrInvalidWalletType ...
	ErrInvalidWalletType = errors.New("unknown wallet type")

	// ErrTransactionFinalized is returned when trying to update a transaction
	// already in a terminal status.
	ErrTransactionFinalized = errors.New("transaction is already finalized")
	// ErrInvalidTransactionType ...
	ErrInvalidTransactionType = errors.New("unknown transaction type")
	// ErrInvalidStatusTransition ...
	ErrInvalidStatusTransition = errors.New("invalid transaction status transition")
)
