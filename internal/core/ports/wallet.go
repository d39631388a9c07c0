package ports

import "context"

// ViewKey is an (address, view key) pair of a wallet account.
type ViewKey struct {
	Address string
	ViewKey string
	// FromGenesis is set when the key may own records older than the
	// account's creation.
	FromGenesis bool
}

// KeyProvider gives access to the view keys of the unlocked wallet.
type KeyProvider interface {
	ViewKeys(ctx context.Context) ([]ViewKey, error)
}

// Signer signs transaction inputs with the key of the given account.
type Signer interface {
	SignTransaction(
		ctx context.Context, publicKey, signingInputsHex string,
	) (string, error)
}
