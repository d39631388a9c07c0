package wallet

import (
	"errors"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/vulpemventures/go-bip39"
)

var (
	// ErrNullMnemonic ...
	ErrNullMnemonic = errors.New("mnemonic must not be null")
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be null")
	// ErrNullPrivateKey ...
	ErrNullPrivateKey = errors.New("private key must not be null")
	// ErrNullViewKey ...
	ErrNullViewKey = errors.New("view key must not be null")

	// ErrInvalidMnemonic ...
	ErrInvalidMnemonic = errors.New("mnemonic is invalid")
	// ErrInvalidEntropySize ...
	ErrInvalidEntropySize = errors.New(
		"entropy size must be a multiple of 32 in the range [128,256]",
	)
	// ErrInvalidDerivationPath ...
	ErrInvalidDerivationPath = errors.New("invalid derivation path")
	// ErrInvalidPrivateKey ...
	ErrInvalidPrivateKey = errors.New(
		"private key must be a valid 32 byte scalar in hex format",
	)
	// ErrInvalidViewKey ...
	ErrInvalidViewKey = errors.New(
		"view key must be a valid 32 byte scalar in hex format",
	)
	// ErrInvalidAddress ...
	ErrInvalidAddress = errors.New("address must be a valid compressed point")
	// ErrInvalidPublicKey ...
	ErrInvalidPublicKey = errors.New("public key must be a valid compressed point")
	// ErrInvalidNonce ...
	ErrInvalidNonce = errors.New("record nonce is not a valid curve point")
	// ErrRecordNotOwned ...
	ErrRecordNotOwned = errors.New("record is not owned by the view key")
	// ErrInvalidTagProof ...
	ErrInvalidTagProof = errors.New("tag proof must be a valid hex signature")
	// ErrInvalidFieldElement ...
	ErrInvalidFieldElement = errors.New("field element must be a decimal number")
	// ErrMalformedDerivationPath ...
	ErrMalformedDerivationPath = errors.New(
		"path must not start or end with a '/' and " +
			"can optionally start with 'm/' for absolute paths",
	)
)

// Wallet data structure allows to create a new wallet from a mnemonic and to
// derive the HD accounts from its master key.
type Wallet struct {
	mnemonic  string
	masterKey *hdkeychain.ExtendedKey
}

// NewWalletOpts is the struct given to the NewWallet method
type NewWalletOpts struct {
	EntropySize int
}

// NewWallet creates a new wallet with a random mnemonic.
func NewWallet(opts NewWalletOpts) (*Wallet, error) {
	mnemonic, err := NewMnemonic(NewMnemonicOpts(opts))
	if err != nil {
		return nil, err
	}
	return NewWalletFromMnemonic(NewWalletFromMnemonicOpts{
		Mnemonic: strings.Join(mnemonic, " "),
	})
}

// NewWalletFromMnemonicOpts is the struct given to the NewWalletFromMnemonic
// method
type NewWalletFromMnemonicOpts struct {
	Mnemonic string
}

func (o NewWalletFromMnemonicOpts) validate() error {
	if len(strings.TrimSpace(o.Mnemonic)) <= 0 {
		return ErrNullMnemonic
	}
	if !bip39.IsMnemonicValid(normalizeMnemonic(o.Mnemonic)) {
		return ErrInvalidMnemonic
	}
	return nil
}

// NewWalletFromMnemonic restores a wallet from the given BIP-39 mnemonic.
func NewWalletFromMnemonic(opts NewWalletFromMnemonicOpts) (*Wallet, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	mnemonic := normalizeMnemonic(opts.Mnemonic)
	seed := bip39.NewSeed(mnemonic, "")
	masterKey, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}

	return &Wallet{mnemonic, masterKey}, nil
}

// Mnemonic returns the mnemonic of the wallet.
func (w *Wallet) Mnemonic() string {
	return w.mnemonic
}

// DeriveAccount returns the account keys at the given HD index, that is at
// path m/44'/0'/{index}'/0'.
func (w *Wallet) DeriveAccount(index uint32) (*Account, error) {
	path, err := AccountDerivationPath(index)
	if err != nil {
		return nil, err
	}
	return w.DeriveAccountAtPath(path)
}

// DeriveAccountAtPath returns the account keys at the given derivation path.
func (w *Wallet) DeriveAccountAtPath(path DerivationPath) (*Account, error) {
	if len(path) <= 0 {
		return nil, ErrNullDerivationPath
	}

	var err error
	node := w.masterKey
	for _, step := range path {
		node, err = node.Derive(step)
		if err != nil {
			return nil, err
		}
	}

	privKey, err := node.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return newAccount(privKey)
}

func normalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(mnemonic), " ")
}
