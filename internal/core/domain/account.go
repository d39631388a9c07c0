package domain

import "fmt"

// WalletType tells whether an account's notes are public (on-chain) or
// private (off-chain).
type WalletType string

const (
	WalletTypeOnChain  WalletType = "OnChain"
	WalletTypeOffChain WalletType = "OffChain"
)

func (t WalletType) IsValid() bool {
	return t == WalletTypeOnChain || t == WalletTypeOffChain
}

// IsPublic returns whether accounts of this type are public.
func (t WalletType) IsPublic() bool {
	return t == WalletTypeOnChain
}

// Account defines the entity data structure for an account of the wallet,
// either derived from the mnemonic or imported.
type Account struct {
	PublicKey  string     `json:"publicKey"`
	Name       string     `json:"name"`
	IsPublic   bool       `json:"isPublic"`
	WalletType WalletType `json:"walletType"`
	HDIndex    uint32     `json:"hdIndex"`
	Imported   bool       `json:"imported,omitempty"`
}

// DefaultAccountName returns "Public Account N" or "Private Account N"
// depending on the wallet type.
func DefaultAccountName(walletType WalletType, n int) string {
	kind := "Private"
	if walletType.IsPublic() {
		kind = "Public"
	}
	return fmt.Sprintf("%s Account %d", kind, n)
}

// FindAccount returns the account with the given public key, if any.
func FindAccount(accounts []Account, publicKey string) (*Account, bool) {
	for i := range accounts {
		if accounts[i].PublicKey == publicKey {
			acc := accounts[i]
			return &acc, true
		}
	}
	return nil, false
}
