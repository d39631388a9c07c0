package domain

// Status of the wallet.
type Status string

const (
	// StatusIdle means no wallet exists yet.
	StatusIdle Status = "Idle"
	// StatusLocked means a wallet exists but its secrets are not in memory.
	StatusLocked Status = "Locked"
	// StatusReady means the wallet is unlocked.
	StatusReady Status = "Ready"
)

// Settings is a free-form object of wallet preferences. Updates are shallow
// merges.
type Settings map[string]interface{}

// Merge returns a copy of s with all keys of other overwritten.
func (s Settings) Merge(other Settings) Settings {
	merged := make(Settings, len(s)+len(other))
	for k, v := range s {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// WalletState is the single source of truth of the background context.
type WalletState struct {
	Status                  Status
	Accounts                []Account
	CurrentAccountPublicKey string
	Settings                Settings
	OwnMnemonic             bool
}

// CurrentAccount returns the selected account, if any.
func (s WalletState) CurrentAccount() (*Account, bool) {
	if s.CurrentAccountPublicKey == "" {
		return nil, false
	}
	return FindAccount(s.Accounts, s.CurrentAccountPublicKey)
}

// IsConsistent checks that a Ready state has at least one account and that
// the current one is among them.
func (s WalletState) IsConsistent() bool {
	if s.Status != StatusReady {
		return true
	}
	if len(s.Accounts) <= 0 {
		return false
	}
	_, ok := s.CurrentAccount()
	return ok
}

// FrontState is the projection of WalletState safe to be sent to any front
// context. It never holds secrets and accounts are hidden unless Ready.
type FrontState struct {
	Status         Status    `json:"status"`
	Accounts       []Account `json:"accounts"`
	CurrentAccount *Account  `json:"currentAccount"`
	Settings       Settings  `json:"settings"`
	OwnMnemonic    bool      `json:"ownMnemonic"`
}

// Front returns the front projection of the state.
func (s WalletState) Front() FrontState {
	front := FrontState{
		Status:   s.Status,
		Accounts: []Account{},
		Settings: Settings{},
	}
	if s.Status != StatusReady {
		return front
	}

	front.Accounts = append(front.Accounts, s.Accounts...)
	front.Settings = s.Settings.Merge(nil)
	front.OwnMnemonic = s.OwnMnemonic
	if acc, ok := s.CurrentAccount(); ok {
		front.CurrentAccount = acc
	}
	return front
}
