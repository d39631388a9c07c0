package background

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/notewallet/internal/core/application/vault"
	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/tdex-network/notewallet/internal/core/ports"
	"github.com/tdex-network/notewallet/pkg/stats"
)

const (
	// UnlockFailureDelay is waited before returning a wrong password error.
	UnlockFailureDelay = 300 * time.Millisecond
	// MaxAccountNameLength is the max number of characters of an account
	// name.
	MaxAccountNameLength = 16
)

// Actions are the only functions allowed to read or mutate the state owned by
// the store.
type Actions struct {
	store    *Store
	sessions domain.DAppSessionRepository
	networks map[string]bool

	unlockFailureDelay time.Duration
}

// NewActions returns the actions operating on the given store. DApps can
// only request permissions for one of the given networks.
func NewActions(
	store *Store, sessions domain.DAppSessionRepository, networks []string,
) (*Actions, error) {
	if store == nil {
		return nil, fmt.Errorf("missing store")
	}
	if sessions == nil {
		return nil, fmt.Errorf("missing dapp session repository")
	}
	if len(networks) <= 0 {
		return nil, fmt.Errorf("missing networks")
	}

	allowed := make(map[string]bool)
	for _, n := range networks {
		allowed[n] = true
	}
	return &Actions{store, sessions, allowed, UnlockFailureDelay}, nil
}

// Init loads the initial status of the wallet.
func (a *Actions) Init(ctx context.Context) error {
	return a.store.exec(ctx, true, func(st *storeState) error {
		return a.init(ctx, st)
	})
}

func (a *Actions) GetFrontState(ctx context.Context) (domain.FrontState, error) {
	var front domain.FrontState
	err := a.store.exec(ctx, false, func(st *storeState) error {
		if err := a.init(ctx, st); err != nil {
			return err
		}
		front = st.wallet.Front()
		return nil
	})
	return front, err
}

// RegisterNewWallet spawns a new wallet and unlocks it.
func (a *Actions) RegisterNewWallet(
	ctx context.Context, password, mnemonic string, ownMnemonic bool,
) error {
	return a.store.exec(ctx, true, func(st *storeState) error {
		if err := a.init(ctx, st); err != nil {
			return err
		}
		if st.wallet.Status != domain.StatusIdle {
			return domain.ErrAlreadyExists
		}

		if err := vault.Spawn(
			ctx, a.store.storage, password, mnemonic, ownMnemonic,
			a.store.vaultOpts,
		); err != nil {
			return err
		}
		return a.unlock(ctx, st, password)
	})
}

// Unlock unlocks the wallet. A wrong password is reported only after
// UnlockFailureDelay.
func (a *Actions) Unlock(ctx context.Context, password string) error {
	err := a.store.exec(ctx, true, func(st *storeState) error {
		if err := a.init(ctx, st); err != nil {
			return err
		}
		if st.wallet.Status != domain.StatusLocked {
			return domain.ErrInvalidState
		}
		return a.unlock(ctx, st, password)
	})

	if errors.Is(err, domain.ErrInvalidPassword) {
		stats.UnlockFailures.Inc()
		select {
		case <-time.After(a.unlockFailureDelay):
		case <-ctx.Done():
		}
	}
	return err
}

func (a *Actions) Lock(ctx context.Context) error {
	return a.store.exec(ctx, true, func(st *storeState) error {
		if err := a.init(ctx, st); err != nil {
			return err
		}
		if st.wallet.Status != domain.StatusReady {
			return domain.ErrInvalidState
		}

		st.vault.Lock()
		st.vault = nil
		st.wallet = domain.WalletState{Status: domain.StatusLocked}
		log.Debug("wallet locked")
		return nil
	})
}

func (a *Actions) GetCurrentAccount(ctx context.Context) (*domain.Account, error) {
	var account *domain.Account
	err := a.withUnlocked(ctx, false, func(st *storeState) error {
		acc, ok := st.wallet.CurrentAccount()
		if !ok {
			return domain.ErrAccountNotFound
		}
		account = acc
		return nil
	})
	return account, err
}

// CreateHDAccount derives a new account. The name is optional.
func (a *Actions) CreateHDAccount(
	ctx context.Context, walletType domain.WalletType, name string,
) ([]domain.Account, error) {
	if err := validateAccountName(name, true); err != nil {
		return nil, err
	}

	var accounts []domain.Account
	err := a.withUnlocked(ctx, true, func(st *storeState) error {
		var err error
		if accounts, err = st.vault.CreateHDAccount(ctx, walletType, name); err != nil {
			return err
		}
		st.wallet.Accounts = accounts
		return nil
	})
	return accounts, err
}

func (a *Actions) ImportAccount(
	ctx context.Context, privateKey string,
	walletType domain.WalletType, name string,
) ([]domain.Account, error) {
	if err := validateAccountName(name, true); err != nil {
		return nil, err
	}

	var accounts []domain.Account
	err := a.withUnlocked(ctx, true, func(st *storeState) error {
		var err error
		if accounts, err = st.vault.ImportAccount(
			ctx, privateKey, walletType, name,
		); err != nil {
			return err
		}
		st.wallet.Accounts = accounts
		return nil
	})
	return accounts, err
}

func (a *Actions) ImportMnemonicAccount(
	ctx context.Context, mnemonic, derivationPath string,
	walletType domain.WalletType, name string,
) ([]domain.Account, error) {
	if err := validateAccountName(name, true); err != nil {
		return nil, err
	}

	var accounts []domain.Account
	err := a.withUnlocked(ctx, true, func(st *storeState) error {
		var err error
		if accounts, err = st.vault.ImportMnemonicAccount(
			ctx, mnemonic, derivationPath, walletType, name,
		); err != nil {
			return err
		}
		st.wallet.Accounts = accounts
		return nil
	})
	return accounts, err
}

func (a *Actions) UpdateCurrentAccount(
	ctx context.Context, publicKey string,
) (*domain.Account, error) {
	var account *domain.Account
	err := a.withUnlocked(ctx, true, func(st *storeState) error {
		var err error
		if account, err = st.vault.SetCurrentAccount(ctx, publicKey); err != nil {
			return err
		}
		st.wallet.CurrentAccountPublicKey = account.PublicKey
		return nil
	})
	return account, err
}

func (a *Actions) EditAccount(
	ctx context.Context, publicKey, name string,
) ([]domain.Account, error) {
	if err := validateAccountName(name, false); err != nil {
		return nil, err
	}

	var accounts []domain.Account
	err := a.withUnlocked(ctx, true, func(st *storeState) error {
		var err error
		if accounts, err = st.vault.EditAccountName(ctx, publicKey, name); err != nil {
			return err
		}
		st.wallet.Accounts = accounts
		return nil
	})
	return accounts, err
}

// RemoveAccount removes the account and all the DApp sessions bound to it.
func (a *Actions) RemoveAccount(
	ctx context.Context, publicKey, password string,
) ([]domain.Account, error) {
	var accounts []domain.Account
	err := a.withUnlocked(ctx, true, func(st *storeState) error {
		var err error
		if accounts, err = st.vault.RemoveAccount(ctx, publicKey, password); err != nil {
			return err
		}
		current, err := st.vault.GetCurrentAccount(ctx)
		if err != nil {
			return err
		}
		st.wallet.Accounts = accounts
		st.wallet.CurrentAccountPublicKey = current.PublicKey
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.removeSessionsForAccount(ctx, publicKey)
	return accounts, nil
}

func (a *Actions) UpdateSettings(
	ctx context.Context, settings domain.Settings,
) (domain.Settings, error) {
	var updated domain.Settings
	err := a.withUnlocked(ctx, true, func(st *storeState) error {
		var err error
		if updated, err = st.vault.UpdateSettings(ctx, settings); err != nil {
			return err
		}
		st.wallet.Settings = updated
		return nil
	})
	return updated, err
}

// SignTransaction returns the hex encoded signature of the given signing
// inputs made with the key of the given account.
func (a *Actions) SignTransaction(
	ctx context.Context, publicKey, signingInputsHex string,
) (string, error) {
	var signature string
	err := a.withUnlocked(ctx, false, func(st *storeState) error {
		var err error
		signature, err = st.vault.SignTransaction(ctx, publicKey, signingInputsHex)
		return err
	})
	return signature, err
}

func (a *Actions) GetAuthSecretKey(ctx context.Context, key string) (string, error) {
	var secret string
	err := a.withUnlocked(ctx, false, func(st *storeState) error {
		var err error
		secret, err = st.vault.GetAuthSecretKey(ctx, key)
		return err
	})
	return secret, err
}

func (a *Actions) RevealMnemonic(ctx context.Context, password string) (string, error) {
	var mnemonic string
	err := a.withUnlocked(ctx, false, func(st *storeState) error {
		var err error
		mnemonic, err = st.vault.RevealMnemonic(ctx, password)
		return err
	})
	return mnemonic, err
}

func (a *Actions) RevealViewKey(
	ctx context.Context, publicKey, password string,
) (string, error) {
	var viewKey string
	err := a.withUnlocked(ctx, false, func(st *storeState) error {
		var err error
		viewKey, err = st.vault.RevealViewKey(ctx, publicKey, password)
		return err
	})
	return viewKey, err
}

func (a *Actions) ChangePassword(ctx context.Context, current, next string) error {
	return a.withUnlocked(ctx, false, func(st *storeState) error {
		return st.vault.ChangePassword(ctx, current, next)
	})
}

// ViewKeys returns the (address, view key) pairs of all accounts.
func (a *Actions) ViewKeys(ctx context.Context) ([]ports.ViewKey, error) {
	var keys []ports.ViewKey
	err := a.withUnlocked(ctx, false, func(st *storeState) error {
		var err error
		keys, err = st.vault.ViewKeys(ctx)
		return err
	})
	return keys, err
}

// EnsureReady fails with domain.ErrLocked if the wallet is Locked and with
// domain.ErrInvalidState if it's Idle.
func (a *Actions) EnsureReady(ctx context.Context) error {
	return a.withUnlocked(ctx, false, func(*storeState) error { return nil })
}

// IsReady ...
func (a *Actions) IsReady(ctx context.Context) bool {
	front, err := a.GetFrontState(ctx)
	return err == nil && front.Status == domain.StatusReady
}

func (a *Actions) init(ctx context.Context, st *storeState) error {
	if st.inited {
		return nil
	}

	exists, err := vault.IsExist(ctx, a.store.storage)
	if err != nil {
		return err
	}
	st.wallet = domain.WalletState{Status: domain.StatusIdle}
	if exists {
		st.wallet.Status = domain.StatusLocked
	}
	st.inited = true
	return nil
}

func (a *Actions) unlock(
	ctx context.Context, st *storeState, password string,
) error {
	v, err := vault.Setup(ctx, a.store.storage, password, a.store.vaultOpts)
	if err != nil {
		return err
	}

	state, err := v.State(ctx)
	if err != nil {
		v.Lock()
		return err
	}

	st.vault = v
	st.wallet = *state
	log.Debug("wallet unlocked")
	return nil
}

// withUnlocked runs fn only if the wallet is Ready. It fails with
// domain.ErrLocked if Locked, domain.ErrInvalidState if Idle.
func (a *Actions) withUnlocked(
	ctx context.Context, mutate bool, fn func(st *storeState) error,
) error {
	return a.store.exec(ctx, mutate, func(st *storeState) error {
		if err := a.init(ctx, st); err != nil {
			return err
		}
		switch st.wallet.Status {
		case domain.StatusLocked:
			return domain.ErrLocked
		case domain.StatusIdle:
			return domain.ErrInvalidState
		}
		return fn(st)
	})
}

func validateAccountName(name string, optional bool) error {
	name = strings.TrimSpace(name)
	if len(name) <= 0 {
		if optional {
			return nil
		}
		return domain.ErrInvalidAccountName
	}
	if utf8.RuneCountInString(name) > MaxAccountNameLength {
		return fmt.Errorf(
			"%w: max %d characters", domain.ErrInvalidAccountName,
			MaxAccountNameLength,
		)
	}
	return nil
}
