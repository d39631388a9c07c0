package vault

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/tdex-network/notewallet/internal/core/ports"
	"github.com/tdex-network/notewallet/pkg/passworder"
	"github.com/tdex-network/notewallet/pkg/securestore"
	"github.com/tdex-network/notewallet/pkg/wallet"
	"github.com/thanhpk/randstr"
)

const (
	checkStrgKey            = "vault_check"
	mnemonicStrgKey         = "vault_mnemonic"
	accPrivKeyStrgKeyPrefix = "vault_accprivkey_"
	accViewKeyStrgKeyPrefix = "vault_accviewkey_"
	accountsStrgKey         = "vault_accounts"
	settingsStrgKey         = "vault_settings"
	currAccPubKeyStrgKey    = "vault_curraccpubkey"
	hdIndexStrgKey          = "vault_hdindex"
	ownMnemonicStrgKey      = "vault_ownmnemonic"
)

// ErrStorageItemNotFound is returned when an entry expected to exist is
// missing from the storage.
var ErrStorageItemNotFound = errors.New("some storage item not found")

// Options allows to tune the key derivation, mostly for tests. The zero value
// uses the production parameters.
type Options struct {
	Iterations       int
	LegacyIterations int
}

func (o Options) iterations() int {
	if o.Iterations > 0 {
		return o.Iterations
	}
	return passworder.DefaultIterations
}

func (o Options) legacyIterations() int {
	if o.LegacyIterations > 0 {
		return o.LegacyIterations
	}
	return passworder.LegacyIterations
}

// Vault is the unlocked wallet. It holds the password derived key and is the
// only component able to read or write the encrypted entries. Operations are
// serialized per instance.
type Vault struct {
	storage securestore.SecureStorage
	opts    Options

	lock   *sync.Mutex
	keys   *keyring
	locked bool
}

// IsExist returns whether a wallet has ever been spawned on the storage.
func IsExist(ctx context.Context, storage securestore.SecureStorage) (bool, error) {
	items, err := storage.Get(ctx, []string{checkStrgKey})
	if err != nil {
		return false, err
	}
	_, ok := items[checkStrgKey]
	return ok, nil
}

// Spawn creates a new wallet encrypted with the given password. If mnemonic
// is empty a new random one is generated. The first HD account is derived
// and selected as current account.
func Spawn(
	ctx context.Context, storage securestore.SecureStorage,
	password, mnemonic string, ownMnemonic bool, opts Options,
) error {
	if len(password) <= 0 {
		return domain.ErrNullPassword
	}
	exists, err := IsExist(ctx, storage)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrAlreadyExists
	}

	var w *wallet.Wallet
	if len(strings.TrimSpace(mnemonic)) <= 0 {
		w, err = wallet.NewWallet(wallet.NewWalletOpts{})
	} else {
		w, err = wallet.NewWalletFromMnemonic(wallet.NewWalletFromMnemonicOpts{
			Mnemonic: mnemonic,
		})
	}
	if err != nil {
		return err
	}

	keys, err := newKeyring(password, nil, opts)
	if err != nil {
		return err
	}
	defer keys.wipe()

	accKeys, err := w.DeriveAccount(0)
	if err != nil {
		return err
	}
	defer accKeys.Zero()

	walletType := domain.WalletTypeOffChain
	account := domain.Account{
		PublicKey:  accKeys.PublicKey(),
		Name:       domain.DefaultAccountName(walletType, 1),
		IsPublic:   walletType.IsPublic(),
		WalletType: walletType,
		HDIndex:    0,
	}

	entries := map[string]interface{}{
		checkStrgKey:    randstr.Hex(16),
		mnemonicStrgKey: w.Mnemonic(),
		accPrivKeyStrgKeyPrefix + account.PublicKey: accKeys.PrivateKey(),
		accViewKeyStrgKeyPrefix + account.PublicKey: accKeys.ViewKey(),
		accountsStrgKey:      []domain.Account{account},
		settingsStrgKey:      domain.Settings{},
		currAccPubKeyStrgKey: account.PublicKey,
		hdIndexStrgKey:       uint32(1),
	}
	items, err := sealAll(keys, entries)
	if err != nil {
		return err
	}
	items[ownMnemonicStrgKey] = fmt.Sprintf("%t", ownMnemonic)

	if err := storage.Set(ctx, items); err != nil {
		return err
	}

	log.Debugf("vault: spawned wallet with account %s", account.PublicKey)
	return nil
}

// Setup unlocks the existing wallet with the given password.
func Setup(
	ctx context.Context, storage securestore.SecureStorage,
	password string, opts Options,
) (*Vault, error) {
	if len(password) <= 0 {
		return nil, domain.ErrNullPassword
	}

	items, err := storage.Get(ctx, []string{checkStrgKey})
	if err != nil {
		return nil, err
	}
	check, ok := items[checkStrgKey]
	if !ok {
		return nil, fmt.Errorf("%w: wallet not found", domain.ErrInvalidState)
	}

	b, err := decodeBlob(check)
	if err != nil {
		return nil, domain.ErrInvalidPassword
	}
	keys, err := newKeyring(password, b.salt, opts)
	if err != nil {
		return nil, err
	}

	var checkValue string
	legacy, err := keys.open(check, &checkValue)
	if err != nil {
		keys.wipe()
		if errors.Is(err, passworder.ErrDecrypt) {
			return nil, domain.ErrInvalidPassword
		}
		return nil, err
	}

	v := &Vault{
		storage: storage,
		opts:    opts,
		lock:    &sync.Mutex{},
		keys:    keys,
	}

	if legacy {
		log.Info("vault: migrating entries written with legacy encryption")
		if err := v.reencrypt(ctx, password); err != nil {
			keys.wipe()
			return nil, fmt.Errorf("failed to migrate legacy vault: %w", err)
		}
	}

	return v, nil
}

// Lock drops all the key material of the vault. Any further operation fails
// with domain.ErrLocked.
func (v *Vault) Lock() {
	v.lock.Lock()
	defer v.lock.Unlock()

	if v.locked {
		return
	}
	v.keys.wipe()
	v.keys = nil
	v.locked = true
}

// IsLocked ...
func (v *Vault) IsLocked() bool {
	v.lock.Lock()
	defer v.lock.Unlock()
	return v.locked
}

// State returns the Ready wallet state stored in the vault.
func (v *Vault) State(ctx context.Context) (*domain.WalletState, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	if v.locked {
		return nil, domain.ErrLocked
	}

	accounts, err := v.fetchAccounts(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := v.fetchSettings(ctx)
	if err != nil {
		return nil, err
	}
	var currentPubKey string
	if err := v.fetchOne(ctx, currAccPubKeyStrgKey, &currentPubKey); err != nil {
		return nil, err
	}
	ownMnemonic, err := v.isOwnMnemonic(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.WalletState{
		Status:                  domain.StatusReady,
		Accounts:                accounts,
		CurrentAccountPublicKey: currentPubKey,
		Settings:                settings,
		OwnMnemonic:             ownMnemonic,
	}, nil
}

func (v *Vault) FetchAccounts(ctx context.Context) ([]domain.Account, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	if v.locked {
		return nil, domain.ErrLocked
	}
	return v.fetchAccounts(ctx)
}

func (v *Vault) FetchSettings(ctx context.Context) (domain.Settings, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	if v.locked {
		return nil, domain.ErrLocked
	}
	return v.fetchSettings(ctx)
}

func (v *Vault) GetCurrentAccount(ctx context.Context) (*domain.Account, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	if v.locked {
		return nil, domain.ErrLocked
	}
	return v.getCurrentAccount(ctx)
}

func (v *Vault) IsOwnMnemonic(ctx context.Context) (bool, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	if v.locked {
		return false, domain.ErrLocked
	}
	return v.isOwnMnemonic(ctx)
}

// CreateHDAccount derives the account at the next HD index. If name is empty
// "{Public|Private} Account N" is used, where N is the index plus one.
func (v *Vault) CreateHDAccount(
	ctx context.Context, walletType domain.WalletType, name string,
) ([]domain.Account, error) {
	if !walletType.IsValid() {
		return nil, domain.ErrInvalidWalletType
	}

	v.lock.Lock()
	defer v.lock.Unlock()

	if v.locked {
		return nil, domain.ErrLocked
	}

	var mnemonic string
	if err := v.fetchOne(ctx, mnemonicStrgKey, &mnemonic); err != nil {
		return nil, err
	}
	w, err := wallet.NewWalletFromMnemonic(wallet.NewWalletFromMnemonicOpts{
		Mnemonic: mnemonic,
	})
	if err != nil {
		return nil, err
	}

	var hdIndex uint32
	if err := v.fetchOne(ctx, hdIndexStrgKey, &hdIndex); err != nil {
		return nil, err
	}
	accKeys, err := w.DeriveAccount(hdIndex)
	if err != nil {
		return nil, err
	}
	defer accKeys.Zero()

	if len(strings.TrimSpace(name)) <= 0 {
		name = domain.DefaultAccountName(walletType, int(hdIndex)+1)
	}
	account := domain.Account{
		PublicKey:  accKeys.PublicKey(),
		Name:       strings.TrimSpace(name),
		IsPublic:   walletType.IsPublic(),
		WalletType: walletType,
		HDIndex:    hdIndex,
	}

	return v.addAccount(ctx, account, accKeys, map[string]interface{}{
		hdIndexStrgKey: hdIndex + 1,
	})
}

// ImportAccount adds an account from its hex encoded private key.
func (v *Vault) ImportAccount(
	ctx context.Context, privKeyHex string,
	walletType domain.WalletType, name string,
) ([]domain.Account, error) {
	accKeys, err := wallet.NewAccountFromPrivateKey(privKeyHex)
	if err != nil {
		return nil, err
	}
	return v.importAccount(ctx, accKeys, walletType, name)
}

// ImportMnemonicAccount adds the account derived at the given path from a
// mnemonic other than the wallet's one.
func (v *Vault) ImportMnemonicAccount(
	ctx context.Context, mnemonic, derivationPath string,
	walletType domain.WalletType, name string,
) ([]domain.Account, error) {
	w, err := wallet.NewWalletFromMnemonic(wallet.NewWalletFromMnemonicOpts{
		Mnemonic: mnemonic,
	})
	if err != nil {
		return nil, err
	}

	path, err := wallet.AccountDerivationPath(0)
	if err != nil {
		return nil, err
	}
	if len(derivationPath) > 0 {
		if path, err = wallet.ParseDerivationPath(derivationPath); err != nil {
			return nil, err
		}
	}

	accKeys, err := w.DeriveAccountAtPath(path)
	if err != nil {
		return nil, err
	}
	return v.importAccount(ctx, accKeys, walletType, name)
}

func (v *Vault) EditAccountName(
	ctx context.Context, publicKey, name string,
) ([]domain.Account, error) {
	name = strings.TrimSpace(name)
	if len(name) <= 0 {
		return nil, domain.ErrInvalidAccountName
	}

	v.lock.Lock()
	defer v.lock.Unlock()

	if v.locked {
		return nil, domain.ErrLocked
	}

	accounts, err := v.fetchAccounts(ctx)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range accounts {
		if accounts[i].PublicKey == publicKey {
			accounts[i].Name = name
			found = true
			break
		}
	}
	if !found {
		return nil, domain.ErrAccountNotFound
	}

	if err := v.saveAll(ctx, map[string]interface{}{
		accountsStrgKey: accounts,
	}); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (v *Vault) SetCurrentAccount(
	ctx context.Context, publicKey string,
) (*domain.Account, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	if v.locked {
		return nil, domain.ErrLocked
	}

	accounts, err := v.fetchAccounts(ctx)
	if err != nil {
		return nil, err
	}
	account, ok := domain.FindAccount(accounts, publicKey)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	if err := v.saveAll(ctx, map[string]interface{}{
		currAccPubKeyStrgKey: publicKey,
	}); err != nil {
		return nil, err
	}
	return account, nil
}

// RemoveAccount deletes the account and its secrets after checking the
// password. If it was the current account, the first remaining one is
// selected.
func (v *Vault) RemoveAccount(
	ctx context.Context, publicKey, password string,
) ([]domain.Account, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	if v.locked {
		return nil, domain.ErrLocked
	}
	if !v.keys.matches(password) {
		return nil, domain.ErrInvalidPassword
	}

	accounts, err := v.fetchAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := domain.FindAccount(accounts, publicKey); !ok {
		return nil, domain.ErrAccountNotFound
	}
	if len(accounts) <= 1 {
		return nil, domain.ErrLastAccount
	}

	remaining := make([]domain.Account, 0, len(accounts)-1)
	for _, acc := range accounts {
		if acc.PublicKey != publicKey {
			remaining = append(remaining, acc)
		}
	}

	var currentPubKey string
	if err := v.fetchOne(ctx, currAccPubKeyStrgKey, &currentPubKey); err != nil {
		return nil, err
	}
	entries := map[string]interface{}{accountsStrgKey: remaining}
	if currentPubKey == publicKey {
		entries[currAccPubKeyStrgKey] = remaining[0].PublicKey
	}

	if err := v.saveAll(ctx, entries); err != nil {
		return nil, err
	}
	if err := v.storage.Remove(ctx, []string{
		accPrivKeyStrgKeyPrefix + publicKey,
		accViewKeyStrgKeyPrefix + publicKey,
	}); err != nil {
		return nil, err
	}
	return remaining, nil
}

// UpdateSettings shallow merges the given settings into the stored ones.
func (v *Vault) UpdateSettings(
	ctx context.Context, settings domain.Settings,
) (domain.Settings, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	if v.locked {
		return nil, domain.ErrLocked
	}

	current, err := v.fetchSettings(ctx)
	if err != nil {
		return nil, err
	}
	merged := current.Merge(settings)
	if err := v.saveAll(ctx, map[string]interface{}{
		settingsStrgKey: merged,
	}); err != nil {
		return nil, err
	}
	return merged, nil
}

// SignTransaction signs the hex encoded signing inputs with the key of the
// given account and returns the hex encoded signature.
func (v *Vault) SignTransaction(
	ctx context.Context, publicKey, signingInputsHex string,
) (string, error) {
	signingInputs, err := hex.DecodeString(signingInputsHex)
	if err != nil {
		return "", fmt.Errorf("signing inputs must be in hex format")
	}

	v.lock.Lock()
	defer v.lock.Unlock()

	if v.locked {
		return "", domain.ErrLocked
	}

	accKeys, err := v.accountKeys(ctx, publicKey)
	if err != nil {
		return "", err
	}
	defer accKeys.Zero()

	sig, err := accKeys.Sign(signingInputs)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sig), nil
}

// GetAuthSecretKey returns a secret derived from the current account's key
// and the given opaque key.
func (v *Vault) GetAuthSecretKey(ctx context.Context, key string) (string, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	if v.locked {
		return "", domain.ErrLocked
	}

	current, err := v.getCurrentAccount(ctx)
	if err != nil {
		return "", err
	}
	accKeys, err := v.accountKeys(ctx, current.PublicKey)
	if err != nil {
		return "", err
	}
	defer accKeys.Zero()

	return accKeys.AuthSecret(key), nil
}

// RevealMnemonic returns the wallet mnemonic after checking the password.
func (v *Vault) RevealMnemonic(ctx context.Context, password string) (string, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	if v.locked {
		return "", domain.ErrLocked
	}
	if !v.keys.matches(password) {
		return "", domain.ErrInvalidPassword
	}

	var mnemonic string
	if err := v.fetchOne(ctx, mnemonicStrgKey, &mnemonic); err != nil {
		return "", err
	}
	return mnemonic, nil
}

// RevealViewKey returns the view key of the given account after checking the
// password.
func (v *Vault) RevealViewKey(
	ctx context.Context, publicKey, password string,
) (string, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	if v.locked {
		return "", domain.ErrLocked
	}
	if !v.keys.matches(password) {
		return "", domain.ErrInvalidPassword
	}

	var viewKey string
	if err := v.fetchOne(ctx, accViewKeyStrgKeyPrefix+publicKey, &viewKey); err != nil {
		if errors.Is(err, ErrStorageItemNotFound) {
			return "", domain.ErrAccountNotFound
		}
		return "", err
	}
	return viewKey, nil
}

// Address returns the address of the given account.
func (v *Vault) Address(ctx context.Context, publicKey string) (string, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	if v.locked {
		return "", domain.ErrLocked
	}

	var viewKey string
	if err := v.fetchOne(ctx, accViewKeyStrgKeyPrefix+publicKey, &viewKey); err != nil {
		if errors.Is(err, ErrStorageItemNotFound) {
			return "", domain.ErrAccountNotFound
		}
		return "", err
	}
	return wallet.AddressFromViewKey(viewKey)
}

// ViewKeys returns the (address, view key) pairs of all accounts. Keys of
// imported accounts, or of any account when the mnemonic was provided by the
// user, may own records created before the wallet.
func (v *Vault) ViewKeys(ctx context.Context) ([]ports.ViewKey, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	if v.locked {
		return nil, domain.ErrLocked
	}

	accounts, err := v.fetchAccounts(ctx)
	if err != nil {
		return nil, err
	}
	ownMnemonic, err := v.isOwnMnemonic(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]ports.ViewKey, 0, len(accounts))
	for _, acc := range accounts {
		var viewKey string
		if err := v.fetchOne(ctx, accViewKeyStrgKeyPrefix+acc.PublicKey, &viewKey); err != nil {
			return nil, err
		}
		address, err := wallet.AddressFromViewKey(viewKey)
		if err != nil {
			return nil, err
		}
		keys = append(keys, ports.ViewKey{
			Address:     address,
			ViewKey:     viewKey,
			FromGenesis: ownMnemonic || acc.Imported,
		})
	}
	return keys, nil
}

// ChangePassword re-encrypts every entry with a key derived from the new
// password and a fresh salt.
func (v *Vault) ChangePassword(ctx context.Context, current, next string) error {
	if len(next) <= 0 {
		return domain.ErrNullPassword
	}

	v.lock.Lock()
	defer v.lock.Unlock()

	if v.locked {
		return domain.ErrLocked
	}
	if !v.keys.matches(current) {
		return domain.ErrInvalidPassword
	}
	return v.reencrypt(ctx, next)
}

func (v *Vault) importAccount(
	ctx context.Context, accKeys *wallet.Account,
	walletType domain.WalletType, name string,
) ([]domain.Account, error) {
	defer accKeys.Zero()

	if !walletType.IsValid() {
		return nil, domain.ErrInvalidWalletType
	}

	v.lock.Lock()
	defer v.lock.Unlock()

	if v.locked {
		return nil, domain.ErrLocked
	}

	accounts, err := v.fetchAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(name)) <= 0 {
		name = domain.DefaultAccountName(walletType, len(accounts)+1)
	}

	account := domain.Account{
		PublicKey:  accKeys.PublicKey(),
		Name:       strings.TrimSpace(name),
		IsPublic:   walletType.IsPublic(),
		WalletType: walletType,
		Imported:   true,
	}
	return v.addAccount(ctx, account, accKeys, nil)
}

func (v *Vault) addAccount(
	ctx context.Context, account domain.Account, accKeys *wallet.Account,
	extraEntries map[string]interface{},
) ([]domain.Account, error) {
	accounts, err := v.fetchAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := domain.FindAccount(accounts, account.PublicKey); ok {
		return nil, domain.ErrAccountAlreadyExists
	}
	accounts = append(accounts, account)

	entries := map[string]interface{}{
		accPrivKeyStrgKeyPrefix + account.PublicKey: accKeys.PrivateKey(),
		accViewKeyStrgKeyPrefix + account.PublicKey: accKeys.ViewKey(),
		accountsStrgKey: accounts,
	}
	for k, val := range extraEntries {
		entries[k] = val
	}

	if err := v.saveAll(ctx, entries); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (v *Vault) accountKeys(
	ctx context.Context, publicKey string,
) (*wallet.Account, error) {
	var privKey string
	if err := v.fetchOne(ctx, accPrivKeyStrgKeyPrefix+publicKey, &privKey); err != nil {
		if errors.Is(err, ErrStorageItemNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return wallet.NewAccountFromPrivateKey(privKey)
}

func (v *Vault) fetchAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts := make([]domain.Account, 0)
	if err := v.fetchOne(ctx, accountsStrgKey, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (v *Vault) fetchSettings(ctx context.Context) (domain.Settings, error) {
	settings := domain.Settings{}
	if err := v.fetchOne(ctx, settingsStrgKey, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (v *Vault) getCurrentAccount(ctx context.Context) (*domain.Account, error) {
	var currentPubKey string
	if err := v.fetchOne(ctx, currAccPubKeyStrgKey, &currentPubKey); err != nil {
		return nil, err
	}
	accounts, err := v.fetchAccounts(ctx)
	if err != nil {
		return nil, err
	}
	account, ok := domain.FindAccount(accounts, currentPubKey)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

func (v *Vault) isOwnMnemonic(ctx context.Context) (bool, error) {
	items, err := v.storage.Get(ctx, []string{ownMnemonicStrgKey})
	if err != nil {
		return false, err
	}
	return items[ownMnemonicStrgKey] == "true", nil
}

func (v *Vault) fetchOne(ctx context.Context, key string, out interface{}) error {
	items, err := v.storage.Get(ctx, []string{key})
	if err != nil {
		return err
	}
	value, ok := items[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrStorageItemNotFound, key)
	}
	if _, err := v.keys.open(value, out); err != nil {
		return err
	}
	return nil
}

func (v *Vault) saveAll(ctx context.Context, entries map[string]interface{}) error {
	items, err := sealAll(v.keys, entries)
	if err != nil {
		return err
	}
	return v.storage.Set(ctx, items)
}

// reencrypt reads every encrypted entry and writes it back sealed with a key
// derived from password and a fresh salt.
func (v *Vault) reencrypt(ctx context.Context, password string) error {
	accounts, err := v.fetchAccounts(ctx)
	if err != nil {
		return err
	}

	keys := []string{
		checkStrgKey, mnemonicStrgKey, accountsStrgKey, settingsStrgKey,
		currAccPubKeyStrgKey, hdIndexStrgKey,
	}
	for _, acc := range accounts {
		keys = append(
			keys,
			accPrivKeyStrgKeyPrefix+acc.PublicKey,
			accViewKeyStrgKeyPrefix+acc.PublicKey,
		)
	}

	entries := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		var value interface{}
		if err := v.fetchOne(ctx, k, &value); err != nil {
			return err
		}
		entries[k] = value
	}

	newKeys, err := newKeyring(password, nil, v.opts)
	if err != nil {
		return err
	}
	items, err := sealAll(newKeys, entries)
	if err != nil {
		newKeys.wipe()
		return err
	}
	if err := v.storage.Set(ctx, items); err != nil {
		newKeys.wipe()
		return err
	}

	v.keys.wipe()
	v.keys = newKeys
	return nil
}

func sealAll(
	keys *keyring, entries map[string]interface{},
) (map[string]string, error) {
	items := make(map[string]string, len(entries))
	for k, value := range entries {
		sealed, err := keys.seal(value)
		if err != nil {
			return nil, err
		}
		items[k] = sealed
	}
	return items, nil
}
